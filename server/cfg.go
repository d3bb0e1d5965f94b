package server

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/mazerun/replay"
)

// Config is read from the environment; request query parameters override
// the maze fields per session.
type Config struct {
	Port     string
	Rows     int
	Cols     int
	Seed     int64
	Interval time.Duration
	MaxSide  int
	DBPath   string
	LogLevel log.Level
}

func DefaultConfig() Config {
	return Config{
		Port:     "8080",
		Rows:     21,
		Cols:     21,
		Interval: 200 * time.Millisecond,
		MaxSide:  401,
		DBPath:   "mazerun.db",
		LogLevel: log.InfoLevel,
	}
}

// LoadConfig reads PORT, MAZE_ROWS, MAZE_COLS, MAZE_SEED, MAZE_INTERVAL,
// MAZE_MAX_SIDE, MAZE_DB and LOG_LEVEL.
func LoadConfig() (Config, error) {
	return LoadConfigFrom(os.Getenv)
}

func LoadConfigFrom(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()
	if v := getenv("PORT"); v != "" {
		cfg.Port = v
	} else {
		log.Printf("Defaulting to port %s", cfg.Port)
	}
	var err error
	if cfg.Rows, err = envInt(getenv, "MAZE_ROWS", cfg.Rows); err != nil {
		return cfg, err
	}
	if cfg.Cols, err = envInt(getenv, "MAZE_COLS", cfg.Cols); err != nil {
		return cfg, err
	}
	if cfg.MaxSide, err = envInt(getenv, "MAZE_MAX_SIDE", cfg.MaxSide); err != nil {
		return cfg, err
	}
	if v := getenv("MAZE_SEED"); v != "" {
		if cfg.Seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return cfg, fmt.Errorf("MAZE_SEED: %w", err)
		}
	}
	if v := getenv("MAZE_INTERVAL"); v != "" {
		if cfg.Interval, err = time.ParseDuration(v); err != nil {
			return cfg, fmt.Errorf("MAZE_INTERVAL: %w", err)
		}
	}
	if v := getenv("MAZE_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		if cfg.LogLevel, err = log.ParseLevel(v); err != nil {
			return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.MaxSide < replay.MinSide {
		return fmt.Errorf("max side %d below %d", c.MaxSide, replay.MinSide)
	}
	if err := c.checkSides(c.Rows, c.Cols); err != nil {
		return err
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval %v must be positive", c.Interval)
	}
	return nil
}

func (c Config) checkSides(rows, cols int) error {
	if rows < replay.MinSide || cols < replay.MinSide || rows > c.MaxSide || cols > c.MaxSide {
		return fmt.Errorf("maze %dx%d outside %d..%d", rows, cols, replay.MinSide, c.MaxSide)
	}
	return nil
}

// ParamsFromQuery applies rows, cols, seed and interval from the query.
// A zero seed everywhere means a fresh time based seed.
func (c Config) ParamsFromQuery(q url.Values) (replay.Params, time.Duration, error) {
	rows, cols, seed, interval := c.Rows, c.Cols, c.Seed, c.Interval
	var err error
	if rows, err = queryInt(q, "rows", rows); err != nil {
		return replay.Params{}, 0, err
	}
	if cols, err = queryInt(q, "cols", cols); err != nil {
		return replay.Params{}, 0, err
	}
	if v := q.Get("seed"); v != "" {
		if seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return replay.Params{}, 0, fmt.Errorf("seed: %w", err)
		}
	}
	if v := q.Get("interval"); v != "" {
		if interval, err = time.ParseDuration(v); err != nil {
			return replay.Params{}, 0, fmt.Errorf("interval: %w", err)
		}
		if interval <= 0 {
			return replay.Params{}, 0, fmt.Errorf("interval %v must be positive", interval)
		}
	}
	if err := c.checkSides(rows, cols); err != nil {
		return replay.Params{}, 0, err
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return replay.DefaultParams(rows, cols, seed), interval, nil
}

func envInt(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func queryInt(q url.Values, key string, def int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
