package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var ErrRunNotFound = errors.New("run not found")

// Run is one generated maze and the outcome of its search.
type Run struct {
	Id         string    `json:"id"`
	Rows       int       `json:"rows"`
	Cols       int       `json:"cols"`
	Seed       int64     `json:"seed"`
	StartX     int       `json:"start_x"`
	StartY     int       `json:"start_y"`
	GoalX      int       `json:"goal_x"`
	GoalY      int       `json:"goal_y"`
	Found      bool      `json:"found"`
	PathLength int       `json:"path_length"`
	Expanded   int       `json:"expanded"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store keeps the run history in sqlite.
type Store struct {
	*sql.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection, so ":memory:" stays a single database
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id       TEXT PRIMARY KEY,
			grid_rows    INTEGER NOT NULL,
			grid_cols    INTEGER NOT NULL,
			seed         INTEGER NOT NULL,
			start_x      INTEGER NOT NULL,
			start_y      INTEGER NOT NULL,
			goal_x       INTEGER NOT NULL,
			goal_y       INTEGER NOT NULL,
			found        INTEGER NOT NULL,
			path_length  INTEGER NOT NULL,
			expanded     INTEGER NOT NULL,
			created_at   INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db}, nil
}

func (s *Store) Record(ctx context.Context, r Run) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.ExecContext(ctx, `
		INSERT INTO runs (run_id, grid_rows, grid_cols, seed, start_x, start_y, goal_x, goal_y,
			found, path_length, expanded, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Id, r.Rows, r.Cols, r.Seed, r.StartX, r.StartY, r.GoalX, r.GoalY,
		r.Found, r.PathLength, r.Expanded, r.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.Id, err)
	}
	return nil
}

const runColumns = `run_id, grid_rows, grid_cols, seed, start_x, start_y, goal_x, goal_y,
	found, path_length, expanded, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var created int64
	err := row.Scan(&r.Id, &r.Rows, &r.Cols, &r.Seed, &r.StartX, &r.StartY, &r.GoalX, &r.GoalY,
		&r.Found, &r.PathLength, &r.Expanded, &created)
	if err != nil {
		return r, err
	}
	r.CreatedAt = time.Unix(0, created)
	return r, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	r, err := scanRun(s.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}
