// Command viewer animates a maze replay in a window. It computes the replay
// itself, or follows a mazerun server with -server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/hajimehoshi/ebiten"
	log "github.com/sirupsen/logrus"

	"github.com/zucenko/mazerun/model"
	"github.com/zucenko/mazerun/replay"
	"github.com/zucenko/mazerun/server"
)

func main() {
	rows := flag.Int("rows", 21, "maze rows")
	cols := flag.Int("cols", 21, "maze columns")
	seed := flag.Int64("seed", 0, "random seed, 0 picks one from the clock")
	interval := flag.Duration("interval", 200*time.Millisecond, "time per step")
	cell := flag.Int("cell", 32, "cell size in pixels")
	addr := flag.String("server", "", "websocket base URL of a mazerun server, e.g. ws://localhost:8080")
	flag.Parse()

	logger := log.NewEntry(log.StandardLogger())
	f, err := openFeed(*addr, *rows, *cols, *seed, *interval, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	setup, err := waitSetup(f, 5*time.Second)
	if err != nil {
		log.Fatal(err)
	}
	game, err := NewGame(f, *cell, float32(interval.Seconds()), logger)
	if err != nil {
		log.Fatal(err)
	}
	if err := game.apply(setup); err != nil {
		log.Fatal(err)
	}

	w, h := game.ScreenSize()
	if err := ebiten.Run(game.update, w, h, 1, "Maze Pathfinding"); err != nil {
		log.Fatal(err)
	}
}

func openFeed(addr string, rows, cols int, seed int64, interval time.Duration, logger *log.Entry) (feed, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if addr == "" {
		sess, err := replay.NewSession("local", replay.DefaultParams(rows, cols, seed), logger)
		if err != nil {
			return nil, err
		}
		return replay.NewFeed(sess, interval), nil
	}

	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}
	u.Path = server.URI_WS
	q := u.Query()
	q.Set("rows", strconv.Itoa(rows))
	q.Set("cols", strconv.Itoa(cols))
	q.Set("seed", strconv.FormatInt(seed, 10))
	q.Set("interval", interval.String())
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Dial(ctx, u.String(), logger)
}

// waitSetup polls until the first frame arrives, the window is sized from it.
func waitSetup(f feed, timeout time.Duration) (model.ServerMessage, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		mes, ok := f.Poll()
		if !ok {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if len(mes.Setup) == 0 {
			return mes, errors.New("stream did not start with a setup")
		}
		return mes, nil
	}
	return model.ServerMessage{}, fmt.Errorf("no setup within %v", timeout)
}
