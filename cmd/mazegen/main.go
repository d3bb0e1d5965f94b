// Command mazegen prints a generated maze with its shortest path.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/mazerun/model"
	"github.com/zucenko/mazerun/path"
	"github.com/zucenko/mazerun/replay"
)

func main() {
	rows := flag.Int("rows", 21, "maze rows")
	cols := flag.Int("cols", 21, "maze columns")
	seed := flag.Int64("seed", 0, "random seed, 0 picks one from the clock")
	in := flag.String("in", "", "read a text maze instead of generating one")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if err := run(os.Stdout, *in, *rows, *cols, *seed); err != nil {
		log.Fatal(err)
	}
}

func run(out io.Writer, in string, rows, cols int, seed int64) error {
	if in != "" {
		return solveFile(out, in)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sess, err := replay.NewSession("cli", replay.DefaultParams(rows, cols, seed), nil)
	if err != nil {
		return err
	}
	start, goal := sess.Params.Start, sess.Params.Goal
	fmt.Fprint(out, model.Render(sess.Grid, sess.Result.Path, &start, &goal))
	return summary(out, seed, sess.Result)
}

func solveFile(out io.Writer, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	grid, err := model.ReadGrid(f)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	rows, cols := grid.Dimensions()
	p := replay.DefaultParams(rows, cols, 0)
	if err := p.Validate(); err != nil {
		return err
	}
	res, err := path.FindPath(grid, p.Start, p.Goal)
	if err != nil {
		return err
	}
	fmt.Fprint(out, model.Render(grid, res.Path, &p.Start, &p.Goal))
	return summary(out, 0, res)
}

func summary(out io.Writer, seed int64, res path.Result) error {
	if !res.Found {
		_, err := fmt.Fprintf(out, "seed %d: no path (%d expanded)\n", seed, res.Expanded)
		return err
	}
	_, err := fmt.Fprintf(out, "seed %d: %d steps, %d expanded\n", seed, res.Cost, res.Expanded)
	return err
}
