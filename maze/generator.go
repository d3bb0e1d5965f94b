// Package maze carves perfect mazes with randomized recursive backtracking.
package maze

import (
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/mazerun/model"
)

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

var carveDirections = [4]model.Position{{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1}}

type Options struct {
	Seed     int64
	Shuffler Shuffler
	Logger   *log.Entry
}

type Option func(*Options)

func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}

// WithShuffler replaces the seeded source, it wins over WithSeed.
func WithShuffler(s Shuffler) Option {
	return func(o *Options) { o.Shuffler = s }
}

func WithLogger(l *log.Entry) Option {
	return func(o *Options) { o.Logger = l }
}

type Generator struct {
	rows, cols int
	shuffler   Shuffler
	log        *log.Entry
}

// frame replaces one level of the carving recursion.
type frame struct {
	cell model.Position
	dirs [4]model.Position
	next int
}

func NewGenerator(rows, cols int, opts ...Option) (*Generator, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", model.ErrInvalidDimensions, rows, cols)
	}
	o := Options{Seed: time.Now().UnixNano()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Shuffler == nil {
		o.Shuffler = rand.New(rand.NewSource(o.Seed))
	}
	if o.Logger == nil {
		o.Logger = log.NewEntry(log.StandardLogger())
	}
	return &Generator{
		rows:     rows,
		cols:     cols,
		shuffler: o.Shuffler,
		log:      o.Logger.WithField("component", "maze"),
	}, nil
}

func (g *Generator) Dimensions() (rows, cols int) {
	return g.rows, g.cols
}

// Generate returns a fresh grid carved from the origin. Only cells an even
// number of steps from the origin along each axis can be reached, the rest
// stay walls.
func (g *Generator) Generate(originX, originY int) (*model.Grid, error) {
	grid, err := model.NewGrid(g.rows, g.cols)
	if err != nil {
		return nil, err
	}
	origin := model.Position{X: originX, Y: originY}
	if err := grid.Set(origin, model.Open); err != nil {
		return nil, fmt.Errorf("generate origin: %w", err)
	}

	stack := []frame{g.enter(origin)}
	carved := 0
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.dirs) {
			stack = stack[:len(stack)-1]
			continue
		}
		d := top.dirs[top.next]
		top.next++
		n := top.cell.Add(d.Scale(2))
		if !grid.Contains(n) || grid.At(n) != model.Wall {
			continue
		}
		// both positions are in bounds, the wall between lies between them
		_ = grid.Set(top.cell.Add(d), model.Open)
		_ = grid.Set(n, model.Open)
		carved++
		stack = append(stack, g.enter(n))
	}

	g.log.WithFields(log.Fields{
		"origin": origin.String(),
		"rows":   g.rows,
		"cols":   g.cols,
		"carved": carved,
	}).Debug("maze generated")
	return grid, nil
}

// enter shuffles the directions for a newly visited cell.
func (g *Generator) enter(cell model.Position) frame {
	f := frame{cell: cell, dirs: carveDirections}
	g.shuffler.Shuffle(len(f.dirs), func(i, j int) {
		f.dirs[i], f.dirs[j] = f.dirs[j], f.dirs[i]
	})
	return f
}
