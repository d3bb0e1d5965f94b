// Package path finds shortest routes through a maze grid with A*.
//
// Moves are 4-directional with unit cost. The open set is an append-only
// heap: improved cells are pushed again rather than decreased in place, and
// an entry popped with a cost above the cell's best known g is skipped.
package path

import (
	"container/heap"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/mazerun/model"
)

var ErrNilGrid = errors.New("nil grid")

// Heuristic estimates the remaining cost from a to b.
type Heuristic func(a, b model.Position) int

// Manhattan is admissible and consistent for unit 4-directional moves.
func Manhattan(a, b model.Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Result is the outcome of one search. Found is false when the goal is not
// reachable, which is not an error.
type Result struct {
	Path     model.Path
	Cost     int
	Expanded int
	Found    bool
}

type Options struct {
	Heuristic Heuristic
	Logger    *log.Entry
}

type Option func(*Options)

// WithHeuristic swaps the estimate, nil keeps Manhattan.
func WithHeuristic(h Heuristic) Option {
	return func(o *Options) {
		if h != nil {
			o.Heuristic = h
		}
	}
}

func WithLogger(l *log.Entry) Option {
	return func(o *Options) { o.Logger = l }
}

// Finder holds configuration only, every FindPath call starts clean.
type Finder struct {
	heuristic Heuristic
	log       *log.Entry
}

func NewFinder(opts ...Option) *Finder {
	o := Options{Heuristic: Manhattan}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = log.NewEntry(log.StandardLogger())
	}
	return &Finder{heuristic: o.Heuristic, log: o.Logger.WithField("component", "path")}
}

func (f *Finder) FindPath(grid *model.Grid, start, goal model.Position) (Result, error) {
	if grid == nil {
		return Result{}, ErrNilGrid
	}
	for _, p := range []model.Position{start, goal} {
		open, err := grid.IsOpen(p.X, p.Y)
		if err != nil {
			return Result{}, err
		}
		if !open {
			return Result{}, fmt.Errorf("%w: %v", model.ErrBlocked, p)
		}
	}

	openSet := make(priorityQueue, 0)
	heap.Init(&openSet)
	heap.Push(&openSet, queueItem{Node: start, G: 0, FCost: f.heuristic(start, goal)})
	cameFrom := make(map[model.Position]model.Position)
	gScore := map[model.Position]int{start: 0}

	expanded := 0
	for openSet.Len() > 0 {
		current := heap.Pop(&openSet).(queueItem)
		if current.G > gScore[current.Node] {
			continue
		}
		expanded++

		if current.Node == goal {
			p := reconstructPath(cameFrom, current.Node, start)
			f.log.WithFields(log.Fields{
				"start":    start.String(),
				"goal":     goal.String(),
				"cost":     current.G,
				"expanded": expanded,
			}).Debug("path found")
			return Result{Path: p, Cost: current.G, Expanded: expanded, Found: true}, nil
		}

		for _, d := range model.Directions {
			neighbor := current.Node.Add(d)
			if grid.At(neighbor) != model.Open {
				continue
			}
			tentativeG := current.G + 1
			if g, ok := gScore[neighbor]; ok && tentativeG >= g {
				continue
			}
			cameFrom[neighbor] = current.Node
			gScore[neighbor] = tentativeG
			heap.Push(&openSet, queueItem{
				Node:  neighbor,
				G:     tentativeG,
				FCost: tentativeG + f.heuristic(neighbor, goal),
			})
		}
	}

	f.log.WithFields(log.Fields{
		"start":    start.String(),
		"goal":     goal.String(),
		"expanded": expanded,
	}).Debug("no path")
	return Result{Expanded: expanded}, nil
}

// FindPath runs a search with the default Manhattan heuristic.
func FindPath(grid *model.Grid, start, goal model.Position) (Result, error) {
	return NewFinder().FindPath(grid, start, goal)
}

func reconstructPath(cameFrom map[model.Position]model.Position, current, start model.Position) model.Path {
	p := model.Path{current}
	for current != start {
		prev, ok := cameFrom[current]
		if !ok {
			break
		}
		p = append(p, prev)
		current = prev
	}
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
	return p
}
