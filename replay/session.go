// Package replay wires generation and search together and feeds the result
// to a presentation client one step at a time.
package replay

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/mazerun/maze"
	"github.com/zucenko/mazerun/model"
	"github.com/zucenko/mazerun/path"
)

const MinSide = 3

// Params is the caller-side configuration of one run.
type Params struct {
	Rows, Cols int
	Seed       int64
	Start      model.Position
	Goal       model.Position
}

// DefaultParams places the start at (1,1) and the goal in the opposite
// inner corner.
func DefaultParams(rows, cols int, seed int64) Params {
	return Params{
		Rows:  rows,
		Cols:  cols,
		Seed:  seed,
		Start: model.Position{X: 1, Y: 1},
		Goal:  model.Position{X: cols - 2, Y: rows - 2},
	}
}

func (p Params) Validate() error {
	if p.Rows < MinSide || p.Cols < MinSide {
		return fmt.Errorf("%w: %dx%d, minimum %dx%d", model.ErrInvalidDimensions, p.Rows, p.Cols, MinSide, MinSide)
	}
	for _, pos := range []model.Position{p.Start, p.Goal} {
		if pos.X < 0 || pos.X >= p.Cols || pos.Y < 0 || pos.Y >= p.Rows {
			return fmt.Errorf("%w: %v in %dx%d grid", model.ErrOutOfBounds, pos, p.Rows, p.Cols)
		}
	}
	return nil
}

// Session owns one generated maze, its search result and the replay cursor.
type Session struct {
	Id     string
	Params Params
	Grid   *model.Grid
	Result path.Result
	walker *Walker
	over   bool
	log    *log.Entry
}

// NewSession generates the maze from the start cell, forces start and goal
// open and runs the search once.
func NewSession(id string, params Params, logger *log.Entry) (*Session, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	logger = logger.WithField("session", id)

	gen, err := maze.NewGenerator(params.Rows, params.Cols,
		maze.WithSeed(params.Seed),
		maze.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	grid, err := gen.Generate(params.Start.X, params.Start.Y)
	if err != nil {
		return nil, err
	}
	if err := grid.Open(params.Start, params.Goal); err != nil {
		return nil, err
	}
	res, err := path.NewFinder(path.WithLogger(logger)).FindPath(grid, params.Start, params.Goal)
	if err != nil {
		return nil, fmt.Errorf("find path: %w", err)
	}
	logger.WithFields(log.Fields{
		"rows":     params.Rows,
		"cols":     params.Cols,
		"seed":     params.Seed,
		"found":    res.Found,
		"length":   len(res.Path),
		"expanded": res.Expanded,
	}).Info("session ready")

	return &Session{
		Id:     id,
		Params: params,
		Grid:   grid,
		Result: res,
		walker: NewWalker(res.Path, params.Start),
		log:    logger,
	}, nil
}

func (s *Session) SetupMessage() model.ServerMessage {
	rows, cols := s.Grid.Dimensions()
	return model.ServerMessage{
		Setup: []model.Setup{{
			SessionId:  s.Id,
			Rows:       rows,
			Cols:       cols,
			Cells:      s.Grid.Cells(),
			Start:      s.Params.Start,
			Goal:       s.Params.Goal,
			Seed:       s.Params.Seed,
			Found:      s.Result.Found,
			PathLength: len(s.Result.Path),
		}},
	}
}

// NextMessage returns the next step, then a single Over message, then false.
func (s *Session) NextMessage() (model.ServerMessage, bool) {
	if s.over {
		return model.ServerMessage{}, false
	}
	if pos, ok := s.walker.Next(); ok {
		return model.ServerMessage{Steps: []model.Step{{Index: s.walker.Index() - 1, Position: pos}}}, true
	}
	s.over = true
	return model.ServerMessage{Over: []model.Over{{Found: s.Result.Found, Steps: s.walker.Index()}}}, true
}

// Rewind replays the same path again from the start.
func (s *Session) Rewind() {
	s.walker.Rewind()
	s.over = false
	s.log.Debug("rewind")
}

func (s *Session) Current() model.Position { return s.walker.Current() }

func (s *Session) Done() bool { return s.over }
