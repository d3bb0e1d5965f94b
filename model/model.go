package model

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds       = errors.New("position out of bounds")
	ErrInvalidDimensions = errors.New("invalid grid dimensions")
	ErrBlocked           = errors.New("cell is a wall")
)

type CellState uint8

const (
	Open CellState = iota
	Wall
)

func (s CellState) Name() string {
	switch s {
	case Open:
		return "OPEN"
	case Wall:
		return "WALL"
	default:
		return fmt.Sprintf("N/A(%d)", s)
	}
}

// Position is a cell coordinate, X is the column and Y the row.
type Position struct {
	X, Y int
}

func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Position) Scale(k int) Position {
	return Position{X: p.X * k, Y: p.Y * k}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Path runs from start to goal, both included.
type Path []Position

// Grid is a fixed rows x cols occupancy map stored row-major.
type Grid struct {
	rows, cols int
	cells      []CellState
}
