package model

import "fmt"

// Directions lists the four axis moves in search neighbour order.
var Directions = [4]Position{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}

// NewGrid returns a rows x cols grid with every cell set to Wall.
func NewGrid(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	cells := make([]CellState, rows*cols)
	for i := range cells {
		cells[i] = Wall
	}
	return &Grid{rows: rows, cols: cols, cells: cells}, nil
}

// NewGridFromRows copies a rectangular matrix indexed [row][col].
func NewGridFromRows(matrix [][]CellState) (*Grid, error) {
	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrInvalidDimensions)
	}
	rows, cols := len(matrix), len(matrix[0])
	cells := make([]CellState, 0, rows*cols)
	for r, line := range matrix {
		if len(line) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidDimensions, r, len(line), cols)
		}
		for c, s := range line {
			if s != Open && s != Wall {
				return nil, fmt.Errorf("invalid cell state %d at (%d,%d)", s, c, r)
			}
		}
		cells = append(cells, line...)
	}
	return &Grid{rows: rows, cols: cols, cells: cells}, nil
}

func (g *Grid) Dimensions() (rows, cols int) {
	return g.rows, g.cols
}

func (g *Grid) Contains(p Position) bool {
	return p.X >= 0 && p.X < g.cols && p.Y >= 0 && p.Y < g.rows
}

func (g *Grid) check(p Position) error {
	if !g.Contains(p) {
		return fmt.Errorf("%w: %v in %dx%d grid", ErrOutOfBounds, p, g.rows, g.cols)
	}
	return nil
}

func (g *Grid) IsOpen(x, y int) (bool, error) {
	p := Position{X: x, Y: y}
	if err := g.check(p); err != nil {
		return false, err
	}
	return g.cells[p.Y*g.cols+p.X] == Open, nil
}

// At returns the state of p, positions outside the grid read as Wall.
func (g *Grid) At(p Position) CellState {
	if !g.Contains(p) {
		return Wall
	}
	return g.cells[p.Y*g.cols+p.X]
}

func (g *Grid) Set(p Position, s CellState) error {
	if err := g.check(p); err != nil {
		return err
	}
	g.cells[p.Y*g.cols+p.X] = s
	return nil
}

// Open forces every given position open.
func (g *Grid) Open(ps ...Position) error {
	for _, p := range ps {
		if err := g.Set(p, Open); err != nil {
			return err
		}
	}
	return nil
}

// Neighbors returns the open in-bounds cells one step away from p.
func (g *Grid) Neighbors(p Position) []Position {
	out := make([]Position, 0, 4)
	for _, d := range Directions {
		n := p.Add(d)
		if g.At(n) == Open {
			out = append(out, n)
		}
	}
	return out
}

// OpenCount reports the number of open cells.
func (g *Grid) OpenCount() int {
	n := 0
	for _, s := range g.cells {
		if s == Open {
			n++
		}
	}
	return n
}

// Cells returns a row-major copy of the grid states.
func (g *Grid) Cells() []CellState {
	out := make([]CellState, len(g.cells))
	copy(out, g.cells)
	return out
}

func (g *Grid) Clone() *Grid {
	return &Grid{rows: g.rows, cols: g.cols, cells: g.Cells()}
}

// GridFromCells rebuilds a grid from the row-major form sent on the wire.
func GridFromCells(rows, cols int, cells []CellState) (*Grid, error) {
	if rows <= 0 || cols <= 0 || len(cells) != rows*cols {
		return nil, fmt.Errorf("%w: %dx%d with %d cells", ErrInvalidDimensions, rows, cols, len(cells))
	}
	out := make([]CellState, len(cells))
	copy(out, cells)
	return &Grid{rows: rows, cols: cols, cells: out}, nil
}
