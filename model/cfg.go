package model

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	runeWall  = '#'
	runeOpen  = '.'
	runePath  = 'o'
	runeStart = 'S'
	runeGoal  = 'G'
)

// ReadGrid parses the text form written by Grid.String. Blank lines are
// skipped; S, G and o read as open cells so a rendered maze loads back.
func ReadGrid(reader io.Reader) (*Grid, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Split(bufio.ScanLines)
	matrix := make([][]CellState, 0)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		s := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(s) == "" {
			continue
		}
		line := make([]CellState, 0, len(s))
		for i, char := range s {
			switch char {
			case runeWall:
				line = append(line, Wall)
			case runeOpen, runePath, runeStart, runeGoal:
				line = append(line, Open)
			default:
				return nil, fmt.Errorf("line %d col %d: unexpected %q", lineNo, i, char)
			}
		}
		matrix = append(matrix, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewGridFromRows(matrix)
}

func (g *Grid) String() string {
	return Render(g, nil, nil, nil)
}

// Render draws g with an optional path, start and goal overlay.
func Render(g *Grid, path Path, start, goal *Position) string {
	overlay := make(map[Position]rune, len(path)+2)
	for _, p := range path {
		overlay[p] = runePath
	}
	if start != nil {
		overlay[*start] = runeStart
	}
	if goal != nil {
		overlay[*goal] = runeGoal
	}
	var b strings.Builder
	b.Grow((g.cols + 1) * g.rows)
	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			p := Position{X: x, Y: y}
			if r, ok := overlay[p]; ok {
				b.WriteRune(r)
				continue
			}
			if g.At(p) == Wall {
				b.WriteRune(runeWall)
			} else {
				b.WriteRune(runeOpen)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
