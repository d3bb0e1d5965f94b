package maze

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/mazerun/model"
)

// identityShuffler keeps the declared direction order.
type identityShuffler struct{ calls int }

func (s *identityShuffler) Shuffle(n int, swap func(i, j int)) { s.calls++ }

// replayShuffler plays back a fixed sequence of permutations.
type replayShuffler struct {
	perms [][]int
	i     int
}

func (s *replayShuffler) Shuffle(n int, swap func(i, j int)) {
	perm := s.perms[s.i%len(s.perms)]
	s.i++
	// apply perm as a sequence of swaps on an index tracker
	idx := make([]int, n)
	for k := range idx {
		idx[k] = k
	}
	for k := 0; k < n; k++ {
		want := perm[k]
		for j := k; j < n; j++ {
			if idx[j] == want {
				idx[k], idx[j] = idx[j], idx[k]
				swap(k, j)
				break
			}
		}
	}
}

func reachable(g *model.Grid, from model.Position) map[model.Position]bool {
	seen := map[model.Position]bool{from: true}
	queue := []model.Position{from}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, n := range g.Neighbors(p) {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return seen
}

func edges(g *model.Grid) int {
	rows, cols := g.Dimensions()
	n := 0
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			p := model.Position{X: x, Y: y}
			if g.At(p) != model.Open {
				continue
			}
			if g.At(p.Add(model.Position{X: 1})) == model.Open {
				n++
			}
			if g.At(p.Add(model.Position{Y: 1})) == model.Open {
				n++
			}
		}
	}
	return n
}

func TestGenerateIsPerfectMaze(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 42, 1234} {
		gen, err := NewGenerator(21, 31, WithSeed(seed))
		require.NoError(t, err)
		grid, err := gen.Generate(1, 1)
		require.NoError(t, err)

		open := grid.OpenCount()
		seen := reachable(grid, model.Position{X: 1, Y: 1})
		assert.Equal(t, open, len(seen), "seed %d: every open cell reachable", seed)
		assert.Equal(t, open-1, edges(grid), "seed %d: open cells form a tree", seed)
		// odd dimensions from an odd origin visit every odd cell
		assert.Equal(t, 10*15*2-1, open, "seed %d", seed)
	}
}

func TestGenerateBordersStayWalls(t *testing.T) {
	gen, err := NewGenerator(11, 11, WithSeed(7))
	require.NoError(t, err)
	grid, err := gen.Generate(1, 1)
	require.NoError(t, err)
	for i := 0; i < 11; i++ {
		for _, p := range []model.Position{{X: i, Y: 0}, {X: i, Y: 10}, {X: 0, Y: i}, {X: 10, Y: i}} {
			assert.Equal(t, model.Wall, grid.At(p), "border %v", p)
		}
	}
	// even/even cells are pillars
	assert.Equal(t, model.Wall, grid.At(model.Position{X: 2, Y: 2}))
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	a, err := NewGenerator(15, 15, WithSeed(99))
	require.NoError(t, err)
	b, err := NewGenerator(15, 15, WithSeed(99))
	require.NoError(t, err)

	ga, err := a.Generate(1, 1)
	require.NoError(t, err)
	gb, err := b.Generate(1, 1)
	require.NoError(t, err)

	if diff := cmp.Diff(ga.Cells(), gb.Cells()); diff != "" {
		t.Errorf("grids differ for identical seed (-a +b):\n%s", diff)
	}
}

func TestGenerateDeterministicWithShuffleSequence(t *testing.T) {
	perms := [][]int{{2, 0, 3, 1}, {1, 3, 0, 2}, {3, 2, 1, 0}, {0, 1, 2, 3}}
	a, err := NewGenerator(13, 17, WithShuffler(&replayShuffler{perms: perms}))
	require.NoError(t, err)
	b, err := NewGenerator(13, 17, WithShuffler(&replayShuffler{perms: perms}))
	require.NoError(t, err)

	ga, err := a.Generate(1, 1)
	require.NoError(t, err)
	gb, err := b.Generate(1, 1)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(ga.String(), gb.String()))
}

func TestGenerateIdentityOrder(t *testing.T) {
	s := &identityShuffler{}
	gen, err := NewGenerator(5, 5, WithShuffler(s))
	require.NoError(t, err)
	grid, err := gen.Generate(1, 1)
	require.NoError(t, err)

	want := "#####\n" +
		"#...#\n" +
		"###.#\n" +
		"#...#\n" +
		"#####\n"
	assert.Equal(t, want, grid.String())
	// one shuffle per visited cell
	assert.Equal(t, 4, s.calls)
}

func TestGenerateOutOfBoundsOrigin(t *testing.T) {
	gen, err := NewGenerator(5, 5, WithSeed(1))
	require.NoError(t, err)
	_, err = gen.Generate(5, 1)
	assert.ErrorIs(t, err, model.ErrOutOfBounds)
	_, err = gen.Generate(-1, 1)
	assert.ErrorIs(t, err, model.ErrOutOfBounds)
}

func TestNewGeneratorBadDimensions(t *testing.T) {
	_, err := NewGenerator(0, 5)
	assert.ErrorIs(t, err, model.ErrInvalidDimensions)
}

func TestGenerateLargeGridDoesNotRecurse(t *testing.T) {
	gen, err := NewGenerator(401, 401, WithShuffler(rand.New(rand.NewSource(5))))
	require.NoError(t, err)
	grid, err := gen.Generate(1, 1)
	require.NoError(t, err)
	rows, cols := gen.Dimensions()
	gridRows, gridCols := grid.Dimensions()
	assert.Equal(t, [2]int{rows, cols}, [2]int{gridRows, gridCols})
	assert.Equal(t, 200*200*2-1, grid.OpenCount())
}

func TestGenerateEachCallFresh(t *testing.T) {
	gen, err := NewGenerator(9, 9, WithSeed(3))
	require.NoError(t, err)
	a, err := gen.Generate(1, 1)
	require.NoError(t, err)
	b, err := gen.Generate(1, 1)
	require.NoError(t, err)
	// both are complete mazes regardless of layout
	assert.Equal(t, a.OpenCount(), b.OpenCount())
	assert.Equal(t, b.OpenCount()-1, edges(b))
}
