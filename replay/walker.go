package replay

import "github.com/zucenko/mazerun/model"

// Walker hands out a finished path one position per tick. Without a path
// it stays at its initial position and is done from the start.
type Walker struct {
	path    model.Path
	current model.Position
	next    int
}

func NewWalker(p model.Path, initial model.Position) *Walker {
	w := &Walker{path: p, current: initial}
	return w
}

// Next advances one position and reports false once the path is used up.
func (w *Walker) Next() (model.Position, bool) {
	if w.next >= len(w.path) {
		return w.current, false
	}
	w.current = w.path[w.next]
	w.next++
	return w.current, true
}

func (w *Walker) Current() model.Position { return w.current }

// Index is the number of positions handed out so far.
func (w *Walker) Index() int { return w.next }

func (w *Walker) Remaining() int { return len(w.path) - w.next }

func (w *Walker) Done() bool { return w.next >= len(w.path) }

// Rewind restarts from the first path position.
func (w *Walker) Rewind() {
	w.next = 0
	if len(w.path) > 0 {
		w.current = w.path[0]
	}
}
