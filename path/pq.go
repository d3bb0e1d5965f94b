package path

import "github.com/zucenko/mazerun/model"

// queueItem is one open-set entry. A cell may appear several times; G is the
// cost it was pushed with and lets the search recognise stale entries.
type queueItem struct {
	Node  model.Position
	G     int
	FCost int
}

// priorityQueue is a min-heap on FCost. Equal keys pop in whatever order
// container/heap leaves them.
type priorityQueue []queueItem

func (q priorityQueue) Len() int           { return len(q) }
func (q priorityQueue) Less(i, j int) bool { return q[i].FCost < q[j].FCost }
func (q priorityQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *priorityQueue) Push(x any) {
	*q = append(*q, x.(queueItem))
}

func (q *priorityQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
