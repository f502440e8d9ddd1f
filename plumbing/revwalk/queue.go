package revwalk

import (
	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/emirpasic/gods/trees/binaryheap"

	"github.com/go-corelib/gitcore/plumbing/object"
)

// pendingQueue is the generator pipeline's single point of contact
// with a commit's waiting-to-be-visited set. Variants: FIFO, LIFO,
// date-ordered (max-heap on commit time), and an empty sentinel.
type pendingQueue interface {
	push(c *object.Commit)
	pop() (*object.Commit, bool)
}

// fifoQueue preserves markStart insertion order (starts are seeded in
// insertion order), backing START_ORDER.
type fifoQueue struct{ q *linkedlistqueue.Queue }

func newFIFOQueue() *fifoQueue { return &fifoQueue{q: linkedlistqueue.New()} }

func (f *fifoQueue) push(c *object.Commit) { f.q.Enqueue(c) }

func (f *fifoQueue) pop() (*object.Commit, bool) {
	v, ok := f.q.Dequeue()
	if !ok {
		return nil, false
	}
	return v.(*object.Commit), true
}

// lifoQueue backs the REVERSE phase's full buffering.
type lifoQueue struct{ s *arraystack.Stack }

func newLIFOQueue() *lifoQueue { return &lifoQueue{s: arraystack.New()} }

func (l *lifoQueue) push(c *object.Commit) { l.s.Push(c) }

func (l *lifoQueue) pop() (*object.Commit, bool) {
	v, ok := l.s.Pop()
	if !ok {
		return nil, false
	}
	return v.(*object.Commit), true
}

// dateQueue orders by descending commit time, backing COMMIT_TIME_DESC.
type dateQueue struct{ h *binaryheap.Heap }

func newDateQueue() *dateQueue {
	return &dateQueue{h: binaryheap.NewWith(func(a, b any) int {
		ca, cb := a.(*object.Commit), b.(*object.Commit)
		switch {
		case ca.CommitTime().After(cb.CommitTime()):
			return -1
		case ca.CommitTime().Before(cb.CommitTime()):
			return 1
		default:
			return 0
		}
	})}
}

func (d *dateQueue) push(c *object.Commit) { d.h.Push(c) }

func (d *dateQueue) pop() (*object.Commit, bool) {
	v, ok := d.h.Pop()
	if !ok {
		return nil, false
	}
	return v.(*object.Commit), true
}

// emptyQueue is an always-empty queue sentinel; pipeline assembly does
// not use it.
type emptyQueue struct{}

func (emptyQueue) push(*object.Commit)          {}
func (emptyQueue) pop() (*object.Commit, bool) { return nil, false }
