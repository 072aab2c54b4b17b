package engine

import "sync"

// Queue is an unbounded FIFO of updates. Any number of goroutines may Push;
// exactly one goroutine (the render loop) may TryPop.
type Queue struct {
	mu    sync.Mutex
	items []Update
	head  int
	peak  int
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends u. It never blocks and never drops.
func (q *Queue) Push(u Update) {
	q.mu.Lock()
	q.items = append(q.items, u)
	if n := len(q.items) - q.head; n > q.peak {
		q.peak = n
	}
	q.mu.Unlock()
}

// TryPop removes the oldest update without blocking.
func (q *Queue) TryPop() (Update, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.items) {
		return nil, false
	}
	u := q.items[q.head]
	q.items[q.head] = nil
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return u, true
}

// Len returns the number of pending updates
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Peak returns the largest backlog observed since creation
func (q *Queue) Peak() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.peak
}
