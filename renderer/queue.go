package renderer

import "sync"

// commandQueue collects work submitted from other goroutines for the render
// thread.
type commandQueue struct {
	mu      sync.Mutex
	pending []func()
}

func (q *commandQueue) push(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// drain takes all queued commands in submission order. Commands pushed while
// the returned ones run wait for the next drain.
func (q *commandQueue) drain() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	cmds := q.pending
	q.pending = nil
	return cmds
}

func (q *commandQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
