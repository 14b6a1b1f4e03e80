package pipeline

import "sync"

// convLocks hands out one mutex per conversation so in-flight turns of the
// same conversation are processed in arrival order.
type convLocks struct {
	mu sync.Mutex
	m  map[int64]*sync.Mutex
}

func newConvLocks() *convLocks {
	return &convLocks{m: make(map[int64]*sync.Mutex)}
}

func (c *convLocks) lock(id int64) func() {
	c.mu.Lock()
	l, ok := c.m[id]
	if !ok {
		l = &sync.Mutex{}
		c.m[id] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}
