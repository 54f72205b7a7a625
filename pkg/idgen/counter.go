package idgen

import "sync/atomic"

// Counter hands out increasing ids from memory. The first id is start.
type Counter struct {
	last atomic.Int64
}

func NewCounter(start int64) *Counter {
	c := &Counter{}
	c.last.Store(start - 1)
	return c
}

func (c *Counter) Next() (int64, error) {
	return c.last.Add(1), nil
}
