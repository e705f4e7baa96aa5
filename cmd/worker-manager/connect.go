package main

import "context"

type pingCloser interface {
	Ping(ctx context.Context) error
	Close() error
}

// dial opens a client and pings it. A client that fails the ping is closed
// so a retry loop does not leak one pool per attempt.
func dial[C pingCloser](ctx context.Context, open func() (C, error)) (C, error) {
	var zero C
	c, err := open()
	if err != nil {
		return zero, err
	}
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return zero, err
	}
	return c, nil
}
