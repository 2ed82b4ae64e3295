package app

import (
	"errors"

	"github.com/dkeye/hotspot/internal/core"
)

var errFull = errors.New("queue full")

type fakeConn struct {
	frames []core.Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	if c.full {
		return errFull
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() { c.closed = true }
