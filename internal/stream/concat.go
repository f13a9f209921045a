package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Opener opens a named source for reading.
type Opener func(name string) (io.ReadCloser, error)

// Concat reads a list of sources back to back as one stream. A source is
// only opened once every earlier source has been read to EOF and closed.
type Concat struct {
	ctx     context.Context
	open    Opener
	names   []string
	next    int
	current io.ReadCloser
	name    string
	err     error
}

// NewConcat returns a reader over names in order. ctx is checked before
// every read so a cancelled run stops at the next chunk.
func NewConcat(ctx context.Context, open Opener, names []string) *Concat {
	return &Concat{
		ctx:   ctx,
		open:  open,
		names: append([]string(nil), names...),
	}
}

// Read implements io.Reader. Errors from a source are wrapped in
// SourceReadError and are sticky.
func (c *Concat) Read(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	for {
		if err := c.ctx.Err(); err != nil {
			return 0, c.fail(fmt.Errorf("concat: %w", err))
		}
		if c.current == nil {
			if c.next >= len(c.names) {
				c.err = io.EOF
				return 0, io.EOF
			}
			c.name = c.names[c.next]
			c.next++
			rc, err := c.open(c.name)
			if err != nil {
				return 0, c.fail(&SourceReadError{Source: c.name, Err: err})
			}
			c.current = rc
		}
		n, err := c.current.Read(p)
		switch {
		case errors.Is(err, io.EOF):
			if cerr := c.closeCurrent(); cerr != nil {
				return n, c.fail(&SourceReadError{Source: c.name, Err: cerr})
			}
			if n > 0 {
				return n, nil
			}
		case err != nil:
			return n, c.fail(&SourceReadError{Source: c.name, Err: err})
		case n > 0:
			return n, nil
		}
	}
}

// Source returns the name of the source currently being read.
func (c *Concat) Source() string {
	return c.name
}

// Close releases the open source, if any. It is safe to call more than once.
func (c *Concat) Close() error {
	if c.err == nil {
		c.err = errors.New("concat: reader closed")
	}
	return c.closeCurrent()
}

func (c *Concat) closeCurrent() error {
	if c.current == nil {
		return nil
	}
	err := c.current.Close()
	c.current = nil
	return err
}

func (c *Concat) fail(err error) error {
	c.err = err
	_ = c.closeCurrent()
	return err
}
