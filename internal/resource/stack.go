// Package resource implements the scoped-acquisition helper the driver uses
// to guarantee every opened handle is released on every exit path,
// generalizing the original's contextlib.ExitStack usage in
// whatshap/cli/extend.py into an idiomatic Go deferred-stack form.
package resource

import (
	"errors"
	"io"
)

// Stack holds closers in acquisition order and releases them LIFO. The zero
// value is ready to use.
type Stack struct {
	closers []io.Closer
}

// Push registers a closer to be released, last-in-first-out, when Close is
// called.
func (s *Stack) Push(c io.Closer) {
	s.closers = append(s.closers, c)
}

// PushFunc registers a plain close function, for resources that don't
// implement io.Closer directly.
func (s *Stack) PushFunc(f func() error) {
	s.Push(closerFunc(f))
}

// Close releases every registered closer in reverse acquisition order,
// aggregating every error encountered with errors.Join rather than
// stopping at the first failure.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
