package resource

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCloser struct {
	name string
	err  error
	log  *[]string
}

func (c recordingCloser) Close() error {
	*c.log = append(*c.log, c.name)
	return c.err
}

func TestStackClosesInReverseOrder(t *testing.T) {
	var log []string
	var s Stack
	s.Push(recordingCloser{name: "first", log: &log})
	s.Push(recordingCloser{name: "second", log: &log})
	s.Push(recordingCloser{name: "third", log: &log})

	require.NoError(t, s.Close())
	assert.Equal(t, []string{"third", "second", "first"}, log)
}

func TestStackAggregatesErrors(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	var log []string
	var s Stack
	s.Push(recordingCloser{name: "a", err: errA, log: &log})
	s.Push(recordingCloser{name: "b", err: errB, log: &log})

	err := s.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestStackPushFunc(t *testing.T) {
	called := false
	var s Stack
	s.PushFunc(func() error {
		called = true
		return nil
	})
	require.NoError(t, s.Close())
	assert.True(t, called)
}

func TestStackCloseIsIdempotentlyEmptyAfterward(t *testing.T) {
	var log []string
	var s Stack
	s.Push(recordingCloser{name: "only", log: &log})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, []string{"only"}, log)
}
