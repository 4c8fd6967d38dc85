package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

func TestCallReturnsUnderlyingError(t *testing.T) {
	s := NewServer("TestOp")
	want := errors.New("boom")

	err := s.Call(context.Background(), func() error { return want })
	require.Equal(t, want, err)
}

func TestCallReturnsNilOnSuccess(t *testing.T) {
	s := NewServer("TestOp")

	err := s.Call(context.Background(), func() error { return nil })
	require.NoError(t, err)
}

func TestCallInvokesFnExactlyOnce(t *testing.T) {
	s := NewServer("TestOp")
	calls := 0

	err := s.Call(context.Background(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}
