package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type closer struct {
	closed int
	ch     chan struct{}
}

func (c *closer) Close() error {
	c.closed++
	if c.ch != nil {
		close(c.ch)
	}
	return nil
}

func TestRunnerWait(t *testing.T) {
	errFailed := errors.New("failed")
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx).Go(
		NamedRun("fail", RunFunc(func(context.Context) error { return errFailed })),
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
		RunFunc(func(context.Context) error { return nil }),
	)
	cancel()
	err := r.Wait()
	require.Error(t, err)
	require.True(t, errors.Is(err, errFailed))
	require.Len(t, err.(*AggregatedError).Errors, 1)
	require.Len(t, r.Runners, 3)
}

func TestRunWithContextCloser(t *testing.T) {
	t.Run("exit", func(t *testing.T) {
		c := &closer{}
		err := RunWithContextCloser(context.Background(), c, func() error { return nil })
		require.NoError(t, err)
		require.Equal(t, 1, c.closed)
	})
	t.Run("cancel", func(t *testing.T) {
		c := &closer{ch: make(chan struct{})}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := RunWithContextCloser(ctx, c, func() error {
			<-c.ch
			return errors.New("closed")
		})
		require.Equal(t, context.Canceled, err)
		require.Equal(t, 1, c.closed)
	})
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	errs.Add(nil, nil)
	require.NoError(t, errs.Aggregate())

	e1, e2 := errors.New("e1"), errors.New("e2")
	errs.Add(e1)
	require.Equal(t, "e1", errs.Aggregate().Error())
	errs.Add(nil, e2)
	require.Equal(t, 2, errs.Len())
	require.Equal(t, "multiple errors:\ne1\ne2", errs.Error())
	require.True(t, errors.Is(errs.Aggregate(), e2))
}
