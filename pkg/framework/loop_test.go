package framework

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMsg struct {
	v int
}

func (m *testMsg) NewMessage() Message { return &testMsg{} }

func collect(ms MessageStore) (vals []int) {
	ms.ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
		vals = append(vals, mctx.CurrentMessage().(*testMsg).v)
	}))
	return
}

func TestLoopPriorityOrder(t *testing.T) {
	l := NewLoop()
	var order []int
	for _, lv := range []int{PrLvAcuate, PrLvTop, PrLvControl, PrLvSense} {
		lv := lv
		l.AddController(lv, ControlFunc(func(cc ControlContext) error {
			require.Equal(t, lv, cc.PriorityLevel())
			order = append(order, lv)
			return nil
		}))
	}
	l.Step(context.Background(), time.Unix(10, 0))
	require.Equal(t, []int{PrLvTop, PrLvSense, PrLvControl, PrLvAcuate}, order)
}

func TestLoopStep(t *testing.T) {
	l := NewLoop()
	var iterations []uint64
	var runs int
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		require.True(t, cc.Periodic())
		require.Equal(t, time.Unix(10, int64(len(iterations))), cc.Time())
		iterations = append(iterations, cc.Iteration())
		return nil
	}))
	l.AddController(PrLvAcuate, PeriodicOnly(ControlFunc(func(cc ControlContext) error {
		runs++
		return nil
	})))
	l.Step(context.Background(), time.Unix(10, 0))
	l.Step(context.Background(), time.Unix(10, 1))
	require.Equal(t, []uint64{1, 2}, iterations)
	require.Equal(t, 2, runs)
	require.Zero(t, l.Overruns())
}

func TestLoopMessages(t *testing.T) {
	l := NewLoop()
	var seen [][]int
	l.AddController(PrLvTop, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			if mctx.CurrentMessage().(*testMsg).v == 2 {
				mctx.MessageTaken()
				mctx.AddMessages(&testMsg{v: 4})
			}
		}))
		return nil
	}))
	l.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		seen = append(seen, collect(cc.Messages()))
		return nil
	}))
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		var first []int
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			first = append(first, mctx.CurrentMessage().(*testMsg).v)
			mctx.MessageTaken()
			mctx.StopProcessing()
		}))
		seen = append(seen, first)
		return nil
	}))
	l.AddController(PrLvAcuate, ControlFunc(func(cc ControlContext) error {
		seen = append(seen, collect(cc.Messages()))
		return nil
	}))

	for n := 1; n <= 3; n++ {
		l.PostMessage(&testMsg{v: n})
	}
	l.Step(context.Background(), time.Now())
	require.Equal(t, [][]int{{1, 3, 4}, {1}, {3, 4}}, seen)

	// messages are dropped at the end of an iteration.
	seen = nil
	l.Step(context.Background(), time.Now())
	require.Equal(t, [][]int{nil, nil, nil}, seen)
}

func TestLoopHooks(t *testing.T) {
	l := NewLoop()
	var calls []string
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		calls = append(calls, "ctl")
		if cc.Iteration() == 1 {
			cc.PostRun(ControlFunc(func(ControlContext) error {
				calls = append(calls, "post")
				return nil
			}))
			cc.PreRunAt(PrLvAcuate, ControlFunc(func(ControlContext) error {
				calls = append(calls, "pre")
				return nil
			}))
		}
		return nil
	}))
	l.AddController(PrLvAcuate, ControlFunc(func(ControlContext) error {
		calls = append(calls, "act")
		return nil
	}))
	l.Step(context.Background(), time.Now())
	l.Step(context.Background(), time.Now())
	require.Equal(t, []string{"ctl", "post", "pre", "act", "ctl", "act"}, calls)
}

func TestLoopTriggerNext(t *testing.T) {
	l := &Loop{Interval: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l.AddRunnable(RunFunc(func(ctx context.Context) error {
		ctl := LoopCtlFrom(ctx)
		ctl.PostMessage(&testMsg{v: 7})
		ctl.TriggerNext()
		<-ctx.Done()
		return ctx.Err()
	}))
	var periodic []bool
	var got []int
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		periodic = append(periodic, cc.Periodic())
		got = append(got, collect(cc.Messages())...)
		cancel()
		return nil
	}))

	err := l.Run(ctx)
	require.Equal(t, context.Canceled, err)
	require.Equal(t, []bool{false}, periodic)
	require.Equal(t, []int{7}, got)
}
