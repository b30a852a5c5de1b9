package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ZertGraf/cresp/internal/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New(logger.Discard())

	var runs, failures atomic.Int32
	require.NoError(t, s.Add("count", "@every 1s", time.Second, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))
	require.NoError(t, s.Add("fail", "@every 1s", 0, func(ctx context.Context) error {
		failures.Add(1)
		return errors.New("boom")
	}))

	s.Start()
	assert.Eventually(t, func() bool {
		return runs.Load() > 0 && failures.Load() > 0
	}, 3*time.Second, 50*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_RecoversPanics(t *testing.T) {
	s := New(logger.Discard())

	var runs atomic.Int32
	require.NoError(t, s.Add("panic", "@every 1s", 0, func(ctx context.Context) error {
		runs.Add(1)
		panic("job exploded")
	}))

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 4*time.Second, 50*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := New(logger.Discard())
	err := s.Add("bad", "every now and then", 0, func(context.Context) error { return nil })
	assert.Error(t, err)
	require.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	s := New(logger.Discard())

	started := make(chan struct{})
	var once atomic.Bool
	require.NoError(t, s.Add("slow", "@every 1s", 0, func(ctx context.Context) error {
		if once.CompareAndSwap(false, true) {
			close(started)
		}
		<-ctx.Done()
		return ctx.Err()
	}))

	s.Start()
	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
}
