package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go-jobscout/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New("every monday", func(context.Context) error { return nil }, nil)
	assert.ErrorContains(t, err, "invalid schedule")
}

func TestScheduler_SkipsOverlappingTicks(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	s, err := New("@every 1h", func(ctx context.Context) error {
		calls.Add(1)
		close(started)
		<-release
		return nil
	}, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.job.Run()
		close(done)
	}()
	<-started

	s.job.Run() // returns immediately, first run still holds the slot
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	<-done
}

func TestScheduler_RunNow(t *testing.T) {
	var calls atomic.Int32
	s, err := New("@every 1h", func(ctx context.Context) error {
		calls.Add(1)
		return runner.ErrRunInProgress
	}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background(), true))
	defer s.Stop(time.Second)

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.Next(), time.Minute)
}

func TestScheduler_CancelledContextSkipsRun(t *testing.T) {
	var calls atomic.Int32
	s, err := New("@every 1h", func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.ctx = ctx
	s.job.Run()
	assert.Zero(t, calls.Load())
}
