package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(Config{Enabled: true}, zap.NewNop())
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.Register(&Job{Name: "b", Interval: time.Second, Run: noop}))
	require.NoError(t, s.Register(&Job{Name: "a", Interval: time.Second, Run: noop}))
	assert.ErrorIs(t, s.Register(&Job{Name: "a", Interval: time.Second, Run: noop}), ErrDuplicateJob)
	assert.Error(t, s.Register(&Job{Name: "c", Run: noop}))
	assert.Error(t, s.Register(&Job{Name: "d", Interval: time.Second}))
	assert.Equal(t, []string{"a", "b"}, s.JobNames())
}

func TestScheduler_RunOnce(t *testing.T) {
	s := NewScheduler(Config{}, zap.NewNop())
	var runs atomic.Int32
	require.NoError(t, s.Register(&Job{Name: "count", Interval: time.Hour, Run: func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}}))
	require.NoError(t, s.Register(&Job{Name: "fail", Interval: time.Hour, Run: func(ctx context.Context) error {
		return errors.New("boom")
	}}))

	require.NoError(t, s.RunOnce(context.Background(), "count"))
	assert.EqualError(t, s.RunOnce(context.Background(), "fail"), "boom")
	assert.ErrorIs(t, s.RunOnce(context.Background(), "missing"), ErrJobNotFound)
	assert.Equal(t, int32(1), runs.Load())

	stats := s.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, int64(1), stats[0].Runs)
	assert.Equal(t, int64(1), stats[1].Failures)
	assert.Equal(t, "boom", stats[1].LastError)
}

func TestScheduler_OverlapIsSkipped(t *testing.T) {
	s := NewScheduler(Config{}, zap.NewNop())
	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, s.Register(&Job{Name: "slow", Interval: time.Hour, Run: func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}}))

	done := make(chan error, 1)
	go func() { done <- s.RunOnce(context.Background(), "slow") }()
	<-started

	assert.ErrorIs(t, s.RunOnce(context.Background(), "slow"), ErrJobRunning)
	close(release)
	assert.NoError(t, <-done)
	assert.Equal(t, int64(1), s.Stats()[0].Overlapped)
}

func TestScheduler_PanicBecomesError(t *testing.T) {
	s := NewScheduler(Config{}, zap.NewNop())
	require.NoError(t, s.Register(&Job{Name: "p", Interval: time.Hour, Run: func(ctx context.Context) error {
		panic("bad")
	}}))
	assert.Error(t, s.RunOnce(context.Background(), "p"))
	assert.NoError(t, s.RunOnce(context.Background(), "p"), "guard is released after a panic")
}

func TestScheduler_StartRunsJobs(t *testing.T) {
	s := NewScheduler(Config{Enabled: true}, zap.NewNop())
	ran := make(chan struct{}, 10)
	require.NoError(t, s.Register(&Job{Name: "tick", Interval: 10 * time.Millisecond, RunOnStart: true, Run: func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	}}))

	require.NoError(t, s.Start(context.Background()))
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestScheduler_DisabledDoesNotStart(t *testing.T) {
	s := NewScheduler(Config{Enabled: false}, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}
