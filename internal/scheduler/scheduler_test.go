package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context) error { return nil }

func TestNewRejectsUnknownTimezone(t *testing.T) {
	_, err := New("Mars/Olympus", nil)
	require.Error(t, err)
}

func TestAddRunJob(t *testing.T) {
	s, err := New("Asia/Seoul", nil)
	require.NoError(t, err)

	require.NoError(t, s.AddRunJob(30, noop))
	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, RunJobName, jobs[0].Name)

	assert.Error(t, s.AddRunJob(0, noop))
}

func TestAddJobReplacesSameName(t *testing.T) {
	s, err := New("", nil)
	require.NoError(t, err)

	require.NoError(t, s.AddRunJob(30, noop))
	require.NoError(t, s.AddRunJob(45, noop))
	assert.Len(t, s.ListJobs(), 1)

	s.RemoveJob(RunJobName)
	assert.Empty(t, s.ListJobs())
}

func TestAddJobInvalidSchedule(t *testing.T) {
	s, err := New("", nil)
	require.NoError(t, err)

	assert.Error(t, s.AddJob("bad", "not a schedule", noop))
	require.NoError(t, s.AddJob("morning", "30 7 * * *", noop))
}

func TestRunNowAppliesJobTimeout(t *testing.T) {
	s, err := New("", nil, WithJobTimeout(5*time.Millisecond))
	require.NoError(t, err)

	err = s.RunNow("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJobsStopWithBaseContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, err := New("", nil, WithBaseContext(ctx))
	require.NoError(t, err)

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.RunNow(RunJobName, func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	<-started
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("job ignored base context cancellation")
	}
}

func TestRunNowReturnsJobError(t *testing.T) {
	s, err := New("", nil)
	require.NoError(t, err)

	boom := errors.New("boom")
	assert.ErrorIs(t, s.RunNow("run", func(context.Context) error { return boom }), boom)
	assert.NoError(t, s.RunNow("run", noop))
}

func TestStartStop(t *testing.T) {
	s, err := New("", nil)
	require.NoError(t, err)
	require.NoError(t, s.AddRunJob(60, noop))

	s.Start()
	jobs := s.ListJobs()
	require.Len(t, jobs, 1)

	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
