package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForState(t *testing.T, q *Queue, id string, want State) Status {
	t.Helper()
	var st Status
	require.Eventually(t, func() bool {
		var ok bool
		st, ok = q.Status(id)
		return ok && st.State == want
	}, time.Second, 5*time.Millisecond)
	return st
}

func TestQueueProcessesJobs(t *testing.T) {
	var handled atomic.Int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		handled.Add(1)
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		id, err := q.Enqueue(Job{Type: "noop"})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.Eventually(t, func() bool { return handled.Load() == 5 }, time.Second, 5*time.Millisecond)
	for _, id := range ids {
		st := waitForState(t, q, id, StateSucceeded)
		assert.Equal(t, "noop", st.Type)
		assert.Equal(t, 1, st.Attempts)
		assert.Empty(t, st.Error)
	}
}

func TestQueueKeepsCallerID(t *testing.T) {
	q := NewQueue("ids", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue(Job{ID: "task-1", Type: "noop"})
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)
	waitForState(t, q, id, StateSucceeded)

	_, ok := q.Status("missing")
	assert.False(t, ok)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts atomic.Int32
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue(Job{Type: "flaky"})
	require.NoError(t, err)

	st := waitForState(t, q, id, StateSucceeded)
	assert.Equal(t, 3, st.Attempts)
	assert.Empty(t, st.Error)
}

func TestQueueRecordsFailure(t *testing.T) {
	q := NewQueue("fail", func(ctx context.Context, job Job) error {
		return errors.New("disk on fire")
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.TryEnqueue(Job{Type: "doomed"})
	require.NoError(t, err)

	st := waitForState(t, q, id, StateFailed)
	assert.Equal(t, 1, st.Attempts)
	assert.Equal(t, "disk on fire", st.Error)
}

func TestQueuePrunesHistory(t *testing.T) {
	q := NewQueue("history", func(ctx context.Context, job Job) error { return nil }, QueueConfig{History: 2})
	q.Start(context.Background())
	defer q.Stop()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := q.Enqueue(Job{Type: "noop"})
		require.NoError(t, err)
		waitForState(t, q, id, StateSucceeded)
		ids = append(ids, id)
	}

	_, ok := q.Status(ids[0])
	assert.False(t, ok)
	_, ok = q.Status(ids[2])
	assert.True(t, ok)
}

func TestQueueRejectsWhenStopped(t *testing.T) {
	q := NewQueue("stopped", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})

	_, err := q.Enqueue(Job{Type: "noop"})
	assert.ErrorIs(t, err, ErrNotRunning)

	q.Start(context.Background())
	q.Stop()
	q.Stop()
	_, err = q.TryEnqueue(Job{Type: "noop"})
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestQueueTryEnqueueFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()
	defer close(block)

	_, err := q.Enqueue(Job{Type: "first"})
	require.NoError(t, err)
	// the worker may not have picked up the first job yet, so fill until full
	for i := 0; i < 3 && err == nil; i++ {
		_, err = q.TryEnqueue(Job{Type: "more"})
	}
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestQueueStopDropsBufferedTasks(t *testing.T) {
	started := make(chan struct{})
	q := NewQueue("drop", func(ctx context.Context, job Job) error {
		if job.Type == "blocker" {
			close(started)
			<-ctx.Done()
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 2})
	q.Start(context.Background())

	_, err := q.Enqueue(Job{Type: "blocker"})
	require.NoError(t, err)
	<-started
	waiting, err := q.Enqueue(Job{Type: "waiting"})
	require.NoError(t, err)

	q.Stop()
	st, ok := q.Status(waiting)
	require.True(t, ok)
	assert.Equal(t, StateDropped, st.State)
}
