// Package jobs runs background tasks on a fixed pool of workers and keeps a
// bounded history of how each task ended.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned by TryEnqueue when the buffer has no room.
	ErrQueueFull = errors.New("queue full")
	// ErrNotRunning is returned when tasks are submitted before Start or after Stop.
	ErrNotRunning = errors.New("queue not running")
)

// State is the lifecycle position of a task.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	// StateDropped marks tasks still waiting when the queue stopped.
	StateDropped State = "dropped"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateDropped
}

// Job is a unit of work handed to the Handler.
type Job struct {
	ID      string
	Type    string
	Payload interface{}
	Attempt int
}

// Status is a snapshot of a tracked task.
type Status struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	State    State     `json:"state"`
	Attempts int       `json:"attempts"`
	Error    string    `json:"error,omitempty"`
	Enqueued time.Time `json:"enqueuedAt"`
	Updated  time.Time `json:"updatedAt"`
}

// Handler processes a job. A returned error marks the attempt as failed.
type Handler func(context.Context, Job) error

// QueueConfig configures the worker pool. A zero MaxRetries disables retries and a
// zero History keeps the last 64 finished tasks.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	History    int
	Logger     *zap.Logger
}

// Queue dispatches jobs to its workers. Every goroutine it starts, retry timers
// included, is joined by Stop.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	logger  *zap.Logger

	jobs chan Job
	wg   sync.WaitGroup

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
	tasks    map[string]*Status
	finished []string
}

// NewQueue builds a stopped queue around handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.History <= 0 {
		cfg.History = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.String("queue", name)),
		jobs:    make(chan Job, cfg.BufferSize),
		tasks:   make(map[string]*Status),
	}
}

// Start launches the workers. Calls after the first are ignored until Stop.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.running = true
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work(q.ctx)
	}
	q.logger.Debug("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop cancels the workers and waits for them. Tasks still buffered are marked dropped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	for {
		select {
		case job := <-q.jobs:
			q.finish(job.ID, StateDropped, "queue stopped")
		default:
			q.logger.Debug("queue stopped")
			return
		}
	}
}

// Enqueue tracks job and blocks until the buffer accepts it. It returns the task ID.
func (q *Queue) Enqueue(job Job) (string, error) {
	return q.submit(job, true)
}

// TryEnqueue is Enqueue without blocking; a full buffer yields ErrQueueFull.
func (q *Queue) TryEnqueue(job Job) (string, error) {
	return q.submit(job, false)
}

// Status returns the latest snapshot of the task with id.
func (q *Queue) Status(id string) (Status, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	st, ok := q.tasks[id]
	if !ok {
		return Status{}, false
	}
	return *st, true
}

func (q *Queue) submit(job Job, block bool) (string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return "", fmt.Errorf("queue %s: %w", q.name, ErrNotRunning)
	}
	ctx := q.ctx
	now := time.Now().UTC()
	q.tasks[job.ID] = &Status{ID: job.ID, Type: job.Type, State: StateQueued, Enqueued: now, Updated: now}
	q.mu.Unlock()

	if block {
		select {
		case q.jobs <- job:
			return job.ID, nil
		case <-ctx.Done():
			q.forget(job.ID)
			return "", fmt.Errorf("queue %s: %w", q.name, ErrNotRunning)
		}
	}
	select {
	case q.jobs <- job:
		return job.ID, nil
	default:
		q.forget(job.ID)
		return "", fmt.Errorf("queue %s: %w", q.name, ErrQueueFull)
	}
}

func (q *Queue) work(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			if ctx.Err() != nil {
				q.finish(job.ID, StateDropped, "queue stopped")
				return
			}
			q.run(ctx, job)
		}
	}
}

func (q *Queue) run(ctx context.Context, job Job) {
	job.Attempt++
	q.update(job.ID, func(st *Status) {
		st.State = StateRunning
		st.Attempts = job.Attempt
	})

	err := q.handler(ctx, job)
	if err == nil {
		q.finish(job.ID, StateSucceeded, "")
		return
	}
	if job.Attempt > q.cfg.MaxRetries {
		q.logger.Error("task failed", zap.String("task_id", job.ID), zap.String("type", job.Type), zap.Int("attempts", job.Attempt), zap.Error(err))
		q.finish(job.ID, StateFailed, err.Error())
		return
	}

	q.logger.Warn("task failed, retrying", zap.String("task_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err))
	q.update(job.ID, func(st *Status) {
		st.State = StateQueued
		st.Error = err.Error()
	})
	q.wg.Add(1)
	go q.retry(ctx, job)
}

func (q *Queue) retry(ctx context.Context, job Job) {
	defer q.wg.Done()
	timer := time.NewTimer(q.cfg.RetryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		q.finish(job.ID, StateDropped, "queue stopped")
	case <-timer.C:
		select {
		case q.jobs <- job:
		default:
			q.logger.Error("failed to requeue task", zap.String("task_id", job.ID), zap.Error(ErrQueueFull))
			q.finish(job.ID, StateFailed, ErrQueueFull.Error())
		}
	}
}

func (q *Queue) update(id string, fn func(*Status)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if st, ok := q.tasks[id]; ok {
		fn(st)
		st.Updated = time.Now().UTC()
	}
}

// finish records a terminal state and prunes the oldest finished tasks beyond History.
func (q *Queue) finish(id string, state State, msg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	st, ok := q.tasks[id]
	if !ok || st.State.Terminal() {
		return
	}
	st.State = state
	st.Error = msg
	st.Updated = time.Now().UTC()

	q.finished = append(q.finished, id)
	for len(q.finished) > q.cfg.History {
		delete(q.tasks, q.finished[0])
		q.finished = q.finished[1:]
	}
}

func (q *Queue) forget(id string) {
	q.mu.Lock()
	delete(q.tasks, id)
	q.mu.Unlock()
}
