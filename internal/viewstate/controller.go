// Package viewstate keeps observable list state for each entity in step with the
// connection manager: it reloads on connection and schema events and surfaces
// repository failures as messages.
package viewstate

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/noah-isme/student-management/internal/dbmanager"
	apperrors "github.com/noah-isme/student-management/pkg/errors"
	"github.com/noah-isme/student-management/pkg/observable"
)

const (
	msgNotConnected   = "Database is not connected"
	msgConnectionLost = "Database connection lost"
)

// Source is the part of the connection manager a controller follows.
type Source interface {
	IsReady() bool
	SubscribeEvents() *observable.Subscription[*dbmanager.Event]
	SubscribeStatus() *observable.Subscription[bool]
}

// State is one snapshot of a list view. Error is empty when there is nothing to report.
type State[T any] struct {
	Items   []T
	Loading bool
	Error   string
}

// Options configures a controller.
type Options struct {
	Logger *zap.Logger
}

// Loader fetches the full list shown by a controller.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Controller holds the observable state of one list and keeps it synchronized.
type Controller[T any] struct {
	name        string
	source      Source
	load        Loader[T]
	loadFailMsg string
	logger      *zap.Logger

	state  *observable.Value[State[T]]
	synced atomic.Bool
	// seq numbers list loads; only the latest one may publish its items.
	seq atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewController subscribes to source and starts following its events. Close releases it.
func NewController[T any](name string, source Source, load Loader[T], loadFailMsg string, opts Options) *Controller[T] {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller[T]{
		name:        name,
		source:      source,
		load:        load,
		loadFailMsg: loadFailMsg,
		logger:      opts.Logger.With(zap.String("controller", name)),
		state:       observable.NewValue(State[T]{Items: []T{}}),
		ctx:         ctx,
		cancel:      cancel,
	}

	events := source.SubscribeEvents()
	status := source.SubscribeStatus()
	c.wg.Add(1)
	go c.run(events, status)
	return c
}

// State returns the current snapshot.
func (c *Controller[T]) State() State[T] {
	return c.state.Get()
}

// Subscribe streams state snapshots, starting with the current one.
func (c *Controller[T]) Subscribe() *observable.Subscription[State[T]] {
	return c.state.Subscribe()
}

// Close stops following the source and waits for the event loop to exit.
func (c *Controller[T]) Close() {
	c.cancel()
	c.wg.Wait()
	c.state.Close()
}

// Reload replaces the list with a fresh load.
func (c *Controller[T]) Reload(ctx context.Context) {
	c.synced.Store(true)
	if !c.source.IsReady() {
		c.setError(msgNotConnected)
		return
	}
	c.replace(ctx, c.load, c.loadFailMsg)
}

// ClearError dismisses the current message.
func (c *Controller[T]) ClearError() {
	c.setError("")
}

func (c *Controller[T]) run(events *observable.Subscription[*dbmanager.Event], status *observable.Subscription[bool]) {
	defer c.wg.Done()
	defer events.Cancel()
	defer status.Cancel()

	evCh, stCh := events.C(), status.C()
	for evCh != nil || stCh != nil {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-evCh:
			if !ok {
				evCh = nil
				continue
			}
			c.handleEvent(ev)
		case connected, ok := <-stCh:
			if !ok {
				stCh = nil
				continue
			}
			if connected && !c.synced.Load() {
				c.Reload(c.ctx)
			}
		}
	}
}

func (c *Controller[T]) handleEvent(ev *dbmanager.Event) {
	if ev == nil {
		if c.source.IsReady() && !c.synced.Load() {
			c.Reload(c.ctx)
		}
		return
	}

	c.logger.Debug("database event received",
		zap.String("event", string(ev.Kind)),
		zap.Bool("success", ev.Success),
	)
	switch ev.Kind {
	case dbmanager.EventConnectionChanged:
		if !ev.Success {
			c.fail(messageOr(ev.Message, msgConnectionLost), true)
			return
		}
	case dbmanager.EventInitializationCompleted:
		if !ev.Success {
			c.fail(ev.Message, true)
			return
		}
	case dbmanager.EventResetCompleted:
		c.clearItems()
		if !ev.Success {
			c.fail(ev.Message, false)
			return
		}
	case dbmanager.EventDemoDataLoaded:
		if !ev.Success {
			c.fail(ev.Message, false)
			return
		}
	default:
		return
	}
	c.setError("")
	c.Reload(c.ctx)
}

// replace runs fetch under the loading flag and shows its result.
// A load that was started before another one, or before the list was cleared, is discarded.
func (c *Controller[T]) replace(ctx context.Context, fetch Loader[T], fallback string) {
	n := c.seq.Add(1)
	c.setLoading(true)
	items, err := fetch(ctx)
	if items == nil {
		items = []T{}
	}
	msg := ""
	if err != nil {
		msg = apperrors.Message(err, fallback)
		c.logger.Warn("list load failed", zap.Error(err))
	}
	c.state.Update(func(s State[T]) State[T] {
		if c.seq.Load() != n {
			c.logger.Debug("superseded list load discarded")
			return s
		}
		s.Items = items
		s.Error = msg
		s.Loading = false
		return s
	})
}

// mutate runs op under the loading flag and reloads on success.
func (c *Controller[T]) mutate(ctx context.Context, fallback string, op func(ctx context.Context) error) error {
	c.setLoading(true)
	err := op(ctx)
	if err != nil {
		c.state.Update(func(s State[T]) State[T] {
			s.Error = apperrors.Message(err, fallback)
			s.Loading = false
			return s
		})
		return err
	}
	c.setLoading(false)
	c.Reload(ctx)
	return nil
}

func (c *Controller[T]) fail(msg string, clear bool) {
	if clear {
		c.clearItems()
	}
	c.setError(msg)
}

// clearItems empties the list and cancels the effect of loads still in flight.
func (c *Controller[T]) clearItems() {
	c.seq.Add(1)
	c.state.Update(func(s State[T]) State[T] {
		s.Items = []T{}
		s.Loading = false
		return s
	})
}

func (c *Controller[T]) setError(msg string) {
	c.state.Update(func(s State[T]) State[T] {
		s.Error = msg
		return s
	})
}

func (c *Controller[T]) setLoading(loading bool) {
	c.state.Update(func(s State[T]) State[T] {
		s.Loading = loading
		return s
	})
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
