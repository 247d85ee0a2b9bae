// Package observable provides a value holder whose subscribers always see the latest value.
//
// A subscriber receives the current value immediately on Subscribe and then every later
// update. A slow subscriber never blocks Set: pending values it has not read yet are replaced
// by the newest one, so intermediate updates may be skipped but the final state is always delivered.
package observable

import "sync"

// Value holds a T and fans updates out to subscribers.
type Value[T any] struct {
	mu     sync.RWMutex
	value  T
	subs   map[*Subscription[T]]struct{}
	closed bool
}

// NewValue creates a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{value: initial, subs: make(map[*Subscription[T]]struct{})}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set stores next and delivers it to every subscriber.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = next
	for sub := range v.subs {
		sub.offer(next)
	}
}

// Update applies fn to the current value atomically and publishes the result.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = fn(v.value)
	for sub := range v.subs {
		sub.offer(v.value)
	}
	return v.value
}

// CompareAndSet publishes next only when changed reports a difference from the current value.
// It returns true when the value was replaced.
func (v *Value[T]) CompareAndSet(next T, changed func(current, next T) bool) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !changed(v.value, next) {
		return false
	}
	v.value = next
	for sub := range v.subs {
		sub.offer(next)
	}
	return true
}

// Subscribe registers a subscriber primed with the current value.
func (v *Value[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{ch: make(chan T, 1), parent: v}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		close(sub.ch)
		return sub
	}
	sub.offer(v.value)
	v.subs[sub] = struct{}{}
	return sub
}

// Close ends every subscription. Later Set calls only update the stored value.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	for sub := range v.subs {
		close(sub.ch)
		delete(v.subs, sub)
	}
}

// Subscription is a single consumer of a Value.
type Subscription[T any] struct {
	ch     chan T
	parent *Value[T]
	once   sync.Once
}

// C returns the delivery channel. It is closed on Cancel or when the Value is closed.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Cancel detaches the subscription. Safe to call more than once.
func (s *Subscription[T]) Cancel() {
	s.once.Do(func() {
		s.parent.mu.Lock()
		defer s.parent.mu.Unlock()
		if _, ok := s.parent.subs[s]; ok {
			delete(s.parent.subs, s)
			close(s.ch)
		}
	})
}

// offer replaces any undelivered value with next. Callers hold the parent lock,
// which makes the drain-then-send pair atomic with respect to other writers.
func (s *Subscription[T]) offer(next T) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- next
}
