package state

import "sync"

// Observable holds a value of type T and publishes every change.
type Observable[T any] struct {
	mu     sync.RWMutex
	value  T
	subs   map[int]chan T
	nextID int
}

// New returns an Observable holding initial.
func New[T any](initial T) *Observable[T] {
	return &Observable[T]{
		value: initial,
		subs:  make(map[int]chan T),
	}
}

// Get returns the current value.
func (o *Observable[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// Set replaces the value and notifies subscribers.
func (o *Observable[T]) Set(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.value = v
	o.publish(v)
}

// Update applies fn to the current value under the lock and publishes the result.
func (o *Observable[T]) Update(fn func(T) T) T {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.value = fn(o.value)
	o.publish(o.value)
	return o.value
}

// publish must be called with mu held.
func (o *Observable[T]) publish(v T) {
	for _, ch := range o.subs {
		// Drop the unread value, if any, so the channel holds the newest.
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Subscribe returns a channel primed with the current value. The channel is
// closed by the returned cancel func, which is safe to call more than once.
func (o *Observable[T]) Subscribe() (<-chan T, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ch := make(chan T, 1)
	ch <- o.value

	id := o.nextID
	o.nextID++
	o.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of active subscriptions.
func (o *Observable[T]) Subscribers() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs)
}
