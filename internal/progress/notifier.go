package progress

import "sync"

// Notifier fans a value out to registered listeners. Notify calls every
// listener synchronously, in registration order, on the caller's goroutine.
// Nothing is buffered: a listener only sees values raised after it subscribed.
type Notifier[T any] struct {
	mu        sync.Mutex
	nextID    int
	listeners []listener[T]
}

type listener[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it again.
// Calling the returned function more than once is harmless.
func (n *Notifier[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	id := n.nextID
	n.listeners = append(n.listeners, listener[T]{id: id, fn: fn})
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, l := range n.listeners {
			if l.id == id {
				n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
				return
			}
		}
	}
}

// Notify delivers v to the listeners registered at the time of the call.
func (n *Notifier[T]) Notify(v T) {
	if n == nil {
		return
	}
	n.mu.Lock()
	current := make([]listener[T], len(n.listeners))
	copy(current, n.listeners)
	n.mu.Unlock()
	for _, l := range current {
		l.fn(v)
	}
}

// Len reports the number of registered listeners.
func (n *Notifier[T]) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners)
}
