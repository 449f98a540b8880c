package notifier

import "sync"

// Notifier is a payload-free publish/subscribe fan-out. Observers re-read
// whatever store the signal refers to; the signal itself carries nothing.
type Notifier interface {
	Subscribe(handler func()) (unsubscribe func())
	Publish()
}

type notifier struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func()
}

func New() Notifier {
	return &notifier{
		handlers: make(map[int]func()),
	}
}

func (n *notifier) Subscribe(handler func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.handlers[id] = handler

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.handlers, id)
	}
}

func (n *notifier) Publish() {
	n.mu.Lock()
	handlers := make([]func(), 0, len(n.handlers))
	for _, h := range n.handlers {
		handlers = append(handlers, h)
	}
	n.mu.Unlock()

	// Handlers run outside the lock so a handler may subscribe/unsubscribe.
	for _, h := range handlers {
		h()
	}
}
