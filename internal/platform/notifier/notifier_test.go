package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifier_FanOut(t *testing.T) {
	n := New()

	a, b := 0, 0
	unsubA := n.Subscribe(func() { a++ })
	n.Subscribe(func() { b++ })

	n.Publish()
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)

	unsubA()
	n.Publish()
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestNotifier_HandlerMaySubscribeDuringPublish(t *testing.T) {
	n := New()

	called := false
	n.Subscribe(func() {
		n.Subscribe(func() { called = true })
	})

	n.Publish() // must not deadlock
	n.Publish()
	assert.True(t, called)
}

func TestNotifier_UnsubscribeTwiceIsSafe(t *testing.T) {
	n := New()
	unsub := n.Subscribe(func() {})
	unsub()
	unsub()
	n.Publish()
}
