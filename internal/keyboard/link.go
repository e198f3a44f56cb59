package keyboard

import (
	"sync"
	"sync/atomic"
)

// Link is an outbound command queue to a peer. Sends never block: a full
// queue or a closed link drops the command. The peer task drains C until
// Done is closed.
type Link[T any] struct {
	ch        chan T
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64
}

// NewLink returns a link buffering up to size commands.
func NewLink[T any](size int) *Link[T] {
	return &Link[T]{
		ch:   make(chan T, size),
		done: make(chan struct{}),
	}
}

// Send queues v and reports whether it was accepted. A nil link drops
// everything.
func (l *Link[T]) Send(v T) bool {
	if l == nil {
		return false
	}
	select {
	case <-l.done:
		l.dropped.Add(1)
		return false
	default:
	}
	select {
	case l.ch <- v:
		return true
	default:
		l.dropped.Add(1)
		return false
	}
}

// C returns the receive side of the queue.
func (l *Link[T]) C() <-chan T {
	return l.ch
}

// Done is closed when the link is closed.
func (l *Link[T]) Done() <-chan struct{} {
	return l.done
}

// Close marks the peer as gone. Later sends are dropped. The queue channel
// itself is never closed, so racing senders cannot panic.
func (l *Link[T]) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// Dropped returns the number of commands discarded so far.
func (l *Link[T]) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}
