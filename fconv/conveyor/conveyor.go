// Package conveyor implements an unbounded, single-consumer FIFO whose depth
// is observable in O(1) without dequeueing — the counting channel that ties
// the DSP worker to its upstream and downstream queues.
package conveyor

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrDisconnected is returned by Send when the receiver has been dropped, and
// by Recv/TryRecv when the channel is closed and drained.
var ErrDisconnected = errors.New("conveyor: disconnected")

// ErrEmpty is returned by TryRecv when no item is available but the channel
// is still open.
var ErrEmpty = errors.New("conveyor: empty")

// SendError is returned by Send when the receiver has disconnected. It wraps
// the item that could not be delivered so the caller can recover it.
type SendError[T any] struct {
	Item T
}

func (e *SendError[T]) Error() string { return ErrDisconnected.Error() }

func (e *SendError[T]) Unwrap() error { return ErrDisconnected }

type state[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	head   int
	closed bool
	count  atomic.Int64
}

// depth must be called with mu held.
func (s *state[T]) depth() int {
	return len(s.items) - s.head
}

// pop removes and returns the oldest item. Must be called with mu held and
// depth() > 0. Consumed head space is reclaimed once it outgrows the live
// items, so the backing array stays proportional to the queue depth.
func (s *state[T]) pop() T {
	item := s.items[s.head]
	var zero T
	s.items[s.head] = zero
	s.head++
	if s.head >= len(s.items) {
		s.items = s.items[:0]
		s.head = 0
	} else if s.head > s.depth() {
		n := copy(s.items, s.items[s.head:])
		s.items = s.items[:n]
		s.head = 0
	}
	return item
}

// Sender is the producer end of a conveyor. Safe for concurrent use by
// multiple goroutines (MPSC).
type Sender[T any] struct {
	s *state[T]
}

// Receiver is the single-consumer end of a conveyor.
type Receiver[T any] struct {
	s *state[T]
}

// Counter is a read-only handle on a conveyor's in-flight item count,
// shareable with observers that have no business touching the queue itself.
type Counter struct {
	count *atomic.Int64
}

// New constructs a conveyor and returns its two ends. count starts at zero.
func New[T any]() (Sender[T], Receiver[T]) {
	s := &state[T]{}
	s.cond = sync.NewCond(&s.mu)
	return Sender[T]{s: s}, Receiver[T]{s: s}
}

// Send enqueues item. On success it increments Count, with the update made
// while the queue lock is still held so no observer can ever see the count
// lag behind a completed matching receive (the count never goes negative).
// Send fails only once the receiver has disconnected, returning the item
// unchanged and leaving Count untouched.
func (snd Sender[T]) Send(item T) error {
	s := snd.s
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return &SendError[T]{Item: item}
	}
	s.items = append(s.items, item)
	s.count.Add(1)
	s.mu.Unlock()
	s.cond.Signal()
	return nil
}

// Count returns the current number of items sent minus received. It is
// approximate under concurrency but never negative and always consistent
// with the true depth once operations quiesce.
func (snd Sender[T]) Count() int64 {
	return snd.s.count.Load()
}

// Close marks the conveyor as disconnected: further Sends fail, and a Recv
// blocked with an empty queue returns ErrDisconnected. Idempotent.
func (snd Sender[T]) Close() {
	s := snd.s
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Recv blocks until an item is available or the conveyor is disconnected and
// drained. On success it decrements Count before releasing the queue lock.
func (rcv Receiver[T]) Recv() (T, error) {
	s := rcv.s
	s.mu.Lock()
	for s.depth() == 0 && !s.closed {
		s.cond.Wait()
	}
	if s.depth() == 0 {
		s.mu.Unlock()
		var zero T
		return zero, ErrDisconnected
	}
	item := s.pop()
	s.count.Add(-1)
	s.mu.Unlock()
	return item, nil
}

// TryRecv returns immediately: an item (decrementing Count), ErrEmpty if the
// queue is open but has nothing queued, or ErrDisconnected if it is closed
// and drained.
func (rcv Receiver[T]) TryRecv() (T, error) {
	s := rcv.s
	s.mu.Lock()
	if s.depth() == 0 {
		closed := s.closed
		s.mu.Unlock()
		var zero T
		if closed {
			return zero, ErrDisconnected
		}
		return zero, ErrEmpty
	}
	item := s.pop()
	s.count.Add(-1)
	s.mu.Unlock()
	return item, nil
}

// Count returns the current number of items sent minus received.
func (rcv Receiver[T]) Count() int64 {
	return rcv.s.count.Load()
}

// Counter returns a read-only handle to this conveyor's depth counter, for
// observers (e.g. the UI) that should not be able to enqueue or dequeue.
func (rcv Receiver[T]) Counter() Counter {
	return Counter{count: &rcv.s.count}
}

// Get returns the current depth.
func (c Counter) Get() int64 {
	return c.count.Load()
}
