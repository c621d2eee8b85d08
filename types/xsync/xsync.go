// Package xsync implements the extra synchronization tools used by the
// runtime: one-shot latches that carry a value, used to publish the result of
// an in-flight compilation to every caller waiting on it.
package xsync

import "sync"

// Latch is a one-shot signal: it can be waited on until triggered, and once
// triggered it stays triggered forever.
type Latch struct {
	mu   sync.Mutex
	wait chan struct{}
}

// NewLatch returns an un-triggered latch.
func NewLatch() *Latch {
	return &Latch{wait: make(chan struct{})}
}

// Trigger fires the latch, releasing all current and future waiters.
// Triggering an already-triggered latch is a no-op.
func (l *Latch) Trigger() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Test() {
		return
	}
	close(l.wait)
}

// Wait blocks until the latch is triggered.
func (l *Latch) Wait() {
	<-l.wait
}

// Test reports whether the latch has been triggered, without blocking.
func (l *Latch) Test() bool {
	select {
	case <-l.wait:
		return true
	default:
		return false
	}
}

// WaitChan returns the channel closed when the latch triggers, for use in
// select statements.
func (l *Latch) WaitChan() <-chan struct{} {
	return l.wait
}

// LatchWithValue is a Latch whose trigger publishes a value: every waiter
// observes the value set by the (single effective) Trigger call.
type LatchWithValue[T any] struct {
	latch *Latch
	value T
}

// NewLatchWithValue returns an un-triggered latch.
func NewLatchWithValue[T any]() *LatchWithValue[T] {
	return &LatchWithValue[T]{latch: NewLatch()}
}

// Trigger fires the latch with the given value. Later calls are no-ops and
// their value is discarded.
func (l *LatchWithValue[T]) Trigger(value T) {
	l.latch.mu.Lock()
	defer l.latch.mu.Unlock()
	if l.latch.Test() {
		return
	}
	l.value = value
	close(l.latch.wait)
}

// Wait blocks until the latch is triggered and returns the published value.
func (l *LatchWithValue[T]) Wait() T {
	l.latch.Wait()
	return l.value
}

// Test reports whether the latch has been triggered, without blocking.
func (l *LatchWithValue[T]) Test() bool {
	return l.latch.Test()
}
