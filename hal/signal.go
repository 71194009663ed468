// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"context"
	"fmt"
	"sync"
)

// closedCh is returned for already-completed waits so callers never block.
var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Fence is a monotonically increasing completion counter owned by a queue.
// The device side advances it as submitted work retires; the engine side
// observes it through Signal values.
//
// Fence is safe for concurrent use.
type Fence struct {
	name string

	mu        sync.Mutex
	completed uint64
	waiters   []fenceWaiter
}

type fenceWaiter struct {
	value uint64
	ch    chan struct{}
}

// NewFence creates a fence with completed value 0.
func NewFence(name string) *Fence {
	return &Fence{name: name}
}

// Name returns the debug name of the fence.
func (f *Fence) Name() string { return f.name }

// Completed returns the highest value the fence has reached.
func (f *Fence) Completed() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// Advance moves the completed value up to value and releases every waiter
// at or below it. Values at or below the current completed value are
// ignored, so the counter can never move backwards.
//
// Advance is called by device backends only.
func (f *Fence) Advance(value uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if value <= f.completed {
		return
	}
	f.completed = value
	remaining := f.waiters[:0]
	for _, w := range f.waiters {
		if w.value <= f.completed {
			close(w.ch)
		} else {
			remaining = append(remaining, w)
		}
	}
	f.waiters = remaining
}

// watch returns a channel closed once the fence reaches value.
func (f *Fence) watch(value uint64) <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed >= value {
		return closedCh
	}
	ch := make(chan struct{})
	f.waiters = append(f.waiters, fenceWaiter{value: value, ch: ch})
	return ch
}

// Signal is an opaque checkpoint on a fence: the fence reference plus the
// counter value that was raised for one submission. Signals are immutable
// and may be copied freely.
//
// The zero Signal is always completed.
type Signal struct {
	fence *Fence
	value uint64
}

// IsZero reports whether the signal was never raised.
func (s Signal) IsZero() bool { return s.fence == nil }

// Value returns the fence value this signal was raised at.
func (s Signal) Value() uint64 { return s.value }

// IsCompleted reports, without blocking, whether the fence has reached
// this signal's value.
func (s Signal) IsCompleted() bool {
	if s.fence == nil {
		return true
	}
	return s.fence.Completed() >= s.value
}

// Done returns a channel closed when the signal completes. The channel is
// already closed for completed and zero signals.
func (s Signal) Done() <-chan struct{} {
	if s.fence == nil {
		return closedCh
	}
	return s.fence.watch(s.value)
}

// Wait blocks until the signal completes or ctx is canceled. A canceled
// wait is a synchronization failure and is reported as ErrSyncWait.
func (s Signal) Wait(ctx context.Context) error {
	if s.IsCompleted() {
		return nil
	}
	select {
	case <-s.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: fence %q value %d: %v", ErrSyncWait, s.fence.name, s.value, ctx.Err())
	}
}

// Signals is the per-buffer-index table of outstanding frame signals.
// Before the engine reuses a buffer index, the previously stored signal
// for that index must have completed; Wait enforces this.
//
// Signals is safe for concurrent use.
type Signals struct {
	mu    sync.Mutex
	slots []*Signal
}

// NewSignals creates a table with n empty slots.
func NewSignals(n int) *Signals {
	return &Signals{slots: make([]*Signal, n)}
}

// Len returns the number of slots.
func (s *Signals) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// Set stores sig at index, replacing any previous signal.
func (s *Signals) Set(index int, sig Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[index] = &sig
}

// Wait takes the signal stored at index, if any, and waits for it.
// The slot is left empty, so a second Wait without an intervening Set
// returns immediately.
func (s *Signals) Wait(ctx context.Context, index int) error {
	s.mu.Lock()
	sig := s.slots[index]
	s.slots[index] = nil
	s.mu.Unlock()
	if sig == nil {
		return nil
	}
	return sig.Wait(ctx)
}

// WaitAll drains and waits on every stored signal. It is the hard barrier
// used before teardown, resize and recreate: when it returns, no frame
// submitted through this table is still in flight.
func (s *Signals) WaitAll(ctx context.Context) error {
	s.mu.Lock()
	taken := make([]*Signal, 0, len(s.slots))
	for i, sig := range s.slots {
		if sig != nil {
			taken = append(taken, sig)
			s.slots[i] = nil
		}
	}
	s.mu.Unlock()
	for _, sig := range taken {
		if err := sig.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// LastFrame returns the index holding the highest-value signal, i.e. the
// most recently submitted frame, along with its signal. The slot is not
// cleared. ok is false when no signal is stored at all.
func (s *Signals) LastFrame() (index int, sig Signal, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best uint64
	for i, c := range s.slots {
		if c != nil && c.value > best {
			best = c.value
			index, sig, ok = i, *c, true
		}
	}
	return index, sig, ok
}
