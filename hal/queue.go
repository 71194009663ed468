// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"fmt"
	"sync"
)

// QueueBackend is the device side of a command queue: an ordered stream of
// submissions executing concurrently with the CPU. Implementations must
// execute submissions in call order and advance the fence to the given
// value once a submission's lists have finished.
type QueueBackend interface {
	// Submit enqueues lists and, after they complete, advances fence to
	// value. Submit must not block on GPU execution.
	Submit(lists []*List, fence *Fence, value uint64) error

	// SignalFence advances fence to value once all previously submitted
	// work has completed.
	SignalFence(fence *Fence, value uint64) error

	// WaitSignal defers execution of subsequently submitted work until
	// sig completes. This is the cross-queue dependency primitive.
	WaitSignal(sig Signal) error
}

// Queue owns one hardware queue and one fence counter. Execute submits
// command lists and atomically raises the next signal value; Wait makes
// the queue defer later work until a signal raised by another queue.
//
// Queue is safe for concurrent use; the signal counter is strictly
// increasing across concurrent submissions.
type Queue struct {
	name    string
	kind    ListKind
	backend QueueBackend
	fence   *Fence

	mu   sync.Mutex
	next uint64
}

// NewQueue assembles a queue over a device backend. The first signal
// raised has value 1.
func NewQueue(name string, kind ListKind, backend QueueBackend) *Queue {
	return &Queue{
		name:    name,
		kind:    kind,
		backend: backend,
		fence:   NewFence(name + "::fence"),
		next:    1,
	}
}

// Name returns the debug name of the queue.
func (q *Queue) Name() string { return q.name }

// Kind returns the list kind this queue executes.
func (q *Queue) Kind() ListKind { return q.kind }

// Fence returns the queue's fence.
func (q *Queue) Fence() *Fence { return q.fence }

// Execute submits one or more command lists of the matching kind and
// raises the next signal value for the batch.
func (q *Queue) Execute(lists ...*List) (Signal, error) {
	for _, l := range lists {
		if l.Kind() != q.kind {
			return Signal{}, fmt.Errorf("%w: %s list %q on %s queue %q", ErrListKind, l.Kind(), l.Name(), q.kind, q.name)
		}
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	value := q.next
	if err := q.backend.Submit(lists, q.fence, value); err != nil {
		return Signal{}, err
	}
	q.next++
	return Signal{fence: q.fence, value: value}, nil
}

// Signal raises the next signal value without submitting work.
func (q *Queue) Signal() (Signal, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	value := q.next
	if err := q.backend.SignalFence(q.fence, value); err != nil {
		return Signal{}, err
	}
	q.next++
	return Signal{fence: q.fence, value: value}, nil
}

// Wait makes this queue defer execution of subsequently submitted lists
// until sig is reached. The CPU does not block.
func (q *Queue) Wait(sig Signal) error {
	return q.backend.WaitSignal(sig)
}
