// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"context"
	"sync"
)

// Notifier lets pool elements announce readiness changes. When PopIf finds
// only elements whose predicate fails, it also waits on their Changed
// channels, so an element gated on an in-flight Signal wakes the waiter on
// completion instead of only on the next Release.
type Notifier interface {
	Changed() <-chan struct{}
}

// Pool is a fixed-size set of reusable expensive resources. Acquisition is
// asynchronous: Pop and PopIf suspend until an element is free (and
// satisfies the predicate) instead of allocating new resources on demand.
//
// No element is ever handed to two callers concurrently; releasing a
// lease makes its element eligible for the next waiting acquirer.
type Pool[T any] struct {
	mu     sync.Mutex
	free   []T
	closed bool
	gen    chan struct{} // closed and replaced on every release (broadcast)
}

// NewPool builds a pool of n elements produced by init. On the first
// error the partial pool is discarded and the error returned.
func NewPool[T any](n int, init func(i int) (T, error)) (*Pool[T], error) {
	p := &Pool[T]{
		free: make([]T, 0, n),
		gen:  make(chan struct{}),
	}
	for i := 0; i < n; i++ {
		v, err := init(i)
		if err != nil {
			return nil, err
		}
		p.free = append(p.free, v)
	}
	return p, nil
}

// Free returns the number of elements currently available.
func (p *Pool[T]) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Pop acquires any free element, suspending until one is available.
func (p *Pool[T]) Pop(ctx context.Context) (*Lease[T], error) {
	return p.PopIf(ctx, nil)
}

// PopIf acquires a free element satisfying pred. The predicate check and
// the removal from the free list happen under the same lock, so two
// waiters can never take the same element.
func (p *Pool[T]) PopIf(ctx context.Context, pred func(T) bool) (*Lease[T], error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrPoolDrained
		}
		for i, v := range p.free {
			if pred == nil || pred(v) {
				p.free = append(p.free[:i], p.free[i+1:]...)
				p.mu.Unlock()
				return &Lease[T]{pool: p, value: v}, nil
			}
		}
		gen := p.gen
		var changes []<-chan struct{}
		if pred != nil {
			for _, v := range p.free {
				if n, ok := any(v).(Notifier); ok {
					changes = append(changes, n.Changed())
				}
			}
		}
		p.mu.Unlock()

		wake := make(chan struct{}, 1)
		stop := make(chan struct{})
		for _, ch := range changes {
			go func(ch <-chan struct{}) {
				select {
				case <-ch:
					select {
					case wake <- struct{}{}:
					default:
					}
				case <-stop:
				}
			}(ch)
		}
		select {
		case <-ctx.Done():
			close(stop)
			return nil, ctx.Err()
		case <-gen:
		case <-wake:
		}
		close(stop)
	}
}

// Close drains the pool. Waiting and future acquirers receive
// ErrPoolDrained; leases already handed out stay valid and their Release
// becomes a no-op for acquisition purposes.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	old := p.gen
	p.gen = make(chan struct{})
	p.mu.Unlock()
	close(old)
}

func (p *Pool[T]) put(v T) {
	p.mu.Lock()
	p.free = append(p.free, v)
	old := p.gen
	p.gen = make(chan struct{})
	p.mu.Unlock()
	close(old)
}

// Lease is an exclusively held pool element. Release returns it; a second
// Release is a no-op.
type Lease[T any] struct {
	pool     *Pool[T]
	value    T
	released bool
	mu       sync.Mutex
}

// Value returns the held element.
func (l *Lease[T]) Value() T { return l.value }

// Release returns the element to the pool and wakes waiting acquirers.
func (l *Lease[T]) Release() {
	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return
	}
	l.released = true
	l.mu.Unlock()
	l.pool.put(l.value)
}
