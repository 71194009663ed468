// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFenceMonotonic(t *testing.T) {
	f := NewFence("test")
	if got := f.Completed(); got != 0 {
		t.Fatalf("new fence Completed = %d, want 0", got)
	}

	f.Advance(3)
	if got := f.Completed(); got != 3 {
		t.Errorf("Completed = %d, want 3", got)
	}

	// Moving backwards is ignored.
	f.Advance(1)
	if got := f.Completed(); got != 3 {
		t.Errorf("Completed after backwards Advance = %d, want 3", got)
	}
}

func TestSignalCompletion(t *testing.T) {
	f := NewFence("test")
	sig := Signal{fence: f, value: 2}

	if sig.IsCompleted() {
		t.Error("signal completed before fence advanced")
	}

	f.Advance(1)
	if sig.IsCompleted() {
		t.Error("signal completed at fence value 1")
	}

	f.Advance(2)
	if !sig.IsCompleted() {
		t.Error("signal not completed at fence value 2")
	}

	// Done channel is closed for completed signals.
	select {
	case <-sig.Done():
	default:
		t.Error("Done channel not closed for completed signal")
	}
}

func TestZeroSignalCompleted(t *testing.T) {
	var sig Signal
	if !sig.IsZero() {
		t.Error("zero signal IsZero = false")
	}
	if !sig.IsCompleted() {
		t.Error("zero signal not completed")
	}
	if err := sig.Wait(context.Background()); err != nil {
		t.Errorf("zero signal Wait = %v", err)
	}
}

func TestSignalWaitUnblocks(t *testing.T) {
	f := NewFence("test")
	sig := Signal{fence: f, value: 1}

	done := make(chan error, 1)
	go func() {
		done <- sig.Wait(context.Background())
	}()

	f.Advance(1)
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not unblock after Advance")
	}
}

func TestSignalWaitCanceled(t *testing.T) {
	f := NewFence("gfx")
	sig := Signal{fence: f, value: 5}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sig.Wait(ctx)
	if !errors.Is(err, ErrSyncWait) {
		t.Errorf("Wait = %v, want ErrSyncWait", err)
	}
}

func TestSignalsIdempotentWait(t *testing.T) {
	f := NewFence("test")
	s := NewSignals(3)

	s.Set(1, Signal{fence: f, value: 1})
	f.Advance(1)

	ctx := context.Background()
	if err := s.Wait(ctx, 1); err != nil {
		t.Fatalf("first Wait = %v", err)
	}

	// The slot was taken: the second wait returns immediately even if
	// the fence never moves again.
	ctx2, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.Wait(ctx2, 1); err != nil {
		t.Errorf("second Wait = %v, want nil", err)
	}
}

func TestSignalsWaitAll(t *testing.T) {
	f := NewFence("test")
	s := NewSignals(2)
	s.Set(0, Signal{fence: f, value: 1})
	s.Set(1, Signal{fence: f, value: 2})

	done := make(chan error, 1)
	go func() {
		done <- s.WaitAll(context.Background())
	}()

	f.Advance(2)
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WaitAll = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitAll did not finish")
	}

	// All slots drained.
	if _, _, ok := s.LastFrame(); ok {
		t.Error("LastFrame ok after WaitAll drained the table")
	}
}

func TestSignalsLastFrame(t *testing.T) {
	f := NewFence("test")
	s := NewSignals(3)

	if _, _, ok := s.LastFrame(); ok {
		t.Fatal("LastFrame ok on empty table")
	}

	s.Set(0, Signal{fence: f, value: 4})
	s.Set(2, Signal{fence: f, value: 7})
	s.Set(1, Signal{fence: f, value: 5})

	index, sig, ok := s.LastFrame()
	if !ok {
		t.Fatal("LastFrame not ok")
	}
	if index != 2 || sig.Value() != 7 {
		t.Errorf("LastFrame = (%d, %d), want (2, 7)", index, sig.Value())
	}

	// LastFrame does not clear the slot.
	if _, _, ok := s.LastFrame(); !ok {
		t.Error("slot cleared by LastFrame")
	}
}
