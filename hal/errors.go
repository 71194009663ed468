// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import "errors"

// Submission and synchronization errors.
var (
	// ErrSyncWait is returned when waiting on a fence or signal fails.
	// A failed wait is fatal to the engine, never retried.
	ErrSyncWait = errors.New("hal: sync wait failed")

	// ErrInvalidTransition is reported when a resource barrier declares a
	// before-state that does not match the resource's tracked state.
	ErrInvalidTransition = errors.New("hal: invalid resource transition")

	// ErrListKind is returned when a command list is recorded or submitted
	// against a queue or recording session of the wrong kind.
	ErrListKind = errors.New("hal: command list kind mismatch")

	// ErrListClosed is returned when operations are emitted outside a
	// recording session.
	ErrListClosed = errors.New("hal: command list is closed")

	// ErrPoolDrained is returned to acquirers once a pool is closed.
	ErrPoolDrained = errors.New("hal: pool drained")

	// ErrDeviceNotAvailable is returned when a requested device driver is
	// not registered.
	ErrDeviceNotAvailable = errors.New("hal: device not available")
)
