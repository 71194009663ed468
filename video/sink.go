// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package video writes captured frames to encoder sinks.
package video

import "image"

// Sink consumes captured frames. WriteFrame takes a monotonically
// increasing presentation timestamp in 100 ns units; Finalize writes the
// container trailer. A sink is used by one worker goroutine only.
type Sink interface {
	WriteFrame(img *image.RGBA, pts uint64) error
	Finalize() error
}
