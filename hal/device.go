// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"image"

	"github.com/gogpu/shaderbox/shader"
)

// Device creates the resources the engine submits work against. The device
// must outlive every resource it created, and resources must outlive every
// in-flight Signal referencing them; the engine enforces the latter by
// draining Signals before destruction.
type Device interface {
	// Name returns the driver identifier (e.g. "soft", "webgpu").
	Name() string

	// NewQueue creates a hardware queue of the given kind.
	NewQueue(name string, kind ListKind) (*Queue, error)

	// NewTexture creates a render-target-capable 2D texture in
	// StateCommon.
	NewTexture(name string, size image.Point) (Texture, error)

	// NewReadbackBuffer creates a CPU-visible staging buffer sized for
	// one frame of the given resolution, in StateCopyDest.
	NewReadbackBuffer(name string, size image.Point) (ReadbackBuffer, error)

	// NewSwapChain creates the presentation buffers and the graphics
	// queue that presents them.
	NewSwapChain(cfg SwapChainConfig) (SwapChain, *PresentableQueue, error)

	// NewPipeline builds a pixel-shader pipeline from a compiled blob.
	NewPipeline(name string, blob *shader.Blob) (Pipeline, error)

	// WriteTexture uploads CPU pixels into a texture immediately, with
	// queue-write semantics: the data is visible to all subsequently
	// submitted work. The texture must be in StateCommon.
	WriteTexture(tex Texture, img *image.RGBA) error

	// Close releases the device. All queues drain first; callers must
	// have waited on outstanding signals.
	Close()
}
