// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/shaderbox/hal"
)

// stateTracked validates barrier transitions against the actual state of
// a resource. Barriers execute on queue goroutines; the mutex covers
// concurrent queues, correct cross-queue ordering is the caller's signal
// discipline.
type stateTracked interface {
	transition(before, after hal.ResourceState) error
}

// texture is a CPU-backed RGBA8 texture.
type texture struct {
	name string

	mu    sync.Mutex
	img   *image.RGBA
	state hal.ResourceState
}

var _ hal.Texture = (*texture)(nil)

func newTexture(name string, size image.Point) *texture {
	return &texture{
		name: name,
		img:  image.NewRGBA(image.Rect(0, 0, size.X, size.Y)),
	}
}

func (t *texture) Name() string { return t.name }

func (t *texture) Size() image.Point {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.img.Bounds().Size()
}

func (t *texture) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

func (t *texture) transition(before, after hal.ResourceState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != before {
		return fmt.Errorf("%w: texture %q is %s, barrier declares %s -> %s",
			hal.ErrInvalidTransition, t.name, t.state, before, after)
	}
	t.state = after
	return nil
}

// require checks the current state before an operation touches pixels.
func (t *texture) require(state hal.ResourceState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != state {
		return fmt.Errorf("%w: texture %q used as %s while %s",
			hal.ErrInvalidTransition, t.name, state, t.state)
	}
	return nil
}

// readbackBuffer is a CPU staging buffer. It is created in StateCopyDest
// and never leaves it.
type readbackBuffer struct {
	name string
	size image.Point

	mu   sync.Mutex
	data []uint8
}

var _ hal.ReadbackBuffer = (*readbackBuffer)(nil)

func newReadbackBuffer(name string, size image.Point) *readbackBuffer {
	return &readbackBuffer{
		name: name,
		size: size,
		data: make([]uint8, 4*size.X*size.Y),
	}
}

func (b *readbackBuffer) Name() string { return b.name }

func (b *readbackBuffer) Size() image.Point { return b.size }

func (b *readbackBuffer) transition(before, after hal.ResourceState) error {
	if before != hal.StateCopyDest || after != hal.StateCopyDest {
		return fmt.Errorf("%w: readback buffer %q barrier declares %s -> %s",
			hal.ErrInvalidTransition, b.name, before, after)
	}
	return nil
}

// Image copies the buffer contents into a fresh CPU image.
func (b *readbackBuffer) Image() (*image.RGBA, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	img := image.NewRGBA(image.Rect(0, 0, b.size.X, b.size.Y))
	copy(img.Pix, b.data)
	return img, nil
}
