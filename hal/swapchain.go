// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import "image"

// SwapChainConfig describes a swap chain at creation or recreation.
type SwapChainConfig struct {
	Name            string
	Size            image.Point
	BufferCount     int
	MaxFrameLatency int
}

// SwapChain owns the rotating presentation buffers. The frame-latency
// gate bounds how many frames may be queued ahead of the display.
type SwapChain interface {
	// CurrentBuffer returns the index of the back buffer the presentation
	// engine will display next; this is the slot the engine must render
	// into.
	CurrentBuffer() int

	// Count returns the number of back buffers.
	Count() int

	// Size returns the back-buffer size.
	Size() image.Point

	// IsSignaled reports whether the display is ready to accept another
	// queued frame. Presenting while false would queue beyond the
	// configured frame latency.
	IsSignaled() bool

	// Target returns the render-target view of back buffer index.
	Target(index int) RenderTarget

	// Resize invalidates all back-buffer views, resizes and recreates
	// them. bufferCount 0 keeps the current count. The caller must have
	// drained all outstanding signals first.
	Resize(bufferCount int, size image.Point) error

	// SetMaxFrameLatency replaces the latency bound of the gate.
	SetMaxFrameLatency(n int) error
}

// Presenter is the device side of presentation. Present requests the flip;
// Presented hands the device the signal raised for that present so it can
// return the frame-latency token once the frame retires.
type Presenter interface {
	Present(interval int) error
	Presented(sig Signal)
}

// PresentableQueue is the graphics queue that owns the swap chain. From
// the caller's point of view Present performs the flip and raises the
// queue's next signal atomically.
type PresentableQueue struct {
	*Queue
	presenter Presenter
}

// NewPresentableQueue binds a queue to a device presenter.
func NewPresentableQueue(q *Queue, p Presenter) *PresentableQueue {
	return &PresentableQueue{Queue: q, presenter: p}
}

// Present requests presentation with a vertical-sync interval (0 =
// immediate, >=1 = vsync multiples) and returns the signal raised for
// this buffer's frame.
func (p *PresentableQueue) Present(interval int) (Signal, error) {
	if err := p.presenter.Present(interval); err != nil {
		return Signal{}, err
	}
	sig, err := p.Signal()
	if err != nil {
		return Signal{}, err
	}
	p.presenter.Presented(sig)
	return sig, nil
}
