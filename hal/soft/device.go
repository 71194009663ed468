// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package soft is the software device: command lists execute on CPU
// goroutines, one per queue, with real fences and real cross-queue
// waits. It registers itself as driver "soft" and is the fallback when
// no GPU driver is available.
package soft

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/shaderbox/hal"
	"github.com/gogpu/shaderbox/shader"
)

func init() {
	hal.Register(hal.DriverSoft, func() (hal.Device, error) {
		return New(), nil
	})
}

// Device is a complete software implementation of hal.Device.
//
// Barrier violations do not abort execution: the first one is latched and
// readable through ValidationError, and fences keep advancing so no
// waiter wedges.
type Device struct {
	mu            sync.Mutex
	executors     []*executor
	validationErr error
	closed        bool
}

var _ hal.Device = (*Device)(nil)

// New creates a software device.
func New() *Device {
	return &Device{}
}

// Name returns the driver name.
func (d *Device) Name() string { return hal.DriverSoft }

// ValidationError returns the first barrier violation executed so far,
// nil when every transition matched the tracked state.
func (d *Device) ValidationError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.validationErr
}

// latch records the first validation error and drops the rest.
func (d *Device) latch(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.validationErr == nil {
		d.validationErr = err
	}
}

// NewQueue starts a queue goroutine of the given kind.
func (d *Device) NewQueue(name string, kind hal.ListKind) (*hal.Queue, error) {
	ex, err := d.newExecutor(name)
	if err != nil {
		return nil, err
	}
	return hal.NewQueue(name, kind, ex), nil
}

func (d *Device) newExecutor(name string) (*executor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, hal.ErrDeviceNotAvailable
	}
	ex := newExecutor(d, name)
	d.executors = append(d.executors, ex)
	return ex, nil
}

// NewTexture creates a CPU-backed texture in StateCommon.
func (d *Device) NewTexture(name string, size image.Point) (hal.Texture, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("soft: texture %q has invalid size %v", name, size)
	}
	return newTexture(name, size), nil
}

// NewReadbackBuffer creates a staging buffer in StateCopyDest.
func (d *Device) NewReadbackBuffer(name string, size image.Point) (hal.ReadbackBuffer, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("soft: readback buffer %q has invalid size %v", name, size)
	}
	return newReadbackBuffer(name, size), nil
}

// NewSwapChain creates the back-buffer rotation and the direct queue
// presenting it.
func (d *Device) NewSwapChain(cfg hal.SwapChainConfig) (hal.SwapChain, *hal.PresentableQueue, error) {
	sc, err := newSwapChain(cfg)
	if err != nil {
		return nil, nil, err
	}
	q, err := d.NewQueue(cfg.Name+"::queue", hal.KindDirect)
	if err != nil {
		return nil, nil, err
	}
	return sc, hal.NewPresentableQueue(q, sc), nil
}

// NewPipeline builds a pipeline from the blob's CPU evaluation function.
func (d *Device) NewPipeline(name string, blob *shader.Blob) (hal.Pipeline, error) {
	if blob == nil || blob.Eval == nil {
		return nil, fmt.Errorf("soft: pipeline %q: blob has no CPU evaluation", name)
	}
	return &pipeline{name: name, eval: blob.Eval}, nil
}

// WriteTexture uploads pixels immediately. The texture must be resting
// in StateCommon.
func (d *Device) WriteTexture(tex hal.Texture, img *image.RGBA) error {
	t, ok := tex.(*texture)
	if !ok {
		return fmt.Errorf("soft: foreign texture %q", tex.Name())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != hal.StateCommon {
		return fmt.Errorf("%w: writing texture %q while %s", hal.ErrInvalidTransition, t.name, t.state)
	}
	if !img.Bounds().Size().Eq(t.img.Bounds().Size()) {
		return fmt.Errorf("soft: writing %v pixels into %v texture %q", img.Bounds().Size(), t.img.Bounds().Size(), t.name)
	}
	copy(t.img.Pix, img.Pix)
	return nil
}

// Close drains and stops every queue goroutine.
func (d *Device) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	executors := d.executors
	d.mu.Unlock()

	for _, ex := range executors {
		ex.stop()
	}
}

// pipeline wraps a compiled blob; draws execute Eval per pixel.
type pipeline struct {
	name string
	eval shader.EvalFunc
}

var _ hal.Pipeline = (*pipeline)(nil)

func (p *pipeline) Name() string { return p.name }
