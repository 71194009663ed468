// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/shaderbox/hal"
)

type jobKind uint8

const (
	jobExec jobKind = iota
	jobSignal
	jobWait
)

type job struct {
	kind  jobKind
	subs  []submission
	fence *hal.Fence
	value uint64
	sig   hal.Signal
}

// submission snapshots a list at submit time. The engine may re-record
// the list object for the next frame while this one is still executing;
// the ops backing array stays valid because its allocator is gated by
// the per-index signal.
type submission struct {
	name string
	ops  []hal.Op
}

// executor is one queue's execution stream: a goroutine draining an
// unbounded in-order job queue. A wait job blocks the stream, not the
// submitting CPU thread.
type executor struct {
	dev  *Device
	name string

	mu      sync.Mutex
	cond    *sync.Cond
	jobs    []job
	stopped bool

	done chan struct{}
}

var _ hal.QueueBackend = (*executor)(nil)

func newExecutor(dev *Device, name string) *executor {
	ex := &executor{
		dev:  dev,
		name: name,
		done: make(chan struct{}),
	}
	ex.cond = sync.NewCond(&ex.mu)
	go ex.loop()
	return ex
}

func (ex *executor) enqueue(j job) error {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	if ex.stopped {
		return fmt.Errorf("%w: queue %q stopped", hal.ErrDeviceNotAvailable, ex.name)
	}
	ex.jobs = append(ex.jobs, j)
	ex.cond.Signal()
	return nil
}

// Submit enqueues lists for execution; it never blocks on execution.
func (ex *executor) Submit(lists []*hal.List, fence *hal.Fence, value uint64) error {
	subs := make([]submission, len(lists))
	for i, l := range lists {
		subs[i] = submission{name: l.Name(), ops: l.Ops()}
	}
	return ex.enqueue(job{kind: jobExec, subs: subs, fence: fence, value: value})
}

// SignalFence advances the fence once prior jobs have drained.
func (ex *executor) SignalFence(fence *hal.Fence, value uint64) error {
	return ex.enqueue(job{kind: jobSignal, fence: fence, value: value})
}

// WaitSignal stalls the stream until sig completes.
func (ex *executor) WaitSignal(sig hal.Signal) error {
	return ex.enqueue(job{kind: jobWait, sig: sig})
}

// stop drains the remaining jobs and joins the goroutine.
func (ex *executor) stop() {
	ex.mu.Lock()
	if ex.stopped {
		ex.mu.Unlock()
		<-ex.done
		return
	}
	ex.stopped = true
	ex.cond.Signal()
	ex.mu.Unlock()
	<-ex.done
}

func (ex *executor) loop() {
	defer close(ex.done)
	for {
		ex.mu.Lock()
		for len(ex.jobs) == 0 && !ex.stopped {
			ex.cond.Wait()
		}
		if len(ex.jobs) == 0 {
			ex.mu.Unlock()
			return
		}
		j := ex.jobs[0]
		ex.jobs = ex.jobs[1:]
		ex.mu.Unlock()

		switch j.kind {
		case jobExec:
			for _, sub := range j.subs {
				ex.execList(sub)
			}
			j.fence.Advance(j.value)
		case jobSignal:
			j.fence.Advance(j.value)
		case jobWait:
			<-j.sig.Done()
		}
	}
}

// execList interprets one submitted list. Violations are latched on the
// device; the fence still advances afterwards so no waiter wedges.
func (ex *executor) execList(sub submission) {
	for _, op := range sub.ops {
		switch op.Kind {
		case hal.OpBarrier:
			ex.execBarriers(op.Barriers)
		case hal.OpClear:
			ex.execClear(op)
		case hal.OpDraw:
			ex.execDraw(op)
		case hal.OpLayer:
			ex.execLayer(op)
		case hal.OpCopy:
			ex.execCopy(op)
		}
	}
}

func (ex *executor) execBarriers(barriers []hal.Barrier) {
	for _, b := range barriers {
		tracked, ok := b.Resource.(stateTracked)
		if !ok {
			ex.dev.latch(fmt.Errorf("%w: foreign resource %q", hal.ErrInvalidTransition, b.Resource.Name()))
			continue
		}
		if err := tracked.transition(b.Before, b.After); err != nil {
			ex.dev.latch(err)
		}
	}
}

func (ex *executor) execClear(op hal.Op) {
	t, ok := op.Target.Texture.(*texture)
	if !ok {
		return
	}
	if err := t.require(hal.StateRenderTarget); err != nil {
		ex.dev.latch(err)
		return
	}
	t.mu.Lock()
	draw.Draw(t.img, t.img.Bounds(), image.NewUniform(toRGBA(op.Color)), image.Point{}, draw.Src)
	t.mu.Unlock()
}

func (ex *executor) execDraw(op hal.Op) {
	t, ok := op.Target.Texture.(*texture)
	if !ok {
		return
	}
	p, ok := op.Pipeline.(*pipeline)
	if !ok {
		ex.dev.latch(fmt.Errorf("soft: foreign pipeline %q on queue %q", op.Pipeline.Name(), ex.name))
		return
	}
	if err := t.require(hal.StateRenderTarget); err != nil {
		ex.dev.latch(err)
		return
	}

	t.mu.Lock()
	rect := op.Plane.Rect(t.img.Bounds().Size())
	rect = rect.Intersect(t.img.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			// Fragment centers, matching GPU rasterization.
			c := p.eval(op.Params, float32(x)+0.5, float32(y)+0.5)
			t.img.SetRGBA(x, y, toRGBA(c))
		}
	}
	t.mu.Unlock()
}

func (ex *executor) execLayer(op hal.Op) {
	src, ok := op.Source.Texture.(*texture)
	if !ok {
		return
	}
	dst, ok := op.Target.Texture.(*texture)
	if !ok {
		return
	}
	if err := src.require(hal.StateShaderResource); err != nil {
		ex.dev.latch(err)
		return
	}
	if err := dst.require(hal.StateRenderTarget); err != nil {
		ex.dev.latch(err)
		return
	}

	// Snapshot the source so the two texture locks never nest.
	src.mu.Lock()
	tmp := image.NewRGBA(src.img.Bounds())
	copy(tmp.Pix, src.img.Pix)
	src.mu.Unlock()

	dst.mu.Lock()
	rect := op.Plane.Rect(dst.img.Bounds().Size()).Intersect(dst.img.Bounds())
	if rect.Size().Eq(tmp.Bounds().Size()) {
		draw.Draw(dst.img, rect, tmp, tmp.Bounds().Min, draw.Over)
	} else {
		xdraw.ApproxBiLinear.Scale(dst.img, rect, tmp, tmp.Bounds(), xdraw.Over, nil)
	}
	dst.mu.Unlock()
}

func (ex *executor) execCopy(op hal.Op) {
	src, ok := op.CopySrc.Texture.(*texture)
	if !ok {
		return
	}
	dst, ok := op.CopyDst.(*readbackBuffer)
	if !ok {
		return
	}
	if err := src.require(hal.StateCopySource); err != nil {
		ex.dev.latch(err)
		return
	}

	src.mu.Lock()
	if !src.img.Bounds().Size().Eq(dst.size) {
		size := src.img.Bounds().Size()
		src.mu.Unlock()
		ex.dev.latch(fmt.Errorf("soft: copying %v texture %q into %v buffer %q",
			size, src.name, dst.size, dst.name))
		return
	}
	pix := make([]uint8, len(src.img.Pix))
	copy(pix, src.img.Pix)
	src.mu.Unlock()

	dst.mu.Lock()
	copy(dst.data, pix)
	dst.mu.Unlock()
}

// toRGBA converts a [0,1] float color to 8-bit with rounding.
func toRGBA(c [4]float32) color.RGBA {
	conv := func(v float32) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	return color.RGBA{R: conv(c[0]), G: conv(c[1]), B: conv(c[2]), A: conv(c[3])}
}
