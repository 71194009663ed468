package shaderbox

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/shaderbox/hal"
	"github.com/gogpu/shaderbox/overlay"
	"github.com/gogpu/shaderbox/shader"
)

const (
	// allocatorsPerFrame is the number of graphics allocators per
	// buffer index: one for the shader pass, one for the UI pass.
	allocatorsPerFrame = 2

	// copyAllocatorCount bounds concurrent capture recordings.
	copyAllocatorCount = 3

	// readBackBufferCount bounds in-flight capture copies.
	readBackBufferCount = 3
)

// Config describes a renderer at creation time.
type Config struct {
	// Resolution is the off-screen render resolution.
	Resolution image.Point

	// WindowSize is the swap-chain size; Resolution when zero.
	WindowSize image.Point

	// BufferCount is the number of swap-chain buffers (default 2).
	BufferCount int

	// MaxFrameLatency bounds queued-ahead frames (default 1).
	MaxFrameLatency int

	// MaxFrameRate caps the render loop; 0 leaves it uncapped.
	MaxFrameRate int

	// DPI is the UI scale basis (default 96).
	DPI float64
}

func (c *Config) fill() error {
	if c.Resolution.X <= 0 || c.Resolution.Y <= 0 {
		return fmt.Errorf("shaderbox: invalid resolution %v", c.Resolution)
	}
	if c.WindowSize == (image.Point{}) {
		c.WindowSize = c.Resolution
	}
	if c.BufferCount == 0 {
		c.BufferCount = 2
	}
	if c.MaxFrameLatency == 0 {
		c.MaxFrameLatency = 1
	}
	return nil
}

// copyAllocator is a pooled allocator for capture recordings. Its
// predicate gate is the signal of the last submission that recorded
// through it.
type copyAllocator struct {
	alloc *hal.Allocator
	list  *hal.List

	mu  sync.Mutex
	sig hal.Signal
}

func (a *copyAllocator) ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sig.IsCompleted()
}

// Changed wakes pool waiters when the pending signal completes.
func (a *copyAllocator) Changed() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sig.Done()
}

func (a *copyAllocator) setSignal(sig hal.Signal) {
	a.mu.Lock()
	a.sig = sig
	a.mu.Unlock()
}

// captureBuffer is a pooled staging buffer plus the signal of its last
// copy.
type captureBuffer struct {
	buf hal.ReadbackBuffer

	mu  sync.Mutex
	sig hal.Signal
}

func (b *captureBuffer) ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sig.IsCompleted()
}

// Changed wakes pool waiters when the pending copy completes.
func (b *captureBuffer) Changed() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sig.Done()
}

func (b *captureBuffer) setSignal(sig hal.Signal) {
	b.mu.Lock()
	b.sig = sig
	b.mu.Unlock()
}

// Renderer orchestrates the per-frame submission dance: draw the bound
// pixel shader off screen, composite it and the UI overlay onto the
// back buffer, present, and feed the capture pipeline.
//
// Renderer methods are called from one render loop goroutine; the video
// worker interacts only through the pools and the request channel.
type Renderer struct {
	dev hal.Device

	swapChain    hal.SwapChain
	presentQueue *hal.PresentableQueue
	copyQueue    *hal.Queue

	renderTargets *hal.RenderTargetBuffers
	allocators    []*hal.Allocator
	mainList      *hal.List
	uiList        *hal.List

	signals    *hal.Signals
	copyAllocs *hal.Pool[*copyAllocator]
	readbacks  *hal.Pool[*captureBuffer]

	ui        *overlay.Overlay
	uiFactory *overlay.Factory

	mu        sync.Mutex
	plane     hal.Plane
	frameTick *time.Ticker
	video     *videoSession
	closed    bool
}

// New assembles a renderer on dev. The device must outlive the
// renderer; Close does not close it.
func New(dev hal.Device, cfg Config) (*Renderer, error) {
	if err := cfg.fill(); err != nil {
		return nil, err
	}

	swapChain, presentQueue, err := dev.NewSwapChain(hal.SwapChainConfig{
		Name:            "swapchain",
		Size:            cfg.WindowSize,
		BufferCount:     cfg.BufferCount,
		MaxFrameLatency: cfg.MaxFrameLatency,
	})
	if err != nil {
		return nil, err
	}
	copyQueue, err := dev.NewQueue("copy", hal.KindCopy)
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		dev:          dev,
		swapChain:    swapChain,
		presentQueue: presentQueue,
		copyQueue:    copyQueue,
		mainList:     hal.NewList("main", hal.KindDirect),
		uiList:       hal.NewList("ui", hal.KindDirect),
		signals:      hal.NewSignals(cfg.BufferCount),
		plane:        hal.FullPlane(),
		uiFactory:    overlay.NewFactory(cfg.DPI),
	}

	if err := r.createFrameResources(cfg.Resolution, cfg.BufferCount); err != nil {
		return nil, err
	}

	r.ui, err = overlay.New(dev, "overlay", cfg.WindowSize, cfg.BufferCount, r.uiFactory)
	if err != nil {
		return nil, err
	}

	r.setFrameRate(cfg.MaxFrameRate)

	Logger().Info("renderer created",
		"device", dev.Name(),
		"resolution", cfg.Resolution,
		"buffers", cfg.BufferCount,
		"max_frame_latency", cfg.MaxFrameLatency)
	return r, nil
}

// createFrameResources builds everything sized by resolution or buffer
// count: the off-screen targets, allocators and capture pools.
func (r *Renderer) createFrameResources(resolution image.Point, bufferCount int) error {
	targets, err := hal.NewRenderTargetBuffers(r.dev, "render-target", resolution, bufferCount)
	if err != nil {
		return err
	}
	r.renderTargets = targets

	r.allocators = make([]*hal.Allocator, bufferCount*allocatorsPerFrame)
	for i := range r.allocators {
		r.allocators[i] = hal.NewAllocator(fmt.Sprintf("frame-alloc[%d]", i))
	}

	r.copyAllocs, err = hal.NewPool(copyAllocatorCount, func(i int) (*copyAllocator, error) {
		return &copyAllocator{
			alloc: hal.NewAllocator(fmt.Sprintf("copy-alloc[%d]", i)),
			list:  hal.NewList(fmt.Sprintf("copy-list[%d]", i), hal.KindCopy),
		}, nil
	})
	if err != nil {
		return err
	}

	r.readbacks, err = hal.NewPool(readBackBufferCount, func(i int) (*captureBuffer, error) {
		buf, err := r.dev.NewReadbackBuffer(fmt.Sprintf("read-back[%d]", i), resolution)
		if err != nil {
			return nil, err
		}
		return &captureBuffer{buf: buf}, nil
	})
	return err
}

func (r *Renderer) setFrameRate(maxFrameRate int) {
	if r.frameTick != nil {
		r.frameTick.Stop()
		r.frameTick = nil
	}
	if maxFrameRate > 0 {
		r.frameTick = time.NewTicker(time.Second / time.Duration(maxFrameRate))
	}
}

// Resolution returns the off-screen render resolution.
func (r *Renderer) Resolution() image.Point {
	return r.renderTargets.Size()
}

// UIFactory returns the drawing-context factory used for UI layers.
func (r *Renderer) UIFactory() *overlay.Factory {
	return r.uiFactory
}

// CreatePixelShaderPipeline builds a pipeline from a compiled blob.
func (r *Renderer) CreatePixelShaderPipeline(name string, blob *shader.Blob) (hal.Pipeline, error) {
	return r.dev.NewPipeline(name, blob)
}

// Render draws one frame. ps nil renders the clear color only; ui nil
// leaves the overlay transparent.
//
// A failed frame returns its error without presenting; the renderer
// stays usable and the next call attempts normally.
func (r *Renderer) Render(ctx context.Context, interval int, clearColor [4]float32, ps hal.Pipeline, params shader.Params, ui overlay.Drawable) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRendererClosed
	}
	tick := r.frameTick
	plane := r.plane
	session := r.video
	r.mu.Unlock()

	// 1. Frame-rate cap.
	if tick != nil {
		select {
		case <-tick.C:
		case <-ctx.Done():
			return fmt.Errorf("%w: frame pacing: %v", hal.ErrSyncWait, ctx.Err())
		}
	}

	// 2. Reuse gate: the slot's previous frame must be fully retired.
	index := r.swapChain.CurrentBuffer()
	if err := r.signals.Wait(ctx, index); err != nil {
		return err
	}

	target := r.renderTargets.Target(index)
	source := r.renderTargets.Source(index)
	back := r.swapChain.Target(index)
	uiSource := r.ui.Source(index)

	// 3. Pass A: shader into the off-screen target, then composite it
	// onto the back buffer.
	err := r.mainList.Record(r.allocators[index*allocatorsPerFrame], func(cmd *hal.DirectCmd) {
		if ps != nil {
			cmd.Barrier(target.Enter())
			cmd.Clear(target, clearColor)
			cmd.Draw(ps, params, target, hal.FullPlane())
			cmd.Barrier(target.Leave())
		}
		cmd.Barrier(source.Enter(), back.Enter())
		cmd.Clear(back, clearColor)
		cmd.Layer(source, back, plane)
	})
	if err != nil {
		return err
	}

	// 4. Submit pass A.
	mainSig, err := r.presentQueue.Execute(r.mainList)
	if err != nil {
		return err
	}

	// 5. Capture, when the pacing timer fired this frame.
	var copySig hal.Signal
	if session != nil && session.captureDue() {
		copySig, err = r.capture(ctx, index, mainSig, session)
		if err != nil {
			return err
		}
	}

	// 6. Pass B: UI overlay onto the back buffer, then everything back
	// to idle.
	err = r.uiList.Record(r.allocators[index*allocatorsPerFrame+1], func(cmd *hal.DirectCmd) {
		cmd.Barrier(uiSource.Enter())
		cmd.Layer(uiSource, back, hal.FullPlane())
		cmd.Barrier(source.Leave(), back.Leave(), uiSource.Leave())
	})
	if err != nil {
		return err
	}

	// 7. UI drawing on its own queue.
	uiSig, err := r.ui.Render(index, ui)
	if err != nil {
		return err
	}

	// 8. The graphics queue samples the UI texture only after the UI
	// queue signals it, and touches the off-screen target again only
	// after an in-flight capture copy has returned it. The frame signal
	// therefore also covers the copy, so a resize or recreate cannot
	// race it.
	if err := r.presentQueue.Wait(uiSig); err != nil {
		return err
	}
	if !copySig.IsZero() {
		if err := r.presentQueue.Wait(copySig); err != nil {
			return err
		}
	}
	if _, err := r.presentQueue.Execute(r.uiList); err != nil {
		return err
	}

	// 9. Present, unless it would queue beyond the frame-latency gate.
	var frameSig hal.Signal
	if r.swapChain.IsSignaled() {
		frameSig, err = r.presentQueue.Present(interval)
	} else {
		Logger().Warn("frame-latency gate shut, skipping present", "index", index)
		frameSig, err = r.presentQueue.Signal()
	}
	if err != nil {
		return err
	}

	// 10. Arm the reuse gate for this slot.
	r.signals.Set(index, frameSig)
	return nil
}

// capture records and submits the copy of the current off-screen target
// into a pooled staging buffer and hands it to the video worker.
func (r *Renderer) capture(ctx context.Context, index int, mainSig hal.Signal, session *videoSession) (hal.Signal, error) {
	allocLease, err := r.copyAllocs.PopIf(ctx, (*copyAllocator).ready)
	if err != nil {
		return hal.Signal{}, err
	}
	bufLease, err := r.readbacks.PopIf(ctx, (*captureBuffer).ready)
	if err != nil {
		allocLease.Release()
		return hal.Signal{}, err
	}

	ca := allocLease.Value()
	cb := bufLease.Value()
	copyRes := r.renderTargets.CopyResource(index)

	// Pass A leaves the target bound as a shader resource for the rest
	// of the frame; the copy brackets around that state and pass B is
	// deferred until the copy signal.
	err = ca.list.RecordCopy(ca.alloc, func(cmd *hal.CopyCmd) {
		cmd.Barrier(copyRes.EnterFromShader())
		cmd.Copy(copyRes, cb.buf)
		cmd.Barrier(copyRes.LeaveToShader())
	})
	if err != nil {
		bufLease.Release()
		allocLease.Release()
		return hal.Signal{}, err
	}

	// The copy reads pass A's output; order via signal, never a lock.
	if err := r.copyQueue.Wait(mainSig); err != nil {
		bufLease.Release()
		allocLease.Release()
		return hal.Signal{}, err
	}
	copySig, err := r.copyQueue.Execute(ca.list)
	if err != nil {
		bufLease.Release()
		allocLease.Release()
		return hal.Signal{}, err
	}

	ca.setSignal(copySig)
	cb.setSignal(copySig)
	allocLease.Release()
	session.submit(bufLease, copySig)
	return copySig, nil
}

// ScreenShot copies the most recently submitted frame's off-screen
// target and returns it as a CPU image. It returns (nil, nil) when no
// frame has been rendered yet.
func (r *Renderer) ScreenShot(ctx context.Context) (*image.RGBA, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRendererClosed
	}
	r.mu.Unlock()

	index, frameSig, ok := r.signals.LastFrame()
	if !ok {
		return nil, nil
	}

	allocLease, err := r.copyAllocs.PopIf(ctx, (*copyAllocator).ready)
	if err != nil {
		return nil, err
	}
	defer allocLease.Release()
	bufLease, err := r.readbacks.PopIf(ctx, (*captureBuffer).ready)
	if err != nil {
		return nil, err
	}
	defer bufLease.Release()

	ca := allocLease.Value()
	cb := bufLease.Value()
	copyRes := r.renderTargets.CopyResource(index)

	err = ca.list.RecordCopy(ca.alloc, func(cmd *hal.CopyCmd) {
		cmd.Barrier(copyRes.Enter())
		cmd.Copy(copyRes, cb.buf)
		cmd.Barrier(copyRes.Leave())
	})
	if err != nil {
		return nil, err
	}

	if err := r.copyQueue.Wait(frameSig); err != nil {
		return nil, err
	}
	copySig, err := r.copyQueue.Execute(ca.list)
	if err != nil {
		return nil, err
	}
	ca.setSignal(copySig)
	cb.setSignal(copySig)

	if err := copySig.Wait(ctx); err != nil {
		return nil, err
	}
	return cb.buf.Image()
}

// StartVideo begins capturing to path at frameRate. endFrame stops the
// session automatically after that many encoded frames; 0 captures
// until StopVideo.
func (r *Renderer) StartVideo(path string, frameRate, bitRate int, endFrame uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRendererClosed
	}
	if r.video != nil {
		return fmt.Errorf("%w: %s", ErrVideoActive, r.video.path)
	}
	session, err := newVideoSession(path, r.renderTargets.Size(), frameRate, bitRate, endFrame)
	if err != nil {
		return err
	}
	r.video = session
	return nil
}

// StopVideo ends the capture session and finalizes the file.
func (r *Renderer) StopVideo() error {
	r.mu.Lock()
	session := r.video
	r.video = nil
	r.mu.Unlock()
	if session == nil {
		return nil
	}
	return session.stop()
}

// IsWritingVideo reports whether a capture session is active and still
// encoding.
func (r *Renderer) IsWritingVideo() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.video != nil && !r.video.finished.Load()
}

// WaitAllSignals drains every in-flight frame. It is the hard barrier
// before resize, recreate and teardown.
func (r *Renderer) WaitAllSignals(ctx context.Context) error {
	return r.signals.WaitAll(ctx)
}

// Resize adapts the swap chain and UI layer to a new window size. The
// off-screen resolution and the adjusted plane are unchanged.
func (r *Renderer) Resize(ctx context.Context, size image.Point) error {
	if err := r.WaitAllSignals(ctx); err != nil {
		return err
	}
	if err := r.swapChain.Resize(0, size); err != nil {
		return err
	}
	return r.ui.Resize(0, size)
}

// Restore resizes and resets the composite plane to cover the window.
func (r *Renderer) Restore(ctx context.Context, size image.Point) error {
	if err := r.Resize(ctx, size); err != nil {
		return err
	}
	r.mu.Lock()
	r.plane = hal.FullPlane()
	r.mu.Unlock()
	return nil
}

// Maximize resizes and letterboxes the off-screen resolution into the
// window, preserving aspect ratio.
func (r *Renderer) Maximize(ctx context.Context, size image.Point) error {
	if err := r.Resize(ctx, size); err != nil {
		return err
	}
	r.mu.Lock()
	r.plane = hal.FitPlane(size, r.renderTargets.Size())
	r.mu.Unlock()
	return nil
}

// ChangeDPI rescales subsequently drawn UI layers.
func (r *Renderer) ChangeDPI(dpi float64) {
	r.uiFactory.SetDPI(dpi)
}

// Recreate rebuilds every resolution- and buffer-sized resource. The
// bound pipeline is the caller's to recreate through compiler.
func (r *Renderer) Recreate(ctx context.Context, resolution image.Point, maxFrameRate int, swap SwapChainSettings) error {
	if err := r.WaitAllSignals(ctx); err != nil {
		return err
	}

	if swap.BufferCount == 0 {
		swap.BufferCount = r.swapChain.Count()
	}
	if err := r.swapChain.Resize(swap.BufferCount, r.swapChain.Size()); err != nil {
		return err
	}
	if swap.MaxFrameLatency > 0 {
		if err := r.swapChain.SetMaxFrameLatency(swap.MaxFrameLatency); err != nil {
			return err
		}
	}

	r.copyAllocs.Close()
	r.readbacks.Close()
	if err := r.createFrameResources(resolution, swap.BufferCount); err != nil {
		return err
	}
	if err := r.ui.Resize(swap.BufferCount, r.swapChain.Size()); err != nil {
		return err
	}

	r.mu.Lock()
	r.signals = hal.NewSignals(swap.BufferCount)
	r.setFrameRate(maxFrameRate)
	r.mu.Unlock()

	Logger().Info("renderer recreated",
		"resolution", resolution,
		"buffers", swap.BufferCount,
		"max_frame_rate", maxFrameRate)
	return nil
}

// Close stops capture, drains all signals and releases the pools. The
// device itself stays open.
func (r *Renderer) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	session := r.video
	r.video = nil
	tick := r.frameTick
	r.mu.Unlock()

	var firstErr error
	if session != nil {
		firstErr = session.stop()
	}
	if tick != nil {
		tick.Stop()
	}
	if err := r.signals.WaitAll(context.Background()); err != nil && firstErr == nil {
		firstErr = err
	}
	r.copyAllocs.Close()
	r.readbacks.Close()
	return firstErr
}
