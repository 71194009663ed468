// Package shaderbox renders full-screen pixel shaders through a
// double-queued GPU submission engine.
//
// # Overview
//
// shaderbox owns the per-frame dance of a shader viewer: acquiring the
// next swap-chain buffer, drawing the bound pixel shader into an
// off-screen target, compositing it (and a UI overlay) onto the back
// buffer, presenting, and capturing frames for screenshots or video.
// All cross-queue ordering is expressed through fence signals; the CPU
// never blocks on the GPU outside explicit waits.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/shaderbox"
//		"github.com/gogpu/shaderbox/hal"
//		_ "github.com/gogpu/shaderbox/hal/soft"
//	)
//
//	dev, _ := hal.OpenDefault()
//	r, _ := shaderbox.New(dev, shaderbox.Config{
//		Resolution: image.Pt(640, 480),
//	})
//	defer r.Close()
//
//	ps, _ := r.CreatePixelShaderPipeline("fill", shader.Fill([4]float32{1, 0, 0, 1}))
//	r.Render(ctx, 1, [4]float32{0, 0, 0, 1}, ps, shader.Params{}, nil)
//
// # Architecture
//
// The library is organized into:
//   - Root: Renderer, the frame loop orchestrator, video capture, settings
//   - hal: device-independent submission engine (fences, queues, lists, pools)
//   - hal/soft: software device, hal/webgpu: GPU device over gogpu/wgpu
//   - shader: pixel-shader compilation, video: encoder sinks, overlay: UI layer
package shaderbox
