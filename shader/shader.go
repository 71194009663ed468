// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader compiles pixel-shader source into pipeline blobs.
//
// A Blob carries everything a device needs to build a pipeline: the WGSL
// source, the SPIR-V produced by naga where compilation succeeded, and a
// CPU evaluation function for software devices.
package shader

import (
	"errors"
	"fmt"
)

// Errors returned by compilation.
var (
	// ErrCompile wraps a shader compilation failure. The wrapped message
	// carries the compiler diagnostics.
	ErrCompile = errors.New("shader: compile failed")

	// ErrSourceTooLarge is returned when the source exceeds MaxSourceSize.
	ErrSourceTooLarge = errors.New("shader: source too large")
)

// MaxSourceSize bounds accepted shader source, in bytes.
const MaxSourceSize = 1 << 20

// Params are the per-draw constants handed to the pixel shader. The
// layout mirrors the root constants of the draw call: resolution and
// mouse in pixels, time in seconds.
type Params struct {
	Resolution [2]float32
	Mouse      [2]float32
	Time       float32
}

// EvalFunc evaluates a pixel shader on the CPU for the given fragment
// coordinate. The returned color is RGBA in [0,1].
type EvalFunc func(p Params, x, y float32) [4]float32

// Blob is a compiled pixel shader ready for pipeline creation.
type Blob struct {
	// Name is the debug name used for the pipeline and in logs.
	Name string

	// WGSL is the shader source the blob was built from.
	WGSL string

	// SPIRV is the naga-compiled module, empty when the blob was built
	// for CPU evaluation only.
	SPIRV []uint32

	// Eval is the CPU fallback used by software devices. Nil for
	// GPU-only blobs.
	Eval EvalFunc
}

// Compiler turns shader source into a Blob or a structured compile error.
type Compiler interface {
	Compile(name, source string) (*Blob, error)
}

// Fill returns a blob that outputs a single color at every fragment.
// It is the canonical smoke-test shader.
func Fill(color [4]float32) *Blob {
	return &Blob{
		Name: "fill",
		WGSL: fmt.Sprintf(`@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(%g, %g, %g, %g);
}
`, color[0], color[1], color[2], color[3]),
		Eval: func(Params, float32, float32) [4]float32 {
			return color
		},
	}
}
