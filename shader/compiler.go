// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"

	"github.com/gogpu/naga"
)

// WGSLCompiler compiles WGSL pixel shaders through naga. The zero value
// is ready to use.
type WGSLCompiler struct {
	// EntryPoint names the fragment entry, "fs_main" when empty.
	EntryPoint string

	// Eval, when set, is attached to every compiled blob so software
	// devices can execute it.
	Eval EvalFunc
}

var _ Compiler = (*WGSLCompiler)(nil)

// Compile compiles source into a pipeline blob. Oversized sources are
// rejected with ErrSourceTooLarge before reaching naga; naga diagnostics
// are wrapped in ErrCompile.
func (c *WGSLCompiler) Compile(name, source string) (*Blob, error) {
	if len(source) > MaxSourceSize {
		return nil, fmt.Errorf("%w: %q is %d bytes (max %d)", ErrSourceTooLarge, name, len(source), MaxSourceSize)
	}

	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrCompile, name, err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	return &Blob{
		Name:  name,
		WGSL:  source,
		SPIRV: spirvCode,
		Eval:  c.Eval,
	}, nil
}

// EvalCompiler builds CPU-only blobs for software devices; source never
// reaches a shader compiler. Eval must be non-nil.
type EvalCompiler struct {
	Eval EvalFunc
}

var _ Compiler = (*EvalCompiler)(nil)

// Compile wraps the evaluation function in a blob carrying source for
// reference only.
func (c *EvalCompiler) Compile(name, source string) (*Blob, error) {
	if len(source) > MaxSourceSize {
		return nil, fmt.Errorf("%w: %q is %d bytes (max %d)", ErrSourceTooLarge, name, len(source), MaxSourceSize)
	}
	if c.Eval == nil {
		return nil, fmt.Errorf("%w: %q: no evaluation function", ErrCompile, name)
	}
	return &Blob{Name: name, WGSL: source, Eval: c.Eval}, nil
}
