// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"image"

	"github.com/gogpu/gputypes"
)

// ResourceState is the usage state a GPU resource is in. Every resource
// rests in StateCommon between uses; a paired enter/leave barrier brackets
// each use-specific state.
type ResourceState uint8

// Resource states.
const (
	// StateCommon is the idle state between uses.
	StateCommon ResourceState = iota
	// StateRenderTarget allows drawing into the resource.
	StateRenderTarget
	// StateShaderResource allows sampling the resource from a shader.
	StateShaderResource
	// StateCopySource allows reading the resource in a copy.
	StateCopySource
	// StateCopyDest allows writing the resource in a copy.
	StateCopyDest
)

// String returns the state name for logs and errors.
func (s ResourceState) String() string {
	switch s {
	case StateCommon:
		return "common"
	case StateRenderTarget:
		return "render-target"
	case StateShaderResource:
		return "shader-resource"
	case StateCopySource:
		return "copy-source"
	case StateCopyDest:
		return "copy-dest"
	}
	return "unknown"
}

// Resource is any named GPU resource handle.
type Resource interface {
	Name() string
}

// Texture is a 2D GPU texture usable as a render target, a shader
// resource and a copy source.
type Texture interface {
	Resource
	Size() image.Point
	Format() gputypes.TextureFormat
}

// ReadbackBuffer is a CPU-visible staging buffer that GPU copies land in.
// It is created in StateCopyDest and stays there for its whole life.
type ReadbackBuffer interface {
	Resource
	Size() image.Point
	// Image converts the buffer contents to a CPU image. Callers must
	// only invoke it after the copy's signal has completed.
	Image() (*image.RGBA, error)
}

// Pipeline is a compiled pixel-shader pipeline state.
type Pipeline interface {
	Name() string
}

// Barrier declares a transition of one resource between two states.
type Barrier struct {
	Resource Resource
	Before   ResourceState
	After    ResourceState
}

// RenderTarget is the drawing view of a texture. Enter and Leave produce
// the barrier pair that must bracket every use as a draw target.
type RenderTarget struct {
	Texture Texture
}

// Enter transitions the texture from common to render-target.
func (t RenderTarget) Enter() Barrier {
	return Barrier{Resource: t.Texture, Before: StateCommon, After: StateRenderTarget}
}

// Leave transitions the texture back to common.
func (t RenderTarget) Leave() Barrier {
	return Barrier{Resource: t.Texture, Before: StateRenderTarget, After: StateCommon}
}

// ShaderSource is the sampling view of a texture.
type ShaderSource struct {
	Texture Texture
}

// Enter transitions the texture from common to shader-resource.
func (s ShaderSource) Enter() Barrier {
	return Barrier{Resource: s.Texture, Before: StateCommon, After: StateShaderResource}
}

// Leave transitions the texture back to common.
func (s ShaderSource) Leave() Barrier {
	return Barrier{Resource: s.Texture, Before: StateShaderResource, After: StateCommon}
}

// CopyResource is the copy-source view of a texture.
type CopyResource struct {
	Texture Texture
}

// Enter transitions the texture from common to copy-source.
func (c CopyResource) Enter() Barrier {
	return Barrier{Resource: c.Texture, Before: StateCommon, After: StateCopySource}
}

// Leave transitions the texture back to common.
func (c CopyResource) Leave() Barrier {
	return Barrier{Resource: c.Texture, Before: StateCopySource, After: StateCommon}
}

// EnterFromShader transitions the texture from shader-resource to
// copy-source, for capture copies issued while the texture is still
// bound for compositing.
func (c CopyResource) EnterFromShader() Barrier {
	return Barrier{Resource: c.Texture, Before: StateShaderResource, After: StateCopySource}
}

// LeaveToShader transitions the texture back to shader-resource.
func (c CopyResource) LeaveToShader() Barrier {
	return Barrier{Resource: c.Texture, Before: StateCopySource, After: StateShaderResource}
}
