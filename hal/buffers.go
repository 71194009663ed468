// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"fmt"
	"image"
)

// RenderTargetBuffers are the N off-screen textures the pixel shader
// draws into. Each buffer is simultaneously usable as a render target
// (drawing), a shader resource (compositing) and a copy source (capture),
// one state at a time under the barrier contract.
type RenderTargetBuffers struct {
	textures []Texture
	size     image.Point
}

// NewRenderTargetBuffers creates count off-screen textures of the given
// size on dev.
func NewRenderTargetBuffers(dev Device, name string, size image.Point, count int) (*RenderTargetBuffers, error) {
	b := &RenderTargetBuffers{
		textures: make([]Texture, 0, count),
		size:     size,
	}
	for i := 0; i < count; i++ {
		tex, err := dev.NewTexture(fmt.Sprintf("%s[%d]", name, i), size)
		if err != nil {
			return nil, err
		}
		b.textures = append(b.textures, tex)
	}
	return b, nil
}

// Len returns the buffer count.
func (b *RenderTargetBuffers) Len() int { return len(b.textures) }

// Size returns the buffer resolution.
func (b *RenderTargetBuffers) Size() image.Point { return b.size }

// Target returns the render-target view of buffer index.
func (b *RenderTargetBuffers) Target(index int) RenderTarget {
	return RenderTarget{Texture: b.textures[index]}
}

// Source returns the shader-resource view of buffer index.
func (b *RenderTargetBuffers) Source(index int) ShaderSource {
	return ShaderSource{Texture: b.textures[index]}
}

// CopyResource returns the copy-source view of buffer index.
func (b *RenderTargetBuffers) CopyResource(index int) CopyResource {
	return CopyResource{Texture: b.textures[index]}
}
