// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"image"

	"github.com/chewxy/math32"
)

// Plane is the full-screen quad a draw or layer operation rasterizes.
// Scale shrinks the quad around the center of the target; a 1:1 plane
// covers the whole target.
type Plane struct {
	ScaleX float32
	ScaleY float32
}

// FullPlane returns the plane covering the entire target.
func FullPlane() Plane {
	return Plane{ScaleX: 1, ScaleY: 1}
}

// FitPlane returns the plane that letterboxes content of the given
// resolution into a window, preserving aspect ratio.
func FitPlane(window, resolution image.Point) Plane {
	if window.X <= 0 || window.Y <= 0 || resolution.X <= 0 || resolution.Y <= 0 {
		return FullPlane()
	}
	aspectWindow := float32(window.X) / float32(window.Y)
	aspectContent := float32(resolution.X) / float32(resolution.Y)
	if aspectContent > aspectWindow {
		return Plane{ScaleX: 1, ScaleY: aspectWindow / aspectContent}
	}
	return Plane{ScaleX: aspectContent / aspectWindow, ScaleY: 1}
}

// Rect returns the destination rectangle of the plane centered in a
// target of the given size.
func (p Plane) Rect(size image.Point) image.Rectangle {
	w := int(math32.Round(p.ScaleX * float32(size.X)))
	h := int(math32.Round(p.ScaleY * float32(size.Y)))
	x0 := (size.X - w) / 2
	y0 := (size.Y - h) / 2
	return image.Rect(x0, y0, x0+w, y0+h)
}

// IsFull reports whether the plane covers the whole target.
func (p Plane) IsFull() bool {
	return p.ScaleX == 1 && p.ScaleY == 1
}
