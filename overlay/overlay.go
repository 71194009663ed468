// Package overlay draws the 2D UI layer composited over each frame.
//
// Drawables render into a CPU image through a DrawContext; the Overlay
// uploads the result into a per-buffer-index texture and raises a signal
// on its own dedicated queue, so the graphics queue can wait for the UI
// without CPU blocking.
package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Drawable renders one UI layer.
type Drawable interface {
	Draw(dc *DrawContext)
}

// DrawFunc adapts a function to the Drawable interface.
type DrawFunc func(dc *DrawContext)

// Draw calls f.
func (f DrawFunc) Draw(dc *DrawContext) { f(dc) }

// Factory creates drawing contexts at the current DPI. It is the UI
// drawing entry point the renderer hands to the application.
type Factory struct {
	dpi float64
}

// NewFactory creates a factory. dpi 0 means the platform default of 96.
func NewFactory(dpi float64) *Factory {
	if dpi <= 0 {
		dpi = 96
	}
	return &Factory{dpi: dpi}
}

// SetDPI changes the DPI used by subsequently created contexts.
func (f *Factory) SetDPI(dpi float64) {
	if dpi > 0 {
		f.dpi = dpi
	}
}

// DPI returns the current DPI.
func (f *Factory) DPI() float64 { return f.dpi }

// NewContext creates a transparent drawing surface of the given pixel
// size.
func (f *Factory) NewContext(size image.Point) *DrawContext {
	return &DrawContext{
		img:   image.NewRGBA(image.Rect(0, 0, size.X, size.Y)),
		scale: f.dpi / 96,
	}
}

// DrawContext is an immediate-mode 2D surface. Coordinates are in
// device-independent pixels; the context scales them by the DPI.
type DrawContext struct {
	img   *image.RGBA
	scale float64
}

// Image returns the backing image.
func (c *DrawContext) Image() *image.RGBA { return c.img }

// Scale returns the DPI scale factor.
func (c *DrawContext) Scale() float64 { return c.scale }

// Size returns the surface size in pixels.
func (c *DrawContext) Size() image.Point { return c.img.Bounds().Size() }

func (c *DrawContext) px(v int) int {
	return int(float64(v)*c.scale + 0.5)
}

// Clear fills the whole surface.
func (c *DrawContext) Clear(col color.RGBA) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// FillRect fills a rectangle given in device-independent pixels.
func (c *DrawContext) FillRect(r image.Rectangle, col color.RGBA) {
	scaled := image.Rect(c.px(r.Min.X), c.px(r.Min.Y), c.px(r.Max.X), c.px(r.Max.Y))
	draw.Draw(c.img, scaled.Intersect(c.img.Bounds()), image.NewUniform(col), image.Point{}, draw.Over)
}

// DrawText draws s with its baseline at (x, y) device-independent
// pixels.
func (c *DrawContext) DrawText(x, y int, s string, col color.RGBA) {
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(c.px(x), c.px(y)),
	}
	d.DrawString(s)
}
