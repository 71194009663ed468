package overlay

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/shaderbox/hal"
)

// Overlay owns the per-buffer-index UI textures and the dedicated queue
// that signals their readiness. The graphics queue composites the
// texture of the current index after waiting on the overlay's signal.
type Overlay struct {
	dev     hal.Device
	queue   *hal.Queue
	factory *Factory

	mu       sync.Mutex
	name     string
	textures []hal.Texture
	size     image.Point
}

// New creates count UI textures of the given size and the overlay's own
// direct queue.
func New(dev hal.Device, name string, size image.Point, count int, factory *Factory) (*Overlay, error) {
	queue, err := dev.NewQueue(name+"::queue", hal.KindDirect)
	if err != nil {
		return nil, err
	}
	o := &Overlay{
		dev:     dev,
		queue:   queue,
		factory: factory,
		name:    name,
	}
	if err := o.createTextures(count, size); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Overlay) createTextures(count int, size image.Point) error {
	textures := make([]hal.Texture, count)
	for i := range textures {
		tex, err := o.dev.NewTexture(fmt.Sprintf("%s[%d]", o.name, i), size)
		if err != nil {
			return err
		}
		textures[i] = tex
	}
	o.textures = textures
	o.size = size
	return nil
}

// Count returns the number of per-index textures.
func (o *Overlay) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.textures)
}

// Source returns the sampling view of the texture at index.
func (o *Overlay) Source(index int) hal.ShaderSource {
	o.mu.Lock()
	defer o.mu.Unlock()
	return hal.ShaderSource{Texture: o.textures[index]}
}

// Render draws d into the texture at index and raises the overlay
// queue's signal. A nil drawable produces a fully transparent layer.
func (o *Overlay) Render(index int, d Drawable) (hal.Signal, error) {
	o.mu.Lock()
	tex := o.textures[index]
	size := o.size
	o.mu.Unlock()

	dc := o.factory.NewContext(size)
	if d != nil {
		d.Draw(dc)
	}
	if err := o.dev.WriteTexture(tex, dc.Image()); err != nil {
		return hal.Signal{}, err
	}
	return o.queue.Signal()
}

// Resize recreates the textures. The caller must have drained every
// signal that references them.
func (o *Overlay) Resize(count int, size image.Point) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if count == 0 {
		count = len(o.textures)
	}
	return o.createTextures(count, size)
}
