package overlay

import (
	"image"
	"image/color"
	"strconv"
	"sync"
	"time"
)

// FrameCounter is a drawable showing the frame rate of the previous
// second. Update is called once per rendered frame.
type FrameCounter struct {
	mu    sync.Mutex
	count uint64
	shown uint64
	start time.Time
}

var _ Drawable = (*FrameCounter)(nil)

// NewFrameCounter creates a counter starting now.
func NewFrameCounter() *FrameCounter {
	return &FrameCounter{start: time.Now()}
}

// Reset clears the counter and restarts the measurement window.
func (f *FrameCounter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count = 0
	f.shown = 0
	f.start = time.Now()
}

// Update counts one frame. Once a second the displayed value flips to
// the accumulated count.
func (f *FrameCounter) Update() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if time.Since(f.start) >= time.Second {
		f.shown = f.count
		f.count = 0
		f.start = time.Now()
	} else {
		f.count++
	}
}

// Draw renders the counter in the top-left corner.
func (f *FrameCounter) Draw(dc *DrawContext) {
	f.mu.Lock()
	text := strconv.FormatUint(f.shown, 10)
	f.mu.Unlock()

	const marginX, marginY = 5, 3
	w := 7*len(text) + 2*marginX
	h := 13 + 2*marginY
	dc.FillRect(image.Rect(0, 0, w, h), color.RGBA{A: 160})
	dc.DrawText(marginX, marginY+11, text, color.RGBA{R: 255, G: 255, B: 255, A: 255})
}
