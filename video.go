package shaderbox

import (
	"fmt"
	"image"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/shaderbox/hal"
	"github.com/gogpu/shaderbox/video"
)

// captureRequest hands one staged frame to the video worker: the leased
// staging buffer and the copy signal that completes when its pixels are
// valid.
type captureRequest struct {
	lease *hal.Lease[*captureBuffer]
	sig   hal.Signal
}

// videoSession owns one capture worker. The render loop sends requests;
// the worker is the only receiver; closing the channel finalizes the
// sink. stop may be called from any goroutine, so the send and the
// close are serialized through mu.
type videoSession struct {
	path      string
	sink      video.Sink
	frameRate int
	endFrame  uint64

	requests chan captureRequest
	pacing   *time.Ticker
	finished atomic.Bool

	mu     sync.Mutex
	closed bool

	stopOnce  sync.Once
	done      chan struct{}
	finalized bool
	err       error
}

func newVideoSession(path string, size image.Point, frameRate, bitRate int, endFrame uint64) (*videoSession, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("shaderbox: creating video file: %w", err)
	}
	sink, err := video.NewAVI(f, video.AVIConfig{
		Size:      size,
		FrameRate: frameRate,
		BitRate:   bitRate,
	})
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}

	s := &videoSession{
		path:      path,
		sink:      sink,
		frameRate: frameRate,
		endFrame:  endFrame,
		requests:  make(chan captureRequest, readBackBufferCount),
		pacing:    time.NewTicker(time.Second / time.Duration(frameRate)),
		done:      make(chan struct{}),
	}
	go s.worker(f)
	return s, nil
}

// captureDue reports whether the pacing timer elapsed since the last
// capture. Frames arriving faster than the capture rate are dropped, not
// duplicated.
func (s *videoSession) captureDue() bool {
	if s.finished.Load() {
		return false
	}
	select {
	case <-s.pacing.C:
		return true
	default:
		return false
	}
}

// submit hands a staged frame to the worker. A frame staged after stop
// is returned to the pool unread.
func (s *videoSession) submit(lease *hal.Lease[*captureBuffer], sig hal.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		lease.Release()
		return
	}
	s.requests <- captureRequest{lease: lease, sig: sig}
}

func (s *videoSession) worker(f *os.File) {
	defer close(s.done)
	log := Logger()
	log.Info("video worker started", "path", s.path, "frame_rate", s.frameRate, "end_frame", s.endFrame)

	var frame uint64
	for req := range s.requests {
		<-req.sig.Done()

		if s.finished.Load() {
			// Past the end frame; drain without encoding.
			req.lease.Release()
			continue
		}

		img, err := req.lease.Value().buf.Image()
		req.lease.Release()
		if err != nil {
			log.Error("video frame readback failed", "frame", frame, "error", err)
			continue
		}

		pts := frame * 10_000_000 / uint64(s.frameRate)
		if err := s.sink.WriteFrame(img, pts); err != nil {
			log.Error("video frame encode failed", "frame", frame, "error", err)
			continue
		}
		frame++

		if s.endFrame > 0 && frame == s.endFrame {
			s.finished.Store(true)
			s.finalize(f)
			log.Info("video capture reached end frame", "frames", frame)
		}
	}

	s.finished.Store(true)
	s.finalize(f)
	log.Info("video worker stopped", "frames", frame)
}

// finalize runs once; a failure deletes the partial file. Called from
// the worker goroutine only.
func (s *videoSession) finalize(f *os.File) {
	if s.finalized {
		return
	}
	s.finalized = true
	if err := s.sink.Finalize(); err != nil {
		f.Close()
		os.Remove(s.path)
		s.err = fmt.Errorf("%w: %v", ErrEncodeFailed, err)
		return
	}
	if err := f.Close(); err != nil && s.err == nil {
		os.Remove(s.path)
		s.err = fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
}

// stop closes the request channel, joins the worker and returns the
// finalize result.
func (s *videoSession) stop() error {
	s.stopOnce.Do(func() {
		s.pacing.Stop()
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.requests)
	})
	<-s.done
	return s.err
}
