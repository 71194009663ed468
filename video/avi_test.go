// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package video

import (
	"encoding/binary"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func testFrame(size image.Point, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestAVIRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.avi")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	size := image.Pt(64, 48)
	const fps = 30
	const frames = 5
	avi, err := NewAVI(f, AVIConfig{Size: size, FrameRate: fps, BitRate: 1_500_000})
	if err != nil {
		t.Fatalf("NewAVI failed: %v", err)
	}

	for i := 0; i < frames; i++ {
		pts := uint64(i) * 10_000_000 / fps
		if err := avi.WriteFrame(testFrame(size, color.RGBA{R: uint8(40 * i), A: 255}), pts); err != nil {
			t.Fatalf("WriteFrame %d failed: %v", i, err)
		}
	}
	if avi.Frames() != frames {
		t.Errorf("Frames = %d, want %d", avi.Frames(), frames)
	}

	if err := avi.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "AVI " {
		t.Fatalf("bad container magic %q %q", data[0:4], data[8:12])
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); got != uint32(len(data)-8) {
		t.Errorf("RIFF size = %d, want %d", got, len(data)-8)
	}

	// avih dwTotalFrames sits 24 bytes into the file header layout:
	// RIFF(12) + LIST/hdrl(12) + avih chunk header(8) + 4 fields(16).
	totalFrames := binary.LittleEndian.Uint32(data[12+12+8+16:])
	if totalFrames != frames {
		t.Errorf("total frames = %d, want %d", totalFrames, frames)
	}

	// Count video chunks and index entries.
	chunks := 0
	for i := 0; i+4 <= len(data); {
		if string(data[i:i+4]) == "00dc" && i+8 <= len(data) {
			n := binary.LittleEndian.Uint32(data[i+4 : i+8])
			if n > 16 { // skip idx1 entries, which also begin with 00dc
				chunks++
				i += 8 + int(n+n%2)
				continue
			}
		}
		i++
	}
	if chunks != frames {
		t.Errorf("video chunks = %d, want %d", chunks, frames)
	}

	idx := -1
	for i := 0; i+4 <= len(data); i++ {
		if string(data[i:i+4]) == "idx1" {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.Fatal("idx1 not found")
	}
	if n := binary.LittleEndian.Uint32(data[idx+4:]); n != 16*frames {
		t.Errorf("idx1 size = %d, want %d", n, 16*frames)
	}
}

func TestAVIRejectsBadFrames(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.avi"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer f.Close()

	size := image.Pt(32, 32)
	avi, err := NewAVI(f, AVIConfig{Size: size, FrameRate: 30, BitRate: 1_500_000})
	if err != nil {
		t.Fatalf("NewAVI failed: %v", err)
	}

	if err := avi.WriteFrame(testFrame(image.Pt(16, 16), color.RGBA{}), 0); err == nil {
		t.Error("size mismatch accepted")
	}

	if err := avi.WriteFrame(testFrame(size, color.RGBA{}), 100); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if err := avi.WriteFrame(testFrame(size, color.RGBA{}), 100); err == nil {
		t.Error("non-increasing pts accepted")
	}

	if err := avi.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if err := avi.WriteFrame(testFrame(size, color.RGBA{}), 200); err == nil {
		t.Error("frame accepted after Finalize")
	}
}

func TestAVIInvalidConfig(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.avi"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer f.Close()

	if _, err := NewAVI(f, AVIConfig{Size: image.Pt(0, 0), FrameRate: 30}); err == nil {
		t.Error("zero size accepted")
	}
	if _, err := NewAVI(f, AVIConfig{Size: image.Pt(64, 64), FrameRate: 0}); err == nil {
		t.Error("zero frame rate accepted")
	}
}
