// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package video

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/jpeg"
	"io"
)

const (
	aviHeaderFlagHasIndex = 0x00000010
	aviIndexKeyFrame      = 0x00000010
)

// AVIConfig describes the stream of an AVI file.
type AVIConfig struct {
	Size      image.Point
	FrameRate int
	// BitRate is the target bit rate in bits per second; it selects the
	// JPEG quality level.
	BitRate int
}

// AVI writes a Motion-JPEG AVI. Frames are appended as compressed video
// chunks; Finalize writes the index and patches the header sizes.
type AVI struct {
	w   io.WriteSeeker
	cfg AVIConfig

	quality int
	frames  int
	lastPTS uint64
	started bool
	final   bool

	// Patch offsets recorded while writing the header.
	riffSizeOff    int64
	totalFramesOff int64
	lengthOff      int64
	moviSizeOff    int64
	moviStart      int64

	index []indexEntry
}

type indexEntry struct {
	offset uint32
	size   uint32
}

var _ Sink = (*AVI)(nil)

// NewAVI writes the container header and returns a sink ready for
// frames.
func NewAVI(w io.WriteSeeker, cfg AVIConfig) (*AVI, error) {
	if cfg.Size.X <= 0 || cfg.Size.Y <= 0 {
		return nil, fmt.Errorf("video: invalid frame size %v", cfg.Size)
	}
	if cfg.FrameRate <= 0 {
		return nil, fmt.Errorf("video: invalid frame rate %d", cfg.FrameRate)
	}
	a := &AVI{
		w:       w,
		cfg:     cfg,
		quality: bitRateQuality(cfg.BitRate),
	}
	if err := a.writeHeader(); err != nil {
		return nil, err
	}
	a.started = true
	return a, nil
}

// bitRateQuality maps a target bit rate to a JPEG quality level.
func bitRateQuality(bitRate int) int {
	switch {
	case bitRate <= 0:
		return 80
	case bitRate < 1_000_000:
		return 60
	case bitRate < 4_000_000:
		return 80
	default:
		return 92
	}
}

// WriteFrame encodes img and appends it as one video chunk. The pts must
// increase strictly; the container itself stores frames at the fixed
// configured rate.
func (a *AVI) WriteFrame(img *image.RGBA, pts uint64) error {
	if a.final {
		return fmt.Errorf("video: frame written after Finalize")
	}
	if !img.Bounds().Size().Eq(a.cfg.Size) {
		return fmt.Errorf("video: frame size %v, stream is %v", img.Bounds().Size(), a.cfg.Size)
	}
	if a.frames > 0 && pts <= a.lastPTS {
		return fmt.Errorf("video: pts %d not above previous %d", pts, a.lastPTS)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: a.quality}); err != nil {
		return fmt.Errorf("video: jpeg encode: %w", err)
	}

	pos, err := a.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	a.index = append(a.index, indexEntry{
		// Index offsets are relative to the 'movi' fourcc.
		offset: uint32(pos - a.moviStart),
		size:   uint32(buf.Len()),
	})

	if err := writeFourCC(a.w, "00dc"); err != nil {
		return err
	}
	if err := writeU32(a.w, uint32(buf.Len())); err != nil {
		return err
	}
	if _, err := a.w.Write(buf.Bytes()); err != nil {
		return err
	}
	if buf.Len()%2 == 1 {
		if _, err := a.w.Write([]byte{0}); err != nil {
			return err
		}
	}

	a.frames++
	a.lastPTS = pts
	return nil
}

// Frames returns the number of frames written so far.
func (a *AVI) Frames() int { return a.frames }

// Finalize writes the chunk index and patches the header sizes. The file
// is not playable before this completes.
func (a *AVI) Finalize() error {
	if a.final {
		return nil
	}
	a.final = true

	moviEnd, err := a.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	// idx1 after the movi list.
	if err := writeFourCC(a.w, "idx1"); err != nil {
		return err
	}
	if err := writeU32(a.w, uint32(16*len(a.index))); err != nil {
		return err
	}
	for _, e := range a.index {
		if err := writeFourCC(a.w, "00dc"); err != nil {
			return err
		}
		for _, v := range [...]uint32{aviIndexKeyFrame, e.offset, e.size} {
			if err := writeU32(a.w, v); err != nil {
				return err
			}
		}
	}

	end, err := a.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	patches := []struct {
		off   int64
		value uint32
	}{
		{a.riffSizeOff, uint32(end - 8)},
		{a.totalFramesOff, uint32(a.frames)},
		{a.lengthOff, uint32(a.frames)},
		{a.moviSizeOff, uint32(moviEnd - a.moviStart)},
	}
	for _, p := range patches {
		if _, err := a.w.Seek(p.off, io.SeekStart); err != nil {
			return err
		}
		if err := writeU32(a.w, p.value); err != nil {
			return err
		}
	}
	_, err = a.w.Seek(end, io.SeekStart)
	return err
}

func (a *AVI) writeHeader() error {
	w, h := a.cfg.Size.X, a.cfg.Size.Y
	suggested := uint32(w * h * 3)

	if err := writeFourCC(a.w, "RIFF"); err != nil {
		return err
	}
	var err error
	if a.riffSizeOff, err = a.w.Seek(0, io.SeekCurrent); err != nil {
		return err
	}
	if err := writeU32(a.w, 0); err != nil {
		return err
	}
	if err := writeFourCC(a.w, "AVI "); err != nil {
		return err
	}

	// LIST hdrl: avih + LIST strl (strh + strf).
	const avihSize = 56
	const strhSize = 56
	const strfSize = 40
	strlSize := 4 + (8 + strhSize) + (8 + strfSize)
	hdrlSize := 4 + (8 + avihSize) + (8 + strlSize)

	if err := writeFourCC(a.w, "LIST"); err != nil {
		return err
	}
	if err := writeU32(a.w, uint32(hdrlSize)); err != nil {
		return err
	}
	if err := writeFourCC(a.w, "hdrl"); err != nil {
		return err
	}

	// avih (MainAVIHeader).
	if err := writeFourCC(a.w, "avih"); err != nil {
		return err
	}
	if err := writeU32(a.w, avihSize); err != nil {
		return err
	}
	if err := writeU32(a.w, uint32(1_000_000/a.cfg.FrameRate)); err != nil {
		return err
	}
	if err := writeU32(a.w, uint32(a.cfg.BitRate/8)); err != nil {
		return err
	}
	if err := writeU32(a.w, 0); err != nil { // padding granularity
		return err
	}
	if err := writeU32(a.w, aviHeaderFlagHasIndex); err != nil {
		return err
	}
	if a.totalFramesOff, err = a.w.Seek(0, io.SeekCurrent); err != nil {
		return err
	}
	for _, v := range [...]uint32{0, 0, 1, suggested, uint32(w), uint32(h), 0, 0, 0, 0} {
		// total frames, initial frames, streams, buffer, width, height,
		// reserved[4]
		if err := writeU32(a.w, v); err != nil {
			return err
		}
	}

	// LIST strl.
	if err := writeFourCC(a.w, "LIST"); err != nil {
		return err
	}
	if err := writeU32(a.w, uint32(strlSize)); err != nil {
		return err
	}
	if err := writeFourCC(a.w, "strl"); err != nil {
		return err
	}

	// strh (AVIStreamHeader).
	if err := writeFourCC(a.w, "strh"); err != nil {
		return err
	}
	if err := writeU32(a.w, strhSize); err != nil {
		return err
	}
	if err := writeFourCC(a.w, "vids"); err != nil {
		return err
	}
	if err := writeFourCC(a.w, "MJPG"); err != nil {
		return err
	}
	for _, v := range [...]uint32{0, 0, 0, 1, uint32(a.cfg.FrameRate), 0} {
		// flags, priority+language, initial frames, scale, rate, start
		if err := writeU32(a.w, v); err != nil {
			return err
		}
	}
	if a.lengthOff, err = a.w.Seek(0, io.SeekCurrent); err != nil {
		return err
	}
	for _, v := range [...]uint32{0, suggested, 0xFFFFFFFF, 0} {
		// length, buffer, quality, sample size
		if err := writeU32(a.w, v); err != nil {
			return err
		}
	}
	// rcFrame as four int16.
	if err := writeU32(a.w, 0); err != nil {
		return err
	}
	if err := binary.Write(a.w, binary.LittleEndian, [2]int16{int16(w), int16(h)}); err != nil {
		return err
	}

	// strf (BITMAPINFOHEADER).
	if err := writeFourCC(a.w, "strf"); err != nil {
		return err
	}
	if err := writeU32(a.w, strfSize); err != nil {
		return err
	}
	if err := writeU32(a.w, strfSize); err != nil { // biSize
		return err
	}
	if err := binary.Write(a.w, binary.LittleEndian, [2]int32{int32(w), int32(h)}); err != nil {
		return err
	}
	if err := binary.Write(a.w, binary.LittleEndian, [2]uint16{1, 24}); err != nil {
		// planes, bit count
		return err
	}
	if err := writeFourCC(a.w, "MJPG"); err != nil {
		return err
	}
	for _, v := range [...]uint32{suggested, 0, 0, 0, 0} {
		// image size, ppm x/y, colors used/important
		if err := writeU32(a.w, v); err != nil {
			return err
		}
	}

	// LIST movi stays open until Finalize.
	if err := writeFourCC(a.w, "LIST"); err != nil {
		return err
	}
	if a.moviSizeOff, err = a.w.Seek(0, io.SeekCurrent); err != nil {
		return err
	}
	if err := writeU32(a.w, 0); err != nil {
		return err
	}
	if a.moviStart, err = a.w.Seek(0, io.SeekCurrent); err != nil {
		return err
	}
	return writeFourCC(a.w, "movi")
}

func writeFourCC(w io.Writer, cc string) error {
	_, err := io.WriteString(w, cc)
	return err
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}
