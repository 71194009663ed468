// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"errors"
	"image"
	"testing"
)

func TestRecordDirect(t *testing.T) {
	list := NewList("frame", KindDirect)
	alloc := NewAllocator("frame-alloc")

	err := list.Record(alloc, func(cmd *DirectCmd) {
		cmd.Barrier(Barrier{Before: StateCommon, After: StateRenderTarget})
		cmd.Clear(RenderTarget{}, [4]float32{1, 0, 0, 1})
		cmd.Barrier(Barrier{Before: StateRenderTarget, After: StateCommon})
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	ops := list.Ops()
	if len(ops) != 3 {
		t.Fatalf("recorded %d ops, want 3", len(ops))
	}
	wantKinds := []OpKind{OpBarrier, OpClear, OpBarrier}
	for i, op := range ops {
		if op.Kind != wantKinds[i] {
			t.Errorf("op[%d].Kind = %d, want %d", i, op.Kind, wantKinds[i])
		}
	}
	if ops[1].Color != [4]float32{1, 0, 0, 1} {
		t.Errorf("clear color = %v", ops[1].Color)
	}
}

func TestRecordResetsAllocator(t *testing.T) {
	list := NewList("frame", KindDirect)
	alloc := NewAllocator("frame-alloc")

	for i := 0; i < 2; i++ {
		if err := list.Record(alloc, func(cmd *DirectCmd) {
			cmd.Clear(RenderTarget{}, [4]float32{})
		}); err != nil {
			t.Fatalf("Record %d failed: %v", i, err)
		}
	}
	if got := len(list.Ops()); got != 1 {
		t.Errorf("ops after two sessions = %d, want 1 (allocator reset)", got)
	}
}

func TestRecordKindMismatch(t *testing.T) {
	alloc := NewAllocator("a")

	copyList := NewList("copy", KindCopy)
	if err := copyList.Record(alloc, func(*DirectCmd) {}); !errors.Is(err, ErrListKind) {
		t.Errorf("Record on copy list = %v, want ErrListKind", err)
	}

	directList := NewList("direct", KindDirect)
	if err := directList.RecordCopy(alloc, func(*CopyCmd) {}); !errors.Is(err, ErrListKind) {
		t.Errorf("RecordCopy on direct list = %v, want ErrListKind", err)
	}
}

func TestRecordReentry(t *testing.T) {
	list := NewList("frame", KindDirect)
	outer := NewAllocator("outer")
	inner := NewAllocator("inner")

	var nested error
	if err := list.Record(outer, func(cmd *DirectCmd) {
		nested = list.Record(inner, func(*DirectCmd) {})
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if !errors.Is(nested, ErrListClosed) {
		t.Errorf("nested Record = %v, want ErrListClosed", nested)
	}
}

func TestPlaneFit(t *testing.T) {
	// Wide window, 4:3 content: letterbox horizontally.
	p := FitPlane(image.Pt(1600, 600), image.Pt(640, 480))
	if p.ScaleY != 1 {
		t.Errorf("ScaleY = %g, want 1", p.ScaleY)
	}
	if p.ScaleX >= 1 {
		t.Errorf("ScaleX = %g, want < 1", p.ScaleX)
	}

	// Matching aspect: full plane.
	if p := FitPlane(image.Pt(1280, 960), image.Pt(640, 480)); !p.IsFull() {
		t.Errorf("matching aspect plane = %+v, want full", p)
	}

	// Degenerate sizes fall back to full.
	if p := FitPlane(image.Pt(0, 0), image.Pt(640, 480)); !p.IsFull() {
		t.Errorf("degenerate window plane = %+v, want full", p)
	}
}

func TestPlaneRect(t *testing.T) {
	r := Plane{ScaleX: 0.5, ScaleY: 1}.Rect(image.Pt(800, 600))
	want := image.Rect(200, 0, 600, 600)
	if r != want {
		t.Errorf("Rect = %v, want %v", r, want)
	}

	if r := FullPlane().Rect(image.Pt(640, 480)); r != image.Rect(0, 0, 640, 480) {
		t.Errorf("full plane Rect = %v", r)
	}
}
