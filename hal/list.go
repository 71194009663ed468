// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"fmt"

	"github.com/gogpu/shaderbox/shader"
)

// ListKind selects the queue family a command list records for. Only two
// kinds exist; the set is closed.
type ListKind uint8

// Command list kinds.
const (
	// KindDirect records draw and composite work for a graphics queue.
	KindDirect ListKind = iota
	// KindCopy records memory-to-memory transfers for a copy queue.
	KindCopy
)

// String returns the kind name.
func (k ListKind) String() string {
	if k == KindCopy {
		return "copy"
	}
	return "direct"
}

// OpKind tags a recorded operation.
type OpKind uint8

// Recorded operation kinds.
const (
	OpBarrier OpKind = iota
	OpClear
	OpDraw
	OpLayer
	OpCopy
)

// Op is one recorded command. Which fields are meaningful depends on Kind;
// device backends interpret the sequence during submission.
type Op struct {
	Kind OpKind

	Barriers []Barrier

	Target   RenderTarget
	Color    [4]float32
	Pipeline Pipeline
	Params   shader.Params
	Source   ShaderSource
	Plane    Plane

	CopySrc CopyResource
	CopyDst ReadbackBuffer
}

// Allocator backs the recording of command lists. Each recording session
// resets it; it must not be reset while a previously submitted list that
// recorded into it is still executing. The engine guarantees this with
// per-buffer-index allocator sets.
type Allocator struct {
	name string
	ops  []Op
}

// NewAllocator creates a named allocator.
func NewAllocator(name string) *Allocator {
	return &Allocator{name: name}
}

// Name returns the debug name of the allocator.
func (a *Allocator) Name() string { return a.name }

func (a *Allocator) reset() {
	for i := range a.ops {
		a.ops[i] = Op{}
	}
	a.ops = a.ops[:0]
}

// List is a typed command list. Between Record calls it is closed and
// inert; Record resets the given allocator, runs the recording closure
// and closes the list again.
type List struct {
	name      string
	kind      ListKind
	recording bool
	ops       []Op
}

// NewList creates a closed command list of the given kind.
func NewList(name string, kind ListKind) *List {
	return &List{name: name, kind: kind}
}

// Name returns the debug name of the list.
func (l *List) Name() string { return l.name }

// Kind returns the list kind.
func (l *List) Kind() ListKind { return l.kind }

// Ops returns the operations recorded by the last session. Device
// backends call this during submission.
func (l *List) Ops() []Op { return l.ops }

// Record opens a direct recording session: the allocator is reset, f
// emits operations through the DirectCmd, and the list is closed when f
// returns.
func (l *List) Record(a *Allocator, f func(cmd *DirectCmd)) error {
	if l.kind != KindDirect {
		return fmt.Errorf("%w: recording direct ops on %s list %q", ErrListKind, l.kind, l.name)
	}
	if l.recording {
		return fmt.Errorf("%w: list %q already recording", ErrListClosed, l.name)
	}
	a.reset()
	l.recording = true
	f(&DirectCmd{alloc: a})
	l.ops = a.ops
	l.recording = false
	return nil
}

// RecordCopy opens a copy recording session, analogous to Record.
func (l *List) RecordCopy(a *Allocator, f func(cmd *CopyCmd)) error {
	if l.kind != KindCopy {
		return fmt.Errorf("%w: recording copy ops on %s list %q", ErrListKind, l.kind, l.name)
	}
	if l.recording {
		return fmt.Errorf("%w: list %q already recording", ErrListClosed, l.name)
	}
	a.reset()
	l.recording = true
	f(&CopyCmd{alloc: a})
	l.ops = a.ops
	l.recording = false
	return nil
}

// DirectCmd emits graphics operations inside a Record session.
type DirectCmd struct {
	alloc *Allocator
}

// Barrier records resource-state transitions.
func (c *DirectCmd) Barrier(barriers ...Barrier) {
	c.alloc.ops = append(c.alloc.ops, Op{Kind: OpBarrier, Barriers: barriers})
}

// Clear fills the target with a color. The target must be in
// StateRenderTarget.
func (c *DirectCmd) Clear(target RenderTarget, color [4]float32) {
	c.alloc.ops = append(c.alloc.ops, Op{Kind: OpClear, Target: target, Color: color})
}

// Draw runs the pixel-shader pipeline over the plane into target.
func (c *DirectCmd) Draw(pipeline Pipeline, params shader.Params, target RenderTarget, plane Plane) {
	c.alloc.ops = append(c.alloc.ops, Op{Kind: OpDraw, Pipeline: pipeline, Params: params, Target: target, Plane: plane})
}

// Layer composites src onto target over the plane with the fixed layer
// shader. src must be in StateShaderResource and target in
// StateRenderTarget.
func (c *DirectCmd) Layer(src ShaderSource, target RenderTarget, plane Plane) {
	c.alloc.ops = append(c.alloc.ops, Op{Kind: OpLayer, Source: src, Target: target, Plane: plane})
}

// CopyCmd emits copy operations inside a RecordCopy session.
type CopyCmd struct {
	alloc *Allocator
}

// Barrier records resource-state transitions.
func (c *CopyCmd) Barrier(barriers ...Barrier) {
	c.alloc.ops = append(c.alloc.ops, Op{Kind: OpBarrier, Barriers: barriers})
}

// Copy copies the full texture behind src into dst. src must be in
// StateCopySource.
func (c *CopyCmd) Copy(src CopyResource, dst ReadbackBuffer) {
	c.alloc.ops = append(c.alloc.ops, Op{Kind: OpCopy, CopySrc: src, CopyDst: dst})
}
