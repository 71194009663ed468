// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package hal contains the frame-submission engine: fences and signals,
// command queues, command-list recording, the resource-state contract,
// swap chains and fixed-size resource pools.
//
// The package is device-independent. A Device implementation (see
// hal/soft for the software device and hal/webgpu for the GPU device)
// supplies queue execution, textures, readback buffers and swap chains;
// everything above that line — ordering, signaling, pooling, recording —
// lives here.
//
// Cross-queue ordering is expressed only through Signal values raised by
// one queue and waited on by another. The engine never takes a lock to
// order GPU work.
package hal
