// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/shaderbox/hal"
	"github.com/gogpu/shaderbox/shader"
)

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

// mockQueue implements gpucontext.Queue for testing.
type mockQueue struct{}

// mockAdapter implements gpucontext.Adapter for testing.
type mockAdapter struct{}

// mockProvider implements gpucontext.DeviceProvider for testing.
type mockProvider struct{}

func (m *mockProvider) Device() gpucontext.Device             { return &mockDevice{} }
func (m *mockProvider) Queue() gpucontext.Queue               { return &mockQueue{} }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return &mockAdapter{} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (m *mockProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "mock", Type: gpucontext.AdapterTypeSoftware}
}

var _ gpucontext.DeviceProvider = (*mockProvider)(nil)

func TestOpenWithoutProvider(t *testing.T) {
	SetDeviceProvider(nil)
	if _, err := Open(); !errors.Is(err, hal.ErrDeviceNotAvailable) {
		t.Errorf("Open = %v, want ErrDeviceNotAvailable", err)
	}
}

func TestOpenWithProvider(t *testing.T) {
	SetDeviceProvider(&mockProvider{})
	defer SetDeviceProvider(nil)

	dev, err := Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer dev.Close()

	if dev.Name() != hal.DriverWebGPU {
		t.Errorf("Name = %q, want %q", dev.Name(), hal.DriverWebGPU)
	}
	if dev.SurfaceFormat() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("SurfaceFormat = %v", dev.SurfaceFormat())
	}
}

func TestUnsupportedOperations(t *testing.T) {
	SetDeviceProvider(&mockProvider{})
	defer SetDeviceProvider(nil)

	dev, err := Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer dev.Close()

	if _, err := dev.NewQueue("gfx", hal.KindDirect); !errors.Is(err, ErrNotSupported) {
		t.Errorf("NewQueue = %v, want ErrNotSupported", err)
	}
	if _, err := dev.NewTexture("rt", image.Pt(64, 64)); !errors.Is(err, ErrNotSupported) {
		t.Errorf("NewTexture = %v, want ErrNotSupported", err)
	}
	if _, err := dev.NewReadbackBuffer("rb", image.Pt(64, 64)); !errors.Is(err, ErrNotSupported) {
		t.Errorf("NewReadbackBuffer = %v, want ErrNotSupported", err)
	}
	if _, _, err := dev.NewSwapChain(hal.SwapChainConfig{Name: "swap"}); !errors.Is(err, ErrNotSupported) {
		t.Errorf("NewSwapChain = %v, want ErrNotSupported", err)
	}

	// The mock provider's device is not a HAL device, so pipeline
	// creation cannot build a shader module either.
	if _, err := dev.NewPipeline("fill", shader.Fill([4]float32{1, 0, 0, 1})); !errors.Is(err, ErrNotSupported) {
		t.Errorf("NewPipeline = %v, want ErrNotSupported", err)
	}
}
