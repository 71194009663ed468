// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package webgpu is the GPU device over gogpu/wgpu. Pipeline creation
// compiles WGSL through naga and builds HAL shader modules; frame
// submission requires HAL buffer and render-target binding that the HAL
// does not expose yet and reports ErrNotSupported until it does.
package webgpu

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	wgpuhal "github.com/gogpu/wgpu/hal"

	"github.com/gogpu/shaderbox/hal"
	"github.com/gogpu/shaderbox/shader"
)

// ErrNotSupported is returned for operations the wgpu HAL cannot express
// yet.
var ErrNotSupported = errors.New("webgpu: not supported by the HAL yet")

func init() {
	hal.Register(hal.DriverWebGPU, func() (hal.Device, error) {
		return Open()
	})
}

var (
	providerMu sync.Mutex
	provider   gpucontext.DeviceProvider
)

// SetDeviceProvider installs the host's GPU context. The host window
// owns the instance, adapter and device; this package only borrows them.
func SetDeviceProvider(p gpucontext.DeviceProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}

// Device borrows the host's wgpu device for pipeline creation.
type Device struct {
	provider gpucontext.DeviceProvider
	device   wgpuhal.Device // nil when the provider device is not a HAL device

	mu        sync.Mutex
	pipelines []*pipeline
	closed    bool
}

var _ hal.Device = (*Device)(nil)

// Open wraps the installed device provider. It fails until
// SetDeviceProvider has been called by the host.
func Open() (*Device, error) {
	providerMu.Lock()
	p := provider
	providerMu.Unlock()
	if p == nil {
		return nil, fmt.Errorf("%w: no device provider installed", hal.ErrDeviceNotAvailable)
	}

	d := &Device{provider: p}
	if halDev, ok := p.Device().(wgpuhal.Device); ok {
		d.device = halDev
	}
	return d, nil
}

// Name returns the driver name.
func (d *Device) Name() string { return hal.DriverWebGPU }

// SurfaceFormat returns the host surface format.
func (d *Device) SurfaceFormat() gputypes.TextureFormat {
	return d.provider.SurfaceFormat()
}

// NewQueue is pending HAL command-queue exposure.
func (d *Device) NewQueue(name string, kind hal.ListKind) (*hal.Queue, error) {
	return nil, fmt.Errorf("%w: queue %q", ErrNotSupported, name)
}

// NewTexture is pending HAL render-target binding.
func (d *Device) NewTexture(name string, size image.Point) (hal.Texture, error) {
	return nil, fmt.Errorf("%w: texture %q", ErrNotSupported, name)
}

// NewReadbackBuffer is pending HAL buffer mapping.
func (d *Device) NewReadbackBuffer(name string, size image.Point) (hal.ReadbackBuffer, error) {
	return nil, fmt.Errorf("%w: readback buffer %q", ErrNotSupported, name)
}

// NewSwapChain is pending HAL surface integration.
func (d *Device) NewSwapChain(cfg hal.SwapChainConfig) (hal.SwapChain, *hal.PresentableQueue, error) {
	return nil, nil, fmt.Errorf("%w: swap chain %q", ErrNotSupported, cfg.Name)
}

// NewPipeline compiles the blob and creates its HAL shader module. The
// render pipeline itself is assembled at first draw, once the HAL
// exposes render passes.
func (d *Device) NewPipeline(name string, blob *shader.Blob) (hal.Pipeline, error) {
	if blob == nil {
		return nil, fmt.Errorf("webgpu: pipeline %q: nil blob", name)
	}
	if d.device == nil {
		return nil, fmt.Errorf("%w: pipeline %q: provider device is not a HAL device", ErrNotSupported, name)
	}

	spirv := blob.SPIRV
	if len(spirv) == 0 {
		compiled, err := (&shader.WGSLCompiler{}).Compile(name, blob.WGSL)
		if err != nil {
			return nil, err
		}
		spirv = compiled.SPIRV
	}

	module, err := d.device.CreateShaderModule(&wgpuhal.ShaderModuleDescriptor{
		Label: name,
		Source: wgpuhal.ShaderSource{
			SPIRV: spirv,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: pipeline %q: failed to create shader module: %w", name, err)
	}

	p := &pipeline{name: name, module: module, spirv: spirv}
	d.mu.Lock()
	d.pipelines = append(d.pipelines, p)
	d.mu.Unlock()
	return p, nil
}

// WriteTexture is pending HAL queue-write exposure.
func (d *Device) WriteTexture(tex hal.Texture, img *image.RGBA) error {
	return fmt.Errorf("%w: writing texture %q", ErrNotSupported, tex.Name())
}

// Close destroys the shader modules created through this device. The
// underlying device belongs to the host and is left alone.
func (d *Device) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	pipelines := d.pipelines
	d.pipelines = nil
	d.mu.Unlock()

	if d.device == nil {
		return
	}
	for _, p := range pipelines {
		if p.module != nil {
			d.device.DestroyShaderModule(p.module)
		}
	}
}

// pipeline holds the compiled module until render-pipeline assembly is
// possible.
type pipeline struct {
	name   string
	module wgpuhal.ShaderModule
	spirv  []uint32
}

var _ hal.Pipeline = (*pipeline)(nil)

func (p *pipeline) Name() string { return p.name }
