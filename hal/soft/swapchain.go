// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/shaderbox/hal"
)

// swapChain rotates CPU back buffers. The frame-latency gate is a token
// channel: Present consumes a token, the token returns when the present
// signal completes, and IsSignaled reports token availability.
type swapChain struct {
	name string

	mu       sync.Mutex
	textures []*texture
	size     image.Point
	current  int
	latency  int
	tokens   chan struct{}
}

var (
	_ hal.SwapChain = (*swapChain)(nil)
	_ hal.Presenter = (*swapChain)(nil)
)

func newSwapChain(cfg hal.SwapChainConfig) (*swapChain, error) {
	if cfg.BufferCount < 2 {
		return nil, fmt.Errorf("soft: swap chain %q needs at least 2 buffers, got %d", cfg.Name, cfg.BufferCount)
	}
	if cfg.MaxFrameLatency < 1 {
		return nil, fmt.Errorf("soft: swap chain %q needs frame latency >= 1, got %d", cfg.Name, cfg.MaxFrameLatency)
	}
	if cfg.Size.X <= 0 || cfg.Size.Y <= 0 {
		return nil, fmt.Errorf("soft: swap chain %q has invalid size %v", cfg.Name, cfg.Size)
	}
	sc := &swapChain{
		name:    cfg.Name,
		size:    cfg.Size,
		latency: cfg.MaxFrameLatency,
	}
	sc.createBuffers(cfg.BufferCount, cfg.Size)
	sc.refillTokens(cfg.MaxFrameLatency)
	return sc, nil
}

func (sc *swapChain) createBuffers(count int, size image.Point) {
	sc.textures = make([]*texture, count)
	for i := range sc.textures {
		sc.textures[i] = newTexture(fmt.Sprintf("%s[%d]", sc.name, i), size)
	}
	sc.size = size
	sc.current = 0
}

func (sc *swapChain) refillTokens(n int) {
	sc.tokens = make(chan struct{}, n)
	for i := 0; i < n; i++ {
		sc.tokens <- struct{}{}
	}
}

func (sc *swapChain) CurrentBuffer() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.current
}

func (sc *swapChain) Count() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.textures)
}

func (sc *swapChain) Size() image.Point {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.size
}

func (sc *swapChain) IsSignaled() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.tokens) > 0
}

func (sc *swapChain) Target(index int) hal.RenderTarget {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return hal.RenderTarget{Texture: sc.textures[index]}
}

// Resize recreates the back buffers. The caller must have drained every
// outstanding signal; any in-flight present token is forfeited here by
// rebuilding the gate full.
func (sc *swapChain) Resize(bufferCount int, size image.Point) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if size.X <= 0 || size.Y <= 0 {
		return fmt.Errorf("soft: swap chain %q resize to invalid size %v", sc.name, size)
	}
	if bufferCount == 0 {
		bufferCount = len(sc.textures)
	}
	if bufferCount < 2 {
		return fmt.Errorf("soft: swap chain %q resize to %d buffers", sc.name, bufferCount)
	}
	sc.createBuffers(bufferCount, size)
	sc.refillTokens(sc.latency)
	return nil
}

func (sc *swapChain) SetMaxFrameLatency(n int) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if n < 1 {
		return fmt.Errorf("soft: swap chain %q frame latency %d", sc.name, n)
	}
	sc.latency = n
	sc.refillTokens(n)
	return nil
}

// Present consumes a frame-latency token and flips to the next buffer.
// The engine checks IsSignaled before rendering, so the receive here
// normally never blocks.
func (sc *swapChain) Present(interval int) error {
	sc.mu.Lock()
	tokens := sc.tokens
	sc.mu.Unlock()

	<-tokens

	sc.mu.Lock()
	sc.current = (sc.current + 1) % len(sc.textures)
	sc.mu.Unlock()
	return nil
}

// Presented returns the token once the present signal completes.
func (sc *swapChain) Presented(sig hal.Signal) {
	sc.mu.Lock()
	tokens := sc.tokens
	sc.mu.Unlock()

	go func() {
		<-sig.Done()
		select {
		case tokens <- struct{}{}:
		default:
		}
	}()
}
