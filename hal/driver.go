// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"sync"
)

// Known driver names.
const (
	DriverWebGPU = "webgpu"
	DriverSoft   = "soft"
)

// DriverFactory opens a new device instance.
type DriverFactory func() (Device, error)

// registry holds registered drivers.
var (
	registryMu sync.RWMutex
	drivers    = make(map[string]DriverFactory)
	// Priority order for driver selection (first available wins).
	// WebGPU > Software (software is the fallback).
	driverPriority = []string{DriverWebGPU, DriverSoft}
)

// Register registers a driver factory with the given name.
// This is typically called from init() functions in driver packages.
// If a driver with the same name is already registered, it will be replaced.
func Register(name string, factory DriverFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	drivers[name] = factory
}

// Unregister removes a driver from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(drivers, name)
}

// Available returns a list of registered driver names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	return names
}

// IsRegistered checks if a driver with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := drivers[name]
	return ok
}

// Open opens a device by driver name.
// Returns ErrDeviceNotAvailable if the driver is not registered.
func Open(name string) (Device, error) {
	registryMu.RLock()
	factory, ok := drivers[name]
	registryMu.RUnlock()
	if !ok {
		return nil, ErrDeviceNotAvailable
	}
	return factory()
}

// OpenDefault opens the best available device based on priority.
// Priority order: webgpu > soft.
// Returns ErrDeviceNotAvailable if no driver can open a device.
func OpenDefault() (Device, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range driverPriority {
		if factory, ok := drivers[name]; ok {
			if dev, err := factory(); err == nil {
				return dev, nil
			}
		}
	}

	// Fallback: first driver that opens.
	for _, factory := range drivers {
		if dev, err := factory(); err == nil {
			return dev, nil
		}
	}

	return nil, ErrDeviceNotAvailable
}
