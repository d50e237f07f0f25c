// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package native

import (
	"fmt"
	"strings"

	"github.com/gogpu/cells"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Option configures Open.
type Option func(*options)

type options struct {
	backend     gputypes.Backend
	adapterName string
	limits      *gputypes.Limits
}

// WithBackend selects the hal backend. The backend package must be imported
// for registration, e.g. github.com/gogpu/wgpu/hal/vulkan. Default: Vulkan.
func WithBackend(b gputypes.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithAdapterName prefers the first adapter whose name contains name,
// case-insensitively.
func WithAdapterName(name string) Option {
	return func(o *options) { o.adapterName = name }
}

// WithRequiredLimits requests limits other than the WebGPU defaults.
func WithRequiredLimits(l gputypes.Limits) Option {
	return func(o *options) { o.limits = &l }
}

// Open creates a standalone hal instance and device.
//
// Adapter selection: a name match from WithAdapterName wins, otherwise the
// first discrete or integrated GPU, otherwise the first adapter.
func Open(opts ...Option) (*Device, error) {
	o := options{backend: gputypes.BackendVulkan}
	for _, opt := range opts {
		opt(&o)
	}

	backend, ok := hal.GetBackend(o.backend)
	if !ok {
		return nil, fmt.Errorf("%w: %v not registered", ErrBackendUnavailable, o.backend)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %v", ErrBackendUnavailable, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoGPU
	}
	selected := selectAdapter(adapters, o.adapterName)

	limits := gputypes.DefaultLimits()
	if o.limits != nil {
		limits = *o.limits
	}
	open, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device %q: %w", selected.Info.Name, mapError(err))
	}

	// The adapter may support more than requested; validate against what
	// it reports so limit checks reflect the real hardware.
	reported := selected.Capabilities.Limits
	if reported.MaxBufferSize == 0 {
		reported = limits
	}

	d := newDevice(open.Device, open.Queue, selected.Info.Name, reported)
	d.owned = true
	d.instance = instance

	cells.Logger().Info("native: device opened",
		"adapter", selected.Info.Name,
		"type", selected.Info.DeviceType,
		"backend", o.backend)
	return d, nil
}

func selectAdapter(adapters []hal.ExposedAdapter, name string) *hal.ExposedAdapter {
	if name != "" {
		want := strings.ToLower(name)
		for i := range adapters {
			if strings.Contains(strings.ToLower(adapters[i].Info.Name), want) {
				return &adapters[i]
			}
		}
		cells.Logger().Warn("native: no adapter matches, using default", "name", name)
	}
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			return &adapters[i]
		}
	}
	return &adapters[0]
}

// CreateSurface creates a window surface on the device's own instance. Only
// devices returned by Open have one. It is the entry point for embedders
// that own a raw window handle; the cells command draws through the gogpu
// host surface instead.
func (d *Device) CreateSurface(display, window uintptr) (*Surface, error) {
	if d.instance == nil {
		return nil, fmt.Errorf("native: device %q has no instance of its own", d.name)
	}
	surface, err := d.instance.CreateSurface(display, window)
	if err != nil {
		return nil, fmt.Errorf("native: create surface: %w", mapError(err))
	}
	return NewSurface(d, surface, true), nil
}
