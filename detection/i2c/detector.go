// go-mifareprog
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-mifareprog.
//
// go-mifareprog is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-mifareprog is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-mifareprog; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package i2c finds I2C buses that may carry a PN532 or MFRC522 reader.
package i2c

import (
	"context"
	"fmt"

	"github.com/ZaparooProject/go-mifareprog/detection"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Well known 7-bit reader addresses
const (
	PN532Address   = 0x24
	MFRC522Address = 0x28
)

var readerAddresses = map[uint16]string{
	PN532Address:   "PN532",
	MFRC522Address: "MFRC522",
}

// busRef is the subset of a registered bus the detector needs
type busRef struct {
	open   func() (i2c.BusCloser, error)
	name   string
	number int
}

type detector struct {
	initHost func() error
	buses    func() []busRef
}

// New creates a detector backed by the periph.io bus registry
func New() detection.Detector {
	return &detector{
		initHost: func() error {
			_, err := host.Init()
			return err //nolint:wrapcheck // wrapped by caller
		},
		buses: registeredBuses,
	}
}

func init() {
	detection.RegisterDetector(New())
}

func registeredBuses() []busRef {
	refs := i2creg.All()
	out := make([]busRef, 0, len(refs))
	for _, ref := range refs {
		out = append(out, busRef{name: ref.Name, number: ref.Number, open: ref.Open})
	}
	return out
}

func (*detector) Transport() string {
	return "i2c"
}

// Detect lists I2C buses. In probe mode each bus is opened and only the
// reader addresses that acknowledge a one byte read are reported.
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	if err := d.initHost(); err != nil {
		return nil, fmt.Errorf("%w: %w", detection.ErrUnsupportedPlatform, err)
	}

	buses := d.buses()
	if len(buses) == 0 {
		return nil, detection.ErrNoDevicesFound
	}

	var devices []detection.DeviceInfo
	for _, bus := range buses {
		if err := ctx.Err(); err != nil {
			return devices, fmt.Errorf("%w: %w", detection.ErrDetectionTimeout, err)
		}
		if opts == nil || opts.Mode != detection.Probe {
			devices = append(devices, detection.DeviceInfo{
				Transport: "i2c",
				Path:      bus.name,
				Name:      fmt.Sprintf("I2C bus %d", bus.number),
			})
			continue
		}
		devices = append(devices, probeBus(bus)...)
	}
	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

func probeBus(ref busRef) []detection.DeviceInfo {
	bus, err := ref.open()
	if err != nil {
		return nil
	}
	defer func() { _ = bus.Close() }()

	var found []detection.DeviceInfo
	for addr, chip := range readerAddresses {
		dev := &i2c.Dev{Addr: addr, Bus: bus}
		if err := dev.Tx(nil, make([]byte, 1)); err != nil {
			continue
		}
		found = append(found, detection.DeviceInfo{
			Transport: "i2c",
			Path:      ref.name,
			Name:      chip,
			Metadata:  map[string]string{"address": fmt.Sprintf("0x%02X", addr)},
		})
	}
	return found
}
