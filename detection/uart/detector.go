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

// Package uart finds serial ports that may carry a line-protocol reader.
package uart

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZaparooProject/go-mifareprog/detection"
	"go.bug.st/serial/enumerator"
)

// Common USB-serial bridges used by reader boards
var knownBridges = map[string]string{
	"1A86:7523": "CH340",
	"10C4:EA60": "CP210x",
	"0403:6001": "FT232R",
	"067B:2303": "PL2303",
	"072F:2200": "ACR122U",
}

type detector struct {
	list func() ([]*enumerator.PortDetails, error)
}

// New creates a detector backed by the operating system port enumerator
func New() detection.Detector {
	return &detector{list: enumerator.GetDetailedPortsList}
}

func init() {
	detection.RegisterDetector(New())
}

func (*detector) Transport() string {
	return "uart"
}

// Detect lists serial ports. In passive mode only USB ports are reported;
// probe mode also includes built-in ports.
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	if opts == nil {
		opts = detection.DefaultOptions()
	}
	ports, err := d.list()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", detection.ErrDetectionTimeout, err)
	}

	var devices []detection.DeviceInfo
	for _, port := range ports {
		if port == nil || port.Name == "" {
			continue
		}
		if !port.IsUSB && opts.Mode != detection.Probe {
			continue
		}
		devices = append(devices, describe(port))
	}

	devices = detection.Filter(devices, opts)
	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

func describe(port *enumerator.PortDetails) detection.DeviceInfo {
	info := detection.DeviceInfo{
		Transport: "uart",
		Path:      port.Name,
		Name:      port.Name,
		Metadata:  map[string]string{},
	}
	if !port.IsUSB {
		return info
	}

	vidpid := detection.FormatVIDPID(port.VID, port.PID)
	info.Metadata["vidpid"] = vidpid
	if port.SerialNumber != "" {
		info.Metadata["serial"] = port.SerialNumber
	}
	switch {
	case strings.TrimSpace(port.Product) != "":
		info.Name = strings.TrimSpace(port.Product)
	case knownBridges[vidpid] != "":
		info.Name = knownBridges[vidpid]
	}
	return info
}
