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

// Package detection discovers places where an NFC reader may be attached.
//
// Detectors for each transport register themselves on import:
//
//	import (
//	    "github.com/ZaparooProject/go-mifareprog/detection"
//	    _ "github.com/ZaparooProject/go-mifareprog/detection/i2c"
//	    _ "github.com/ZaparooProject/go-mifareprog/detection/uart"
//	)
//
//	devices, err := detection.DetectAll(ctx, detection.DefaultOptions())
package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Detection errors
var (
	ErrNoDevicesFound      = errors.New("no devices found")
	ErrUnsupportedPlatform = errors.New("detection not supported on this platform")
	ErrDetectionTimeout    = errors.New("detection timed out")
)

// Mode controls how intrusive detection may be
type Mode int

const (
	// Passive only enumerates, it never opens a device
	Passive Mode = iota
	// Probe may open devices and exchange a few bytes
	Probe
)

func (m Mode) String() string {
	if m == Probe {
		return "probe"
	}
	return "passive"
}

// DeviceInfo describes a candidate reader location
type DeviceInfo struct {
	Metadata  map[string]string
	Transport string
	Path      string
	Name      string
}

// String returns a one line summary
func (d DeviceInfo) String() string {
	if d.Name != "" && d.Name != d.Path {
		return fmt.Sprintf("%s %s (%s)", d.Transport, d.Path, d.Name)
	}
	return fmt.Sprintf("%s %s", d.Transport, d.Path)
}

// Options configures detection
type Options struct {
	// Blocklist holds VID:PID pairs that are never reported
	Blocklist []string

	// IgnorePaths holds device paths that are never reported
	IgnorePaths []string

	// Timeout bounds the whole detection run
	Timeout time.Duration

	Mode Mode
}

// DefaultOptions returns passive detection with the default blocklist
func DefaultOptions() *Options {
	return &Options{
		Mode:      Passive,
		Timeout:   5 * time.Second,
		Blocklist: DefaultBlocklist(),
	}
}

// Detector finds devices for one transport
type Detector interface {
	Transport() string
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	registryMu sync.RWMutex
	detectors  = make(map[string]Detector)
)

// RegisterDetector makes a detector available to DetectAll. A later
// registration for the same transport replaces the earlier one.
func RegisterDetector(d Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	detectors[d.Transport()] = d
}

// Detectors returns the registered detectors sorted by transport
func Detectors() []Detector {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Detector, 0, len(detectors))
	for _, d := range detectors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Transport() < out[j].Transport() })
	return out
}

// DetectAll runs every registered detector concurrently. Detectors that
// find nothing or do not support the platform are skipped; other failures
// are returned alongside whatever the remaining detectors found.
func DetectAll(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	all := Detectors()
	results := make([][]DeviceInfo, len(all))
	errs := make([]error, len(all))

	var g errgroup.Group
	for i, d := range all {
		g.Go(func() error {
			devices, err := d.Detect(ctx, opts)
			results[i] = Filter(devices, opts)
			if err != nil && !errors.Is(err, ErrNoDevicesFound) && !errors.Is(err, ErrUnsupportedPlatform) {
				errs[i] = fmt.Errorf("%s: %w", d.Transport(), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var devices []DeviceInfo
	for _, r := range results {
		devices = append(devices, r...)
	}
	if len(devices) == 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %v", ErrDetectionTimeout, opts.Timeout)
	}
	if err := errors.Join(errs...); err != nil {
		return devices, err
	}
	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}
	return devices, nil
}

// Filter drops devices on the ignore list or whose VID:PID is blocked
func Filter(devices []DeviceInfo, opts *Options) []DeviceInfo {
	if opts == nil {
		return devices
	}
	kept := devices[:0:0]
	for _, d := range devices {
		if IsPathIgnored(d.Path, opts.IgnorePaths) {
			continue
		}
		if vidpid := d.Metadata["vidpid"]; vidpid != "" && IsBlocked(vidpid, opts.Blocklist) {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}
