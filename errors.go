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

package mifareprog

import (
	"errors"
	"fmt"
)

// Format errors
var (
	ErrInvalidFormat   = errors.New("invalid format")
	ErrInvalidCardData = errors.New("invalid card data")
)

// Scan errors
var (
	ErrScanFailed         = errors.New("scan failed")
	ErrNoCardsFound       = errors.New("no cards found")
	ErrProgramUnavailable = errors.New("invalid or expired token")
)

// Platform errors
var (
	ErrUnsupportedPlatform   = errors.New("NFC is not supported on this platform")
	ErrNFCStart              = errors.New("failed to start NFC scanning")
	ErrProgrammingInProgress = errors.New("programming already in progress")
)

// Backend operations named in ScanError
const (
	OpScan  = "scan"
	OpFetch = "fetch"
)

// ScanError is returned by every failed call to the scan backend.
type ScanError struct {
	Err error
	Op  string
	URL string
}

func (e *ScanError) Error() string {
	if errors.Is(e.Err, ErrNoCardsFound) {
		return ErrNoCardsFound.Error()
	}
	if e.Op == OpFetch {
		return fmt.Sprintf("failed to fetch program data: %v", e.Err)
	}
	return fmt.Sprintf("failed to scan for cards: %v", e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Is makes every ScanError match ErrScanFailed.
func (e *ScanError) Is(target error) bool {
	return target == ErrScanFailed
}

// NewScanError wraps err for operation op against url.
func NewScanError(op, url string, err error) *ScanError {
	return &ScanError{Op: op, URL: url, Err: err}
}

// IsNoCards reports whether err means the backend answered but found no card.
func IsNoCards(err error) bool {
	return errors.Is(err, ErrNoCardsFound)
}

// IsRetryable reports whether retrying the failed operation could succeed.
// Transport failures talking to the backend are retryable; an empty scan
// result, invalid data or a missing platform are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrNoCardsFound),
		errors.Is(err, ErrInvalidFormat),
		errors.Is(err, ErrInvalidCardData),
		errors.Is(err, ErrUnsupportedPlatform),
		errors.Is(err, ErrProgramUnavailable):
		return false
	}
	var scanErr *ScanError
	return errors.As(err, &scanErr)
}
