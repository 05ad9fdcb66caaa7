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

package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_SucceedsAfterRetries(t *testing.T) {
	t.Parallel()

	calls := 0
	var retries []int
	got, err := WithRetry(context.Background(), RetryConfig{
		Description: "open",
		MaxRetries:  3,
		OnRetry: func(attempt int) error {
			retries = append(retries, attempt)
			return nil
		},
	}, func() (string, bool, error) {
		calls++
		return "port", calls < 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "port", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestWithRetry_Exhausted(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := WithRetry(context.Background(), RetryConfig{Description: "open /dev/ttyUSB0", MaxRetries: 2},
		func() (int, bool, error) {
			calls++
			return 0, true, nil
		})

	require.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "open /dev/ttyUSB0")
}

func TestWithRetry_PermanentError(t *testing.T) {
	t.Parallel()

	permanent := errors.New("permission denied")
	calls := 0
	_, err := WithRetry(context.Background(), RetryConfig{MaxRetries: 5}, func() (int, bool, error) {
		calls++
		return 0, false, permanent
	})

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithRetry(ctx, RetryConfig{MaxRetries: 5, RetryDelay: time.Hour}, func() (int, bool, error) {
		return 0, true, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestTimeoutRetry(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := TimeoutRetry(context.Background(), time.Second, func() (int, bool, error) {
		calls++
		return calls, calls < 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	_, err = TimeoutRetry(context.Background(), 5*time.Millisecond, func() (int, bool, error) {
		return 0, true, nil
	})
	require.ErrorIs(t, err, ErrTimeout)
}
