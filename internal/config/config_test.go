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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests in this file use t.Setenv and cannot run in parallel.

func TestLoad(t *testing.T) {
	tests := []struct {
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
		name     string
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "http://localhost:5000", cfg.APIURL)
				assert.Equal(t, PlatformUART, cfg.Platform)
				assert.Empty(t, cfg.Device)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, ":8080", cfg.AgentAddr)
				assert.Equal(t, 200*time.Millisecond, cfg.ProgramDelay)
				assert.Equal(t, 30*time.Second, cfg.ProgramTimeout)
				assert.InDelta(t, 2.0, cfg.ScanRate, 0.001)
				assert.Equal(t, 1, cfg.ScanBurst)
				assert.Equal(t, 115200, cfg.BaudRate)
				assert.True(t, cfg.MetricsEnabled)
				assert.Equal(t, "mifareprog", cfg.MetricsNamespace)
				require.NoError(t, cfg.Validate())
			},
		},
		{
			name: "custom reader",
			envVars: map[string]string{
				"MIFARE_PLATFORM":         "WebNFC",
				"MIFARE_DEVICE":           "/dev/ttyACM0",
				"MIFARE_PROGRAM_DELAY_MS": "50",
				"MIFARE_LOG_LEVEL":        "DEBUG",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, PlatformWebNFC, cfg.Platform)
				assert.Equal(t, "/dev/ttyACM0", cfg.Device)
				assert.Equal(t, 50*time.Millisecond, cfg.ProgramDelay)
				assert.Equal(t, logrus.DebugLevel, cfg.Level())
			},
		},
		{
			name: "invalid values",
			envVars: map[string]string{
				"MIFARE_API_URL":    "not a url",
				"MIFARE_PLATFORM":   "bluetooth",
				"MIFARE_SCAN_BURST": "0",
			},
			validate: func(t *testing.T, cfg *Config) {
				err := cfg.Validate()
				require.Error(t, err)
				assert.Contains(t, err.Error(), "APIURL")
				assert.Contains(t, err.Error(), "Platform")
				assert.Contains(t, err.Error(), "ScanBurst")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}
			tt.validate(t, fromEnv())
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MIFARE_AGENT_ADDR=127.0.0.1:9999\n"), 0o600))
	// registers restoration of the original value
	t.Setenv("MIFARE_AGENT_ADDR", "")
	require.NoError(t, os.Unsetenv("MIFARE_AGENT_ADDR"))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.AgentAddr)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLevelFallback(t *testing.T) {
	cfg := &Config{LogLevel: "loud"}
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
}
