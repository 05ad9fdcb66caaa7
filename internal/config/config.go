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

// Package config reads programmer settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/jellydator/validation/is"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Platform names accepted in MIFARE_PLATFORM
const (
	PlatformUART    = "uart"
	PlatformWebNFC  = "webnfc"
	PlatformVirtual = "virtual"
)

// Config holds all programmer settings.
type Config struct {
	// APIURL is the base URL of the scan backend.
	APIURL string
	// Platform selects the NFC reader implementation.
	Platform string
	// Device is the serial port of a uart reader. Empty means auto-detect.
	Device string
	// LogLevel is a logrus level name.
	LogLevel string
	// AgentAddr is the listen address of the agent HTTP server.
	AgentAddr string
	// MetricsNamespace prefixes exported metric names.
	MetricsNamespace string

	// ProgramDelay is the simulated time spent writing one sector.
	ProgramDelay time.Duration
	// ProgramTimeout bounds how long a programming request waits for a card.
	ProgramTimeout time.Duration

	// ScanRate limits backend requests per second. Zero disables limiting.
	ScanRate float64
	// ScanBurst is the rate limiter burst size.
	ScanBurst int
	// BaudRate is the serial speed of a uart reader.
	BaudRate int

	// MetricsEnabled exposes /metrics on the agent.
	MetricsEnabled bool
}

// Load reads .env (searched upwards from the working directory) and then
// the environment. Variables already set in the environment win.
func Load() *Config {
	loadDotEnv()
	return fromEnv()
}

// LoadFile is Load with an explicit .env path.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return fromEnv(), nil
}

func fromEnv() *Config {
	return &Config{
		APIURL:           env.GetString("MIFARE_API_URL", "http://localhost:5000"),
		Platform:         strings.ToLower(env.GetString("MIFARE_PLATFORM", PlatformUART)),
		Device:           env.GetString("MIFARE_DEVICE", ""),
		LogLevel:         strings.ToLower(env.GetString("MIFARE_LOG_LEVEL", "info")),
		AgentAddr:        env.GetString("MIFARE_AGENT_ADDR", ":8080"),
		MetricsEnabled:   env.GetBool("MIFARE_METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("MIFARE_METRICS_NAMESPACE", "mifareprog"),
		ProgramDelay:     env.GetDuration("MIFARE_PROGRAM_DELAY_MS", 200, time.Millisecond),
		ProgramTimeout:   env.GetDuration("MIFARE_PROGRAM_TIMEOUT_SECONDS", 30, time.Second),
		ScanRate:         env.GetFloat64("MIFARE_SCAN_RATE", 2.0),
		ScanBurst:        env.GetInt("MIFARE_SCAN_BURST", 1),
		BaudRate:         env.GetInt("MIFARE_BAUD_RATE", 115200),
	}
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c, //nolint:wrapcheck // validation errors are user facing
		validation.Field(&c.APIURL, validation.Required, is.RequestURL),
		validation.Field(&c.Platform, validation.Required,
			validation.In(PlatformUART, PlatformWebNFC, PlatformVirtual)),
		validation.Field(&c.LogLevel, validation.Required,
			validation.In("trace", "debug", "info", "warn", "warning", "error")),
		validation.Field(&c.AgentAddr, validation.Required),
		validation.Field(&c.ProgramDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.ProgramTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.ScanRate, validation.Min(0.0)),
		validation.Field(&c.ScanBurst, validation.Required, validation.Min(1)),
		validation.Field(&c.BaudRate, validation.Required, validation.Min(1200)),
	)
}

// Level returns the logrus level named by LogLevel, defaulting to info.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// loadDotEnv loads the nearest .env walking up from the working directory.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
