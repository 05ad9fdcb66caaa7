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

// Command mifareprog fetches MIFARE programs from the backend, validates
// them and writes them to cards through a serial reader or a phone.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/go-mifareprog"
	"github.com/ZaparooProject/go-mifareprog/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	// Import detection packages to register detectors
	_ "github.com/ZaparooProject/go-mifareprog/detection/i2c"
	_ "github.com/ZaparooProject/go-mifareprog/detection/uart"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).Run(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

// app carries state shared by all commands once Before has run
type app struct {
	cfg *config.Config
	out *Output
	log *logrus.Entry
	w   io.Writer
}

func newApp(w io.Writer) *cli.Command {
	a := &app{w: w}
	return &cli.Command{
		Name:    "mifareprog",
		Usage:   "Program MIFARE cards from a scan backend",
		Version: version,
		Writer:  w,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load settings from this .env file instead of searching for one",
			},
			&cli.StringFlag{
				Name:    "api-url",
				Aliases: []string{"u"},
				Usage:   "Scan backend base URL (MIFARE_API_URL)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: trace, debug, info, warn or error (MIFARE_LOG_LEVEL)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print more detail",
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			a.scanCommand(),
			a.fetchCommand(),
			a.validateCommand(),
			a.hexCommand(),
			a.programCommand(),
			a.infoCommand(),
			a.agentCommand(),
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("env-file"); path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return ctx, err
		}
		a.cfg = cfg
	} else {
		a.cfg = config.Load()
	}
	if cmd.IsSet("api-url") {
		a.cfg.APIURL = cmd.String("api-url")
	}
	if cmd.IsSet("log-level") {
		a.cfg.LogLevel = cmd.String("log-level")
	}
	if err := a.cfg.Validate(); err != nil {
		return ctx, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(a.cfg.Level())
	mifareprog.SetLogger(logger)

	a.log = mifareprog.Component("cli")
	a.out = NewOutput(a.w, cmd.Bool("verbose"))
	return ctx, nil
}
