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

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-mifareprog"
	"github.com/ZaparooProject/go-mifareprog/detection"
	"github.com/ZaparooProject/go-mifareprog/internal/config"
	testutil "github.com/ZaparooProject/go-mifareprog/internal/testing"
	"github.com/ZaparooProject/go-mifareprog/platform/uart"
	"github.com/ZaparooProject/go-mifareprog/platform/wsnfc"
	"github.com/ZaparooProject/go-mifareprog/programmer"
	"github.com/urfave/cli/v3"
)

// virtualCardDelay is how long the virtual platform waits before
// presenting its demo card
const virtualCardDelay = 500 * time.Millisecond

var errNeedsAgent = errors.New("the webnfc platform is only available in agent mode")

func (a *app) programCommand() *cli.Command {
	return &cli.Command{
		Name:      "program",
		Usage:     "Write a program to the next card presented to the reader",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "token", Aliases: []string{"t"}, Usage: "Fetch the program from the backend"},
			&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: "Serial port of the reader (MIFARE_DEVICE)"},
			&cli.StringFlag{Name: "platform", Aliases: []string{"p"}, Usage: "Reader platform: uart or virtual (MIFARE_PLATFORM)"},
			&cli.DurationFlag{Name: "timeout", Usage: "How long to wait for a card"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.IsSet("device") {
				a.cfg.Device = cmd.String("device")
			}
			if cmd.IsSet("platform") {
				a.cfg.Platform = cmd.String("platform")
			}

			card, err := a.loadProgram(ctx, cmd.String("token"), cmd.Args().First())
			if err != nil {
				return err
			}
			a.out.Program(card)

			platform, err := a.buildPlatform(ctx, nil)
			if err != nil {
				return err
			}
			return a.runProgram(ctx, platform, card, cmd.Duration("timeout"))
		},
	}
}

func (a *app) loadProgram(ctx context.Context, token, path string) (*mifareprog.CardData, error) {
	switch {
	case token != "":
		client, err := a.scanClient()
		if err != nil {
			return nil, err
		}
		return client.FetchProgram(ctx, token)
	case path != "":
		card, _, err := loadProgramFile(path)
		return card, err
	default:
		return nil, fmt.Errorf("%w: program file or --token", errMissingArgument)
	}
}

func (a *app) newProgrammer(platform mifareprog.Platform) (*programmer.Programmer, error) {
	return programmer.New(platform,
		programmer.WithConfig(&programmer.Config{
			WriteDelay:     a.cfg.ProgramDelay,
			ProgramTimeout: a.cfg.ProgramTimeout,
		}),
		programmer.WithLogger(mifareprog.Component("programmer")),
	)
}

func (a *app) runProgram(ctx context.Context, platform mifareprog.Platform, card *mifareprog.CardData, timeout time.Duration) error {
	p, err := a.newProgrammer(platform)
	if err != nil {
		return err
	}
	if err := p.StartScanning(ctx); err != nil {
		return err
	}
	defer func() { _ = p.StopScanning() }()

	a.out.printf("Present a card to the reader...\n")
	if vp, ok := platform.(*testutil.VirtualPlatform); ok {
		go presentDemoCard(ctx, vp)
	}

	reading, err := p.ProgramNextCard(ctx, timeout, card, a.out.Progress)
	if err != nil {
		return err
	}
	a.out.Reading(reading)
	a.out.Success("card %s programmed", reading.SerialNumber)
	return nil
}

func presentDemoCard(ctx context.Context, vp *testutil.VirtualPlatform) {
	timer := time.NewTimer(virtualCardDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	if r := vp.Current(); r != nil {
		_ = r.Present(testutil.NewVirtualCard(testutil.TestClassic1KSerial, "mifareprog demo"))
	}
}

// buildPlatform creates the configured reader platform. hub is used for
// the webnfc platform and is only available in agent mode.
func (a *app) buildPlatform(ctx context.Context, hub *wsnfc.Hub) (mifareprog.Platform, error) {
	switch a.cfg.Platform {
	case config.PlatformWebNFC:
		if hub == nil {
			return nil, errNeedsAgent
		}
		return hub, nil
	case config.PlatformVirtual:
		return testutil.NewVirtualPlatform(true), nil
	case config.PlatformUART:
	default:
		return nil, fmt.Errorf("unknown platform %q", a.cfg.Platform)
	}

	device := a.cfg.Device
	if device == "" {
		found, err := a.detectSerialReader(ctx)
		if err != nil {
			return nil, err
		}
		device = found
	}
	a.log.WithField("device", device).Info("using serial reader")
	return uart.New(device,
		uart.WithBaudRate(a.cfg.BaudRate),
		uart.WithLogger(mifareprog.Component("uart")),
	)
}

func (a *app) detectSerialReader(ctx context.Context) (string, error) {
	devices, err := detection.DetectAll(ctx, detection.DefaultOptions())
	for _, d := range devices {
		if d.Transport == "uart" {
			return d.Path, nil
		}
	}
	if err == nil {
		err = detection.ErrNoDevicesFound
	}
	return "", fmt.Errorf("no serial reader found, set --device: %w", err)
}
