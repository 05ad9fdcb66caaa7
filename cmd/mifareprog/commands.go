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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ZaparooProject/go-mifareprog"
	"github.com/ZaparooProject/go-mifareprog/detection"
	"github.com/ZaparooProject/go-mifareprog/scan"
	"github.com/urfave/cli/v3"
)

var (
	errMissingArgument  = errors.New("missing argument")
	errValidationFailed = errors.New("validation failed")
	errInvalidHex       = errors.New("invalid hex")
)

func (a *app) scanClient() (*scan.Client, error) {
	return scan.NewClient(a.cfg.APIURL,
		scan.WithRateLimit(a.cfg.ScanRate, a.cfg.ScanBurst),
		scan.WithLogger(mifareprog.Component("scan")),
	)
}

func (a *app) scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Ask the backend for the cards currently on its readers",
		Action: func(ctx context.Context, _ *cli.Command) error {
			client, err := a.scanClient()
			if err != nil {
				return err
			}
			cards, err := client.ScanForCards(ctx)
			if mifareprog.IsNoCards(err) {
				a.out.printf("No cards found\n")
				return nil
			}
			if err != nil {
				return err
			}
			a.out.Cards(cards)
			return nil
		},
	}
}

func (a *app) fetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Download the program behind a token",
		ArgsUsage: "<token>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Save the program as JSON to this file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			token := cmd.Args().First()
			if token == "" {
				return fmt.Errorf("%w: token", errMissingArgument)
			}
			client, err := a.scanClient()
			if err != nil {
				return err
			}
			card, err := client.FetchProgram(ctx, token)
			if err != nil {
				return err
			}
			a.out.Program(card)

			if path := cmd.String("output"); path != "" {
				data, err := json.MarshalIndent(card, "", "  ")
				if err != nil {
					return fmt.Errorf("encode program: %w", err)
				}
				if err := os.WriteFile(path, data, 0o600); err != nil {
					return fmt.Errorf("save program: %w", err)
				}
				a.out.Success("saved to %s", path)
			}
			return nil
		},
	}
}

func (a *app) validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check a JSON or YAML program file",
		ArgsUsage: "<file>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("%w: file", errMissingArgument)
			}
			card, raw, err := loadProgramFile(path)
			var problems mifareprog.ValidationErrors
			if errors.As(err, &problems) {
				a.out.Validation(problems)
				return errValidationFailed
			}
			if err != nil {
				return err
			}
			a.out.Dump(path, raw)
			a.out.Validation(nil)
			a.out.Program(card)
			return nil
		},
	}
}

func (a *app) hexCommand() *cli.Command {
	lengthFlag := &cli.IntFlag{
		Name:    "length",
		Aliases: []string{"l"},
		Usage:   "Expected number of hex digits",
	}
	return &cli.Command{
		Name:  "hex",
		Usage: "Hex string helpers",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Check that input is hex of the given length",
				ArgsUsage: "<hex>",
				Flags:     []cli.Flag{lengthFlag},
				Action: func(_ context.Context, cmd *cli.Command) error {
					input := cmd.Args().First()
					if !mifareprog.ValidateHex(input, int(cmd.Int("length"))) {
						return fmt.Errorf("%w: %q", errInvalidHex, input)
					}
					a.out.printf("valid\n")
					return nil
				},
			},
			{
				Name:      "format",
				Usage:     "Group hex digits",
				ArgsUsage: "<hex>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "group", Aliases: []string{"g"}, Value: mifareprog.DefaultHexGroupSize, Usage: "Digits per group"},
					&cli.StringFlag{Name: "separator", Aliases: []string{"s"}, Value: mifareprog.DefaultHexSeparator, Usage: "Group separator"},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					a.out.printf("%s\n", mifareprog.FormatHex(cmd.Args().First(), int(cmd.Int("group")), cmd.String("separator")))
					return nil
				},
			},
			{
				Name:      "pad",
				Usage:     "Right-pad hex with zeros",
				ArgsUsage: "<hex>",
				Flags: []cli.Flag{&cli.IntFlag{
					Name:    "length",
					Aliases: []string{"l"},
					Value:   mifareprog.BlockHexLength,
					Usage:   "Target number of hex digits",
				}},
				Action: func(_ context.Context, cmd *cli.Command) error {
					a.out.printf("%s\n", mifareprog.PadHex(cmd.Args().First(), int(cmd.Int("length"))))
					return nil
				},
			},
			{
				Name:      "dump",
				Usage:     "Print a hex dump",
				ArgsUsage: "<hex>",
				Action: func(_ context.Context, cmd *cli.Command) error {
					data, err := mifareprog.HexToBytes(cmd.Args().First())
					if err != nil {
						return err
					}
					return mifareprog.HexDump(a.w, data, "input")
				},
			},
		},
	}
}

func (a *app) infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "List places where a reader may be attached",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "probe", Usage: "Open devices to confirm a reader responds"},
			&cli.DurationFlag{Name: "timeout", Value: 5 * time.Second, Usage: "Detection timeout"},
			&cli.StringSliceFlag{Name: "ignore", Usage: "Device paths to skip"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := detection.DefaultOptions()
			opts.Timeout = cmd.Duration("timeout")
			opts.IgnorePaths = cmd.StringSlice("ignore")
			if cmd.Bool("probe") {
				opts.Mode = detection.Probe
			}
			devices, err := detection.DetectAll(ctx, opts)
			switch {
			case err == nil, errors.Is(err, detection.ErrNoDevicesFound):
			case errors.Is(err, detection.ErrDetectionTimeout):
				a.log.WithField("timeout", opts.Timeout).Warn("reader detection timed out")
			default:
				a.log.WithError(err).Warn("some detectors failed")
			}
			a.out.Devices(devices)
			return nil
		},
	}
}
