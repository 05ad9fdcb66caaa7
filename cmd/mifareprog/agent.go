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
	"net/http"
	"time"

	"github.com/ZaparooProject/go-mifareprog"
	"github.com/ZaparooProject/go-mifareprog/feedback"
	"github.com/ZaparooProject/go-mifareprog/metrics"
	"github.com/ZaparooProject/go-mifareprog/platform/wsnfc"
	"github.com/ZaparooProject/go-mifareprog/programmer"
	"github.com/ZaparooProject/go-mifareprog/scan"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const (
	agentPollInterval = time.Second
	shutdownTimeout   = 5 * time.Second
	statusElement     = feedback.ElementID("status")
)

func (a *app) agentCommand() *cli.Command {
	return &cli.Command{
		Name:  "agent",
		Usage: "Serve the status page, a phone NFC websocket and metrics",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (MIFARE_AGENT_ADDR)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.IsSet("addr") {
				a.cfg.AgentAddr = cmd.String("addr")
			}
			ag, err := a.newAgent(ctx)
			if err != nil {
				return err
			}
			return ag.run(ctx)
		},
	}
}

// agent serves phones and the status page and programs the loaded
// session onto every card presented
type agent struct {
	hub      *wsnfc.Hub
	platform mifareprog.Platform
	prog     *programmer.Programmer
	session  *programmer.Session
	client   *scan.Client
	ui       *feedback.UI
	provider *metrics.Provider
	log      *logrus.Entry
	addr     string
}

func (a *app) newAgent(ctx context.Context) (*agent, error) {
	hub := wsnfc.NewHub(wsnfc.WithLogger(mifareprog.Component("wsnfc")))
	platform, err := a.buildPlatform(ctx, hub)
	if err != nil {
		return nil, err
	}
	prog, err := a.newProgrammer(platform)
	if err != nil {
		return nil, err
	}
	client, err := a.scanClient()
	if err != nil {
		return nil, err
	}

	doc := feedback.NewDocument("MIFARE Programmer")
	doc.Register(statusElement)
	ag := &agent{
		hub:      hub,
		platform: platform,
		prog:     prog,
		session:  programmer.NewSession(),
		client:   client,
		ui:       feedback.New(doc, feedback.WithLogger(mifareprog.Component("feedback"))),
		log:      mifareprog.Component("agent"),
		addr:     a.cfg.AgentAddr,
	}
	_ = ag.ui.ShowText(statusElement, "No program loaded")

	if a.cfg.MetricsEnabled {
		if ag.provider, err = metrics.NewProvider(a.cfg.MetricsNamespace); err != nil {
			return nil, err
		}
		if err := ag.provider.Register(metrics.NewProgrammerCollector(ag.provider.Namespace(), prog)); err != nil {
			return nil, err
		}
	}

	prog.Subscribe(programmer.Handlers{
		OnCardDetected: ag.onCard,
		OnError:        ag.onError,
	})
	return ag, nil
}

func (ag *agent) router() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if ag.provider != nil {
		mw, err := metrics.HTTPMiddleware(ag.provider)
		if err != nil {
			return nil, err
		}
		r.Use(mw)
		r.Method(http.MethodGet, "/metrics", ag.provider.Handler())
	}
	r.Get("/", ag.handleIndex)
	r.Handle("/ws", ag.hub)
	r.Get("/api/status", ag.handleStatus)
	r.Post("/api/program/{token}", ag.handleLoad)
	return r, nil
}

func (ag *agent) run(ctx context.Context) error {
	handler, err := ag.router()
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              ag.addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ag.log.WithField("addr", ag.addr).Info("agent listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		ag.keepScanning(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = ag.prog.StopScanning()
		_ = ag.hub.Close()
		ag.ui.Close()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// keepScanning starts scanning whenever the platform becomes available
// and keeps the NFC support class current
func (ag *agent) keepScanning(ctx context.Context) {
	ticker := time.NewTicker(agentPollInterval)
	defer ticker.Stop()
	for {
		ag.poll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (ag *agent) poll(ctx context.Context) {
	if !ag.ui.MarkNFCSupport(ag.platform) || ag.prog.IsScanning() {
		return
	}
	if err := ag.prog.StartScanning(ctx); err != nil {
		ag.log.WithError(err).Debug("scan not started")
	}
}

func (ag *agent) onCard(r mifareprog.Reading) {
	log := ag.log.WithField("serial", r.SerialNumber)
	card := ag.session.Card()
	if card == nil {
		log.Info("card presented with no program loaded")
		return
	}
	if ag.session.InProgress() {
		log.Debug("programming already running, card ignored")
		return
	}
	go ag.program(r, log)
}

func (ag *agent) program(r mifareprog.Reading, log *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), ag.prog.Config().ProgramTimeout)
	defer cancel()

	_ = ag.ui.ShowLoading(statusElement, "Programming card "+r.SerialNumber+"...")
	_, err := ag.session.Program(ctx, ag.prog, func(_ float64, status string) {
		_ = ag.ui.ShowLoading(statusElement, status)
	})
	_ = ag.ui.HideLoading(statusElement)
	if errors.Is(err, mifareprog.ErrProgrammingInProgress) {
		return
	}
	if err != nil {
		log.WithError(err).Warn("programming failed")
		_ = ag.ui.ShowError("Programming failed: "+err.Error(), nil)
	} else {
		log.Info("card programmed")
		_ = ag.ui.ShowSuccess("Card "+r.SerialNumber+" programmed successfully!", nil)
	}
	ag.ui.AutoDismiss(feedback.DefaultAutoDismiss)
}

func (ag *agent) onError(err error) {
	ag.log.WithError(err).Warn("reader error")
	_ = ag.ui.ShowError(err.Error(), nil)
	ag.ui.AutoDismiss(feedback.DefaultAutoDismiss)
}

func (ag *agent) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ag.ui.Document().Render(w); err != nil {
		ag.log.WithError(err).Warn("render failed")
	}
}

type statusResponse struct {
	Devices    []wsnfc.DeviceInfo `json:"devices"`
	State      string             `json:"state"`
	Session    string             `json:"session"`
	Program    string             `json:"program,omitempty"`
	Readings   int64              `json:"readings"`
	Programmed int64              `json:"cards_programmed"`
	Supported  bool               `json:"nfc_supported"`
	InProgress bool               `json:"in_progress"`
}

func (ag *agent) handleStatus(w http.ResponseWriter, _ *http.Request) {
	m := ag.prog.Metrics()
	resp := statusResponse{
		State:      m.State.String(),
		Supported:  ag.platform.Supported(),
		Devices:    ag.hub.Devices(),
		Session:    ag.session.ID(),
		InProgress: ag.session.InProgress(),
		Readings:   m.Readings,
		Programmed: m.CardsProgrammed,
	}
	if card := ag.session.Card(); card != nil {
		resp.Program = card.ProgramName
	}
	writeJSON(w, http.StatusOK, resp)
}

func (ag *agent) handleLoad(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	card, err := ag.client.FetchProgram(r.Context(), token)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, mifareprog.ErrProgramUnavailable):
			status = http.StatusNotFound
		case errors.Is(err, mifareprog.ErrInvalidFormat), errors.Is(err, mifareprog.ErrInvalidCardData):
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	if err := ag.session.Load(card); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	name := card.ProgramName
	if name == "" {
		name = "program"
	}
	_ = ag.ui.ShowText(statusElement, "Present a card to write "+name)
	ag.log.WithField("program", name).Info("program loaded")
	writeJSON(w, http.StatusOK, map[string]any{
		"program": card.ProgramName,
		"sectors": card.SectorData.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
