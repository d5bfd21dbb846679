// Copyright © 2026 Polymodo contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/polymodod/main.go
// Summary: The launcher daemon: wires the compositor, desk runtime,
// registry, and IPC server.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/polymodo/polymodo/apps/clock"
	"github.com/polymodo/polymodo/apps/launcher"
	"github.com/polymodo/polymodo/compositor"
	"github.com/polymodo/polymodo/config"
	"github.com/polymodo/polymodo/desk"
	"github.com/polymodo/polymodo/logging"
	"github.com/polymodo/polymodo/registry"
	"github.com/polymodo/polymodo/server"
	"github.com/polymodo/polymodo/store"
)

func main() {
	configPath := flag.String("config", "", "Config file path (default: user config dir)")
	socket := flag.String("socket", "", "Socket address, overriding the config ('@name' for abstract)")
	headless := flag.Bool("headless", false, "Use a simulation screen instead of the terminal")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *socket != "" {
		cfg.Socket = *socket
	}
	if *verbose {
		cfg.LogLevel = "debug"
		cfg.Development = true
	}

	log, err := logging.New(logging.Config{Level: cfg.LogLevel, Development: cfg.Development})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log, cfg, *headless); err != nil {
		log.Fatal("daemon exited", zap.Error(err))
	}
}

func run(log *zap.Logger, cfg config.Config, headless bool) error {
	var screen tcell.Screen
	var err error
	if headless {
		sim := tcell.NewSimulationScreen("UTF-8")
		sim.SetSize(120, 40)
		screen = sim
	} else {
		screen, err = tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("create screen: %w", err)
		}
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	comp := compositor.New(log.Named("compositor"), screen, compositor.Options{})
	defer comp.Close()

	d := desk.New(log.Named("desk"), comp, comp.Events())

	var history *store.History
	if cfg.HistoryDB != "" {
		history, err = store.Open(cfg.HistoryDB)
		if err != nil {
			log.Warn("launch history unavailable", zap.Error(err))
		} else {
			defer history.Close()
		}
	}

	reg := registry.New()
	reg.Register(launcher.AppName, func(d *desk.Desk) (desk.AppKey, error) {
		return desk.Spawn(d, launcher.New(launcher.Options{
			Log:      log.Named("launcher"),
			History:  history,
			Provider: launcher.PathProvider{},
		}))
	})
	reg.Register(clock.AppName, func(d *desk.Desk) (desk.AppKey, error) {
		return desk.Spawn(d, clock.New())
	})

	srv := server.New(log.Named("server"), cfg.Socket, d, reg)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatchErr := make(chan error, 1)
	go func() { dispatchErr <- comp.Dispatch() }()

	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(ctx) }()

	select {
	case <-ctx.Done():
		log.Info("signal received, shutting down")
		return nil
	case err := <-runErr:
		return err
	case err := <-dispatchErr:
		return err
	}
}
