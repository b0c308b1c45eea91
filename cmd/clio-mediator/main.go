// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/clio-mediator/clio-mediator/internal/config"
	"github.com/clio-mediator/clio-mediator/internal/control"
	"github.com/clio-mediator/clio-mediator/internal/pipeline/audio"
	"github.com/clio-mediator/clio-mediator/internal/pipeline/supervisor"
	"github.com/clio-mediator/clio-mediator/pkg/commons"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("clio-mediator", pflag.ContinueOnError)
	config.BindFlags(flags)
	if err := flags.Parse(os.Args[1:]); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := commons.NewLogger(cfg.Server.Debug)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	source, err := buildAudioSource(cfg, logger)
	if err != nil {
		return fmt.Errorf("building audio source: %w", err)
	}

	sup := supervisor.New(cfg, logger, source)
	srv := control.New(sup, logger, cfg.Server.Debug)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Engine(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sup.Start(ctx); err != nil {
		return fmt.Errorf("starting supervisor: %w", err)
	}
	logger.Infof("clio-mediator: control API listening on %s", httpServer.Addr)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("clio-mediator: control API failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("clio-mediator: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	if err := sup.Stop(); err != nil {
		return fmt.Errorf("stopping supervisor: %w", err)
	}
	return nil
}

func buildAudioSource(cfg *config.Config, logger commons.Logger) (audio.Source, error) {
	switch cfg.Audio.InputMode {
	case "file":
		return audio.NewFileSource(cfg.Audio.InputFile, cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.Audio.ChunkSize, logger), nil
	default:
		return audio.NewMicrophoneSource(audio.NopDevice{}, cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.Audio.ChunkSize, logger), nil
	}
}
