package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reembolsos/internal/attachments"
	"reembolsos/internal/convert"
	"reembolsos/internal/mailer"
	"reembolsos/internal/pipeline"
	"reembolsos/internal/server"
	"reembolsos/internal/spreadsheet"
	"reembolsos/internal/workspace"

	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	logger := newLogger(config)

	filler := spreadsheet.NewFiller(config, logger)
	if err := filler.CheckTemplate(); err != nil {
		// Each submission reports this again; the server still starts so the form is reachable.
		logger.WithError(err).Warn("reimbursement template is not available")
	}

	store := workspace.NewStore(config, logger)

	p := pipeline.New(
		config,
		logger,
		store,
		filler,
		convert.New(config, logger),
		attachments.NewBundler(logger),
		mailer.New(config, logger),
	)

	srv, err := server.New(config, logger, p, store)
	if err != nil {
		return err
	}

	go store.RunSweeper(ctx, config.SweepInterval(), config.ArtifactTTL())

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
