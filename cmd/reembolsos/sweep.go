package main

import (
	"fmt"
	"time"

	"reembolsos/internal/workspace"

	"github.com/urfave/cli/v2"
)

var sweepCommand = &cli.Command{
	Name:  "sweep",
	Usage: "Remove request directories older than ARTIFACT_TTL_MIN",
	Action: func(cCtx *cli.Context) error {
		config, err := loadConfig(cCtx)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger := newLogger(config)
		if config.ArtifactTTL() <= 0 {
			logger.Info("ARTIFACT_TTL_MIN is 0, artifacts are kept")
			return nil
		}

		store := workspace.NewStore(config, logger)

		removed, err := store.Sweep(config.ArtifactTTL(), time.Now())
		if err != nil {
			return fmt.Errorf("sweep %s: %w", store.Root(), err)
		}

		logger.WithField("removed", removed).Info("sweep finished")
		return nil
	},
}
