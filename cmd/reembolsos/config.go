package main

import (
	"errors"
	"fmt"
	"strings"

	"reembolsos/pkg/types"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func loadConfig(cCtx *cli.Context) (*types.Config, error) {
	// A missing .env is the normal case outside of development.
	_ = godotenv.Load()

	c := new(types.Config)
	if err := envconfig.Process(cCtx.String("env-prefix"), c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if strings.TrimSpace(c.TemplatePath) == "" {
		return nil, errors.New("set TEMPLATE_PATH")
	}

	if c.RowCapacityExpense <= 0 || c.RowCapacityMileage <= 0 {
		return nil, fmt.Errorf("row capacities must be positive, got expense=%d mileage=%d", c.RowCapacityExpense, c.RowCapacityMileage)
	}

	if c.RelayPort < 1 || c.RelayPort > 65535 {
		return nil, fmt.Errorf("RELAY_PORT out of range: %d", c.RelayPort)
	}

	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 200
	}

	return c, nil
}

func newLogger(config *types.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		logger.WithError(err).Warnf("unknown log level %q, using info", config.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
