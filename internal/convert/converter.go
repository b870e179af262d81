package convert

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reembolsos/pkg/types"

	"github.com/sirupsen/logrus"
)

type Status int

const (
	NotAvailable Status = iota
	Converted
)

func (s Status) String() string {
	if s == Converted {
		return "converted"
	}
	return "not_available"
}

// Result tells the caller whether a converted document exists and where.
type Result struct {
	Status Status
	Path   string
}

func (r Result) Converted() bool {
	return r.Status == Converted
}

// Office converts spreadsheets with a headless office suite (LibreOffice by default).
type Office struct {
	bin     string
	format  string
	timeout time.Duration
	runner  Runner
	logger  logrus.FieldLogger
}

func New(config *types.Config, logger logrus.FieldLogger) *Office {
	return NewWithRunner(config, execRunner{logger: logger}, logger)
}

func NewWithRunner(config *types.Config, runner Runner, logger logrus.FieldLogger) *Office {
	return &Office{
		bin:     config.ConverterBin,
		format:  config.ConverterFormat,
		timeout: config.ConverterTimeout(),
		runner:  runner,
		logger:  logger,
	}
}

// Convert renders src into the configured format next to it. It never fails: the
// outcome is decided by whether the expected output file exists once the tool returns,
// the tool's exit status is not trusted.
func (c *Office) Convert(ctx context.Context, src string) Result {
	if c.bin == "" {
		return Result{Status: NotAvailable}
	}

	dir := filepath.Dir(src)
	out := ExpectedOutput(src, c.format)

	// A stale file from an earlier run must not count as success.
	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		c.logger.WithError(err).WithField("file", out).Warn("failed to remove stale converted file")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	_, _, err := c.runner.Run(ctx, c.bin, "--headless", "--convert-to", c.format, "--outdir", dir, src)
	if err != nil {
		c.logger.WithError(err).WithField("file", filepath.Base(src)).Debug("converter reported an error")
	}

	if st, statErr := os.Stat(out); statErr == nil && st.Mode().IsRegular() {
		return Result{Status: Converted, Path: out}
	}

	return Result{Status: NotAvailable}
}

// ExpectedOutput is the same-basename file the converter writes.
func ExpectedOutput(src, format string) string {
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + "." + format
}
