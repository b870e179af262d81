package main

import (
	"fmt"
	"os"
	"path/filepath"

	"reembolsos/internal/attachments"
	"reembolsos/internal/convert"
	"reembolsos/internal/mailer"
	"reembolsos/internal/pipeline"
	"reembolsos/internal/spreadsheet"
	"reembolsos/internal/workspace"
	"reembolsos/pkg/types"

	"github.com/goccy/go-yaml"
	"github.com/urfave/cli/v2"
)

var renderCommand = &cli.Command{
	Name:  "render",
	Usage: "Fill the template from a YAML submission without the web form",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "input",
			Aliases:  []string{"i"},
			Usage:    "Submission YAML file",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "send",
			Usage: "Mail the report through the relay",
		},
	},
	Action: render,
}

func render(cCtx *cli.Context) error {
	config, err := loadConfig(cCtx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(config)

	sub, err := readSubmission(cCtx.String("input"))
	if err != nil {
		return err
	}
	if !cCtx.Bool("send") {
		sub.Destination = ""
	}

	p := pipeline.New(
		config,
		logger,
		workspace.NewStore(config, logger),
		spreadsheet.NewFiller(config, logger),
		convert.New(config, logger),
		attachments.NewBundler(logger),
		mailer.New(config, logger),
	)

	out, err := p.Run(cCtx.Context, sub)
	if err != nil {
		return err
	}

	for _, n := range out.Notices {
		fmt.Printf("[%s] %s\n", n.Level, n.Text)
	}
	for _, a := range out.Artifacts() {
		fmt.Println(a.Path)
	}

	return out.MailErr
}

// readSubmission decodes a submission file. Receipt paths are resolved against the
// directory of the file.
func readSubmission(path string) (*types.Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read submission: %w", err)
	}

	sub := new(types.Submission)
	if err := yaml.Unmarshal(data, sub); err != nil {
		return nil, fmt.Errorf("decode submission %s: %w", path, err)
	}
	sub.Normalize()

	base := filepath.Dir(path)
	for _, rp := range sub.ReceiptPaths {
		if !filepath.IsAbs(rp) {
			rp = filepath.Join(base, rp)
		}
		if !types.AllowedReceipt(rp) {
			return nil, fmt.Errorf("receipt %s: only pdf, jpg, jpeg and png are accepted", rp)
		}

		data, err := os.ReadFile(rp)
		if err != nil {
			return nil, fmt.Errorf("read receipt: %w", err)
		}
		sub.Receipts = append(sub.Receipts, types.Receipt{FileName: filepath.Base(rp), Data: data})
	}

	return sub, nil
}
