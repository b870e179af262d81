package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"reembolsos/internal/attachments"
	"reembolsos/internal/convert"
	"reembolsos/internal/mailer"
	"reembolsos/internal/spreadsheet"
	"reembolsos/internal/workspace"
	"reembolsos/pkg/types"

	"github.com/sirupsen/logrus"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks reembolsos/internal/pipeline Converter,Mailer

type Filler interface {
	CheckTemplate() error
	Fill(sub *types.Submission, dir string) (string, error)
	Layout() spreadsheet.Layout
}

type Converter interface {
	Convert(ctx context.Context, src string) convert.Result
}

type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Pipeline runs one submission from the form to the finance inbox.
type Pipeline struct {
	config    *types.Config
	logger    logrus.FieldLogger
	store     *workspace.Store
	filler    Filler
	converter Converter
	bundler   *attachments.Bundler
	mailer    Mailer
}

func New(
	config *types.Config,
	logger logrus.FieldLogger,
	store *workspace.Store,
	filler Filler,
	converter Converter,
	bundler *attachments.Bundler,
	mailer Mailer,
) *Pipeline {
	return &Pipeline{
		config:    config,
		logger:    logger,
		store:     store,
		filler:    filler,
		converter: converter,
		bundler:   bundler,
		mailer:    mailer,
	}
}

// Run fills the template, converts it, mails it with the receipts and removes the
// receipts again. Only template problems are returned as errors; everything after the
// spreadsheet exists is reported through the Outcome.
func (p *Pipeline) Run(ctx context.Context, sub *types.Submission) (*Outcome, error) {
	if err := p.filler.CheckTemplate(); err != nil {
		return nil, err
	}

	ws, err := p.store.Create()
	if err != nil {
		return nil, err
	}

	logger := p.logger.WithField("request_id", ws.ID)
	out := &Outcome{RequestID: ws.ID}

	xlsx, err := p.filler.Fill(sub, ws.Dir)
	if err != nil {
		if rmErr := os.RemoveAll(ws.Dir); rmErr != nil {
			logger.WithError(rmErr).Warn("failed to remove workspace of failed fill")
		}
		return nil, fmt.Errorf("fill template: %w", err)
	}
	out.Spreadsheet = xlsx
	out.addNotice(types.NoticeSuccess, "Tabela Excel preenchida com sucesso!")

	out.Conversion = p.converter.Convert(ctx, xlsx)
	out.Primary = xlsx
	if out.Conversion.Converted() {
		out.Primary = out.Conversion.Path
	} else {
		out.addNotice(types.NoticeInfo, "Não foi possível gerar o PDF; a planilha Excel será usada como anexo principal.")
	}
	logger.WithFields(logrus.Fields{
		"conversion": out.Conversion.Status.String(),
		"primary":    filepath.Base(out.Primary),
	}).Info("report generated")

	if sub.Destination == "" {
		out.addNotice(types.NoticeWarning, "Nenhum e-mail de destino do financeiro foi preenchido.")
		return out, nil
	}

	p.dispatch(ctx, logger, ws, sub, out)

	return out, nil
}

func (p *Pipeline) dispatch(ctx context.Context, logger logrus.FieldLogger, ws *workspace.Workspace, sub *types.Submission, out *Outcome) {
	bundle, err := p.bundler.Bundle(ws, out.Primary, sub.Receipts)
	if err != nil {
		logger.WithError(err).Error("failed to prepare attachments")
		out.MailErr = err
		out.addNotice(types.NoticeError, fmt.Sprintf("Erro ao preparar os anexos: %v", err))
		return
	}
	defer func() {
		out.ReceiptsRemoved = bundle.Cleanup()
	}()

	out.Attachments = bundle.Paths
	out.Recipients = mailer.Recipients(sub.Destination, sub.RequesterEmail)

	body, err := mailer.RenderBody(mailer.ReportBody{
		EmployeeName:  sub.EmployeeName,
		RequesterName: sub.RequesterName,
		Total:         spreadsheet.FormatBRL(spreadsheet.Total(sub, p.filler.Layout())),
		ReceiptCount:  len(sub.Receipts),
	})
	if err == nil {
		err = p.mailer.Send(ctx, mailer.Message{
			From:        p.config.MailFrom,
			To:          out.Recipients,
			ReplyTo:     sub.RequesterEmail,
			Subject:     mailer.Subject(sub.EmployeeName),
			HTMLBody:    body,
			Attachments: bundle.Paths,
		})
	}

	if err != nil {
		logger.WithError(err).Error("failed to send report email")
		out.MailErr = err
		out.addNotice(types.NoticeError, fmt.Sprintf("Erro ao disparar o e-mail: %v", err))
		return
	}

	out.Mailed = true
	out.addNotice(types.NoticeSuccess, "E-mail enviado com sucesso (com comprovantes anexados)!")
}
