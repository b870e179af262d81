package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"reembolsos/internal/pipeline"
	"reembolsos/internal/spreadsheet"
	"reembolsos/pkg/types"
)

const pageTitle = "Portal de Relatório de Reembolsos"

func (s *Service) handleGetReimbursement(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, http.StatusOK, "page.reimbursement", s.formPageData(&types.Submission{}, ""))
}

func (s *Service) handlePostReimbursement(w http.ResponseWriter, r *http.Request) {
	var ctx = r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.logger.WithError(err).Warn("failed to parse reimbursement form")

		msg := "Não foi possível ler o formulário enviado."
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = fmt.Sprintf("Os arquivos enviados excedem o limite de %d MB.", s.config.MaxUploadMB)
		}
		s.renderTemplate(w, http.StatusBadRequest, "page.reimbursement", s.formPageData(&types.Submission{}, msg))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.logger.WithError(err).Debug("failed to remove multipart temp files")
		}
	}()

	var sub = new(types.Submission)
	if err := decoder.Decode(sub, r.PostForm); err != nil {
		s.logger.WithError(err).Warn("failed to decode reimbursement form")
		s.renderTemplate(w, http.StatusBadRequest, "page.reimbursement", s.formPageData(sub, "Não foi possível ler o formulário enviado."))
		return
	}
	sub.Normalize()

	receipts, notices, err := readReceipts(r.MultipartForm.File["receipts"])
	if err != nil {
		s.logger.WithError(err).Error("failed to read uploaded receipts")
		s.renderTemplate(w, http.StatusBadRequest, "page.reimbursement", s.formPageData(sub, "Não foi possível ler os comprovantes enviados."))
		return
	}
	sub.Receipts = receipts

	data := &types.ResultPageData{
		BasePageData: types.BasePageData{Title: pageTitle},
		EmployeeName: sub.EmployeeName,
		Notices:      notices,
		RetentionMin: s.config.ArtifactTTLMin,
	}

	outcome, err := s.processor.Run(ctx, sub)
	if err != nil {
		s.logger.WithError(err).Error("reimbursement pipeline aborted")

		data.Fatal = fmt.Sprintf("Ocorreu um erro geral de processamento: %v", err)
		if errors.Is(err, spreadsheet.ErrTemplateNotFound) {
			data.Fatal = fmt.Sprintf("Arquivo modelo '%s' não encontrado.", s.config.TemplatePath)
		}
		s.renderTemplate(w, http.StatusInternalServerError, "page.result", data)
		return
	}

	data.RequestID = outcome.RequestID
	data.Notices = append(data.Notices, outcome.Notices...)
	data.Downloads = s.downloadLinks(outcome)

	s.renderTemplate(w, http.StatusOK, "page.result", data)
}

func (s *Service) formPageData(sub *types.Submission, errMsg string) *types.ReimbursementPageData {
	return &types.ReimbursementPageData{
		BasePageData: types.BasePageData{Title: pageTitle},
		Submission:   sub,
		Expenses:     padRows(sub.Expenses, s.config.RowCapacityExpense),
		Mileage:      padRows(sub.Mileage, s.config.RowCapacityMileage),
		Accept:       types.AcceptAttr(),
		MaxUploadMB:  s.config.MaxUploadMB,
		Error:        errMsg,
	}
}

func (s *Service) downloadLinks(outcome *pipeline.Outcome) []types.DownloadLink {
	var links []types.DownloadLink
	for _, artifact := range outcome.Artifacts() {
		token, err := s.encodeDownloadToken(outcome.RequestID, artifact.Name)
		if err != nil {
			s.logger.WithError(err).WithField("request_id", outcome.RequestID).Error("failed to encode download token")
			continue
		}
		links = append(links, types.DownloadLink{
			Label: artifact.Label,
			Name:  artifact.Name,
			URL:   "/downloads/" + token,
		})
	}
	return links
}

// readReceipts loads the uploads into memory. Files outside the accepted types are
// left out with a warning for the user.
func readReceipts(files []*multipart.FileHeader) ([]types.Receipt, []types.Notice, error) {
	var receipts []types.Receipt
	var notices []types.Notice

	for _, fh := range files {
		if fh.Filename == "" && fh.Size == 0 {
			continue
		}
		if !types.AllowedReceipt(fh.Filename) {
			notices = append(notices, types.Notice{
				Level: types.NoticeWarning,
				Text:  fmt.Sprintf("Comprovante '%s' ignorado: envie apenas PDF, JPG, JPEG ou PNG.", fh.Filename),
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("read upload %q: %w", fh.Filename, err)
		}

		receipts = append(receipts, types.Receipt{FileName: fh.Filename, Data: data})
	}

	return receipts, notices, nil
}

// padRows returns rows extended with blank entries up to n, so the form always shows
// the full capacity of the template.
func padRows[T any](rows []T, n int) []T {
	out := make([]T, max(len(rows), n))
	copy(out, rows)
	return out
}
