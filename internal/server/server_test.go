package server_test

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"

	"reembolsos/internal/attachments"
	"reembolsos/internal/convert"
	"reembolsos/internal/mailer"
	"reembolsos/internal/pipeline"
	"reembolsos/internal/pipeline/mocks"
	"reembolsos/internal/server"
	"reembolsos/internal/spreadsheet"
	"reembolsos/internal/testhelpers"
	"reembolsos/internal/workspace"
	"reembolsos/pkg/types"

	"github.com/PuerkitoBio/goquery"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type upload struct {
	name string
	data []byte
}

func multipartRequest(fields map[string]string, files []upload) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		Expect(mw.WriteField(k, v)).To(Succeed())
	}
	for _, f := range files {
		part, err := mw.CreateFormFile("receipts", f.name)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(f.data)
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(mw.Close()).To(Succeed())

	req := httptest.NewRequest(http.MethodPost, "/reembolsos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func withFields(base map[string]string, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func document(rec *httptest.ResponseRecorder) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	Expect(err).NotTo(HaveOccurred())
	return doc
}

var _ = Describe("Service", func() {
	var (
		ctrl      *gomock.Controller
		converter *mocks.MockConverter
		mail      *mocks.MockMailer
		config    *types.Config
		handler   http.Handler
	)

	fields := map[string]string{
		"requester_name":            "Maria Souza",
		"requester_email":           "req@x.com",
		"employee_name":             "Ana Silva",
		"employee_cpf":              "123.456.789-00",
		"expenses[0].date":          "10/03/2025",
		"expenses[0].justification": "Hotel",
		"expenses[0].quantity":      "1",
		"expenses[0].amount":        "250,00",
		"expenses[1].date":          "",
		"mileage[0].route":          "Sede > Cliente",
		"mileage[0].distance":       "100",
		"mileage[0].rate":           "1,20",
		"destination":               "fin@x.com",
	}

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		converter = mocks.NewMockConverter(ctrl)
		mail = mocks.NewMockMailer(ctrl)

		template := filepath.Join(GinkgoT().TempDir(), "template.xlsx")
		testhelpers.WriteTemplate(template)

		config = &types.Config{
			TemplatePath:       template,
			TemplateSheet:      testhelpers.TemplateSheet,
			RowCapacityExpense: 20,
			RowCapacityMileage: 8,
			MailFrom:           "naoresponder@example.com",
			WorkDir:            filepath.Join(GinkgoT().TempDir(), "work"),
			ArtifactTTLMin:     60,
			MaxUploadMB:        10,
		}
	})

	JustBeforeEach(func() {
		logger := testhelpers.Logger()
		store := workspace.NewStore(config, logger)
		p := pipeline.New(
			config,
			logger,
			store,
			spreadsheet.NewFiller(config, logger),
			converter,
			attachments.NewBundler(logger),
			mail,
		)

		svc, err := server.New(config, logger, p, store)
		Expect(err).NotTo(HaveOccurred())
		handler = svc.Handler()
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	It("renders the form with one line per template row", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))

		doc := document(rec)
		Expect(doc.Find("table#expenses tbody tr").Length()).To(Equal(20))
		Expect(doc.Find("table#mileage tbody tr").Length()).To(Equal(8))
		Expect(doc.Find(`input[name="expenses[19].amount"]`).Length()).To(Equal(1))
		Expect(doc.Find(`input[name="mileage[7].rate"]`).Length()).To(Equal(1))

		accept, ok := doc.Find(`input[name="receipts"]`).Attr("accept")
		Expect(ok).To(BeTrue())
		Expect(accept).To(Equal(".jpeg,.jpg,.pdf,.png"))
	})

	It("answers the health check", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(Equal("ok"))
	})

	It("serves the stylesheet", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	Context("when a report is submitted", func() {
		var sent mailer.Message

		BeforeEach(func() {
			converter.EXPECT().Convert(gomock.Any(), gomock.Any()).Return(convert.Result{Status: convert.NotAvailable})
			mail.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg mailer.Message) error {
				sent = msg
				return nil
			})
		})

		It("mails the report and offers the spreadsheet for download", func() {
			rec := serve(multipartRequest(fields, []upload{
				{name: "hotel.pdf", data: []byte("%PDF-1.4 hotel")},
				{name: "setup.exe", data: []byte("MZ")},
			}))
			Expect(rec.Code).To(Equal(http.StatusOK))

			doc := document(rec)
			Expect(doc.Find(".notice-warning").Text()).To(ContainSubstring("setup.exe"))
			Expect(doc.Find(".notice-success").Text()).To(ContainSubstring("E-mail enviado com sucesso"))

			Expect(sent.To).To(Equal([]string{"fin@x.com", "req@x.com"}))
			Expect(sent.Attachments).To(HaveLen(2))
			Expect(filepath.Base(sent.Attachments[1])).To(Equal("hotel.pdf"))
			Expect(sent.HTMLBody).To(ContainSubstring("R$ 370,00"))

			links := doc.Find("a.download")
			Expect(links.Length()).To(Equal(1))
			href, ok := links.Attr("href")
			Expect(ok).To(BeTrue())
			Expect(href).To(HavePrefix("/downloads/"))

			dl := serve(httptest.NewRequest(http.MethodGet, href, nil))
			Expect(dl.Code).To(Equal(http.StatusOK))
			Expect(dl.Header().Get("Content-Disposition")).To(ContainSubstring("Reembolso_Ana_Silva.xlsx"))
			Expect(dl.Header().Get("Content-Type")).To(Or(ContainSubstring("spreadsheetml"), ContainSubstring("zip")))

			data, err := io.ReadAll(dl.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(HavePrefix("PK"))
		})
	})

	Context("when the form carries a blank line between filled ones", func() {
		var sent mailer.Message

		BeforeEach(func() {
			converter.EXPECT().Convert(gomock.Any(), gomock.Any()).Return(convert.Result{Status: convert.NotAvailable})
			mail.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg mailer.Message) error {
				sent = msg
				return nil
			})
		})

		It("keeps every line on its template row", func() {
			form := withFields(fields, map[string]string{
				"expenses[1].date":          "",
				"expenses[2].date":          "12/03/2025",
				"expenses[2].justification": "Taxi",
				"expenses[2].amount":        "45,00",
			})

			rec := serve(multipartRequest(form, nil))
			Expect(rec.Code).To(Equal(http.StatusOK))

			workbook := sent.Attachments[0]
			Expect(testhelpers.Cell(workbook, "L15")).To(Equal("Hotel"))
			Expect(testhelpers.Cell(workbook, "L16")).To(BeEmpty())
			Expect(testhelpers.Cell(workbook, "L17")).To(Equal("Taxi"))
			Expect(testhelpers.Cell(workbook, "L18")).To(BeEmpty())
		})

		It("encodes a non-ASCII file name in the download header", func() {
			rec := serve(multipartRequest(withFields(fields, map[string]string{"employee_name": "João Silva"}), nil))
			Expect(rec.Code).To(Equal(http.StatusOK))

			href, ok := document(rec).Find("a.download").Attr("href")
			Expect(ok).To(BeTrue())

			dl := serve(httptest.NewRequest(http.MethodGet, href, nil))
			Expect(dl.Code).To(Equal(http.StatusOK))

			disposition := dl.Header().Get("Content-Disposition")
			Expect(disposition).To(HavePrefix("attachment;"))
			Expect(disposition).To(MatchRegexp(`(?i)filename\*=utf-8''Reembolso_Jo%C3%A3o_Silva\.xlsx`))

			_, params, err := mime.ParseMediaType(disposition)
			Expect(err).NotTo(HaveOccurred())
			Expect(params["filename"]).To(Equal("Reembolso_João_Silva.xlsx"))
		})
	})

	It("returns 404 for a forged download token", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/downloads/not-a-token", nil))
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	Context("when the template is missing", func() {
		BeforeEach(func() {
			config.TemplatePath = filepath.Join(GinkgoT().TempDir(), "missing.xlsx")
		})

		It("aborts with a fatal message and leaves no workspace behind", func() {
			rec := serve(multipartRequest(fields, nil))
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))

			doc := document(rec)
			Expect(doc.Find(".fatal").Text()).To(ContainSubstring("missing.xlsx"))
			Expect(doc.Find("a.download").Length()).To(BeZero())

			entries, _ := filepath.Glob(filepath.Join(config.WorkDir, "*"))
			Expect(entries).To(BeEmpty())
		})
	})
})
