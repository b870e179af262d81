package mailer_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	netmail "net/mail"
	"os"
	"path/filepath"
	"strings"

	"reembolsos/internal/mailer"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	mail "gopkg.in/mail.v2"
)

type fakeDialer struct {
	sent []*mail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*mail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

type part struct {
	contentType string
	disposition string
}

func parse(gm *mail.Message) (*netmail.Message, []part) {
	var buf bytes.Buffer
	_, err := gm.WriteTo(&buf)
	Expect(err).NotTo(HaveOccurred())

	msg, err := netmail.ReadMessage(&buf)
	Expect(err).NotTo(HaveOccurred())

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	Expect(err).NotTo(HaveOccurred())
	Expect(mediaType).To(Equal("multipart/mixed"))

	var parts []part
	r := multipart.NewReader(msg.Body, params["boundary"])
	for {
		p, err := r.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		Expect(err).NotTo(HaveOccurred())
		parts = append(parts, part{
			contentType: p.Header.Get("Content-Type"),
			disposition: p.Header.Get("Content-Disposition"),
		})
	}
	return msg, parts
}

var _ = Describe("Mailer", func() {
	var (
		dir    string
		dialer *fakeDialer
		m      *mailer.Mailer
		msg    mailer.Message
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		dialer = &fakeDialer{}
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		m = mailer.NewWithDialer(dialer, "relay:25", logger)

		report := filepath.Join(dir, "Reembolso_Ana_Silva.pdf")
		receipt := filepath.Join(dir, "taxi.jpg")
		Expect(os.WriteFile(report, []byte("%PDF"), 0o644)).To(Succeed())
		Expect(os.WriteFile(receipt, []byte("jpeg"), 0o644)).To(Succeed())

		msg = mailer.Message{
			From:        "naoresponder@example.com",
			To:          []string{"fin@x.com", "req@x.com"},
			ReplyTo:     "req@x.com",
			Subject:     mailer.Subject("Ana Silva"),
			HTMLBody:    "<p>ok</p>",
			Attachments: []string{report, receipt},
		}
	})

	It("sends one multi-part message with html body and binary attachments", func() {
		Expect(m.Send(context.Background(), msg)).To(Succeed())
		Expect(dialer.sent).To(HaveLen(1))

		parsed, parts := parse(dialer.sent[0])
		Expect(parsed.Header.Get("From")).To(Equal("naoresponder@example.com"))
		Expect(parsed.Header.Get("To")).To(Equal("fin@x.com, req@x.com"))
		Expect(parsed.Header.Get("Reply-To")).To(Equal("req@x.com"))
		Expect(parsed.Header.Get("Message-Id")).To(HaveSuffix("@example.com>"))

		subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
		Expect(err).NotTo(HaveOccurred())
		Expect(subject).To(Equal("Relatório de Reembolso - Ana Silva"))

		Expect(parts).To(HaveLen(3))
		Expect(parts[0].contentType).To(HavePrefix("text/html"))
		Expect(parts[1].contentType).To(HavePrefix("application/octet-stream"))
		Expect(parts[1].disposition).To(ContainSubstring(`filename="Reembolso_Ana_Silva.pdf"`))
		Expect(parts[2].contentType).To(HavePrefix("application/octet-stream"))
		Expect(parts[2].disposition).To(ContainSubstring(`filename="taxi.jpg"`))
	})

	It("skips attachments that no longer exist", func() {
		msg.Attachments = append(msg.Attachments, filepath.Join(dir, "gone.pdf"))

		gm, attached := mailer.Build(msg)
		Expect(attached).To(Equal(2))

		_, parts := parse(gm)
		Expect(parts).To(HaveLen(3))
	})

	It("omits Reply-To when the requester gave no address", func() {
		msg.ReplyTo = ""
		gm, _ := mailer.Build(msg)

		parsed, _ := parse(gm)
		Expect(parsed.Header.Get("Reply-To")).To(BeEmpty())
	})

	It("surfaces relay failures", func() {
		dialer.err = errors.New("connection refused")

		err := m.Send(context.Background(), msg)
		Expect(err).To(MatchError(ContainSubstring("connection refused")))
		Expect(err.Error()).To(ContainSubstring("relay:25"))
	})

	It("refuses to send without recipients", func() {
		msg.To = nil
		Expect(m.Send(context.Background(), msg)).To(MatchError(mailer.ErrNoRecipients))
		Expect(dialer.sent).To(BeEmpty())
	})

	It("does not dial once the context is done", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Expect(m.Send(ctx, msg)).To(MatchError(context.Canceled))
		Expect(dialer.sent).To(BeEmpty())
	})
})

var _ = Describe("Recipients", func() {
	It("lists destination then requester", func() {
		Expect(mailer.Recipients(" fin@x.com ", "req@x.com")).To(Equal([]string{"fin@x.com", "req@x.com"}))
	})

	It("lists each address once", func() {
		Expect(mailer.Recipients("fin@x.com", "FIN@x.com")).To(Equal([]string{"fin@x.com"}))
	})

	It("drops an empty requester", func() {
		Expect(mailer.Recipients("fin@x.com", "")).To(Equal([]string{"fin@x.com"}))
		Expect(mailer.Recipients("", "")).To(BeEmpty())
	})
})

var _ = Describe("RenderBody", func() {
	It("escapes user text and mentions the receipts", func() {
		body, err := mailer.RenderBody(mailer.ReportBody{
			EmployeeName:  "Ana <b>Silva</b>",
			RequesterName: "Maria",
			Total:         "R$ 21,00",
			ReceiptCount:  1,
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(body).To(ContainSubstring("Ana &lt;b&gt;Silva&lt;/b&gt;"))
		Expect(body).To(ContainSubstring("comprovantes"))
		Expect(body).To(ContainSubstring("R$ 21,00"))
		Expect(strings.Count(body, "Maria")).To(Equal(2))
	})
})
