package mailer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reembolsos/pkg/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	mail "gopkg.in/mail.v2"
)

var ErrNoRecipients = errors.New("no recipients")

// Dialer is the part of mail.Dialer the mailer needs.
type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// Message is one outgoing report email.
type Message struct {
	From        string
	To          []string
	ReplyTo     string
	Subject     string
	HTMLBody    string
	Attachments []string
}

// Mailer sends messages through the private SMTP relay.
type Mailer struct {
	dialer Dialer
	relay  string
	logger logrus.FieldLogger
}

// New dials the relay configured in config. The session stays plaintext and
// unauthenticated even when the relay advertises STARTTLS.
func New(config *types.Config, logger logrus.FieldLogger) *Mailer {
	d := mail.NewDialer(config.RelayHost, config.RelayPort, "", "")
	d.StartTLSPolicy = mail.NoStartTLS
	return NewWithDialer(d, fmt.Sprintf("%s:%d", config.RelayHost, config.RelayPort), logger)
}

func NewWithDialer(d Dialer, relay string, logger logrus.FieldLogger) *Mailer {
	return &Mailer{
		dialer: d,
		relay:  relay,
		logger: logger,
	}
}

func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	gm, attached := Build(msg)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("send via relay %s: %w", m.relay, err)
	}

	m.logger.WithFields(logrus.Fields{
		"relay":       m.relay,
		"recipients":  len(msg.To),
		"attachments": attached,
	}).Info("report email sent")

	return nil
}

// Build composes the multi-part message. Attachments missing on disk are skipped; the
// number actually attached is returned.
func Build(msg Message) (*mail.Message, int) {
	gm := mail.NewMessage()
	gm.SetHeader("From", msg.From)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetHeader("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(msg.From)))
	if msg.ReplyTo != "" {
		gm.SetHeader("Reply-To", msg.ReplyTo)
	}
	gm.SetBody("text/html", msg.HTMLBody)

	attached := 0
	for _, path := range msg.Attachments {
		if st, err := os.Stat(path); err != nil || !st.Mode().IsRegular() {
			continue
		}

		name := filepath.Base(path)
		gm.Attach(path, mail.SetHeader(map[string][]string{
			"Content-Type": {fmt.Sprintf("application/octet-stream; name=%q", name)},
		}))
		attached++
	}

	return gm, attached
}

// Recipients is the destination plus, when given, the requester. Each address appears once.
func Recipients(destination, requester string) []string {
	var out []string
	seen := map[string]bool{}

	for _, addr := range []string{destination, requester} {
		addr = strings.TrimSpace(addr)
		if addr == "" || seen[strings.ToLower(addr)] {
			continue
		}
		seen[strings.ToLower(addr)] = true
		out = append(out, addr)
	}

	return out
}

func domainOf(addr string) string {
	if _, domain, ok := strings.Cut(addr, "@"); ok && domain != "" {
		return strings.Trim(domain, "> ")
	}
	return "localhost"
}
