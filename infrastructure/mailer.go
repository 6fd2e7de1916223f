package infrastructure

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/resend/resend-go/v2"

	"job-board/domain"
)

//go:generate mockgen -source=mailer.go -destination=mocks/mock_email_sender.go -package=mocks

// EmailSender delivers one message through an external provider.
type EmailSender interface {
	Send(ctx context.Context, msg domain.EmailMessage) error
	Name() string
}

// NewEmailSender picks the provider from configuration. A nil sender means
// no provider is configured and messages are only logged.
func NewEmailSender(cfg *Config) EmailSender {
	switch {
	case cfg.ResendAPIKey != "":
		return NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
	case cfg.SMTP.Enabled():
		return &SMTPSender{Config: cfg.SMTP, From: cfg.EmailFrom}
	}
	return nil
}

type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) Name() string { return "resend" }

func (s *ResendSender) Send(ctx context.Context, msg domain.EmailMessage) error {
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	if sent == nil || sent.Id == "" {
		return fmt.Errorf("resend send: empty response")
	}
	return nil
}

// SMTPSender sends multipart/alternative mail with net/smtp and PLAIN auth.
type SMTPSender struct {
	Config SMTPConfig
	From   string

	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (s *SMTPSender) Name() string { return "smtp" }

func (s *SMTPSender) Send(ctx context.Context, msg domain.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := s.Config.Host + ":" + s.Config.Port
	auth := smtp.PlainAuth("", s.Config.Username, s.Config.Password, s.Config.Host)

	from := s.From
	if from == "" {
		from = s.Config.Username
	}
	body, err := buildMIMEMessage(from, msg)
	if err != nil {
		return err
	}

	send := s.sendMail
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(addr, auth, envelopeAddress(from), []string{msg.To}, body); err != nil {
		return fmt.Errorf("SMTP send error: %w", err)
	}
	return nil
}

// envelopeAddress strips a display name: "Job Board <a@b.c>" -> "a@b.c".
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return from
}

func buildMIMEMessage(from string, msg domain.EmailMessage) ([]byte, error) {
	boundary, err := mimeBoundary()
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("From: " + headerValue(from) + "\r\n")
	b.WriteString("To: " + headerValue(msg.To) + "\r\n")
	b.WriteString("Subject: " + headerValue(msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(`Content-Type: multipart/alternative; boundary="` + boundary + `"` + "\r\n\r\n")

	b.WriteString("--" + boundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.Text + "\r\n")
	if msg.HTML != "" {
		b.WriteString("--" + boundary + "\r\n")
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		b.WriteString(msg.HTML + "\r\n")
	}
	b.WriteString("--" + boundary + "--\r\n")
	return []byte(b.String()), nil
}

var headerBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// headerValue keeps user-supplied text (board names, job titles) from
// injecting extra headers.
func headerValue(v string) string {
	return headerBreaks.Replace(v)
}

func mimeBoundary() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "jobboard-" + hex.EncodeToString(buf), nil
}
