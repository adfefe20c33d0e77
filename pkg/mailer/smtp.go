package mailer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"gocg-permutas/config"
)

// SMTPMailer sends through an SMTP relay.
type SMTPMailer struct {
	from   string
	send   func(m *gomail.Message) error
	cb     *gobreaker.CircuitBreaker[string]
	logger *zap.Logger
}

// NewSMTPMailer dials cfg.SMTPHost for every message.
func NewSMTPMailer(cfg *config.MailConfig, logger *zap.Logger) *SMTPMailer {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password)
	return &SMTPMailer{
		from:   cfg.From,
		send:   func(m *gomail.Message) error { return d.DialAndSend(m) },
		cb:     newBreaker("smtp", logger),
		logger: logger,
	}
}

// Send delivers msg. The returned ID is the generated Message-ID.
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	from := msg.From
	if from == "" {
		from = m.from
	}
	id := uuid.NewString()

	gm := gomail.NewMessage()
	gm.SetHeader("From", from)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetHeader("Message-ID", fmt.Sprintf("<%s@gocg-permutas>", id))
	gm.SetBody("text/html", msg.HTML)

	_, err := m.cb.Execute(func() (string, error) {
		if err := m.send(gm); err != nil {
			return "", fmt.Errorf("smtp send: %w", err)
		}
		return id, nil
	})
	if err != nil {
		return "", breakerErr(err)
	}

	m.logger.Info("email sent", zap.String("provider", "smtp"), zap.String("id", id), zap.Strings("to", msg.To))
	return id, nil
}
