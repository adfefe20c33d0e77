// Package mailer sends transactional e-mail through SMTP, the Resend HTTP
// API or the application log.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gocg-permutas/config"
)

var (
	// ErrUnavailable the provider is failing and the circuit breaker is open.
	ErrUnavailable = errors.New("serviço de e-mail indisponível, tente novamente mais tarde")
	// ErrRejected the provider refused the message.
	ErrRejected = errors.New("e-mail recusado pelo provedor")
)

// Message an HTML e-mail.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Mailer delivers a message and returns the provider's message ID.
type Mailer interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// New builds the mailer selected by cfg.Provider.
func New(cfg *config.MailConfig, logger *zap.Logger) (Mailer, error) {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPMailer(cfg, logger), nil
	case "resend":
		return NewResendMailer(cfg, nil, logger), nil
	case "log", "":
		return NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}
