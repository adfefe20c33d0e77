package mailer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"gocg-permutas/config"
)

// ResendMailer sends through the Resend transactional e-mail API.
type ResendMailer struct {
	client *resend.Client
	from   string
	cb     *gobreaker.CircuitBreaker[string]
	logger *zap.Logger
}

// NewResendMailer creates a Resend client. A nil httpClient gets one with
// cfg.Timeout. cfg.ResendURL overrides the API base URL.
func NewResendMailer(cfg *config.MailConfig, httpClient *http.Client, logger *zap.Logger) *ResendMailer {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	// The SDK hides the HTTP status behind a plain error; the recorder keeps
	// it so rejections can be told apart from provider failures.
	hc := *httpClient
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc.Transport = statusRecorder{next: next}

	client := resend.NewCustomClient(&hc, cfg.ResendAPIKey)
	if cfg.ResendURL != "" {
		base := cfg.ResendURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		if u, err := url.Parse(base); err == nil {
			client.BaseURL = u
		} else {
			logger.Warn("invalid resend url, using default", zap.String("url", cfg.ResendURL), zap.Error(err))
		}
	}

	return &ResendMailer{
		client: client,
		from:   cfg.From,
		cb:     newBreaker("resend", logger),
		logger: logger,
	}
}

// Send posts msg to the API and returns the e-mail ID it assigned.
func (m *ResendMailer) Send(ctx context.Context, msg *Message) (string, error) {
	from := msg.From
	if from == "" {
		from = m.from
	}
	req := &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}

	id, err := m.cb.Execute(func() (string, error) {
		var status int
		sent, err := m.client.Emails.SendWithContext(context.WithValue(ctx, statusKey{}, &status), req)
		if err != nil {
			return "", m.classify(status, err)
		}
		return sent.Id, nil
	})
	if err != nil {
		return "", breakerErr(err)
	}

	m.logger.Info("email sent", zap.String("provider", "resend"), zap.String("id", id), zap.Strings("to", msg.To))
	return id, nil
}

// classify turns 4xx answers into ErrRejected; everything else counts
// against the breaker.
func (m *ResendMailer) classify(status int, err error) error {
	if status >= 400 && status < 500 {
		m.logger.Warn("resend rejected email", zap.Int("status", status), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	if status != 0 {
		return fmt.Errorf("resend status %d: %w", status, err)
	}
	return fmt.Errorf("resend request: %w", err)
}

// ── status capture ──

type statusKey struct{}

type statusRecorder struct {
	next http.RoundTripper
}

func (r statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.next.RoundTrip(req)
	if resp != nil {
		if p, ok := req.Context().Value(statusKey{}).(*int); ok {
			*p = resp.StatusCode
		}
	}
	return resp, err
}
