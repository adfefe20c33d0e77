package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"gocg-permutas/internal/dto"
	"gocg-permutas/pkg/mailer"
)

// ── notification errors ──

var (
	ErrInvalidEmailRequest = errors.New("invalid email request")
)

// emailPattern matches local@domain.tld without whitespace.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NotificationService sends swap notifications by e-mail. It never retries.
type NotificationService interface {
	SendPermutaEmail(ctx context.Context, req *dto.SendPermutaEmailRequest) (*dto.SendEmailResponse, error)
}

type notificationService struct {
	from     string
	mailer   mailer.Mailer
	validate *validator.Validate
	logger   *zap.Logger
}

// emailValidator is built once at package init; a failed registration
// would make every emailaddr check panic, so it fails loudly here instead.
var emailValidator = mustEmailValidator()

func newEmailValidator() (*validator.Validate, error) {
	v := validator.New()
	err := v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("register emailaddr validation: %w", err)
	}
	return v, nil
}

func mustEmailValidator() *validator.Validate {
	v, err := newEmailValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// NewNotificationService creates a NotificationService sending as from.
func NewNotificationService(from string, m mailer.Mailer, logger *zap.Logger) NotificationService {
	return &notificationService{from: from, mailer: m, validate: emailValidator, logger: logger}
}

func (s *notificationService) SendPermutaEmail(ctx context.Context, req *dto.SendPermutaEmailRequest) (*dto.SendEmailResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEmailRequest, describeValidation(err))
	}

	subject := fmt.Sprintf("Confirmação de Permuta - %s - %s", req.Permuta.Funcao, emailDate(req.Permuta.Data))

	var body bytes.Buffer
	if err := emailTemplate.Execute(&body, emailView{
		Permuta:         req.Permuta,
		Data:            emailDate(req.Permuta.Data),
		DataConfirmacao: emailDateTime(req.Permuta.DataConfirmacao),
		EntraRG:         FormatRG(req.Permuta.MilitarEntra.RG),
		SaiRG:           FormatRG(req.Permuta.MilitarSai.RG),
	}); err != nil {
		s.logger.Error("render email failed", zap.Error(err))
		return nil, err
	}

	id, err := s.mailer.Send(ctx, &mailer.Message{
		From:    s.from,
		To:      []string{req.Email},
		Subject: subject,
		HTML:    body.String(),
	})
	if err != nil {
		s.logger.Error("send email failed",
			zap.String("to", req.Email),
			zap.String("funcao", req.Permuta.Funcao),
			zap.Error(err),
		)
		return nil, err
	}

	return &dto.SendEmailResponse{Success: true, Message: "E-mail enviado com sucesso", EmailID: id}, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Sprintf("%s failed %s", verrs[0].Namespace(), verrs[0].Tag())
	}
	return err.Error()
}

// emailDate accepts YYYY-MM-DD or RFC 3339 and renders dd/mm/yyyy.
func emailDate(s string) string {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return FormatDate(t)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return FormatDate(t.UTC())
	}
	return s
}

func emailDateTime(s string) string {
	if s == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format("02/01/2006 15:04")
	}
	return s
}

type emailView struct {
	Permuta         dto.EmailPermuta
	Data            string
	DataConfirmacao string
	EntraRG         string
	SaiRG           string
}

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="UTF-8"><title>Confirmação de Permuta de Serviço - GOCG</title></head>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
<div style="max-width: 600px; margin: 0 auto;">
<h1 style="color: #1e3a8a;">Permuta de Serviço</h1>
<p><strong>Data:</strong> {{.Data}}<br><strong>Função:</strong> {{.Permuta.Funcao}}</p>
<table style="width: 100%; border-collapse: collapse;">
<tr>
<td style="padding: 8px; border: 1px solid #d1d5db;">
<strong>ENTRA</strong><br>
{{.Permuta.MilitarEntra.Grad}} {{.Permuta.MilitarEntra.Quadro}} {{.Permuta.MilitarEntra.Nome}}<br>
RG {{.EntraRG}}{{with .Permuta.MilitarEntra.Unidade}} · {{.}}{{end}}<br>
{{if .Permuta.ConfirmadaPorMilitarEntra}}Confirmado{{else}}Aguardando confirmação{{end}}
</td>
<td style="padding: 8px; border: 1px solid #d1d5db;">
<strong>SAI</strong><br>
{{.Permuta.MilitarSai.Grad}} {{.Permuta.MilitarSai.Quadro}} {{.Permuta.MilitarSai.Nome}}<br>
RG {{.SaiRG}}{{with .Permuta.MilitarSai.Unidade}} · {{.}}{{end}}<br>
{{if .Permuta.ConfirmadaPorMilitarSai}}Confirmado{{else}}Aguardando confirmação{{end}}
</td>
</tr>
</table>
{{with .DataConfirmacao}}<p>Confirmada em {{.}}.</p>{{end}}
<p style="font-size: 12px; color: #6b7280;">GOCG Permutas</p>
</div>
</body>
</html>
`))
