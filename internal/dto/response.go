package dto

import "time"

// ── session ──

// SessionResponse the identity carried by a session.
type SessionResponse struct {
	RG      string `json:"rg"`
	Role    string `json:"role"`
	Grad    string `json:"grad"`
	Quadro  string `json:"quadro"`
	Nome    string `json:"nome"`
	Unidade string `json:"unidade"`
}

// LoginResponse session plus the signed token. The token is also set as an
// HttpOnly cookie.
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   int             `json:"expires_in"` // seconds
	User        SessionResponse `json:"user"`
}

// ── roster ──

// MilitarResponse roster entry.
type MilitarResponse struct {
	RG          string  `json:"rg"`
	Grad        string  `json:"grad"`
	Quadro      string  `json:"quadro"`
	Nome        string  `json:"nome"`
	Unidade     string  `json:"unidade"`
	Role        *string `json:"role,omitempty"`
	DisplayName string  `json:"display_name"`
}

// ImportMilitarResponse roster import summary.
type ImportMilitarResponse struct {
	Total   int                  `json:"total"`
	Success int                  `json:"success"`
	Failed  int                  `json:"failed"`
	Errors  []ImportMilitarError `json:"errors,omitempty"`
}

// ImportMilitarError a rejected spreadsheet row.
type ImportMilitarError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ── permutas ──

// PermutaResponse resolved swap request.
type PermutaResponse struct {
	ID                          string           `json:"id"`
	Data                        string           `json:"data"` // YYYY-MM-DD
	Funcao                      string           `json:"funcao"`
	MilitarEntra                *MilitarResponse `json:"militar_entra"`
	MilitarSai                  *MilitarResponse `json:"militar_sai"`
	Status                      string           `json:"status"`
	Enviada                     bool             `json:"enviada"`
	DataEnvio                   *time.Time       `json:"data_envio,omitempty"`
	Arquivada                   bool             `json:"arquivada"`
	DataArquivamento            *time.Time       `json:"data_arquivamento,omitempty"`
	ConfirmadaPorMilitarEntra   bool             `json:"confirmada_por_militar_entra"`
	DataConfirmacaoMilitarEntra *time.Time       `json:"data_confirmacao_militar_entra,omitempty"`
	ConfirmadaPorMilitarSai     bool             `json:"confirmada_por_militar_sai"`
	DataConfirmacaoMilitarSai   *time.Time       `json:"data_confirmacao_militar_sai,omitempty"`
	Version                     int              `json:"version"`
	CreatedAt                   time.Time        `json:"created_at"`
}

// CreatePermutasResponse IDs of the created permutas, in request order.
type CreatePermutasResponse struct {
	IDs []string `json:"ids"`
}

// BatchResponse count of permutas touched by a bulk operation.
type BatchResponse struct {
	Updated int `json:"updated"`
}

// ── notifications ──

// SendEmailResponse outcome of a notification send.
type SendEmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	EmailID string `json:"email_id,omitempty"`
}
