package dto

// ── notifications ──

// EmailMilitar militar as printed in a notification.
type EmailMilitar struct {
	Grad    string `json:"grad"    validate:"required"`
	Quadro  string `json:"quadro"`
	Nome    string `json:"nome"    validate:"required"`
	RG      string `json:"rg"      validate:"required"`
	Unidade string `json:"unidade"`
}

// EmailPermuta swap summary included in a notification.
type EmailPermuta struct {
	Data                      string       `json:"data"         validate:"required"`
	Funcao                    string       `json:"funcao"       validate:"required"`
	MilitarEntra              EmailMilitar `json:"militar_entra"`
	MilitarSai                EmailMilitar `json:"militar_sai"`
	ConfirmadaPorMilitarEntra bool         `json:"confirmada_por_militar_entra"`
	ConfirmadaPorMilitarSai   bool         `json:"confirmada_por_militar_sai"`
	DataConfirmacao           string       `json:"data_confirmacao,omitempty"`
}

// SendPermutaEmailRequest notify an address about a swap.
type SendPermutaEmailRequest struct {
	Email   string       `json:"email"   validate:"required,emailaddr"`
	Permuta EmailPermuta `json:"permuta"`
}
