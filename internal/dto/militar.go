package dto

// ── roster ──

// CreateMilitarRequest new roster entry.
type CreateMilitarRequest struct {
	RG      string  `json:"rg"      binding:"required,max=20"`
	Grad    string  `json:"grad"    binding:"required,max=20"`
	Quadro  string  `json:"quadro"  binding:"max=20"`
	Nome    string  `json:"nome"    binding:"required,max=100"`
	Unidade string  `json:"unidade" binding:"required,max=100"`
	Role    *string `json:"role"    binding:"omitempty,oneof=admin user"`
}

// UpdateMilitarRequest replaces the roster fields of an entry.
type UpdateMilitarRequest struct {
	Grad    string  `json:"grad"    binding:"required,max=20"`
	Quadro  string  `json:"quadro"  binding:"max=20"`
	Nome    string  `json:"nome"    binding:"required,max=100"`
	Unidade string  `json:"unidade" binding:"required,max=100"`
	Role    *string `json:"role"    binding:"omitempty,oneof=admin user"`
}
