package dto

// ── session ──

// LoginRequest login with RG and password.
type LoginRequest struct {
	RG       string `json:"rg"       binding:"required,max=20"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest self-registration against the roster.
type RegisterRequest struct {
	RG       string `json:"rg"       binding:"required,max=20"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Grad     string `json:"grad"     binding:"required,max=20"`
	Quadro   string `json:"quadro"   binding:"max=20"`
	Nome     string `json:"nome"     binding:"required,max=100"`
	Unidade  string `json:"unidade"  binding:"required,max=100"`
}

// ChangePasswordRequest password change for the logged-in militar.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=72"`
}
