package dto

// ── permutas ──

// PermutaEntry one requested swap.
type PermutaEntry struct {
	Data           string `json:"data"             binding:"required"` // YYYY-MM-DD
	Funcao         string `json:"funcao"           binding:"required"`
	MilitarEntraRG string `json:"militar_entra_rg" binding:"required,max=20"`
	MilitarSaiRG   string `json:"militar_sai_rg"   binding:"required,max=20"`
}

// CreatePermutasRequest one or more swaps created together.
type CreatePermutasRequest struct {
	Permutas []PermutaEntry `json:"permutas" binding:"required,min=1,max=50,dive"`
}

// PermutaListRequest listing filters.
type PermutaListRequest struct {
	Arquivada *bool  `form:"arquivada"`
	Status    string `form:"status" binding:"omitempty,oneof=Pendente Aprovada Rejeitada"`
	RG        string `form:"rg"     binding:"omitempty,max=20"`
}

// SetStatusRequest administrative decision.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Aprovada Rejeitada"`
}

// BatchIDsRequest IDs for a bulk flag update.
type BatchIDsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=500"`
}

// ConfirmPermutaRequest password re-entry for a confirmation.
type ConfirmPermutaRequest struct {
	Password string `json:"password" binding:"required"`
}
