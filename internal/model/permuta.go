package model

import "time"

// Permuta status values.
const (
	StatusPendente  = "Pendente"
	StatusAprovada  = "Aprovada"
	StatusRejeitada = "Rejeitada"
)

// Duty functions, in document priority order.
const (
	FuncaoPrimeiroSocorro = "COMANDANTE DO 1º SOCORRO"
	FuncaoSegundoSocorro  = "COMANDANTE DO 2º SOCORRO"
	FuncaoBuscaSalvamento = "BUSCA E SALVAMENTO"
)

// Funcoes lists the known duty functions in document priority order.
var Funcoes = []string{FuncaoPrimeiroSocorro, FuncaoSegundoSocorro, FuncaoBuscaSalvamento}

// IsValidFuncao reports whether f is a known duty function.
func IsValidFuncao(f string) bool {
	for _, known := range Funcoes {
		if f == known {
			return true
		}
	}
	return false
}

// Permuta swap request (table permutas). Only the two RGs are stored; the
// Entra/Sai sub-objects are filled by the projection and never persisted.
type Permuta struct {
	PermutaID                   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"  json:"id"`
	Data                        time.Time  `gorm:"type:date;not null"                              json:"data"`
	Funcao                      string     `gorm:"type:varchar(50);not null"                       json:"funcao"`
	MilitarEntraRG              string     `gorm:"column:militar_entra_rg;type:varchar(20);not null" json:"militar_entra_rg"`
	MilitarSaiRG                string     `gorm:"column:militar_sai_rg;type:varchar(20);not null"   json:"militar_sai_rg"`
	Status                      string     `gorm:"type:varchar(20);not null;default:'Pendente'"    json:"status"` // Pendente | Aprovada | Rejeitada
	Enviada                     bool       `gorm:"not null;default:false"                          json:"enviada"`
	DataEnvio                   *time.Time `json:"data_envio,omitempty"`
	Arquivada                   bool       `gorm:"not null;default:false"                          json:"arquivada"`
	DataArquivamento            *time.Time `json:"data_arquivamento,omitempty"`
	ConfirmadaPorMilitarEntra   bool       `gorm:"not null;default:false"                          json:"confirmada_por_militar_entra"`
	DataConfirmacaoMilitarEntra *time.Time `json:"data_confirmacao_militar_entra,omitempty"`
	ConfirmadaPorMilitarSai     bool       `gorm:"not null;default:false"                          json:"confirmada_por_militar_sai"`
	DataConfirmacaoMilitarSai   *time.Time `json:"data_confirmacao_militar_sai,omitempty"`
	VersionedModel

	// resolved by the projection
	Entra *Militar `gorm:"-" json:"militar_entra,omitempty"`
	Sai   *Militar `gorm:"-" json:"militar_sai,omitempty"`
}

func (Permuta) TableName() string { return "permutas" }

// Side identifies one of the two personnel references of a permuta.
type Side int

const (
	SideNone Side = iota
	SideEntra
	SideSai
)

// SideOf returns which side rg occupies.
func (p *Permuta) SideOf(rg string) Side {
	switch rg {
	case p.MilitarEntraRG:
		return SideEntra
	case p.MilitarSaiRG:
		return SideSai
	default:
		return SideNone
	}
}

// IsConfirmedBy reports whether side already confirmed.
func (p *Permuta) IsConfirmedBy(side Side) bool {
	switch side {
	case SideEntra:
		return p.ConfirmadaPorMilitarEntra
	case SideSai:
		return p.ConfirmadaPorMilitarSai
	default:
		return false
	}
}

// Confirm sets side's confirmation flag and timestamp.
func (p *Permuta) Confirm(side Side, at time.Time) {
	switch side {
	case SideEntra:
		p.ConfirmadaPorMilitarEntra = true
		p.DataConfirmacaoMilitarEntra = &at
	case SideSai:
		p.ConfirmadaPorMilitarSai = true
		p.DataConfirmacaoMilitarSai = &at
	}
}

// Invert swaps the two references together with their confirmations, so a
// confirmation stays attached to the militar who gave it.
func (p *Permuta) Invert() {
	p.MilitarEntraRG, p.MilitarSaiRG = p.MilitarSaiRG, p.MilitarEntraRG
	p.ConfirmadaPorMilitarEntra, p.ConfirmadaPorMilitarSai = p.ConfirmadaPorMilitarSai, p.ConfirmadaPorMilitarEntra
	p.DataConfirmacaoMilitarEntra, p.DataConfirmacaoMilitarSai = p.DataConfirmacaoMilitarSai, p.DataConfirmacaoMilitarEntra
	p.Entra, p.Sai = p.Sai, p.Entra
}
