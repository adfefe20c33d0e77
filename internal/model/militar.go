package model

import "strings"

// Roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Militar roster entry (table militares). RG is the join key used by every
// permuta.
type Militar struct {
	RG      string  `gorm:"type:varchar(20);primaryKey"  json:"rg"`
	Grad    string  `gorm:"type:varchar(20);not null"    json:"grad"`
	Quadro  string  `gorm:"type:varchar(20);not null"    json:"quadro"`
	Nome    string  `gorm:"type:varchar(100);not null"   json:"nome"`
	Unidade string  `gorm:"type:varchar(100);not null"   json:"unidade"`
	Role    *string `gorm:"type:varchar(10)"             json:"role,omitempty"`
	BaseModel
}

func (Militar) TableName() string { return "militares" }

// DisplayName renders "GRAD QUADRO NOME" as printed on swap documents.
func (m *Militar) DisplayName() string {
	return strings.Join(strings.Fields(m.Grad+" "+m.Quadro+" "+m.Nome), " ")
}
