package model

import "time"

// Usuario registered identity (table usuarios). The roster fields are a
// snapshot taken when the militar registered.
type Usuario struct {
	RG           string    `gorm:"type:varchar(20);primaryKey"              json:"rg"`
	PasswordHash string    `gorm:"type:varchar(255);not null"               json:"-"`
	Role         string    `gorm:"type:varchar(10);not null;default:'user'" json:"role"`
	Grad         string    `gorm:"type:varchar(20);not null"                json:"grad"`
	Quadro       string    `gorm:"type:varchar(20);not null"                json:"quadro"`
	Nome         string    `gorm:"type:varchar(100);not null"               json:"nome"`
	Unidade      string    `gorm:"type:varchar(100);not null"               json:"unidade"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"       json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"       json:"updated_at"`
}

func (Usuario) TableName() string { return "usuarios" }
