package models

import (
	"time"

	"gorm.io/gorm"
)

// Moto fica indisponível enquanto existir uma locação não cancelada apontando para ela.
type Moto struct {
	gorm.Model
	Placa            string       `gorm:"size:10;not null;uniqueIndex" json:"placa"`
	Modelo           string       `gorm:"not null" json:"modelo"`
	Ano              *int         `json:"ano"`
	Disponivel       bool         `gorm:"not null;default:true;index" json:"disponivel"`
	DocumentoArquivo string       `json:"documentoArquivo"`
	Imagens          []MotoImagem `gorm:"foreignKey:MotoID;constraint:OnDelete:CASCADE" json:"imagens,omitempty"`
}

func (Moto) TableName() string { return "motos" }

type MotoImagem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MotoID     uint      `gorm:"not null;index" json:"motoId"`
	Arquivo    string    `gorm:"not null" json:"arquivo"`
	DataUpload time.Time `gorm:"autoCreateTime" json:"dataUpload"`
}

func (MotoImagem) TableName() string { return "moto_imagens" }
