package models

import "time"

// ServicoLocacao é um serviço avulso (revisão, troca de peça...) lançado na locação.
type ServicoLocacao struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	LocacaoID     uint      `gorm:"not null;index" json:"locacaoId"`
	Descricao     string    `gorm:"not null" json:"descricao"`
	Valor         float64   `gorm:"not null;default:0" json:"valor"`
	Quilometragem *int      `json:"quilometragem"`
	DataCriacao   time.Time `gorm:"autoCreateTime" json:"dataCriacao"`
}

func (ServicoLocacao) TableName() string { return "servicos_locacao" }
