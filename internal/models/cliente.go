package models

import (
	"time"

	"gorm.io/gorm"
)

// Cliente é o locatário. AsaasID só é preenchido depois que o cadastro
// correspondente existe no Asaas.
type Cliente struct {
	gorm.Model
	Nome               string     `gorm:"not null" json:"nome"`
	Email              *string    `gorm:"uniqueIndex" json:"email"`
	Telefone           string     `json:"telefone"`
	CPF                *string    `gorm:"column:cpf;uniqueIndex" json:"cpf"`
	Endereco           string     `json:"endereco"`
	DataNascimento     *time.Time `json:"dataNascimento"`
	Observacoes        string     `json:"observacoes"`
	HabilitacaoArquivo string     `json:"habilitacaoArquivo"`
	AsaasID            *string    `gorm:"index" json:"asaasId"`
}

func (Cliente) TableName() string { return "clientes" }
