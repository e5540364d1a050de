package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Frequências aceitas para cobrança da locação.
const (
	FrequenciaUnica   = "UNICO"
	FrequenciaSemanal = "WEEKLY"
	FrequenciaMensal  = "MONTHLY"
)

// NormalizarFrequencia aceita tanto o vocabulário do Asaas quanto o do formulário.
func NormalizarFrequencia(v string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "WEEKLY", "SEMANAL":
		return FrequenciaSemanal, true
	case "MONTHLY", "MENSAL":
		return FrequenciaMensal, true
	case "UNICO", "UNICA", "ÚNICO", "ÚNICA", "ONE_OFF", "AVULSO":
		return FrequenciaUnica, true
	}
	return "", false
}

// Locacao liga um Cliente a uma Moto. Nunca é apagada: cancelar é terminal.
type Locacao struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ClienteID uint    `gorm:"not null;index" json:"clienteId"`
	Cliente   Cliente `gorm:"foreignKey:ClienteID;constraint:OnDelete:RESTRICT" json:"cliente,omitempty"`
	MotoID    uint    `gorm:"not null;index" json:"motoId"`
	Moto      Moto    `gorm:"foreignKey:MotoID;constraint:OnDelete:RESTRICT" json:"moto,omitempty"`

	DataInicio      time.Time  `gorm:"type:date;not null" json:"dataInicio"`
	DataFim         *time.Time `gorm:"type:date" json:"dataFim"`
	Cancelado       bool       `gorm:"not null;default:false;index" json:"cancelado"`
	Observacoes     string     `json:"observacoes"`
	ContratoArquivo string     `json:"contratoArquivo"`

	Valor               float64 `gorm:"not null" json:"valor"`
	FrequenciaPagamento string  `gorm:"size:10;not null" json:"frequenciaPagamento"`

	AsaasPaymentID      *string `gorm:"index" json:"asaasPaymentId"`
	AsaasSubscriptionID *string `gorm:"index" json:"asaasSubscriptionId"`
	BoletoURL           *string `json:"boletoUrl"`

	// Agregados recalculados a partir dos boletos.
	PagamentoStatus *string    `gorm:"size:30" json:"pagamentoStatus"`
	ValorPago       float64    `gorm:"not null;default:0" json:"valorPago"`
	DataPagamento   *time.Time `json:"dataPagamento"`

	Boletos  []Boleto         `gorm:"foreignKey:LocacaoID" json:"boletos,omitempty"`
	Servicos []ServicoLocacao `gorm:"foreignKey:LocacaoID;constraint:OnDelete:CASCADE" json:"servicos,omitempty"`
}

func (Locacao) TableName() string { return "locacoes" }
