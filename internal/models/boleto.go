package models

import "time"

// Status de cobrança no vocabulário do Asaas.
const (
	StatusPendente         = "PENDING"
	StatusRecebido         = "RECEIVED"
	StatusConfirmado       = "CONFIRMED"
	StatusRecebidoDinheiro = "RECEIVED_IN_CASH"
	StatusVencido          = "OVERDUE"
	StatusCancelado        = "CANCELLED"
)

// StatusQuitados são os status cujo valor pago entra no agregado da locação.
var StatusQuitados = []string{StatusRecebido, StatusConfirmado, StatusRecebidoDinheiro}

func StatusQuitado(status string) bool {
	for _, s := range StatusQuitados {
		if s == status {
			return true
		}
	}
	return false
}

// Boleto é qualquer cobrança emitida pelo gateway (avulsa ou parcela de assinatura).
// AsaasPaymentID é a chave de conciliação.
type Boleto struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	LocacaoID      *uint      `gorm:"index" json:"locacaoId"`
	AsaasPaymentID string     `gorm:"not null;uniqueIndex" json:"asaasPaymentId"`
	Status         string     `gorm:"size:30;not null;index" json:"status"`
	Valor          float64    `gorm:"not null;default:0" json:"valor"`
	ValorPago      *float64   `json:"valorPago"`
	BoletoURL      string     `json:"boletoUrl"`
	Descricao      string     `json:"descricao"`
	DataVencimento *time.Time `gorm:"type:date" json:"dataVencimento"`
	DataPagamento  *time.Time `gorm:"type:date" json:"dataPagamento"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (Boleto) TableName() string { return "boletos" }
