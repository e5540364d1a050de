package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEvento guarda cada notificação autenticada recebida do gateway,
// com o resultado da conciliação, para auditoria do operador.
type WebhookEvento struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Provider       string         `gorm:"size:20;not null;index" json:"provider"`
	Evento         string         `gorm:"size:60;index" json:"evento"`
	AsaasPaymentID string         `gorm:"index" json:"asaasPaymentId"`
	Payload        datatypes.JSON `json:"payload"`
	Processado     bool           `gorm:"not null;default:false;index" json:"processado"`
	Erro           string         `json:"erro,omitempty"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (WebhookEvento) TableName() string { return "webhook_eventos" }
