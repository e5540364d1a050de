package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/motolocadora/api-locadora/internal/asaas"
	"github.com/motolocadora/api-locadora/internal/models"
)

var (
	ErrPayloadInvalido = errors.New("payload inválido")
	ErrSemPagamentoID  = errors.New("payload sem id de pagamento")
)

// Notificacao é o evento já normalizado.
type Notificacao struct {
	Evento   string
	Cobranca asaas.Cobranca
}

// LerNotificacao extrai o pagamento do corpo. O Asaas manda {"event", "payment"},
// mas integrações antigas usam "object", "data", "data.object" ou o pagamento puro.
func LerNotificacao(corpo []byte) (Notificacao, error) {
	var topo map[string]json.RawMessage
	if err := json.Unmarshal(corpo, &topo); err != nil {
		return Notificacao{}, fmt.Errorf("%w: %v", ErrPayloadInvalido, err)
	}

	var n Notificacao
	if raw, ok := topo["event"]; ok {
		_ = json.Unmarshal(raw, &n.Evento)
	}

	raw := localizarPagamento(topo)
	if raw == nil {
		raw = corpo
	}
	if err := json.Unmarshal(raw, &n.Cobranca); err != nil {
		return Notificacao{}, fmt.Errorf("%w: %v", ErrPayloadInvalido, err)
	}
	if n.Cobranca.ID == "" {
		return Notificacao{}, ErrSemPagamentoID
	}

	switch n.Evento {
	case "PAYMENT_DELETED", "PAYMENT_CANCELED", "PAYMENT_CANCELLED":
		if n.Cobranca.Status == "" {
			n.Cobranca.Status = models.StatusCancelado
		}
	}
	return n, nil
}

func localizarPagamento(topo map[string]json.RawMessage) json.RawMessage {
	for _, k := range []string{"payment", "object"} {
		if objeto(topo[k]) {
			return topo[k]
		}
	}
	data := topo["data"]
	if !objeto(data) {
		return nil
	}
	var interno map[string]json.RawMessage
	if err := json.Unmarshal(data, &interno); err == nil {
		for _, k := range []string{"object", "payment"} {
			if objeto(interno[k]) {
				return interno[k]
			}
		}
	}
	return data
}

func objeto(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
