package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrSemCredencial       = errors.New("webhook sem assinatura ou token")
	ErrCredencialInvalida  = errors.New("assinatura ou token do webhook inválido")
	ErrWebhookDesabilitado = errors.New("webhook desabilitado: segredo não configurado")
)

var (
	cabecalhosAssinatura = []string{"X-Signature", "X-Hub-Signature-256", "Asaas-Signature"}
	cabecalhosToken      = []string{"asaas-access-token", "X-Webhook-Token", "Asaas-Webhook-Token", "Authorization"}
)

// Autenticador valida a origem de uma notificação: HMAC-SHA256 do corpo ou
// token compartilhado, sempre comparados em tempo constante.
type Autenticador struct {
	Segredo string
	// PermitirSemAssinatura aceita tudo quando não há segredo. Só para desenvolvimento.
	PermitirSemAssinatura bool
}

func (a Autenticador) Verificar(r *http.Request, corpo []byte) error {
	if a.Segredo == "" {
		if a.PermitirSemAssinatura {
			return nil
		}
		return ErrWebhookDesabilitado
	}

	if assinatura := primeiroCabecalho(r, cabecalhosAssinatura); assinatura != "" {
		if a.assinaturaValida(assinatura, corpo) {
			return nil
		}
		return ErrCredencialInvalida
	}

	token := primeiroCabecalho(r, cabecalhosToken)
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if token == "" {
		return ErrSemCredencial
	}
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.Segredo)) == 1 {
		return nil
	}
	return ErrCredencialInvalida
}

func (a Autenticador) assinaturaValida(assinatura string, corpo []byte) bool {
	assinatura = strings.TrimPrefix(strings.TrimSpace(assinatura), "sha256=")
	recebida, err := hex.DecodeString(strings.ToLower(assinatura))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(a.Segredo))
	mac.Write(corpo)
	return subtle.ConstantTimeCompare(recebida, mac.Sum(nil)) == 1
}

// Assinar devolve o HMAC-SHA256 em hexadecimal, no formato aceito por Verificar.
func Assinar(segredo string, corpo []byte) string {
	mac := hmac.New(sha256.New, []byte(segredo))
	mac.Write(corpo)
	return hex.EncodeToString(mac.Sum(nil))
}

func primeiroCabecalho(r *http.Request, nomes []string) string {
	for _, n := range nomes {
		if v := strings.TrimSpace(r.Header.Get(n)); v != "" {
			return v
		}
	}
	return ""
}
