package asaas

import (
	"strings"
	"time"
)

const layoutData = "2006-01-02"

// Cliente é o cadastro de cliente no Asaas.
type Cliente struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	CpfCnpj     string `json:"cpfCnpj,omitempty"`
	MobilePhone string `json:"mobilePhone,omitempty"`
}

type NovoCliente struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	CpfCnpj     string `json:"cpfCnpj,omitempty"`
	MobilePhone string `json:"mobilePhone,omitempty"`
}

// Cobranca é o recurso "payment" do Asaas: um boleto avulso ou uma parcela de assinatura.
type Cobranca struct {
	ID                string   `json:"id"`
	Customer          string   `json:"customer,omitempty"`
	Subscription      string   `json:"subscription,omitempty"`
	BillingType       string   `json:"billingType,omitempty"`
	Status            string   `json:"status"`
	Value             float64  `json:"value"`
	NetValue          *float64 `json:"netValue,omitempty"`
	PaidValue         *float64 `json:"paidValue,omitempty"`
	Description       string   `json:"description,omitempty"`
	DueDate           string   `json:"dueDate,omitempty"`
	PaymentDate       string   `json:"paymentDate,omitempty"`
	ClientPaymentDate string   `json:"clientPaymentDate,omitempty"`
	BankSlipURL       string   `json:"bankSlipUrl,omitempty"`
	InvoiceURL        string   `json:"invoiceUrl,omitempty"`
	ExternalReference string   `json:"externalReference,omitempty"`
	Deleted           bool     `json:"deleted,omitempty"`
}

// Quitada indica status cujo valor conta como recebido.
func (c Cobranca) Quitada() bool {
	switch c.Status {
	case "RECEIVED", "CONFIRMED", "RECEIVED_IN_CASH":
		return true
	}
	return false
}

// ValorPago devolve paidValue, depois netValue; sem nenhum dos dois,
// uma cobrança quitada conta pelo valor nominal.
func (c Cobranca) ValorPago() *float64 {
	switch {
	case c.PaidValue != nil:
		return c.PaidValue
	case c.NetValue != nil:
		return c.NetValue
	case c.Quitada():
		v := c.Value
		return &v
	}
	return nil
}

// Vencimento e Pagamento convertem as datas do Asaas (AAAA-MM-DD).
func (c Cobranca) Vencimento() *time.Time { return ParseData(c.DueDate) }

func (c Cobranca) Pagamento() *time.Time {
	if d := ParseData(c.PaymentDate); d != nil {
		return d
	}
	return ParseData(c.ClientPaymentDate)
}

// ParseData aceita AAAA-MM-DD, DD/MM/AAAA e RFC3339; vazio ou inválido vira nil.
func ParseData(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{layoutData, "02/01/2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// FormatarData formata no layout aceito pelo Asaas.
func FormatarData(t time.Time) string { return t.Format(layoutData) }

type NovaCobranca struct {
	Customer          string  `json:"customer"`
	BillingType       string  `json:"billingType"`
	Value             float64 `json:"value"`
	DueDate           string  `json:"dueDate"`
	Description       string  `json:"description,omitempty"`
	ExternalReference string  `json:"externalReference,omitempty"`
}

// Assinatura é a cobrança recorrente (semanal ou mensal).
type Assinatura struct {
	ID          string  `json:"id"`
	Customer    string  `json:"customer"`
	Status      string  `json:"status,omitempty"`
	Value       float64 `json:"value"`
	Cycle       string  `json:"cycle"`
	NextDueDate string  `json:"nextDueDate,omitempty"`
	EndDate     string  `json:"endDate,omitempty"`
	Description string  `json:"description,omitempty"`
}

type NovaAssinatura struct {
	Customer          string  `json:"customer"`
	BillingType       string  `json:"billingType"`
	Value             float64 `json:"value"`
	Cycle             string  `json:"cycle"`
	NextDueDate       string  `json:"nextDueDate"`
	EndDate           string  `json:"endDate,omitempty"`
	Description       string  `json:"description,omitempty"`
	ExternalReference string  `json:"externalReference,omitempty"`
}

type AtualizacaoAssinatura struct {
	Value       float64 `json:"value,omitempty"`
	Cycle       string  `json:"cycle,omitempty"`
	NextDueDate string  `json:"nextDueDate,omitempty"`
	EndDate     string  `json:"endDate,omitempty"`
	Description string  `json:"description,omitempty"`
}

// FiltroCobrancas restringe a listagem por assinatura e/ou cliente.
type FiltroCobrancas struct {
	Subscription string
	Customer     string
}
