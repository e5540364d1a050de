package asaas

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Simulado implementa Gateway em memória. É usado com ASAAS_MOCK=true para
// desenvolvimento local e pelos testes dos pacotes que dependem do gateway.
type Simulado struct {
	mu          sync.Mutex
	seq         atomic.Int64
	Clientes    map[string]Cliente
	Cobrancas   map[string]Cobranca
	Assinaturas map[string]Assinatura

	// Falha, se definido, é consultado antes de cada operação ("criar assinatura",
	// "cancelar cobrança", ...). Um erro não-nil aborta a operação.
	Falha func(op string) error

	// Chamadas registra as operações executadas, na ordem.
	Chamadas []string
}

func NewSimulado() *Simulado {
	return &Simulado{
		Clientes:    map[string]Cliente{},
		Cobrancas:   map[string]Cobranca{},
		Assinaturas: map[string]Assinatura{},
	}
}

func (s *Simulado) registrar(op string) error {
	s.mu.Lock()
	s.Chamadas = append(s.Chamadas, op)
	falha := s.Falha
	s.mu.Unlock()
	if falha != nil {
		return falha(op)
	}
	return nil
}

func (s *Simulado) novoID(prefixo string) string {
	return fmt.Sprintf("%s_%06d", prefixo, s.seq.Add(1))
}

// Contou devolve quantas vezes a operação foi chamada.
func (s *Simulado) Contou(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.Chamadas {
		if c == op {
			n++
		}
	}
	return n
}

func (s *Simulado) BuscarOuCriarCliente(_ context.Context, novo NovoCliente) (*Cliente, error) {
	if err := s.registrar("buscar ou criar cliente"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Clientes {
		if (novo.CpfCnpj != "" && c.CpfCnpj == novo.CpfCnpj) || (novo.Email != "" && c.Email == novo.Email) {
			found := c
			return &found, nil
		}
	}
	if novo.CpfCnpj == "" && novo.Email == "" {
		return nil, ErrClienteSemChaves
	}
	c := Cliente{ID: s.novoID("cus"), Name: novo.Name, Email: novo.Email, CpfCnpj: novo.CpfCnpj, MobilePhone: novo.MobilePhone}
	s.Clientes[c.ID] = c
	return &c, nil
}

func (s *Simulado) BuscarClientePorCPF(_ context.Context, cpf string) (*Cliente, error) {
	return s.buscarCliente("buscar cliente", func(c Cliente) bool { return cpf != "" && c.CpfCnpj == cpf })
}

func (s *Simulado) BuscarClientePorEmail(_ context.Context, email string) (*Cliente, error) {
	return s.buscarCliente("buscar cliente", func(c Cliente) bool { return email != "" && c.Email == email })
}

func (s *Simulado) buscarCliente(op string, ok func(Cliente) bool) (*Cliente, error) {
	if err := s.registrar(op); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.Clientes {
		if ok(c) {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

func (s *Simulado) CriarCliente(_ context.Context, novo NovoCliente) (*Cliente, error) {
	if err := s.registrar("criar cliente"); err != nil {
		return nil, err
	}
	c := Cliente{ID: s.novoID("cus"), Name: novo.Name, Email: novo.Email, CpfCnpj: novo.CpfCnpj, MobilePhone: novo.MobilePhone}
	s.mu.Lock()
	s.Clientes[c.ID] = c
	s.mu.Unlock()
	return &c, nil
}

func (s *Simulado) CriarCobranca(_ context.Context, nova NovaCobranca) (*Cobranca, error) {
	if err := s.registrar("criar cobrança"); err != nil {
		return nil, err
	}
	id := s.novoID("pay")
	c := Cobranca{
		ID:          id,
		Customer:    nova.Customer,
		BillingType: nova.BillingType,
		Status:      "PENDING",
		Value:       nova.Value,
		Description: nova.Description,
		DueDate:     nova.DueDate,
		BankSlipURL: "https://sandbox.asaas.com/b/pdf/" + id,
		InvoiceURL:  "https://sandbox.asaas.com/i/" + id,
	}
	s.mu.Lock()
	s.Cobrancas[id] = c
	s.mu.Unlock()
	return &c, nil
}

func (s *Simulado) BuscarCobranca(_ context.Context, id string) (*Cobranca, error) {
	if err := s.registrar("buscar cobrança"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Cobrancas[id]
	if !ok {
		return nil, &APIError{Operacao: "buscar cobrança", Status: 404, Body: "not found"}
	}
	return &c, nil
}

func (s *Simulado) CancelarCobranca(_ context.Context, id string) error {
	if err := s.registrar("cancelar cobrança"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Cobrancas[id]
	if !ok {
		return &APIError{Operacao: "cancelar cobrança", Status: 404, Body: "not found"}
	}
	c.Deleted = true
	c.Status = "CANCELLED"
	s.Cobrancas[id] = c
	return nil
}

func (s *Simulado) ListarCobrancas(_ context.Context, f FiltroCobrancas) ([]Cobranca, error) {
	if f.Subscription == "" && f.Customer == "" {
		return nil, ErrFiltroVazio
	}
	if err := s.registrar("listar cobranças"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Cobranca
	for _, c := range s.Cobrancas {
		if f.Subscription != "" && c.Subscription != f.Subscription {
			continue
		}
		if f.Customer != "" && c.Customer != f.Customer {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// CriarAssinatura também gera a primeira parcela, como o Asaas faz.
func (s *Simulado) CriarAssinatura(_ context.Context, nova NovaAssinatura) (*Assinatura, error) {
	if err := s.registrar("criar assinatura"); err != nil {
		return nil, err
	}
	a := Assinatura{
		ID:          s.novoID("sub"),
		Customer:    nova.Customer,
		Status:      "ACTIVE",
		Value:       nova.Value,
		Cycle:       nova.Cycle,
		NextDueDate: nova.NextDueDate,
		EndDate:     nova.EndDate,
		Description: nova.Description,
	}
	payID := s.novoID("pay")
	s.mu.Lock()
	s.Assinaturas[a.ID] = a
	s.Cobrancas[payID] = Cobranca{
		ID:           payID,
		Customer:     nova.Customer,
		Subscription: a.ID,
		BillingType:  nova.BillingType,
		Status:       "PENDING",
		Value:        nova.Value,
		Description:  nova.Description,
		DueDate:      nova.NextDueDate,
		BankSlipURL:  "https://sandbox.asaas.com/b/pdf/" + payID,
	}
	s.mu.Unlock()
	return &a, nil
}

func (s *Simulado) AtualizarAssinatura(_ context.Context, id string, at AtualizacaoAssinatura) (*Assinatura, error) {
	if err := s.registrar("atualizar assinatura"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Assinaturas[id]
	if !ok {
		return nil, &APIError{Operacao: "atualizar assinatura", Status: 404, Body: "not found"}
	}
	if at.Value > 0 {
		a.Value = at.Value
	}
	if at.Cycle != "" {
		a.Cycle = at.Cycle
	}
	if at.NextDueDate != "" {
		a.NextDueDate = at.NextDueDate
	}
	if at.EndDate != "" {
		a.EndDate = at.EndDate
	}
	s.Assinaturas[id] = a
	return &a, nil
}

func (s *Simulado) CancelarAssinatura(_ context.Context, id string) error {
	if err := s.registrar("cancelar assinatura"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Assinaturas[id]
	if !ok {
		return &APIError{Operacao: "cancelar assinatura", Status: 404, Body: "not found"}
	}
	a.Status = "INACTIVE"
	s.Assinaturas[id] = a
	return nil
}

// Receber marca uma cobrança como paga, simulando a baixa do boleto.
func (s *Simulado) Receber(id string, valor float64, data time.Time) (Cobranca, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Cobrancas[id]
	if !ok {
		return Cobranca{}, false
	}
	c.Status = "RECEIVED"
	c.PaidValue = &valor
	c.PaymentDate = FormatarData(data)
	s.Cobrancas[id] = c
	return c, true
}

// Adicionar injeta uma cobrança pronta (útil para simular parcelas futuras).
func (s *Simulado) Adicionar(c Cobranca) {
	s.mu.Lock()
	s.Cobrancas[c.ID] = c
	s.mu.Unlock()
}

var (
	_ Gateway  = (*Simulado)(nil)
	_ Gateway  = (*Client)(nil)
	_ Cadastro = (*Simulado)(nil)
	_ Cadastro = (*Client)(nil)
)
