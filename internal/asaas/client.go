package asaas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Gateway é o contrato usado pelo restante da aplicação. Client fala com a API real,
// Simulado responde localmente (ASAAS_MOCK e testes).
type Gateway interface {
	BuscarOuCriarCliente(ctx context.Context, c NovoCliente) (*Cliente, error)

	CriarCobranca(ctx context.Context, c NovaCobranca) (*Cobranca, error)
	BuscarCobranca(ctx context.Context, id string) (*Cobranca, error)
	CancelarCobranca(ctx context.Context, id string) error
	ListarCobrancas(ctx context.Context, f FiltroCobrancas) ([]Cobranca, error)

	CriarAssinatura(ctx context.Context, a NovaAssinatura) (*Assinatura, error)
	AtualizarAssinatura(ctx context.Context, id string, a AtualizacaoAssinatura) (*Assinatura, error)
	CancelarAssinatura(ctx context.Context, id string) error
}

// Cadastro expõe a busca e a criação de clientes separadamente, para quem
// precisa consultar sem criar (sincronização em modo simulação).
type Cadastro interface {
	BuscarClientePorCPF(ctx context.Context, cpf string) (*Cliente, error)
	BuscarClientePorEmail(ctx context.Context, email string) (*Cliente, error)
	CriarCliente(ctx context.Context, novo NovoCliente) (*Cliente, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *slog.Logger
}

const pageSize = 100

func NewClient(cfg Config, log *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNaoConfigurado
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log.With("component", "asaas"),
	}, nil
}

/* ============================== Clientes ============================== */

func (c *Client) BuscarClientePorCPF(ctx context.Context, cpf string) (*Cliente, error) {
	return c.buscarCliente(ctx, "cpfCnpj", cpf)
}

func (c *Client) BuscarClientePorEmail(ctx context.Context, email string) (*Cliente, error) {
	return c.buscarCliente(ctx, "email", email)
}

// buscarCliente devolve (nil, nil) quando nada é encontrado.
func (c *Client) buscarCliente(ctx context.Context, campo, valor string) (*Cliente, error) {
	q := url.Values{}
	q.Set(campo, valor)
	var raw json.RawMessage
	if err := c.do(ctx, "buscar cliente", http.MethodGet, "/customers", q, nil, &raw); err != nil {
		return nil, err
	}
	var itens []Cliente
	if err := decodeLista(raw, &itens); err != nil {
		return nil, fmt.Errorf("asaas buscar cliente: %w", err)
	}
	if len(itens) == 0 {
		return nil, nil
	}
	return &itens[0], nil
}

func (c *Client) CriarCliente(ctx context.Context, novo NovoCliente) (*Cliente, error) {
	var out Cliente
	if err := c.do(ctx, "criar cliente", http.MethodPost, "/customers", nil, novo, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, ErrRespostaSemID
	}
	return &out, nil
}

// BuscarOuCriarCliente procura por CPF, depois por e-mail; se não achar, cria.
func (c *Client) BuscarOuCriarCliente(ctx context.Context, novo NovoCliente) (*Cliente, error) {
	if novo.CpfCnpj != "" {
		found, err := c.BuscarClientePorCPF(ctx, novo.CpfCnpj)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return found, nil
		}
	}
	if novo.Email != "" {
		found, err := c.BuscarClientePorEmail(ctx, novo.Email)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return found, nil
		}
	}
	if novo.CpfCnpj == "" && novo.Email == "" {
		return nil, ErrClienteSemChaves
	}
	c.log.Info("cliente não encontrado no asaas, criando", "email", novo.Email)
	return c.CriarCliente(ctx, novo)
}

/* ============================== Cobranças ============================== */

func (c *Client) CriarCobranca(ctx context.Context, nova NovaCobranca) (*Cobranca, error) {
	if nova.BillingType == "" {
		nova.BillingType = "BOLETO"
	}
	var out Cobranca
	if err := c.do(ctx, "criar cobrança", http.MethodPost, "/payments", nil, nova, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, ErrRespostaSemID
	}
	return &out, nil
}

func (c *Client) BuscarCobranca(ctx context.Context, id string) (*Cobranca, error) {
	if id == "" {
		return nil, ErrIDVazio
	}
	var out Cobranca
	if err := c.do(ctx, "buscar cobrança", http.MethodGet, "/payments/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, ErrRespostaSemID
	}
	return &out, nil
}

func (c *Client) CancelarCobranca(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDVazio
	}
	return c.do(ctx, "cancelar cobrança", http.MethodDelete, "/payments/"+url.PathEscape(id), nil, nil, nil)
}

// ListarCobrancas percorre todas as páginas (offset/limit/hasMore).
func (c *Client) ListarCobrancas(ctx context.Context, f FiltroCobrancas) ([]Cobranca, error) {
	if f.Subscription == "" && f.Customer == "" {
		return nil, ErrFiltroVazio
	}
	var todas []Cobranca
	for offset := 0; ; offset += pageSize {
		q := url.Values{}
		if f.Subscription != "" {
			q.Set("subscription", f.Subscription)
		}
		if f.Customer != "" {
			q.Set("customer", f.Customer)
		}
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(pageSize))

		var pagina struct {
			HasMore bool       `json:"hasMore"`
			Data    []Cobranca `json:"data"`
		}
		if err := c.do(ctx, "listar cobranças", http.MethodGet, "/payments", q, nil, &pagina); err != nil {
			return nil, err
		}
		todas = append(todas, pagina.Data...)
		if !pagina.HasMore || len(pagina.Data) == 0 {
			return todas, nil
		}
	}
}

/* ============================== Assinaturas ============================== */

func (c *Client) CriarAssinatura(ctx context.Context, nova NovaAssinatura) (*Assinatura, error) {
	if nova.BillingType == "" {
		nova.BillingType = "BOLETO"
	}
	var out Assinatura
	if err := c.do(ctx, "criar assinatura", http.MethodPost, "/subscriptions", nil, nova, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, ErrRespostaSemID
	}
	return &out, nil
}

// AtualizarAssinatura tenta POST e, se o provedor recusar, repete com PUT.
func (c *Client) AtualizarAssinatura(ctx context.Context, id string, a AtualizacaoAssinatura) (*Assinatura, error) {
	if id == "" {
		return nil, ErrIDVazio
	}
	path := "/subscriptions/" + url.PathEscape(id)
	var out Assinatura
	err := c.do(ctx, "atualizar assinatura", http.MethodPost, path, nil, a, &out)
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			return nil, err
		}
		c.log.Warn("POST de assinatura recusado, tentando PUT", "subscription", id, "err", err)
		out = Assinatura{}
		if err := c.do(ctx, "atualizar assinatura", http.MethodPut, path, nil, a, &out); err != nil {
			return nil, err
		}
	}
	if out.ID == "" {
		out.ID = id
	}
	return &out, nil
}

func (c *Client) CancelarAssinatura(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDVazio
	}
	return c.do(ctx, "cancelar assinatura", http.MethodDelete, "/subscriptions/"+url.PathEscape(id), nil, nil, nil)
}

/* ============================== HTTP ============================== */

func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("asaas %s: montar payload: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("asaas %s: %w", op, err)
	}
	req.Header.Set("access_token", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("falha de transporte", "op", op, "method", method, "path", path, "err", err)
		return fmt.Errorf("asaas %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("asaas %s: ler resposta: %w", op, err)
	}
	c.log.Debug("chamada asaas", "op", op, "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Operacao: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("asaas %s: resposta inválida: %w", op, err)
	}
	return nil
}

// decodeLista aceita uma lista pura ou um objeto com "data", "items" ou "customers".
func decodeLista[T any](raw json.RawMessage, out *[]T) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '[' {
		return json.Unmarshal(raw, out)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return err
	}
	for _, k := range []string{"data", "items", "customers"} {
		if v, ok := obj[k]; ok && len(v) > 0 && v[0] == '[' {
			return json.Unmarshal(v, out)
		}
	}
	return nil
}
