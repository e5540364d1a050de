package asaas

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func novoClienteTeste(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "chave", Timeout: 2 * time.Second}, nil)
	require.NoError(t, err)
	return c
}

func TestNewClient_SemChave(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://x"}, nil)
	require.ErrorIs(t, err, ErrNaoConfigurado)
}

func TestCriarAssinatura_EnviaTokenEPayload(t *testing.T) {
	c := novoClienteTeste(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/subscriptions", r.URL.Path)
		assert.Equal(t, "chave", r.Header.Get("access_token"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cus_1", body["customer"])
		assert.Equal(t, "BOLETO", body["billingType"])
		assert.Equal(t, "MONTHLY", body["cycle"])
		assert.NotContains(t, body, "endDate")

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"sub_1","customer":"cus_1","value":300,"cycle":"MONTHLY"}`))
	})

	a, err := c.CriarAssinatura(context.Background(), NovaAssinatura{
		Customer: "cus_1", Value: 300, Cycle: "MONTHLY", NextDueDate: "2026-01-10",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_1", a.ID)
}

func TestErroNao2xx(t *testing.T) {
	c := novoClienteTeste(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"code":"invalid_customer"}]}`))
	})

	_, err := c.CriarCobranca(context.Background(), NovaCobranca{Customer: "x", Value: 10, DueDate: "2026-01-01"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Body, "invalid_customer")
}

func TestRespostaSemID(t *testing.T) {
	c := novoClienteTeste(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	_, err := c.CriarCobranca(context.Background(), NovaCobranca{Customer: "x", Value: 10})
	require.ErrorIs(t, err, ErrRespostaSemID)
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	_, err = c.BuscarCobranca(context.Background(), "pay_1")
	require.Error(t, err)
}

func TestListarCobrancas_Paginacao(t *testing.T) {
	chamadas := 0
	c := novoClienteTeste(t, func(w http.ResponseWriter, r *http.Request) {
		chamadas++
		assert.Equal(t, "sub_9", r.URL.Query().Get("subscription"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if offset == 0 {
			_, _ = w.Write([]byte(`{"hasMore":true,"data":[{"id":"pay_1","status":"RECEIVED","value":10}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"hasMore":false,"data":[{"id":"pay_2","status":"PENDING","value":10}]}`))
	})

	lista, err := c.ListarCobrancas(context.Background(), FiltroCobrancas{Subscription: "sub_9"})
	require.NoError(t, err)
	require.Len(t, lista, 2)
	assert.Equal(t, "pay_2", lista[1].ID)
	assert.Equal(t, 2, chamadas)
}

func TestListarCobrancas_FiltroVazio(t *testing.T) {
	c := novoClienteTeste(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("não deveria chamar o provedor")
	})
	_, err := c.ListarCobrancas(context.Background(), FiltroCobrancas{})
	require.ErrorIs(t, err, ErrFiltroVazio)
}

func TestBuscarOuCriarCliente(t *testing.T) {
	t.Run("encontra por cpf", func(t *testing.T) {
		c := novoClienteTeste(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "12345678900", r.URL.Query().Get("cpfCnpj"))
			_, _ = w.Write([]byte(`{"data":[{"id":"cus_cpf","name":"Ana"}]}`))
		})
		got, err := c.BuscarOuCriarCliente(context.Background(), NovoCliente{Name: "Ana", CpfCnpj: "12345678900", Email: "ana@x.com"})
		require.NoError(t, err)
		assert.Equal(t, "cus_cpf", got.ID)
	})

	t.Run("cai para email e depois cria", func(t *testing.T) {
		var metodos []string
		c := novoClienteTeste(t, func(w http.ResponseWriter, r *http.Request) {
			metodos = append(metodos, r.Method+" "+r.URL.RawQuery)
			if r.Method == http.MethodGet {
				_, _ = w.Write([]byte(`{"data":[]}`))
				return
			}
			b, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(b), `"cpfCnpj":"111"`)
			_, _ = w.Write([]byte(`{"id":"cus_novo"}`))
		})
		got, err := c.BuscarOuCriarCliente(context.Background(), NovoCliente{Name: "Bia", CpfCnpj: "111", Email: "bia@x.com"})
		require.NoError(t, err)
		assert.Equal(t, "cus_novo", got.ID)
		require.Len(t, metodos, 3)
		assert.Equal(t, "POST ", metodos[2])
	})
}

func TestAtualizarAssinatura_FallbackPUT(t *testing.T) {
	var metodos []string
	c := novoClienteTeste(t, func(w http.ResponseWriter, r *http.Request) {
		metodos = append(metodos, r.Method)
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_, _ = w.Write([]byte(`{"id":"sub_1","value":99}`))
	})

	a, err := c.AtualizarAssinatura(context.Background(), "sub_1", AtualizacaoAssinatura{Value: 99})
	require.NoError(t, err)
	assert.Equal(t, 99.0, a.Value)
	assert.Equal(t, []string{http.MethodPost, http.MethodPut}, metodos)
}

func TestCobranca_ValorPago(t *testing.T) {
	net, paid := 95.0, 150.0

	assert.Equal(t, paid, *Cobranca{Value: 100, NetValue: &net, PaidValue: &paid}.ValorPago())
	assert.Equal(t, net, *Cobranca{Value: 100, NetValue: &net}.ValorPago())
	assert.Equal(t, 100.0, *Cobranca{Value: 100, Status: "RECEIVED"}.ValorPago())
	assert.Nil(t, Cobranca{Value: 100, Status: "PENDING"}.ValorPago())
}

func TestParseData(t *testing.T) {
	d := ParseData("2026-03-05")
	require.NotNil(t, d)
	assert.Equal(t, time.March, d.Month())
	require.NotNil(t, ParseData("05/03/2026"))
	assert.Nil(t, ParseData(""))
	assert.Nil(t, ParseData("ontem"))
}
