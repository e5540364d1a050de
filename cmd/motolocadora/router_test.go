package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/motolocadora/api-locadora/internal/arquivos"
	"github.com/motolocadora/api-locadora/internal/asaas"
	"github.com/motolocadora/api-locadora/internal/auth"
	"github.com/motolocadora/api-locadora/internal/utils/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func novoServidor(t *testing.T) (http.Handler, *auth.Tokens) {
	t.Helper()
	database := dbtest.Novo(t)
	arq, err := arquivos.New(t.TempDir())
	require.NoError(t, err)
	tokens, err := auth.NewTokens("segredo-teste")
	require.NoError(t, err)
	_, err = auth.CriarUsuario(database, "op@loja.com", "senha-forte", false)
	require.NoError(t, err)

	h := novoRouter(dependencias{
		db:      database,
		gateway: asaas.NewSimulado(),
		arq:     arq,
		tokens:  tokens,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return h, tokens
}

func chamar(h http.Handler, metodo, rota, token string, corpo []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(metodo, rota, bytes.NewReader(corpo))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_RotasPublicas(t *testing.T) {
	h, _ := novoServidor(t)

	assert.Equal(t, http.StatusOK, chamar(h, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, chamar(h, http.MethodPost, "/webhook/stripe", "", []byte(`{}`)).Code)
	// sem segredo configurado e sem permitir webhooks sem assinatura
	assert.Equal(t, http.StatusForbidden, chamar(h, http.MethodPost, "/webhook/asaas", "", []byte(`{}`)).Code)
}

func TestRouter_ExigeToken(t *testing.T) {
	h, tokens := novoServidor(t)

	for _, rota := range []string{"/clientes", "/motos", "/locacoes", "/boletos", "/dashboard", "/webhooks/eventos"} {
		assert.Equal(t, http.StatusUnauthorized, chamar(h, http.MethodGet, rota, "", nil).Code, rota)
	}

	tok, _, err := tokens.Gerar(1, false)
	require.NoError(t, err)
	for _, rota := range []string{"/clientes", "/motos", "/locacoes", "/boletos", "/dashboard", "/webhooks/eventos"} {
		assert.Equal(t, http.StatusOK, chamar(h, http.MethodGet, rota, tok, nil).Code, rota)
	}
	assert.Equal(t, http.StatusForbidden, chamar(h, http.MethodPost, "/usuarios", tok, []byte(`{}`)).Code)
}

func TestRouter_LoginEFluxoBasico(t *testing.T) {
	h, _ := novoServidor(t)

	b, _ := json.Marshal(auth.LoginRequest{Email: "op@loja.com", Senha: "senha-forte"})
	rec := chamar(h, http.MethodPost, "/auth/login", "", b)
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = chamar(h, http.MethodPost, "/motos", login.Token, []byte(`{"placa":"abc1d23","modelo":"CG 160","ano":2024}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = chamar(h, http.MethodGet, "/motos?disponivel=true", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ABC1D23")

	assert.Equal(t, http.StatusNotFound, chamar(h, http.MethodGet, "/locacoes/999", login.Token, nil).Code)
}

func TestRecuperar(t *testing.T) {
	h := recuperar(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
