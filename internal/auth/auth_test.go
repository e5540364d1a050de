package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/motolocadora/api-locadora/internal/utils/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_GerarEValidar(t *testing.T) {
	tk, err := NewTokens("segredo")
	require.NoError(t, err)

	s, exp, err := tk.Gerar(7, true)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(AccessTTL), exp, time.Minute)

	c, err := tk.Validar(s)
	require.NoError(t, err)
	assert.Equal(t, uint(7), c.UserID)
	assert.True(t, c.IsAdmin)

	outro, _ := NewTokens("outro")
	_, err = outro.Validar(s)
	assert.Error(t, err)

	_, err = NewTokens("")
	assert.ErrorIs(t, err, ErrSegredoVazio)
}

func TestTokens_Expirado(t *testing.T) {
	tk, err := NewTokens("segredo")
	require.NoError(t, err)
	s, _, err := tk.Gerar(1, false)
	require.NoError(t, err)

	tk.agora = func() time.Time { return time.Now().Add(AccessTTL + time.Hour) }
	_, err = tk.Validar(s)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestMiddleware(t *testing.T) {
	tk, err := NewTokens("segredo")
	require.NoError(t, err)
	protegido := tk.MiddlewareAutenticacao(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := UsuarioID(r.Context())
		assert.Equal(t, uint(3), id)
		w.WriteHeader(http.StatusTeapot)
	})))

	chamar := func(cab string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if cab != "" {
			req.Header.Set("Authorization", cab)
		}
		rec := httptest.NewRecorder()
		protegido.ServeHTTP(rec, req)
		return rec.Code
	}

	admin, _, _ := tk.Gerar(3, true)
	comum, _, _ := tk.Gerar(3, false)
	assert.Equal(t, http.StatusUnauthorized, chamar(""))
	assert.Equal(t, http.StatusUnauthorized, chamar("Bearer lixo"))
	assert.Equal(t, http.StatusForbidden, chamar("Bearer "+comum))
	assert.Equal(t, http.StatusTeapot, chamar("Bearer "+admin))
}

func TestLogin(t *testing.T) {
	db := dbtest.Novo(t)
	tk, err := NewTokens("segredo")
	require.NoError(t, err)
	h := NewHandler(db, tk, nil)

	_, err = CriarUsuario(db, "Admin@Loja.com", "senha-forte", true)
	require.NoError(t, err)
	_, err = CriarUsuario(db, "admin@loja.com", "x", false)
	require.ErrorIs(t, err, ErrEmailEmUso)

	login := func(email, senha string) *httptest.ResponseRecorder {
		b, _ := json.Marshal(LoginRequest{Email: email, Senha: senha})
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(b)))
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, login("admin@loja.com", "errada").Code)
	assert.Equal(t, http.StatusUnauthorized, login("ninguem@loja.com", "senha-forte").Code)
	assert.Equal(t, http.StatusBadRequest, login("", "").Code)

	rec := login("admin@loja.com", "senha-forte")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	c, err := tk.Validar(resp.Token)
	require.NoError(t, err)
	assert.True(t, c.IsAdmin)
	assert.NotContains(t, rec.Body.String(), "senha-forte")
}
