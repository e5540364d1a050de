package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims do token (inclui RBAC simples: IsAdmin)
type Claims struct {
	UserID  uint `json:"userId"`
	IsAdmin bool `json:"isAdmin"`
	jwt.RegisteredClaims
}

// Tempo de vida do access token
const AccessTTL = 12 * time.Hour

const issuer = "motolocadora-api"

var ErrSegredoVazio = errors.New("segredo JWT vazio")

// Tokens emite e valida JWT HS256 com o segredo da configuração.
type Tokens struct {
	segredo []byte
	ttl     time.Duration
	agora   func() time.Time
}

func NewTokens(segredo string) (*Tokens, error) {
	if segredo == "" {
		return nil, ErrSegredoVazio
	}
	return &Tokens{segredo: []byte(segredo), ttl: AccessTTL, agora: time.Now}, nil
}

// Gerar devolve o token e o instante em que expira.
func (t *Tokens) Gerar(userID uint, isAdmin bool) (string, time.Time, error) {
	now := t.agora()
	exp := now.Add(t.ttl)
	claims := &Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   fmt.Sprint(userID),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.segredo)
	return s, exp, err
}

// Validar confere assinatura, método, issuer e expiração.
func (t *Tokens) Validar(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.agora),
	)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return t.segredo, nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("token inválido")
	}
	return c, nil
}
