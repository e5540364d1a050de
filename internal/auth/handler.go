package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/motolocadora/api-locadora/internal/models"
	"github.com/motolocadora/api-locadora/internal/utils"
	"gorm.io/gorm"
)

var validate = validator.New()

var ErrEmailEmUso = errors.New("e-mail já cadastrado")

type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	Senha string `json:"senha" validate:"required"`
}

type novoUsuarioRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Senha   string `json:"senha" validate:"required,min=8"`
	IsAdmin bool   `json:"isAdmin"`
}

type Handler struct {
	DB     *gorm.DB
	Tokens *Tokens
	Log    *slog.Logger
}

func NewHandler(db *gorm.DB, tokens *Tokens, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{DB: db, Tokens: tokens, Log: log.With("component", "auth")}
}

// Login gera um JWT para credenciais válidas
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "informe e-mail e senha", http.StatusBadRequest)
		return
	}

	var u models.Usuario
	err := h.DB.WithContext(r.Context()).Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&u).Error
	if err != nil || !utils.CheckSenha(u.Senha, req.Senha) {
		h.Log.Warn("login recusado", "email", req.Email)
		http.Error(w, "credenciais inválidas", http.StatusUnauthorized)
		return
	}

	token, exp, err := h.Tokens.Gerar(u.ID, u.IsAdmin)
	if err != nil {
		http.Error(w, "erro ao gerar token", http.StatusInternalServerError)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"token":     token,
		"expiresAt": exp.UTC().Format(time.RFC3339),
		"usuario":   u,
	})
}

// Me devolve o usuário do token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := UsuarioID(r.Context())
	if !ok {
		http.Error(w, "Token ausente", http.StatusUnauthorized)
		return
	}
	var u models.Usuario
	if err := h.DB.WithContext(r.Context()).First(&u, id).Error; err != nil {
		http.Error(w, "usuário não encontrado", http.StatusNotFound)
		return
	}
	utils.JSON(w, http.StatusOK, u)
}

// CriarUsuario cadastra operadores (somente admin).
func (h *Handler) CriarUsuario(w http.ResponseWriter, r *http.Request) {
	var req novoUsuarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	u, err := CriarUsuario(h.DB.WithContext(r.Context()), req.Email, req.Senha, req.IsAdmin)
	if errors.Is(err, ErrEmailEmUso) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, "erro ao salvar usuário", http.StatusInternalServerError)
		return
	}
	utils.JSON(w, http.StatusCreated, u)
}

// CriarUsuario grava o usuário com a senha em bcrypt. Também usado pelo
// comando criar-admin.
func CriarUsuario(db *gorm.DB, email, senha string, isAdmin bool) (*models.Usuario, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var n int64
	if err := db.Model(&models.Usuario{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrEmailEmUso
	}
	hash, err := utils.HashSenha(senha)
	if err != nil {
		return nil, fmt.Errorf("processar senha: %w", err)
	}
	u := models.Usuario{Email: email, Senha: hash, IsAdmin: isAdmin}
	if err := db.Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
