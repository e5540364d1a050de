package boleto

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/motolocadora/api-locadora/internal/utils"
	"gorm.io/gorm"
)

type Handler struct {
	DB            *gorm.DB
	Repository    Repository
	Sincronizador *Sincronizador
	Log           *slog.Logger
}

func NewHandler(db *gorm.DB, sinc *Sincronizador, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{DB: db, Repository: NewRepository(), Sincronizador: sinc, Log: log}
}

// Listar aceita ?status=PENDING,OVERDUE
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	var status []string
	for _, s := range strings.Split(r.URL.Query().Get("status"), ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			status = append(status, s)
		}
	}
	boletos, err := h.Repository.ListarPorStatus(h.DB.WithContext(r.Context()), status)
	if err != nil {
		http.Error(w, "erro ao listar boletos", http.StatusInternalServerError)
		return
	}
	utils.JSON(w, http.StatusOK, boletos)
}

func (h *Handler) ListarPorLocacao(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	boletos, err := h.Repository.ListarPorLocacao(h.DB.WithContext(r.Context()), id)
	if err != nil {
		http.Error(w, "erro ao listar boletos", http.StatusInternalServerError)
		return
	}
	utils.JSON(w, http.StatusOK, boletos)
}

func (h *Handler) SincronizarLocacao(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	res, err := h.Sincronizador.SincronizarLocacao(r.Context(), id)
	if err != nil {
		h.erroSincronizacao(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, res)
}

func (h *Handler) SincronizarCliente(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	res, err := h.Sincronizador.SincronizarCliente(r.Context(), id)
	if err != nil {
		h.erroSincronizacao(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, res)
}

func (h *Handler) erroSincronizacao(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrLocacaoInexistente), errors.Is(err, ErrClienteInexistente):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrLocacaoSemCobranca), errors.Is(err, ErrClienteSemAsaas):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.Log.Error("falha na sincronização", "err", err)
		http.Error(w, "falha ao consultar o asaas", http.StatusBadGateway)
	}
}
