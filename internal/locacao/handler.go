package locacao

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/motolocadora/api-locadora/internal/arquivos"
	"github.com/motolocadora/api-locadora/internal/models"
	"github.com/motolocadora/api-locadora/internal/utils"
)

type Handler struct {
	Service  *Service
	Arquivos *arquivos.Armazenamento
	Log      *slog.Logger
}

func NewHandler(s *Service, arq *arquivos.Armazenamento) *Handler {
	return &Handler{Service: s, Arquivos: arq, Log: s.Log}
}

func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	locs, err := h.Service.Listar(r.Context(), utils.ParseBoolQuery(r, "cancelado"))
	if err != nil {
		http.Error(w, "erro ao listar locações", http.StatusInternalServerError)
		return
	}
	utils.JSON(w, http.StatusOK, locs)
}

func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	var req NovaLocacao
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	loc, err := h.Service.Criar(r.Context(), req)
	if err != nil {
		h.erro(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, loc)
}

func (h *Handler) BuscarPorID(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	loc, err := h.Service.Buscar(r.Context(), id)
	if err != nil {
		h.erro(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, loc)
}

func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	var req AtualizacaoLocacao
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	res, err := h.Service.Atualizar(r.Context(), id, req)
	if err != nil {
		h.erro(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, res)
}

func (h *Handler) Cancelar(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	res, err := h.Service.Cancelar(r.Context(), id)
	if err != nil {
		h.erro(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, res)
}

// EnviarContrato recebe o campo "arquivo" (pdf ou imagem) e substitui o anterior.
func (h *Handler) EnviarContrato(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	loc, err := h.Service.Buscar(r.Context(), id)
	if err != nil {
		h.erro(w, err)
		return
	}
	f, cab, err := arquivos.ArquivoDoForm(r, "arquivo")
	if err != nil {
		http.Error(w, "arquivo ausente", http.StatusBadRequest)
		return
	}
	defer f.Close()

	nome, err := h.Arquivos.Salvar(arquivos.Contratos, loc.ID, cab.Filename, f, arquivos.ExtDocumento)
	if err != nil {
		http.Error(w, err.Error(), arquivos.StatusErro(err))
		return
	}
	db := h.Service.DB.WithContext(r.Context())
	if err := db.Model(&models.Locacao{}).Where("id = ?", loc.ID).Update("contrato_arquivo", nome).Error; err != nil {
		_ = h.Arquivos.Remover(arquivos.Contratos, nome)
		http.Error(w, "erro ao salvar contrato", http.StatusInternalServerError)
		return
	}
	if loc.ContratoArquivo != "" {
		if err := h.Arquivos.Remover(arquivos.Contratos, loc.ContratoArquivo); err != nil {
			h.Log.Warn("contrato antigo não removido", "arquivo", loc.ContratoArquivo, "err", err)
		}
	}
	utils.JSON(w, http.StatusOK, map[string]string{"contratoArquivo": nome})
}

func (h *Handler) BaixarContrato(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	loc, err := h.Service.Buscar(r.Context(), id)
	if err != nil {
		h.erro(w, err)
		return
	}
	if loc.ContratoArquivo == "" {
		http.Error(w, "locação sem contrato", http.StatusNotFound)
		return
	}
	h.Arquivos.Servir(w, r, arquivos.Contratos, loc.ContratoArquivo)
}

func (h *Handler) RemoverContrato(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	loc, err := h.Service.Buscar(r.Context(), id)
	if err != nil {
		h.erro(w, err)
		return
	}
	db := h.Service.DB.WithContext(r.Context())
	if err := db.Model(&models.Locacao{}).Where("id = ?", loc.ID).Update("contrato_arquivo", "").Error; err != nil {
		http.Error(w, "erro ao remover contrato", http.StatusInternalServerError)
		return
	}
	if err := h.Arquivos.Remover(arquivos.Contratos, loc.ContratoArquivo); err != nil {
		h.Log.Warn("arquivo de contrato não removido", "arquivo", loc.ContratoArquivo, "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) erro(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDadosInvalidos), errors.Is(err, ErrFrequenciaInvalida),
		errors.Is(err, ErrDatasInvalidas), errors.Is(err, ErrClienteSemAsaas):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrClienteNaoEncontrado), errors.Is(err, ErrMotoNaoEncontrada),
		errors.Is(err, ErrLocacaoNaoEncontrada):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrMotoIndisponivel), errors.Is(err, ErrLocacaoJaCancelada),
		errors.Is(err, ErrFrequenciaIncompativel):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrGateway):
		h.Log.Error("falha no gateway", "err", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		h.Log.Error("erro inesperado em locação", "err", err)
		http.Error(w, "erro interno", http.StatusInternalServerError)
	}
}
