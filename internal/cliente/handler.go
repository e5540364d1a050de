package cliente

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/motolocadora/api-locadora/internal/arquivos"
	"github.com/motolocadora/api-locadora/internal/asaas"
	"github.com/motolocadora/api-locadora/internal/models"
	"github.com/motolocadora/api-locadora/internal/utils"
	"gorm.io/gorm"
)

var validate = validator.New()

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Gateway    asaas.Gateway
	Arquivos   *arquivos.Armazenamento
	Log        *slog.Logger
}

func NewHandler(db *gorm.DB, gw asaas.Gateway, arq *arquivos.Armazenamento, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{DB: db, Repository: NewRepository(), Gateway: gw, Arquivos: arq, Log: log.With("component", "cliente")}
}

// Listar aceita ?busca= para filtrar por nome, e-mail ou CPF.
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	clientes, err := h.Repository.ListarTodos(h.DB.WithContext(r.Context()), r.URL.Query().Get("busca"))
	if err != nil {
		http.Error(w, "erro ao listar clientes", http.StatusInternalServerError)
		return
	}
	utils.JSON(w, http.StatusOK, clientes)
}

// Criar cadastra o cliente e tenta vinculá-lo ao Asaas. Se o gateway falhar o
// cadastro local permanece e a resposta traz um aviso.
func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	var req clienteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var c models.Cliente
	req.aplicar(&c)
	db := h.DB.WithContext(r.Context())
	if err := h.Repository.VerificarUnicidade(db, &c); err != nil {
		h.erro(w, err)
		return
	}
	if err := h.Repository.Salvar(db, &c); err != nil {
		h.erro(w, err)
		return
	}

	resp := clienteResponse{Cliente: &c}
	if err := h.vincular(r.Context(), &c); err != nil {
		resp.Avisos = append(resp.Avisos, fmt.Sprintf("cliente não vinculado ao asaas: %v", err))
	}
	utils.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) BuscarPorID(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	c, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if err != nil {
		h.erro(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, c)
}

func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	var req clienteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	db := h.DB.WithContext(r.Context())
	c, err := h.Repository.BuscarPorID(db, id)
	if err != nil {
		h.erro(w, err)
		return
	}
	req.aplicar(c)
	if err := h.Repository.VerificarUnicidade(db, c); err != nil {
		h.erro(w, err)
		return
	}
	if err := h.Repository.Salvar(db, c); err != nil {
		h.erro(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, c)
}

func (h *Handler) Deletar(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	if err := h.Repository.Deletar(h.DB.WithContext(r.Context()), id); err != nil {
		h.erro(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VincularAsaas refaz a busca/criação do cliente no Asaas (POST /clientes/{id}/asaas).
func (h *Handler) VincularAsaas(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	c, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if err != nil {
		h.erro(w, err)
		return
	}
	if err := h.vincular(r.Context(), c); err != nil {
		if errors.Is(err, asaas.ErrClienteSemChaves) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	utils.JSON(w, http.StatusOK, c)
}

func (h *Handler) vincular(ctx context.Context, c *models.Cliente) error {
	ext, err := h.Gateway.BuscarOuCriarCliente(ctx, novoClienteAsaas(c))
	if err != nil {
		h.Log.Warn("falha ao vincular cliente ao asaas", "cliente", c.ID, "err", err)
		return err
	}
	if err := h.Repository.DefinirAsaasID(h.DB.WithContext(ctx), c.ID, ext.ID); err != nil {
		return err
	}
	c.AsaasID = &ext.ID
	h.Log.Info("cliente vinculado ao asaas", "cliente", c.ID, "asaas_id", ext.ID)
	return nil
}

func (h *Handler) EnviarHabilitacao(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	db := h.DB.WithContext(r.Context())
	c, err := h.Repository.BuscarPorID(db, id)
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

	nome, err := h.Arquivos.Salvar(arquivos.Habilitacoes, c.ID, cab.Filename, f, arquivos.ExtDocumento)
	if err != nil {
		http.Error(w, err.Error(), arquivos.StatusErro(err))
		return
	}
	anterior := c.HabilitacaoArquivo
	if err := db.Model(c).Update("habilitacao_arquivo", nome).Error; err != nil {
		_ = h.Arquivos.Remover(arquivos.Habilitacoes, nome)
		http.Error(w, "erro ao salvar habilitação", http.StatusInternalServerError)
		return
	}
	if err := h.Arquivos.Remover(arquivos.Habilitacoes, anterior); err != nil {
		h.Log.Warn("habilitação antiga não removida", "arquivo", anterior, "err", err)
	}
	utils.JSON(w, http.StatusOK, map[string]string{"habilitacaoArquivo": nome})
}

func (h *Handler) BaixarHabilitacao(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	c, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if err != nil {
		h.erro(w, err)
		return
	}
	if c.HabilitacaoArquivo == "" {
		http.Error(w, "cliente sem habilitação", http.StatusNotFound)
		return
	}
	h.Arquivos.Servir(w, r, arquivos.Habilitacoes, c.HabilitacaoArquivo)
}

func (h *Handler) RemoverHabilitacao(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	db := h.DB.WithContext(r.Context())
	c, err := h.Repository.BuscarPorID(db, id)
	if err != nil {
		h.erro(w, err)
		return
	}
	anterior := c.HabilitacaoArquivo
	if err := db.Model(c).Update("habilitacao_arquivo", "").Error; err != nil {
		http.Error(w, "erro ao remover habilitação", http.StatusInternalServerError)
		return
	}
	if err := h.Arquivos.Remover(arquivos.Habilitacoes, anterior); err != nil {
		h.Log.Warn("arquivo de habilitação não removido", "arquivo", anterior, "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) erro(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrClienteNaoEncontrado):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrCPFDuplicado), errors.Is(err, ErrEmailDuplicado), errors.Is(err, ErrPossuiLocacoes):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.Log.Error("erro em cliente", "err", err)
		http.Error(w, "erro interno", http.StatusInternalServerError)
	}
}
