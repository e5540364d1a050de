package servico

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/motolocadora/api-locadora/internal/models"
	"github.com/motolocadora/api-locadora/internal/utils"
	"gorm.io/gorm"
)

var validate = validator.New()

var (
	ErrLocacaoNaoEncontrada = errors.New("locação não encontrada")
	ErrServicoNaoEncontrado = errors.New("serviço não encontrado")
)

type servicoRequest struct {
	Descricao     string  `json:"descricao" validate:"required"`
	Valor         float64 `json:"valor" validate:"gte=0"`
	Quilometragem *int    `json:"quilometragem" validate:"omitempty,gte=0"`
}

type Repository interface {
	ListarPorLocacao(db *gorm.DB, locacaoID uint) ([]models.ServicoLocacao, error)
	Salvar(db *gorm.DB, s *models.ServicoLocacao) error
	Remover(db *gorm.DB, locacaoID, servicoID uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) ListarPorLocacao(db *gorm.DB, locacaoID uint) ([]models.ServicoLocacao, error) {
	var servicos []models.ServicoLocacao
	err := db.Where("locacao_id = ?", locacaoID).Order("id DESC").Find(&servicos).Error
	return servicos, err
}

func (r *repositoryImpl) Salvar(db *gorm.DB, s *models.ServicoLocacao) error {
	var n int64
	if err := db.Model(&models.Locacao{}).Where("id = ?", s.LocacaoID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrLocacaoNaoEncontrada
	}
	return db.Create(s).Error
}

func (r *repositoryImpl) Remover(db *gorm.DB, locacaoID, servicoID uint) error {
	res := db.Where("id = ? AND locacao_id = ?", servicoID, locacaoID).Delete(&models.ServicoLocacao{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrServicoNaoEncontrado
	}
	return nil
}

type Handler struct {
	DB         *gorm.DB
	Repository Repository
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db, Repository: NewRepository()}
}

func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	servicos, err := h.Repository.ListarPorLocacao(h.DB.WithContext(r.Context()), id)
	if err != nil {
		http.Error(w, "erro ao listar serviços", http.StatusInternalServerError)
		return
	}
	utils.JSON(w, http.StatusOK, servicos)
}

func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	var req servicoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	req.Descricao = strings.TrimSpace(req.Descricao)
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s := models.ServicoLocacao{LocacaoID: id, Descricao: req.Descricao, Valor: req.Valor, Quilometragem: req.Quilometragem}
	if err := h.Repository.Salvar(h.DB.WithContext(r.Context()), &s); err != nil {
		if errors.Is(err, ErrLocacaoNaoEncontrada) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "erro ao salvar serviço", http.StatusInternalServerError)
		return
	}
	utils.JSON(w, http.StatusCreated, s)
}

func (h *Handler) Remover(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	sid, ok2 := utils.ParseID(r, "sid")
	if !ok || !ok2 {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	if err := h.Repository.Remover(h.DB.WithContext(r.Context()), id, sid); err != nil {
		if errors.Is(err, ErrServicoNaoEncontrado) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "erro ao remover serviço", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
