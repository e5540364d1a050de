package moto

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/motolocadora/api-locadora/internal/arquivos"
	"github.com/motolocadora/api-locadora/internal/models"
	"github.com/motolocadora/api-locadora/internal/utils"
	"gorm.io/gorm"
)

var validate = validator.New()

// motoRequest não aceita "disponivel": a disponibilidade é consequência das locações.
type motoRequest struct {
	Placa  string `json:"placa" validate:"required,min=7,max=10"`
	Modelo string `json:"modelo" validate:"required"`
	Ano    *int   `json:"ano" validate:"omitempty,gte=1950,lte=2100"`
}

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Arquivos   *arquivos.Armazenamento
	Log        *slog.Logger
}

func NewHandler(db *gorm.DB, arq *arquivos.Armazenamento, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{DB: db, Repository: NewRepository(), Arquivos: arq, Log: log.With("component", "moto")}
}

func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	motos, err := h.Repository.ListarTodos(h.DB.WithContext(r.Context()), utils.ParseBoolQuery(r, "disponivel"))
	if err != nil {
		http.Error(w, "erro ao listar motos", http.StatusInternalServerError)
		return
	}
	utils.JSON(w, http.StatusOK, motos)
}

func (h *Handler) Criar(w http.ResponseWriter, r *http.Request) {
	var req motoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m := models.Moto{Placa: NormalizarPlaca(req.Placa), Modelo: req.Modelo, Ano: req.Ano, Disponivel: true}
	db := h.DB.WithContext(r.Context())
	if err := h.Repository.VerificarPlaca(db, &m); err != nil {
		h.erro(w, err)
		return
	}
	if err := h.Repository.Salvar(db, &m); err != nil {
		h.erro(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, m)
}

func (h *Handler) BuscarPorID(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	m, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if err != nil {
		h.erro(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, m)
}

func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	var req motoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	db := h.DB.WithContext(r.Context())
	m, err := h.Repository.BuscarPorID(db, id)
	if err != nil {
		h.erro(w, err)
		return
	}
	m.Placa = NormalizarPlaca(req.Placa)
	m.Modelo = req.Modelo
	m.Ano = req.Ano
	if err := h.Repository.VerificarPlaca(db, m); err != nil {
		h.erro(w, err)
		return
	}
	if err := db.Model(m).Select("placa", "modelo", "ano").Updates(m).Error; err != nil {
		h.erro(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, m)
}

func (h *Handler) Deletar(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	db := h.DB.WithContext(r.Context())
	m, err := h.Repository.BuscarPorID(db, id)
	if err != nil {
		h.erro(w, err)
		return
	}
	if err := h.Repository.Deletar(db, id); err != nil {
		h.erro(w, err)
		return
	}
	// Arquivos só saem depois que o registro saiu.
	_ = h.Arquivos.Remover(arquivos.Documentos, m.DocumentoArquivo)
	for _, img := range m.Imagens {
		_ = h.Arquivos.Remover(arquivos.Motos, img.Arquivo)
	}
	w.WriteHeader(http.StatusNoContent)
}

/* ============================== Documento ============================== */

func (h *Handler) EnviarDocumento(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	db := h.DB.WithContext(r.Context())
	m, err := h.Repository.BuscarPorID(db, id)
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

	nome, err := h.Arquivos.Salvar(arquivos.Documentos, m.ID, cab.Filename, f, arquivos.ExtDocumento)
	if err != nil {
		http.Error(w, err.Error(), arquivos.StatusErro(err))
		return
	}
	anterior := m.DocumentoArquivo
	if err := db.Model(&models.Moto{}).Where("id = ?", m.ID).Update("documento_arquivo", nome).Error; err != nil {
		_ = h.Arquivos.Remover(arquivos.Documentos, nome)
		http.Error(w, "erro ao salvar documento", http.StatusInternalServerError)
		return
	}
	if err := h.Arquivos.Remover(arquivos.Documentos, anterior); err != nil {
		h.Log.Warn("documento antigo não removido", "arquivo", anterior, "err", err)
	}
	utils.JSON(w, http.StatusOK, map[string]string{"documentoArquivo": nome})
}

func (h *Handler) BaixarDocumento(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	m, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if err != nil {
		h.erro(w, err)
		return
	}
	if m.DocumentoArquivo == "" {
		http.Error(w, "moto sem documento", http.StatusNotFound)
		return
	}
	h.Arquivos.Servir(w, r, arquivos.Documentos, m.DocumentoArquivo)
}

func (h *Handler) RemoverDocumento(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	db := h.DB.WithContext(r.Context())
	m, err := h.Repository.BuscarPorID(db, id)
	if err != nil {
		h.erro(w, err)
		return
	}
	if err := db.Model(&models.Moto{}).Where("id = ?", m.ID).Update("documento_arquivo", "").Error; err != nil {
		http.Error(w, "erro ao remover documento", http.StatusInternalServerError)
		return
	}
	if err := h.Arquivos.Remover(arquivos.Documentos, m.DocumentoArquivo); err != nil {
		h.Log.Warn("arquivo de documento não removido", "arquivo", m.DocumentoArquivo, "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

/* ============================== Imagens ============================== */

func (h *Handler) ListarImagens(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	m, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if err != nil {
		h.erro(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, m.Imagens)
}

// EnviarImagens aceita vários arquivos no campo "imagens". Arquivos com
// extensão não permitida são ignorados; se nenhum servir, 400. O envio é
// tudo ou nada: se uma imagem falhar, as já gravadas na requisição são descartadas.
func (h *Handler) EnviarImagens(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.ParseID(r, "id")
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	db := h.DB.WithContext(r.Context())
	m, err := h.Repository.BuscarPorID(db, id)
	if err != nil {
		h.erro(w, err)
		return
	}
	if err := r.ParseMultipartForm(arquivos.LimiteUpload); err != nil {
		http.Error(w, "formulário inválido", http.StatusBadRequest)
		return
	}

	var nomes, ignorados []string
	descartar := func() {
		for _, n := range nomes {
			if err := h.Arquivos.Remover(arquivos.Motos, n); err != nil {
				h.Log.Warn("imagem órfã no disco", "moto", m.ID, "arquivo", n, "err", err)
			}
		}
	}

	for _, cab := range r.MultipartForm.File["imagens"] {
		f, err := cab.Open()
		if err != nil {
			ignorados = append(ignorados, cab.Filename)
			continue
		}
		nome, err := h.Arquivos.Salvar(arquivos.Motos, m.ID, cab.Filename, f, arquivos.ExtImagem)
		f.Close()
		if errors.Is(err, arquivos.ErrExtensaoNaoPermitida) {
			ignorados = append(ignorados, cab.Filename)
			continue
		}
		if err != nil {
			h.Log.Error("falha ao gravar imagem", "moto", m.ID, "err", err)
			descartar()
			http.Error(w, "erro ao salvar imagem", http.StatusInternalServerError)
			return
		}
		nomes = append(nomes, nome)
	}
	if len(nomes) == 0 {
		http.Error(w, "nenhuma imagem válida enviada", http.StatusBadRequest)
		return
	}

	salvas := make([]models.MotoImagem, 0, len(nomes))
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, n := range nomes {
			img := models.MotoImagem{MotoID: m.ID, Arquivo: n}
			if err := h.Repository.AdicionarImagem(tx, &img); err != nil {
				return err
			}
			salvas = append(salvas, img)
		}
		return nil
	})
	if err != nil {
		h.Log.Error("falha ao registrar imagens", "moto", m.ID, "err", err)
		descartar()
		http.Error(w, "erro ao salvar imagem", http.StatusInternalServerError)
		return
	}
	utils.JSON(w, http.StatusCreated, map[string]interface{}{"imagens": salvas, "ignorados": ignorados})
}

func (h *Handler) BaixarImagem(w http.ResponseWriter, r *http.Request) {
	img, ok := h.imagem(w, r)
	if !ok {
		return
	}
	h.Arquivos.Servir(w, r, arquivos.Motos, img.Arquivo)
}

func (h *Handler) RemoverImagem(w http.ResponseWriter, r *http.Request) {
	img, ok := h.imagem(w, r)
	if !ok {
		return
	}
	if err := h.Repository.RemoverImagem(h.DB.WithContext(r.Context()), img); err != nil {
		http.Error(w, "erro ao remover imagem", http.StatusInternalServerError)
		return
	}
	if err := h.Arquivos.Remover(arquivos.Motos, img.Arquivo); err != nil {
		h.Log.Warn("arquivo de imagem não removido", "arquivo", img.Arquivo, "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) imagem(w http.ResponseWriter, r *http.Request) (*models.MotoImagem, bool) {
	id, ok := utils.ParseID(r, "id")
	imgID, ok2 := utils.ParseID(r, "img")
	if !ok || !ok2 {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return nil, false
	}
	img, err := h.Repository.BuscarImagem(h.DB.WithContext(r.Context()), id, imgID)
	if err != nil {
		h.erro(w, err)
		return nil, false
	}
	return img, true
}

func (h *Handler) erro(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMotoNaoEncontrada), errors.Is(err, ErrImagemNaoEncontrada):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrPlacaDuplicada), errors.Is(err, ErrMotoComLocacoes):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.Log.Error("erro em moto", "err", err)
		http.Error(w, "erro interno", http.StatusInternalServerError)
	}
}
