package moto

import (
	"errors"
	"strings"

	"github.com/motolocadora/api-locadora/internal/models"
	"gorm.io/gorm"
)

var (
	ErrMotoNaoEncontrada   = errors.New("moto não encontrada")
	ErrPlacaDuplicada      = errors.New("placa já cadastrada")
	ErrMotoComLocacoes     = errors.New("moto vinculada a locações")
	ErrImagemNaoEncontrada = errors.New("imagem não encontrada")
)

type Repository interface {
	Salvar(db *gorm.DB, m *models.Moto) error
	BuscarPorID(db *gorm.DB, id uint) (*models.Moto, error)
	ListarTodos(db *gorm.DB, disponivel *bool) ([]models.Moto, error)
	VerificarPlaca(db *gorm.DB, m *models.Moto) error
	Deletar(db *gorm.DB, id uint) error
	AdicionarImagem(db *gorm.DB, img *models.MotoImagem) error
	BuscarImagem(db *gorm.DB, motoID, imagemID uint) (*models.MotoImagem, error)
	RemoverImagem(db *gorm.DB, img *models.MotoImagem) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

// NormalizarPlaca deixa a placa em maiúsculas e sem hífen/espaços.
func NormalizarPlaca(p string) string {
	p = strings.ToUpper(strings.TrimSpace(p))
	return strings.NewReplacer("-", "", " ", "").Replace(p)
}

func (r *repositoryImpl) Salvar(db *gorm.DB, m *models.Moto) error {
	return db.Omit("Imagens").Save(m).Error
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.Moto, error) {
	var m models.Moto
	if err := db.Preload("Imagens", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMotoNaoEncontrada
		}
		return nil, err
	}
	return &m, nil
}

func (r *repositoryImpl) ListarTodos(db *gorm.DB, disponivel *bool) ([]models.Moto, error) {
	var motos []models.Moto
	q := db.Order("modelo, placa")
	if disponivel != nil {
		q = q.Where("disponivel = ?", *disponivel)
	}
	err := q.Find(&motos).Error
	return motos, err
}

func (r *repositoryImpl) VerificarPlaca(db *gorm.DB, m *models.Moto) error {
	var n int64
	if err := db.Unscoped().Model(&models.Moto{}).Where("placa = ? AND id <> ?", m.Placa, m.ID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrPlacaDuplicada
	}
	return nil
}

// Deletar recusa motos referenciadas por qualquer locação, inclusive canceladas,
// para não perder o histórico.
func (r *repositoryImpl) Deletar(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := r.BuscarPorID(tx, id); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.Locacao{}).Where("moto_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrMotoComLocacoes
		}
		if err := tx.Where("moto_id = ?", id).Delete(&models.MotoImagem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Moto{}, id).Error
	})
}

func (r *repositoryImpl) AdicionarImagem(db *gorm.DB, img *models.MotoImagem) error {
	return db.Create(img).Error
}

func (r *repositoryImpl) BuscarImagem(db *gorm.DB, motoID, imagemID uint) (*models.MotoImagem, error) {
	var img models.MotoImagem
	if err := db.Where("id = ? AND moto_id = ?", imagemID, motoID).First(&img).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImagemNaoEncontrada
		}
		return nil, err
	}
	return &img, nil
}

func (r *repositoryImpl) RemoverImagem(db *gorm.DB, img *models.MotoImagem) error {
	return db.Delete(img).Error
}
