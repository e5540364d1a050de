package cliente

import (
	"errors"
	"strings"

	"github.com/motolocadora/api-locadora/internal/models"
	"gorm.io/gorm"
)

var (
	ErrClienteNaoEncontrado = errors.New("cliente não encontrado")
	ErrCPFDuplicado         = errors.New("CPF já cadastrado")
	ErrEmailDuplicado       = errors.New("e-mail já cadastrado")
	ErrPossuiLocacoes       = errors.New("cliente possui locações ativas")
)

type Repository interface {
	Salvar(db *gorm.DB, c *models.Cliente) error
	BuscarPorID(db *gorm.DB, id uint) (*models.Cliente, error)
	ListarTodos(db *gorm.DB, busca string) ([]models.Cliente, error)
	ListarSemAsaas(db *gorm.DB) ([]models.Cliente, error)
	VerificarUnicidade(db *gorm.DB, c *models.Cliente) error
	DefinirAsaasID(db *gorm.DB, id uint, asaasID string) error
	Deletar(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Salvar(db *gorm.DB, c *models.Cliente) error {
	return db.Save(c).Error
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.Cliente, error) {
	var c models.Cliente
	if err := db.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClienteNaoEncontrado
		}
		return nil, err
	}
	return &c, nil
}

// ListarTodos ordena por nome; busca filtra por nome, e-mail ou CPF.
func (r *repositoryImpl) ListarTodos(db *gorm.DB, busca string) ([]models.Cliente, error) {
	var clientes []models.Cliente
	q := db.Order("nome")
	if busca = strings.TrimSpace(busca); busca != "" {
		like := "%" + strings.ToLower(busca) + "%"
		q = q.Where("LOWER(nome) LIKE ? OR LOWER(email) LIKE ? OR cpf LIKE ?", like, like, like)
	}
	err := q.Find(&clientes).Error
	return clientes, err
}

func (r *repositoryImpl) ListarSemAsaas(db *gorm.DB) ([]models.Cliente, error) {
	var clientes []models.Cliente
	err := db.Where("asaas_id IS NULL OR asaas_id = ''").Order("id").Find(&clientes).Error
	return clientes, err
}

// VerificarUnicidade confere CPF e e-mail contra outros clientes (inclusive
// excluídos, que ainda ocupam o índice único).
func (r *repositoryImpl) VerificarUnicidade(db *gorm.DB, c *models.Cliente) error {
	checar := func(coluna string, v *string, errDup error) error {
		if v == nil {
			return nil
		}
		var n int64
		if err := db.Unscoped().Model(&models.Cliente{}).
			Where(coluna+" = ? AND id <> ?", *v, c.ID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return errDup
		}
		return nil
	}
	if err := checar("cpf", c.CPF, ErrCPFDuplicado); err != nil {
		return err
	}
	return checar("email", c.Email, ErrEmailDuplicado)
}

func (r *repositoryImpl) DefinirAsaasID(db *gorm.DB, id uint, asaasID string) error {
	return db.Model(&models.Cliente{}).Where("id = ?", id).Update("asaas_id", asaasID).Error
}

// Deletar recusa clientes com locação não cancelada.
func (r *repositoryImpl) Deletar(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := r.BuscarPorID(tx, id); err != nil {
			return err
		}
		var ativas int64
		if err := tx.Model(&models.Locacao{}).Where("cliente_id = ? AND cancelado = ?", id, false).Count(&ativas).Error; err != nil {
			return err
		}
		if ativas > 0 {
			return ErrPossuiLocacoes
		}
		return tx.Delete(&models.Cliente{}, id).Error
	})
}
