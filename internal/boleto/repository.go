package boleto

import (
	"errors"
	"time"

	"github.com/motolocadora/api-locadora/internal/asaas"
	"github.com/motolocadora/api-locadora/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrLocacaoNaoEncontrada = errors.New("nenhuma locação corresponde à cobrança")

// Repository concentra o acesso a boletos. Todos os métodos recebem o *gorm.DB
// para poderem rodar dentro de uma transação do chamador.
type Repository interface {
	BuscarPorAsaasID(db *gorm.DB, asaasPaymentID string) (*models.Boleto, error)
	ListarPorLocacao(db *gorm.DB, locacaoID uint) ([]models.Boleto, error)
	ListarPorStatus(db *gorm.DB, status []string) ([]models.Boleto, error)
	Upsert(db *gorm.DB, dados DadosBoleto) (*models.Boleto, bool, error)
	RecalcularAgregado(db *gorm.DB, locacaoID uint) error
	ResolverLocacao(db *gorm.DB, c asaas.Cobranca) (*models.Locacao, error)
}

// DadosBoleto são os campos mutáveis de um boleto, já convertidos da cobrança.
type DadosBoleto struct {
	LocacaoID      *uint
	AsaasPaymentID string
	Status         string
	Valor          float64
	ValorPago      *float64
	BoletoURL      string
	Descricao      string
	DataVencimento *time.Time
	DataPagamento  *time.Time
}

// DadosDe converte a cobrança do gateway nos campos persistidos.
func DadosDe(c asaas.Cobranca, locacaoID *uint) DadosBoleto {
	url := c.BankSlipURL
	if url == "" {
		url = c.InvoiceURL
	}
	return DadosBoleto{
		LocacaoID:      locacaoID,
		AsaasPaymentID: c.ID,
		Status:         c.Status,
		Valor:          c.Value,
		ValorPago:      c.ValorPago(),
		BoletoURL:      url,
		Descricao:      c.Description,
		DataVencimento: c.Vencimento(),
		DataPagamento:  c.Pagamento(),
	}
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) BuscarPorAsaasID(db *gorm.DB, asaasPaymentID string) (*models.Boleto, error) {
	var b models.Boleto
	if err := db.Where("asaas_payment_id = ?", asaasPaymentID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repositoryImpl) ListarPorLocacao(db *gorm.DB, locacaoID uint) ([]models.Boleto, error) {
	var boletos []models.Boleto
	err := db.Where("locacao_id = ?", locacaoID).
		Order("data_vencimento IS NULL, data_vencimento DESC, id DESC").
		Find(&boletos).Error
	return boletos, err
}

func (r *repositoryImpl) ListarPorStatus(db *gorm.DB, status []string) ([]models.Boleto, error) {
	var boletos []models.Boleto
	q := db.Order("data_vencimento IS NULL, data_vencimento ASC, id ASC")
	if len(status) > 0 {
		q = q.Where("status IN ?", status)
	}
	err := q.Find(&boletos).Error
	return boletos, err
}

// Upsert atualiza o boleto com o mesmo asaas_payment_id ou insere um novo.
// Devolve true quando inseriu.
func (r *repositoryImpl) Upsert(db *gorm.DB, d DadosBoleto) (*models.Boleto, bool, error) {
	var existente models.Boleto
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("asaas_payment_id = ?", d.AsaasPaymentID).
		First(&existente).Error

	switch {
	case err == nil:
		updates := map[string]interface{}{
			"status":          d.Status,
			"valor":           d.Valor,
			"valor_pago":      d.ValorPago,
			"boleto_url":      d.BoletoURL,
			"descricao":       d.Descricao,
			"data_vencimento": d.DataVencimento,
			"data_pagamento":  d.DataPagamento,
		}
		// Uma vez vinculado, o boleto não troca de locação.
		if existente.LocacaoID == nil && d.LocacaoID != nil {
			updates["locacao_id"] = *d.LocacaoID
		}
		if err := db.Model(&existente).Updates(updates).Error; err != nil {
			return nil, false, err
		}
		if err := db.First(&existente, existente.ID).Error; err != nil {
			return nil, false, err
		}
		return &existente, false, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		novo := models.Boleto{
			LocacaoID:      d.LocacaoID,
			AsaasPaymentID: d.AsaasPaymentID,
			Status:         d.Status,
			Valor:          d.Valor,
			ValorPago:      d.ValorPago,
			BoletoURL:      d.BoletoURL,
			Descricao:      d.Descricao,
			DataVencimento: d.DataVencimento,
			DataPagamento:  d.DataPagamento,
		}
		if err := db.Create(&novo).Error; err != nil {
			return nil, false, err
		}
		return &novo, true, nil

	default:
		return nil, false, err
	}
}

// RecalcularAgregado soma o valor pago dos boletos quitados e grava na locação,
// junto com a última data de pagamento e o status do boleto de vencimento mais recente.
func (r *repositoryImpl) RecalcularAgregado(db *gorm.DB, locacaoID uint) error {
	var total float64
	if err := db.Model(&models.Boleto{}).
		Where("locacao_id = ? AND status IN ?", locacaoID, models.StatusQuitados).
		Select("COALESCE(SUM(COALESCE(valor_pago, 0)), 0)").
		Scan(&total).Error; err != nil {
		return err
	}

	var ultimoPago models.Boleto
	if err := db.Where("locacao_id = ? AND data_pagamento IS NOT NULL", locacaoID).
		Order("data_pagamento DESC, id DESC").
		Limit(1).
		Find(&ultimoPago).Error; err != nil {
		return err
	}

	var maisRecente models.Boleto
	if err := db.Where("locacao_id = ?", locacaoID).
		Order("data_vencimento IS NULL, data_vencimento DESC, id DESC").
		Limit(1).
		Find(&maisRecente).Error; err != nil {
		return err
	}

	updates := map[string]interface{}{
		"valor_pago":       total,
		"data_pagamento":   ultimoPago.DataPagamento,
		"pagamento_status": nil,
	}
	if maisRecente.ID != 0 {
		updates["pagamento_status"] = maisRecente.Status
	}
	return db.Model(&models.Locacao{}).
		Where("id = ?", locacaoID).
		Updates(updates).Error
}

// ResolverLocacao descobre a qual locação a cobrança pertence. A ordem importa:
// chaves exatas primeiro, heurísticas por cliente por último.
//  1. asaas_payment_id da locação (cobrança única)
//  2. boleto_url da locação
//  3. asaas_subscription_id
//  4. locação mais recente do cliente, cancelada ou não
//  5. locação mais recente do cliente ainda não quitada
//
// Com o passo 4 sem filtro, o passo 5 só é alcançado se o passo 4 falhar.
func (r *repositoryImpl) ResolverLocacao(db *gorm.DB, c asaas.Cobranca) (*models.Locacao, error) {
	tentativas := []struct {
		valor string
		query string
	}{
		{c.ID, "asaas_payment_id = ?"},
		{c.BankSlipURL, "boleto_url = ?"},
		{c.Subscription, "asaas_subscription_id = ?"},
	}
	for _, t := range tentativas {
		if t.valor == "" {
			continue
		}
		loc, err := primeiraLocacao(db.Where(t.query, t.valor))
		if err != nil || loc != nil {
			return loc, err
		}
	}

	if c.Customer == "" {
		return nil, ErrLocacaoNaoEncontrada
	}
	var cliente models.Cliente
	err := db.Where("asaas_id = ?", c.Customer).First(&cliente).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLocacaoNaoEncontrada
	}
	if err != nil {
		return nil, err
	}

	loc, err := primeiraLocacao(db.Where("cliente_id = ?", cliente.ID))
	if err != nil || loc != nil {
		return loc, err
	}
	loc, err = primeiraLocacao(db.Where("cliente_id = ? AND (pagamento_status IS NULL OR pagamento_status NOT IN ?)",
		cliente.ID, models.StatusQuitados))
	if err != nil || loc != nil {
		return loc, err
	}
	return nil, ErrLocacaoNaoEncontrada
}

// primeiraLocacao devolve (nil, nil) quando o filtro não encontra nada.
func primeiraLocacao(q *gorm.DB) (*models.Locacao, error) {
	var loc models.Locacao
	err := q.Order("data_inicio DESC, id DESC").First(&loc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}
