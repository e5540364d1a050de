package locacao

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/motolocadora/api-locadora/internal/asaas"
	"github.com/motolocadora/api-locadora/internal/boleto"
	"github.com/motolocadora/api-locadora/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var validate = validator.New()

// Service concentra o ciclo de vida da locação. Cada operação roda em uma
// transação e mantém Moto.Disponivel coerente com as locações ativas.
type Service struct {
	DB          *gorm.DB
	Gateway     asaas.Gateway
	Conciliador *boleto.Conciliador
	Log         *slog.Logger
	Agora       func() time.Time
}

func NewService(db *gorm.DB, gw asaas.Gateway, conc *boleto.Conciliador, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{DB: db, Gateway: gw, Conciliador: conc, Log: log.With("component", "locacao"), Agora: time.Now}
}

func (s *Service) hoje() time.Time {
	t := s.Agora()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type dadosValidados struct {
	inicio     time.Time
	fim        *time.Time
	frequencia string
}

func validarNova(n NovaLocacao) (dadosValidados, error) {
	if err := validate.Struct(n); err != nil {
		return dadosValidados{}, fmt.Errorf("%w: %v", ErrDadosInvalidos, err)
	}
	freq, ok := models.NormalizarFrequencia(n.FrequenciaPagamento)
	if !ok {
		return dadosValidados{}, ErrFrequenciaInvalida
	}
	inicio := asaas.ParseData(n.DataInicio)
	if inicio == nil {
		return dadosValidados{}, fmt.Errorf("%w: dataInicio", ErrDadosInvalidos)
	}
	var fim *time.Time
	if strings.TrimSpace(n.DataFim) != "" {
		if fim = asaas.ParseData(n.DataFim); fim == nil {
			return dadosValidados{}, fmt.Errorf("%w: dataFim", ErrDadosInvalidos)
		}
		if fim.Before(*inicio) {
			return dadosValidados{}, ErrDatasInvalidas
		}
	}
	return dadosValidados{inicio: *inicio, fim: fim, frequencia: freq}, nil
}

// Criar registra a locação, abre a cobrança no gateway e marca a moto como
// indisponível. Se o gateway falhar nada é gravado.
func (s *Service) Criar(ctx context.Context, n NovaLocacao) (*models.Locacao, error) {
	v, err := validarNova(n)
	if err != nil {
		return nil, err
	}

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var cliente models.Cliente
	if err := tx.First(&cliente, n.ClienteID).Error; err != nil {
		tx.Rollback()
		return nil, naoEncontrado(err, ErrClienteNaoEncontrado)
	}
	if cliente.AsaasID == nil || *cliente.AsaasID == "" {
		tx.Rollback()
		return nil, ErrClienteSemAsaas
	}

	var moto models.Moto
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&moto, n.MotoID).Error; err != nil {
		tx.Rollback()
		return nil, naoEncontrado(err, ErrMotoNaoEncontrada)
	}
	if !moto.Disponivel {
		tx.Rollback()
		return nil, ErrMotoIndisponivel
	}

	descricao := fmt.Sprintf("Locação moto %s - %s", moto.Placa, cliente.Nome)
	loc := models.Locacao{
		ClienteID:           cliente.ID,
		MotoID:              moto.ID,
		DataInicio:          v.inicio,
		DataFim:             v.fim,
		Valor:               n.Valor,
		FrequenciaPagamento: v.frequencia,
		Observacoes:         n.Observacoes,
	}

	var cobrancas []asaas.Cobranca
	var externo string
	if v.frequencia == models.FrequenciaUnica {
		cob, err := s.Gateway.CriarCobranca(ctx, asaas.NovaCobranca{
			Customer:    *cliente.AsaasID,
			BillingType: "BOLETO",
			Value:       n.Valor,
			DueDate:     asaas.FormatarData(v.inicio),
			Description: descricao,
		})
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("%w: %v", ErrGateway, err)
		}
		externo = cob.ID
		loc.AsaasPaymentID = &cob.ID
		if url := urlBoleto(*cob); url != "" {
			loc.BoletoURL = &url
		}
		cobrancas = []asaas.Cobranca{*cob}
	} else {
		nova := asaas.NovaAssinatura{
			Customer:    *cliente.AsaasID,
			BillingType: "BOLETO",
			Value:       n.Valor,
			Cycle:       v.frequencia,
			NextDueDate: asaas.FormatarData(v.inicio),
			Description: descricao,
		}
		if v.fim != nil {
			nova.EndDate = asaas.FormatarData(*v.fim)
		}
		sub, err := s.Gateway.CriarAssinatura(ctx, nova)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("%w: %v", ErrGateway, err)
		}
		externo = sub.ID
		loc.AsaasSubscriptionID = &sub.ID

		lista, err := s.Gateway.ListarCobrancas(ctx, asaas.FiltroCobrancas{Subscription: sub.ID})
		if err != nil {
			// A assinatura existe; as parcelas chegam depois por webhook ou sincronização.
			s.Log.Warn("não foi possível listar parcelas da assinatura", "subscription", sub.ID, "err", err)
		}
		cobrancas = lista
		for _, c := range lista {
			if url := urlBoleto(c); url != "" && loc.BoletoURL == nil {
				loc.BoletoURL = &url
			}
		}
	}

	falhar := func(err error) (*models.Locacao, error) {
		tx.Rollback()
		s.Log.Error("locação desfeita após sucesso no gateway, cobrança órfã no asaas",
			"asaas_id", externo, "cliente", cliente.ID, "moto", moto.ID, "err", err)
		return nil, err
	}

	if err := tx.Create(&loc).Error; err != nil {
		return falhar(fmt.Errorf("gravar locação: %w", err))
	}
	for _, c := range cobrancas {
		if _, err := s.Conciliador.AplicarTx(tx, c, &loc.ID); err != nil {
			return falhar(err)
		}
	}

	res := tx.Model(&models.Moto{}).
		Where("id = ? AND disponivel = ?", moto.ID, true).
		Update("disponivel", false)
	if res.Error != nil {
		return falhar(fmt.Errorf("reservar moto: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return falhar(ErrMotoIndisponivel)
	}

	if err := tx.Commit().Error; err != nil {
		return falhar(fmt.Errorf("commit: %w", err))
	}

	s.Log.Info("locação criada", "locacao", loc.ID, "cliente", cliente.ID, "moto", moto.ID,
		"frequencia", loc.FrequenciaPagamento, "asaas_id", externo)
	return s.Buscar(ctx, loc.ID)
}

// Cancelar encerra a locação e libera a moto. Falhas ao cancelar no gateway
// viram avisos; o cancelamento local acontece mesmo assim.
func (s *Service) Cancelar(ctx context.Context, id uint) (*Resultado, error) {
	var avisos []string

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loc models.Locacao
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&loc, id).Error; err != nil {
			return naoEncontrado(err, ErrLocacaoNaoEncontrada)
		}
		if loc.Cancelado {
			return ErrLocacaoJaCancelada
		}

		if loc.AsaasSubscriptionID != nil && *loc.AsaasSubscriptionID != "" {
			if err := s.Gateway.CancelarAssinatura(ctx, *loc.AsaasSubscriptionID); err != nil {
				avisos = append(avisos, s.aviso("cancelar assinatura", *loc.AsaasSubscriptionID, err))
			} else if err := cancelarPendentes(tx, loc.ID, ""); err != nil {
				return err
			}
		}
		if loc.AsaasPaymentID != nil && *loc.AsaasPaymentID != "" {
			pagamento := *loc.AsaasPaymentID
			if pendente(tx, pagamento) {
				if err := s.Gateway.CancelarCobranca(ctx, pagamento); err != nil {
					avisos = append(avisos, s.aviso("cancelar cobrança", pagamento, err))
				} else if err := cancelarPendentes(tx, loc.ID, pagamento); err != nil {
					return err
				}
			}
		}

		hoje := s.hoje()
		if err := tx.Model(&loc).Updates(map[string]interface{}{
			"cancelado": true,
			"data_fim":  hoje,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Moto{}).Where("id = ?", loc.MotoID).Update("disponivel", true).Error; err != nil {
			return err
		}
		return s.Conciliador.Repository.RecalcularAgregado(tx, loc.ID)
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("locação cancelada", "locacao", id, "avisos", len(avisos))
	loc, err := s.Buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Resultado{Locacao: loc, Avisos: avisos}, nil
}

func (s *Service) aviso(op, asaasID string, err error) string {
	if asaas.NaoEncontrado(err) {
		return fmt.Sprintf("%s %s: já não existe no asaas", op, asaasID)
	}
	s.Log.Warn("falha no gateway ao cancelar locação", "op", op, "asaas_id", asaasID, "err", err)
	return fmt.Sprintf("%s %s: %v", op, asaasID, err)
}

// pendente diz se a cobrança avulsa ainda pode ser cancelada. Sem boleto
// local não dá para saber, então tenta.
func pendente(tx *gorm.DB, asaasPaymentID string) bool {
	var b models.Boleto
	if err := tx.Where("asaas_payment_id = ?", asaasPaymentID).First(&b).Error; err != nil {
		return true
	}
	return !models.StatusQuitado(b.Status) && b.Status != models.StatusCancelado
}

// cancelarPendentes espelha localmente o que o gateway faz com parcelas em aberto.
func cancelarPendentes(tx *gorm.DB, locacaoID uint, asaasPaymentID string) error {
	q := tx.Model(&models.Boleto{}).
		Where("locacao_id = ? AND status IN ?", locacaoID, []string{models.StatusPendente, models.StatusVencido})
	if asaasPaymentID != "" {
		q = q.Where("asaas_payment_id = ?", asaasPaymentID)
	}
	return q.Update("status", models.StatusCancelado).Error
}

// Atualizar altera datas, valor, frequência e observações. Com assinatura,
// as mudanças são repassadas ao gateway; falha ali vira aviso.
func (s *Service) Atualizar(ctx context.Context, id uint, at AtualizacaoLocacao) (*Resultado, error) {
	if err := validate.Struct(at); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDadosInvalidos, err)
	}

	var loc models.Locacao
	var mudouCobranca bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&loc, id).Error; err != nil {
			return naoEncontrado(err, ErrLocacaoNaoEncontrada)
		}
		if loc.Cancelado {
			return ErrLocacaoJaCancelada
		}

		if at.DataInicio != nil {
			d := asaas.ParseData(*at.DataInicio)
			if d == nil {
				return fmt.Errorf("%w: dataInicio", ErrDadosInvalidos)
			}
			mudouCobranca = mudouCobranca || !d.Equal(loc.DataInicio)
			loc.DataInicio = *d
		}
		if at.DataFim != nil {
			if strings.TrimSpace(*at.DataFim) == "" {
				loc.DataFim = nil
			} else {
				d := asaas.ParseData(*at.DataFim)
				if d == nil {
					return fmt.Errorf("%w: dataFim", ErrDadosInvalidos)
				}
				loc.DataFim = d
			}
			mudouCobranca = true
		}
		if loc.DataFim != nil && loc.DataFim.Before(loc.DataInicio) {
			return ErrDatasInvalidas
		}
		if at.Valor != nil && *at.Valor != loc.Valor {
			loc.Valor = *at.Valor
			mudouCobranca = true
		}
		if at.FrequenciaPagamento != nil {
			freq, ok := models.NormalizarFrequencia(*at.FrequenciaPagamento)
			if !ok {
				return ErrFrequenciaInvalida
			}
			if freq != loc.FrequenciaPagamento {
				temCobranca := loc.AsaasPaymentID != nil || loc.AsaasSubscriptionID != nil
				if temCobranca && (freq == models.FrequenciaUnica || loc.FrequenciaPagamento == models.FrequenciaUnica) {
					return ErrFrequenciaIncompativel
				}
				loc.FrequenciaPagamento = freq
				mudouCobranca = true
			}
		}
		if at.Observacoes != nil {
			loc.Observacoes = *at.Observacoes
		}

		return tx.Model(&loc).Select("data_inicio", "data_fim", "valor", "frequencia_pagamento", "observacoes").
			Updates(&loc).Error
	})
	if err != nil {
		return nil, err
	}

	var avisos []string
	if mudouCobranca && loc.AsaasSubscriptionID != nil && *loc.AsaasSubscriptionID != "" {
		upd := asaas.AtualizacaoAssinatura{
			Value:       loc.Valor,
			Cycle:       loc.FrequenciaPagamento,
			NextDueDate: asaas.FormatarData(loc.DataInicio),
		}
		if loc.DataFim != nil {
			upd.EndDate = asaas.FormatarData(*loc.DataFim)
		}
		if _, err := s.Gateway.AtualizarAssinatura(ctx, *loc.AsaasSubscriptionID, upd); err != nil {
			s.Log.Warn("falha ao atualizar assinatura", "locacao", id, "subscription", *loc.AsaasSubscriptionID, "err", err)
			avisos = append(avisos, fmt.Sprintf("assinatura não atualizada no asaas: %v", err))
		}
	}

	atual, err := s.Buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Resultado{Locacao: atual, Avisos: avisos}, nil
}

func (s *Service) Buscar(ctx context.Context, id uint) (*models.Locacao, error) {
	var loc models.Locacao
	err := s.DB.WithContext(ctx).
		Preload("Cliente").
		Preload("Moto").
		Preload("Boletos", func(db *gorm.DB) *gorm.DB {
			return db.Order("data_vencimento IS NULL, data_vencimento DESC, id DESC")
		}).
		Preload("Servicos").
		First(&loc, id).Error
	if err != nil {
		return nil, naoEncontrado(err, ErrLocacaoNaoEncontrada)
	}
	return &loc, nil
}

// Listar filtra por cancelado quando informado.
func (s *Service) Listar(ctx context.Context, cancelado *bool) ([]models.Locacao, error) {
	var locs []models.Locacao
	q := s.DB.WithContext(ctx).Preload("Cliente").Preload("Moto").Order("data_inicio DESC, id DESC")
	if cancelado != nil {
		q = q.Where("cancelado = ?", *cancelado)
	}
	err := q.Find(&locs).Error
	return locs, err
}

func naoEncontrado(err, sentinela error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinela
	}
	return err
}

func urlBoleto(c asaas.Cobranca) string {
	if c.BankSlipURL != "" {
		return c.BankSlipURL
	}
	return c.InvoiceURL
}
