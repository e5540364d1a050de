package boleto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/motolocadora/api-locadora/internal/asaas"
	"github.com/motolocadora/api-locadora/internal/models"
	"gorm.io/gorm"
)

// Conciliador aplica uma cobrança do gateway ao banco: descobre a locação,
// grava o boleto e recalcula o agregado da locação.
type Conciliador struct {
	Repository Repository
	Log        *slog.Logger
}

func NewConciliador(log *slog.Logger) *Conciliador {
	if log == nil {
		log = slog.Default()
	}
	return &Conciliador{Repository: NewRepository(), Log: log.With("component", "conciliador")}
}

type Aplicacao struct {
	Boleto    *models.Boleto
	LocacaoID *uint
	Inserido  bool
}

// Aplicar roda AplicarTx em uma transação própria. Cobranças sem locação
// correspondente são gravadas mesmo assim e ErrLocacaoNaoEncontrada é devolvido.
func (c *Conciliador) Aplicar(ctx context.Context, db *gorm.DB, cob asaas.Cobranca, locacaoHint *uint) (Aplicacao, error) {
	var res Aplicacao
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = c.AplicarTx(tx, cob, locacaoHint)
		return err
	})
	if err != nil {
		return Aplicacao{}, err
	}
	if res.LocacaoID == nil {
		c.Log.Warn("cobrança sem locação correspondente", "payment", cob.ID, "customer", cob.Customer, "subscription", cob.Subscription)
		return res, ErrLocacaoNaoEncontrada
	}
	return res, nil
}

// AplicarTx faz o trabalho de Aplicar dentro de uma transação já aberta.
func (c *Conciliador) AplicarTx(tx *gorm.DB, cob asaas.Cobranca, locacaoHint *uint) (Aplicacao, error) {
	if cob.ID == "" {
		return Aplicacao{}, asaas.ErrIDVazio
	}

	locacaoID := locacaoHint
	if locacaoID == nil {
		existente, err := c.Repository.BuscarPorAsaasID(tx, cob.ID)
		switch {
		case err == nil && existente.LocacaoID != nil:
			locacaoID = existente.LocacaoID
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return Aplicacao{}, fmt.Errorf("buscar boleto %s: %w", cob.ID, err)
		}
	}
	if locacaoID == nil {
		loc, err := c.Repository.ResolverLocacao(tx, cob)
		if err != nil && !errors.Is(err, ErrLocacaoNaoEncontrada) {
			return Aplicacao{}, fmt.Errorf("resolver locação de %s: %w", cob.ID, err)
		}
		if loc != nil {
			locacaoID = &loc.ID
		}
	}

	b, inserido, err := c.Repository.Upsert(tx, DadosDe(cob, locacaoID))
	if err != nil {
		return Aplicacao{}, fmt.Errorf("gravar boleto %s: %w", cob.ID, err)
	}
	// O boleto pode já estar vinculado a outra locação; ela é quem manda.
	if b.LocacaoID != nil {
		locacaoID = b.LocacaoID
	}
	if locacaoID != nil {
		if err := c.Repository.RecalcularAgregado(tx, *locacaoID); err != nil {
			return Aplicacao{}, fmt.Errorf("recalcular locação %d: %w", *locacaoID, err)
		}
	}
	return Aplicacao{Boleto: b, LocacaoID: locacaoID, Inserido: inserido}, nil
}
