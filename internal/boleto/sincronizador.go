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

var (
	ErrLocacaoInexistente = errors.New("locação não encontrada")
	ErrClienteInexistente = errors.New("cliente não encontrado")
	ErrLocacaoSemCobranca = errors.New("locação sem cobrança no asaas")
	ErrClienteSemAsaas    = errors.New("cliente sem cadastro no asaas")
)

// Resultado resume uma sincronização manual.
type Resultado struct {
	Inseridos   int `json:"inseridos"`
	Atualizados int `json:"atualizados"`
	SemLocacao  int `json:"semLocacao"`
	Falhas      int `json:"falhas"`
}

// Sincronizador puxa as cobranças do gateway e reaplica cada uma. Rodar duas
// vezes seguidas não muda nada além de UpdatedAt.
type Sincronizador struct {
	DB          *gorm.DB
	Gateway     asaas.Gateway
	Conciliador *Conciliador
	Log         *slog.Logger
}

func NewSincronizador(db *gorm.DB, gw asaas.Gateway, conc *Conciliador, log *slog.Logger) *Sincronizador {
	if log == nil {
		log = slog.Default()
	}
	return &Sincronizador{DB: db, Gateway: gw, Conciliador: conc, Log: log.With("component", "sincronizador")}
}

func (s *Sincronizador) SincronizarLocacao(ctx context.Context, locacaoID uint) (Resultado, error) {
	var loc models.Locacao
	if err := s.DB.WithContext(ctx).First(&loc, locacaoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Resultado{}, ErrLocacaoInexistente
		}
		return Resultado{}, err
	}

	var cobrancas []asaas.Cobranca
	switch {
	case loc.AsaasSubscriptionID != nil && *loc.AsaasSubscriptionID != "":
		lista, err := s.Gateway.ListarCobrancas(ctx, asaas.FiltroCobrancas{Subscription: *loc.AsaasSubscriptionID})
		if err != nil {
			return Resultado{}, fmt.Errorf("listar cobranças da assinatura: %w", err)
		}
		cobrancas = lista
	case loc.AsaasPaymentID != nil && *loc.AsaasPaymentID != "":
		c, err := s.Gateway.BuscarCobranca(ctx, *loc.AsaasPaymentID)
		if err != nil {
			return Resultado{}, fmt.Errorf("buscar cobrança: %w", err)
		}
		cobrancas = []asaas.Cobranca{*c}
	default:
		return Resultado{}, ErrLocacaoSemCobranca
	}

	res := s.aplicarTodas(ctx, cobrancas, &loc.ID)
	s.Log.Info("locação sincronizada", "locacao", loc.ID, "inseridos", res.Inseridos, "atualizados", res.Atualizados, "falhas", res.Falhas)
	return res, nil
}

func (s *Sincronizador) SincronizarCliente(ctx context.Context, clienteID uint) (Resultado, error) {
	var cli models.Cliente
	if err := s.DB.WithContext(ctx).First(&cli, clienteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Resultado{}, ErrClienteInexistente
		}
		return Resultado{}, err
	}
	if cli.AsaasID == nil || *cli.AsaasID == "" {
		return Resultado{}, ErrClienteSemAsaas
	}

	cobrancas, err := s.Gateway.ListarCobrancas(ctx, asaas.FiltroCobrancas{Customer: *cli.AsaasID})
	if err != nil {
		return Resultado{}, fmt.Errorf("listar cobranças do cliente: %w", err)
	}
	res := s.aplicarTodas(ctx, cobrancas, nil)
	s.Log.Info("cliente sincronizado", "cliente", cli.ID, "inseridos", res.Inseridos, "atualizados", res.Atualizados,
		"semLocacao", res.SemLocacao, "falhas", res.Falhas)
	return res, nil
}

func (s *Sincronizador) aplicarTodas(ctx context.Context, cobrancas []asaas.Cobranca, hint *uint) Resultado {
	var res Resultado
	for _, c := range cobrancas {
		ap, err := s.Conciliador.Aplicar(ctx, s.DB, c, hint)
		switch {
		case errors.Is(err, ErrLocacaoNaoEncontrada):
			res.SemLocacao++
		case err != nil:
			res.Falhas++
			s.Log.Error("falha ao aplicar cobrança", "payment", c.ID, "err", err)
			continue
		}
		if ap.Inserido {
			res.Inseridos++
		} else {
			res.Atualizados++
		}
	}
	return res
}
