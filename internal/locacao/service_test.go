package locacao

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/motolocadora/api-locadora/internal/asaas"
	"github.com/motolocadora/api-locadora/internal/boleto"
	"github.com/motolocadora/api-locadora/internal/models"
	"github.com/motolocadora/api-locadora/internal/utils/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	gw      *asaas.Simulado
	svc     *Service
	cliente models.Cliente
	moto    models.Moto
}

func novoFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Novo(t)
	gw := asaas.NewSimulado()
	cus, err := gw.BuscarOuCriarCliente(context.Background(), asaas.NovoCliente{Name: "Ana", CpfCnpj: "12345678900"})
	require.NoError(t, err)

	cli := models.Cliente{Nome: "Ana", AsaasID: &cus.ID}
	require.NoError(t, db.Create(&cli).Error)
	moto := models.Moto{Placa: "ABC1D23", Modelo: "CG 160", Disponivel: true}
	require.NoError(t, db.Create(&moto).Error)

	svc := NewService(db, gw, boleto.NewConciliador(nil), nil)
	svc.Agora = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }
	gw.Chamadas = nil
	return &fixture{db: db, gw: gw, svc: svc, cliente: cli, moto: moto}
}

func (f *fixture) nova(freq string) NovaLocacao {
	return NovaLocacao{
		ClienteID:           f.cliente.ID,
		MotoID:              f.moto.ID,
		DataInicio:          "2026-03-01",
		Valor:               300,
		FrequenciaPagamento: freq,
	}
}

func (f *fixture) motoDisponivel(t *testing.T) bool {
	t.Helper()
	var m models.Moto
	require.NoError(t, f.db.First(&m, f.moto.ID).Error)
	return m.Disponivel
}

// disponibilidadeCoerente verifica que toda moto está indisponível se e
// somente se existe locação não cancelada apontando para ela.
func disponibilidadeCoerente(t *testing.T, db *gorm.DB) {
	t.Helper()
	var motos []models.Moto
	require.NoError(t, db.Find(&motos).Error)
	for _, m := range motos {
		var ativas int64
		require.NoError(t, db.Model(&models.Locacao{}).Where("moto_id = ? AND cancelado = ?", m.ID, false).Count(&ativas).Error)
		assert.Equal(t, ativas == 0, m.Disponivel, "moto %d", m.ID)
	}
}

func TestCriar_Mensal(t *testing.T) {
	f := novoFixture(t)

	loc, err := f.svc.Criar(context.Background(), f.nova("MENSAL"))
	require.NoError(t, err)

	assert.Equal(t, models.FrequenciaMensal, loc.FrequenciaPagamento)
	require.NotNil(t, loc.AsaasSubscriptionID)
	assert.Nil(t, loc.AsaasPaymentID)
	require.Len(t, loc.Boletos, 1)
	assert.Equal(t, models.StatusPendente, loc.Boletos[0].Status)
	require.NotNil(t, loc.BoletoURL)
	assert.Equal(t, loc.Boletos[0].BoletoURL, *loc.BoletoURL)
	assert.False(t, f.motoDisponivel(t))
	assert.Equal(t, models.StatusPendente, *loc.PagamentoStatus)

	sub := f.gw.Assinaturas[*loc.AsaasSubscriptionID]
	assert.Equal(t, "MONTHLY", sub.Cycle)
	assert.Equal(t, "2026-03-01", sub.NextDueDate)
	disponibilidadeCoerente(t, f.db)
}

func TestCriar_Unica(t *testing.T) {
	f := novoFixture(t)

	loc, err := f.svc.Criar(context.Background(), f.nova("unico"))
	require.NoError(t, err)

	require.NotNil(t, loc.AsaasPaymentID)
	assert.Nil(t, loc.AsaasSubscriptionID)
	require.Len(t, loc.Boletos, 1)
	assert.Equal(t, *loc.AsaasPaymentID, loc.Boletos[0].AsaasPaymentID)
	assert.Equal(t, 300.0, loc.Boletos[0].Valor)
	assert.Equal(t, 1, f.gw.Contou("criar cobrança"))
	assert.False(t, f.motoDisponivel(t))
}

func TestCriar_Validacao(t *testing.T) {
	f := novoFixture(t)
	ctx := context.Background()

	n := f.nova("MENSAL")
	n.Valor = 0
	_, err := f.svc.Criar(ctx, n)
	require.ErrorIs(t, err, ErrDadosInvalidos)

	n = f.nova("QUINZENAL")
	_, err = f.svc.Criar(ctx, n)
	require.ErrorIs(t, err, ErrFrequenciaInvalida)

	n = f.nova("MENSAL")
	n.DataFim = "2026-02-01"
	_, err = f.svc.Criar(ctx, n)
	require.ErrorIs(t, err, ErrDatasInvalidas)

	n = f.nova("MENSAL")
	n.MotoID = 999
	_, err = f.svc.Criar(ctx, n)
	require.ErrorIs(t, err, ErrMotoNaoEncontrada)

	semAsaas := models.Cliente{Nome: "Bruno"}
	require.NoError(t, f.db.Create(&semAsaas).Error)
	n = f.nova("MENSAL")
	n.ClienteID = semAsaas.ID
	_, err = f.svc.Criar(ctx, n)
	require.ErrorIs(t, err, ErrClienteSemAsaas)

	assert.Empty(t, f.gw.Chamadas)
	assert.True(t, f.motoDisponivel(t))
}

func TestCriar_FalhaNoGatewayNaoGravaNada(t *testing.T) {
	f := novoFixture(t)
	f.gw.Falha = func(op string) error {
		if op == "criar assinatura" {
			return errors.New("asaas fora do ar")
		}
		return nil
	}

	_, err := f.svc.Criar(context.Background(), f.nova("SEMANAL"))
	require.ErrorIs(t, err, ErrGateway)

	var n int64
	require.NoError(t, f.db.Model(&models.Locacao{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, f.db.Model(&models.Boleto{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.True(t, f.motoDisponivel(t))
}

func TestCriar_MotoJaLocada(t *testing.T) {
	f := novoFixture(t)
	ctx := context.Background()

	_, err := f.svc.Criar(ctx, f.nova("MENSAL"))
	require.NoError(t, err)
	_, err = f.svc.Criar(ctx, f.nova("MENSAL"))
	require.ErrorIs(t, err, ErrMotoIndisponivel)
	assert.Equal(t, 1, f.gw.Contou("criar assinatura"))
}

func TestCriar_Concorrente(t *testing.T) {
	f := novoFixture(t)
	const n = 5

	var wg sync.WaitGroup
	erros := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, erros[i] = f.svc.Criar(context.Background(), f.nova("SEMANAL"))
		}(i)
	}
	wg.Wait()

	sucessos := 0
	for _, err := range erros {
		if err == nil {
			sucessos++
			continue
		}
		assert.ErrorIs(t, err, ErrMotoIndisponivel)
	}
	assert.Equal(t, 1, sucessos)

	var ativas int64
	require.NoError(t, f.db.Model(&models.Locacao{}).Where("moto_id = ?", f.moto.ID).Count(&ativas).Error)
	assert.EqualValues(t, 1, ativas)
	disponibilidadeCoerente(t, f.db)
}

func TestCancelar_SemCobranca(t *testing.T) {
	f := novoFixture(t)
	loc := models.Locacao{
		ClienteID: f.cliente.ID, MotoID: f.moto.ID, DataInicio: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Valor: 100, FrequenciaPagamento: models.FrequenciaUnica,
	}
	require.NoError(t, f.db.Create(&loc).Error)
	require.NoError(t, f.db.Model(&models.Moto{}).Where("id = ?", f.moto.ID).Update("disponivel", false).Error)

	res, err := f.svc.Cancelar(context.Background(), loc.ID)
	require.NoError(t, err)
	assert.True(t, res.Locacao.Cancelado)
	require.NotNil(t, res.Locacao.DataFim)
	assert.Equal(t, 15, res.Locacao.DataFim.Day())
	assert.Empty(t, res.Avisos)
	assert.Empty(t, f.gw.Chamadas)
	assert.True(t, f.motoDisponivel(t))

	_, err = f.svc.Cancelar(context.Background(), loc.ID)
	require.ErrorIs(t, err, ErrLocacaoJaCancelada)
	disponibilidadeCoerente(t, f.db)
}

func TestCancelar_Assinatura(t *testing.T) {
	f := novoFixture(t)
	ctx := context.Background()
	loc, err := f.svc.Criar(ctx, f.nova("MENSAL"))
	require.NoError(t, err)

	res, err := f.svc.Cancelar(ctx, loc.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Avisos)
	assert.Equal(t, "INACTIVE", f.gw.Assinaturas[*loc.AsaasSubscriptionID].Status)
	require.Len(t, res.Locacao.Boletos, 1)
	assert.Equal(t, models.StatusCancelado, res.Locacao.Boletos[0].Status)
	assert.True(t, f.motoDisponivel(t))

	// A moto liberada pode ser locada de novo.
	_, err = f.svc.Criar(ctx, f.nova("MENSAL"))
	require.NoError(t, err)
	disponibilidadeCoerente(t, f.db)
}

func TestCancelar_FalhaNoGatewayViraAviso(t *testing.T) {
	f := novoFixture(t)
	ctx := context.Background()
	loc, err := f.svc.Criar(ctx, f.nova("UNICO"))
	require.NoError(t, err)

	f.gw.Falha = func(op string) error {
		if op == "cancelar cobrança" {
			return errors.New("timeout")
		}
		return nil
	}
	res, err := f.svc.Cancelar(ctx, loc.ID)
	require.NoError(t, err)
	require.Len(t, res.Avisos, 1)
	assert.Contains(t, res.Avisos[0], "timeout")
	assert.True(t, res.Locacao.Cancelado)
	assert.True(t, f.motoDisponivel(t))
}

func TestCancelar_CobrancaPagaNaoECancelada(t *testing.T) {
	f := novoFixture(t)
	ctx := context.Background()
	loc, err := f.svc.Criar(ctx, f.nova("UNICO"))
	require.NoError(t, err)

	pago, ok := f.gw.Receber(*loc.AsaasPaymentID, 300, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	_, err = f.svc.Conciliador.Aplicar(ctx, f.db, pago, nil)
	require.NoError(t, err)

	res, err := f.svc.Cancelar(ctx, loc.ID)
	require.NoError(t, err)
	assert.Zero(t, f.gw.Contou("cancelar cobrança"))
	assert.Equal(t, 300.0, res.Locacao.ValorPago)
}

func TestAtualizar(t *testing.T) {
	f := novoFixture(t)
	ctx := context.Background()
	loc, err := f.svc.Criar(ctx, f.nova("MENSAL"))
	require.NoError(t, err)

	valor := 350.0
	semanal := "SEMANAL"
	obs := "cliente pediu troca"
	res, err := f.svc.Atualizar(ctx, loc.ID, AtualizacaoLocacao{Valor: &valor, FrequenciaPagamento: &semanal, Observacoes: &obs})
	require.NoError(t, err)
	assert.Empty(t, res.Avisos)
	assert.Equal(t, 350.0, res.Locacao.Valor)
	assert.Equal(t, models.FrequenciaSemanal, res.Locacao.FrequenciaPagamento)
	assert.Equal(t, obs, res.Locacao.Observacoes)

	sub := f.gw.Assinaturas[*loc.AsaasSubscriptionID]
	assert.Equal(t, 350.0, sub.Value)
	assert.Equal(t, "WEEKLY", sub.Cycle)

	unico := "UNICO"
	_, err = f.svc.Atualizar(ctx, loc.ID, AtualizacaoLocacao{FrequenciaPagamento: &unico})
	require.ErrorIs(t, err, ErrFrequenciaIncompativel)
}

func TestAtualizar_FalhaNoGatewayViraAviso(t *testing.T) {
	f := novoFixture(t)
	ctx := context.Background()
	loc, err := f.svc.Criar(ctx, f.nova("MENSAL"))
	require.NoError(t, err)

	f.gw.Falha = func(op string) error {
		if op == "atualizar assinatura" {
			return errors.New("indisponível")
		}
		return nil
	}
	valor := 320.0
	res, err := f.svc.Atualizar(ctx, loc.ID, AtualizacaoLocacao{Valor: &valor})
	require.NoError(t, err)
	assert.Len(t, res.Avisos, 1)
	assert.Equal(t, 320.0, res.Locacao.Valor)
}

func TestListar_FiltroCancelado(t *testing.T) {
	f := novoFixture(t)
	ctx := context.Background()
	loc, err := f.svc.Criar(ctx, f.nova("MENSAL"))
	require.NoError(t, err)
	_, err = f.svc.Cancelar(ctx, loc.ID)
	require.NoError(t, err)
	_, err = f.svc.Criar(ctx, f.nova("MENSAL"))
	require.NoError(t, err)

	verdadeiro, falso := true, false
	todas, err := f.svc.Listar(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, todas, 2)
	canceladas, err := f.svc.Listar(ctx, &verdadeiro)
	require.NoError(t, err)
	assert.Len(t, canceladas, 1)
	ativas, err := f.svc.Listar(ctx, &falso)
	require.NoError(t, err)
	require.Len(t, ativas, 1)
	assert.False(t, ativas[0].Cancelado)
}
