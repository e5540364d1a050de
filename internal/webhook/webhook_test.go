package webhook

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/motolocadora/api-locadora/internal/asaas"
	"github.com/motolocadora/api-locadora/internal/boleto"
	"github.com/motolocadora/api-locadora/internal/models"
	"github.com/motolocadora/api-locadora/internal/utils/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const segredo = "s3gr3d0"

type cenario struct {
	db      *gorm.DB
	gw      *asaas.Simulado
	router  *mux.Router
	locacao models.Locacao
}

func novoCenario(t *testing.T, aut Autenticador, rebuscar bool) *cenario {
	t.Helper()
	db := dbtest.Novo(t)
	cusID, payID := "cus_1", "pay_123"
	cli := models.Cliente{Nome: "Ana", AsaasID: &cusID}
	require.NoError(t, db.Create(&cli).Error)
	moto := models.Moto{Placa: "ABC1D23", Modelo: "Fan"}
	require.NoError(t, db.Create(&moto).Error)
	loc := models.Locacao{
		ClienteID: cli.ID, MotoID: moto.ID, DataInicio: time.Now(), Valor: 150,
		FrequenciaPagamento: models.FrequenciaUnica, AsaasPaymentID: &payID,
	}
	require.NoError(t, db.Create(&loc).Error)

	gw := asaas.NewSimulado()
	h := NewHandler(db, gw, boleto.NewConciliador(nil), aut, rebuscar, nil)
	r := mux.NewRouter()
	r.HandleFunc("/webhook/{provider}", h.Receber).Methods(http.MethodPost)
	return &cenario{db: db, gw: gw, router: r, locacao: loc}
}

func (c *cenario) enviar(t *testing.T, provider string, corpo []byte, cabecalhos map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/"+provider, bytes.NewReader(corpo))
	for k, v := range cabecalhos {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func (c *cenario) contar(t *testing.T, modelo interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, c.db.Model(modelo).Count(&n).Error)
	return n
}

var pagamentoRecebido = []byte(`{"event":"PAYMENT_RECEIVED","payment":{"object":"payment","id":"pay_123","customer":"cus_1","status":"RECEIVED","value":150,"paidValue":150,"dueDate":"2026-02-01","paymentDate":"2026-02-01"}}`)

func TestReceber_HMACValido(t *testing.T) {
	c := novoCenario(t, Autenticador{Segredo: segredo}, false)

	rec := c.enviar(t, "asaas", pagamentoRecebido, map[string]string{
		"X-Signature": "sha256=" + Assinar(segredo, pagamentoRecebido),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])

	var b models.Boleto
	require.NoError(t, c.db.Where("asaas_payment_id = ?", "pay_123").First(&b).Error)
	assert.Equal(t, models.StatusRecebido, b.Status)
	assert.Equal(t, 150.0, *b.ValorPago)

	var loc models.Locacao
	require.NoError(t, c.db.First(&loc, c.locacao.ID).Error)
	assert.Equal(t, 150.0, loc.ValorPago)
	assert.Equal(t, models.StatusRecebido, *loc.PagamentoStatus)

	var ev models.WebhookEvento
	require.NoError(t, c.db.First(&ev).Error)
	assert.Equal(t, "PAYMENT_RECEIVED", ev.Evento)
	assert.True(t, ev.Processado)
}

func TestReceber_Token(t *testing.T) {
	for _, cab := range []map[string]string{
		{"asaas-access-token": segredo},
		{"X-Webhook-Token": segredo},
		{"Authorization": "Bearer " + segredo},
	} {
		c := novoCenario(t, Autenticador{Segredo: segredo}, false)
		rec := c.enviar(t, "asaas", pagamentoRecebido, cab)
		assert.Equal(t, http.StatusOK, rec.Code, cab)
		assert.EqualValues(t, 1, c.contar(t, &models.Boleto{}))
	}
}

func TestReceber_TokenNaQuery(t *testing.T) {
	c := novoCenario(t, Autenticador{Segredo: segredo}, false)
	req := httptest.NewRequest(http.MethodPost, "/webhook/asaas?token="+segredo, bytes.NewReader(pagamentoRecebido))
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReceber_CredencialInvalidaNaoMudaNada(t *testing.T) {
	casos := map[string]struct {
		aut        Autenticador
		cabecalhos map[string]string
		status     int
	}{
		"assinatura errada": {Autenticador{Segredo: segredo}, map[string]string{"X-Hub-Signature-256": "sha256=" + Assinar("outro", pagamentoRecebido)}, http.StatusUnauthorized},
		"assinatura lixo":   {Autenticador{Segredo: segredo}, map[string]string{"Asaas-Signature": "zzz"}, http.StatusUnauthorized},
		"token errado":      {Autenticador{Segredo: segredo}, map[string]string{"asaas-access-token": "nope"}, http.StatusUnauthorized},
		"sem credencial":    {Autenticador{Segredo: segredo}, nil, http.StatusUnauthorized},
		"sem segredo":       {Autenticador{}, map[string]string{"asaas-access-token": segredo}, http.StatusForbidden},
	}
	for nome, tc := range casos {
		t.Run(nome, func(t *testing.T) {
			c := novoCenario(t, tc.aut, false)
			rec := c.enviar(t, "asaas", pagamentoRecebido, tc.cabecalhos)
			assert.Equal(t, tc.status, rec.Code)
			assert.Zero(t, c.contar(t, &models.Boleto{}))
			assert.Zero(t, c.contar(t, &models.WebhookEvento{}))

			var loc models.Locacao
			require.NoError(t, c.db.First(&loc, c.locacao.ID).Error)
			assert.Zero(t, loc.ValorPago)
			assert.Nil(t, loc.PagamentoStatus)
		})
	}
}

func TestReceber_SemSegredoPermitido(t *testing.T) {
	c := novoCenario(t, Autenticador{PermitirSemAssinatura: true}, false)
	rec := c.enviar(t, "asaas", pagamentoRecebido, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, c.contar(t, &models.Boleto{}))
}

func TestReceber_PayloadRuim(t *testing.T) {
	c := novoCenario(t, Autenticador{PermitirSemAssinatura: true}, false)

	assert.Equal(t, http.StatusBadRequest, c.enviar(t, "asaas", []byte(`{nao e json`), nil).Code)
	assert.Equal(t, http.StatusBadRequest, c.enviar(t, "asaas", []byte(`{"event":"PAYMENT_RECEIVED","payment":{"status":"RECEIVED"}}`), nil).Code)
	assert.Equal(t, http.StatusNotFound, c.enviar(t, "stripe", pagamentoRecebido, nil).Code)
	assert.Zero(t, c.contar(t, &models.Boleto{}))
}

func TestReceber_Rebuscar(t *testing.T) {
	c := novoCenario(t, Autenticador{PermitirSemAssinatura: true}, true)
	pago := 140.0
	c.gw.Adicionar(asaas.Cobranca{ID: "pay_123", Customer: "cus_1", Status: "CONFIRMED", Value: 150, PaidValue: &pago, PaymentDate: "2026-02-02"})

	rec := c.enviar(t, "asaas", pagamentoRecebido, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var b models.Boleto
	require.NoError(t, c.db.Where("asaas_payment_id = ?", "pay_123").First(&b).Error)
	assert.Equal(t, models.StatusConfirmado, b.Status)
	assert.Equal(t, 140.0, *b.ValorPago)
	assert.Equal(t, 1, c.gw.Contou("buscar cobrança"))
}

func TestLerNotificacao_Formatos(t *testing.T) {
	casos := map[string]string{
		"payment":     `{"event":"PAYMENT_CREATED","payment":{"id":"pay_1","status":"PENDING"}}`,
		"object":      `{"event":"PAYMENT_CREATED","object":{"id":"pay_1","status":"PENDING"}}`,
		"data":        `{"event":"PAYMENT_CREATED","data":{"id":"pay_1","status":"PENDING"}}`,
		"data.object": `{"event":"PAYMENT_CREATED","data":{"object":{"id":"pay_1","status":"PENDING"}}}`,
		"puro":        `{"id":"pay_1","status":"PENDING"}`,
	}
	for nome, corpo := range casos {
		n, err := LerNotificacao([]byte(corpo))
		require.NoError(t, err, nome)
		assert.Equal(t, "pay_1", n.Cobranca.ID, nome)
		assert.Equal(t, "PENDING", n.Cobranca.Status, nome)
	}
}

func TestLerNotificacao_RemocaoSemStatus(t *testing.T) {
	n, err := LerNotificacao([]byte(`{"event":"PAYMENT_DELETED","payment":{"id":"pay_1"}}`))
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelado, n.Cobranca.Status)
}
