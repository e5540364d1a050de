package webhook

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/motolocadora/api-locadora/internal/asaas"
	"github.com/motolocadora/api-locadora/internal/boleto"
	"github.com/motolocadora/api-locadora/internal/models"
	"github.com/motolocadora/api-locadora/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const limiteCorpo = 1 << 20

type Handler struct {
	DB           *gorm.DB
	Gateway      asaas.Gateway
	Conciliador  *boleto.Conciliador
	Autenticador Autenticador
	// Rebuscar consulta o gateway em vez de confiar só no corpo recebido.
	Rebuscar bool
	Log      *slog.Logger
}

func NewHandler(db *gorm.DB, gw asaas.Gateway, conc *boleto.Conciliador, aut Autenticador, rebuscar bool, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "webhook")
	if aut.Segredo == "" {
		if aut.PermitirSemAssinatura {
			log.Warn("ASAAS_WEBHOOK_SECRET vazio: webhooks serão aceitos sem autenticação")
		} else {
			log.Warn("ASAAS_WEBHOOK_SECRET vazio: endpoint de webhook desabilitado")
		}
	}
	return &Handler{DB: db, Gateway: gw, Conciliador: conc, Autenticador: aut, Rebuscar: rebuscar, Log: log}
}

type resposta struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	LocacaoID *uint  `json:"locacaoId,omitempty"`
}

// Receber trata POST /webhook/{provider}.
func (h *Handler) Receber(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	if provider != "asaas" {
		http.Error(w, "provedor desconhecido", http.StatusNotFound)
		return
	}

	corpo, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limiteCorpo))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "payload muito grande", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "falha ao ler payload", http.StatusBadRequest)
		return
	}

	if err := h.Autenticador.Verificar(r, corpo); err != nil {
		h.Log.Warn("webhook rejeitado", "err", err, "remote", r.RemoteAddr)
		status := http.StatusUnauthorized
		if errors.Is(err, ErrWebhookDesabilitado) {
			status = http.StatusForbidden
		}
		http.Error(w, err.Error(), status)
		return
	}

	n, err := LerNotificacao(corpo)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cob := n.Cobranca

	if h.Rebuscar && h.Gateway != nil {
		atual, err := h.Gateway.BuscarCobranca(r.Context(), cob.ID)
		if err != nil {
			h.Log.Warn("falha ao rebuscar cobrança, usando payload", "payment", cob.ID, "err", err)
		} else {
			cob = *atual
		}
	}

	ap, err := h.Conciliador.Aplicar(r.Context(), h.DB, cob, nil)
	h.registrar(r, provider, n.Evento, cob.ID, corpo, err)

	switch {
	case err == nil:
		h.Log.Info("webhook conciliado", "event", n.Evento, "payment", cob.ID, "status", cob.Status, "locacao", *ap.LocacaoID)
		utils.JSON(w, http.StatusOK, resposta{OK: true, LocacaoID: ap.LocacaoID})
	case errors.Is(err, boleto.ErrLocacaoNaoEncontrada):
		utils.JSON(w, http.StatusOK, resposta{OK: true, Error: err.Error()})
	default:
		h.Log.Error("falha ao conciliar webhook", "event", n.Evento, "payment", cob.ID, "err", err)
		utils.JSON(w, http.StatusOK, resposta{OK: false, Error: "falha ao processar notificação"})
	}
}

func (h *Handler) registrar(r *http.Request, provider, evento, paymentID string, corpo []byte, errAplicar error) {
	ev := models.WebhookEvento{
		Provider:       provider,
		Evento:         evento,
		AsaasPaymentID: paymentID,
		Payload:        datatypes.JSON(corpo),
		Processado:     errAplicar == nil,
	}
	if errAplicar != nil {
		ev.Erro = errAplicar.Error()
	}
	if err := h.DB.WithContext(r.Context()).Create(&ev).Error; err != nil {
		h.Log.Error("falha ao registrar evento de webhook", "payment", paymentID, "err", err)
	}
}

// ListarEventos devolve os últimos eventos recebidos (GET /webhooks/eventos).
func (h *Handler) ListarEventos(w http.ResponseWriter, r *http.Request) {
	var eventos []models.WebhookEvento
	q := h.DB.WithContext(r.Context()).Order("id DESC").Limit(100)
	if p := r.URL.Query().Get("payment"); p != "" {
		q = q.Where("asaas_payment_id = ?", p)
	}
	if err := q.Find(&eventos).Error; err != nil {
		http.Error(w, "erro ao listar eventos", http.StatusInternalServerError)
		return
	}
	utils.JSON(w, http.StatusOK, eventos)
}
