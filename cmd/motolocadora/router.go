package main

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"
	"github.com/motolocadora/api-locadora/internal/arquivos"
	"github.com/motolocadora/api-locadora/internal/asaas"
	"github.com/motolocadora/api-locadora/internal/auth"
	"github.com/motolocadora/api-locadora/internal/boleto"
	"github.com/motolocadora/api-locadora/internal/cliente"
	"github.com/motolocadora/api-locadora/internal/config"
	"github.com/motolocadora/api-locadora/internal/dashboard"
	"github.com/motolocadora/api-locadora/internal/locacao"
	"github.com/motolocadora/api-locadora/internal/moto"
	"github.com/motolocadora/api-locadora/internal/servico"
	"github.com/motolocadora/api-locadora/internal/utils"
	"github.com/motolocadora/api-locadora/internal/webhook"
	"github.com/rs/cors"
	"gorm.io/gorm"
)

// dependencias é tudo que o roteador precisa já construído.
type dependencias struct {
	cfg     config.Config
	db      *gorm.DB
	gateway asaas.Gateway
	arq     *arquivos.Armazenamento
	tokens  *auth.Tokens
	log     *slog.Logger
}

func novoRouter(d dependencias) http.Handler {
	conciliador := boleto.NewConciliador(d.log)
	sincronizador := boleto.NewSincronizador(d.db, d.gateway, conciliador, d.log)
	locacaoService := locacao.NewService(d.db, d.gateway, conciliador, d.log)

	authHandler := auth.NewHandler(d.db, d.tokens, d.log)
	clienteHandler := cliente.NewHandler(d.db, d.gateway, d.arq, d.log)
	motoHandler := moto.NewHandler(d.db, d.arq, d.log)
	locacaoHandler := locacao.NewHandler(locacaoService, d.arq)
	boletoHandler := boleto.NewHandler(d.db, sincronizador, d.log)
	servicoHandler := servico.NewHandler(d.db)
	dashboardHandler := dashboard.NewHandler(d.db)
	webhookHandler := webhook.NewHandler(d.db, d.gateway, conciliador, webhook.Autenticador{
		Segredo:               d.cfg.WebhookSecret,
		PermitirSemAssinatura: d.cfg.WebhookAllowUnsigned,
	}, d.cfg.WebhookRefetch, d.log)

	r := mux.NewRouter()
	r.Use(recuperar(d.log))

	// Rotas públicas
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/webhook/{provider}", webhookHandler.Receber).Methods("POST")

	api := r.NewRoute().Subrouter()
	api.Use(d.tokens.MiddlewareAutenticacao)

	api.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	api.Handle("/usuarios", auth.RequireAdmin(http.HandlerFunc(authHandler.CriarUsuario))).Methods("POST")

	// Clientes
	api.HandleFunc("/clientes", clienteHandler.Listar).Methods("GET")
	api.HandleFunc("/clientes", clienteHandler.Criar).Methods("POST")
	api.HandleFunc("/clientes/{id:[0-9]+}", clienteHandler.BuscarPorID).Methods("GET")
	api.HandleFunc("/clientes/{id:[0-9]+}", clienteHandler.Atualizar).Methods("PUT")
	api.HandleFunc("/clientes/{id:[0-9]+}", clienteHandler.Deletar).Methods("DELETE")
	api.HandleFunc("/clientes/{id:[0-9]+}/asaas", clienteHandler.VincularAsaas).Methods("POST")
	api.HandleFunc("/clientes/{id:[0-9]+}/habilitacao", clienteHandler.EnviarHabilitacao).Methods("POST")
	api.HandleFunc("/clientes/{id:[0-9]+}/habilitacao", clienteHandler.BaixarHabilitacao).Methods("GET")
	api.HandleFunc("/clientes/{id:[0-9]+}/habilitacao", clienteHandler.RemoverHabilitacao).Methods("DELETE")
	api.HandleFunc("/clientes/{id:[0-9]+}/boletos/sincronizar", boletoHandler.SincronizarCliente).Methods("POST")

	// Motos
	api.HandleFunc("/motos", motoHandler.Listar).Methods("GET")
	api.HandleFunc("/motos", motoHandler.Criar).Methods("POST")
	api.HandleFunc("/motos/{id:[0-9]+}", motoHandler.BuscarPorID).Methods("GET")
	api.HandleFunc("/motos/{id:[0-9]+}", motoHandler.Atualizar).Methods("PUT")
	api.HandleFunc("/motos/{id:[0-9]+}", motoHandler.Deletar).Methods("DELETE")
	api.HandleFunc("/motos/{id:[0-9]+}/documento", motoHandler.EnviarDocumento).Methods("POST")
	api.HandleFunc("/motos/{id:[0-9]+}/documento", motoHandler.BaixarDocumento).Methods("GET")
	api.HandleFunc("/motos/{id:[0-9]+}/documento", motoHandler.RemoverDocumento).Methods("DELETE")
	api.HandleFunc("/motos/{id:[0-9]+}/imagens", motoHandler.ListarImagens).Methods("GET")
	api.HandleFunc("/motos/{id:[0-9]+}/imagens", motoHandler.EnviarImagens).Methods("POST")
	api.HandleFunc("/motos/{id:[0-9]+}/imagens/{img:[0-9]+}", motoHandler.BaixarImagem).Methods("GET")
	api.HandleFunc("/motos/{id:[0-9]+}/imagens/{img:[0-9]+}", motoHandler.RemoverImagem).Methods("DELETE")

	// Locações
	api.HandleFunc("/locacoes", locacaoHandler.Listar).Methods("GET")
	api.HandleFunc("/locacoes", locacaoHandler.Criar).Methods("POST")
	api.HandleFunc("/locacoes/{id:[0-9]+}", locacaoHandler.BuscarPorID).Methods("GET")
	api.HandleFunc("/locacoes/{id:[0-9]+}", locacaoHandler.Atualizar).Methods("PUT")
	api.HandleFunc("/locacoes/{id:[0-9]+}/cancelar", locacaoHandler.Cancelar).Methods("POST")
	api.HandleFunc("/locacoes/{id:[0-9]+}/contrato", locacaoHandler.EnviarContrato).Methods("POST")
	api.HandleFunc("/locacoes/{id:[0-9]+}/contrato", locacaoHandler.BaixarContrato).Methods("GET")
	api.HandleFunc("/locacoes/{id:[0-9]+}/contrato", locacaoHandler.RemoverContrato).Methods("DELETE")
	api.HandleFunc("/locacoes/{id:[0-9]+}/boletos", boletoHandler.ListarPorLocacao).Methods("GET")
	api.HandleFunc("/locacoes/{id:[0-9]+}/boletos/sincronizar", boletoHandler.SincronizarLocacao).Methods("POST")
	api.HandleFunc("/locacoes/{id:[0-9]+}/servicos", servicoHandler.Listar).Methods("GET")
	api.HandleFunc("/locacoes/{id:[0-9]+}/servicos", servicoHandler.Criar).Methods("POST")
	api.HandleFunc("/locacoes/{id:[0-9]+}/servicos/{sid:[0-9]+}", servicoHandler.Remover).Methods("DELETE")

	// Boletos e painel
	api.HandleFunc("/boletos", boletoHandler.Listar).Methods("GET")
	api.HandleFunc("/dashboard", dashboardHandler.Resumo).Methods("GET")
	api.HandleFunc("/webhooks/eventos", webhookHandler.ListarEventos).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   d.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// recuperar transforma panics em 500 sem derrubar o processo.
func recuperar(log *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic na requisição", "method", r.Method, "path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()))
					http.Error(w, "erro interno", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
