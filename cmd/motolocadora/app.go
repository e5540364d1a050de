package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/motolocadora/api-locadora/internal/asaas"
	"github.com/motolocadora/api-locadora/internal/config"
	"github.com/motolocadora/api-locadora/internal/utils/db"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// app reúne as dependências compartilhadas pelos subcomandos.
type app struct {
	cfg config.Config
	log *slog.Logger
	db  *gorm.DB
}

func novoRootCmd() *cobra.Command {
	a := &app{}
	var nivel string

	root := &cobra.Command{
		Use:           "motolocadora",
		Short:         "API e rotinas de manutenção da locadora de motos",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.log = novoLogger(nivel)
			slog.SetDefault(a.log)
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&nivel, "log-level", "info", "debug, info, warn ou error")

	root.AddCommand(
		novoServeCmd(a),
		novoMigrateCmd(a),
		novoSyncClientesCmd(a),
		novoCriarAdminCmd(a),
	)
	return root
}

func novoLogger(nivel string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(nivel) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}

// conectar abre o banco uma única vez por processo.
func (a *app) conectar() (*gorm.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	database, err := db.ConnectDataBase(a.cfg)
	if err != nil {
		return nil, err
	}
	a.db = database
	return database, nil
}

// gateway escolhe o simulado (ASAAS_MOCK), o cliente real ou, sem chave,
// um gateway que recusa toda operação.
func (a *app) gateway() asaas.Gateway {
	if a.cfg.AsaasMock {
		a.log.Warn("ASAAS_MOCK ativo, cobranças não saem do processo")
		return asaas.NewSimulado()
	}
	c, err := asaas.NewClient(asaas.Config{
		BaseURL: a.cfg.AsaasBaseURL,
		APIKey:  a.cfg.AsaasAPIKey,
		Timeout: a.cfg.AsaasTimeout,
	}, a.log)
	if errors.Is(err, asaas.ErrNaoConfigurado) {
		a.log.Warn("ASAAS_API_KEY ausente, operações de cobrança desabilitadas")
		return asaas.Desabilitado{}
	}
	if err != nil {
		a.log.Error("falha ao criar cliente asaas", "err", err)
		return asaas.Desabilitado{}
	}
	return c
}

// cadastro exige um gateway capaz de consultar clientes.
func (a *app) cadastro() (asaas.Cadastro, error) {
	cad, ok := a.gateway().(asaas.Cadastro)
	if !ok {
		return nil, fmt.Errorf("sincronização indisponível: %w", asaas.ErrNaoConfigurado)
	}
	return cad, nil
}
