package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/motolocadora/api-locadora/internal/arquivos"
	"github.com/motolocadora/api-locadora/internal/auth"
	"github.com/motolocadora/api-locadora/internal/models"
	"github.com/spf13/cobra"
)

func novoServeCmd(a *app) *cobra.Command {
	var migrar bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Sobe a API HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := a.conectar()
			if err != nil {
				return err
			}
			if migrar {
				if err := models.Migrate(database); err != nil {
					return err
				}
			}
			arq, err := arquivos.New(a.cfg.UploadFolder)
			if err != nil {
				return err
			}
			tokens, err := auth.NewTokens(a.cfg.JWTSecret)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr: ":" + a.cfg.Port,
				Handler: novoRouter(dependencias{
					cfg:     a.cfg,
					db:      database,
					gateway: a.gateway(),
					arq:     arq,
					tokens:  tokens,
					log:     a.log,
				}),
				ReadHeaderTimeout: 10 * time.Second,
				WriteTimeout:      60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			erros := make(chan error, 1)
			go func() {
				a.log.Info("servidor rodando", "addr", srv.Addr, "env", a.cfg.Env)
				erros <- srv.ListenAndServe()
			}()

			select {
			case err := <-erros:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.log.Info("encerrando servidor")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&migrar, "migrate", true, "roda a migração antes de subir")
	return cmd
}
