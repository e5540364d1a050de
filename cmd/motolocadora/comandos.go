package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/motolocadora/api-locadora/internal/auth"
	"github.com/motolocadora/api-locadora/internal/cliente"
	"github.com/motolocadora/api-locadora/internal/models"
	"github.com/motolocadora/api-locadora/internal/utils"
	"github.com/spf13/cobra"
)

func novoMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Cria ou atualiza as tabelas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := a.conectar()
			if err != nil {
				return err
			}
			if err := models.Migrate(database); err != nil {
				return fmt.Errorf("migrar: %w", err)
			}
			a.log.Info("migração concluída")
			return nil
		},
	}
}

func novoSyncClientesCmd(a *app) *cobra.Command {
	var (
		aplicar   bool
		intervalo time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sync-clientes",
		Short: "Vincula ao Asaas os clientes sem asaas_id (simulação por padrão)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := a.conectar()
			if err != nil {
				return err
			}
			cad, err := a.cadastro()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rel, err := cliente.SincronizarClientes(ctx, database, cad, cliente.Opcoes{
				DryRun:    !aplicar,
				Intervalo: intervalo,
			}, a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pendentes=%d vinculados=%d criados=%d falhas=%d\n",
				rel.Pendentes, rel.Vinculados, rel.Criados, rel.Falhas)
			return nil
		},
	}
	cmd.Flags().BoolVar(&aplicar, "apply", false, "grava no banco e cria clientes no Asaas")
	cmd.Flags().DurationVar(&intervalo, "intervalo", 300*time.Millisecond, "pausa entre clientes")
	return cmd
}

func novoCriarAdminCmd(a *app) *cobra.Command {
	var email, senha string
	cmd := &cobra.Command{
		Use:   "criar-admin",
		Short: "Cadastra um usuário administrador",
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := a.conectar()
			if err != nil {
				return err
			}
			if err := models.Migrate(database); err != nil {
				return err
			}
			gerada := senha == ""
			if gerada {
				if senha, err = utils.GerarSenhaTemporaria(); err != nil {
					return err
				}
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			u, err := auth.CriarUsuario(database.WithContext(ctx), email, senha, true)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s criado (id %d)\n", u.Email, u.ID)
			if gerada {
				fmt.Fprintf(cmd.OutOrStdout(), "senha temporária: %s\n", senha)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "e-mail do administrador")
	cmd.Flags().StringVar(&senha, "senha", "", "senha (gerada se omitida)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
