package cliente

import (
	"context"
	"log/slog"
	"time"

	"github.com/motolocadora/api-locadora/internal/asaas"
	"github.com/motolocadora/api-locadora/internal/models"
	"gorm.io/gorm"
)

// Opcoes controla SincronizarClientes. Em DryRun nada é criado no Asaas nem
// gravado no banco: só se relata o que seria feito.
type Opcoes struct {
	DryRun    bool
	Intervalo time.Duration
}

type Relatorio struct {
	Pendentes  int `json:"pendentes"`
	Vinculados int `json:"vinculados"`
	Criados    int `json:"criados"`
	Falhas     int `json:"falhas"`
}

// SincronizarClientes procura no Asaas (CPF, depois e-mail) cada cliente sem
// asaas_id, cria os que não existirem e grava o id. Falhas individuais são
// registradas e não interrompem o lote.
func SincronizarClientes(ctx context.Context, db *gorm.DB, cad asaas.Cadastro, op Opcoes, log *slog.Logger) (Relatorio, error) {
	if log == nil {
		log = slog.Default()
	}
	repo := NewRepository()
	clientes, err := repo.ListarSemAsaas(db.WithContext(ctx))
	if err != nil {
		return Relatorio{}, err
	}

	rel := Relatorio{Pendentes: len(clientes)}
	log.Info("clientes sem asaas_id", "total", len(clientes), "dry_run", op.DryRun)

	for i := range clientes {
		if i > 0 && op.Intervalo > 0 {
			select {
			case <-ctx.Done():
				return rel, ctx.Err()
			case <-time.After(op.Intervalo):
			}
		}
		c := &clientes[i]
		asaasID, criado, err := localizarOuCriar(ctx, cad, c, op.DryRun)
		if err != nil {
			rel.Falhas++
			log.Error("falha ao sincronizar cliente", "cliente", c.ID, "err", err)
			continue
		}
		if criado {
			rel.Criados++
		}
		if op.DryRun {
			log.Info("[dry-run] cliente seria vinculado", "cliente", c.ID, "asaas_id", asaasID, "criar", criado)
			continue
		}
		if err := repo.DefinirAsaasID(db.WithContext(ctx), c.ID, asaasID); err != nil {
			rel.Falhas++
			log.Error("falha ao gravar asaas_id", "cliente", c.ID, "asaas_id", asaasID, "err", err)
			continue
		}
		rel.Vinculados++
		log.Info("cliente vinculado", "cliente", c.ID, "asaas_id", asaasID, "criado", criado)
	}
	return rel, nil
}

func localizarOuCriar(ctx context.Context, cad asaas.Cadastro, c *models.Cliente, dryRun bool) (string, bool, error) {
	if cpf := valor(c.CPF); cpf != "" {
		found, err := cad.BuscarClientePorCPF(ctx, cpf)
		if err != nil {
			return "", false, err
		}
		if found != nil {
			return found.ID, false, nil
		}
	}
	if email := valor(c.Email); email != "" {
		found, err := cad.BuscarClientePorEmail(ctx, email)
		if err != nil {
			return "", false, err
		}
		if found != nil {
			return found.ID, false, nil
		}
	}
	novo := novoClienteAsaas(c)
	if novo.CpfCnpj == "" && novo.Email == "" {
		return "", false, asaas.ErrClienteSemChaves
	}
	if dryRun {
		return "", true, nil
	}
	criado, err := cad.CriarCliente(ctx, novo)
	if err != nil {
		return "", false, err
	}
	return criado.ID, true, nil
}
