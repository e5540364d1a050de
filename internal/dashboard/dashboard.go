package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/motolocadora/api-locadora/internal/models"
	"github.com/motolocadora/api-locadora/internal/utils"
	"gorm.io/gorm"
)

type Metricas struct {
	TotalClientes      int64   `json:"totalClientes"`
	TotalMotos         int64   `json:"totalMotos"`
	MotosDisponiveis   int64   `json:"motosDisponiveis"`
	LocacoesAtivas     int64   `json:"locacoesAtivas"`
	LocacoesCanceladas int64   `json:"locacoesCanceladas"`
	BoletosPendentes   int64   `json:"boletosPendentes"`
	BoletosPagos       int64   `json:"boletosPagos"`
	ReceitaMes         float64 `json:"receitaMes"`
	Inadimplentes      int64   `json:"inadimplentes"`
	Hoje               string  `json:"hoje"`
}

// Calcular monta os indicadores do painel. A receita do mês considera boletos
// quitados com data de pagamento dentro do mês de hoje.
func Calcular(ctx context.Context, db *gorm.DB, hoje time.Time) (Metricas, error) {
	db = db.WithContext(ctx)
	m := Metricas{Hoje: hoje.Format("2006-01-02")}

	contagens := []struct {
		destino *int64
		q       *gorm.DB
	}{
		{&m.TotalClientes, db.Model(&models.Cliente{})},
		{&m.TotalMotos, db.Model(&models.Moto{})},
		{&m.MotosDisponiveis, db.Model(&models.Moto{}).Where("disponivel = ?", true)},
		{&m.LocacoesAtivas, db.Model(&models.Locacao{}).Where("cancelado = ?", false)},
		{&m.LocacoesCanceladas, db.Model(&models.Locacao{}).Where("cancelado = ?", true)},
		{&m.BoletosPendentes, db.Model(&models.Boleto{}).Where("status IN ?", []string{models.StatusPendente, models.StatusVencido})},
		{&m.BoletosPagos, db.Model(&models.Boleto{}).Where("status IN ?", models.StatusQuitados)},
		{&m.Inadimplentes, db.Model(&models.Boleto{}).Where("status = ?", models.StatusVencido)},
	}
	for _, c := range contagens {
		if err := c.q.Count(c.destino).Error; err != nil {
			return Metricas{}, err
		}
	}

	inicio := time.Date(hoje.Year(), hoje.Month(), 1, 0, 0, 0, 0, time.UTC)
	fim := inicio.AddDate(0, 1, 0)
	if err := db.Model(&models.Boleto{}).
		Where("status IN ? AND data_pagamento >= ? AND data_pagamento < ?", models.StatusQuitados, inicio, fim).
		Select("COALESCE(SUM(COALESCE(valor_pago, 0)), 0)").
		Scan(&m.ReceitaMes).Error; err != nil {
		return Metricas{}, err
	}
	return m, nil
}

type Handler struct {
	DB    *gorm.DB
	Agora func() time.Time
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db, Agora: time.Now}
}

func (h *Handler) Resumo(w http.ResponseWriter, r *http.Request) {
	m, err := Calcular(r.Context(), h.DB, h.Agora())
	if err != nil {
		http.Error(w, "erro ao calcular painel", http.StatusInternalServerError)
		return
	}
	utils.JSON(w, http.StatusOK, m)
}
