package locacao

import "github.com/motolocadora/api-locadora/internal/models"

// NovaLocacao é o corpo de POST /locacoes. Datas no formato 2006-01-02.
type NovaLocacao struct {
	ClienteID           uint    `json:"clienteId" validate:"required"`
	MotoID              uint    `json:"motoId" validate:"required"`
	DataInicio          string  `json:"dataInicio" validate:"required"`
	DataFim             string  `json:"dataFim"`
	Valor               float64 `json:"valor" validate:"gt=0"`
	FrequenciaPagamento string  `json:"frequenciaPagamento" validate:"required"`
	Observacoes         string  `json:"observacoes"`
}

// AtualizacaoLocacao é o corpo de PUT /locacoes/{id}; campos ausentes não mudam.
type AtualizacaoLocacao struct {
	DataInicio          *string  `json:"dataInicio"`
	DataFim             *string  `json:"dataFim"`
	Valor               *float64 `json:"valor" validate:"omitempty,gt=0"`
	FrequenciaPagamento *string  `json:"frequenciaPagamento"`
	Observacoes         *string  `json:"observacoes"`
}

// Resultado acompanha operações em que o gateway pode falhar sem desfazer o trabalho local.
type Resultado struct {
	Locacao *models.Locacao `json:"locacao"`
	Avisos  []string        `json:"avisos,omitempty"`
}
