package asaas

import (
	"errors"
	"fmt"
)

var (
	ErrRespostaSemID    = errors.New("asaas: resposta sem id")
	ErrNaoConfigurado   = errors.New("asaas: ASAAS_API_KEY não configurada")
	ErrFiltroVazio      = errors.New("asaas: informe assinatura ou cliente para listar cobranças")
	ErrIDVazio          = errors.New("asaas: id vazio")
	ErrClienteSemChaves = errors.New("asaas: cliente sem CPF nem e-mail para busca")
)

// APIError é qualquer resposta não-2xx do Asaas.
type APIError struct {
	Operacao string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("asaas %s: HTTP %d: %s", e.Operacao, e.Status, e.Body)
}

// NaoEncontrado indica 404 do provedor.
func NaoEncontrado(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 404
}
