package locacao

import "errors"

var (
	ErrDadosInvalidos         = errors.New("dados da locação inválidos")
	ErrFrequenciaInvalida     = errors.New("frequência de pagamento inválida")
	ErrDatasInvalidas         = errors.New("data final anterior à data inicial")
	ErrClienteNaoEncontrado   = errors.New("cliente não encontrado")
	ErrClienteSemAsaas        = errors.New("cliente sem cadastro no asaas")
	ErrMotoNaoEncontrada      = errors.New("moto não encontrada")
	ErrMotoIndisponivel       = errors.New("moto indisponível")
	ErrLocacaoNaoEncontrada   = errors.New("locação não encontrada")
	ErrLocacaoJaCancelada     = errors.New("locação já cancelada")
	ErrFrequenciaIncompativel = errors.New("não é possível trocar entre cobrança única e recorrente")
	ErrGateway                = errors.New("falha no gateway de pagamento")
)
