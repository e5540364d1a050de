package asaas

import "context"

// Desabilitado é usado quando não há ASAAS_API_KEY nem ASAAS_MOCK: a API sobe,
// mas toda operação de cobrança falha com ErrNaoConfigurado.
type Desabilitado struct{}

func (Desabilitado) BuscarOuCriarCliente(context.Context, NovoCliente) (*Cliente, error) {
	return nil, ErrNaoConfigurado
}
func (Desabilitado) CriarCobranca(context.Context, NovaCobranca) (*Cobranca, error) {
	return nil, ErrNaoConfigurado
}
func (Desabilitado) BuscarCobranca(context.Context, string) (*Cobranca, error) {
	return nil, ErrNaoConfigurado
}
func (Desabilitado) CancelarCobranca(context.Context, string) error { return ErrNaoConfigurado }
func (Desabilitado) ListarCobrancas(context.Context, FiltroCobrancas) ([]Cobranca, error) {
	return nil, ErrNaoConfigurado
}
func (Desabilitado) CriarAssinatura(context.Context, NovaAssinatura) (*Assinatura, error) {
	return nil, ErrNaoConfigurado
}
func (Desabilitado) AtualizarAssinatura(context.Context, string, AtualizacaoAssinatura) (*Assinatura, error) {
	return nil, ErrNaoConfigurado
}
func (Desabilitado) CancelarAssinatura(context.Context, string) error { return ErrNaoConfigurado }

var _ Gateway = Desabilitado{}
