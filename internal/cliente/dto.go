package cliente

import (
	"strings"

	"github.com/motolocadora/api-locadora/internal/asaas"
	"github.com/motolocadora/api-locadora/internal/models"
)

type clienteRequest struct {
	Nome           string `json:"nome" validate:"required"`
	Email          string `json:"email" validate:"omitempty,email"`
	Telefone       string `json:"telefone"`
	CPF            string `json:"cpf" validate:"omitempty,min=11,max=14"`
	Endereco       string `json:"endereco"`
	DataNascimento string `json:"dataNascimento"`
	Observacoes    string `json:"observacoes"`
}

// aplicar copia o request para o modelo; strings vazias viram NULL nas colunas únicas.
func (req clienteRequest) aplicar(c *models.Cliente) {
	c.Nome = strings.TrimSpace(req.Nome)
	c.Email = opcional(strings.ToLower(req.Email))
	c.Telefone = strings.TrimSpace(req.Telefone)
	c.CPF = opcional(SomenteDigitos(req.CPF))
	c.Endereco = req.Endereco
	c.Observacoes = req.Observacoes
	c.DataNascimento = nil
	if req.DataNascimento != "" {
		c.DataNascimento = asaas.ParseData(req.DataNascimento)
	}
}

type clienteResponse struct {
	Cliente *models.Cliente `json:"cliente"`
	Avisos  []string        `json:"avisos,omitempty"`
}

func opcional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// SomenteDigitos remove pontuação de CPF/CNPJ.
func SomenteDigitos(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func valor(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func novoClienteAsaas(c *models.Cliente) asaas.NovoCliente {
	return asaas.NovoCliente{
		Name:        c.Nome,
		Email:       valor(c.Email),
		CpfCnpj:     valor(c.CPF),
		MobilePhone: SomenteDigitos(c.Telefone),
	}
}

