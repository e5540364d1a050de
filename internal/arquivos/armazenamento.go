// Package arquivos guarda anexos (contratos, CNH, documentos e fotos das motos)
// no disco local, um diretório por finalidade.
package arquivos

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	Contratos    = "contratos"
	Habilitacoes = "habilitacoes"
	Documentos   = "documentos"
	Motos        = "motos"
)

var finalidades = []string{Contratos, Habilitacoes, Documentos, Motos}

var (
	ExtDocumento = []string{".pdf", ".png", ".jpg", ".jpeg"}
	ExtImagem    = []string{".png", ".jpg", ".jpeg"}
)

var (
	ErrExtensaoNaoPermitida = errors.New("tipo de arquivo não permitido")
	ErrNomeInvalido         = errors.New("nome de arquivo inválido")
	ErrFinalidadeInvalida   = errors.New("finalidade de arquivo desconhecida")
	ErrArquivoNaoEncontrado = errors.New("arquivo não encontrado")
)

type Armazenamento struct {
	Base string
}

// New cria os diretórios de cada finalidade sob base.
func New(base string) (*Armazenamento, error) {
	for _, f := range finalidades {
		if err := os.MkdirAll(filepath.Join(base, f), 0o755); err != nil {
			return nil, fmt.Errorf("criar diretório de %s: %w", f, err)
		}
	}
	return &Armazenamento{Base: base}, nil
}

// Salvar grava o conteúdo como <donoID>_<uuid><ext> e devolve o nome gerado.
// O arquivo só aparece no destino depois de escrito por completo.
func (a *Armazenamento) Salvar(finalidade string, donoID uint, nomeOriginal string, conteudo io.Reader, permitidas []string) (string, error) {
	dir, err := a.diretorio(finalidade)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filepath.Base(nomeOriginal)))
	if !permitida(ext, permitidas) {
		return "", ErrExtensaoNaoPermitida
	}

	nome := fmt.Sprintf("%d_%s%s", donoID, uuid.NewString(), ext)
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("criar temporário: %w", err)
	}
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, conteudo); err != nil {
		return "", fmt.Errorf("gravar %s: %w", nome, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("fechar %s: %w", nome, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, nome)); err != nil {
		return "", fmt.Errorf("mover %s: %w", nome, err)
	}
	tmp = nil
	return nome, nil
}

func (a *Armazenamento) Abrir(finalidade, nome string) (*os.File, error) {
	p, err := a.Caminho(finalidade, nome)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrArquivoNaoEncontrado
	}
	return f, err
}

// Remover ignora arquivos que já não existem.
func (a *Armazenamento) Remover(finalidade, nome string) error {
	if nome == "" {
		return nil
	}
	p, err := a.Caminho(finalidade, nome)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Caminho resolve o caminho absoluto do arquivo, recusando qualquer nome que
// saia do diretório da finalidade.
func (a *Armazenamento) Caminho(finalidade, nome string) (string, error) {
	dir, err := a.diretorio(finalidade)
	if err != nil {
		return "", err
	}
	if nome == "" || nome != filepath.Base(nome) || nome == "." || nome == ".." || strings.ContainsAny(nome, `/\`) {
		return "", ErrNomeInvalido
	}
	return filepath.Join(dir, nome), nil
}

func (a *Armazenamento) diretorio(finalidade string) (string, error) {
	for _, f := range finalidades {
		if f == finalidade {
			return filepath.Join(a.Base, f), nil
		}
	}
	return "", ErrFinalidadeInvalida
}

func permitida(ext string, permitidas []string) bool {
	if ext == "" {
		return false
	}
	for _, p := range permitidas {
		if p == ext {
			return true
		}
	}
	return false
}
