package arquivos

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
)

const LimiteUpload = 16 << 20

// ArquivoDoForm lê o campo de upload de um multipart/form-data.
func ArquivoDoForm(r *http.Request, campo string) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(LimiteUpload); err != nil {
		return nil, nil, err
	}
	return r.FormFile(campo)
}

// Servir envia o arquivo com Content-Disposition inline.
func (a *Armazenamento) Servir(w http.ResponseWriter, r *http.Request, finalidade, nome string) {
	f, err := a.Abrir(finalidade, nome)
	switch {
	case errors.Is(err, ErrArquivoNaoEncontrado), errors.Is(err, ErrNomeInvalido):
		http.Error(w, "arquivo não encontrado", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, "erro ao abrir arquivo", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "erro ao abrir arquivo", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Disposition", `inline; filename="`+filepath.Base(nome)+`"`)
	http.ServeContent(w, r, nome, info.ModTime(), f)
}

// StatusErro traduz erros de Salvar para HTTP.
func StatusErro(err error) int {
	switch {
	case errors.Is(err, ErrExtensaoNaoPermitida), errors.Is(err, ErrNomeInvalido):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
