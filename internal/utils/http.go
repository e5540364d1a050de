package utils

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// ParseID lê um parâmetro numérico da rota.
func ParseID(r *http.Request, nome string) (uint, bool) {
	n, err := strconv.ParseUint(mux.Vars(r)[nome], 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// JSON escreve v com o status informado.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ParseBoolQuery devolve nil quando o parâmetro não foi enviado.
func ParseBoolQuery(r *http.Request, nome string) *bool {
	v := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(nome)))
	switch v {
	case "true", "1", "sim":
		b := true
		return &b
	case "false", "0", "nao", "não":
		b := false
		return &b
	}
	return nil
}
