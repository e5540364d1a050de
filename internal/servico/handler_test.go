package servico

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/motolocadora/api-locadora/internal/models"
	"github.com/motolocadora/api-locadora/internal/utils/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServicos(t *testing.T) {
	db := dbtest.Novo(t)
	c := models.Cliente{Nome: "Ana"}
	require.NoError(t, db.Create(&c).Error)
	m := models.Moto{Placa: "ABC1D23", Modelo: "Fan"}
	require.NoError(t, db.Create(&m).Error)
	loc := models.Locacao{ClienteID: c.ID, MotoID: m.ID, DataInicio: time.Now(), Valor: 1, FrequenciaPagamento: models.FrequenciaUnica}
	require.NoError(t, db.Create(&loc).Error)

	h := NewHandler(db)
	r := mux.NewRouter()
	r.HandleFunc("/locacoes/{id}/servicos", h.Listar).Methods(http.MethodGet)
	r.HandleFunc("/locacoes/{id}/servicos", h.Criar).Methods(http.MethodPost)
	r.HandleFunc("/locacoes/{id}/servicos/{sid}", h.Remover).Methods(http.MethodDelete)
	base := "/locacoes/" + strconv.FormatUint(uint64(loc.ID), 10) + "/servicos"

	do := func(metodo, url string, corpo interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		_ = json.NewEncoder(&buf).Encode(corpo)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(metodo, url, &buf))
		return rec
	}

	rec := do(http.MethodPost, base, map[string]interface{}{"descricao": "Troca de óleo", "valor": 45.5, "quilometragem": 12000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var s models.ServicoLocacao
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, 12000, *s.Quilometragem)

	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, base, map[string]interface{}{"descricao": "  "}).Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodPost, "/locacoes/999/servicos", map[string]interface{}{"descricao": "x"}).Code)

	rec = do(http.MethodGet, base, nil)
	var lista []models.ServicoLocacao
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lista))
	assert.Len(t, lista, 1)

	sid := strconv.FormatUint(uint64(s.ID), 10)
	assert.Equal(t, http.StatusNotFound, do(http.MethodDelete, "/locacoes/999/servicos/"+sid, nil).Code)
	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, base+"/"+sid, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodDelete, base+"/"+sid, nil).Code)
}
