package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizarFrequencia(t *testing.T) {
	casos := map[string]string{
		"weekly":  FrequenciaSemanal,
		"Semanal": FrequenciaSemanal,
		"MONTHLY": FrequenciaMensal,
		" mensal": FrequenciaMensal,
		"único":   FrequenciaUnica,
		"avulso":  FrequenciaUnica,
	}
	for entrada, esperado := range casos {
		got, ok := NormalizarFrequencia(entrada)
		assert.True(t, ok, entrada)
		assert.Equal(t, esperado, got, entrada)
	}

	for _, invalida := range []string{"BIWEEKLY", "QUINZENAL", "YEARLY", ""} {
		_, ok := NormalizarFrequencia(invalida)
		assert.False(t, ok, invalida)
	}
}
