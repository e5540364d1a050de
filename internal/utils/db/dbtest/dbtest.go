// Package dbtest abre bancos SQLite em memória já migrados para os testes.
package dbtest

import (
	"testing"

	"github.com/motolocadora/api-locadora/internal/models"
	"github.com/motolocadora/api-locadora/internal/utils/db"
	"gorm.io/gorm"
)

func Novo(t testing.TB) *gorm.DB {
	t.Helper()
	database, err := db.ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("abrir banco de teste: %v", err)
	}
	if err := models.Migrate(database); err != nil {
		t.Fatalf("migrar banco de teste: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return database
}
