package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/motolocadora/api-locadora/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDataBase abre o pool do Postgres a partir da configuração.
// DATABASE_URL tem prioridade sobre DB_HOST/DB_PORT/DB_NAME; com o prefixo
// sqlite:// o banco local é usado (desenvolvimento).
func ConnectDataBase(cfg config.Config) (*gorm.DB, error) {
	if caminho, ok := strings.CutPrefix(cfg.DatabaseURL, "sqlite://"); ok {
		return ConnectSQLite(caminho)
	}

	dsn, err := montarDSN(cfg)
	if err != nil {
		return nil, err
	}

	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("conectar no banco: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return database, nil
}

func montarDSN(cfg config.Config) (string, error) {
	if cfg.DatabaseURL != "" {
		// Alguns provedores entregam postgres://, o driver aceita postgresql:// em todos os casos.
		if strings.HasPrefix(cfg.DatabaseURL, "postgres://") {
			return "postgresql://" + strings.TrimPrefix(cfg.DatabaseURL, "postgres://"), nil
		}
		return cfg.DatabaseURL, nil
	}

	username, password, err := retrieveCredentials(cfg)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		cfg.DBHost, username, password, cfg.DBName, cfg.DBPort, cfg.DBSSLMode), nil
}

// ConnectSQLite abre um banco SQLite. Com ":memory:" o pool fica preso a uma
// única conexão, senão cada conexão veria um banco vazio.
func ConnectSQLite(caminho string) (*gorm.DB, error) {
	if caminho == "" {
		caminho = ":memory:"
	}
	database, err := gorm.Open(sqlite.Open(caminho), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("abrir sqlite: %w", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	return database, nil
}
