package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config agrega todas as variáveis de ambiente usadas pela API e pelos comandos.
type Config struct {
	Env  string
	Port string

	DatabaseURL string
	DBHost      string
	DBPort      uint
	DBName      string
	DBUser      string
	DBPassword  string
	DBSSLMode   string
	DBSecretID  string

	JWTSecret   string
	CORSOrigins []string

	AsaasAPIKey  string
	AsaasBaseURL string
	AsaasTimeout time.Duration
	AsaasMock    bool

	WebhookSecret        string
	WebhookAllowUnsigned bool
	WebhookRefetch       bool

	UploadFolder string
}

var ErrJWTSecretAusente = errors.New("JWT_SECRET não definida")

// Load lê o .env (se existir) e monta a configuração.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("falha ao ler .env", "err", err)
	}

	cfg := Config{
		Env:  getenv("APP_ENV", "production"),
		Port: getenv("PORT", "8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getenv("DB_HOST", "localhost"),
		DBPort:      uint(getUint("DB_PORT", 5432)),
		DBName:      getenv("DB_NAME", "motorental"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBSSLMode:   getenv("DB_SSLMODE", "require"),
		DBSecretID:  os.Getenv("DB_SECRET_ID"),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSOrigins: splitList(getenv("CORS_ORIGINS", "http://localhost:3000")),

		AsaasAPIKey:  os.Getenv("ASAAS_API_KEY"),
		AsaasBaseURL: getenv("ASAAS_BASE_URL", "https://sandbox.asaas.com/api/v3"),
		AsaasTimeout: getDuration("ASAAS_TIMEOUT", 30*time.Second),
		AsaasMock:    getBool("ASAAS_MOCK"),

		WebhookSecret:        strings.TrimSpace(os.Getenv("ASAAS_WEBHOOK_SECRET")),
		WebhookAllowUnsigned: getBool("WEBHOOK_ALLOW_UNSIGNED"),
		WebhookRefetch:       getBool("WEBHOOK_REFETCH"),

		UploadFolder: getenv("UPLOAD_FOLDER", "uploads"),
	}

	// Segredo fixo só com APP_ENV de desenvolvimento explícito.
	if cfg.JWTSecret == "" {
		if !cfg.Desenvolvimento() {
			return cfg, ErrJWTSecretAusente
		}
		cfg.JWTSecret = "dev-secret"
	}
	// O gateway nunca deve ficar pendurado: 10s..30s.
	if cfg.AsaasTimeout < 10*time.Second {
		cfg.AsaasTimeout = 10 * time.Second
	}
	if cfg.AsaasTimeout > 30*time.Second {
		cfg.AsaasTimeout = 30 * time.Second
	}
	return cfg, nil
}

// Desenvolvimento indica APP_ENV=development/dev/local.
func (c Config) Desenvolvimento() bool {
	switch strings.ToLower(c.Env) {
	case "development", "dev", "local":
		return true
	}
	return false
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getUint(k string, def uint64) uint64 {
	v, err := strconv.ParseUint(os.Getenv(k), 10, 32)
	if err != nil {
		return def
	}
	return v
}

func getBool(k string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func getDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
