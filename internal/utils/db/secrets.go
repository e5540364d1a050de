package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/motolocadora/api-locadora/internal/config"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// secretGetter é o subconjunto do client do Secrets Manager que usamos.
type secretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

var ErrCredenciaisAusentes = errors.New("defina DB_USER/DB_PASSWORD ou DB_SECRET_ID")

func retrieveCredentials(cfg config.Config) (string, string, error) {
	if cfg.DBUser != "" && cfg.DBPassword != "" {
		return cfg.DBUser, cfg.DBPassword, nil
	}
	if cfg.DBSecretID == "" {
		return "", "", ErrCredenciaisAusentes
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", "", fmt.Errorf("carregar config AWS: %w", err)
	}
	secret, err := fetchSecret(ctx, secretsmanager.NewFromConfig(awsCfg), cfg.DBSecretID)
	if err != nil {
		return "", "", err
	}
	return secret.Username, secret.Password, nil
}

func fetchSecret(ctx context.Context, sm secretGetter, secretID string) (Credentials, error) {
	result, err := sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretID),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("ler segredo %s: %w", secretID, err)
	}
	if result.SecretString == nil {
		return Credentials{}, fmt.Errorf("segredo %s sem SecretString", secretID)
	}

	var secret Credentials
	if err := json.Unmarshal([]byte(*result.SecretString), &secret); err != nil {
		return Credentials{}, fmt.Errorf("decodificar segredo %s: %w", secretID, err)
	}
	if secret.Username == "" || secret.Password == "" {
		return Credentials{}, fmt.Errorf("segredo %s incompleto", secretID)
	}
	return secret, nil
}
