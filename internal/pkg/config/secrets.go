// internal/pkg/config/secrets.go
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManager abstracts where sensitive configuration values come from.
type SecretsManager interface {
	GetSecrets(ctx context.Context, keys []string) (map[string]string, error)
}

const secretsCacheTTL = 5 * time.Minute

// AWSSecretsManager reads a JSON secret from AWS Secrets Manager. The
// whole secret is cached briefly so repeated lookups during startup do
// not hammer the API.
type AWSSecretsManager struct {
	client     *secretsmanager.Client
	secretName string
	logger     *slog.Logger

	mu        sync.Mutex
	values    map[string]string
	fetchedAt time.Time
}

// NewAWSSecretsManager builds a client for the named secret.
func NewAWSSecretsManager(region, secretName string, logger *slog.Logger) (*AWSSecretsManager, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &AWSSecretsManager{
		client:     secretsmanager.NewFromConfig(cfg),
		secretName: secretName,
		logger:     logger,
	}, nil
}

// GetSecrets returns the requested keys from the secret. Keys absent from
// the secret are omitted from the result, not errored.
func (sm *AWSSecretsManager) GetSecrets(ctx context.Context, keys []string) (map[string]string, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.values == nil || time.Since(sm.fetchedAt) >= secretsCacheTTL {
		values, err := sm.fetch(ctx)
		if err != nil {
			return nil, err
		}
		sm.values = values
		sm.fetchedAt = time.Now()
	}

	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := sm.values[key]; ok {
			result[key] = val
		} else {
			sm.logger.Warn("secret key not found",
				slog.String("secret_name", sm.secretName),
				slog.String("key", key))
		}
	}
	return result, nil
}

func (sm *AWSSecretsManager) fetch(ctx context.Context) (map[string]string, error) {
	sm.logger.Info("fetching secrets",
		slog.String("secret_name", sm.secretName))

	out, err := sm.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(sm.secretName),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return nil, fmt.Errorf("get secret value: %w", err)
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &values); err != nil {
		return nil, fmt.Errorf("parse secret JSON: %w", err)
	}
	return values, nil
}

// EnvSecretsManager resolves secrets from environment variables. It is the
// fallback outside production and for local development.
type EnvSecretsManager struct{}

func NewEnvSecretsManager() *EnvSecretsManager {
	return &EnvSecretsManager{}
}

func (em *EnvSecretsManager) GetSecrets(ctx context.Context, keys []string) (map[string]string, error) {
	secrets := make(map[string]string, len(keys))
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			secrets[key] = val
		}
	}
	return secrets, nil
}

// ApplySecrets overlays sensitive values from the secrets manager onto the
// configuration. Missing keys leave the environment-derived values in place.
func (c *Config) ApplySecrets(ctx context.Context, sm SecretsManager) error {
	secrets, err := sm.GetSecrets(ctx, []string{
		"DB_PASSWORD",
		"REDIS_PASSWORD",
		"AWS_ACCESS_KEY_ID",
		"AWS_SECRET_ACCESS_KEY",
	})
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	if v, ok := secrets["DB_PASSWORD"]; ok {
		c.Database.Password = v
	}
	if v, ok := secrets["REDIS_PASSWORD"]; ok {
		c.Redis.Password = v
		c.Asynq.RedisPassword = v
	}
	if v, ok := secrets["AWS_ACCESS_KEY_ID"]; ok {
		c.AWS.AccessKeyID = v
	}
	if v, ok := secrets["AWS_SECRET_ACCESS_KEY"]; ok {
		c.AWS.SecretAccessKey = v
	}

	return nil
}
