package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	vault "github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
)

var ErrProviderUnavailable = errors.New("secrets provider unavailable")
var ErrSecretNotFound = errors.New("secret not found")

// Provider resolves named secrets (the JWT signing secret, metrics
// credentials) from an external store.
type Provider interface {
	GetSecret(ctx context.Context, key string) (string, error)
}

// Adapter picks the first configured backend: Vault if VAULT_ADDR is set,
// AWS Secrets Manager if AWS_REGION is set, else plain environment
// variables. SECRETS_REQUIRE_PRIMARY=true forbids the env fallback.
type Adapter struct {
	primary  Provider
	fallback Provider
}

func NewAdapter(ctx context.Context) (*Adapter, error) {
	requirePrimary := strings.ToLower(os.Getenv("SECRETS_REQUIRE_PRIMARY")) == "true"
	var primary, fallback Provider
	if vaultAddr := os.Getenv("VAULT_ADDR"); vaultAddr != "" {
		if vp, err := newVaultProvider(ctx); err == nil {
			primary = vp
		}
	}
	if primary == nil {
		if awsRegion := os.Getenv("AWS_REGION"); awsRegion != "" {
			if ap, err := newAWSProvider(ctx); err == nil {
				primary = ap
			}
		}
	}
	if !requirePrimary {
		fallback = envProvider{}
	}
	if primary == nil && fallback == nil {
		return nil, fmt.Errorf("SECRETS_REQUIRE_PRIMARY=true but no provider available (checked Vault, AWS Secrets Manager)")
	}
	return &Adapter{primary: primary, fallback: fallback}, nil
}

func (a *Adapter) GetSecret(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if a.primary != nil {
		value, err := a.primary.GetSecret(ctx, key)
		if err == nil {
			return value, nil
		}
		if a.fallback == nil {
			return "", errors.Wrap(err, "primary secrets provider failed")
		}
	}
	if a.fallback != nil {
		return a.fallback.GetSecret(ctx, key)
	}
	return "", ErrProviderUnavailable
}

type envProvider struct{}

func (envProvider) GetSecret(_ context.Context, key string) (string, error) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, nil
	}
	return "", errors.Wrapf(ErrSecretNotFound, "env %s", key)
}

type vaultProvider struct {
	client *vault.Client
	mount  string
}

func newVaultProvider(ctx context.Context) (*vaultProvider, error) {
	cfg := vault.DefaultConfig()
	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "vault client")
	}
	if token := os.Getenv("VAULT_TOKEN"); token != "" {
		client.SetToken(token)
	}
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Sys().HealthWithContext(healthCtx); err != nil {
		return nil, errors.Wrap(err, "vault health check")
	}
	mount := os.Getenv("VAULT_SECRET_MOUNT")
	if mount == "" {
		mount = "secret"
	}
	return &vaultProvider{client: client, mount: mount}, nil
}

func (v *vaultProvider) GetSecret(ctx context.Context, key string) (string, error) {
	secret, err := v.client.KVv2(v.mount).Get(ctx, "snipbin")
	if err != nil {
		return "", errors.Wrap(err, "vault read")
	}
	raw, ok := secret.Data[key]
	if !ok {
		return "", errors.Wrapf(ErrSecretNotFound, "vault key %s", key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", errors.New("vault: secret value is not a string")
	}
	return value, nil
}

type awsProvider struct {
	smClient *secretsmanager.Client
}

func newAWSProvider(ctx context.Context) (*awsProvider, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "aws config")
	}
	return &awsProvider{smClient: secretsmanager.NewFromConfig(cfg)}, nil
}

func (a *awsProvider) GetSecret(ctx context.Context, key string) (string, error) {
	secretID := os.Getenv("AWS_SECRET_ID")
	if secretID == "" {
		secretID = "snipbin"
	}
	result, err := a.smClient.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretID,
	})
	if err != nil {
		return "", errors.Wrap(err, "secrets manager read")
	}
	if result.SecretString == nil {
		return "", errors.Wrapf(ErrSecretNotFound, "aws secret %s", secretID)
	}
	var kv map[string]string
	if err := json.Unmarshal([]byte(*result.SecretString), &kv); err != nil {
		return "", errors.Wrap(err, "secrets manager payload")
	}
	value, ok := kv[key]
	if !ok {
		return "", errors.Wrapf(ErrSecretNotFound, "aws key %s", key)
	}
	return value, nil
}
