package secrets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretsManagerAPI is the slice of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerProvider reads secrets stored as JSON objects in AWS Secrets
// Manager, the format RDS uses for rotated database credentials.
type SecretsManagerProvider struct {
	client SecretsManagerAPI
}

func NewSecretsManagerProvider(client SecretsManagerAPI) *SecretsManagerProvider {
	return &SecretsManagerProvider{client: client}
}

// NewSecretsManagerFromRegion builds a provider from the default AWS
// credential chain.
func NewSecretsManagerFromRegion(ctx context.Context, region string) (*SecretsManagerProvider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSecretsManagerProvider(secretsmanager.NewFromConfig(awsCfg)), nil
}

func (p *SecretsManagerProvider) GetSecret(ctx context.Context, name string) (map[string]string, error) {
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("get secret %s: %w", name, err)
	}

	var raw []byte
	switch {
	case out.SecretString != nil:
		raw = []byte(*out.SecretString)
	case len(out.SecretBinary) > 0:
		raw = out.SecretBinary
	default:
		return nil, fmt.Errorf("%w: %s has no value", ErrNotFound, name)
	}
	return decodeSecret(name, raw)
}

// decodeSecret flattens a JSON object into strings. RDS secrets carry
// numbers (port), which are kept in their JSON spelling.
func decodeSecret(name string, raw []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode secret %s: %w", name, err)
	}

	values := make(map[string]string, len(fields))
	for k, v := range fields {
		switch v := v.(type) {
		case string:
			values[k] = v
		case json.Number:
			values[k] = v.String()
		case bool:
			values[k] = fmt.Sprint(v)
		case nil:
		default:
			return nil, fmt.Errorf("decode secret %s: field %q is not a scalar", name, k)
		}
	}
	return values, nil
}
