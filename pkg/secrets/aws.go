package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/charmbracelet/log"
)

// SecretsManagerAPI is the subset of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSProvider reads JSON credential bundles from AWS Secrets Manager.
type AWSProvider struct {
	client SecretsManagerAPI
	logger *log.Logger
}

func NewAWSProvider(client SecretsManagerAPI, logger *log.Logger) *AWSProvider {
	return &AWSProvider{client: client, logger: logger}
}

func NewAWSProviderFromConfig(cfg aws.Config, logger *log.Logger) *AWSProvider {
	return NewAWSProvider(secretsmanager.NewFromConfig(cfg), logger)
}

func (p *AWSProvider) GetSecret(ctx context.Context, name string) (Credentials, error) {
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return Credentials{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		p.logger.Error("Failed to fetch secret", "name", name, "error", err)
		return Credentials{}, fmt.Errorf("unable to retrieve secret %q: %w", name, err)
	}
	if out.SecretString == nil {
		return Credentials{}, fmt.Errorf("secret %q has no string value", name)
	}

	p.logger.Debug("Fetched secret", "name", name)
	return ParseCredentials(name, *out.SecretString)
}
