package secrets

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecretsManager struct {
	values map[string]string
	err    error
	calls  int
}

func (f *fakeSecretsManager) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.values[aws.ToString(in.SecretId)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("not found")}
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

const validBundle = `{"api_key":"k","api_secret":"s","access_token":"t","access_token_secret":"ts"}`

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestAWSProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes bundle", func(t *testing.T) {
		sm := &fakeSecretsManager{values: map[string]string{"xAPICreds": validBundle}}
		creds, err := NewAWSProvider(sm, testLogger()).GetSecret(ctx, "xAPICreds")
		require.NoError(t, err)
		assert.Equal(t, Credentials{APIKey: "k", APISecret: "s", AccessToken: "t", AccessTokenSecret: "ts"}, creds)
	})

	t.Run("missing secret maps to ErrNotFound", func(t *testing.T) {
		sm := &fakeSecretsManager{values: map[string]string{}}
		_, err := NewAWSProvider(sm, testLogger()).GetSecret(ctx, "xAPICreds")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing field", func(t *testing.T) {
		sm := &fakeSecretsManager{values: map[string]string{"x": `{"api_key":"k"}`}}
		_, err := NewAWSProvider(sm, testLogger()).GetSecret(ctx, "x")
		var missing *MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "api_secret", missing.Field)
	})

	t.Run("backend failure is wrapped", func(t *testing.T) {
		boom := errors.New("throttled")
		sm := &fakeSecretsManager{err: boom}
		_, err := NewAWSProvider(sm, testLogger()).GetSecret(ctx, "x")
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "unable to retrieve secret")
	})
}

func TestEnvProvider(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "SECRET_XAPICREDS", EnvPrefix("xAPICreds"))
	assert.Equal(t, "SECRET_X_API_CREDS", EnvPrefix("x-api/creds"))

	t.Run("json bundle", func(t *testing.T) {
		env := map[string]string{"SECRET_XAPICREDS": validBundle}
		p := NewEnvProviderWithLookup(func(k string) (string, bool) { v, ok := env[k]; return v, ok })
		creds, err := p.GetSecret(ctx, "xAPICreds")
		require.NoError(t, err)
		assert.Equal(t, "ts", creds.AccessTokenSecret)
	})

	t.Run("individual variables", func(t *testing.T) {
		env := map[string]string{
			"SECRET_XAPICREDS_API_KEY":             "k",
			"SECRET_XAPICREDS_API_SECRET":          "s",
			"SECRET_XAPICREDS_ACCESS_TOKEN":        "t",
			"SECRET_XAPICREDS_ACCESS_TOKEN_SECRET": "ts",
		}
		p := NewEnvProviderWithLookup(func(k string) (string, bool) { v, ok := env[k]; return v, ok })
		creds, err := p.GetSecret(ctx, "xAPICreds")
		require.NoError(t, err)
		assert.Equal(t, "k", creds.APIKey)
	})

	t.Run("absent", func(t *testing.T) {
		p := NewEnvProviderWithLookup(func(string) (string, bool) { return "", false })
		_, err := p.GetSecret(ctx, "xAPICreds")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCachedProvider(t *testing.T) {
	ctx := context.Background()
	sm := &fakeSecretsManager{values: map[string]string{"xAPICreds": validBundle}}
	p := NewCachedProvider(NewAWSProvider(sm, testLogger()), time.Minute, testLogger())

	for i := 0; i < 3; i++ {
		_, err := p.GetSecret(ctx, "xAPICreds")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, sm.calls)

	p.Invalidate("xAPICreds")
	_, err := p.GetSecret(ctx, "xAPICreds")
	require.NoError(t, err)
	assert.Equal(t, 2, sm.calls)

	_, err = p.GetSecret(ctx, "unknown")
	require.Error(t, err)
	_, err = p.GetSecret(ctx, "unknown")
	require.Error(t, err)
	assert.Equal(t, 4, sm.calls, "failures are not cached")
}
