package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// EnvProvider reads secrets from environment variables. A secret named
// "xAPICreds" is looked up as SECRET_XAPICREDS (a JSON bundle) first, then as
// the individual SECRET_XAPICREDS_API_KEY, _API_SECRET, _ACCESS_TOKEN and
// _ACCESS_TOKEN_SECRET variables.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

// NewEnvProviderWithLookup is used by tests to avoid touching the process environment.
func NewEnvProviderWithLookup(lookup func(string) (string, bool)) *EnvProvider {
	return &EnvProvider{lookup: lookup}
}

// EnvPrefix returns the variable prefix used for a secret name.
func EnvPrefix(name string) string {
	var b strings.Builder
	b.WriteString("SECRET_")
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (p *EnvProvider) GetSecret(_ context.Context, name string) (Credentials, error) {
	prefix := EnvPrefix(name)

	if raw, ok := p.lookup(prefix); ok && raw != "" {
		return ParseCredentials(name, raw)
	}

	get := func(suffix string) string {
		v, _ := p.lookup(prefix + "_" + suffix)
		return v
	}
	creds := Credentials{
		APIKey:            get("API_KEY"),
		APISecret:         get("API_SECRET"),
		AccessToken:       get("ACCESS_TOKEN"),
		AccessTokenSecret: get("ACCESS_TOKEN_SECRET"),
	}
	if creds == (Credentials{}) {
		return Credentials{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err := creds.Validate(name); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}
