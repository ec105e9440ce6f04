// Package secrets retrieves named credential bundles for outbound integrations.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when the backend has no secret with the requested name.
var ErrNotFound = errors.New("secret not found")

// Credentials is the OAuth 1.0a bundle used to sign X API requests.
type Credentials struct {
	APIKey            string `json:"api_key"`
	APISecret         string `json:"api_secret"`
	AccessToken       string `json:"access_token"`
	AccessTokenSecret string `json:"access_token_secret"`
}

// MissingFieldError reports a credential bundle without one of its required fields.
type MissingFieldError struct {
	Name  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("secret %q is missing field %q", e.Name, e.Field)
}

// Provider is the read-only view of a secrets backend.
type Provider interface {
	GetSecret(ctx context.Context, name string) (Credentials, error)
}

// Validate ensures every field of the bundle is populated.
func (c Credentials) Validate(name string) error {
	fields := []struct {
		key   string
		value string
	}{
		{"api_key", c.APIKey},
		{"api_secret", c.APISecret},
		{"access_token", c.AccessToken},
		{"access_token_secret", c.AccessTokenSecret},
	}
	for _, f := range fields {
		if f.value == "" {
			return &MissingFieldError{Name: name, Field: f.key}
		}
	}
	return nil
}

// ParseCredentials decodes a JSON secret string and validates it.
func ParseCredentials(name, secretString string) (Credentials, error) {
	var creds Credentials
	if err := json.Unmarshal([]byte(secretString), &creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to decode secret %q: %w", name, err)
	}
	if err := creds.Validate(name); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}
