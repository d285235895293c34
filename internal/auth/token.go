// Package auth provides bearer tokens for the resource-management API in
// contexts where no caller token exists (scheduled alert runs).
package auth

import (
	"context"
	"fmt"

	"github.com/clearops/tagwarden/internal/config"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenSource yields a bearer token for the resource-management API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Static is a fixed token, used with the file shim and in tests.
type Static string

// Token returns the fixed token.
func (s Static) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// ClientCredentials acquires tokens with the OAuth2 client-credentials
// grant against the tenant's token endpoint. The underlying token source
// caches and refreshes tokens automatically.
type ClientCredentials struct {
	cfg clientcredentials.Config
}

// Ensure ClientCredentials implements TokenSource.
var _ TokenSource = (*ClientCredentials)(nil)

// NewClientCredentials creates a ClientCredentials source from the Azure
// configuration.
func NewClientCredentials(cfg config.AzureConfig) *ClientCredentials {
	return &ClientCredentials{
		cfg: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID),
			Scopes:       []string{cfg.ManagementURL + "/.default"},
		},
	}
}

// Token returns a valid access token, refreshing if needed.
func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	tok, err := c.cfg.TokenSource(ctx).Token()
	if err != nil {
		return "", fmt.Errorf("acquiring service principal token: %w", err)
	}
	return tok.AccessToken, nil
}
