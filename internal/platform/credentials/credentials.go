// Package credentials obtains short-lived database passwords from an
// identity provider.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/pawansangari/dataconnect-apps/internal/config"
)

// ErrEmptyToken is returned when a provider answers without a token.
var ErrEmptyToken = errors.New("identity provider returned an empty token")

// Credential is a database password and, when known, its expiry.
type Credential struct {
	Token  string
	Expiry time.Time
}

// Expired reports whether the credential has a known expiry at or before now.
func (c Credential) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && !now.Before(c.Expiry)
}

// Source fetches a fresh credential on every call. Callers own caching.
type Source interface {
	Fetch(ctx context.Context) (Credential, error)
	Name() string
}

// --- static -------------------------------------------------------------------

// Static returns the same password forever.
type Static struct {
	password string
}

// NewStatic wraps a fixed password (PGPASSWORD).
func NewStatic(password string) Static {
	return Static{password: password}
}

func (s Static) Fetch(context.Context) (Credential, error) {
	return Credential{Token: s.password}, nil
}

func (s Static) Name() string { return config.ProviderStatic }

// --- oauth --------------------------------------------------------------------

// OAuth exchanges client credentials for an access token that doubles as the
// database password.
type OAuth struct {
	cfg clientcredentials.Config
}

// NewOAuth builds an OAuth source. When tokenURL is empty it is derived from
// the workspace host as https://<host>/oidc/v1/token.
func NewOAuth(workspaceHost, tokenURL, clientID, clientSecret string, scopes []string) (*OAuth, error) {
	if strings.TrimSpace(clientID) == "" || strings.TrimSpace(clientSecret) == "" {
		return nil, errors.New("oauth client id and secret are required")
	}
	if strings.TrimSpace(tokenURL) == "" {
		derived, err := workspaceTokenURL(workspaceHost)
		if err != nil {
			return nil, err
		}
		tokenURL = derived
	}
	return &OAuth{cfg: clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}}, nil
}

func (o *OAuth) Fetch(ctx context.Context) (Credential, error) {
	tok, err := o.cfg.Token(ctx)
	if err != nil {
		return Credential{}, fmt.Errorf("oauth token: %w", err)
	}
	if tok.AccessToken == "" {
		return Credential{}, ErrEmptyToken
	}
	return Credential{Token: tok.AccessToken, Expiry: tok.Expiry}, nil
}

func (o *OAuth) Name() string { return config.ProviderOAuth }

func workspaceTokenURL(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", errors.New("workspace host or token url is required")
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	u, err := url.Parse(host)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid workspace host %q", host)
	}
	u.Path = "/oidc/v1/token"
	u.RawQuery = ""
	return u.String(), nil
}

// --- azure --------------------------------------------------------------------

// Azure requests an Entra ID token for Azure Database for PostgreSQL.
type Azure struct {
	cred  azcore.TokenCredential
	scope string
}

// NewAzure uses the default Azure credential chain (env, workload identity,
// managed identity, CLI).
func NewAzure(scope string) (*Azure, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	return NewAzureWithCredential(cred, scope), nil
}

// NewAzureWithCredential wraps an existing token credential.
func NewAzureWithCredential(cred azcore.TokenCredential, scope string) *Azure {
	return &Azure{cred: cred, scope: scope}
}

func (a *Azure) Fetch(ctx context.Context) (Credential, error) {
	tok, err := a.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{a.scope}})
	if err != nil {
		return Credential{}, fmt.Errorf("azure token: %w", err)
	}
	if tok.Token == "" {
		return Credential{}, ErrEmptyToken
	}
	return Credential{Token: tok.Token, Expiry: tok.ExpiresOn}, nil
}

func (a *Azure) Name() string { return config.ProviderAzure }

// FromConfig builds the source selected by cfg.
func FromConfig(cfg config.CredentialConfig) (Source, error) {
	switch cfg.ResolvedProvider() {
	case config.ProviderStatic:
		return NewStatic(cfg.Password), nil
	case config.ProviderOAuth:
		return NewOAuth(cfg.WorkspaceHost, cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, strings.Fields(strings.ReplaceAll(cfg.Scopes, ",", " ")))
	case config.ProviderAzure:
		return NewAzure(cfg.AzureScope)
	default:
		return nil, fmt.Errorf("unknown credential provider %q", cfg.Provider)
	}
}
