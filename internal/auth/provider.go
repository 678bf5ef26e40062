package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

var ErrProviderDisabled = errors.New("identity provider not configured")

// Provider parle à l'API Auth de Supabase
type Provider struct {
	client  *resty.Client
	baseURL string
	anonKey string
}

func NewProvider(baseURL, anonKey string) *Provider {
	client := resty.New().
		SetTimeout(5*time.Second).
		SetHeader("apikey", anonKey).
		SetHeader("Content-Type", "application/json")

	return &Provider{client: client, baseURL: baseURL, anonKey: anonKey}
}

func (p *Provider) enabled() bool {
	return p != nil && p.baseURL != "" && p.anonKey != ""
}

type providerUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// FetchUser GET /auth/v1/user avec le token de l'utilisateur
func (p *Provider) FetchUser(ctx context.Context, accessToken string) (Principal, error) {
	if !p.enabled() {
		return Principal{}, ErrProviderDisabled
	}

	var out providerUser
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&out).
		Get(p.baseURL + "/auth/v1/user")
	if err != nil {
		return Principal{}, fmt.Errorf("appel auth/v1/user: %w", err)
	}
	if resp.IsError() {
		return Principal{}, fmt.Errorf("auth/v1/user: statut %d", resp.StatusCode())
	}
	return Principal{ID: out.ID, Email: out.Email}, nil
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

// RefreshAccessToken échange un refresh token contre un nouvel access token
func (p *Provider) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if !p.enabled() {
		return "", ErrProviderDisabled
	}

	var out refreshResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"refresh_token": refreshToken}).
		SetResult(&out).
		Post(p.baseURL + "/auth/v1/token?grant_type=refresh_token")
	if err != nil {
		return "", fmt.Errorf("appel auth/v1/token: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("auth/v1/token: statut %d", resp.StatusCode())
	}
	if out.AccessToken == "" {
		return "", errors.New("auth/v1/token: access_token manquant")
	}
	return out.AccessToken, nil
}
