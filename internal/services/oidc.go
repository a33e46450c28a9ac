package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"urldash/internal/config"

	"golang.org/x/oauth2"
)

// OIDCIdentity is the normalized profile returned by the identity provider.
type OIDCIdentity struct {
	Subject     string
	Username    string
	DisplayName string
}

type OIDCClient struct {
	oauth       *oauth2.Config
	userInfoURL string
}

func NewOIDCClient(cfg config.Config) *OIDCClient {
	return &OIDCClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.OIDCAuthURL,
				TokenURL: cfg.OIDCTokenURL,
			},
		},
		userInfoURL: cfg.OIDCUserInfoURL,
	}
}

func (c *OIDCClient) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for the user's profile.
func (c *OIDCClient) Exchange(ctx context.Context, code string) (*OIDCIdentity, error) {
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oidc exchange: %w", err)
	}

	resp, err := c.oauth.Client(ctx, token).Get(c.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch oidc userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("oidc userinfo returned %d: %s", resp.StatusCode, body)
	}

	var info struct {
		Sub               string `json:"sub"`
		PreferredUsername string `json:"preferred_username"`
		Email             string `json:"email"`
		Name              string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode oidc userinfo: %w", err)
	}
	if info.Sub == "" {
		return nil, errors.New("oidc userinfo has no subject")
	}

	username := info.PreferredUsername
	if username == "" {
		username = info.Email
	}
	if username == "" {
		username = info.Sub
	}
	return &OIDCIdentity{
		Subject:     info.Sub,
		Username:    username,
		DisplayName: info.Name,
	}, nil
}
