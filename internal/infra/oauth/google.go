// Package oauth implements the external identity providers behind the
// auth service's provider interface.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/infra/httpclient"
	authsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auth"
)

const (
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration
}

type Google struct {
	cfg  Config
	http *http.Client
}

func NewGoogle(cfg Config) *Google {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Google{cfg: cfg, http: httpclient.New(timeout)}
}

func (g *Google) Name() string { return "google" }

func (g *Google) Exchange(ctx context.Context, code string) (authsvc.OAuthIdentity, error) {
	token, err := exchangeCode(ctx, g.http, googleTokenURL, url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {g.cfg.ClientID},
		"client_secret": {g.cfg.ClientSecret},
		"redirect_uri":  {g.cfg.RedirectURL},
	})
	if err != nil {
		return authsvc.OAuthIdentity{}, err
	}

	var info struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := fetchJSON(ctx, g.http, googleUserInfoURL, token, &info); err != nil {
		return authsvc.OAuthIdentity{}, err
	}
	if info.Sub == "" {
		return authsvc.OAuthIdentity{}, fmt.Errorf("google userinfo missing subject")
	}

	return authsvc.OAuthIdentity{
		Provider: g.Name(),
		Subject:  info.Sub,
		Email:    info.Email,
		Nickname: info.Name,
	}, nil
}

func exchangeCode(ctx context.Context, client *http.Client, tokenURL string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	return out.AccessToken, nil
}

func fetchJSON(ctx context.Context, client *http.Client, endpoint, accessToken string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode userinfo response: %w", err)
	}
	return nil
}
