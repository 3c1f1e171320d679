package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/rules"
)

// OAuthIdentity is the verified identity a provider returns after the
// authorization code exchange.
type OAuthIdentity struct {
	Provider string
	Subject  string
	Email    string
	Nickname string
}

// OAuthProvider wraps one external identity provider. Implementations
// own the token exchange and the profile fetch; the service never sees
// provider tokens.
type OAuthProvider interface {
	Name() string
	Exchange(ctx context.Context, code string) (OAuthIdentity, error)
}

// LoginOAuth signs the user in via an external provider, creating the
// account on first login. Accounts are keyed by the provider-verified
// email.
func (s *Service) LoginOAuth(ctx context.Context, providerName, code string) (AuthResult, error) {
	provider, ok := s.oauth[strings.ToLower(strings.TrimSpace(providerName))]
	if !ok {
		return AuthResult{}, ErrInvalidInput
	}
	if strings.TrimSpace(code) == "" {
		return AuthResult{}, ErrInvalidInput
	}

	identity, err := provider.Exchange(ctx, code)
	if err != nil {
		return AuthResult{}, fmt.Errorf("%s exchange: %w", provider.Name(), err)
	}

	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if !validEmail(email) {
		return AuthResult{}, ErrInvalidInput
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if user.Banned {
			return AuthResult{}, ErrBanned
		}
		return s.issueForUser(ctx, user)
	}

	nickname := strings.TrimSpace(identity.Nickname)
	if rules.ValidateNickname(nickname) != nil {
		suffix, err := newNumericCode(4)
		if err != nil {
			return AuthResult{}, fmt.Errorf("generate nickname suffix: %w", err)
		}
		nickname = "user" + suffix
	}

	user, err = s.users.Register(ctx, &email, nil, nil, nickname, s.signupBonus)
	if err != nil {
		return AuthResult{}, fmt.Errorf("register user: %w", err)
	}

	return s.issueForUser(ctx, user)
}
