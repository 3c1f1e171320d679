package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/redis"
	authsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auth"
)

type fakeOAuthProvider struct {
	name     string
	identity authsvc.OAuthIdentity
	err      error
}

func (p *fakeOAuthProvider) Name() string { return p.name }

func (p *fakeOAuthProvider) Exchange(context.Context, string) (authsvc.OAuthIdentity, error) {
	if p.err != nil {
		return authsvc.OAuthIdentity{}, p.err
	}
	return p.identity, nil
}

func newOAuthServiceForTest(t *testing.T, providers ...authsvc.OAuthProvider) (*authsvc.Service, func()) {
	t.Helper()

	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	svc := authsvc.NewService(authsvc.Dependencies{
		JWT:         authsvc.NewJWTManager("test-secret", 15*time.Minute),
		Sessions:    redrepo.NewSessionRepo(client),
		Users:       newStubUserStore(),
		OTP:         redrepo.NewOTPRepo(client),
		Sender:      &recordingSender{},
		OAuth:       providers,
		RefreshTTL:  45 * 24 * time.Hour,
		OTPTTL:      3 * time.Minute,
		SignupBonus: 100,
	})

	cleanup := func() {
		_ = client.Close()
		mini.Close()
	}

	return svc, cleanup
}

func TestLoginOAuthCreatesAndReusesAccount(t *testing.T) {
	provider := &fakeOAuthProvider{
		name: "kakao",
		identity: authsvc.OAuthIdentity{
			Provider: "kakao",
			Subject:  "12345",
			Email:    "Hana@Example.com",
			Nickname: "하나",
		},
	}
	svc, cleanup := newOAuthServiceForTest(t, provider)
	defer cleanup()

	ctx := context.Background()
	first, err := svc.LoginOAuth(ctx, "kakao", "auth-code")
	if err != nil {
		t.Fatalf("first oauth login: %v", err)
	}
	if first.Me.Nickname != "하나" {
		t.Fatalf("unexpected nickname %q", first.Me.Nickname)
	}

	second, err := svc.LoginOAuth(ctx, "KAKAO", "another-code")
	if err != nil {
		t.Fatalf("second oauth login: %v", err)
	}
	if second.Me.ID != first.Me.ID {
		t.Fatalf("second login created a new account: %d != %d", second.Me.ID, first.Me.ID)
	}
}

func TestLoginOAuthUnknownProvider(t *testing.T) {
	svc, cleanup := newOAuthServiceForTest(t)
	defer cleanup()

	if _, err := svc.LoginOAuth(context.Background(), "naver", "code"); !errors.Is(err, authsvc.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestLoginOAuthFallbackNickname(t *testing.T) {
	provider := &fakeOAuthProvider{
		name: "google",
		identity: authsvc.OAuthIdentity{
			Provider: "google",
			Subject:  "sub-1",
			Email:    "anon@example.com",
			Nickname: "시발닉네임", // profane names fall back to a generated one
		},
	}
	svc, cleanup := newOAuthServiceForTest(t, provider)
	defer cleanup()

	res, err := svc.LoginOAuth(context.Background(), "google", "code")
	if err != nil {
		t.Fatalf("oauth login: %v", err)
	}
	if len(res.Me.Nickname) < 5 || res.Me.Nickname[:4] != "user" {
		t.Fatalf("expected generated nickname, got %q", res.Me.Nickname)
	}
}
