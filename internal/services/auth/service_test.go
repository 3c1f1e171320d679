package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/enums"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
	redrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/redis"
	authsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auth"
)

type stubUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]model.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{nextID: 1, users: map[int64]model.User{}}
}

func (s *stubUserStore) Register(_ context.Context, email, phone, passwordHash *string, nickname string, _ int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if email != nil && u.Email != nil && *u.Email == *email {
			return model.User{}, authsvc.ErrAccountExists
		}
		if phone != nil && u.Phone != nil && *u.Phone == *phone {
			return model.User{}, authsvc.ErrAccountExists
		}
	}

	u := model.User{
		ID:           s.nextID,
		Email:        email,
		Phone:        phone,
		PasswordHash: passwordHash,
		Nickname:     nickname,
		Role:         enums.RoleUser,
		CreatedAt:    time.Now(),
	}
	s.users[u.ID] = u
	s.nextID++
	return u, nil
}

func (s *stubUserStore) GetByID(_ context.Context, id int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, errors.New("not found")
	}
	return u, nil
}

func (s *stubUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email != nil && *u.Email == email {
			return u, nil
		}
	}
	return model.User{}, errors.New("not found")
}

func (s *stubUserStore) GetByPhone(_ context.Context, phone string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Phone != nil && *u.Phone == phone {
			return u, nil
		}
	}
	return model.User{}, errors.New("not found")
}

type recordingSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func (s *recordingSender) SendCode(_ context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes == nil {
		s.codes = map[string]string{}
	}
	s.codes[phone] = code
	return nil
}

func (s *recordingSender) lastCode(phone string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[phone]
}

func TestEmailSignupAndLogin(t *testing.T) {
	svc, _, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	signup, err := svc.SignupEmail(ctx, "Collector@Example.com", "hunter2hunter2", "사진수집가")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if signup.Me.Nickname != "사진수집가" {
		t.Fatalf("unexpected nickname %q", signup.Me.Nickname)
	}

	login, err := svc.LoginEmail(ctx, "collector@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.Me.ID != signup.Me.ID {
		t.Fatalf("login resolved wrong account: %d != %d", login.Me.ID, signup.Me.ID)
	}

	if _, err := svc.LoginEmail(ctx, "collector@example.com", "wrong-password"); !errors.Is(err, authsvc.ErrBadCredentials) {
		t.Fatalf("expected bad credentials, got %v", err)
	}
}

func TestSignupRejectsProfaneNickname(t *testing.T) {
	svc, _, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	_, err := svc.SignupEmail(context.Background(), "a@b.co", "hunter2hunter2", "시발user")
	if !errors.Is(err, authsvc.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestPhoneCodeFlow(t *testing.T) {
	svc, sender, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	if err := svc.RequestPhoneCode(ctx, "010-1234-5678"); err != nil {
		t.Fatalf("request code: %v", err)
	}

	code := sender.lastCode("+821012345678")
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	if _, err := svc.VerifyPhoneCode(ctx, "01012345678", "000000", ""); !errors.Is(err, authsvc.ErrCodeInvalid) {
		t.Fatalf("expected invalid code, got %v", err)
	}

	res, err := svc.VerifyPhoneCode(ctx, "01012345678", code, "새벽출사")
	if err != nil {
		t.Fatalf("verify code: %v", err)
	}
	if res.Me.Nickname != "새벽출사" {
		t.Fatalf("unexpected nickname %q", res.Me.Nickname)
	}

	// Same number again is a login, not a second account.
	if err := svc.RequestPhoneCode(ctx, "+82 10-1234-5678"); err != nil {
		t.Fatalf("request second code: %v", err)
	}
	again, err := svc.VerifyPhoneCode(ctx, "01012345678", sender.lastCode("+821012345678"), "")
	if err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if again.Me.ID != res.Me.ID {
		t.Fatalf("phone login created a new account: %d != %d", again.Me.ID, res.Me.ID)
	}
}

func TestRefreshRotation(t *testing.T) {
	svc, _, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	loginRes, err := svc.SignupEmail(ctx, "rotate@example.com", "hunter2hunter2", "야경찍는사람")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	refreshRes, err := svc.Refresh(ctx, loginRes.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if refreshRes.RefreshToken == loginRes.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}

	if _, err := svc.Refresh(ctx, loginRes.RefreshToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("old refresh token should be unauthorized, got err=%v", err)
	}

	if _, err := svc.ValidateAccessToken(ctx, refreshRes.AccessToken); err != nil {
		t.Fatalf("new access token validation failed: %v", err)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, _, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	loginRes, err := svc.SignupEmail(ctx, "logout@example.com", "hunter2hunter2", "골목스냅")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	claims, err := svc.ValidateAccessToken(ctx, loginRes.AccessToken)
	if err != nil {
		t.Fatalf("validate access token before logout: %v", err)
	}

	if err := svc.Logout(ctx, claims.SID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.ValidateAccessToken(ctx, loginRes.AccessToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("access token should be unauthorized after logout, got err=%v", err)
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "01012345678", want: "+821012345678"},
		{in: "010-1234-5678", want: "+821012345678"},
		{in: "+82 10 1234 5678", want: "+821012345678"},
		{in: "0101234567", wantErr: true},
		{in: "021234567", wantErr: true},
		{in: "010 abcd 5678", wantErr: true},
	}

	for _, tc := range cases {
		got, err := authsvc.NormalizePhone(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("NormalizePhone(%q): expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NormalizePhone(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func newAuthServiceForTest(t *testing.T) (*authsvc.Service, *recordingSender, func()) {
	t.Helper()

	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	sender := &recordingSender{}
	svc := authsvc.NewService(authsvc.Dependencies{
		JWT:         authsvc.NewJWTManager("test-secret", 15*time.Minute),
		Sessions:    redrepo.NewSessionRepo(client),
		Users:       newStubUserStore(),
		OTP:         redrepo.NewOTPRepo(client),
		Sender:      sender,
		RefreshTTL:  45 * 24 * time.Hour,
		OTPTTL:      3 * time.Minute,
		SignupBonus: 100,
	})

	cleanup := func() {
		_ = client.Close()
		mini.Close()
	}

	return svc, sender, cleanup
}
