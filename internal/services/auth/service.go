package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/model"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/domain/rules"
	pgrepo "github.com/luckyyyj77-wq/pho-ma-sub000/internal/repo/postgres"
)

const (
	MinRefreshTTL = 30 * 24 * time.Hour
	MaxRefreshTTL = 90 * 24 * time.Hour

	otpLength             = 6
	defaultOTPMaxAttempts = 5
)

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord, refreshToken string) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (SessionRecord, error)
	RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, sid string) error
	DeleteAllForUser(ctx context.Context, userID int64) error
}

type UserStore interface {
	Register(ctx context.Context, email, phone, passwordHash *string, nickname string, signupBonus int64) (model.User, error)
	GetByID(ctx context.Context, id int64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByPhone(ctx context.Context, phone string) (model.User, error)
}

type OTPStore interface {
	StoreCode(ctx context.Context, phone, code string, ttl time.Duration) error
	CheckCode(ctx context.Context, phone, code string, maxAttempts int) error
}

// CodeSender delivers verification codes. The dev build logs them; a
// production build plugs in an SMS gateway.
type CodeSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

type Dependencies struct {
	JWT         *JWTManager
	Sessions    SessionStore
	Users       UserStore
	OTP         OTPStore
	Sender      CodeSender
	OAuth       []OAuthProvider
	RefreshTTL  time.Duration
	OTPTTL      time.Duration
	OTPMaxTries int
	SignupBonus int64
}

type Service struct {
	jwt         *JWTManager
	sessions    SessionStore
	users       UserStore
	otp         OTPStore
	sender      CodeSender
	oauth       map[string]OAuthProvider
	refreshTTL  time.Duration
	otpTTL      time.Duration
	otpMaxTries int
	signupBonus int64
	now         func() time.Time
}

func NewService(deps Dependencies) *Service {
	refreshTTL := deps.RefreshTTL
	if refreshTTL < MinRefreshTTL {
		refreshTTL = MinRefreshTTL
	}
	if refreshTTL > MaxRefreshTTL {
		refreshTTL = MaxRefreshTTL
	}

	otpTTL := deps.OTPTTL
	if otpTTL <= 0 {
		otpTTL = 3 * time.Minute
	}

	otpMaxTries := deps.OTPMaxTries
	if otpMaxTries <= 0 {
		otpMaxTries = defaultOTPMaxAttempts
	}

	oauth := make(map[string]OAuthProvider, len(deps.OAuth))
	for _, p := range deps.OAuth {
		oauth[strings.ToLower(p.Name())] = p
	}

	return &Service{
		jwt:         deps.JWT,
		sessions:    deps.Sessions,
		users:       deps.Users,
		otp:         deps.OTP,
		sender:      deps.Sender,
		oauth:       oauth,
		refreshTTL:  refreshTTL,
		otpTTL:      otpTTL,
		otpMaxTries: otpMaxTries,
		signupBonus: deps.SignupBonus,
		now:         time.Now,
	}
}

func (s *Service) SignupEmail(ctx context.Context, email, password, nickname string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return AuthResult{}, ErrInvalidInput
	}
	if len(password) < 8 || len(password) > 72 {
		return AuthResult{}, ErrInvalidInput
	}
	if err := rules.ValidateNickname(nickname); err != nil {
		return AuthResult{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	hashStr := string(hash)
	user, err := s.users.Register(ctx, &email, nil, &hashStr, strings.TrimSpace(nickname), s.signupBonus)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserExists) {
			return AuthResult{}, ErrAccountExists
		}
		return AuthResult{}, fmt.Errorf("register user: %w", err)
	}

	return s.issueForUser(ctx, user)
}

func (s *Service) LoginEmail(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return AuthResult{}, ErrInvalidInput
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return AuthResult{}, ErrBadCredentials
	}
	if user.PasswordHash == nil {
		return AuthResult{}, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return AuthResult{}, ErrBadCredentials
	}
	if user.Banned {
		return AuthResult{}, ErrBanned
	}

	return s.issueForUser(ctx, user)
}

// RequestPhoneCode issues a one-time code for the number. The code is
// stored hashed-free in redis with a short TTL and a retry cap.
func (s *Service) RequestPhoneCode(ctx context.Context, rawPhone string) error {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return err
	}

	code, err := newNumericCode(otpLength)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	if err := s.otp.StoreCode(ctx, phone, code, s.otpTTL); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	if err := s.sender.SendCode(ctx, phone, code); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	return nil
}

// VerifyPhoneCode logs the user in, creating the account on first
// verification. nickname is only consulted for new accounts.
func (s *Service) VerifyPhoneCode(ctx context.Context, rawPhone, code, nickname string) (AuthResult, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return AuthResult{}, err
	}

	if err := s.otp.CheckCode(ctx, phone, code, s.otpMaxTries); err != nil {
		if errors.Is(err, ErrCodeInvalid) || errors.Is(err, ErrCodeThrottled) {
			return AuthResult{}, err
		}
		return AuthResult{}, fmt.Errorf("check code: %w", err)
	}

	user, err := s.users.GetByPhone(ctx, phone)
	if err == nil {
		if user.Banned {
			return AuthResult{}, ErrBanned
		}
		return s.issueForUser(ctx, user)
	}

	if nickname == "" {
		nickname = "user" + phone[len(phone)-4:]
	}
	if err := rules.ValidateNickname(nickname); err != nil {
		return AuthResult{}, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	user, err = s.users.Register(ctx, nil, &phone, nil, nickname, s.signupBonus)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserExists) {
			return AuthResult{}, ErrAccountExists
		}
		return AuthResult{}, fmt.Errorf("register user: %w", err)
	}

	return s.issueForUser(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return AuthResult{}, ErrInvalidInput
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("get refresh token session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return AuthResult{}, ErrUnauthorized
	}

	newRefreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	newExpiresAt := s.now().Add(s.refreshTTL)
	if err := s.sessions.RotateRefresh(ctx, session.SID, refreshToken, newRefreshToken, newExpiresAt); err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(session.UserID, session.SID, session.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  newRefreshToken,
		AccessExpires: accessExpires,
		Me: Me{
			ID:   session.UserID,
			Role: session.Role,
		},
	}, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteSession(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	return nil
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (AccessClaims, error) {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return AccessClaims{}, ErrUnauthorized
		}
		return AccessClaims{}, fmt.Errorf("get session: %w", err)
	}

	if session.UserID != claims.UserID || session.Role != claims.Role {
		return AccessClaims{}, ErrUnauthorized
	}
	if s.now().After(session.ExpiresAt) {
		return AccessClaims{}, ErrUnauthorized
	}

	return claims, nil
}

func (s *Service) issueForUser(ctx context.Context, user model.User) (AuthResult, error) {
	sessionID, err := NewSessionID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session id: %w", err)
	}
	refreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	role := string(user.Role)
	sessionExpiresAt := s.now().Add(s.refreshTTL)
	session := SessionRecord{
		SID:       sessionID,
		UserID:    user.ID,
		Role:      role,
		ExpiresAt: sessionExpiresAt,
	}
	if err := s.sessions.Create(ctx, session, refreshToken); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(user.ID, sessionID, role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpires: accessExpires,
		Me: Me{
			ID:       user.ID,
			Nickname: user.Nickname,
			Role:     role,
		},
	}, nil
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	dot := strings.LastIndexByte(email[at:], '.')
	return dot > 1 && len(email) <= 254
}

func newNumericCode(n int) (string, error) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
