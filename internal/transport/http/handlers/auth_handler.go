package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/auth"
	ratesvc "github.com/luckyyyj77-wq/pho-ma-sub000/internal/services/rate"
	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/http/dto"
	httperrors "github.com/luckyyyj77-wq/pho-ma-sub000/internal/transport/http/errors"
)

type AuthHandler struct {
	service *authsvc.Service
	limiter *ratesvc.Limiter
}

func NewAuthHandler(service *authsvc.Service, limiter *ratesvc.Limiter) *AuthHandler {
	return &AuthHandler{service: service, limiter: limiter}
}

func (h *AuthHandler) SignupEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	res, err := h.service.SignupEmail(r.Context(), req.Email, req.Password, req.Nickname)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokensResponse(res))
}

func (h *AuthHandler) LoginEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	res, err := h.service.LoginEmail(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokensResponse(res))
}

// RequestPhoneCode is rate limited per normalized number so one person
// cannot burn the SMS budget.
func (h *AuthHandler) RequestPhoneCode(w http.ResponseWriter, r *http.Request) {
	var req dto.PhoneCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	phone, err := authsvc.NormalizePhone(req.Phone)
	if err != nil {
		writeBadRequest(w, "invalid phone number")
		return
	}

	if h.limiter != nil {
		retryAfter, allowed, err := h.limiter.AllowOTP(r.Context(), phone)
		if err != nil {
			writeInternal(w)
			return
		}
		if !allowed {
			writeTooFast(w, retryAfter)
			return
		}
	}

	if err := h.service.RequestPhoneCode(r.Context(), phone); err != nil {
		h.handleAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AuthHandler) VerifyPhoneCode(w http.ResponseWriter, r *http.Request) {
	var req dto.PhoneVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	res, err := h.service.VerifyPhoneCode(r.Context(), req.Phone, req.Code, req.Nickname)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokensResponse(res))
}

func (h *AuthHandler) LoginOAuth(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	var req dto.OAuthLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	res, err := h.service.LoginOAuth(r.Context(), provider, req.Code)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokensResponse(res))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	res, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokensResponse(res))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	if err := h.service.Logout(r.Context(), identity.SID); err != nil {
		h.handleAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing identity")
		return
	}

	if err := h.service.LogoutAll(r.Context(), identity.UserID); err != nil {
		h.handleAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AuthHandler) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authsvc.ErrInvalidInput):
		writeBadRequest(w, "invalid credentials payload")
	case errors.Is(err, authsvc.ErrBadCredentials):
		writeUnauthorized(w, "bad credentials")
	case errors.Is(err, authsvc.ErrCodeInvalid):
		writeUnauthorized(w, "verification code invalid")
	case errors.Is(err, authsvc.ErrCodeThrottled):
		writeTooFast(w, 60)
	case errors.Is(err, authsvc.ErrAccountExists):
		writeConflict(w, "ACCOUNT_EXISTS", "account already exists")
	case errors.Is(err, authsvc.ErrBanned):
		httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
			Code:    "BANNED",
			Message: "account is banned",
		})
	case errors.Is(err, authsvc.ErrUnauthorized):
		writeUnauthorized(w, "invalid or expired token")
	default:
		writeInternal(w)
	}
}

func tokensResponse(res authsvc.AuthResult) dto.AuthTokensResponse {
	return dto.AuthTokensResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresInSec: maxInt64(0, int64(time.Until(res.AccessExpires).Seconds())),
		Me: dto.AuthMeResponse{
			ID:       res.Me.ID,
			Nickname: res.Me.Nickname,
			Role:     res.Me.Role,
		},
	}
}
