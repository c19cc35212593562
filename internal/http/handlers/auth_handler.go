package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/domain"
	mw "github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/http/middleware"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/http/response"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/service"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/logger"
)

type AuthHandler struct {
	svc       service.AuthService
	jwtSecret string
	limiter   *mw.RateLimiter
}

func NewAuthHandler(svc service.AuthService, jwtSecret string, limiter *mw.RateLimiter) *AuthHandler {
	return &AuthHandler{svc: svc, jwtSecret: jwtSecret, limiter: limiter}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Middleware())
		}
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
		r.Post("/verify-otp", h.verifyOTP)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireJWT(h.jwtSecret))
		r.Get("/me", h.me)
	})

	return r
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	profile, err := h.svc.Signup(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			response.WriteError(w, http.StatusConflict, err.Error(), response.CodeUserExists)
			return
		}
		logger.ErrorContext(r.Context(), "signup failed", "error", err)
		response.InternalError(w, "failed to create account")
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "account created",
		"user":    profile,
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.svc.Login(r.Context(), &req); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			response.Unauthorized(w, "invalid email or password")
			return
		}
		logger.ErrorContext(r.Context(), "login failed", "error", err)
		response.InternalError(w, "login failed")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "verification code sent to your email",
	})
}

func (h *AuthHandler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	session, err := h.svc.VerifyOTP(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoActiveCode):
			response.Unauthorized(w, err.Error())
		case errors.Is(err, domain.ErrCodeExpired):
			response.WriteError(w, http.StatusUnauthorized, err.Error(), response.CodeCodeExpired)
		case errors.Is(err, domain.ErrInvalidCode):
			response.WriteError(w, http.StatusUnauthorized, err.Error(), response.CodeInvalidCode)
		case errors.Is(err, domain.ErrTooManyAttempts):
			response.RateLimit(w, err.Error())
		default:
			logger.ErrorContext(r.Context(), "otp verification failed", "error", err)
			response.InternalError(w, "verification failed")
		}
		return
	}

	response.WriteJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "missing session")
		return
	}

	profile, err := h.svc.Me(r.Context(), claims.Sub)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "user not found")
			return
		}
		logger.ErrorContext(r.Context(), "profile lookup failed", "error", err)
		response.InternalError(w, "failed to load profile")
		return
	}

	response.WriteJSON(w, http.StatusOK, profile)
}
