package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/creatorhub/creator-hub-api/internal/auth"
	"github.com/creatorhub/creator-hub-api/internal/middleware"
	"github.com/creatorhub/creator-hub-api/internal/payload"
	"github.com/creatorhub/creator-hub-api/internal/usecase"
	"github.com/creatorhub/creator-hub-api/internal/validation"
)

// AuthHandler serves signup, login, social login, logout, and password reset.
type AuthHandler struct {
	auth          usecase.AuthUsecase
	passwordReset usecase.PasswordResetUsecase
	guard         func(http.Handler) http.Handler
	jwtAuth       auth.JWTAuthenticator
	resetSecret   string
	validate      *validation.Validator
	logger        *zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler. The guard middleware
// authenticates the logout endpoint.
func NewAuthHandler(
	authUsecase usecase.AuthUsecase,
	passwordReset usecase.PasswordResetUsecase,
	guard func(http.Handler) http.Handler,
	jwtAuth auth.JWTAuthenticator,
	resetSecret string,
	validate *validation.Validator,
	logger *zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:          authUsecase,
		passwordReset: passwordReset,
		guard:         guard,
		jwtAuth:       jwtAuth,
		resetSecret:   resetSecret,
		validate:      validate,
		logger:        logger,
	}
}

// Routes mounts the auth endpoints on the router.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
		r.Post("/social", h.Social)
		r.Post("/password-reset/request", h.RequestPasswordReset)
		r.Post("/password-reset/confirm", h.ConfirmPasswordReset)
		r.With(h.guard).Post("/logout", h.Logout)
	})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req payload.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "bad_request", "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "missing_field", err.Error())
		return
	}

	result, err := h.auth.Signup(r.Context(), usecase.SignupParams{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "bad_request", "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "missing_field", err.Error())
		return
	}

	result, err := h.auth.Login(r.Context(), usecase.LoginParams{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Social(w http.ResponseWriter, r *http.Request) {
	var req payload.SocialLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "bad_request", "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "missing_field", err.Error())
		return
	}

	result, err := h.auth.LoginWithGoogle(r.Context(), req.IDToken, req.RememberMe)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respondErrorMessage(w, http.StatusUnauthorized, "unauthorized", "missing session claims")
		return
	}

	if err := h.auth.Logout(r.Context(), claims.SessionID); err != nil {
		respondError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req payload.RequestPasswordResetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "bad_request", "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "missing_field", err.Error())
		return
	}

	if err := h.passwordReset.RequestPasswordReset(r.Context(), req.Email); err != nil {
		respondError(w, h.logger, err)
		return
	}

	// Always accepted, whether or not the email exists.
	w.WriteHeader(http.StatusAccepted)
}

func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "bad_request", "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "missing_field", err.Error())
		return
	}

	jti, err := h.resetJTI(req.Token)
	if err != nil {
		respondError(w, h.logger, usecase.ErrInvalidToken)
		return
	}

	if err := h.passwordReset.ResetPassword(r.Context(), jti, req.NewPassword); err != nil {
		respondError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// resetJTI validates the reset token and extracts its JTI claim.
func (h *AuthHandler) resetJTI(token string) (string, error) {
	claims := &auth.PasswordResetClaims{}
	if _, err := h.jwtAuth.ValidateTokenWithClaims(token, h.resetSecret, claims); err != nil {
		return "", err
	}

	return claims.JTI, nil
}
