package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/creatorhub/creator-hub-api/internal/payload"
	"github.com/creatorhub/creator-hub-api/internal/usecase"
	"github.com/creatorhub/creator-hub-api/internal/validation"
)

// UserHandler serves the profile, provider-link, and wallet-link endpoints.
type UserHandler struct {
	profile  usecase.ProfileUsecase
	validate *validation.Validator
	logger   *zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(
	profile usecase.ProfileUsecase,
	validate *validation.Validator,
	logger *zerolog.Logger,
) *UserHandler {
	return &UserHandler{profile: profile, validate: validate, logger: logger}
}

// Routes mounts the user endpoints on the router.
func (h *UserHandler) Routes(r chi.Router) {
	r.Post("/users", h.Create)
	r.Get("/users/{id}", h.Get)
	r.Put("/users/{id}", h.Update)
	r.Put("/users/{id}/avatar", h.UpdateAvatar)
	r.Post("/users/{id}/link-provider", h.LinkProvider)
	r.Post("/users/{id}/link-wallet", h.LinkWallet)
	r.Get("/users/{id}/activity", h.Activity)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req payload.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "bad_request", "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "missing_field", err.Error())
		return
	}

	providers := make([]usecase.ProviderLinkParams, 0, len(req.AuthProvidersLinked))
	for _, p := range req.AuthProvidersLinked {
		providers = append(providers, usecase.ProviderLinkParams{
			Provider:       p.ProviderName,
			ProviderUserID: p.ProviderUserID,
		})
	}

	profile, err := h.profile.CreateUser(r.Context(), usecase.CreateUserParams{
		UID:       req.UID,
		Email:     req.Email,
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
		Providers: providers,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, profile)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profile.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req payload.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "bad_request", "invalid JSON payload")
		return
	}

	profile, err := h.profile.UpdateProfile(r.Context(), chi.URLParam(r, "id"), usecase.UpdateProfileParams{
		Name:            req.Name,
		Bio:             req.Bio,
		DashboardLayout: req.DashboardLayout,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	var req payload.UpdateAvatarRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "bad_request", "invalid JSON payload")
		return
	}
	// null clears the avatar; an absent field is an error.
	if !req.Set {
		respondErrorMessage(w, http.StatusBadRequest, "missing_field", "avatar_url is required (null to clear)")
		return
	}

	profile, err := h.profile.UpdateAvatar(r.Context(), chi.URLParam(r, "id"), req.AvatarURL)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) LinkProvider(w http.ResponseWriter, r *http.Request) {
	var req payload.LinkProviderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "bad_request", "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "missing_field", err.Error())
		return
	}

	profile, created, err := h.profile.LinkProvider(
		r.Context(),
		chi.URLParam(r, "id"),
		req.ProviderName,
		req.ProviderUserID,
	)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, profile)
}

func (h *UserHandler) LinkWallet(w http.ResponseWriter, r *http.Request) {
	var req payload.LinkWalletRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "bad_request", "invalid JSON payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "missing_field", err.Error())
		return
	}

	profile, created, err := h.profile.LinkWallet(
		r.Context(),
		chi.URLParam(r, "id"),
		req.Address,
		req.ChainID,
		req.IsPrimary,
	)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, profile)
}

func (h *UserHandler) Activity(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	events, err := h.profile.RecentActivity(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, events)
}
