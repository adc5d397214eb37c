package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"letter-backend/internal/shared/server/middleware"
	"letter-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.PUT("/me/settings", h.updateSettings)
}

type settingsRequest struct {
	PreferredLanguage *string           `json:"preferredLanguage"`
	APIKeys           map[string]string `json:"apiKeys"`
}

type meResponse struct {
	ID                string   `json:"id"`
	Email             string   `json:"email"`
	FullName          string   `json:"fullName"`
	PictureURL        string   `json:"pictureUrl"`
	PreferredLanguage string   `json:"preferredLanguage"`
	Providers         []string `json:"providers"`
}

func (h *Handler) me(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
			return
		}
		// Token is valid but the account row is gone; answer from the claims.
		user = User{
			ID:         userID,
			Email:      middleware.UserEmailFromContext(c),
			FullName:   middleware.UserNameFromContext(c),
			PictureURL: middleware.UserPictureFromContext(c),
		}
	}
	respond.OK(c, toMeResponse(user))
}

func (h *Handler) updateSettings(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	user, err := h.Svc.UpdateSettings(c.Request.Context(), userID, Settings{
		PreferredLanguage: req.PreferredLanguage,
		APIKeys:           req.APIKeys,
	})
	switch {
	case err == nil:
		respond.OK(c, toMeResponse(user))
	case errors.Is(err, ErrUnknownProvider):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), map[string]any{
			"supportedProviders": h.Svc.KnownProviders,
		})
	case errors.Is(err, ErrInvalidLanguage):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), []map[string]string{
			{"field": "preferredLanguage", "issue": "invalid"},
		})
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save settings", nil)
	}
}

func toMeResponse(user User) meResponse {
	return meResponse{
		ID:                user.ID,
		Email:             user.Email,
		FullName:          user.FullName,
		PictureURL:        user.PictureURL,
		PreferredLanguage: user.PreferredLanguage,
		Providers:         user.Providers(),
	}
}
