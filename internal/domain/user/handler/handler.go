// Package handler exposes the user profile endpoints.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/credwise/credwise-api/internal/domain/user"
	"github.com/credwise/credwise-api/pkg/interceptors"
)

// Handler handles profile HTTP requests.
type Handler struct {
	service *user.Service
	logger  *slog.Logger
}

// New creates a new profile handler.
func New(service *user.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the profile endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/user/profile", h.GetProfile)
	api.PUT("/user/profile", h.UpdateProfile)
}

type updateProfileRequest struct {
	FullName      string `json:"full_name"`
	Salary        string `json:"salary"`
	MonthlyRent   string `json:"monthly_rent"`
	OtherExpenses string `json:"other_expenses"`
	ExistingLoans string `json:"existing_loans"`
	City          string `json:"city"`
}

func authedUser(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := interceptors.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user identity"})
		return uuid.Nil, false
	}
	return userID, true
}

// GetProfile returns the user's financial profile.
// GET /api/user/profile
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}

	profile, err := h.service.Profile(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load profile", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile saves the user's financial profile.
// PUT /api/user/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), userID, user.UpdateProfileParams{
		FullName:      req.FullName,
		Salary:        req.Salary,
		MonthlyRent:   req.MonthlyRent,
		OtherExpenses: req.OtherExpenses,
		ExistingLoans: req.ExistingLoans,
		City:          req.City,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}
