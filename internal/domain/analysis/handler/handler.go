// Package handler exposes the risk score and affordability endpoints.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/credwise/credwise-api/internal/domain/analysis"
	"github.com/credwise/credwise-api/pkg/interceptors"
	"github.com/credwise/credwise-api/pkg/money"
)

// Handler handles analysis HTTP requests.
type Handler struct {
	service *analysis.Service
	logger  *slog.Logger
}

// New creates a new analysis handler.
func New(service *analysis.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the analysis endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/risk-score", h.RiskScore)
	api.GET("/affordability", h.Affordability)
	api.POST("/affordability/check", h.CheckPurchase)
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

// RiskScore returns the debt-to-income risk report.
// GET /api/risk-score
func (h *Handler) RiskScore(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}

	report, err := h.service.RiskScore(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to compute risk score", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute risk score"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// Affordability returns the monthly budget picture.
// GET /api/affordability
func (h *Handler) Affordability(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}

	report, err := h.service.Affordability(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to compute affordability", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute affordability"})
		return
	}
	c.JSON(http.StatusOK, report)
}

type checkPurchaseRequest struct {
	Price  string `json:"price" binding:"required"`
	Months int    `json:"months"`
}

// CheckPurchase answers whether an EMI plan fits the user's safe limit.
// POST /api/affordability/check
func (h *Handler) CheckPurchase(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}

	var req checkPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, err := money.NewFromString(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}

	verdict, err := h.service.CheckPurchase(c.Request.Context(), userID, price, req.Months)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, verdict)
}
