// Package handler exposes the advisor chat endpoint.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/credwise/credwise-api/internal/domain/advisor"
	"github.com/credwise/credwise-api/pkg/interceptors"
)

// Handler handles advisor chat HTTP requests.
type Handler struct {
	service *advisor.Service
	logger  *slog.Logger
}

// New creates a new advisor handler.
func New(service *advisor.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the chat endpoint on an authenticated group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/chat", h.Chat)
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Chat answers a free-form affordability question.
// POST /api/chat
func (h *Handler) Chat(c *gin.Context) {
	raw, ok := interceptors.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user identity"})
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.service.Chat(c.Request.Context(), userID, req.Message)
	if err != nil {
		h.logger.Error("advisor chat failed", slog.Any("error", err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "advisor is unavailable right now"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": answer})
}
