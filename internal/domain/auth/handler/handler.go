// Package handler exposes registration, login, token refresh and the Google
// OAuth flow over HTTP.
package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"

	"github.com/credwise/credwise-api/internal/domain/auth/common"
	"github.com/credwise/credwise-api/internal/domain/auth/service"
	"github.com/credwise/credwise-api/pkg/interceptors"
)

// Handler handles authentication HTTP requests.
type Handler struct {
	service     *service.AuthService
	frontendURL string
	logger      *slog.Logger
}

// New creates a new auth handler. Successful OAuth callbacks redirect to
// frontendURL with the token pair in the URL fragment.
func New(svc *service.AuthService, frontendURL string, logger *slog.Logger) *Handler {
	return &Handler{service: svc, frontendURL: frontendURL, logger: logger}
}

// RegisterRoutes mounts the public auth endpoints.
func (h *Handler) RegisterRoutes(r *gin.Engine, authRequired gin.HandlerFunc) {
	auth := r.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.POST("/refresh", h.Refresh)
	auth.GET("/google", h.BeginGoogleAuth)
	auth.GET("/google/callback", h.GoogleCallback)
	auth.GET("/status", authRequired, h.Status)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *Handler) metadata(c *gin.Context) service.SessionMetadata {
	return service.SessionMetadata{
		UserAgent: c.Request.UserAgent(),
		ClientIP:  c.ClientIP(),
	}
}

// Register creates a new account.
// POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Register(c.Request.Context(), service.RegisterParams{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Metadata: h.metadata(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUserAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
		case errors.Is(err, service.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("registration failed", slog.Any("error", err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": result.User, "tokens": result.Tokens})
}

// Login authenticates with email and password.
// POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Login(c.Request.Context(), service.LoginParams{
		Email:    req.Email,
		Password: req.Password,
		Metadata: h.metadata(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		case errors.Is(err, service.ErrAccountInactive):
			c.JSON(http.StatusForbidden, gin.H{"error": "account is deactivated"})
		default:
			h.logger.Error("login failed", slog.Any("error", err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": result.User, "tokens": result.Tokens})
}

// Logout revokes the refresh token session.
// POST /auth/logout
func (h *Handler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.logger.Error("logout failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Refresh rotates the session and returns a new token pair.
// POST /auth/refresh
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, err := h.service.RefreshTokens(c.Request.Context(), req.RefreshToken, h.metadata(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Status reports the authenticated identity.
// GET /auth/status
func (h *Handler) Status(c *gin.Context) {
	raw, ok := interceptors.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}

	user, err := h.service.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": user})
}

// BeginGoogleAuth starts the Google OAuth consent flow.
// GET /auth/google
func (h *Handler) BeginGoogleAuth(c *gin.Context) {
	h.withProvider(c, "google")
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// GoogleCallback completes the OAuth flow, logs the user in and redirects
// to the frontend with the token pair in the fragment.
// GET /auth/google/callback
func (h *Handler) GoogleCallback(c *gin.Context) {
	h.withProvider(c, "google")

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		h.logger.Error("oauth callback failed", slog.Any("error", err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "google authentication failed"})
		return
	}

	result, isNew, err := h.service.LoginOrRegisterOAuth(c.Request.Context(), "google", &gothUser, h.metadata(c))
	if err != nil {
		h.logger.Error("oauth login failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "google authentication failed"})
		return
	}

	if h.frontendURL == "" {
		c.JSON(http.StatusOK, gin.H{"user": result.User, "tokens": result.Tokens, "new_user": isNew})
		return
	}

	fragment := url.Values{}
	fragment.Set("access_token", result.Tokens.AccessToken)
	fragment.Set("refresh_token", result.Tokens.RefreshToken)
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/auth/callback#%s", h.frontendURL, fragment.Encode()))
}

// withProvider injects the provider name gothic expects on the request.
func (h *Handler) withProvider(c *gin.Context, provider string) {
	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()
}
