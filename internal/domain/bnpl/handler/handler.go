// Package handler exposes the BNPL sync and record endpoints.
package handler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/credwise/credwise-api/internal/domain/bnpl"
	"github.com/credwise/credwise-api/pkg/interceptors"
)

// Handler handles BNPL record HTTP requests.
type Handler struct {
	service *bnpl.Service
	logger  *slog.Logger
}

// New creates a new BNPL handler.
func New(service *bnpl.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the BNPL endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/emails/sync", h.SyncMailbox)
	api.GET("/bnpl/records", h.ListRecords)
	api.DELETE("/bnpl/records/:id", h.DeleteRecord)
	api.GET("/bnpl/search", h.SearchRecords)
	api.GET("/bnpl/export", h.ExportRecords)
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

// SyncMailbox runs one sync pass over the user's financial mail.
// POST /api/emails/sync
func (h *Handler) SyncMailbox(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}

	result, err := h.service.SyncMailbox(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, bnpl.ErrNoGmailAccount) {
			c.JSON(http.StatusConflict, gin.H{"error": "no linked Google account"})
			return
		}
		h.logger.Error("mailbox sync failed", slog.Any("error", err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "mailbox sync failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListRecords returns the user's stored obligations.
// GET /api/bnpl/records
func (h *Handler) ListRecords(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}

	records, err := h.service.Records(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list records", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records, "total": len(records)})
}

// DeleteRecord removes one record.
// DELETE /api/bnpl/records/:id
func (h *Handler) DeleteRecord(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	if err := h.service.DeleteRecord(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, bnpl.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		h.logger.Error("failed to delete record", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete record"})
		return
	}

	c.Status(http.StatusNoContent)
}

// SearchRecords filters records by fuzzy vendor match.
// GET /api/bnpl/search?q=hdfc
func (h *Handler) SearchRecords(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}

	records, err := h.service.SearchRecords(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		h.logger.Error("failed to search records", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records, "total": len(records)})
}

// ExportRecords streams the user's records as CSV or XLSX.
// GET /api/bnpl/export?format=csv
func (h *Handler) ExportRecords(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		return
	}

	filename := fmt.Sprintf("bnpl-records-%s", time.Now().Format("2006-01-02"))
	var buf bytes.Buffer

	switch format := c.DefaultQuery("format", "csv"); format {
	case "csv":
		if err := h.service.ExportCSV(c.Request.Context(), userID, &buf); err != nil {
			h.logger.Error("failed to export csv", slog.Any("error", err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
	case "xlsx":
		if err := h.service.ExportXLSX(c.Request.Context(), userID, &buf); err != nil {
			h.logger.Error("failed to export xlsx", slog.Any("error", err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", filename))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported format %q", format)})
	}
}
