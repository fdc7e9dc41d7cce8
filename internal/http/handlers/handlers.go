package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/regiondesk/backend/internal/access"
	"github.com/regiondesk/backend/internal/db"
	"github.com/regiondesk/backend/internal/events"
	"github.com/regiondesk/backend/internal/service"
	"github.com/regiondesk/backend/internal/ticketing"
)

type Handler struct {
	Store     *db.Store
	Ticketing ticketing.Client
	Access    access.Evaluator
	Assigner  *service.Assigner
	Events    events.Publisher
	Hub       *events.Hub
	Validator *validator.Validate
	Logger    zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	if h.Store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.Store.Ping(ctx); err != nil {
			writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
