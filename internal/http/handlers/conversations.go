package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/regiondesk/backend/internal/db"
	"github.com/regiondesk/backend/internal/events"
	"github.com/regiondesk/backend/internal/http/middleware"
	"github.com/regiondesk/backend/internal/models"
)

// @Summary List conversations visible to the caller
// @Tags conversations
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/conversations [get]
func (h *Handler) ConversationsList(c *gin.Context) {
	p := middleware.PrincipalFrom(c)

	// Customers are narrowed in the query already; the filter still runs
	// so list and detail paths share one access rule.
	email := ""
	if p.Role == models.RoleCustomer {
		email = p.Email
	}
	items, err := h.Store.ListConversations(c.Request.Context(), email, 50, 0)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list conversations", err.Error())
		return
	}
	items = h.Access.FilterConversations(items, p)
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

type CreateConversationRequest struct {
	Region string `json:"region"`
}

// @Summary Open a new AI chat conversation
// @Tags conversations
// @Accept json
// @Produce json
// @Success 201 {object} models.Conversation
// @Router /api/conversations [post]
func (h *Handler) ConversationCreate(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	var req CreateConversationRequest
	// Body is optional; region defaults to unset.
	_ = c.ShouldBindJSON(&req)

	conv := models.Conversation{
		ID:            uuid.NewString(),
		CustomerID:    p.ID,
		CustomerEmail: p.Email,
		Region:        strings.ToLower(strings.TrimSpace(req.Region)),
		Mode:          models.ModeAI,
		Status:        models.StatusActive,
	}
	created, err := h.Store.CreateConversation(c.Request.Context(), conv)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create conversation", err.Error())
		return
	}
	h.Events.PublishConversation(events.ConversationEvent{
		ConversationID: created.ID,
		Mode:           created.Mode,
		Status:         created.Status,
	})
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) ConversationDetails(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	conv, ok := h.loadConversation(c, p)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, conv)
}

// @Summary Hand a conversation from the AI to human staff
// @Tags conversations
// @Produce json
// @Success 200 {object} models.Conversation
// @Router /api/conversations/{id}/transfer [post]
func (h *Handler) ConversationTransfer(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	conv, ok := h.loadConversation(c, p)
	if !ok {
		return
	}
	updated, err := h.Store.TransferToHuman(c.Request.Context(), conv.ID)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrAlreadyHuman):
			writeError(c, http.StatusConflict, "ALREADY_HUMAN", "Conversation already transferred", nil)
		case errors.Is(err, db.ErrConversationClosed):
			writeError(c, http.StatusConflict, "CLOSED", "Conversation is closed", nil)
		default:
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Transfer failed", err.Error())
		}
		return
	}
	h.Events.PublishConversation(events.ConversationEvent{
		ConversationID: updated.ID,
		Mode:           updated.Mode,
		Status:         updated.Status,
	})
	c.JSON(http.StatusOK, updated)
}

// ConversationJoin attaches the calling staff member to a waiting
// conversation.
func (h *Handler) ConversationJoin(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	conv, ok := h.loadConversation(c, p)
	if !ok {
		return
	}
	if conv.Mode != models.ModeHuman {
		writeError(c, http.StatusConflict, "NOT_TRANSFERRED", "Conversation is still handled by the AI", nil)
		return
	}
	updated, err := h.Store.AssignStaff(c.Request.Context(), conv.ID, p.ExternalID, p.Email)
	if err != nil {
		if errors.Is(err, db.ErrConversationClosed) {
			writeError(c, http.StatusConflict, "CLOSED", "Conversation is closed", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Join failed", err.Error())
		return
	}
	h.Events.PublishConversation(events.ConversationEvent{
		ConversationID: updated.ID,
		Mode:           updated.Mode,
		Status:         updated.Status,
	})
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) ConversationClose(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	conv, ok := h.loadConversation(c, p)
	if !ok {
		return
	}
	updated, err := h.Store.CloseConversation(c.Request.Context(), conv.ID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Close failed", err.Error())
		return
	}
	h.Events.PublishConversation(events.ConversationEvent{
		ConversationID: updated.ID,
		Mode:           updated.Mode,
		Status:         updated.Status,
	})
	c.JSON(http.StatusOK, updated)
}

// loadConversation fetches a conversation and applies the single-entity
// access rule. Denied access reads as absence to the caller; the log keeps
// the real reason.
func (h *Handler) loadConversation(c *gin.Context, p models.Principal) (models.Conversation, bool) {
	id := c.Param("id")
	conv, err := h.Store.GetConversation(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Conversation not found", nil)
			return models.Conversation{}, false
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load conversation", err.Error())
		return models.Conversation{}, false
	}
	if err := h.Access.ValidateConversationAccess(p, conv); err != nil {
		h.Logger.Warn().Str("conversation_id", id).Str("principal", p.ID).Err(err).Msg("conversation access denied")
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Conversation not found", nil)
		return models.Conversation{}, false
	}
	return conv, true
}
