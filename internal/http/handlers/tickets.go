package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/regiondesk/backend/internal/access"
	"github.com/regiondesk/backend/internal/events"
	"github.com/regiondesk/backend/internal/http/middleware"
	"github.com/regiondesk/backend/internal/models"
	"github.com/regiondesk/backend/internal/service"
	"github.com/regiondesk/backend/internal/ticketing"
)

// @Summary List tickets visible to the caller
// @Tags tickets
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/tickets [get]
func (h *Handler) TicketsList(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	tickets, err := h.Ticketing.ListTickets(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusBadGateway, "BACKEND_ERROR", "Failed to list tickets", err.Error())
		return
	}
	items := h.Access.FilterTickets(tickets, p)
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *Handler) TicketDetails(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	ticket, ok := h.loadTicket(c)
	if !ok {
		return
	}
	if err := h.checkTicketAccess(p, ticket); err != nil {
		// Denied and absent look identical to the caller so out-of-scope
		// tickets cannot be probed for existence.
		h.Logger.Warn().Int("ticket_id", ticket.ID).Str("principal", p.ID).Err(err).Msg("ticket access denied")
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
		return
	}
	region, _ := h.Assigner.Directory.RegionForGroup(ticket.GroupID)
	c.JSON(http.StatusOK, gin.H{"ticket": ticket, "region": region})
}

// @Summary List agents
// @Tags agents
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/agents [get]
func (h *Handler) AgentsList(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	agents, err := h.Ticketing.ListAgents(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusBadGateway, "BACKEND_ERROR", "Failed to list agents", err.Error())
		return
	}
	if !p.IsAdmin() {
		regionGroup := h.Assigner.Directory.GroupForRegion(p.Region)
		filtered := make([]models.Agent, 0, len(agents))
		for _, ag := range agents {
			if ag.HasGroup(regionGroup) {
				filtered = append(filtered, ag)
			}
		}
		agents = filtered
	}
	c.JSON(http.StatusOK, gin.H{"items": agents})
}

// @Summary Auto-assign an unowned ticket
// @Tags assignment
// @Produce json
// @Success 200 {object} service.Assignment
// @Router /api/tickets/{id}/auto-assign [post]
func (h *Handler) AutoAssign(c *gin.Context) {
	p := middleware.PrincipalFrom(c)
	ticket, ok := h.loadTicket(c)
	if !ok {
		return
	}
	if err := h.checkTicketAccess(p, ticket); err != nil {
		h.Logger.Warn().Int("ticket_id", ticket.ID).Str("principal", p.ID).Err(err).Msg("auto-assign denied")
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
		return
	}
	if !ticket.Unassigned() {
		writeError(c, http.StatusConflict, "ALREADY_ASSIGNED", "Ticket already has an owner", nil)
		return
	}

	result, err := h.Assigner.AutoAssign(c.Request.Context(), ticket)
	if err != nil {
		if errors.Is(err, service.ErrNoAvailableAgents) {
			writeError(c, http.StatusConflict, "NO_AVAILABLE_AGENTS", "No available agents for this region", nil)
			return
		}
		writeError(c, http.StatusBadGateway, "BACKEND_ERROR", "Assignment failed", err.Error())
		return
	}
	h.Events.PublishAssignment(events.AssignmentEvent{
		TicketID:   result.TicketID,
		NewOwnerID: result.Agent.ID,
		NewGroupID: result.GroupID,
	})
	c.JSON(http.StatusOK, result)
}

type AssignRequest struct {
	AgentID int  `json:"agent_id" validate:"required,gt=0"`
	GroupID *int `json:"group_id" validate:"omitempty,gt=0"`
}

// @Summary Assign a ticket to a named agent
// @Tags assignment
// @Accept json
// @Produce json
// @Success 200 {object} service.Assignment
// @Router /api/tickets/{id}/assign [post]
func (h *Handler) Assign(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	ticket, ok := h.loadTicket(c)
	if !ok {
		return
	}

	result, err := h.Assigner.Assign(c.Request.Context(), ticket, req.AgentID, req.GroupID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAStaffMember):
			writeError(c, http.StatusBadRequest, "NOT_A_STAFF_MEMBER", "Target is not a staff member", nil)
		case errors.Is(err, ticketing.ErrNotFound):
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Group not found", nil)
		default:
			writeError(c, http.StatusBadGateway, "BACKEND_ERROR", "Assignment failed", err.Error())
		}
		return
	}
	h.Events.PublishAssignment(events.AssignmentEvent{
		TicketID:   result.TicketID,
		NewOwnerID: result.Agent.ID,
		NewGroupID: result.GroupID,
	})
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Unassign(c *gin.Context) {
	ticket, ok := h.loadTicket(c)
	if !ok {
		return
	}
	updated, err := h.Assigner.Unassign(c.Request.Context(), ticket)
	if err != nil {
		writeError(c, http.StatusBadGateway, "BACKEND_ERROR", "Unassign failed", err.Error())
		return
	}
	h.Events.PublishAssignment(events.AssignmentEvent{
		TicketID:   updated.ID,
		NewOwnerID: updated.OwnerID,
		NewGroupID: updated.GroupID,
	})
	c.JSON(http.StatusOK, gin.H{"ticket": updated})
}

// @Summary Dump the staged candidate pool for a ticket
// @Tags debug
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/debug/candidates [get]
func (h *Handler) DebugCandidates(c *gin.Context) {
	id, err := strconv.Atoi(c.Query("ticket_id"))
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "ticket_id is required", nil)
		return
	}
	ticket, err := h.Ticketing.GetTicket(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ticketing.ErrNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
			return
		}
		writeError(c, http.StatusBadGateway, "BACKEND_ERROR", "Failed to load ticket", err.Error())
		return
	}
	agents, err := h.Ticketing.ListAgents(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusBadGateway, "BACKEND_ERROR", "Failed to load agents", err.Error())
		return
	}
	tickets, err := h.Ticketing.ListTickets(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusBadGateway, "BACKEND_ERROR", "Failed to load tickets", err.Error())
		return
	}

	now := time.Now().UTC()
	if h.Assigner.Now != nil {
		now = h.Assigner.Now()
	}
	pool := service.FilterCandidates(agents, ticket.GroupID, h.Assigner.SystemEmails, now)
	loads := service.OpenLoads(tickets)

	stageIDs := map[string][]int{}
	for _, stage := range pool.Stages {
		ids := make([]int, 0, len(stage.Candidates))
		for _, ag := range stage.Candidates {
			ids = append(ids, ag.ID)
		}
		stageIDs[stage.Name] = ids
	}
	eligible := make([]gin.H, 0, len(pool.Eligible))
	for _, ag := range pool.Eligible {
		eligible = append(eligible, gin.H{"id": ag.ID, "email": ag.Email, "load": loads[ag.ID]})
	}

	c.JSON(http.StatusOK, gin.H{
		"ticket_id": ticket.ID,
		"group_id":  ticket.GroupID,
		"stages":    stageIDs,
		"final": gin.H{
			"eligible":    eligible,
			"reason_code": pool.ReasonCode,
			"reason_text": pool.ReasonText,
		},
	})
}

func (h *Handler) loadTicket(c *gin.Context) (models.Ticket, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid ticket id", nil)
		return models.Ticket{}, false
	}
	ticket, err := h.Ticketing.GetTicket(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ticketing.ErrNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Ticket not found", nil)
			return models.Ticket{}, false
		}
		writeError(c, http.StatusBadGateway, "BACKEND_ERROR", "Failed to load ticket", err.Error())
		return models.Ticket{}, false
	}
	return ticket, true
}

// checkTicketAccess applies the single-entity access rule: customers match
// on ownership, staff and admins on group access.
func (h *Handler) checkTicketAccess(p models.Principal, t models.Ticket) error {
	if p.Role == models.RoleCustomer {
		if t.CustomerID != 0 && t.CustomerID == p.ExternalID {
			return nil
		}
		return access.ErrPermissionDenied
	}
	return h.Access.ValidateTicketAccess(p, t.GroupID)
}
