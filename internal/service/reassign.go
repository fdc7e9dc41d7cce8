package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/regiondesk/backend/internal/models"
)

// ErrNotAStaffMember means the administrator named a target that does not
// exist or does not hold the agent role.
var ErrNotAStaffMember = errors.New("target is not a staff member")

// Assign hands a ticket to an administrator-chosen agent. If the target
// lacks permission for the ticket's current group, or an explicit group
// override is supplied, the ticket is re-homed to a group the target does
// hold, in the same update that changes ownership: group and owner change
// atomically from the caller's perspective.
//
// A target on vacation is warned about, not blocked; the administrator's
// explicit choice overrides the auto-assignment heuristic.
func (a *Assigner) Assign(ctx context.Context, ticket models.Ticket, agentID int, groupOverride *int) (Assignment, error) {
	agents, err := a.Ticketing.ListAgents(ctx)
	if err != nil {
		return Assignment{}, fmt.Errorf("fetch agent directory: %w", err)
	}
	target, ok := findAgent(agents, agentID)
	if !ok || !target.HasRole(models.RoleIDAgent) {
		return Assignment{}, fmt.Errorf("%w: agent %d", ErrNotAStaffMember, agentID)
	}

	warning := target.OnVacation(a.now())
	if warning {
		a.Logger.Warn().
			Int("ticket_id", ticket.ID).
			Int("agent_id", target.ID).
			Msg("assigning to agent currently out of office")
	}

	if groupOverride != nil {
		if _, err := a.Ticketing.GetGroup(ctx, *groupOverride); err != nil {
			return Assignment{}, fmt.Errorf("group override %d: %w", *groupOverride, err)
		}
	}

	newGroup, reHomed := resolveGroup(ticket, target, groupOverride, a.Directory.FallbackGroup())

	update := models.TicketUpdate{OwnerID: &target.ID}
	if reHomed {
		update.GroupID = &newGroup
	}
	advanced := false
	if ticket.StateID == models.StateNew {
		state := models.StateOpen
		update.StateID = &state
		advanced = true
	}
	updated, err := a.Ticketing.UpdateTicket(ctx, ticket.ID, update)
	if err != nil {
		return Assignment{}, fmt.Errorf("assign ticket %d: %w", ticket.ID, err)
	}

	a.Logger.Info().
		Int("ticket_id", ticket.ID).
		Int("agent_id", target.ID).
		Int("group_id", updated.GroupID).
		Bool("re_homed", reHomed).
		Msg("ticket assigned by administrator")

	return Assignment{
		TicketID:        updated.ID,
		Agent:           models.AssignedAgent{ID: target.ID, Name: target.Name, Email: target.Email},
		GroupID:         updated.GroupID,
		StateAdvanced:   advanced,
		ReHomed:         reHomed,
		VacationWarning: warning,
	}, nil
}

// Unassign puts a ticket back on the unassigned sentinel. The group stays
// where it is.
func (a *Assigner) Unassign(ctx context.Context, ticket models.Ticket) (models.Ticket, error) {
	owner := models.UnassignedOwnerID
	updated, err := a.Ticketing.UpdateTicket(ctx, ticket.ID, models.TicketUpdate{OwnerID: &owner})
	if err != nil {
		return models.Ticket{}, fmt.Errorf("unassign ticket %d: %w", ticket.ID, err)
	}
	a.Logger.Info().Int("ticket_id", ticket.ID).Msg("ticket unassigned")
	return updated, nil
}

// resolveGroup picks the group the ticket should live in after an explicit
// assignment. Preference order: the administrator's override when the
// target holds it, then the ticket's current group, then the target's
// lowest-numbered non-fallback group, then the fallback group.
func resolveGroup(ticket models.Ticket, target models.Agent, override *int, fallback int) (int, bool) {
	if override != nil && target.HasGroup(*override) {
		return *override, *override != ticket.GroupID
	}
	if override == nil && target.HasGroup(ticket.GroupID) {
		return ticket.GroupID, false
	}
	permitted := append([]int(nil), target.GroupIDs...)
	sort.Ints(permitted)
	for _, g := range permitted {
		if g != fallback {
			return g, g != ticket.GroupID
		}
	}
	return fallback, fallback != ticket.GroupID
}

func findAgent(agents []models.Agent, id int) (models.Agent, bool) {
	for _, ag := range agents {
		if ag.ID == id {
			return ag, true
		}
	}
	return models.Agent{}, false
}
