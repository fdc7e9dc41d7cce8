package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/regiondesk/backend/internal/models"
	"github.com/regiondesk/backend/internal/region"
	"github.com/regiondesk/backend/internal/ticketing"
)

// ErrNoAvailableAgents means candidate filtering left nobody to assign.
// Recoverable: escalate to an administrator or retry later.
var ErrNoAvailableAgents = errors.New("no available agents for this region")

const (
	ReasonNoAgents          = "NO_AGENTS"
	ReasonNoAvailableAgents = "NO_AVAILABLE_AGENTS"
	ReasonAssigned          = "ASSIGNED"
)

// Assigner owns ticket assignment against the ticketing backend. It keeps
// no state between attempts; every call re-derives candidates and loads
// from a fresh snapshot.
type Assigner struct {
	Ticketing    ticketing.Client
	Directory    *region.Directory
	SystemEmails []string
	Logger       zerolog.Logger

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func (a *Assigner) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}

type CandidateStage struct {
	Name       string
	Candidates []models.Agent
}

// CandidateResult carries the surviving pool plus every intermediate stage
// for the debug view.
type CandidateResult struct {
	Eligible   []models.Agent
	Stages     []CandidateStage
	ReasonCode string
	ReasonText string
}

// Assignment is the outcome of a successful assignment or re-homing.
type Assignment struct {
	TicketID        int                  `json:"ticket_id"`
	Agent           models.AssignedAgent `json:"assigned_to"`
	GroupID         int                  `json:"group_id"`
	StateAdvanced   bool                 `json:"state_advanced"`
	ReHomed         bool                 `json:"re_homed,omitempty"`
	VacationWarning bool                 `json:"vacation_warning,omitempty"`
}

// FilterCandidates applies the eligibility rules for auto-assignment in
// order: inactive, admin role, system account, vacation window, group
// permission. Stage output preserves directory fetch order, which is also
// the tie-break order.
func FilterCandidates(agents []models.Agent, groupID int, systemEmails []string, now time.Time) CandidateResult {
	result := CandidateResult{}
	result.Stages = append(result.Stages, CandidateStage{Name: "directory", Candidates: agents})
	if len(agents) == 0 {
		result.ReasonCode = ReasonNoAgents
		result.ReasonText = "Agent directory is empty"
		return result
	}

	active := keepAgents(agents, func(ag models.Agent) bool { return ag.Active })
	result.Stages = append(result.Stages, CandidateStage{Name: "active", Candidates: active})

	// Admins hold elevated access but never take auto-assigned work.
	nonAdmin := keepAgents(active, func(ag models.Agent) bool { return !ag.HasRole(models.RoleIDAdmin) })
	result.Stages = append(result.Stages, CandidateStage{Name: "agent_role", Candidates: nonAdmin})

	nonSystem := keepAgents(nonAdmin, func(ag models.Agent) bool { return !isSystemAccount(ag.Email, systemEmails) })
	result.Stages = append(result.Stages, CandidateStage{Name: "system_accounts", Candidates: nonSystem})

	available := keepAgents(nonSystem, func(ag models.Agent) bool { return !ag.OnVacation(now) })
	result.Stages = append(result.Stages, CandidateStage{Name: "vacation", Candidates: available})

	permitted := keepAgents(available, func(ag models.Agent) bool { return ag.HasGroup(groupID) })
	result.Stages = append(result.Stages, CandidateStage{Name: "group_permission", Candidates: permitted})

	if len(permitted) == 0 {
		result.ReasonCode = ReasonNoAvailableAgents
		result.ReasonText = "No available agents for this region"
		return result
	}
	result.Eligible = permitted
	return result
}

// AutoAssign selects the least-loaded eligible agent for an unowned ticket
// and issues the owner update. A ticket still in the new state advances to
// open: assignment means work has begun.
func (a *Assigner) AutoAssign(ctx context.Context, ticket models.Ticket) (Assignment, error) {
	// Load data feeds the tie-break and must come from a fresh snapshot;
	// a failed fetch is fatal to the attempt, never approximated.
	tickets, err := a.Ticketing.ListTickets(ctx)
	if err != nil {
		return Assignment{}, fmt.Errorf("fetch ticket load: %w", err)
	}
	agents, err := a.Ticketing.ListAgents(ctx)
	if err != nil {
		return Assignment{}, fmt.Errorf("fetch agent directory: %w", err)
	}

	loads := OpenLoads(tickets)
	pool := FilterCandidates(agents, ticket.GroupID, a.SystemEmails, a.now())
	if len(pool.Eligible) == 0 {
		a.Logger.Info().
			Int("ticket_id", ticket.ID).
			Int("group_id", ticket.GroupID).
			Str("reason_code", pool.ReasonCode).
			Msg("auto-assign found no candidates")
		return Assignment{}, ErrNoAvailableAgents
	}

	selected := pickLeastLoaded(pool.Eligible, loads)

	update := models.TicketUpdate{OwnerID: &selected.ID}
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
		Int("agent_id", selected.ID).
		Int("load", loads[selected.ID]).
		Bool("state_advanced", advanced).
		Msg("ticket auto-assigned")

	return Assignment{
		TicketID:      updated.ID,
		Agent:         models.AssignedAgent{ID: selected.ID, Name: selected.Name, Email: selected.Email},
		GroupID:       updated.GroupID,
		StateAdvanced: advanced,
	}, nil
}

// OpenLoads counts open or in-progress tickets per owning agent. Tickets
// on the unassigned sentinel carry no load.
func OpenLoads(tickets []models.Ticket) map[int]int {
	loads := map[int]int{}
	for _, t := range tickets {
		if t.Unassigned() || !t.Open() {
			continue
		}
		loads[t.OwnerID]++
	}
	return loads
}

// pickLeastLoaded returns the first candidate with the minimum load.
// Stable with respect to input order: ties keep the earlier agent.
func pickLeastLoaded(eligible []models.Agent, loads map[int]int) models.Agent {
	best := eligible[0]
	for _, ag := range eligible[1:] {
		if loads[ag.ID] < loads[best.ID] {
			best = ag
		}
	}
	return best
}

func keepAgents(agents []models.Agent, keep func(models.Agent) bool) []models.Agent {
	out := make([]models.Agent, 0, len(agents))
	for _, ag := range agents {
		if keep(ag) {
			out = append(out, ag)
		}
	}
	return out
}

func isSystemAccount(email string, systemEmails []string) bool {
	for _, s := range systemEmails {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(email)) {
			return true
		}
	}
	return false
}
