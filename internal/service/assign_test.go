package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/regiondesk/backend/internal/models"
	"github.com/regiondesk/backend/internal/region"
	"github.com/regiondesk/backend/internal/ticketing"
)

func fixedNow() time.Time {
	return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
}

func newAssigner(mock *ticketing.MockClient) *Assigner {
	return &Assigner{
		Ticketing:    mock,
		Directory:    region.NewDirectory(region.DefaultGroups(), region.FallbackGroupID),
		SystemEmails: []string{"system@helpdesk.example"},
		Logger:       zerolog.Nop(),
		Now:          fixedNow,
	}
}

func agent(id int, email string, groups ...int) models.Agent {
	perms := map[int][]string{}
	for _, g := range groups {
		perms[g] = []string{"full"}
	}
	return models.Agent{
		ID:               id,
		Name:             email,
		Email:            email,
		Active:           true,
		RoleIDs:          []int{models.RoleIDAgent},
		GroupIDs:         groups,
		GroupPermissions: perms,
	}
}

func TestAutoAssignPicksLeastLoaded(t *testing.T) {
	a1 := agent(21, "a@helpdesk.example", 5)
	a2 := agent(22, "b@helpdesk.example", 5)
	mock := ticketing.NewMockClient(
		[]models.Ticket{
			{ID: 1, GroupID: 5, OwnerID: models.UnassignedOwnerID, StateID: models.StateNew},
			{ID: 2, GroupID: 5, OwnerID: 21, StateID: models.StateOpen},
			{ID: 3, GroupID: 5, OwnerID: 21, StateID: models.StateOpen},
			{ID: 4, GroupID: 5, OwnerID: 22, StateID: models.StateOpen},
			{ID: 5, GroupID: 5, OwnerID: 21, StateID: models.StateClosed}, // closed: no load
		},
		[]models.Agent{a1, a2},
		nil,
	)
	assigner := newAssigner(mock)

	ticket, _ := mock.GetTicket(context.Background(), 1)
	got, err := assigner.AutoAssign(context.Background(), ticket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Agent.ID != 22 {
		t.Fatalf("expected agent 22 (load 1 vs 2), got %d", got.Agent.ID)
	}
	if !got.StateAdvanced {
		t.Fatalf("new ticket should advance to open on assignment")
	}
	updated, _ := mock.GetTicket(context.Background(), 1)
	if updated.OwnerID != 22 || updated.StateID != models.StateOpen {
		t.Fatalf("update not applied: %+v", updated)
	}
}

func TestAutoAssignTieBreakIsStable(t *testing.T) {
	first := agent(31, "first@helpdesk.example", 5)
	second := agent(32, "second@helpdesk.example", 5)
	for i := 0; i < 5; i++ {
		mock := ticketing.NewMockClient(
			[]models.Ticket{{ID: 1, GroupID: 5, OwnerID: models.UnassignedOwnerID, StateID: models.StateNew}},
			[]models.Agent{first, second},
			nil,
		)
		got, err := newAssigner(mock).AutoAssign(context.Background(), models.Ticket{ID: 1, GroupID: 5, StateID: models.StateNew})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Agent.ID != 31 {
			t.Fatalf("tie must keep directory order, got %d", got.Agent.ID)
		}
	}
}

func TestAutoAssignNoCandidates(t *testing.T) {
	mock := ticketing.NewMockClient(
		[]models.Ticket{{ID: 1, GroupID: 9, OwnerID: models.UnassignedOwnerID, StateID: models.StateNew}},
		[]models.Agent{agent(41, "a@helpdesk.example", 5)}, // wrong group
		nil,
	)
	_, err := newAssigner(mock).AutoAssign(context.Background(), models.Ticket{ID: 1, GroupID: 9, StateID: models.StateNew})
	if !errors.Is(err, ErrNoAvailableAgents) {
		t.Fatalf("expected ErrNoAvailableAgents, got %v", err)
	}
	if len(mock.Updates) != 0 {
		t.Fatalf("no update call may be issued on failure, got %d", len(mock.Updates))
	}
}

func TestAutoAssignExcludesVacationingAgent(t *testing.T) {
	start := fixedNow().Add(-time.Hour)
	end := fixedNow().Add(time.Hour)
	away := agent(51, "away@helpdesk.example", 5)
	away.OutOfOffice = true
	away.OutOfOfficeStart = &start
	away.OutOfOfficeEnd = &end

	mock := ticketing.NewMockClient(
		[]models.Ticket{{ID: 1, GroupID: 5, OwnerID: models.UnassignedOwnerID, StateID: models.StateNew}},
		[]models.Agent{away},
		nil,
	)
	_, err := newAssigner(mock).AutoAssign(context.Background(), models.Ticket{ID: 1, GroupID: 5, StateID: models.StateNew})
	if !errors.Is(err, ErrNoAvailableAgents) {
		t.Fatalf("sole vacationing candidate must not be selected, got %v", err)
	}
	if len(mock.Updates) != 0 {
		t.Fatalf("no update call may be issued, got %d", len(mock.Updates))
	}
}

func TestAutoAssignExcludesAdminsAndSystemAccounts(t *testing.T) {
	admin := agent(61, "boss@helpdesk.example", 5)
	admin.RoleIDs = []int{models.RoleIDAdmin, models.RoleIDAgent}
	system := agent(62, "system@helpdesk.example", 5)
	human := agent(63, "human@helpdesk.example", 5)

	mock := ticketing.NewMockClient(
		[]models.Ticket{{ID: 1, GroupID: 5, OwnerID: models.UnassignedOwnerID, StateID: models.StateNew}},
		[]models.Agent{admin, system, human},
		nil,
	)
	got, err := newAssigner(mock).AutoAssign(context.Background(), models.Ticket{ID: 1, GroupID: 5, StateID: models.StateNew})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Agent.ID != 63 {
		t.Fatalf("admin/system accounts must never be selected, got %d", got.Agent.ID)
	}
}

func TestAutoAssignPropagatesBackendError(t *testing.T) {
	mock := ticketing.NewMockClient(nil, nil, nil)
	mock.Err = errors.New("connection refused")
	_, err := newAssigner(mock).AutoAssign(context.Background(), models.Ticket{ID: 1, GroupID: 5})
	if err == nil || errors.Is(err, ErrNoAvailableAgents) {
		t.Fatalf("backend failure must stay distinguishable from no-agents, got %v", err)
	}
	if got := err.Error(); !errors.Is(err, mock.Err) && got == "" {
		t.Fatalf("underlying message must be preserved, got %v", err)
	}
}

func TestFilterCandidatesStages(t *testing.T) {
	inactive := agent(71, "gone@helpdesk.example", 5)
	inactive.Active = false
	eligible := agent(72, "here@helpdesk.example", 5)

	res := FilterCandidates([]models.Agent{inactive, eligible}, 5, nil, fixedNow())
	if len(res.Eligible) != 1 || res.Eligible[0].ID != 72 {
		t.Fatalf("unexpected pool: %+v", res.Eligible)
	}
	names := make([]string, 0, len(res.Stages))
	for _, s := range res.Stages {
		names = append(names, s.Name)
	}
	want := []string{"directory", "active", "agent_role", "system_accounts", "vacation", "group_permission"}
	if len(names) != len(want) {
		t.Fatalf("unexpected stages: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("stage order mismatch: %v", names)
		}
	}
}

func TestOpenLoads(t *testing.T) {
	loads := OpenLoads([]models.Ticket{
		{ID: 1, OwnerID: 9, StateID: models.StateOpen},
		{ID: 2, OwnerID: 9, StateID: models.StateNew},
		{ID: 3, OwnerID: 9, StateID: models.StateClosed},
		{ID: 4, OwnerID: models.UnassignedOwnerID, StateID: models.StateOpen},
		{ID: 5, OwnerID: 8, StateID: models.StatePending},
	})
	if loads[9] != 2 {
		t.Fatalf("expected load 2 for agent 9, got %d", loads[9])
	}
	if _, ok := loads[models.UnassignedOwnerID]; ok {
		t.Fatalf("sentinel owner must carry no load")
	}
	if loads[8] != 0 {
		t.Fatalf("pending tickets are not open load")
	}
}
