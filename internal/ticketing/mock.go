package ticketing

import (
	"context"
	"sync"
	"time"

	"github.com/regiondesk/backend/internal/models"
)

// MockClient is an in-memory ticketing backend used when no backend URL is
// configured and by tests. Fetch order follows insertion order.
type MockClient struct {
	mu      sync.Mutex
	tickets []models.Ticket
	agents  []models.Agent
	groups  map[int]models.Group

	// Updates records every UpdateTicket call in order.
	Updates []models.TicketUpdate

	// Err, when set, is returned by every call; simulates an unavailable
	// backend.
	Err error
}

func NewMockClient(tickets []models.Ticket, agents []models.Agent, groups []models.Group) *MockClient {
	m := &MockClient{
		tickets: append([]models.Ticket(nil), tickets...),
		agents:  append([]models.Agent(nil), agents...),
		groups:  map[int]models.Group{},
	}
	for _, g := range groups {
		m.groups[g.ID] = g
	}
	return m
}

// SeedMockClient returns a mock with a small demo dataset covering two
// regions, a legacy fallback-group ticket, and a mixed agent directory.
func SeedMockClient() *MockClient {
	start := time.Now().Add(-24 * time.Hour)
	end := time.Now().Add(72 * time.Hour)
	return NewMockClient(
		[]models.Ticket{
			{ID: 1001, Number: "72001", Title: "Login fails", GroupID: 6, CustomerID: 301, OwnerID: models.UnassignedOwnerID, StateID: models.StateNew, PriorityID: 2},
			{ID: 1002, Number: "72002", Title: "Invoice missing", GroupID: 4, CustomerID: 302, OwnerID: 12, StateID: models.StateOpen, PriorityID: 2},
			{ID: 1003, Number: "72003", Title: "Legacy import", GroupID: 1, CustomerID: 303, OwnerID: models.UnassignedOwnerID, StateID: models.StateOpen, PriorityID: 1},
		},
		[]models.Agent{
			{ID: 11, Name: "Mara Ilic", Email: "mara@helpdesk.example", Active: true, RoleIDs: []int{models.RoleIDAgent}, GroupIDs: []int{6}, GroupPermissions: map[int][]string{6: {"full"}}},
			{ID: 12, Name: "Ken Osei", Email: "ken@helpdesk.example", Active: true, RoleIDs: []int{models.RoleIDAgent}, GroupIDs: []int{4, 6}, GroupPermissions: map[int][]string{4: {"full"}, 6: {"full"}}},
			{ID: 13, Name: "Root Admin", Email: "admin@helpdesk.example", Active: true, RoleIDs: []int{models.RoleIDAdmin, models.RoleIDAgent}, GroupIDs: []int{4, 6}},
			{ID: 14, Name: "Iris Tan", Email: "iris@helpdesk.example", Active: true, RoleIDs: []int{models.RoleIDAgent}, GroupIDs: []int{6}, OutOfOffice: true, OutOfOfficeStart: &start, OutOfOfficeEnd: &end},
		},
		[]models.Group{
			{ID: 1, Name: "Users", Active: true},
			{ID: 4, Name: "europe-zone-1", Active: true},
			{ID: 6, Name: "asia-pacific", Active: true},
		},
	)
}

func (m *MockClient) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.Ticket(nil), m.tickets...), nil
}

func (m *MockClient) GetTicket(ctx context.Context, id int) (models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Ticket{}, m.Err
	}
	for _, t := range m.tickets {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Ticket{}, ErrNotFound
}

func (m *MockClient) ListAgents(ctx context.Context) ([]models.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.Agent(nil), m.agents...), nil
}

func (m *MockClient) GetGroup(ctx context.Context, id int) (models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Group{}, m.Err
	}
	g, ok := m.groups[id]
	if !ok {
		return models.Group{}, ErrNotFound
	}
	return g, nil
}

func (m *MockClient) UpdateTicket(ctx context.Context, id int, update models.TicketUpdate) (models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return models.Ticket{}, m.Err
	}
	for i := range m.tickets {
		if m.tickets[i].ID != id {
			continue
		}
		if update.OwnerID != nil {
			m.tickets[i].OwnerID = *update.OwnerID
		}
		if update.GroupID != nil {
			m.tickets[i].GroupID = *update.GroupID
		}
		if update.StateID != nil {
			m.tickets[i].StateID = *update.StateID
		}
		m.tickets[i].UpdatedAt = time.Now().UTC()
		m.Updates = append(m.Updates, update)
		return m.tickets[i], nil
	}
	return models.Ticket{}, ErrNotFound
}
