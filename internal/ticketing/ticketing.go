package ticketing

import (
	"context"
	"errors"

	"github.com/regiondesk/backend/internal/models"
)

// ErrNotFound marks a ticket, agent, or group the backend does not know.
var ErrNotFound = errors.New("ticketing: not found")

// Client is the external ticketing backend. Implementations return
// normalized snapshots; core logic never sees partial or untyped records.
type Client interface {
	ListTickets(ctx context.Context) ([]models.Ticket, error)
	GetTicket(ctx context.Context, id int) (models.Ticket, error)
	ListAgents(ctx context.Context) ([]models.Agent, error)
	GetGroup(ctx context.Context, id int) (models.Group, error)
	UpdateTicket(ctx context.Context, id int, update models.TicketUpdate) (models.Ticket, error)
}
