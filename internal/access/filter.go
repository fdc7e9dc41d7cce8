package access

import "github.com/regiondesk/backend/internal/models"

// FilterTickets returns the subset of tickets the principal may see,
// preserving order. Admins see everything. Tickets with no usable group id
// are dropped for staff: ambiguous data is never exposed. Customers keep
// only their own tickets on top of the group check.
func (e Evaluator) FilterTickets(tickets []models.Ticket, p models.Principal) []models.Ticket {
	if p.IsAdmin() {
		return tickets
	}
	out := make([]models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.GroupID <= 0 {
			continue
		}
		if !e.HasGroupAccess(p, t.GroupID) {
			continue
		}
		if p.Role == models.RoleCustomer && t.CustomerID != p.ExternalID {
			continue
		}
		out = append(out, t)
	}
	return out
}

// FilterConversations returns the subset of conversations the principal
// may see, preserving order.
func (e Evaluator) FilterConversations(conversations []models.Conversation, p models.Principal) []models.Conversation {
	if p.IsAdmin() {
		return conversations
	}
	out := make([]models.Conversation, 0, len(conversations))
	for _, c := range conversations {
		if e.HasConversationAccess(p, c) {
			out = append(out, c)
		}
	}
	return out
}
