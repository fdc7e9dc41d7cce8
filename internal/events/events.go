package events

// Event types delivered to connected staff clients.
const (
	TypeAssignment   = "assignment"
	TypeConversation = "conversation"
)

// AssignmentEvent announces an ownership change on a ticket.
type AssignmentEvent struct {
	Type       string `json:"type"`
	TicketID   int    `json:"ticket_id"`
	NewOwnerID int    `json:"new_owner_id"`
	NewGroupID int    `json:"new_group_id"`
}

// ConversationEvent announces a conversation mode or status change.
type ConversationEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Mode           string `json:"mode"`
	Status         string `json:"status"`
}

// Publisher is the narrow surface services and handlers emit through.
type Publisher interface {
	PublishAssignment(ev AssignmentEvent)
	PublishConversation(ev ConversationEvent)
}

// NopPublisher discards every event; used in tests and when no hub runs.
type NopPublisher struct{}

func (NopPublisher) PublishAssignment(AssignmentEvent)     {}
func (NopPublisher) PublishConversation(ConversationEvent) {}
