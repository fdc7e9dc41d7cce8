package models

import "time"

// Roles as supplied by the session provider.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// Role ids used by the ticketing backend.
const (
	RoleIDAdmin = 1
	RoleIDAgent = 2
)

// Ticket state ids in the ticketing backend.
const (
	StateNew     = 1
	StateOpen    = 2
	StatePending = 3
	StateClosed  = 4
)

// UnassignedOwnerID is the ticketing backend's system account; a ticket
// owned by it has no assignee.
const UnassignedOwnerID = 1

type Principal struct {
	ID         string `json:"id"`
	Role       string `json:"role"`
	Email      string `json:"email"`
	Region     string `json:"region,omitempty"`
	ExternalID int    `json:"external_id,omitempty"`
	GroupIDs   []int  `json:"group_ids,omitempty"`
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
func (p Principal) IsStaff() bool { return p.Role == RoleStaff }

// Ticket is a normalized snapshot from the ticketing backend. GroupID is 0
// when the backend record carried no usable group.
type Ticket struct {
	ID         int       `json:"id"`
	Number     string    `json:"number,omitempty"`
	Title      string    `json:"title"`
	GroupID    int       `json:"group_id"`
	CustomerID int       `json:"customer_id"`
	OwnerID    int       `json:"owner_id"`
	PriorityID int       `json:"priority_id"`
	StateID    int       `json:"state_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Unassigned reports whether the ticket has no real owner.
func (t Ticket) Unassigned() bool {
	return t.OwnerID == 0 || t.OwnerID == UnassignedOwnerID
}

// Open reports whether the ticket counts toward an agent's working load.
func (t Ticket) Open() bool {
	return t.StateID == StateNew || t.StateID == StateOpen
}

// Conversation modes and statuses.
const (
	ModeAI    = "ai"
	ModeHuman = "human"

	StatusActive  = "active"
	StatusWaiting = "waiting"
	StatusClosed  = "closed"
)

type Conversation struct {
	ID            string     `json:"id"`
	CustomerID    string     `json:"customer_id"`
	CustomerEmail string     `json:"customer_email"`
	Region        string     `json:"region,omitempty"`
	Mode          string     `json:"mode"`
	Status        string     `json:"status"`
	StaffID       *int       `json:"staff_id,omitempty"`
	StaffName     string     `json:"staff_name,omitempty"`
	TransferredAt *time.Time `json:"transferred_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Agent is a ticketing-backend user considered for ticket ownership.
// GroupIDs preserves the order the directory fetch returned them in.
type Agent struct {
	ID               int              `json:"id"`
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	Active           bool             `json:"active"`
	RoleIDs          []int            `json:"role_ids"`
	GroupIDs         []int            `json:"group_ids"`
	GroupPermissions map[int][]string `json:"group_permissions,omitempty"`
	OutOfOffice      bool             `json:"out_of_office"`
	OutOfOfficeStart *time.Time       `json:"out_of_office_start,omitempty"`
	OutOfOfficeEnd   *time.Time       `json:"out_of_office_end,omitempty"`
}

func (a Agent) HasRole(roleID int) bool {
	for _, id := range a.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

func (a Agent) HasGroup(groupID int) bool {
	for _, id := range a.GroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}

// OnVacation reports whether now falls in the agent's out-of-office window.
// An open-ended window (no end date) covers everything at or after start.
func (a Agent) OnVacation(now time.Time) bool {
	if !a.OutOfOffice {
		return false
	}
	if a.OutOfOfficeStart == nil {
		return true
	}
	if now.Before(*a.OutOfOfficeStart) {
		return false
	}
	if a.OutOfOfficeEnd == nil {
		return true
	}
	return !now.After(*a.OutOfOfficeEnd)
}

type Group struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// TicketUpdate is a partial ticket mutation sent to the ticketing backend.
type TicketUpdate struct {
	OwnerID *int `json:"owner_id,omitempty"`
	GroupID *int `json:"group_id,omitempty"`
	StateID *int `json:"state_id,omitempty"`
}

// AssignedAgent is the subset of agent fields reported with a successful
// assignment.
type AssignedAgent struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
