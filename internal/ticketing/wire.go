package ticketing

import (
	"sort"
	"strconv"
	"time"

	"github.com/regiondesk/backend/internal/models"
)

// Wire shapes as the ticketing backend serves them. Fields that arrive
// missing, null, or malformed are normalized here so the rest of the
// system only deals with complete records.

type wireTicket struct {
	ID         int       `json:"id"`
	Number     string    `json:"number"`
	Title      string    `json:"title"`
	GroupID    *int      `json:"group_id"`
	CustomerID *int      `json:"customer_id"`
	OwnerID    *int      `json:"owner_id"`
	PriorityID *int      `json:"priority_id"`
	StateID    *int      `json:"state_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (w wireTicket) normalize() models.Ticket {
	t := models.Ticket{
		ID:        w.ID,
		Number:    w.Number,
		Title:     w.Title,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
	// A group id that is absent, null, or not positive means "no group".
	if w.GroupID != nil && *w.GroupID > 0 {
		t.GroupID = *w.GroupID
	}
	if w.CustomerID != nil && *w.CustomerID > 0 {
		t.CustomerID = *w.CustomerID
	}
	t.OwnerID = models.UnassignedOwnerID
	if w.OwnerID != nil && *w.OwnerID > 0 {
		t.OwnerID = *w.OwnerID
	}
	if w.PriorityID != nil {
		t.PriorityID = *w.PriorityID
	}
	if w.StateID != nil {
		t.StateID = *w.StateID
	}
	return t
}

type wireAgent struct {
	ID               int                 `json:"id"`
	Firstname        string              `json:"firstname"`
	Lastname         string              `json:"lastname"`
	Email            string              `json:"email"`
	Active           bool                `json:"active"`
	RoleIDs          []int               `json:"role_ids"`
	GroupIDs         map[string][]string `json:"group_ids"`
	OutOfOffice      bool                `json:"out_of_office"`
	OutOfOfficeStart string              `json:"out_of_office_start_at"`
	OutOfOfficeEnd   string              `json:"out_of_office_end_at"`
}

func (w wireAgent) normalize() models.Agent {
	a := models.Agent{
		ID:      w.ID,
		Name:    joinName(w.Firstname, w.Lastname),
		Email:   w.Email,
		Active:  w.Active,
		RoleIDs: w.RoleIDs,
	}
	if len(w.GroupIDs) > 0 {
		a.GroupPermissions = make(map[int][]string, len(w.GroupIDs))
		for key, perms := range w.GroupIDs {
			id, err := strconv.Atoi(key)
			if err != nil || id <= 0 {
				continue
			}
			a.GroupPermissions[id] = perms
			a.GroupIDs = append(a.GroupIDs, id)
		}
		// JSON object keys carry no order; sort so per-agent group order
		// is stable across fetches.
		sort.Ints(a.GroupIDs)
	}
	a.OutOfOffice = w.OutOfOffice
	a.OutOfOfficeStart = parseVacationTime(w.OutOfOfficeStart)
	a.OutOfOfficeEnd = parseVacationTime(w.OutOfOfficeEnd)
	return a
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}

// parseVacationTime accepts the backend's date-only vacation fields as well
// as full timestamps. Unparseable values are treated as unset.
func parseVacationTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts
		}
	}
	return nil
}
