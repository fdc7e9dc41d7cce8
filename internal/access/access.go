package access

import (
	"errors"
	"fmt"

	"github.com/regiondesk/backend/internal/models"
	"github.com/regiondesk/backend/internal/region"
)

// ErrPermissionDenied marks a principal acting outside its authorized
// scope. List paths never return it; they filter silently instead.
var ErrPermissionDenied = errors.New("permission denied")

// Evaluator answers view/act questions for a principal against tickets and
// conversations. All checks are pure lookups over the region directory.
type Evaluator struct {
	Directory *region.Directory
}

// HasRegionAccess reports whether the principal may act within a region.
// Customers are never evaluated by region; ownership checks apply instead.
func (e Evaluator) HasRegionAccess(p models.Principal, r string) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleStaff:
		return p.Region != "" && p.Region == r
	default:
		return false
	}
}

// HasGroupAccess reports whether the principal may act within a ticketing
// group. Fallback-group tickets stay visible to every staff member until
// they are re-homed.
func (e Evaluator) HasGroupAccess(p models.Principal, groupID int) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleStaff:
		if groupID == e.Directory.FallbackGroup() {
			return true
		}
		return groupID > 0 && groupID == e.Directory.GroupForRegion(p.Region)
	case models.RoleCustomer:
		return groupID == e.Directory.FallbackGroup()
	default:
		return false
	}
}

// HasConversationAccess reports whether the principal may see a
// conversation. Customers match on their own email; staff match on region,
// with region-less legacy records matching region-less staff so neither
// side orphans the other.
func (e Evaluator) HasConversationAccess(p models.Principal, c models.Conversation) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleStaff:
		return c.Region == "" || c.Region == p.Region
	case models.RoleCustomer:
		return c.CustomerEmail != "" && c.CustomerEmail == p.Email
	default:
		return false
	}
}

// ValidateTicketAccess fails with ErrPermissionDenied when the principal
// may not act on a ticket in the given group. Used at mutation boundaries
// where the caller asked for one specific ticket and must learn it was
// refused rather than receive an empty result.
func (e Evaluator) ValidateTicketAccess(p models.Principal, groupID int) error {
	if e.HasGroupAccess(p, groupID) {
		return nil
	}
	return fmt.Errorf("%w: no permission for ticket group %d", ErrPermissionDenied, groupID)
}

// ValidateConversationAccess is the throwing variant of
// HasConversationAccess.
func (e Evaluator) ValidateConversationAccess(p models.Principal, c models.Conversation) error {
	if e.HasConversationAccess(p, c) {
		return nil
	}
	return fmt.Errorf("%w: no permission for conversation %s", ErrPermissionDenied, c.ID)
}
