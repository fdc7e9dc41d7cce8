package access

import (
	"errors"
	"strings"
	"testing"

	"github.com/regiondesk/backend/internal/models"
	"github.com/regiondesk/backend/internal/region"
)

func testEvaluator() Evaluator {
	groups := region.DefaultGroups()
	groups[region.AsiaPacific] = 5
	return Evaluator{Directory: region.NewDirectory(groups, region.FallbackGroupID)}
}

func TestHasRegionAccess(t *testing.T) {
	e := testEvaluator()
	admin := models.Principal{Role: models.RoleAdmin}
	staff := models.Principal{Role: models.RoleStaff, Region: region.AsiaPacific}
	customer := models.Principal{Role: models.RoleCustomer, Email: "c@example.com"}

	if !e.HasRegionAccess(admin, region.Africa) {
		t.Fatalf("admin should access every region")
	}
	if !e.HasRegionAccess(staff, region.AsiaPacific) {
		t.Fatalf("staff should access own region")
	}
	if e.HasRegionAccess(staff, region.EuropeZone1) {
		t.Fatalf("staff should not access other regions")
	}
	if e.HasRegionAccess(customer, region.AsiaPacific) {
		t.Fatalf("customers are never evaluated by region")
	}
}

func TestHasGroupAccessCrossRegion(t *testing.T) {
	e := testEvaluator()
	staff := models.Principal{Role: models.RoleStaff, Region: region.EuropeZone1}

	// asia-pacific maps to group 5; europe staff must not see it.
	if e.HasGroupAccess(staff, 5) {
		t.Fatalf("europe staff should not access asia-pacific group")
	}
	tickets := []models.Ticket{{ID: 10, GroupID: 5}}
	if got := e.FilterTickets(tickets, staff); len(got) != 0 {
		t.Fatalf("cross-region ticket leaked: %+v", got)
	}
}

func TestFallbackGroupVisibleToAllStaff(t *testing.T) {
	e := testEvaluator()
	for _, r := range region.All() {
		staff := models.Principal{Role: models.RoleStaff, Region: r}
		if !e.HasGroupAccess(staff, region.FallbackGroupID) {
			t.Fatalf("staff in %s should see fallback-group tickets", r)
		}
	}
	customer := models.Principal{Role: models.RoleCustomer}
	if !e.HasGroupAccess(customer, region.FallbackGroupID) {
		t.Fatalf("customer submissions default to the fallback group")
	}
	if e.HasGroupAccess(customer, 5) {
		t.Fatalf("customer should not access a regional group")
	}
}

func TestConversationAccess(t *testing.T) {
	e := testEvaluator()
	conv := models.Conversation{ID: "c1", CustomerEmail: "alice@example.com", Region: region.AsiaPacific}

	owner := models.Principal{Role: models.RoleCustomer, Email: "alice@example.com"}
	other := models.Principal{Role: models.RoleCustomer, Email: "bob@example.com"}
	if !e.HasConversationAccess(owner, conv) {
		t.Fatalf("owner should see own conversation")
	}
	if e.HasConversationAccess(other, conv) {
		t.Fatalf("customer isolation violated")
	}

	localStaff := models.Principal{Role: models.RoleStaff, Region: region.AsiaPacific}
	remoteStaff := models.Principal{Role: models.RoleStaff, Region: region.Africa}
	if !e.HasConversationAccess(localStaff, conv) {
		t.Fatalf("same-region staff should see conversation")
	}
	if e.HasConversationAccess(remoteStaff, conv) {
		t.Fatalf("other-region staff should not see conversation")
	}

	legacy := models.Conversation{ID: "c2", CustomerEmail: "old@example.com"}
	if !e.HasConversationAccess(remoteStaff, legacy) {
		t.Fatalf("region-less conversations stay reachable by staff")
	}
	if !e.HasConversationAccess(models.Principal{Role: models.RoleAdmin}, conv) {
		t.Fatalf("admin sees everything")
	}
}

func TestRegionlessStaffSeesOnlyRegionlessConversations(t *testing.T) {
	e := testEvaluator()
	staff := models.Principal{Role: models.RoleStaff}
	conversations := []models.Conversation{
		{ID: "c1", Region: region.AsiaPacific},
		{ID: "c2"},
	}
	got := e.FilterConversations(conversations, staff)
	if len(got) != 1 || got[0].ID != "c2" {
		t.Fatalf("expected only the legacy conversation, got %+v", got)
	}
}

func TestValidateTicketAccess(t *testing.T) {
	e := testEvaluator()
	staff := models.Principal{Role: models.RoleStaff, Region: region.EuropeZone1}

	if err := e.ValidateTicketAccess(staff, e.Directory.GroupForRegion(region.EuropeZone1)); err != nil {
		t.Fatalf("unexpected denial: %v", err)
	}
	err := e.ValidateTicketAccess(staff, 5)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if !strings.Contains(err.Error(), "permission") {
		t.Fatalf("denial message should mention permission: %v", err)
	}
}

func TestValidateConversationAccess(t *testing.T) {
	e := testEvaluator()
	conv := models.Conversation{ID: "c1", CustomerEmail: "alice@example.com", Region: region.AsiaPacific}
	other := models.Principal{Role: models.RoleCustomer, Email: "bob@example.com"}
	if err := e.ValidateConversationAccess(other, conv); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	owner := models.Principal{Role: models.RoleCustomer, Email: "alice@example.com"}
	if err := e.ValidateConversationAccess(owner, conv); err != nil {
		t.Fatalf("unexpected denial: %v", err)
	}
}
