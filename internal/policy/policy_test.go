package policy

import (
	"errors"
	"testing"

	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/internaltypes"
)

func TestDefaultPolicy(t *testing.T) {
	t.Parallel()

	provider := user.Caller{ID: "p1", Role: user.RoleProvider}
	otherProvider := user.Caller{ID: "p2", Role: user.RoleProvider}
	client := user.Caller{ID: "c1", Role: user.RoleClient}
	otherClient := user.Caller{ID: "c2", Role: user.RoleClient}
	admin := user.Caller{ID: "a1", Role: user.RoleAdmin}
	res := Resource{OwnerID: "p1", RequesterID: "c1"}

	tests := []struct {
		name   string
		action Action
		caller user.Caller
		res    Resource
		allow  bool
	}{
		{"provider declares own", ActionDeclare, provider, Resource{OwnerID: "p1"}, true},
		{"provider declares for another", ActionDeclare, provider, Resource{OwnerID: "p2"}, false},
		{"client declares", ActionDeclare, client, Resource{OwnerID: "c1"}, false},
		{"client books", ActionBook, client, Resource{RequesterID: "c1"}, true},
		{"provider books", ActionBook, provider, Resource{RequesterID: "p1"}, false},
		{"admin books", ActionBook, admin, Resource{RequesterID: "a1"}, false},
		{"owner cancels", ActionCancel, provider, res, true},
		{"requester cancels", ActionCancel, client, res, true},
		{"admin cancels", ActionCancel, admin, res, true},
		{"other provider cancels", ActionCancel, otherProvider, res, false},
		{"other client cancels", ActionCancel, otherClient, res, false},
		{"provider lists", ActionListMine, provider, Resource{}, true},
		{"client lists", ActionListMine, client, Resource{}, true},
		{"admin lists", ActionListMine, admin, Resource{}, false},
		{"owner looks up", ActionLookup, provider, res, true},
		{"requester looks up", ActionLookup, client, res, true},
		{"admin looks up", ActionLookup, admin, res, true},
		{"stranger looks up", ActionLookup, otherClient, res, false},
		{"anonymous", ActionBook, user.Caller{}, Resource{}, false},
		{"unknown action", Action("delete"), admin, res, false},
	}

	p := Default()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := p.Check(tt.action, tt.caller, tt.res)
			if tt.allow && err != nil {
				t.Fatalf("expected allow, got %v", err)
			}
			if !tt.allow && !errors.Is(err, internaltypes.ErrForbidden) {
				t.Fatalf("expected forbidden, got %v", err)
			}
		})
	}
}

func TestRuleCombinators(t *testing.T) {
	t.Parallel()

	c := user.Caller{ID: "x", Role: user.RoleClient}
	yes := func(user.Caller, Resource) bool { return true }
	no := func(user.Caller, Resource) bool { return false }

	if AnyOf()(c, Resource{}) {
		t.Fatalf("empty AnyOf should deny")
	}
	if AllOf()(c, Resource{}) {
		t.Fatalf("empty AllOf should deny")
	}
	if !AnyOf(no, yes)(c, Resource{}) {
		t.Fatalf("AnyOf(no, yes) should allow")
	}
	if AllOf(yes, no)(c, Resource{}) {
		t.Fatalf("AllOf(yes, no) should deny")
	}
	if AllOf(yes, nil)(c, Resource{}) {
		t.Fatalf("nil rule inside AllOf should deny")
	}
}

func TestSwappedPolicy(t *testing.T) {
	t.Parallel()

	// admins may book on behalf of anyone
	p := Default()
	p.Book = AnyOf(IsClient, IsAdmin)
	if err := p.Check(ActionBook, user.Caller{ID: "a1", Role: user.RoleAdmin}, Resource{}); err != nil {
		t.Fatalf("expected allow, got %v", err)
	}

	p.Cancel = nil
	if err := p.Check(ActionCancel, user.Caller{ID: "a1", Role: user.RoleAdmin}, Resource{}); !errors.Is(err, internaltypes.ErrForbidden) {
		t.Fatalf("nil rule should deny, got %v", err)
	}
}
