// Package policy holds the role predicates that gate engine operations.
// Rules are plain functions so deployments can swap them without touching
// the booking or lifecycle code.
package policy

import (
	"fmt"

	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/internaltypes"
)

type Action string

const (
	ActionDeclare  Action = "declare"
	ActionBook     Action = "book"
	ActionCancel   Action = "cancel"
	ActionListMine Action = "list-mine"
	ActionLookup   Action = "lookup"
)

// Resource carries the parties of the thing being acted on.
type Resource struct {
	OwnerID     string
	RequesterID string
}

type Rule func(c user.Caller, r Resource) bool

func IsProvider(c user.Caller, _ Resource) bool { return c.Role == user.RoleProvider }
func IsClient(c user.Caller, _ Resource) bool   { return c.Role == user.RoleClient }
func IsAdmin(c user.Caller, _ Resource) bool    { return c.Role == user.RoleAdmin }

// IsResourceOwner matches the provider that owns the resource.
func IsResourceOwner(c user.Caller, r Resource) bool {
	return c.Role == user.RoleProvider && c.ID != "" && c.ID == r.OwnerID
}

// IsResourceRequester matches the client that requested the resource.
func IsResourceRequester(c user.Caller, r Resource) bool {
	return c.Role == user.RoleClient && c.ID != "" && c.ID == r.RequesterID
}

func AnyOf(rules ...Rule) Rule {
	return func(c user.Caller, r Resource) bool {
		for _, rule := range rules {
			if rule != nil && rule(c, r) {
				return true
			}
		}
		return false
	}
}

func AllOf(rules ...Rule) Rule {
	return func(c user.Caller, r Resource) bool {
		if len(rules) == 0 {
			return false
		}
		for _, rule := range rules {
			if rule == nil || !rule(c, r) {
				return false
			}
		}
		return true
	}
}

// Policy binds one rule per action. A nil rule denies.
type Policy struct {
	Declare  Rule
	Book     Rule
	Cancel   Rule
	ListMine Rule
	Lookup   Rule
}

func Default() Policy {
	return Policy{
		Declare:  AllOf(IsProvider, IsResourceOwner),
		Book:     IsClient,
		Cancel:   AnyOf(IsAdmin, IsResourceOwner, IsResourceRequester),
		ListMine: AnyOf(IsProvider, IsClient),
		Lookup:   AnyOf(IsAdmin, IsResourceOwner, IsResourceRequester),
	}
}

func (p Policy) rule(a Action) Rule {
	switch a {
	case ActionDeclare:
		return p.Declare
	case ActionBook:
		return p.Book
	case ActionCancel:
		return p.Cancel
	case ActionListMine:
		return p.ListMine
	case ActionLookup:
		return p.Lookup
	}
	return nil
}

// Check returns an error wrapping internaltypes.ErrForbidden unless the
// rule for a admits c on r.
func (p Policy) Check(a Action, c user.Caller, r Resource) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %s requires an identified caller", internaltypes.ErrForbidden, a)
	}
	rule := p.rule(a)
	if rule == nil || !rule(c, r) {
		return fmt.Errorf("%w: %s not permitted for %s %s", internaltypes.ErrForbidden, a, c.Role, c.ID)
	}
	return nil
}
