package directory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/example/slot-scheduler/internal/internaltypes"
)

type countingSource struct {
	calls atomic.Int64
	users map[string]user.User
}

func (s *countingSource) Participant(_ context.Context, id string) (user.User, error) {
	s.calls.Add(1)
	u, ok := s.users[id]
	if !ok {
		return user.User{}, internaltypes.ErrNotFound
	}
	return u, nil
}

func TestResolveCaches(t *testing.T) {
	t.Parallel()

	src := &countingSource{users: map[string]user.User{"p1": {ID: "p1", Role: user.RoleProvider, DisplayName: "Dr. P"}}}
	d := New(src, 8, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		u, err := d.Resolve(ctx, "p1")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if u.DisplayName != "Dr. P" {
			t.Fatalf("expected Dr. P, got %q", u.DisplayName)
		}
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("expected 1 source call, got %d", got)
	}

	d.Forget("p1")
	if _, err := d.Resolve(ctx, "p1"); err != nil {
		t.Fatalf("Resolve after Forget: %v", err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("expected 2 source calls, got %d", got)
	}
}

func TestResolveMissIsNotCached(t *testing.T) {
	t.Parallel()

	src := &countingSource{users: map[string]user.User{}}
	d := New(src, 8, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := d.Resolve(context.Background(), "ghost"); !errors.Is(err, internaltypes.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("expected 2 source calls, got %d", got)
	}
	if d.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", d.Len())
	}
}
