package sessioncache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/user/datalenz/internal/types"
)

type fakeLister struct {
	calls    int
	sessions []types.Session
	err      error
}

func (f *fakeLister) ListSessions(ctx context.Context) ([]types.Session, error) {
	f.calls++
	return f.sessions, f.err
}

func TestListCachesWithinTTL(t *testing.T) {
	lister := &fakeLister{sessions: []types.Session{{ID: "s1"}}}
	c := New(lister, time.Minute)

	for i := 0; i < 3; i++ {
		sessions, err := c.List(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(sessions) != 1 || sessions[0].ID != "s1" {
			t.Fatalf("unexpected sessions: %+v", sessions)
		}
	}
	if lister.calls != 1 {
		t.Errorf("expected 1 backend call, got %d", lister.calls)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	lister := &fakeLister{sessions: []types.Session{{ID: "s1"}}}
	c := New(lister, time.Minute)

	if _, err := c.List(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.Invalidate()
	lister.sessions = []types.Session{{ID: "s1"}, {ID: "s2"}}

	sessions, err := c.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Errorf("expected refreshed list, got %+v", sessions)
	}
	if lister.calls != 2 {
		t.Errorf("expected 2 backend calls, got %d", lister.calls)
	}
}

func TestFetchFailureNotCached(t *testing.T) {
	lister := &fakeLister{err: errors.New("down")}
	c := New(lister, time.Minute)

	if _, err := c.List(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	lister.err = nil
	lister.sessions = []types.Session{{ID: "s1"}}
	sessions, err := c.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Errorf("expected recovery after failure, got %+v", sessions)
	}
}
