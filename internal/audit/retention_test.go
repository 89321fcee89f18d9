package audit

import (
	"context"
	"testing"
	"time"
)

func seedRetentionRepo(now time.Time) *MemoryRepo {
	repo := NewMemoryRepo()
	add := func(kind ResourceKind, age time.Duration) {
		_ = repo.Append(context.Background(), Entry{
			ActorID:    "u1",
			Action:     ActionUpdate,
			Resource:   kind,
			ResourceID: "x",
			CreatedAt:  now.Add(-age),
		})
	}

	add(ResourceOrder, 100*24*time.Hour)  // well within 7 years
	add(ResourceAuth, 100*24*time.Hour)   // past the 90 day window
	add(ResourceAuth, 10*24*time.Hour)    // fresh
	add(ResourceItem, 400*24*time.Hour)   // past the 365 day window
	add(ResourceItem, 300*24*time.Hour)   // fresh
	return repo
}

func TestJanitor_CleanupUsesPerKindCutoffs(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	repo := seedRetentionRepo(now)

	j := NewJanitor(repo, discardLogger())
	j.SetClock(func() time.Time { return now })

	counts, err := j.Cleanup(context.Background())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if counts[ResourceAuth] != 1 {
		t.Fatalf("expected 1 auth entry deleted, got %d", counts[ResourceAuth])
	}
	if counts[ResourceItem] != 1 {
		t.Fatalf("expected 1 item entry deleted, got %d", counts[ResourceItem])
	}
	if counts[ResourceOrder] != 0 {
		t.Fatalf("order entries within 7 years must survive, deleted %d", counts[ResourceOrder])
	}

	if n := len(repo.Entries()); n != 3 {
		t.Fatalf("expected 3 surviving entries, got %d", n)
	}
}

func TestJanitor_PreviewMatchesCleanupWithoutDeleting(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	repo := seedRetentionRepo(now)

	j := NewJanitor(repo, discardLogger())
	j.SetClock(func() time.Time { return now })

	preview, err := j.Preview(context.Background())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if n := len(repo.Entries()); n != 5 {
		t.Fatalf("preview must not delete; %d entries remain", n)
	}

	counts, err := j.Cleanup(context.Background())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	for kind, want := range preview {
		if counts[kind] != want {
			t.Fatalf("preview/cleanup mismatch for %s: %d vs %d", kind, want, counts[kind])
		}
	}
}
