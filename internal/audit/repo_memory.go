package audit

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory append-only repository useful for tests.
// It mirrors the Postgres repo's query semantics closely enough that the
// retention and query surfaces can be exercised without a database.
type MemoryRepo struct {
	mu      sync.Mutex
	nextID  int64
	entries []Entry
	names   map[string]string
	err     error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{nextID: 1, names: make(map[string]string)}
}

// SetActorName registers a display name for actor-name resolution in Query.
func (r *MemoryRepo) SetActorName(actorID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[actorID] = name
}

// Fail makes every operation return err.
func (r *MemoryRepo) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *MemoryRepo) Append(ctx context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	e.ID = r.nextID
	r.nextID++
	r.entries = append(r.entries, e)
	return nil
}

// Entries returns a snapshot, newest last.
func (r *MemoryRepo) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *MemoryRepo) Query(ctx context.Context, f Filter) ([]EntryView, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}

	var matched []EntryView
	for _, e := range r.entries {
		name := r.names[e.ActorID]
		if !matches(e, name, f) {
			continue
		}
		v := EntryView{Entry: e, ActorName: name}
		if len(e.Changes) > 0 {
			_ = json.Unmarshal(e.Changes, &v.ChangeList)
		}
		if len(e.Metadata) > 0 {
			_ = json.Unmarshal(e.Metadata, &v.MetadataFields)
		}
		matched = append(matched, v)
	}

	// Newest first, like the SQL surface.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[f.Offset:]
		}
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func matches(e Entry, actorName string, f Filter) bool {
	if f.Resource != "" && e.Resource != f.Resource {
		return false
	}
	if f.ResourceID != "" && e.ResourceID != f.ResourceID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.ActorName != "" && !strings.Contains(strings.ToLower(actorName), strings.ToLower(f.ActorName)) {
		return false
	}
	if !f.From.IsZero() && e.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.CreatedAt.After(f.To) {
		return false
	}
	return true
}

func (r *MemoryRepo) DeleteOlderThan(ctx context.Context, kind ResourceKind, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	var kept []Entry
	var deleted int64
	for _, e := range r.entries {
		if e.Resource == kind && e.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return deleted, nil
}

func (r *MemoryRepo) CountOlderThan(ctx context.Context, kind ResourceKind, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	for _, e := range r.entries {
		if e.Resource == kind && e.CreatedAt.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) Stats(ctx context.Context) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return Stats{}, r.err
	}
	s := Stats{PerKind: make(map[ResourceKind]int64)}
	for _, e := range r.entries {
		s.Total++
		s.PerKind[e.Resource]++
		if s.OldestAt.IsZero() || e.CreatedAt.Before(s.OldestAt) {
			s.OldestAt = e.CreatedAt
		}
	}
	return s, nil
}
