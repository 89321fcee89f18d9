package authz

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestPermissionsFor_ServesFromCacheWithinTTL(t *testing.T) {
	store := NewMemoryStore()
	store.Grant("u1", PermissionItemManage)

	svc := NewService(store, time.Minute)
	now := time.Unix(1700000000, 0)
	svc.SetClock(fixedClock(now))

	for i := 0; i < 3; i++ {
		set, err := svc.PermissionsFor(context.Background(), "u1")
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if !set.Has(PermissionItemManage) {
			t.Fatalf("expected permission present")
		}
	}
	if store.Fetches != 1 {
		t.Fatalf("expected single store fetch, got %d", store.Fetches)
	}
}

func TestPermissionsFor_ExpiredEntryIsRefetched(t *testing.T) {
	store := NewMemoryStore()
	store.Grant("u1", PermissionItemManage)

	svc := NewService(store, time.Minute)
	now := time.Unix(1700000000, 0)
	svc.SetClock(fixedClock(now))

	if _, err := svc.PermissionsFor(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	// Past expiry the entry is treated as absent, never served stale.
	svc.SetClock(fixedClock(now.Add(2 * time.Minute)))
	store.Grant("u1") // permission revoked at the store
	set, err := svc.PermissionsFor(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if set.Has(PermissionItemManage) {
		t.Fatalf("expected revoked permission gone after expiry")
	}
	if store.Fetches != 2 {
		t.Fatalf("expected refetch, got %d fetches", store.Fetches)
	}
}

func TestPermissionsFor_RoleLessActorCachesEmptySet(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, time.Minute)
	svc.SetClock(fixedClock(time.Unix(1700000000, 0)))

	for i := 0; i < 3; i++ {
		set, err := svc.PermissionsFor(context.Background(), "nobody")
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if len(set) != 0 {
			t.Fatalf("expected empty set")
		}
	}
	if store.Fetches != 1 {
		t.Fatalf("expected empty set cached, got %d fetches", store.Fetches)
	}
}

func TestInvalidateAll_NextLookupRecomputes(t *testing.T) {
	store := NewMemoryStore()
	store.Grant("u1", PermissionOrderManage)

	svc := NewService(store, time.Hour)
	svc.SetClock(fixedClock(time.Unix(1700000000, 0)))

	if _, err := svc.PermissionsFor(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	// Role edit: permission revoked, cache dropped globally. The cached
	// entry had not expired, it must still not be served.
	store.Grant("u1")
	svc.InvalidateAll()

	set, err := svc.PermissionsFor(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if set.Has(PermissionOrderManage) {
		t.Fatalf("expected recompute after InvalidateAll")
	}
	if store.Fetches != 2 {
		t.Fatalf("expected refetch after InvalidateAll, got %d", store.Fetches)
	}
}

func TestAllowed_AdminAllShortCircuits(t *testing.T) {
	store := NewMemoryStore()
	store.Grant("root", PermissionAdminAll)

	svc := NewService(store, time.Minute)
	ok, err := svc.Allowed(context.Background(), "root", PermissionAuditAdmin)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !ok {
		t.Fatalf("expected admin-all to grant everything")
	}
}

func TestAllowed_FailsClosedOnStoreError(t *testing.T) {
	store := NewMemoryStore()
	store.Fail(errors.New("db down"))

	svc := NewService(store, time.Minute)
	ok, err := svc.Allowed(context.Background(), "u1", PermissionItemManage)
	if err == nil {
		t.Fatalf("expected hard error")
	}
	if ok {
		t.Fatalf("must never fail open")
	}
}

func TestSweep_DropsExpiredEntriesOnMisses(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, time.Minute)
	now := time.Unix(1700000000, 0)
	svc.SetClock(fixedClock(now))

	if _, err := svc.PermissionsFor(context.Background(), "old"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	// Advance past expiry, then drive enough misses to trigger a sweep.
	svc.SetClock(fixedClock(now.Add(2 * time.Minute)))
	for i := 0; i < sweepEveryNMisses; i++ {
		if _, err := svc.PermissionsFor(context.Background(), "actor-"+string(rune('a'+i))); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	// The swept map holds only the fresh entries from this round.
	if n := svc.Len(); n > sweepEveryNMisses {
		t.Fatalf("expected expired entry swept, cache has %d entries", n)
	}
}

func TestPermissionsFor_ConcurrentReaders(t *testing.T) {
	store := NewMemoryStore()
	store.Grant("u1", PermissionItemManage)
	svc := NewService(store, time.Minute)

	done := make(chan struct{})
	for i := 0; i < 16; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				set, err := svc.PermissionsFor(context.Background(), "u1")
				if err != nil || !set.Has(PermissionItemManage) {
					t.Errorf("bad read: set=%v err=%v", set, err)
					return
				}
			}
		}()
	}
	for i := 0; i < 16; i++ {
		<-done
	}
	close(done)
}
