package rbac

import (
	"errors"
	"testing"
	"time"
)

// fakeClock is an adjustable time source for TTL tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestProfileCacheReturnsCachedWhileFresh(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)}
	cache := NewProfileCache(5*time.Minute, clock.Now)

	fetches := 0
	fetch := func() (Profile, error) {
		fetches++
		return Profile{UserID: "u1", RoleName: "Admin"}, nil
	}

	p, err := cache.Get(fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Level != LevelAdmin {
		t.Fatalf("level should be derived from role name, got %v", p.Level)
	}

	clock.Advance(4 * time.Minute)
	if _, err := cache.Get(fetch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetches != 1 {
		t.Fatalf("second Get within TTL should hit the cache, fetches = %d", fetches)
	}

	clock.Advance(2 * time.Minute)
	if _, err := cache.Get(fetch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("Get past TTL should re-fetch, fetches = %d", fetches)
	}
}

func TestProfileCacheClear(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)}
	cache := NewProfileCache(5*time.Minute, clock.Now)

	fetches := 0
	fetch := func() (Profile, error) {
		fetches++
		return Profile{UserID: "u1", RoleName: "Reviewer"}, nil
	}

	_, _ = cache.Get(fetch)
	cache.Clear()
	_, _ = cache.Get(fetch)

	if fetches != 2 {
		t.Fatalf("Clear should force a re-fetch, fetches = %d", fetches)
	}
}

func TestProfileCacheFailsClosed(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)}
	cache := NewProfileCache(5*time.Minute, clock.Now)

	boom := errors.New("db down")
	p, err := cache.Get(func() (Profile, error) {
		return Profile{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error should propagate, got %v", err)
	}
	if p.Level != LevelOther {
		t.Fatalf("failed lookup must classify as the lowest level, got %v", p.Level)
	}

	// The failure is not cached; a working fetch afterwards succeeds
	p, err = cache.Get(func() (Profile, error) {
		return Profile{UserID: "u1", RoleName: "Super Admin"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Level != LevelSuperAdmin {
		t.Fatalf("recovered fetch should be used, got %v", p.Level)
	}
}

func TestProfileCacheDefaults(t *testing.T) {
	cache := NewProfileCache(0, nil)
	if cache.ttl != DefaultProfileTTL {
		t.Fatalf("zero TTL should fall back to %v", DefaultProfileTTL)
	}
	if cache.now == nil {
		t.Fatal("nil clock should fall back to time.Now")
	}
}
