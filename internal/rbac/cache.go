package rbac

import (
	"sync"
	"time"
)

// DefaultProfileTTL is how long a resolved profile stays valid. A role change
// made elsewhere is not visible until the entry expires or is cleared.
const DefaultProfileTTL = 5 * time.Minute

// Profile is the resolved identity the permission checks run against.
type Profile struct {
	UserID   string
	RoleName string
	Level    Level
}

// Clock supplies the current time. Tests inject a fake one.
type Clock func() time.Time

// ProfileCache memoizes a single resolved profile with a TTL. It is owned by
// whoever constructs it rather than being module-global state, so invalidation
// and expiry are testable and sessions do not leak into each other.
type ProfileCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       Clock
	profile   *Profile
	fetchedAt time.Time
}

// NewProfileCache builds a cache with the given TTL. A nil clock falls back
// to time.Now.
func NewProfileCache(ttl time.Duration, clock Clock) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &ProfileCache{ttl: ttl, now: clock}
}

// Get returns the cached profile while fresh, otherwise calls fetch and
// caches the result. A fetch failure is not cached and fails closed: the
// returned profile carries LevelOther so every downstream check takes the
// most restrictive branch.
func (c *ProfileCache) Get(fetch func() (Profile, error)) (Profile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.profile != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		return *c.profile, nil
	}

	profile, err := fetch()
	if err != nil {
		return Profile{Level: LevelOther}, err
	}
	if profile.Level == 0 {
		profile.Level = GetRoleLevel(profile.RoleName)
	}

	c.profile = &profile
	c.fetchedAt = c.now()
	return profile, nil
}

// Clear drops the cached profile; the next Get re-fetches.
func (c *ProfileCache) Clear() {
	c.mu.Lock()
	c.profile = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
