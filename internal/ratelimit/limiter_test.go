package ratelimit

import (
	"context"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, p Policy, s Store, now time.Time) *Limiter {
    t.Helper()

    l, err := New(p, s)
    if err != nil {
        t.Fatalf("failed to create limiter: %v", err)
    }
    l.now = func() time.Time { return now }

    return l
}

func TestNewRejectsInvalidPolicies(t *testing.T) {
    tests := []struct {
        name   string
        policy Policy
        store  Store
    }{
        {"nil store", Policy{Name: "api", Max: 1, Window: time.Minute}, nil},
        {"missing name", Policy{Max: 1, Window: time.Minute}, NewMemoryStore()},
        {"zero max", Policy{Name: "api", Window: time.Minute}, NewMemoryStore()},
        {"zero window", Policy{Name: "api", Max: 1}, NewMemoryStore()},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            if _, err := New(tt.policy, tt.store); err == nil {
                t.Error("expected error")
            }
        })
    }
}

func TestPoliciesSharingAStoreAreScopedSeparately(t *testing.T) {
    store := NewMemoryStore()
    now := time.Now()
    ctx := context.Background()

    api := newTestLimiter(t, Policy{Name: "api", Max: 100, Window: 15 * time.Minute}, store, now)
    login := newTestLimiter(t, Policy{Name: "login", Max: 5, Window: 15 * time.Minute}, store, now)

    for i := range 5 {
        if res, _ := login.Allow(ctx, "203.0.113.7"); !res.Allowed {
            t.Fatalf("login attempt %d rejected", i+1)
        }
    }
    if res, _ := login.Allow(ctx, "203.0.113.7"); res.Allowed {
        t.Fatal("sixth login attempt should be rejected")
    }

    if res, _ := api.Allow(ctx, "203.0.113.7"); !res.Allowed {
        t.Fatal("api policy should not be affected by the login policy")
    }
    if res, _ := login.Allow(ctx, "198.51.100.1"); !res.Allowed {
        t.Fatal("another client should have its own login budget")
    }
}

func TestLimiterKeyNormalisesClient(t *testing.T) {
    l := newTestLimiter(t, Policy{Name: "api", Max: 1, Window: time.Minute}, NewMemoryStore(), time.Now())

    if got := l.key("  2001:DB8::1 "); got != "ratelimit:api:2001:db8::1" {
        t.Errorf("key = %q", got)
    }
}
