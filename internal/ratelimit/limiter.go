// Package ratelimit implements per-client sliding window admission control.
//
// A Limiter applies one Policy. The counters themselves live in a Store so that the
// same policy can be enforced from process memory or from a shared Redis instance.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Policy describes one independently scoped limit.
type Policy struct {
    Name    string
    Max     int
    Window  time.Duration
    Message string
}

// Result is the outcome of a single admission check.
type Result struct {
    Allowed   bool
    Count     int
    Remaining int
    ResetAt   time.Time
}

// Store records admitted requests per key and decides whether one more fits in the window.
// Implementations must make the check and the record a single atomic step.
type Store interface {
    Take(ctx context.Context, key string, max int, window time.Duration, now time.Time) (Result, error)
}

// Limiter enforces a Policy against a Store.
type Limiter struct {
    policy Policy
    store  Store
    now    func() time.Time
}

// New returns a Limiter for p backed by s.
func New(p Policy, s Store) (*Limiter, error) {
    if s == nil {
        return nil, errors.New("ratelimit: store is required")
    }
    if p.Name == "" {
        return nil, errors.New("ratelimit: policy name is required")
    }
    if p.Max < 1 || p.Window <= 0 {
        return nil, fmt.Errorf("ratelimit: policy %s must have positive max and window", p.Name)
    }

    return &Limiter{policy: p, store: s, now: time.Now}, nil
}

// Policy returns the policy enforced by l.
func (l *Limiter) Policy() Policy {
    return l.policy
}

// Allow records a request from client and reports whether it is admitted.
func (l *Limiter) Allow(ctx context.Context, client string) (Result, error) {
    return l.store.Take(ctx, l.key(client), l.policy.Max, l.policy.Window, l.now())
}

func (l *Limiter) key(client string) string {
    client = strings.ToLower(strings.TrimSpace(client))
    return fmt.Sprintf("ratelimit:%s:%s", l.policy.Name, client)
}
