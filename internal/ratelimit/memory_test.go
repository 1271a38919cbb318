package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryStoreAdmitsUpToMax(t *testing.T) {
    s := NewMemoryStore()
    ctx := context.Background()
    now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

    for i := range 100 {
        res, err := s.Take(ctx, "k", 100, 15*time.Minute, now.Add(time.Duration(i)*time.Second))
        if err != nil {
            t.Fatalf("unexpected error: %v", err)
        }
        if !res.Allowed {
            t.Fatalf("request %d should be allowed", i+1)
        }
        if res.Remaining != 100-(i+1) {
            t.Errorf("request %d: remaining = %d", i+1, res.Remaining)
        }
    }

    res, _ := s.Take(ctx, "k", 100, 15*time.Minute, now.Add(2*time.Minute))
    if res.Allowed {
        t.Fatal("request 101 should be rejected")
    }
    if !res.ResetAt.Equal(now.Add(15 * time.Minute)) {
        t.Errorf("ResetAt = %v, want oldest hit + window", res.ResetAt)
    }
}

func TestMemoryStoreWindowSlides(t *testing.T) {
    s := NewMemoryStore()
    ctx := context.Background()
    start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
    window := 15 * time.Minute

    // Two hits at t=0, three at t=10m.
    for _, at := range []time.Duration{0, 0, 10 * time.Minute, 10 * time.Minute, 10 * time.Minute} {
        if res, _ := s.Take(ctx, "login", 5, window, start.Add(at)); !res.Allowed {
            t.Fatalf("warmup hit at %v rejected", at)
        }
    }

    if res, _ := s.Take(ctx, "login", 5, window, start.Add(14*time.Minute)); res.Allowed {
        t.Fatal("sixth attempt inside the window should be rejected")
    }

    // At t=15m the two oldest hits have left the window.
    for i := range 2 {
        if res, _ := s.Take(ctx, "login", 5, window, start.Add(15*time.Minute)); !res.Allowed {
            t.Fatalf("slot %d freed by the sliding window was not reused", i+1)
        }
    }
    if res, _ := s.Take(ctx, "login", 5, window, start.Add(15*time.Minute)); res.Allowed {
        t.Fatal("window should be full again")
    }
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
    s := NewMemoryStore()
    ctx := context.Background()
    now := time.Now()

    if res, _ := s.Take(ctx, "a", 1, time.Minute, now); !res.Allowed {
        t.Fatal("first hit for a rejected")
    }
    if res, _ := s.Take(ctx, "a", 1, time.Minute, now); res.Allowed {
        t.Fatal("second hit for a allowed")
    }
    if res, _ := s.Take(ctx, "b", 1, time.Minute, now); !res.Allowed {
        t.Fatal("b should have its own budget")
    }
}

func TestMemoryStoreConcurrentTake(t *testing.T) {
    s := NewMemoryStore()
    ctx := context.Background()
    now := time.Now()

    var (
        wg      sync.WaitGroup
        allowed atomic.Int64
    )

    for range 50 {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for range 10 {
                res, _ := s.Take(ctx, "shared", 100, time.Minute, now)
                if res.Allowed {
                    allowed.Add(1)
                }
            }
        }()
    }
    wg.Wait()

    if got := allowed.Load(); got != 100 {
        t.Errorf("admitted %d requests, want exactly 100", got)
    }
}

func TestMemoryStoreSweep(t *testing.T) {
    s := NewMemoryStore()
    ctx := context.Background()
    now := time.Now()

    _, _ = s.Take(ctx, "old", 5, time.Minute, now.Add(-time.Hour))
    _, _ = s.Take(ctx, "fresh", 5, time.Minute, now)

    if removed := s.Sweep(now, 30*time.Minute); removed != 1 {
        t.Errorf("removed %d keys, want 1", removed)
    }
    if s.Len() != 1 {
        t.Errorf("Len = %d, want 1", s.Len())
    }
}
