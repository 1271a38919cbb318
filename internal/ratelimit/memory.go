package ratelimit

import (
	"context"
	"sync"
	"time"
)

type clientWindow struct {
    hits     []time.Time
    lastSeen time.Time
}

// MemoryStore keeps a sliding log of admitted request times per key in process memory.
type MemoryStore struct {
    mu      sync.Mutex
    clients map[string]*clientWindow
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
    return &MemoryStore{clients: make(map[string]*clientWindow)}
}

// Take implements Store.
func (s *MemoryStore) Take(_ context.Context, key string, max int, window time.Duration, now time.Time) (Result, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    cw, found := s.clients[key]
    if !found {
        cw = &clientWindow{}
        s.clients[key] = cw
    }

    cw.lastSeen = now

    // Drop every hit that has slid out of the window.
    cutoff := now.Add(-window)
    i := 0
    for i < len(cw.hits) && !cw.hits[i].After(cutoff) {
        i++
    }
    cw.hits = cw.hits[i:]

    if len(cw.hits) >= max {
        return Result{
            Allowed: false,
            Count:   len(cw.hits),
            ResetAt: cw.hits[0].Add(window),
        }, nil
    }

    cw.hits = append(cw.hits, now)

    return Result{
        Allowed:   true,
        Count:     len(cw.hits),
        Remaining: max - len(cw.hits),
        ResetAt:   cw.hits[0].Add(window),
    }, nil
}

// Sweep removes keys that have not been seen for longer than idle and returns how many
// were removed.
func (s *MemoryStore) Sweep(now time.Time, idle time.Duration) int {
    s.mu.Lock()
    defer s.mu.Unlock()

    removed := 0
    for key, cw := range s.clients {
        if now.Sub(cw.lastSeen) > idle {
            delete(s.clients, key)
            removed++
        }
    }

    return removed
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
    s.mu.Lock()
    defer s.mu.Unlock()

    return len(s.clients)
}

// RunJanitor sweeps idle keys every interval until ctx is cancelled.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval, idle time.Duration) {
    ticker := time.NewTicker(interval)
    defer ticker.Stop()

    for {
        select {
        case <-ctx.Done():
            return
        case now := <-ticker.C:
            s.Sweep(now, idle)
        }
    }
}
