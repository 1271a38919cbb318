package data

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDatabaseUnavailable is returned by PoolWrapper methods while no connection has been
// established.
var ErrDatabaseUnavailable = errors.New("database unavailable")

// PoolOptions tunes the connection pool created by CreatePool.
type PoolOptions struct {
    MaxConns        int32
    MaxConnIdleTime time.Duration
    ConnectTimeout  time.Duration
}

// PoolWrapper wraps a *pgxpool.Pool and tracks whether the database is currently reachable.
type PoolWrapper struct {
    Pool  *pgxpool.Pool
    ready atomic.Bool
}

// CreatePool creates a *pgxpool.Pool and assigns it to the wrapper's Pool field. The pool
// connects lazily, so this does not touch the network.
func (pw *PoolWrapper) CreatePool(connString string, opts PoolOptions) error {
    cfg, err := pgxpool.ParseConfig(connString)
    if err != nil {
        return err
    }

    if opts.MaxConns > 0 {
        cfg.MaxConns = opts.MaxConns
    }
    if opts.MaxConnIdleTime > 0 {
        cfg.MaxConnIdleTime = opts.MaxConnIdleTime
    }
    if opts.ConnectTimeout > 0 {
        cfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout
    }

    p, err := pgxpool.NewWithConfig(context.Background(), cfg)
    if err != nil {
        return err
    }

    pw.Pool = p

    return nil
}

// ConnectAsync starts a background goroutine that pings the database every interval until
// ctx is cancelled, keeping Ready() in step with the result. Failure never stops the caller.
// onChange, if not nil, is called on every readiness transition.
func (pw *PoolWrapper) ConnectAsync(ctx context.Context, logger *slog.Logger, interval time.Duration, onChange func(ready bool)) {
    if pw.Pool == nil {
        logger.Error("could not connect to database", "error", "connection pool not created")
        return
    }

    go pw.monitor(ctx, logger, interval, pw.Ping, onChange)
}

func (pw *PoolWrapper) monitor(ctx context.Context, logger *slog.Logger, interval time.Duration, ping func(context.Context) error, onChange func(bool)) {
    for {
        err := ping(ctx)
        if ctx.Err() != nil {
            return
        }

        ready := err == nil
        was := pw.ready.Swap(ready)

        switch {
        case ready && !was:
            logger.Info("connected to database")
        case !ready && was:
            logger.Error("lost connection to database", "error", err.Error())
        case !ready:
            logger.Error("could not connect to database", "error", err.Error(), "retry_in", interval.String())
        }

        if ready != was && onChange != nil {
            onChange(ready)
        }

        select {
        case <-ctx.Done():
            return
        case <-time.After(interval):
        }
    }
}

// ReportError clears the ready flag when err shows the database could not be reached, and
// reports whether it did. The monitor sets the flag again after its next successful ping.
func (pw *PoolWrapper) ReportError(err error) bool {
    var connectErr *pgconn.ConnectError
    var opErr *net.OpError

    if errors.As(err, &connectErr) || errors.As(err, &opErr) {
        pw.ready.Store(false)
        return true
    }

    return false
}

// Ping checks the connection with a 5-second deadline.
func (pw *PoolWrapper) Ping(ctx context.Context) error {
    if pw.Pool == nil {
        return ErrDatabaseUnavailable
    }

    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()

    return pw.Pool.Ping(ctx)
}

// Ready reports whether the last health check (or query) reached the database.
func (pw *PoolWrapper) Ready() bool {
    return pw.ready.Load()
}

// Close closes the pool if one was created.
func (pw *PoolWrapper) Close() {
    if pw.Pool != nil {
        pw.Pool.Close()
    }
}
