package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"exams.zzh.net/internal/auth"
	"exams.zzh.net/internal/config"
	"exams.zzh.net/internal/data"
	"exams.zzh.net/internal/logger"
	"exams.zzh.net/internal/mail"
	"exams.zzh.net/internal/metrics"
	"exams.zzh.net/internal/ratelimit"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "1.0.0"

// application holds the dependencies for our HTTP handlers, helpers, and middleware.
type application struct {
    config         *config.Config
    logger         *slog.Logger
    db             *data.PoolWrapper
    models         data.Models
    tokens         *auth.Issuer
    apiLimiter     *ratelimit.Limiter
    loginLimiter   *ratelimit.Limiter
    trustedProxies []netip.Prefix
    limiterEnabled atomic.Bool
    metrics        *metrics.Metrics
    mailer         mail.Sender
    verboseErrors  bool
    wg             sync.WaitGroup
}

// newApplication wires the handler dependencies. Both limiters share store, each under its
// own key scope.
func newApplication(cfg *config.Config, logger *slog.Logger, db *data.PoolWrapper, store ratelimit.Store) (*application, error) {
    tokens, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
    if err != nil {
        return nil, err
    }

    apiLimiter, err := ratelimit.New(ratelimit.Policy{
        Name:    "api",
        Max:     cfg.Limiter.APIMax,
        Window:  cfg.Limiter.APIWindow,
        Message: "Too many requests",
    }, store)
    if err != nil {
        return nil, err
    }

    loginLimiter, err := ratelimit.New(ratelimit.Policy{
        Name:    "login",
        Max:     cfg.Limiter.LoginMax,
        Window:  cfg.Limiter.LoginWindow,
        Message: "Too many login attempts",
    }, store)
    if err != nil {
        return nil, err
    }

    trustedProxies, err := cfg.Limiter.TrustedProxyPrefixes()
    if err != nil {
        return nil, err
    }

    app := &application{
        config:         cfg,
        logger:         logger,
        db:             db,
        models:         data.NewModels(db),
        tokens:         tokens,
        apiLimiter:     apiLimiter,
        loginLimiter:   loginLimiter,
        trustedProxies: trustedProxies,
        metrics:        metrics.New(),
        verboseErrors:  cfg.VerboseErrors(),
    }

    app.limiterEnabled.Store(cfg.Limiter.Enabled)

    // NewEmailSender returns a nil pointer when SMTP is not configured; keep the
    // interface nil in that case.
    if sender := mail.NewEmailSender(cfg.SMTP); sender != nil {
        app.mailer = sender
    }

    return app, nil
}

func main() {
    var envFile string

    cmd := &cobra.Command{
        Use:           "exams-api",
        Short:         "Online Examination Management System API server",
        SilenceUsage:  true,
        SilenceErrors: true,
        RunE: func(cmd *cobra.Command, args []string) error {
            return run(envFile, os.Stderr)
        },
    }

    cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the process environment (ignored if absent)")

    cmd.AddCommand(&cobra.Command{
        Use:          "migrate",
        Short:        "Apply pending database migrations and exit",
        SilenceUsage: true,
        RunE: func(cmd *cobra.Command, args []string) error {
            return migrate(envFile, os.Stderr)
        },
    })

    cmd.Version = version

    // run and migrate report their own failures; only flag errors need printing here.
    cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
        c.PrintErrln(err)
        return err
    })

    if err := cmd.Execute(); err != nil {
        os.Exit(1)
    }
}

// loadConfig reads the configuration and reports any failure on stderr. It never touches
// the network.
func loadConfig(v *viper.Viper, envFile string, stderr io.Writer) (*config.Config, error) {
    var cfg config.Config

    err := config.LoadConfig(v, envFile, &cfg)
    if err != nil {
        var missingErr *config.MissingEnvError
        if errors.As(err, &missingErr) {
            fmt.Fprintln(stderr, missingErr.Error())
        } else {
            fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
        }
        return nil, err
    }

    return &cfg, nil
}

func run(envFile string, stderr io.Writer) error {
    v := viper.New()

    cfg, err := loadConfig(v, envFile, stderr)
    if err != nil {
        return err
    }

    appLogger := logger.New(logger.ParseLevel(cfg.LogLevel), cfg.Env)

    appLogger.Info("configuration loaded",
        "env", cfg.Env,
        "port", cfg.Port,
        "cors_origin", cfg.CORSOrigin,
        "limiter_enabled", cfg.Limiter.Enabled,
        "redis", cfg.Redis.Addr != "",
        "smtp", cfg.SMTP.Enabled(),
    )

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    db := &data.PoolWrapper{}
    err = db.CreatePool(cfg.DatabaseURL, data.PoolOptions{
        MaxConns:        cfg.DBMaxConns,
        MaxConnIdleTime: cfg.DBMaxConnIdleTime,
        ConnectTimeout:  cfg.DBConnectTimeout,
    })
    if err != nil {
        // Not fatal: the server starts and database routes answer 503.
        appLogger.Error("could not create database pool", "error", err.Error())
    }
    defer db.Close()

    store, closeStore := newRateLimitStore(ctx, cfg, appLogger)
    defer closeStore()

    app, err := newApplication(cfg, appLogger, db, store)
    if err != nil {
        appLogger.Error("failed to create application", "error", err.Error())
        return err
    }

    db.ConnectAsync(ctx, appLogger, cfg.DBRetryInterval, app.setDatabaseReady)

    config.Watch(v, func(newCfg *config.Config, err error) {
        if err != nil {
            app.logger.Warn("ignoring invalid configuration change", "error", err.Error())
            return
        }

        app.limiterEnabled.Store(newCfg.Limiter.Enabled)
        app.logger.Info("configuration reloaded", "limiter_enabled", newCfg.Limiter.Enabled)
    })

    err = app.serve(ctx)
    if err != nil {
        appLogger.Error("server stopped unexpectedly", "error", err.Error())
    }

    return err
}

// newRateLimitStore returns the shared Redis store when REDIS_ADDR is set, and an
// in-memory store otherwise or when Redis cannot be reached.
func newRateLimitStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ratelimit.Store, func()) {
    if cfg.Redis.Addr != "" {
        store, err := ratelimit.NewRedisStore(ctx, ratelimit.RedisConfig{
            Addr:     cfg.Redis.Addr,
            Password: cfg.Redis.Password,
            DB:       cfg.Redis.DB,
        })
        if err == nil {
            logger.Info("rate limit counters stored in redis", "addr", cfg.Redis.Addr)
            return store, func() {
                if err := store.Close(); err != nil {
                    logger.Error("failed to close redis client", "error", err.Error())
                }
            }
        }

        logger.Error("falling back to in-memory rate limit counters", "error", err.Error())
    }

    store := ratelimit.NewMemoryStore()

    idle := max(cfg.Limiter.APIWindow, cfg.Limiter.LoginWindow)
    go store.RunJanitor(ctx, time.Minute, idle)

    return store, func() {}
}

func migrate(envFile string, stderr io.Writer) error {
    cfg, err := loadConfig(viper.New(), envFile, stderr)
    if err != nil {
        return err
    }

    appLogger := logger.New(logger.ParseLevel(cfg.LogLevel), cfg.Env)

    db := &data.PoolWrapper{}
    err = db.CreatePool(cfg.DatabaseURL, data.PoolOptions{ConnectTimeout: cfg.DBConnectTimeout})
    if err != nil {
        appLogger.Error("could not create database pool", "error", err.Error())
        return err
    }
    defer db.Close()

    ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
    defer cancel()

    err = data.Migrate(ctx, db)
    if err != nil {
        appLogger.Error("migration failed", "error", err.Error())
        return err
    }

    appLogger.Info("database migrations applied")

    return nil
}
