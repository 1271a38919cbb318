package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func clearEnv(t *testing.T, keys ...string) {
    t.Helper()

    for _, key := range keys {
        t.Setenv(key, "")
    }
}

func TestLoadConfigReportsAllMissingVariables(t *testing.T) {
    clearEnv(t, Required...)

    var cfg Config
    err := LoadConfig(viper.New(), "", &cfg)

    var missingErr *MissingEnvError
    if !errors.As(err, &missingErr) {
        t.Fatalf("expected *MissingEnvError, got %v", err)
    }
    if !reflect.DeepEqual(missingErr.Names, Required) {
        t.Errorf("got missing %v, want %v", missingErr.Names, Required)
    }

    want := "Missing environment variables: DATABASE_URL, JWT_SECRET, PORT"
    if missingErr.Error() != want {
        t.Errorf("got message %q, want %q", missingErr.Error(), want)
    }
}

func TestLoadConfigReportsSingleMissingVariable(t *testing.T) {
    t.Setenv("DATABASE_URL", "postgres://exams@localhost/exams")
    t.Setenv("JWT_SECRET", "")
    t.Setenv("PORT", "5000")

    var cfg Config
    err := LoadConfig(viper.New(), "", &cfg)

    var missingErr *MissingEnvError
    if !errors.As(err, &missingErr) {
        t.Fatalf("expected *MissingEnvError, got %v", err)
    }
    if len(missingErr.Names) != 1 || missingErr.Names[0] != "JWT_SECRET" {
        t.Errorf("got missing %v, want [JWT_SECRET]", missingErr.Names)
    }
}

func TestLoadConfigDefaults(t *testing.T) {
    t.Setenv("DATABASE_URL", "postgres://exams@localhost/exams")
    t.Setenv("JWT_SECRET", "secret")
    t.Setenv("PORT", "5000")
    clearEnv(t, "APP_ENV", "CORS_ORIGIN", "MAX_BODY_BYTES", "API_LIMIT_MAX", "API_LIMIT_WINDOW",
        "LOGIN_LIMIT_MAX", "LOGIN_LIMIT_WINDOW", "LIMITER_ENABLED", "REDIS_ADDR", "TRUSTED_PROXIES")

    var cfg Config
    if err := LoadConfig(viper.New(), "", &cfg); err != nil {
        t.Fatalf("unexpected error: %v", err)
    }

    if cfg.Port != 5000 {
        t.Errorf("Port = %d, want 5000", cfg.Port)
    }
    if cfg.Env != "development" || !cfg.VerboseErrors() {
        t.Errorf("Env = %q, VerboseErrors = %v", cfg.Env, cfg.VerboseErrors())
    }
    if cfg.CORSOrigin != "http://localhost:5173" {
        t.Errorf("CORSOrigin = %q", cfg.CORSOrigin)
    }
    if cfg.MaxBodyBytes != 10<<20 {
        t.Errorf("MaxBodyBytes = %d, want 10MB", cfg.MaxBodyBytes)
    }

    wantLimiter := RateLimiter{
        Enabled:     true,
        APIMax:      100,
        APIWindow:   15 * time.Minute,
        LoginMax:    5,
        LoginWindow: 15 * time.Minute,
    }
    if len(cfg.Limiter.TrustedProxies) != 0 {
        t.Errorf("TrustedProxies = %v, want none", cfg.Limiter.TrustedProxies)
    }
    gotLimiter := cfg.Limiter
    gotLimiter.TrustedProxies = nil
    if !reflect.DeepEqual(gotLimiter, wantLimiter) {
        t.Errorf("Limiter = %+v, want %+v", gotLimiter, wantLimiter)
    }
    if cfg.Redis.Addr != "" {
        t.Errorf("Redis.Addr = %q, want empty", cfg.Redis.Addr)
    }
    if cfg.LoadTime.IsZero() {
        t.Error("LoadTime not set")
    }
}

func TestLoadConfigEnvFile(t *testing.T) {
    clearEnv(t, append(Required, "API_LIMIT_MAX", "APP_ENV")...)

    path := filepath.Join(t.TempDir(), ".env")
    content := "DATABASE_URL=postgres://exams@db/exams\nJWT_SECRET=from-file\nPORT=4000\nAPI_LIMIT_MAX=50\nAPP_ENV=production\n"
    if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
        t.Fatal(err)
    }

    t.Setenv("PORT", "4100")

    var cfg Config
    if err := LoadConfig(viper.New(), path, &cfg); err != nil {
        t.Fatalf("unexpected error: %v", err)
    }

    if cfg.JWTSecret != "from-file" {
        t.Errorf("JWTSecret = %q, want value from file", cfg.JWTSecret)
    }
    if cfg.Port != 4100 {
        t.Errorf("Port = %d, environment should win over the file", cfg.Port)
    }
    if cfg.Limiter.APIMax != 50 {
        t.Errorf("APIMax = %d, want 50", cfg.Limiter.APIMax)
    }
    if cfg.VerboseErrors() {
        t.Error("production should not expose raw errors")
    }
}

func TestLoadConfigMissingEnvFileIsIgnored(t *testing.T) {
    t.Setenv("DATABASE_URL", "postgres://exams@localhost/exams")
    t.Setenv("JWT_SECRET", "secret")
    t.Setenv("PORT", "5000")

    var cfg Config
    err := LoadConfig(viper.New(), filepath.Join(t.TempDir(), "absent.env"), &cfg)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
}

func TestLoadConfigValidation(t *testing.T) {
    tests := []struct {
        name string
        key  string
        val  string
    }{
        {"port out of range", "PORT", "70000"},
        {"unknown environment", "APP_ENV", "qa"},
        {"zero login limit", "LOGIN_LIMIT_MAX", "0"},
        {"bad trusted proxy", "TRUSTED_PROXIES", "10.0.0.0/8,not-an-ip"},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            t.Setenv("DATABASE_URL", "postgres://exams@localhost/exams")
            t.Setenv("JWT_SECRET", "secret")
            t.Setenv("PORT", "5000")
            t.Setenv(tt.key, tt.val)

            var cfg Config
            err := LoadConfig(viper.New(), "", &cfg)
            if err == nil {
                t.Fatal("expected validation error")
            }

            var missingErr *MissingEnvError
            if errors.As(err, &missingErr) {
                t.Fatalf("expected validation error, got %v", err)
            }
        })
    }
}

func TestLoadConfigTrustedProxies(t *testing.T) {
    t.Setenv("DATABASE_URL", "postgres://exams@localhost/exams")
    t.Setenv("JWT_SECRET", "secret")
    t.Setenv("PORT", "5000")
    t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.10,::ffff:198.51.100.1")

    var cfg Config
    if err := LoadConfig(viper.New(), "", &cfg); err != nil {
        t.Fatalf("unexpected error: %v", err)
    }

    prefixes, err := cfg.Limiter.TrustedProxyPrefixes()
    if err != nil {
        t.Fatal(err)
    }

    want := []string{"10.0.0.0/8", "192.0.2.10/32", "198.51.100.1/32"}
    if len(prefixes) != len(want) {
        t.Fatalf("got %d prefixes %v; want %v", len(prefixes), prefixes, want)
    }
    for i, p := range prefixes {
        if p.String() != want[i] {
            t.Errorf("prefix %d = %s, want %s", i, p, want[i])
        }
    }
}
