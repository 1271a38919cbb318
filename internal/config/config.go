package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Required lists the environment variables the server refuses to start without.
var Required = []string{"DATABASE_URL", "JWT_SECRET", "PORT"}

var validEnvs = []string{"development", "staging", "production"}

// Config stores the server configuration. LimiterEnabled can be dynamically reloaded at
// runtime when an env file is in use.
type Config struct {
    DatabaseURL       string        `mapstructure:"DATABASE_URL"`
    JWTSecret         string        `mapstructure:"JWT_SECRET"`
    Port              int           `mapstructure:"PORT"`
    Env               string        `mapstructure:"APP_ENV"`
    LogLevel          string        `mapstructure:"LOG_LEVEL"`
    CORSOrigin        string        `mapstructure:"CORS_ORIGIN"`
    MaxBodyBytes      int64         `mapstructure:"MAX_BODY_BYTES"`
    TokenTTL          time.Duration `mapstructure:"TOKEN_TTL"`
    ShutdownTimeout   time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
    DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
    DBMaxConnIdleTime time.Duration `mapstructure:"DB_MAX_CONN_IDLE_TIME"`
    DBConnectTimeout  time.Duration `mapstructure:"DB_CONNECT_TIMEOUT"`
    DBRetryInterval   time.Duration `mapstructure:"DB_RETRY_INTERVAL"`
    Limiter           RateLimiter   `mapstructure:",squash"`
    Redis             RedisConfig   `mapstructure:",squash"`
    SMTP              SMTPConfig    `mapstructure:",squash"`
    LoadTime          time.Time     `mapstructure:"-"`
}

// SMTPConfig contains configuration for sending emails.
type SMTPConfig struct {
    Username      string `mapstructure:"SMTP_USERNAME"`
    Password      string `mapstructure:"SMTP_PASSWORD"`
    AuthAddress   string `mapstructure:"SMTP_AUTH_ADDRESS"`
    ServerAddress string `mapstructure:"SMTP_SERVER_ADDRESS"`
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (c SMTPConfig) Enabled() bool {
    return c.Username != "" && c.ServerAddress != ""
}

// MissingEnvError is returned when one or more required environment variables are absent.
type MissingEnvError struct {
    Names []string
}

func (e *MissingEnvError) Error() string {
    return "Missing environment variables: " + strings.Join(e.Names, ", ")
}

// VerboseErrors reports whether raw error messages may be sent to clients.
func (c *Config) VerboseErrors() bool {
    return c.Env != "production"
}

// Address returns the listen address for the HTTP server.
func (c *Config) Address() string {
    return fmt.Sprintf(":%d", c.Port)
}

func setDefaults(v *viper.Viper) {
    v.SetDefault("APP_ENV", "development")
    v.SetDefault("LOG_LEVEL", "info")
    v.SetDefault("CORS_ORIGIN", "http://localhost:5173")
    v.SetDefault("MAX_BODY_BYTES", 10<<20)
    v.SetDefault("TOKEN_TTL", "24h")
    v.SetDefault("SHUTDOWN_TIMEOUT", "30s")
    v.SetDefault("DB_MAX_CONNS", 25)
    v.SetDefault("DB_MAX_CONN_IDLE_TIME", "15m")
    v.SetDefault("DB_CONNECT_TIMEOUT", "5s")
    v.SetDefault("DB_RETRY_INTERVAL", "10s")

    v.SetDefault("LIMITER_ENABLED", true)
    v.SetDefault("API_LIMIT_MAX", 100)
    v.SetDefault("API_LIMIT_WINDOW", "15m")
    v.SetDefault("LOGIN_LIMIT_MAX", 5)
    v.SetDefault("LOGIN_LIMIT_WINDOW", "15m")
    v.SetDefault("TRUSTED_PROXIES", "")

    v.SetDefault("REDIS_ADDR", "")
    v.SetDefault("REDIS_PASSWORD", "")
    v.SetDefault("REDIS_DB", 0)

    v.SetDefault("SMTP_USERNAME", "")
    v.SetDefault("SMTP_PASSWORD", "")
    v.SetDefault("SMTP_AUTH_ADDRESS", "")
    v.SetDefault("SMTP_SERVER_ADDRESS", "")
}

// LoadConfig loads configuration from the process environment into cfg. If envFile names an
// existing dotenv file it is read first; real environment variables take precedence over it.
// A missing envFile is not an error.
func LoadConfig(v *viper.Viper, envFile string, cfg *Config) error {
    setDefaults(v)

    for _, key := range Required {
        // Required keys have no default, so they must be bound explicitly for Unmarshal to
        // see them.
        if err := v.BindEnv(key); err != nil {
            return err
        }
    }

    v.AutomaticEnv()

    if envFile != "" {
        _, err := os.Stat(envFile)
        switch {
        case err == nil:
            v.SetConfigFile(envFile)
            v.SetConfigType("env")

            if err := v.ReadInConfig(); err != nil {
                return fmt.Errorf("read env file %s: %w", envFile, err)
            }
        case !errors.Is(err, fs.ErrNotExist):
            return err
        }
    }

    var missing []string
    for _, key := range Required {
        if strings.TrimSpace(v.GetString(key)) == "" {
            missing = append(missing, key)
        }
    }
    if len(missing) > 0 {
        return &MissingEnvError{Names: missing}
    }

    err := v.Unmarshal(cfg)
    if err != nil {
        return err
    }

    err = cfg.validate()
    if err != nil {
        return err
    }

    cfg.LoadTime = time.Now()

    return nil
}

func (c *Config) validate() error {
    if c.Port < 1 || c.Port > 65535 {
        return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
    }

    valid := false
    for _, e := range validEnvs {
        if c.Env == e {
            valid = true
            break
        }
    }
    if !valid {
        return fmt.Errorf("invalid APP_ENV %q (development|staging|production)", c.Env)
    }

    if c.MaxBodyBytes <= 0 {
        return errors.New("MAX_BODY_BYTES must be greater than 0")
    }
    if c.DBMaxConns < 1 {
        return errors.New("DB_MAX_CONNS must be at least 1")
    }

    return c.Limiter.validate()
}

// Watch reloads the configuration whenever the env file in use changes and passes the
// result to onChange. It does nothing when no file was read.
func Watch(v *viper.Viper, onChange func(cfg *Config, err error)) {
    if v.ConfigFileUsed() == "" {
        return
    }

    v.OnConfigChange(func(e fsnotify.Event) {
        if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
            return
        }

        var cfg Config
        err := v.Unmarshal(&cfg)
        if err == nil {
            err = cfg.validate()
        }

        cfg.LoadTime = time.Now()
        onChange(&cfg, err)
    })

    v.WatchConfig()
}
