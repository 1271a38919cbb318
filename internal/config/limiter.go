package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// RateLimiter contains configuration for the two rate limiting policies.
type RateLimiter struct {
    Enabled     bool          `mapstructure:"LIMITER_ENABLED"`
    APIMax      int           `mapstructure:"API_LIMIT_MAX"`
    APIWindow   time.Duration `mapstructure:"API_LIMIT_WINDOW"`
    LoginMax    int           `mapstructure:"LOGIN_LIMIT_MAX"`
    LoginWindow time.Duration `mapstructure:"LOGIN_LIMIT_WINDOW"`

    // TrustedProxies lists the peers (addresses or CIDR ranges) whose forwarding headers
    // are believed when identifying a client. Empty means clients are identified by the
    // socket address alone.
    TrustedProxies []string `mapstructure:"TRUSTED_PROXIES"`
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address becomes a single-host prefix.
func (l RateLimiter) TrustedProxyPrefixes() ([]netip.Prefix, error) {
    var prefixes []netip.Prefix

    for _, entry := range l.TrustedProxies {
        entry = strings.TrimSpace(entry)
        if entry == "" {
            continue
        }

        if strings.Contains(entry, "/") {
            prefix, err := netip.ParsePrefix(entry)
            if err != nil {
                return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", entry, err)
            }
            prefixes = append(prefixes, prefix.Masked())
            continue
        }

        addr, err := netip.ParseAddr(entry)
        if err != nil {
            return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", entry, err)
        }
        addr = addr.Unmap()
        prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
    }

    return prefixes, nil
}

func (l RateLimiter) validate() error {
    if l.APIMax < 1 || l.APIWindow <= 0 {
        return errors.New("API_LIMIT_MAX and API_LIMIT_WINDOW must be positive")
    }
    if l.LoginMax < 1 || l.LoginWindow <= 0 {
        return errors.New("LOGIN_LIMIT_MAX and LOGIN_LIMIT_WINDOW must be positive")
    }

    _, err := l.TrustedProxyPrefixes()

    return err
}

// RedisConfig holds the connection settings for the shared rate limit store. An empty Addr
// keeps the counters in process memory.
type RedisConfig struct {
    Addr     string `mapstructure:"REDIS_ADDR"`
    Password string `mapstructure:"REDIS_PASSWORD"`
    DB       int    `mapstructure:"REDIS_DB"`
}
