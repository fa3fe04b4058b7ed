package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

// Load reads ~/.codequest/config.yaml and secrets, then overlays CODEQUEST_*
// environment variables. A .env file in the working directory, when present,
// is loaded first; it never overrides variables already set.
func Load() (*LocalConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := LoadLocalConfig()
	if err != nil {
		return nil, err
	}

	ApplyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto cfg
func ApplyEnv(cfg *LocalConfig) {
	cfg.Daemon.Port = getEnvInt("CODEQUEST_PORT", cfg.Daemon.Port)
	cfg.Daemon.Bind = getEnv("CODEQUEST_BIND", cfg.Daemon.Bind)
	cfg.Daemon.LogLevel = getEnv("CODEQUEST_LOG_LEVEL", cfg.Daemon.LogLevel)

	cfg.Catalog.Source = getEnv("CODEQUEST_CATALOG_SOURCE", cfg.Catalog.Source)
	cfg.Catalog.Path = getEnv("CODEQUEST_COURSES_PATH", cfg.Catalog.Path)
	cfg.Catalog.SQLitePath = getEnv("CODEQUEST_SQLITE_PATH", cfg.Catalog.SQLitePath)
	cfg.Catalog.JSONPath = getEnv("CODEQUEST_JSON_PATH", cfg.Catalog.JSONPath)
	cfg.Catalog.PostgresDSN = getEnv("CODEQUEST_DATABASE_URL", cfg.Catalog.PostgresDSN)

	cfg.Checker.Locale = getEnv("CODEQUEST_LOCALE", cfg.Checker.Locale)

	cfg.RateLimit.Enabled = getEnvBool("CODEQUEST_RATE_LIMIT", cfg.RateLimit.Enabled)
	cfg.RateLimit.Rate = getEnvInt("CODEQUEST_RATE_LIMIT_RATE", cfg.RateLimit.Rate)
	cfg.RateLimit.Burst = getEnvInt("CODEQUEST_RATE_LIMIT_BURST", cfg.RateLimit.Burst)
	if proxies := os.Getenv("CODEQUEST_TRUSTED_PROXIES"); proxies != "" {
		cfg.RateLimit.TrustedProxies = strings.Split(proxies, ",")
	}

	cfg.Queue.URL = getEnv("CODEQUEST_RABBITMQ_URL", cfg.Queue.URL)
	cfg.Queue.Workers = getEnvInt("CODEQUEST_WORKERS", cfg.Queue.Workers)
	cfg.Queue.Prefetch = getEnvInt("CODEQUEST_PREFETCH", cfg.Queue.Prefetch)
}

// Validate reports every invalid setting at once
func (c *LocalConfig) Validate() error {
	var result *multierror.Error

	if c.Daemon.Port <= 0 || c.Daemon.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("daemon.port %d out of range", c.Daemon.Port))
	}

	switch c.Catalog.Source {
	case SourceYAML:
		if c.Catalog.Path == "" {
			result = multierror.Append(result, errors.New("catalog.path is required for the yaml source"))
		}
	case SourceSQLite, SourceJSON:
	case SourcePostgres:
		if c.Catalog.PostgresDSN == "" {
			result = multierror.Append(result, errors.New("postgres catalog needs a DSN (secrets.yaml postgres_dsn or CODEQUEST_DATABASE_URL)"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("catalog.source %q must be yaml, json, sqlite or postgres", c.Catalog.Source))
	}

	if c.RateLimit.Enabled && c.RateLimit.Rate <= 0 {
		result = multierror.Append(result, errors.New("rate_limit.rate must be positive when enabled"))
	}
	if _, err := ParseTrustedProxies(c.RateLimit.TrustedProxies); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// ParseTrustedProxies turns rate_limit.trusted_proxies entries into prefixes.
// A bare address is a single-host prefix.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("rate_limit.trusted_proxies: %w", err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("rate_limit.trusted_proxies: %w", err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
