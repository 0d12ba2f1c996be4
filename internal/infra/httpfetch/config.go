// Package httpfetch implements the retrying HTTP fetcher: a GET with
// fixed-delay retry, optional proxy indirection, and opportunistic Brotli
// decompression.
package httpfetch

import (
	"fmt"
	"time"

	"github.com/mohamedmoataz-oacc/history4feed/internal/pkg/config"
)

// Config controls one Fetcher's retry and transport behavior.
type Config struct {
	UserAgent       string
	FollowRedirects bool
	MaxRetries      int
	RetrySleep      time.Duration
	Timeout         time.Duration
	MaxBodySize     int64
	DenyPrivateIPs  bool
}

// DefaultConfig returns sane defaults for the raw fetcher: 3 retries, 1s
// between them (the CLI's own --sleep_seconds knob governs inter-article
// pacing separately, in the enricher).
func DefaultConfig() Config {
	return Config{
		UserAgent:       "history4feed",
		FollowRedirects: true,
		MaxRetries:      3,
		RetrySleep:      1 * time.Second,
		Timeout:         30 * time.Second,
		MaxBodySize:     50 << 20, // 50MiB
		DenyPrivateIPs:  true,
	}
}

// Validate rejects nonsensical configuration before a Fetcher is built.
func (c Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("httpfetch: MaxRetries must be >= 0, got %d", c.MaxRetries)
	}
	if c.RetrySleep < 0 {
		return fmt.Errorf("httpfetch: RetrySleep must be >= 0, got %v", c.RetrySleep)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("httpfetch: Timeout must be > 0, got %v", c.Timeout)
	}
	if c.MaxBodySize <= 0 {
		return fmt.Errorf("httpfetch: MaxBodySize must be > 0, got %d", c.MaxBodySize)
	}
	return nil
}

// LoadConfigFromEnv overlays HTTP_FETCH_* environment variables onto
// DefaultConfig, falling back (with a warning, never an error) to the
// default on any unparseable value, in the style of
// internal/pkg/config.LoadEnv*.
func LoadConfigFromEnv() (Config, []string) {
	cfg := DefaultConfig()
	var warnings []string

	retries := config.LoadEnvInt("HTTP_FETCH_MAX_RETRIES", cfg.MaxRetries, func(v int) error {
		if v < 0 {
			return fmt.Errorf("must be >= 0")
		}
		return nil
	})
	cfg.MaxRetries = retries.Value.(int)
	warnings = append(warnings, retries.Warnings...)

	timeoutResult := config.LoadEnvDuration("HTTP_FETCH_TIMEOUT", cfg.Timeout)
	cfg.Timeout = timeoutResult.Value.(time.Duration)
	warnings = append(warnings, timeoutResult.Warnings...)

	retrySleepSeconds := config.LoadEnvFloat("HTTP_FETCH_RETRY_SLEEP_SECONDS", cfg.RetrySleep.Seconds())
	cfg.RetrySleep = time.Duration(retrySleepSeconds.Value.(float64) * float64(time.Second))
	warnings = append(warnings, retrySleepSeconds.Warnings...)

	followRedirects := config.LoadEnvBool("HTTP_FETCH_FOLLOW_REDIRECTS", cfg.FollowRedirects)
	cfg.FollowRedirects = followRedirects.Value.(bool)
	warnings = append(warnings, followRedirects.Warnings...)

	denyPrivateIPs := config.LoadEnvBool("HTTP_FETCH_DENY_PRIVATE_IPS", cfg.DenyPrivateIPs)
	cfg.DenyPrivateIPs = denyPrivateIPs.Value.(bool)
	warnings = append(warnings, denyPrivateIPs.Warnings...)

	userAgent := config.LoadEnvWithFallback("HTTP_FETCH_USER_AGENT", cfg.UserAgent, func(v string) error {
		if v == "" {
			return fmt.Errorf("must not be empty")
		}
		return nil
	})
	cfg.UserAgent = userAgent.Value.(string)
	warnings = append(warnings, userAgent.Warnings...)

	return cfg, warnings
}
