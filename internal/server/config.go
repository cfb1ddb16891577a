package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/loan-origination/internal/config"
	"github.com/iwvelando/loan-origination/pkg/constants"
	"golang.org/x/time/rate"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address          string
	MaxBodySize      int64
	RateLimit        rate.Limit
	RateBurst        int
	RateLimitIdleTTL time.Duration
	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
	ShutdownTimeout   time.Duration
}

// NewConfig resolves the server section of the application configuration,
// filling defaults for anything unset.
func NewConfig(c config.ServerConfig) (Config, error) {
	cfg := Config{
		Address:           c.Address,
		RateLimit:         rate.Limit(c.RateLimit.RequestsPerSecond),
		RateBurst:         c.RateLimit.Burst,
		RateLimitIdleTTL:  c.RateLimit.IdleTTL,
		TrustProxyHeaders: c.TrustProxyHeaders,
		ShutdownTimeout:   c.ShutdownTimeout,
	}

	if cfg.Address == "" {
		cfg.Address = constants.DefaultServerAddress
	}

	size, err := ParseSize(c.MaxBodySize)
	if err != nil {
		return Config{}, err
	}
	if size <= 0 {
		size = constants.DefaultMaxBodySizeBytes
	}
	cfg.MaxBodySize = size

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = rate.Limit(constants.DefaultRateLimitPerSecond)
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = constants.DefaultRateLimitBurst
	}
	if cfg.RateLimitIdleTTL <= 0 {
		cfg.RateLimitIdleTTL = time.Duration(constants.DefaultRateLimitIdleMinutes) * time.Minute
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = time.Duration(constants.DefaultShutdownTimeoutSeconds) * time.Second
	}
	return cfg, nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxBodySizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 || (n > 0 && result/multiplier != n) {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
