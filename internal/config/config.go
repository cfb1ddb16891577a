// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/iwvelando/loan-origination/internal/logging"
	"github.com/iwvelando/loan-origination/pkg/constants"
	"github.com/iwvelando/loan-origination/pkg/loans"
	"github.com/iwvelando/loan-origination/pkg/risk"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for loan-origination.
type Configuration struct {
	Logging logging.Config `mapstructure:"logging" yaml:"logging,omitempty"`
	Output  OutputConfig   `mapstructure:"output" yaml:"output,omitempty"`
	Lending LendingConfig  `mapstructure:"lending" yaml:"lending,omitempty"`
	Server  ServerConfig   `mapstructure:"server" yaml:"server,omitempty"`
	Redis   RedisConfig    `mapstructure:"redis" yaml:"redis,omitempty"`
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json, yaml
}

// LendingConfig holds the product terms applied to every quote.
type LendingConfig struct {
	AnnualInterestRate float64         `mapstructure:"annualInterestRate" yaml:"annualInterestRate"`
	MinPrincipal       float64         `mapstructure:"minPrincipal" yaml:"minPrincipal"`
	MaxPrincipal       float64         `mapstructure:"maxPrincipal" yaml:"maxPrincipal"`
	MinTermMonths      int             `mapstructure:"minTermMonths" yaml:"minTermMonths"`
	MaxTermMonths      int             `mapstructure:"maxTermMonths" yaml:"maxTermMonths"`
	CenturyPivot       int             `mapstructure:"centuryPivot" yaml:"centuryPivot"`
	Risk               risk.Thresholds `mapstructure:"risk" yaml:"risk"`
}

// ServerConfig defines runtime parameters for the HTTP server.
type ServerConfig struct {
	Address           string          `mapstructure:"address" yaml:"address"`
	MaxBodySize       string          `mapstructure:"maxBodySize" yaml:"maxBodySize"`
	RateLimit         RateLimitConfig `mapstructure:"rateLimit" yaml:"rateLimit"`
	TrustProxyHeaders bool            `mapstructure:"trustProxyHeaders" yaml:"trustProxyHeaders"`
	ShutdownTimeout   time.Duration   `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout"`
}

// RateLimitConfig is the per-client token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64       `mapstructure:"requestsPerSecond" yaml:"requestsPerSecond"`
	Burst             int           `mapstructure:"burst" yaml:"burst"`
	IdleTTL           time.Duration `mapstructure:"idleTTL" yaml:"idleTTL"`
}

// RedisConfig selects and configures the Redis hand-off backend.
type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	Address   string        `mapstructure:"address" yaml:"address"`
	Password  string        `mapstructure:"password" yaml:"password,omitempty"`
	DB        int           `mapstructure:"db" yaml:"db"`
	KeyPrefix string        `mapstructure:"keyPrefix" yaml:"keyPrefix"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Environment variables prefixed with LOAN_ override
// file values, e.g. LOAN_LENDING_ANNUALINTERESTRATE. A missing file yields
// the defaults.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file, %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r on top of the
// defaults.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so every
	// key gets a default.
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("logging.maxSizeMB", 100)
	v.SetDefault("logging.maxBackups", 3)
	v.SetDefault("logging.maxAgeDays", 28)

	v.SetDefault("output.format", constants.OutputFormatPretty)

	v.SetDefault("lending.annualInterestRate", constants.DefaultAnnualInterestRate)
	v.SetDefault("lending.minPrincipal", constants.DefaultMinPrincipal)
	v.SetDefault("lending.maxPrincipal", constants.DefaultMaxPrincipal)
	v.SetDefault("lending.minTermMonths", constants.DefaultMinTermMonths)
	v.SetDefault("lending.maxTermMonths", constants.DefaultMaxTermMonths)
	v.SetDefault("lending.centuryPivot", constants.DefaultCenturyPivot)
	v.SetDefault("lending.risk.highDebtToIncome", constants.DefaultHighRiskDebtToIncome)
	v.SetDefault("lending.risk.mediumDebtToIncome", constants.DefaultMediumRiskDebtToIncome)
	v.SetDefault("lending.risk.mediumAffordability", constants.DefaultMediumRiskAffordability)

	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxBodySize", fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes))
	v.SetDefault("server.rateLimit.requestsPerSecond", constants.DefaultRateLimitPerSecond)
	v.SetDefault("server.rateLimit.burst", constants.DefaultRateLimitBurst)
	v.SetDefault("server.rateLimit.idleTTL", time.Duration(constants.DefaultRateLimitIdleMinutes)*time.Minute)
	v.SetDefault("server.trustProxyHeaders", false)
	v.SetDefault("server.shutdownTimeout", time.Duration(constants.DefaultShutdownTimeoutSeconds)*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", constants.DefaultRedisAddress)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.keyPrefix", constants.DefaultRedisKeyPrefix)
	v.SetDefault("redis.ttl", time.Duration(constants.DefaultHandoffTTLHours)*time.Hour)

	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Configuration) Validate() error {
	l := c.Lending
	if l.AnnualInterestRate < 0 {
		return fmt.Errorf("lending.annualInterestRate must not be negative, got %.2f", l.AnnualInterestRate)
	}
	if l.MinPrincipal < 0 || (l.MaxPrincipal > 0 && l.MinPrincipal > l.MaxPrincipal) {
		return fmt.Errorf("lending principal bounds are inconsistent: min %.2f, max %.2f", l.MinPrincipal, l.MaxPrincipal)
	}
	if l.MinTermMonths < 1 {
		return fmt.Errorf("lending.minTermMonths must be at least 1, got %d", l.MinTermMonths)
	}
	if l.MaxTermMonths > 0 && l.MaxTermMonths < l.MinTermMonths {
		return fmt.Errorf("lending term bounds are inconsistent: min %d, max %d", l.MinTermMonths, l.MaxTermMonths)
	}
	if l.CenturyPivot < 0 || l.CenturyPivot > 99 {
		return fmt.Errorf("lending.centuryPivot must be between 0 and 99, got %d", l.CenturyPivot)
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when redis is enabled")
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	return c.ValidateConfigurationAt(time.Now())
}

// ValidateConfigurationAt returns warnings relative to the given time.
func (c *Configuration) ValidateConfigurationAt(now time.Time) []string {
	var warnings []string

	if yy := now.Year() % 100; c.Lending.CenturyPivot < yy {
		warnings = append(warnings, fmt.Sprintf(
			"century pivot %02d is behind the current year %d: ID numbers with birth years %02d-%02d resolve to the 1900s",
			c.Lending.CenturyPivot, now.Year(), c.Lending.CenturyPivot+1, yy))
	}

	r := c.Lending.Risk
	if r.MediumDebtToIncome > r.HighDebtToIncome {
		warnings = append(warnings, fmt.Sprintf(
			"medium debt-to-income threshold %.2f is above the high threshold %.2f; no application will be rated medium on that ratio",
			r.MediumDebtToIncome, r.HighDebtToIncome))
	}
	if r.HighDebtToIncome <= 0 {
		warnings = append(warnings, "high debt-to-income threshold is not positive; every application will be rated high")
	}

	if c.Lending.AnnualInterestRate == 0 {
		warnings = append(warnings, "annual interest rate is 0%; quotes carry fees only")
	}

	if c.Redis.Enabled && c.Redis.TTL <= 0 {
		warnings = append(warnings, "redis.ttl is not positive; hand-off records will never expire")
	}

	return warnings
}

// Limits returns the quote bounds configured for the lending product.
func (c *Configuration) Limits() loans.Limits {
	return loans.Limits{
		MinPrincipal:  c.Lending.MinPrincipal,
		MaxPrincipal:  c.Lending.MaxPrincipal,
		MinTermMonths: c.Lending.MinTermMonths,
		MaxTermMonths: c.Lending.MaxTermMonths,
	}
}

// Thresholds returns the configured risk band limits.
func (c *Configuration) Thresholds() risk.Thresholds {
	return c.Lending.Risk
}
