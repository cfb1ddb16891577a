// Package constants provides shared constants for the loan-origination application.
package constants

// DateLayout is the format used when a birth date is rendered in messages
// and output.
const DateLayout = "2006-01-02"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// CurrencySymbol prefixes formatted ZAR amounts
	CurrencySymbol = "R"
)

// Fee schedule constants. These are business rules, not derived values.
const (
	// InitiationFeeBase is the fixed part of the once-off initiation fee
	InitiationFeeBase = 1050.0

	// InitiationFeeRate is the share of the principal added to the initiation fee
	InitiationFeeRate = 0.0175

	// InitiationFeeCap is the maximum initiation fee
	InitiationFeeCap = 5000.0

	// MonthlyServiceFee is charged every month of the term
	MonthlyServiceFee = 69.0

	// CreditLifeInsuranceRate is the monthly credit-life premium as a share of the principal
	CreditLifeInsuranceRate = 0.00175
)

// Lending defaults
const (
	// DefaultAnnualInterestRate is the fixed annual rate offered on quotes, in percent
	DefaultAnnualInterestRate = 28.75

	// DefaultMinPrincipal is the smallest loan amount accepted by the service
	DefaultMinPrincipal = 500.0

	// DefaultMaxPrincipal is the largest loan amount accepted by the service
	DefaultMaxPrincipal = 1000000.0

	// DefaultMinTermMonths is the shortest term accepted by the service
	DefaultMinTermMonths = 1

	// DefaultMaxTermMonths is the longest term accepted by the service
	DefaultMaxTermMonths = 30
)

// ID number constants
const (
	// IDNumberLength is the number of digits in a national identity number
	IDNumberLength = 13

	// DefaultCenturyPivot is the highest two-digit year mapped to the 2000s.
	// Fixed rather than relative to the current year; see DESIGN.md.
	DefaultCenturyPivot = 23

	// MinimumApplicantAge is the legal age for a credit agreement
	MinimumApplicantAge = 18

	// GenderSequenceMaleThreshold is the first gender sequence value denoting male
	GenderSequenceMaleThreshold = 5000

	// GenderSequenceMax is the largest valid gender sequence value
	GenderSequenceMax = 9999
)

// Risk assessment defaults
const (
	// DefaultHighRiskDebtToIncome is the instalment/income ratio above which an application is high risk
	DefaultHighRiskDebtToIncome = 0.40

	// DefaultMediumRiskDebtToIncome is the instalment/income ratio above which an application is medium risk
	DefaultMediumRiskDebtToIncome = 0.25

	// DefaultMediumRiskAffordability is the instalment/disposable ratio above which an application is medium risk
	DefaultMediumRiskAffordability = 0.50
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatYAML is the YAML output format
	OutputFormatYAML = "yaml"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// EnvPrefix prefixes environment variable overrides, e.g. LOAN_LENDING_ANNUALINTERESTRATE
	EnvPrefix = "LOAN"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum JSON request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// DefaultRateLimitPerSecond is the steady per-client request rate
	DefaultRateLimitPerSecond = 5.0

	// DefaultRateLimitBurst is the per-client burst size
	DefaultRateLimitBurst = 20

	// DefaultRateLimitIdleMinutes is how long an unused client bucket is kept
	DefaultRateLimitIdleMinutes = 10

	// DefaultShutdownTimeoutSeconds bounds graceful shutdown
	DefaultShutdownTimeoutSeconds = 10
)

// Redis defaults
const (
	// DefaultRedisAddress is the default Redis endpoint
	DefaultRedisAddress = "localhost:6379"

	// DefaultRedisKeyPrefix namespaces hand-off keys
	DefaultRedisKeyPrefix = "loan:handoff:"

	// DefaultHandoffTTLHours expires stale hand-off records
	DefaultHandoffTTLHours = 24
)
