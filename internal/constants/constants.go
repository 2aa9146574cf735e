package constants

import "time"

// API endpoints and versions.
const (
	// DefaultBaseURL is the production Pipedrive API host.
	DefaultBaseURL = "https://api.pipedrive.com"

	// V1Prefix is the URL path prefix for v1 endpoints.
	V1Prefix = "v1"

	// V2Prefix is the URL path prefix for v2 endpoints.
	V2Prefix = "api/v2"

	// EnvAPIToken is the environment variable holding the API token.
	EnvAPIToken = "PIPEDRIVE_API_TOKEN"

	// APITokenParam is the query parameter carrying the token on v1 endpoints.
	APITokenParam = "api_token"

	// DefaultUserAgent identifies the client on the wire.
	DefaultUserAgent = "pipedrive-client/1.0"
)

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits. Retries are an explicit opt-in: a create is not
// idempotent, so nothing is retried unless the caller configures it.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between opted-in retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between opted-in retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Pagination limits.
const (
	// DefaultPageLimit is the page size sent when the caller does not set one.
	DefaultPageLimit = 100

	// MaxPageLimit is the largest page size the API accepts.
	MaxPageLimit = 500
)

// Concurrency and batching limits.
const (
	// DefaultConcurrencyLimit limits concurrent batch operations.
	DefaultConcurrencyLimit = 3

	// BufferSize is the default buffer size for streaming channels.
	BufferSize = 100
)

// Cache sizing and lifetimes.
const (
	// DefaultCacheSize is the default cache entry limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute

	// CacheMinTTL is the minimum cache time-to-live.
	CacheMinTTL = 30 * time.Second

	// MaxCacheValueSize is the maximum size for cached values (1MB).
	MaxCacheValueSize = 1024 * 1024
)

// Rate limiting. Pipedrive budgets requests per 2-second window per
// company; the default mirrors the documented Advanced-plan budget.
const (
	// DefaultRateLimitWindow is the length of the API's request budget window.
	DefaultRateLimitWindow = 2 * time.Second

	// DefaultRateLimitBudget is the number of requests allowed per window.
	DefaultRateLimitBudget = 40
)

// Circuit breaker thresholds.
const (
	// CircuitBreakerThreshold is the failure threshold for the circuit breaker.
	CircuitBreakerThreshold = 5

	// CircuitBreakerSuccessThreshold is the success threshold for the circuit breaker.
	CircuitBreakerSuccessThreshold = 2

	// CircuitBreakerTimeout is the open-state timeout for the circuit breaker.
	CircuitBreakerTimeout = 30 * time.Second
)

// Wire formats for field values.
const (
	// DatetimeFormat is the wire layout for datetime fields.
	DatetimeFormat = "2006-01-02T15:04:05.000Z"

	// DateFormat is the wire layout for date fields.
	DateFormat = "2006-01-02"

	// TimeFormat is the wire layout for time-of-day fields.
	TimeFormat = "15:04"
)

// Output format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for tabular output format.
	FormatTable = "table"
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2
)

// Circuit breaker states.
const (
	// StatusOpen marks a tripped circuit rejecting requests.
	StatusOpen = "open"

	// StatusHalfOpen marks a circuit probing whether to close again.
	StatusHalfOpen = "half-open"
)

// Rate limit response headers.
const (
	// HeaderRateLimitLimit carries the window's request budget.
	HeaderRateLimitLimit = "X-RateLimit-Limit"

	// HeaderRateLimitRemaining carries the remaining budget.
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"

	// HeaderRateLimitReset carries the seconds until the budget resets.
	HeaderRateLimitReset = "X-RateLimit-Reset"
)
