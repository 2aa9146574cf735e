package pipedrive

import (
	"context"
	"net/url"
	"time"
)

// EntityOperations is the schema-driven persistence surface. Every
// method routes through the version declared by the schema: v1
// endpoints use offset paging, PUT updates and the api_token query
// parameter; v2 endpoints use cursor paging, PATCH updates and a
// Bearer token header.
type EntityOperations interface {
	// Fetch loads one record by identifier. A missing record fails
	// with *NotFoundError.
	Fetch(ctx context.Context, schema *Schema, id string) (*Entity, error)

	// ListPage loads a single page of records. The zero PageToken
	// starts at the beginning; Page.Next continues the traversal
	// while Page.More is true.
	ListPage(ctx context.Context, schema *Schema, params *ListParams, token PageToken) (*Page, error)

	// All walks every page and returns the concatenated records.
	All(ctx context.Context, schema *Schema, params *ListParams) ([]*Entity, error)

	// Save synchronizes the instance: NEW instances are created with
	// every set writable field, PERSISTED ones update only dirty
	// fields, and a clean PERSISTED instance performs no HTTP call
	// unless WithForce is given. On success the instance is PERSISTED
	// and clean.
	Save(ctx context.Context, model Model, opts ...SaveOption) (*SaveResult, error)

	// Refresh reloads the instance from the API, discarding local
	// modifications.
	Refresh(ctx context.Context, model Model) error

	// Delete removes the remote record and moves the instance to
	// DELETED. A record the API reports as already deleted is treated
	// as success.
	Delete(ctx context.Context, model Model) error

	// Exists reports whether a record with the identifier exists,
	// translating *NotFoundError into false.
	Exists(ctx context.Context, schema *Schema, id string) (bool, error)

	// BatchDelete removes several records in one request and reports
	// the per-identifier outcome; identifiers the API rejected are
	// returned as failed rather than failing the call.
	BatchDelete(ctx context.Context, schema *Schema, ids ...string) (*BatchDeleteResult, error)
}

// RawOperations is the escape hatch beneath the mapped surface.
type RawOperations interface {
	// Raw performs one request against a version-prefixed path (e.g.
	// "deals/1/followers") and returns the decoded envelope. Non-2xx
	// statuses and success=false bodies surface as *APIError.
	Raw(ctx context.Context, version Version, method, path string, query url.Values, body any) (*Envelope, error)
}

// Client is the full API client surface. Build one with the
// constructors in pkg/pdclient.
type Client interface {
	EntityOperations
	RawOperations
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a
// pipedrive.Client.
//
// # Authentication
//
// APIToken is the only credential. The token never leaves the process:
// it is sent as the api_token query parameter on v1 requests and as an
// Authorization Bearer header on v2 requests, and the library never
// writes it anywhere. pdclient.NewFromEnv is the single place the
// PIPEDRIVE_API_TOKEN environment variable is consulted.
//
// # Timeouts and retries
//
// Per-request deadlines are controlled by the context passed to client
// methods; HTTPTimeout only bounds the underlying connection. The
// transport performs no retries unless RetryMax is set above zero,
// since create requests are not idempotent.
type Config struct {
	// Required fields
	// BaseURL: base URL of the API (e.g. "https://api.pipedrive.com"
	// or a company subdomain). pdclient.New normalizes this value by
	// trimming a trailing slash and adding "https://" when no scheme
	// is present.
	BaseURL string
	// APIToken: the account's API token.
	APIToken string

	// Optional configurations
	// HTTPTimeout: optional default HTTP timeout where supported.
	HTTPTimeout time.Duration
	// RetryMax: maximum number of retries for transient failures
	// (>=500, 429, and connection errors). Zero means no retries.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries. Applied when RetryMax > 0.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries. Applied when RetryMax > 0.
	RetryWaitMax time.Duration
	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer and helpers.
	Logger Logger
	// UserAgent: overrides the default User-Agent header sent by the client.
	UserAgent string
	// Cache: optional read-through cache for Fetch responses. Writes
	// and deletes invalidate the cached record.
	Cache Cache
	// CacheTTL: lifetime of cached records when Cache is set. Zero
	// uses the cache default.
	CacheTTL time.Duration
	// Interceptors: optional request/response hooks run around every
	// HTTP call. Request hooks run before the credential is attached,
	// so they never observe the token.
	Interceptors *InterceptorChain
}

// SaveOptions collects the optional behaviors of Save.
type SaveOptions struct {
	// Force sends every set writable field even when nothing is
	// dirty, overwriting the remote record.
	Force bool
}

// SaveOption configures one Save call.
type SaveOption func(*SaveOptions)

// WithForce makes Save write all set writable fields regardless of
// dirty state.
func WithForce() SaveOption {
	return func(o *SaveOptions) {
		o.Force = true
	}
}

// NewSaveOptions applies the options over the defaults.
func NewSaveOptions(opts ...SaveOption) *SaveOptions {
	options := &SaveOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}
