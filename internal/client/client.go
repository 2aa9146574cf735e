// Package client implements the pipedrive.Client interface: schema
// driven CRUD over both API generations, envelope decoding, and the
// optional read-through record cache.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmanprz/pipedrive-client/internal/auth"
	"github.com/jmanprz/pipedrive-client/internal/constants"
	pdhttp "github.com/jmanprz/pipedrive-client/internal/http"
	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired  = errors.New("config is required")
	ErrBaseURLRequired = errors.New("base URL is required")
)

// Client implements pipedrive.Client.
type Client struct {
	httpClient   *pdhttp.Client
	tokens       auth.TokenProvider
	baseURL      string
	logger       pipedrive.Logger
	cache        *pipedrive.CacheManager
	cacheTTL     time.Duration
	interceptors *pipedrive.InterceptorChain
}

// New creates a client from the configuration. The base URL and token
// must already be resolved; reading the environment is the
// constructor package's business.
func New(ctx context.Context, config *pipedrive.Config) (*Client, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}

	if config.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}

	tokens, err := auth.NewStaticTokenProvider(config.APIToken)
	if err != nil {
		return nil, err
	}

	httpClient := pdhttp.NewClient(config.BaseURL, httpOptions(config)...)

	client := &Client{
		httpClient:   httpClient,
		tokens:       tokens,
		baseURL:      config.BaseURL,
		logger:       config.Logger,
		interceptors: config.Interceptors,
	}

	if config.Cache != nil {
		client.cache = pipedrive.NewCacheManager(config.Cache, nil)
		client.cacheTTL = config.CacheTTL
	}

	return client, nil
}

// httpOptions builds transport options from the configuration.
func httpOptions(config *pipedrive.Config) []pdhttp.Option {
	var opts []pdhttp.Option

	if config.Logger != nil {
		opts = append(opts, pdhttp.WithLogger(config.Logger))
	}

	if config.Debug {
		opts = append(opts, pdhttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		opts = append(opts, pdhttp.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		opts = append(opts, pdhttp.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		opts = append(opts, pdhttp.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return opts
}

// Raw implements pipedrive.RawOperations.
func (c *Client) Raw(ctx context.Context, version pipedrive.Version, method, path string, query url.Values, body any) (*pipedrive.Envelope, error) {
	return c.do(ctx, version, method, path, query, body)
}

// do performs one authenticated request and decodes the envelope.
// Request interceptors run before the credential is attached, so
// hooks never observe the token.
func (c *Client) do(ctx context.Context, version pipedrive.Version, method, path string, query url.Values, body any) (*pipedrive.Envelope, error) {
	strategy := strategyFor(version)

	req := &pdhttp.Request{
		Method: method,
		Path:   strategy.Prefix() + "/" + strings.TrimPrefix(path, "/"),
		Query:  cloneValues(query),
		Body:   body,
	}

	hooked, err := c.interceptRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	strategy.Authenticate(req, token)

	resp, err := c.httpClient.Do(ctx, req)

	hookErr := c.interceptResponse(ctx, hooked, resp, err)

	if err != nil {
		return nil, err
	}

	if hookErr != nil {
		return nil, hookErr
	}

	return pipedrive.ParseEnvelope(version, resp.StatusCode, resp.Body)
}

// interceptRequest runs the configured request hooks over a view of
// the outgoing request and folds mutated headers back in.
func (c *Client) interceptRequest(ctx context.Context, req *pdhttp.Request) (*pipedrive.Request, error) {
	if c.interceptors == nil {
		return nil, nil
	}

	view := &pipedrive.Request{
		Method:  req.Method,
		Path:    req.Path,
		Headers: make(http.Header, len(req.Headers)),
	}
	for key, value := range req.Headers {
		view.Headers.Set(key, value)
	}

	err := c.interceptors.ExecuteRequestInterceptors(ctx, view)
	if err != nil {
		return nil, err
	}

	for key, values := range view.Headers {
		if len(values) == 0 {
			continue
		}

		if req.Headers == nil {
			req.Headers = make(map[string]string)
		}

		req.Headers[key] = values[len(values)-1]
	}

	return view, nil
}

// interceptResponse runs the configured response hooks. Transport
// failures still reach the hooks so breakers and metrics count them.
func (c *Client) interceptResponse(ctx context.Context, view *pipedrive.Request, resp *pdhttp.Response, reqErr error) error {
	if c.interceptors == nil {
		return nil
	}

	hookResp := &pipedrive.Response{Error: reqErr}
	if resp != nil {
		hookResp.StatusCode = resp.StatusCode
		hookResp.Headers = resp.Headers
		hookResp.Body = resp.Body
	}

	return c.interceptors.ExecuteResponseInterceptors(ctx, view, hookResp)
}

// entityPath is the collection path of a schema, e.g. "deals".
func entityPath(schema *pipedrive.Schema) string {
	return schema.EntityName()
}

// recordPath is the path of one record, e.g. "deals/42".
func recordPath(schema *pipedrive.Schema, id string) string {
	return schema.EntityName() + "/" + id
}

// recordCacheKey identifies one record's cached response. The token
// never participates in the key.
func (c *Client) recordCacheKey(schema *pipedrive.Schema, id string) string {
	strategy := strategyFor(schema.Version())

	return c.cache.GetCacheKey("GET", strategy.Prefix()+"/"+recordPath(schema, id), nil)
}

// cachedRecord loads a record's wire map from the cache.
func (c *Client) cachedRecord(ctx context.Context, schema *pipedrive.Schema, id string) (map[string]any, bool) {
	if c.cache == nil {
		return nil, false
	}

	data, err := c.cache.Get(ctx, c.recordCacheKey(schema, id))
	if err != nil {
		return nil, false
	}

	record, err := decodeRecord(data)
	if err != nil {
		return nil, false
	}

	return record, true
}

// storeRecord caches a record's raw JSON.
func (c *Client) storeRecord(ctx context.Context, schema *pipedrive.Schema, id string, data []byte) {
	if c.cache == nil || len(data) == 0 {
		return
	}

	err := c.cache.Set(ctx, c.recordCacheKey(schema, id), data, c.cacheTTL)
	if err != nil && c.logger != nil {
		c.logger.Warn("failed to cache record", map[string]interface{}{
			"entity": schema.EntityName(),
			"id":     id,
			"error":  err.Error(),
		})
	}
}

// invalidateRecord drops a record from the cache after a write.
func (c *Client) invalidateRecord(ctx context.Context, schema *pipedrive.Schema, id string) {
	if c.cache == nil || id == "" {
		return
	}

	_ = c.cache.Delete(ctx, c.recordCacheKey(schema, id))
}

// decodeRecord parses raw record JSON preserving number precision.
func decodeRecord(data []byte) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var record map[string]any

	err := decoder.Decode(&record)
	if err != nil {
		return nil, &pipedrive.TransportError{Op: "decode cached record", Err: err}
	}

	return record, nil
}

func cloneValues(values url.Values) url.Values {
	cloned := url.Values{}

	for key, items := range values {
		for _, item := range items {
			cloned.Add(key, item)
		}
	}

	return cloned
}
