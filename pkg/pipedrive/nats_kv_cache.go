package pipedrive

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/jmanprz/pipedrive-client/internal/constants"
)

// NATSKVConfig configures the NATS JetStream key-value backend, which
// lets several processes share one response cache.
type NATSKVConfig struct {
	// URL is the NATS server URL, e.g. "nats://localhost:4222".
	URL string

	// Bucket is the KV bucket name. Created when absent.
	Bucket string

	// TTL is the bucket-level entry lifetime applied when the bucket
	// is created. Zero keeps entries until eviction.
	TTL time.Duration

	// CredsFile optionally points at a NATS credentials file.
	CredsFile string

	// Username and Password optionally authenticate the connection.
	Username string
	Password string

	// ConnectionName labels the connection on the server.
	ConnectionName string
}

// NATSKVCache is a Cache backed by a NATS JetStream KV bucket. Keys
// are base64-encoded since bucket keys only allow a restricted
// character set.
type NATSKVCache struct {
	conn *nats.Conn
	kv   jetstream.KeyValue
}

// NewNATSKVCache connects to the server and binds the bucket,
// creating it when it does not exist.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil || config.URL == "" || config.Bucket == "" {
		return nil, ErrNATSConfigRequired
	}

	opts := []nats.Option{}
	if config.ConnectionName != "" {
		opts = append(opts, nats.Name(config.ConnectionName))
	}

	if config.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(config.CredsFile))
	}

	if config.Username != "" {
		opts = append(opts, nats.UserInfo(config.Username, config.Password))
	}

	conn, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ShortHTTPTimeout)
	defer cancel()

	kv, err := js.KeyValue(ctx, config.Bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket: config.Bucket,
			TTL:    config.TTL,
		})
	}

	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("binding KV bucket %q: %w", config.Bucket, err)
	}

	return &NATSKVCache{
		conn: conn,
		kv:   kv,
	}, nil
}

// Get retrieves an entry, failing when absent or expired.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	kvEntry, err := c.kv.Get(ctx, encodeCacheKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrCacheKeyNotFound
		}

		return nil, fmt.Errorf("reading KV entry: %w", err)
	}

	var entry CacheEntry

	err = json.Unmarshal(kvEntry.Value(), &entry)
	if err != nil {
		return nil, fmt.Errorf("decoding cached entry: %w", err)
	}

	if entry.Expired() {
		_ = c.kv.Delete(ctx, encodeCacheKey(key))

		return nil, ErrCacheEntryExpired
	}

	return &entry, nil
}

// Set stores an entry under the key.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	_, err = c.kv.Put(ctx, encodeCacheKey(key), data)
	if err != nil {
		return fmt.Errorf("writing KV entry: %w", err)
	}

	return nil
}

// Delete removes the key. A missing key is not an error.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, encodeCacheKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("deleting KV entry: %w", err)
	}

	return nil
}

// Clear purges every key in the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	lister, err := c.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("listing KV keys: %w", err)
	}

	for key := range lister.Keys() {
		err = c.kv.Purge(ctx, key)
		if err != nil {
			return fmt.Errorf("purging KV entry: %w", err)
		}
	}

	return nil
}

// Has reports whether the key holds an unexpired entry.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close drains the underlying connection.
func (c *NATSKVCache) Close() error {
	if c.conn == nil {
		return nil
	}

	return c.conn.Drain()
}

func encodeCacheKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}
