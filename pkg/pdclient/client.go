// Package pdclient provides the main entry point for creating Pipedrive API clients
package pdclient

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jmanprz/pipedrive-client/internal/client"
	"github.com/jmanprz/pipedrive-client/internal/constants"
	"github.com/jmanprz/pipedrive-client/pkg/pipedrive"
)

// New creates a new Pipedrive API client from the given configuration.
func New(ctx context.Context, config *pipedrive.Config) (pipedrive.Client, error) {
	if config == nil {
		return nil, pipedrive.ErrConfigRequired
	}

	if config.APIToken == "" {
		return nil, pipedrive.ErrTokenRequired
	}

	// Normalize the base URL
	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = constants.DefaultBaseURL
	}

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	config.BaseURL = baseURL

	// Use the internal client implementation
	client, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return client, nil
}

// NewWithToken creates a new client for the default API host using an
// existing API token.
func NewWithToken(ctx context.Context, token string) (pipedrive.Client, error) {
	return New(ctx, &pipedrive.Config{
		APIToken: token,
	})
}

// NewWithBaseURL creates a new client for a specific API host, such as a
// company subdomain, using an existing API token.
func NewWithBaseURL(ctx context.Context, baseURL, token string) (pipedrive.Client, error) {
	return New(ctx, &pipedrive.Config{
		BaseURL:  baseURL,
		APIToken: token,
	})
}

// NewFromEnv creates a new client with the token taken from the
// PIPEDRIVE_API_TOKEN environment variable. This is the only place the
// library consults the environment; every other constructor takes the
// token explicitly.
func NewFromEnv(ctx context.Context) (pipedrive.Client, error) {
	token := os.Getenv(constants.EnvAPIToken)
	if token == "" {
		return nil, fmt.Errorf("%w: set %s", pipedrive.ErrTokenRequired, constants.EnvAPIToken)
	}

	return NewWithToken(ctx, token)
}
