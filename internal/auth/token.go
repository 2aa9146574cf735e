// Package auth holds the token plumbing for the API client. Pipedrive
// authenticates every request with a long-lived account token, so
// there is no refresh flow; the provider abstraction exists so the
// token can be rotated at runtime and so nothing above this package
// touches the raw credential directly.
package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/jmanprz/pipedrive-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrTokenRequired = errors.New("API token required")
)

// TokenProvider supplies the API token attached to requests.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenProvider serves one fixed token, replaceable at runtime.
type StaticTokenProvider struct {
	mu    sync.RWMutex
	token string
}

// NewStaticTokenProvider creates a provider for the token.
func NewStaticTokenProvider(token string) (*StaticTokenProvider, error) {
	if token == "" {
		return nil, ErrTokenRequired
	}

	return &StaticTokenProvider{token: token}, nil
}

// Token returns the current token.
func (p *StaticTokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.token == "" {
		return "", ErrTokenRequired
	}

	return p.token, nil
}

// SetToken replaces the token, e.g. after a rotation.
func (p *StaticTokenProvider) SetToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.token = token
}

// MaskToken renders a token safe for display, keeping only a short
// prefix.
func MaskToken(token string) string {
	const visible = 4

	if len(token) <= visible {
		return constants.MaskedSecret
	}

	return token[:visible] + constants.MaskedSecret
}
