package auth_test

import (
	"context"
	"testing"

	"github.com/jmanprz/pipedrive-client/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStaticTokenProvider(t *testing.T) {
	t.Parallel()
	t.Run("requires a token", func(t *testing.T) {
		t.Parallel()

		_, err := auth.NewStaticTokenProvider("")
		require.ErrorIs(t, err, auth.ErrTokenRequired)
	})

	t.Run("serves the configured token", func(t *testing.T) {
		t.Parallel()

		provider, err := auth.NewStaticTokenProvider("test-token")
		require.NoError(t, err)

		token, err := provider.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "test-token", token)
	})
}

func TestStaticTokenProvider_SetToken(t *testing.T) {
	t.Parallel()

	provider, err := auth.NewStaticTokenProvider("before-rotation")
	require.NoError(t, err)

	provider.SetToken("after-rotation")

	token, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "after-rotation", token)
}

func TestStaticTokenProvider_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	provider, err := auth.NewStaticTokenProvider("token-0")
	require.NoError(t, err)

	done := make(chan bool)

	startTokenSetters(provider, done)
	startTokenGetters(provider, done)

	// Wait for all goroutines
	for range 4 {
		<-done
	}

	token, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.True(t, token == "token-1" || token == "token-2")
}

func startTokenSetters(provider *auth.StaticTokenProvider, done chan bool) {
	// Multiple goroutines rotating the token
	go func() {
		for range 100 {
			provider.SetToken("token-1")
		}

		done <- true
	}()

	go func() {
		for range 100 {
			provider.SetToken("token-2")
		}

		done <- true
	}()
}

func startTokenGetters(provider *auth.StaticTokenProvider, done chan bool) {
	// Multiple goroutines reading the token
	go func() {
		for range 100 {
			_, _ = provider.Token(context.Background())
		}

		done <- true
	}()

	go func() {
		for range 100 {
			_, _ = provider.Token(context.Background())
		}

		done <- true
	}()
}

func TestMaskToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		token    string
		expected string
	}{
		{
			name:     "empty token",
			token:    "",
			expected: "***",
		},
		{
			name:     "short token",
			token:    "abcd",
			expected: "***",
		},
		{
			name:     "long token keeps a short prefix",
			token:    "f00dcafe1234567890",
			expected: "f00d***",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, auth.MaskToken(tt.token))
		})
	}
}
