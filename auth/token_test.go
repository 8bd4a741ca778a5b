package auth

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTokenKey(t *testing.T) {
	key, err := generateTokenKey(20)
	require.NoError(t, err)

	// 20 random bytes render as 40 hex characters.
	assert.Len(t, key, 40)
	_, err = hex.DecodeString(key)
	assert.NoError(t, err)
}

func TestGenerateTokenKeyUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		key, err := generateTokenKey(20)
		require.NoError(t, err)
		_, dup := seen[key]
		require.False(t, dup, "generated a duplicate token key")
		seen[key] = struct{}{}
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Name@Example.COM", "name@example.com"},
		{"  padded@example.com  ", "padded@example.com"},
		{"already@example.com", "already@example.com"},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEmail(tt.in))
	}
}
