package domain

import (
	"bytes"
	"crypto/rand"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lowerHex = regexp.MustCompile(`^[0-9a-f]+$`)

func fixedPolicy(now time.Time) *TokenPolicy {
	return &TokenPolicy{Now: func() time.Time { return now }, Random: rand.Reader}
}

func TestTokenPolicy_GenerateSecureToken(t *testing.T) {
	p := NewTokenPolicy()

	a := p.GenerateSecureToken()
	b := p.GenerateSecureToken()

	assert.Len(t, a, 64)
	assert.Regexp(t, lowerHex, a)
	assert.NotEqual(t, a, b)
}

func TestTokenPolicy_GenerateSlugSuffix(t *testing.T) {
	s := NewTokenPolicy().GenerateSlugSuffix()
	assert.Len(t, s, 8)
	assert.Regexp(t, lowerHex, s)
}

func TestTokenPolicy_GenerateTokenExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := fixedPolicy(now)

	assert.Equal(t, now.Add(24*time.Hour), p.GenerateTokenExpiry(24))
	assert.Equal(t, now, p.GenerateTokenExpiry(0))
}

func TestTokenPolicy_ValidateToken(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := fixedPolicy(now)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"future", now.Add(time.Second), true},
		{"exactly now", now, false},
		{"past", now.Add(-time.Nanosecond), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ValidateToken("ignored", tt.expiresAt))
		})
	}
}

func TestHashToken(t *testing.T) {
	h := HashToken("abc")
	require.Len(t, h, 64)
	assert.Regexp(t, lowerHex, h)
	assert.Equal(t, h, HashToken("abc"))
	assert.NotEqual(t, h, HashToken("abd"))
	assert.NotEqual(t, "abc", h)
}

func TestTokenPolicy_DeterministicSource(t *testing.T) {
	p := &TokenPolicy{Now: time.Now, Random: bytes.NewReader(make([]byte, 36))}

	assert.Equal(t, "00000000", p.GenerateSlugSuffix())
	assert.Equal(t, strings.Repeat("0", 64), p.GenerateSecureToken())
}
