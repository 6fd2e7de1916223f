package domain

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"time"

	"github.com/zeebo/blake3"
)

const (
	tokenBytes      = 32
	slugSuffixBytes = 4
)

// TokenPolicy mints magic-link tokens and decides whether they are still
// usable. Now and Random are swappable so tests can pin them.
type TokenPolicy struct {
	Now    func() time.Time
	Random io.Reader
}

func NewTokenPolicy() *TokenPolicy {
	return &TokenPolicy{
		Now:    func() time.Time { return time.Now().UTC() },
		Random: rand.Reader,
	}
}

// GenerateSecureToken returns 64 lowercase hex characters from crypto/rand.
func (p *TokenPolicy) GenerateSecureToken() string {
	return p.randomHex(tokenBytes)
}

// GenerateSlugSuffix uses the same generator with 4 bytes (8 hex characters).
func (p *TokenPolicy) GenerateSlugSuffix() string {
	return p.randomHex(slugSuffixBytes)
}

func (p *TokenPolicy) GenerateTokenExpiry(hours int) time.Time {
	return p.Now().Add(time.Duration(hours) * time.Hour)
}

// ValidateToken only gates on expiry: the token itself was already used as
// the lookup key. An expiry equal to now is expired.
func (p *TokenPolicy) ValidateToken(_ string, expiresAt time.Time) bool {
	return expiresAt.After(p.Now())
}

// HashToken is the at-rest form of a token. Lookups hash the presented
// token and compare digests.
func HashToken(token string) string {
	sum := blake3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (p *TokenPolicy) randomHex(n int) string {
	src := p.Random
	if src == nil {
		src = rand.Reader
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(src, b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(b)
}
