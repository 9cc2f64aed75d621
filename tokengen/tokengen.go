// Package tokengen generates the opaque public tokens that identify
// share links. Generators should be safe for concurrent use.
package tokengen

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

const (
	// TokenBytes is the number of random bytes behind each token.
	TokenBytes = 32

	// TokenLength is the encoded length of a token: 32 raw bytes in
	// unpadded base64url.
	TokenLength = 43
)

// Generator produces opaque share tokens.
// Implementations should be safe for concurrent use.
type Generator interface {
	Generate() (string, error)
}

// opaqueGenerator implements Generator over crypto/rand.
// It is safe for concurrent use.
type opaqueGenerator struct{}

// NewOpaque returns a generator producing 43-character unpadded
// base64url tokens backed by 256 bits of randomness.
func NewOpaque() Generator {
	return &opaqueGenerator{}
}

// Generate returns a fresh random token.
func (g *opaqueGenerator) Generate() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ErrBadFormat is returned by Validate for strings that cannot be a token.
var ErrBadFormat = errors.New("token is not a valid share token")

// Validate checks that a candidate string has the exact shape of a
// generated token. Callers use this to reject malformed tokens before
// touching storage; a passing check says nothing about whether the
// token exists.
func Validate(token string) error {
	if len(token) != TokenLength {
		return ErrBadFormat
	}
	for i := 0; i < len(token); i++ {
		if !isTokenChar(token[i]) {
			return ErrBadFormat
		}
	}
	return nil
}

func isTokenChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	default:
		return false
	}
}
