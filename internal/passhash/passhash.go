// Package passhash hashes and verifies share-link passwords using
// argon2id. The encoded form is self-describing, so parameters can be
// raised later without invalidating stored hashes.
package passhash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Hasher hashes plaintext passwords and verifies candidates against
// stored hashes. Implementations should be safe for concurrent use.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) (bool, error)
}

// Parameters follow the argon2id recommendations from RFC 9106 for
// memory-constrained environments.
const (
	memoryKiB   = 64 * 1024
	iterations  = 1
	parallelism = 4
	saltBytes   = 16
	keyBytes    = 32
)

// ErrMalformedHash is returned when a stored hash cannot be parsed.
var ErrMalformedHash = errors.New("malformed password hash")

type argon2idHasher struct{}

// NewArgon2id returns the production Hasher.
func NewArgon2id() Hasher {
	return argon2idHasher{}
}

// Hash derives an argon2id key from password under a fresh random salt
// and returns the standard encoded representation.
func (argon2idHasher) Hash(password string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, iterations, memoryKiB, parallelism, keyBytes)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memoryKiB, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify re-derives the key from password using the parameters stored in
// encoded and compares in constant time.
func (argon2idHasher) Verify(encoded, password string) (bool, error) {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt,
		params.iterations, params.memoryKiB, params.parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

type hashParams struct {
	memoryKiB   uint32
	iterations  uint32
	parallelism uint8
}

func decodeHash(encoded string) (hashParams, []byte, []byte, error) {
	var params hashParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return params, nil, nil, fmt.Errorf("%w: unsupported argon2 version %d", ErrMalformedHash, version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&params.memoryKiB, &params.iterations, &params.parallelism); err != nil {
		return params, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, ErrMalformedHash
	}

	return params, salt, key, nil
}
