// Package apikey generates and verifies organization API keys.
//
// A key looks like sk_<40 random chars>. Its first PrefixLen characters are
// stored in clear text to narrow down candidates on lookup, the full key is
// only ever persisted as argon2id hash.
package apikey

import (
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/pkg/errors"
)

const (
	// Scheme starts every key.
	Scheme = "sk_"
	// PrefixLen is the number of leading characters stored for lookup.
	PrefixLen = 7
	// SecretLen is the number of random characters after the scheme.
	SecretLen = 40
)

// ErrMalformedKey is returned when a presented key can not have been issued here.
var ErrMalformedKey = errors.New("malformed api key")

// HashParams are the argon2id parameters used for new keys.
var HashParams = argon2id.DefaultParams //nolint:gochecknoglobals

// Key is a freshly generated API key. Plaintext is shown to the caller once.
type Key struct {
	Plaintext string
	Prefix    string
	Hash      string
}

// Generate creates a new random key and its hash.
func Generate() (*Key, error) {
	plaintext := Scheme + randomString(SecretLen)

	hash, err := argon2id.CreateHash(plaintext, HashParams)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash api key")
	}

	return &Key{
		Plaintext: plaintext,
		Prefix:    plaintext[:PrefixLen],
		Hash:      hash,
	}, nil
}

// Prefix returns the lookup prefix of a presented key.
func Prefix(plaintext string) (string, error) {
	if !strings.HasPrefix(plaintext, Scheme) || len(plaintext) <= PrefixLen {
		return "", ErrMalformedKey
	}

	return plaintext[:PrefixLen], nil
}

// Verify reports whether plaintext matches the stored hash.
func Verify(plaintext, hash string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(plaintext, hash)
	if err != nil {
		return false, errors.Wrap(err, "failed to compare api key hash")
	}

	return match, nil
}
