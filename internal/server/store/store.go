package store

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrIDExhausted = errors.New("could not generate a unique file id")
)

const (
	// IDLength gives ~131 bits of entropy over the 62 symbol alphabet.
	IDLength = 22
	// MaxIDAttempts bounds the collision retry loop in Put.
	MaxIDAttempts = 5

	idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Store defines the interface for file storage backends.
type Store interface {
	Put(ctx context.Context, f NewFile) (string, error)
	Get(ctx context.Context, id string) (*StoredFile, error)
	Exists(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// IDGenerator returns a fresh candidate identifier.
type IDGenerator func() (string, error)

// GenerateID produces a cryptographically random alphanumeric identifier.
func GenerateID() (string, error) {
	return generateSecureToken(IDLength)
}

func generateSecureToken(length int) (string, error) {
	result := make([]byte, length)
	alphabet := big.NewInt(int64(len(idCharset)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, alphabet)
		if err != nil {
			return "", fmt.Errorf("crypto/rand failure: %w", err)
		}
		result[i] = idCharset[n.Int64()]
	}
	return string(result), nil
}

// ValidID reports whether id could have been produced by a generator with
// the store's alphabet. Lookups for anything else short-circuit to not found.
func ValidID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
