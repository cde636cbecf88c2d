package utils

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID returns a random record identifier.
func NewID() string { return uuid.NewString() }

// RandomToken returns n random bytes hex encoded.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func Ptr[T any](v T) *T { return &v }
