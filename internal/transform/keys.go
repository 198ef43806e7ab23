package transform

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// KeyGenerator issues surrogate keys for output rows.
type KeyGenerator interface {
	NewKey() (string, error)
}

// RandomKeys builds each key from a version 4 UUID followed by 16 more random
// bytes, encoded as unpadded URL-safe base64 (43 characters). Keys are never
// derived from row content.
type RandomKeys struct {
	// Reader is the entropy source. Nil means crypto/rand.
	Reader io.Reader
}

// NewKey returns a fresh key.
func (k RandomKeys) NewKey() (string, error) {
	r := k.Reader
	if r == nil {
		r = rand.Reader
	}

	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return "", fmt.Errorf("generating uuid: %w", err)
	}

	raw := make([]byte, 32)
	copy(raw, id[:])
	if _, err := io.ReadFull(r, raw[16:]); err != nil {
		return "", fmt.Errorf("reading key entropy: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// SequenceKeys yields Prefix-1, Prefix-2, ... for deterministic tests and
// dry runs.
type SequenceKeys struct {
	Prefix string
	n      int
}

func (k *SequenceKeys) NewKey() (string, error) {
	k.n++
	return fmt.Sprintf("%s-%d", k.Prefix, k.n), nil
}
