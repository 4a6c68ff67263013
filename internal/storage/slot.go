package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("slot not found")

// Slot is a key/value store holding whole documents. Save overwrites the
// previous value for the key.
type Slot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}
