package repository

import "context"

// Storage is the key/value substrate the mock backend persists into. Values
// are opaque serialized documents; a missing key yields ErrNotFound.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
