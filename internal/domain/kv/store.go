package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("kv: key not found")

// Store is the persistence collaborator: whole-snapshot blobs addressed by fixed keys.
type Store interface {
	// Get returns ErrNotFound when the key has never been written.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Batcher is implemented by stores that can write several keys in one transaction.
type Batcher interface {
	SetMany(ctx context.Context, entries map[string][]byte) error
}

// Key builds "<namespace>_<name>", or just name when namespace is empty.
func Key(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "_" + name
}
