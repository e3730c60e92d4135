// Package blobs stores the raw bytes of uploaded files and their thumbnails.
package blobs

import (
	"context"
	"errors"
	"path/filepath"
)

// Store is a flat key/blob namespace. Put overwrites, Get of a missing key
// returns common.ErrorNotFound, Delete of a missing key succeeds.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

var ErrInvalidKey = errors.New("invalid blob key")

// validateKey rejects keys that are empty or could address anything outside
// the store's root.
func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || filepath.Base(key) != key {
		return ErrInvalidKey
	}
	return nil
}
