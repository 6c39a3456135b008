// Package storage is the durable key/value store the stores persist to:
// the device-local equivalent of browser local storage. Values are opaque
// byte slices; keys are namespaced under a fixed application prefix.
package storage

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("key not found")

// Store is implemented by every storage driver.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keys names the well-known entries under one application prefix.
type Keys struct {
	Token    string
	Identity string
	Cart     string
}

// NewKeys returns the keys for the given prefix ("mx3" -> "mx3:token", ...).
func NewKeys(prefix string) Keys {
	return Keys{
		Token:    key(prefix, "token"),
		Identity: key(prefix, "user"),
		Cart:     key(prefix, "cart"),
	}
}

func key(prefix, name string) string {
	return fmt.Sprintf("%s:%s", prefix, name)
}
