// Package kv is the flat string key/value layer under the record store.
// Keys are opaque; every mutation goes through Apply so that a batch of
// puts and deletes lands together or not at all.
package kv

import (
	"context"
	"errors"
	"strings"
)

var ErrClosed = errors.New("kv store closed")

// Op is one mutation in a batch. A nil Value deletes Key.
type Op struct {
	Key   string
	Value *string
}

func Put(key, value string) Op {
	return Op{Key: key, Value: &value}
}

func Delete(key string) Op {
	return Op{Key: key}
}

type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Apply commits ops atomically in order.
	Apply(ctx context.Context, ops ...Op) error
	// Scan returns every entry whose key starts with prefix.
	Scan(ctx context.Context, prefix string) (map[string]string, error)
	Close() error
}

// escapeLike escapes LIKE metacharacters so prefix matches literally with ESCAPE '\'.
func escapeLike(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix)
}
