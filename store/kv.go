// Package store holds the persisted rule list and the key/value substrate it lives in.
package store

import "context"

// KV is the persistence substrate. Get omits absent keys from the result.
// Set writes every key in values as one atomic call.
type KV interface {
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, values map[string][]byte) error
}
