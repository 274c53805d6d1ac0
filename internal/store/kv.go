/**
 * @description
 * This file defines the KeyValueStore interface, the single persistence
 * capability the client depends on. The interface abstracts over the
 * platform-appropriate backing store (an in-memory map for tests and
 * ephemeral sessions, SQLite on a real device) so that callers inject an
 * implementation at startup instead of branching on platform at every
 * call site.
 */

package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no stored value. Callers must treat
// it as "absent", not as a failure of the store itself.
var ErrNotFound = errors.New("store: key not found")

// Well-known keys used by the session layer.
const (
	KeyUserID      = "user_id"
	KeyProfile     = "profile"
	KeyPassword    = "password"
	KeyVerifyEmail = "verify_email"
)

// KeyValueStore is a minimal persistent string store.
type KeyValueStore interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, unconditionally overwriting any prior value.
	Set(ctx context.Context, key string, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
