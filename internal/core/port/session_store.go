package port

import "context"

// SessionStore owns the persisted credential blob of the logged-in account.
// The blob is opaque: it is produced and consumed by the Telegram client only.
type SessionStore interface {
	// Load returns the persisted blob, or repository.ErrNotFound when the
	// account was never authenticated or was logged out.
	Load(ctx context.Context) ([]byte, error)
	// Save atomically replaces the persisted blob.
	Save(ctx context.Context, blob []byte) error
	// Clear removes the persisted blob. Clearing an absent blob is not an error.
	Clear(ctx context.Context) error
}
