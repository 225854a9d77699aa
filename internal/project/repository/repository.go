package repository

import "context"

// LocalCache is the durable backup tier. It holds one document under a
// fixed key.
type LocalCache interface {
	// Get returns the stored document; ok is false when nothing is stored.
	Get(ctx context.Context) (value string, ok bool, err error)
	Set(ctx context.Context, value string) error
}

// RemoteStore is the project endpoint shared across sessions.
type RemoteStore interface {
	// Fetch returns the raw project document or domain.ErrProjectNotFound.
	Fetch(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, doc []byte) error
}
