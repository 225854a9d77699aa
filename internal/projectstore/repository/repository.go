package repository

import "context"

// Repository holds the single project document of the service. Documents
// are opaque JSON; validation happens on the client after hydration.
type Repository interface {
	Get(ctx context.Context) ([]byte, error)
	Put(ctx context.Context, doc []byte) error
	Ping(ctx context.Context) error
}
