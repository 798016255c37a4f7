package storage

import (
	"context"
	"errors"
)

// ErrMissingNode is returned by backends that refuse an edge whose endpoints were never written
var ErrMissingNode = errors.New("edge endpoint node does not exist")

// Writer performs idempotent upserts inside one store session
type Writer interface {
	// UpsertNode creates the node if absent and sets its url otherwise
	UpsertNode(ctx context.Context, login, url string) error
	// UpsertEdge creates follower->followee if absent. Both nodes must already exist.
	UpsertEdge(ctx context.Context, follower, followee string) error
}

// GraphStore is the write-only view of the graph the crawler needs.
// WithSession acquires one session, hands it to fn and always releases it,
// including when fn fails.
type GraphStore interface {
	WithSession(ctx context.Context, fn func(w Writer) error) error
	Close(ctx context.Context) error
}

// StatsReporter is implemented by stores that can count what they hold
type StatsReporter interface {
	Stats(ctx context.Context) (nodes, edges int, err error)
}
