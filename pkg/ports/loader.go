package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// DescriptionLoader retrieves tree descriptions by name. This decouples the
// engine from the storage format (file, memory, embedded assets).
type DescriptionLoader interface {
	// Load returns the named tree description, or an error wrapping
	// domain.ErrMissingNode if it does not exist.
	Load(name string) (*domain.TreeDescription, error)

	// List returns the names of all available descriptions.
	List() ([]string, error)
}

// Watchable is implemented by loaders that can notify about backend
// changes, typically for dev-mode hot reload.
type Watchable interface {
	// Watch returns a channel signaled when the underlying descriptions
	// change. It carries no details; a signal only means "reload".
	Watch(ctx context.Context) (<-chan struct{}, error)
}
