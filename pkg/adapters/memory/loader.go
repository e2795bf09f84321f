// Package memory provides in-memory implementations of the loader and
// snapshot store ports, used by tests and embedded setups.
package memory

import (
	"fmt"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// Loader implements ports.DescriptionLoader over a map.
type Loader struct {
	mu    sync.RWMutex
	trees map[string]*domain.TreeDescription
}

// NewLoader creates an empty in-memory loader.
func NewLoader() *Loader {
	return &Loader{trees: make(map[string]*domain.TreeDescription)}
}

// Add registers a description under its own name.
func (l *Loader) Add(desc *domain.TreeDescription) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trees[desc.Name] = desc
}

// Load returns the named description.
func (l *Loader) Load(name string) (*domain.TreeDescription, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	desc, ok := l.trees[name]
	if !ok {
		return nil, fmt.Errorf("%w: tree %q", domain.ErrMissingNode, name)
	}
	return desc, nil
}

// List returns the registered description names.
func (l *Loader) List() ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.trees))
	for name := range l.trees {
		names = append(names, name)
	}
	return names, nil
}
