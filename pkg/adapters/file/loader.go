// Package file loads tree descriptions from JSON or YAML files on disk.
// One file per tree; the file stem is the lookup name.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/canopy/pkg/domain"
)

// Loader implements ports.DescriptionLoader over a directory of
// .json/.yaml/.yml files. It also implements ports.Watchable for dev-mode
// hot reload.
type Loader struct {
	dir string
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load reads and parses the named description. JSON and YAML are both
// accepted; lookup order is .json, .yaml, .yml.
func (l *Loader) Load(name string) (*domain.TreeDescription, error) {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(l.dir, name+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return Parse(data, ext)
	}
	return nil, fmt.Errorf("%w: tree %q in %s", domain.ErrMissingNode, name, l.dir)
}

// List returns the description names available in the directory.
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", l.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		switch ext {
		case ".json", ".yaml", ".yml":
			names = append(names, strings.TrimSuffix(entry.Name(), ext))
		}
	}
	return names, nil
}

// Watch signals whenever a description file in the directory changes.
// The channel closes when ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(l.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", l.dir, err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				// Coalesce: a pending signal is enough.
				select {
				case ch <- struct{}{}:
				default:
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return ch, nil
}

// Parse decodes a description from raw bytes. ext selects the format
// (".json" for JSON, anything else is treated as YAML).
func Parse(data []byte, ext string) (*domain.TreeDescription, error) {
	var desc domain.TreeDescription
	if ext == ".json" {
		if err := json.Unmarshal(data, &desc); err != nil {
			return nil, fmt.Errorf("parse description: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &desc); err != nil {
			return nil, fmt.Errorf("parse description: %w", err)
		}
	}
	if desc.Name == "" {
		return nil, fmt.Errorf("%w: description has no name", domain.ErrConfiguration)
	}
	return &desc, nil
}
