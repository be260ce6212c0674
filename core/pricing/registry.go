// Package pricing - Catalog registry
package pricing

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"warehouse-cost/internal/errors"
	"warehouse-cost/internal/logging"
)

// Registry holds named catalogs. It is safe for concurrent use; the API
// server shares one registry across requests.
type Registry struct {
	mu       sync.RWMutex
	catalogs map[string]*Tables
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		catalogs: make(map[string]*Tables),
	}
}

// NewDefaultRegistry creates a registry holding the built-in catalogs
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, t := range Builtin() {
		if err := r.Register(t); err != nil {
			panic("invalid built-in catalog: " + err.Error())
		}
	}
	return r
}

// Register validates and adds a catalog, replacing any catalog with the same name
func (r *Registry) Register(t *Tables) error {
	if t == nil {
		return errors.Config("cannot register nil catalog")
	}
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.catalogs[t.Name]; exists {
		logging.Debug("replacing pricing catalog", zap.String("catalog", t.Name))
	}
	r.catalogs[t.Name] = t
	return nil
}

// LoadFile registers every catalog defined in an HCL file
func (r *Registry) LoadFile(path string) error {
	catalogs, err := LoadFile(path)
	if err != nil {
		return err
	}
	for _, t := range catalogs {
		if err := r.Register(t); err != nil {
			return err
		}
		logging.Info("loaded pricing catalog",
			zap.String("catalog", t.Name),
			zap.String("file", path),
			zap.String("fingerprint", t.Fingerprint()))
	}
	return nil
}

// Get returns the catalog called name
func (r *Registry) Get(name string) (*Tables, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.catalogs[name]
	if !ok {
		return nil, errors.NotFound("pricing catalog", name).WithContext("available", r.namesLocked())
	}
	return t, nil
}

// Names returns the registered catalog names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.catalogs))
	for name := range r.catalogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
