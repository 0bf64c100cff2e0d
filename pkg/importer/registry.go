package importer

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidHandle is returned for handles that were never issued or have
// already been released.
var ErrInvalidHandle = errors.New("invalid importer handle")

// Handle identifies an Importer held by a Registry. Zero is never issued.
type Handle uint64

// Registry is an arena of Importers addressed by Handle, for callers that
// can't hold Go pointers. Distinct handles may be used from different
// goroutines.
type Registry struct {
	mu    sync.Mutex
	next  Handle
	items map[Handle]*Importer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[Handle]*Importer)}
}

// Open loads path and stores the Importer, valid or not, under a new
// handle.
func (r *Registry) Open(path string, opts Options) Handle {
	im := Open(path, opts)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	h := r.next
	r.items[h] = im
	return h
}

// Get returns the Importer for h.
func (r *Registry) Get(h Handle) (*Importer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	im, ok := r.items[h]
	if !ok {
		return nil, ErrInvalidHandle
	}
	return im, nil
}

// Release closes the Importer for h and forgets the handle. Releasing a
// handle twice returns ErrInvalidHandle.
func (r *Registry) Release(h Handle) error {
	r.mu.Lock()
	im, ok := r.items[h]
	delete(r.items, h)
	r.mu.Unlock()

	if !ok {
		return ErrInvalidHandle
	}
	return im.Close()
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// CloseAll releases every handle. Importers that were already closed
// through Get are reported in the joined error.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	items := r.items
	r.items = make(map[Handle]*Importer)
	r.mu.Unlock()

	var errs []error
	for h, im := range items {
		if err := im.Close(); err != nil {
			errs = append(errs, fmt.Errorf("handle %d: %w", h, err))
		}
	}
	return errors.Join(errs...)
}
