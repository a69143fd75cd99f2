package disk

import "github.com/gostonefire/internstore/internal/storage"

// Provider - Creates and opens file backed stores
type Provider struct {
	opts storage.Options
}

// NewProvider - Returns a pointer to a new Provider
func NewProvider(opts storage.Options) *Provider {
	return &Provider{opts: opts.WithDefaults()}
}

// Create - Creates a new store file
func (P *Provider) Create(name string, width int) (storage.Store, error) {
	s, err := Create(name, width, P.opts)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Open - Opens an existing store file
func (P *Provider) Open(name string) (storage.Store, error) {
	s, err := Open(name, P.opts)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Persistent - Disk stores are persistent
func (P *Provider) Persistent() bool {
	return true
}
