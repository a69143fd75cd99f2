package internstore

import (
	"path/filepath"
	"sync"

	"github.com/gostonefire/internstore/storeerr"
	log "github.com/sirupsen/logrus"
)

// TableSet - A named set of byte indexes loaded once from a directory and shared read only. Loading is
// guarded so that concurrent first users load the set exactly once. Once loaded the tables must not be
// modified and are safe for concurrent readers.
type TableSet struct {
	dir    string
	names  []string
	opts   Options
	mu     sync.Mutex
	loaded bool
	tables map[string]*ByteIndex
}

// NewTableSet - Returns a pointer to a new TableSet of the indexes with base names dir/name for every name.
// Nothing is read until first use.
func NewTableSet(dir string, names []string, opts Options) *TableSet {
	return &TableSet{dir: dir, names: append([]string(nil), names...), opts: opts}
}

// Load - Opens every table of the set unless already done. A failed load closes what was opened and may be
// retried.
func (T *TableSet) Load() (err error) {
	T.mu.Lock()
	defer T.mu.Unlock()

	if T.loaded {
		return
	}

	tables := make(map[string]*ByteIndex, len(T.names))
	for _, name := range T.names {
		var b *ByteIndex
		if b, err = OpenByteIndex(filepath.Join(T.dir, name), T.opts); err != nil {
			for _, opened := range tables {
				_ = opened.Close()
			}
			return
		}
		tables[name] = b
	}

	T.tables = tables
	T.loaded = true

	log.WithFields(log.Fields{"dir": T.dir, "tables": len(tables), "flavor": T.opts.Flavor}).Info("loaded table set")

	return
}

// Table - Returns the named table, loading the set on first use
func (T *TableSet) Table(name string) (b *ByteIndex, err error) {
	if err = T.Load(); err != nil {
		return
	}

	b, ok := T.tables[name]
	if !ok {
		err = storeerr.NotFound("no table %s in %s", name, T.dir)
	}

	return
}

// Close - Closes all tables. The set can be loaded again afterwards.
func (T *TableSet) Close() (err error) {
	T.mu.Lock()
	defer T.mu.Unlock()

	for _, b := range T.tables {
		if closeErr := b.Close(); err == nil {
			err = closeErr
		}
	}
	T.tables = nil
	T.loaded = false

	return
}
