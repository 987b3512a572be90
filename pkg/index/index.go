// Package index ties the block store, node cache, and tree engine together
// into a single open-file handle, the unit callers create, open, and close.
// It owns every piece of mutable state for one index file and is the only
// package outside pkg/btree that talks to pkg/block directly.
package index

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/ceth-dev/btreeidx/pkg/block"
	"github.com/ceth-dev/btreeidx/pkg/btree"
	"github.com/ceth-dev/btreeidx/pkg/btreeerr"
	"github.com/ceth-dev/btreeidx/pkg/header"
)

// Config carries the small set of ambient knobs an index handle accepts,
// following the teacher's plain-struct-plus-defaults pattern
// (pkg/btree.Config in the teacher repo).
type Config struct {
	// CacheCapacity overrides cache.DefaultCapacity when positive.
	CacheCapacity int
	Log           zerolog.Logger
}

// DefaultConfig is a no-op cache override with a disabled logger; callers
// that care about logging or cache sizing build their own Config.
var DefaultConfig = Config{Log: zerolog.Nop()}

// Index is a thread-safe handle on one open index file.
type Index struct {
	mu     sync.RWMutex
	path   string
	store  *block.Store
	header header.Header
	tree   *btree.BTree
	log    zerolog.Logger
	open   bool
}

// Create makes a brand new index file at path, overwriting any existing
// file, and returns it open.
func Create(fs afero.Fs, path string, cfg Config) (*Index, error) {
	store, err := block.Create(fs, path)
	if err != nil {
		return nil, err
	}

	hdr := header.New()
	if err := store.WriteBlock(0, hdr.Encode()); err != nil {
		store.Close()
		return nil, err
	}

	idx := &Index{
		path:   path,
		store:  store,
		header: hdr,
		log:    cfg.Log.With().Str("path", path).Logger(),
		open:   true,
	}
	idx.tree = btree.NewWithCacheCapacity(store, &idx.header, idx.log, cfg.CacheCapacity)
	idx.log.Info().Msg("created index")
	return idx, nil
}

// Open opens an existing index file at path, failing with
// btreeerr.ErrBadMagic if its header signature doesn't match.
func Open(fs afero.Fs, path string, cfg Config) (*Index, error) {
	store, err := block.Open(fs, path)
	if err != nil {
		return nil, err
	}

	buf, err := store.ReadBlock(0)
	if err != nil {
		store.Close()
		return nil, err
	}
	hdr, err := header.Decode(buf)
	if err != nil {
		store.Close()
		return nil, err
	}

	idx := &Index{
		path:   path,
		store:  store,
		header: hdr,
		log:    cfg.Log.With().Str("path", path).Logger(),
		open:   true,
	}
	idx.tree = btree.NewWithCacheCapacity(store, &idx.header, idx.log, cfg.CacheCapacity)
	idx.log.Info().Uint64("root_block_id", hdr.Root).Msg("opened index")
	return idx, nil
}

func (idx *Index) requireOpen() error {
	if !idx.open {
		return btreeerr.ErrNotOpen
	}
	return nil
}

// Put inserts key/value, returning btreeerr.ErrDuplicateKey if key already
// exists.
func (idx *Index) Put(key, value uint64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.requireOpen(); err != nil {
		return err
	}

	if err := idx.tree.Insert(key, value); err != nil {
		idx.log.Error().Err(err).Uint64("key", key).Msg("insert failed")
		return err
	}
	return nil
}

// Get returns the value stored for key, or btreeerr.ErrNotFound.
func (idx *Index) Get(key uint64) (uint64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := idx.requireOpen(); err != nil {
		return 0, err
	}
	return idx.tree.Search(key)
}

// Traverse visits every (key, value) pair in pre-order.
func (idx *Index) Traverse(visit btree.Visitor) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := idx.requireOpen(); err != nil {
		return err
	}
	return idx.tree.Traverse(visit)
}

// Print visits every (depth, key, value) triple in pre-order, for console
// dumps.
func (idx *Index) Print(visit btree.PrintVisitor) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := idx.requireOpen(); err != nil {
		return err
	}
	return idx.tree.Print(visit)
}

// Validate checks the tree's structural invariants.
func (idx *Index) Validate() error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := idx.requireOpen(); err != nil {
		return err
	}
	return idx.tree.Validate()
}

// RootBlockID reports the current root block id, 0 for an empty tree.
func (idx *Index) RootBlockID() uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.header.Root
}

// Close flushes any dirty cached nodes and the header, then closes the
// backing file. The handle must not be used afterward.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !idx.open {
		return nil
	}

	if err := idx.tree.Flush(); err != nil {
		return errors.Wrap(err, "flush nodes on close")
	}
	if err := idx.store.WriteBlock(0, idx.header.Encode()); err != nil {
		return errors.Wrap(err, "persist header on close")
	}
	if err := idx.store.Close(); err != nil {
		return err
	}

	idx.open = false
	idx.log.Info().Msg("closed index")
	return nil
}
