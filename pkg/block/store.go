// Package block provides a thread-safe interface for block-addressed file
// operations. Every block is a fixed Size-byte region of the backing file,
// addressed by a zero-based id; block 0 always holds the file header.
package block

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/ceth-dev/btreeidx/pkg/btreeerr"
)

// Size is the fixed size, in bytes, of every block in an index file.
const Size = 512

// Store represents a thread-safe, block-addressed file handler. It provides
// concurrent read/write access to a single backing file through an afero.Fs,
// so the same code path can run against a real disk file or an in-memory
// filesystem in tests.
type Store struct {
	fs   afero.Fs
	file afero.File
	mu   sync.RWMutex
}

// Create truncates or creates the file at path for read-write access and
// returns a Store positioned at block 0.
func Create(fs afero.Fs, path string) (*Store, error) {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(btreeerr.ErrIO, "create parent dirs for %s: %v", path, err)
	}

	file, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrapf(btreeerr.ErrIO, "create %s: %v", path, err)
	}

	return &Store{fs: fs, file: file}, nil
}

// Open opens an existing file at path for read-write access. It fails if the
// file does not exist.
func Open(fs afero.Fs, path string) (*Store, error) {
	file, err := fs.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Wrapf(btreeerr.ErrIO, "open %s: %v", path, err)
	}

	return &Store{fs: fs, file: file}, nil
}

// ReadBlock seeks to blockID*Size and reads exactly Size bytes.
func (s *Store) ReadBlock(blockID uint64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf := make([]byte, Size)
	n, err := s.file.ReadAt(buf, int64(blockID)*Size)
	if err != nil || n != Size {
		return nil, errors.Wrapf(btreeerr.ErrIO, "read block %d: %v", blockID, err)
	}
	return buf, nil
}

// WriteBlock seeks to blockID*Size and writes exactly Size bytes, flushing
// the underlying buffer to the OS before returning. data must be exactly
// Size bytes long.
func (s *Store) WriteBlock(blockID uint64, data []byte) error {
	if len(data) != Size {
		return errors.Wrapf(btreeerr.ErrIO, "write block %d: expected %d bytes, got %d", blockID, Size, len(data))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.file.WriteAt(data, int64(blockID)*Size)
	if err != nil || n != Size {
		return errors.Wrapf(btreeerr.ErrIO, "write block %d: %v", blockID, err)
	}
	if err := s.file.Sync(); err != nil {
		return errors.Wrapf(btreeerr.ErrIO, "sync block %d: %v", blockID, err)
	}
	return nil
}

// BlockCount returns the number of Size-byte blocks currently in the file,
// including block 0.
func (s *Store) BlockCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := s.file.Stat()
	if err != nil {
		return 0, errors.Wrap(btreeerr.ErrIO, err.Error())
	}
	return uint64(info.Size()) / Size, nil
}

// Close closes the backing file. It is not safe to call any other Store
// method afterward.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.file.Close(); err != nil {
		return errors.Wrap(btreeerr.ErrIO, err.Error())
	}
	return nil
}
