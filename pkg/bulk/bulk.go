// Package bulk implements the text pair codec used to load and extract an
// index's contents: one "key,value" line per pair, both fields ASCII
// decimal uint64. It reads and writes through an afero.Fs so it shares the
// same testable filesystem abstraction as pkg/block.
package bulk

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/ceth-dev/btreeidx/pkg/btree"
	"github.com/ceth-dev/btreeidx/pkg/btreeerr"
)

// Inserter is the subset of *index.Index that Load needs. Accepting an
// interface rather than the concrete type keeps this package free of a
// dependency on pkg/index.
type Inserter interface {
	Put(key, value uint64) error
}

// Traverser is the subset of *index.Index that Extract needs.
type Traverser interface {
	Traverse(visit btree.Visitor) error
}

// Load reads key,value lines from path and inserts each into idx. Malformed
// lines and failed insertions (e.g. duplicate keys) are logged and skipped;
// Load only returns an error if the file itself cannot be read. It returns
// the count of pairs successfully inserted.
func Load(fs afero.Fs, path string, idx Inserter, log zerolog.Logger) (int, error) {
	f, err := fs.Open(path)
	if err != nil {
		return 0, errors.Wrapf(btreeerr.ErrIO, "open %s: %v", path, err)
	}
	defer f.Close()

	inserted := 0
	lineNo := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		key, value, err := parseLine(line)
		if err != nil {
			log.Warn().Int("line", lineNo).Str("text", line).Err(err).Msg("skipping malformed line")
			continue
		}

		if err := idx.Put(key, value); err != nil {
			log.Warn().Int("line", lineNo).Uint64("key", key).Err(err).Msg("skipping line, insert failed")
			continue
		}
		inserted++
	}
	if err := scanner.Err(); err != nil {
		return inserted, errors.Wrapf(btreeerr.ErrIO, "read %s: %v", path, err)
	}

	return inserted, nil
}

func parseLine(line string) (key, value uint64, err error) {
	parts := strings.SplitN(line, ",", 2)
	if len(parts) != 2 {
		return 0, 0, errors.Wrapf(btreeerr.ErrParse, "expected key,value, got %q", line)
	}

	key, err = strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, 0, errors.Wrapf(btreeerr.ErrParse, "bad key in %q: %v", line, err)
	}
	value, err = strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, 0, errors.Wrapf(btreeerr.ErrParse, "bad value in %q: %v", line, err)
	}
	return key, value, nil
}

// Extract writes every pair in idx, in the tree's pre-order traversal
// order, to path as key,value lines.
func Extract(fs afero.Fs, path string, idx Traverser) (int, error) {
	f, err := fs.Create(path)
	if err != nil {
		return 0, errors.Wrapf(btreeerr.ErrIO, "create %s: %v", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	count := 0
	var visitErr error
	err = idx.Traverse(func(key, value uint64) {
		if visitErr != nil {
			return
		}
		if _, werr := fmt.Fprintf(w, "%d,%d\n", key, value); werr != nil {
			visitErr = werr
			return
		}
		count++
	})
	if err != nil {
		return count, err
	}
	if visitErr != nil {
		return count, errors.Wrapf(btreeerr.ErrIO, "write %s: %v", path, visitErr)
	}
	if err := w.Flush(); err != nil {
		return count, errors.Wrapf(btreeerr.ErrIO, "flush %s: %v", path, err)
	}
	return count, nil
}
