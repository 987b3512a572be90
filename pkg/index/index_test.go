package index

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/ceth-dev/btreeidx/pkg/btreeerr"
)

func TestCreateThenPutGet(t *testing.T) {
	fs := afero.NewMemMapFs()

	idx, err := Create(fs, "/a.db", Config{Log: zerolog.Nop()})
	require.NoError(t, err)

	require.NoError(t, idx.Put(1, 100))
	v, err := idx.Get(1)
	require.NoError(t, err)
	require.Equal(t, uint64(100), v)

	require.NoError(t, idx.Close())
}

func TestGetMissingKey(t *testing.T) {
	fs := afero.NewMemMapFs()
	idx, err := Create(fs, "/a.db", Config{Log: zerolog.Nop()})
	require.NoError(t, err)
	defer idx.Close()

	_, err = idx.Get(99)
	require.ErrorIs(t, err, btreeerr.ErrNotFound)
}

func TestPutDuplicateRejected(t *testing.T) {
	fs := afero.NewMemMapFs()
	idx, err := Create(fs, "/a.db", Config{Log: zerolog.Nop()})
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Put(5, 50))
	require.ErrorIs(t, idx.Put(5, 60), btreeerr.ErrDuplicateKey)
}

func TestOperationsAfterCloseFailButCloseIsIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	idx, err := Create(fs, "/a.db", Config{Log: zerolog.Nop()})
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	_, err = idx.Get(1)
	require.ErrorIs(t, err, btreeerr.ErrNotOpen)

	err = idx.Put(1, 1)
	require.ErrorIs(t, err, btreeerr.ErrNotOpen)

	require.NoError(t, idx.Close(), "a second Close must be a no-op, not an error")
}

func TestPersistenceAcrossCloseAndReopen(t *testing.T) {
	fs := afero.NewMemMapFs()

	idx, err := Create(fs, "/a.db", Config{Log: zerolog.Nop()})
	require.NoError(t, err)
	for k := uint64(1); k <= 12; k++ {
		require.NoError(t, idx.Put(k, k*10))
	}
	require.NoError(t, idx.Close())

	reopened, err := Open(fs, "/a.db", Config{Log: zerolog.Nop()})
	require.NoError(t, err)
	defer reopened.Close()

	for k := uint64(1); k <= 12; k++ {
		v, err := reopened.Get(k)
		require.NoError(t, err)
		require.Equal(t, k*10, v)
	}
	require.NoError(t, reopened.Validate())
}

func TestOpenRejectsBadMagic(t *testing.T) {
	fs := afero.NewMemMapFs()

	f, err := fs.Create("/bad.db")
	require.NoError(t, err)
	junk := make([]byte, 512)
	copy(junk, "NOTREAL!")
	_, err = f.WriteAt(junk, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(fs, "/bad.db", Config{Log: zerolog.Nop()})
	require.ErrorIs(t, err, btreeerr.ErrBadMagic)
}

func TestCreateOverwritesExistingFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	first, err := Create(fs, "/a.db", Config{Log: zerolog.Nop()})
	require.NoError(t, err)
	require.NoError(t, first.Put(1, 1))
	require.NoError(t, first.Close())

	second, err := Create(fs, "/a.db", Config{Log: zerolog.Nop()})
	require.NoError(t, err)
	defer second.Close()

	_, err = second.Get(1)
	require.ErrorIs(t, err, btreeerr.ErrNotFound, "Create must truncate any existing file")
}

func TestRootBlockIDReflectsSplits(t *testing.T) {
	fs := afero.NewMemMapFs()
	idx, err := Create(fs, "/a.db", Config{Log: zerolog.Nop()})
	require.NoError(t, err)
	defer idx.Close()

	require.Equal(t, uint64(0), idx.RootBlockID())

	require.NoError(t, idx.Put(1, 1))
	firstRoot := idx.RootBlockID()
	require.NotZero(t, firstRoot)

	for k := uint64(2); k <= 10; k++ {
		require.NoError(t, idx.Put(k, k))
	}
	require.NotEqual(t, firstRoot, idx.RootBlockID(), "root split should allocate a new root block")
}

func TestPrintVisitsInPreOrderWithDepth(t *testing.T) {
	fs := afero.NewMemMapFs()
	idx, err := Create(fs, "/a.db", Config{Log: zerolog.Nop()})
	require.NoError(t, err)
	defer idx.Close()

	for k := uint64(1); k <= 10; k++ {
		require.NoError(t, idx.Put(k, k))
	}

	var depths []int
	require.NoError(t, idx.Print(func(depth int, key, value uint64) {
		depths = append(depths, depth)
	}))

	require.Equal(t, 0, depths[0], "first visited key is the root's")
	for _, d := range depths[1:] {
		require.Equal(t, 1, d)
	}
}
