package block

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/ceth-dev/btreeidx/pkg/btreeerr"
)

func TestCreateThenWriteReadBlock(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := Create(fs, "/nested/dir/index.db")
	require.NoError(t, err)
	defer s.Close()

	data := bytes.Repeat([]byte{0xAB}, Size)
	require.NoError(t, s.WriteBlock(2, data))

	got, err := s.ReadBlock(2)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestWriteBlockRejectsWrongSize(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := Create(fs, "/index.db")
	require.NoError(t, err)
	defer s.Close()

	err = s.WriteBlock(0, make([]byte, 10))
	require.Error(t, err)
}

func TestOpenFailsIfFileMissing(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := Open(fs, "/missing.db")
	require.ErrorIs(t, err, btreeerr.ErrIO)
}

func TestBlockCountGrowsWithWrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := Create(fs, "/index.db")
	require.NoError(t, err)
	defer s.Close()

	count, err := s.BlockCount()
	require.NoError(t, err)
	require.Equal(t, uint64(0), count)

	require.NoError(t, s.WriteBlock(0, make([]byte, Size)))
	count, err = s.BlockCount()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	require.NoError(t, s.WriteBlock(4, make([]byte, Size)))
	count, err = s.BlockCount()
	require.NoError(t, err)
	require.Equal(t, uint64(5), count)
}

func TestCreateTruncatesExistingFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	s1, err := Create(fs, "/index.db")
	require.NoError(t, err)
	require.NoError(t, s1.WriteBlock(0, bytes.Repeat([]byte{1}, Size)))
	require.NoError(t, s1.Close())

	s2, err := Create(fs, "/index.db")
	require.NoError(t, err)
	defer s2.Close()

	count, err := s2.BlockCount()
	require.NoError(t, err)
	require.Equal(t, uint64(0), count)
}
