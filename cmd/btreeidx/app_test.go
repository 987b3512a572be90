package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func runSession(t *testing.T, fs afero.Fs, script string) string {
	t.Helper()

	var out bytes.Buffer
	a := newApp(fs, strings.NewReader(script), &out, zerolog.Nop(), 0)
	code := a.run()
	require.Equal(t, 0, code)
	return out.String()
}

func TestCreateInsertSearchQuit(t *testing.T) {
	fs := afero.NewMemMapFs()

	out := runSession(t, fs, strings.Join([]string{
		"create",
		"/idx.db",
		"insert",
		"7",
		"700",
		"search",
		"7",
		"quit",
	}, "\n")+"\n")

	require.Contains(t, out, "B-Tree file created successfully.")
	require.Contains(t, out, "Key-value pair inserted successfully.")
	require.Contains(t, out, "Found: Key = 7, Value = 700")
}

func TestSearchMissingKeyReportsNotFound(t *testing.T) {
	fs := afero.NewMemMapFs()

	out := runSession(t, fs, strings.Join([]string{
		"create",
		"/idx.db",
		"search",
		"99",
		"quit",
	}, "\n")+"\n")

	require.Contains(t, out, "Key not found.")
}

func TestCommandsBeforeOpenReportError(t *testing.T) {
	fs := afero.NewMemMapFs()

	out := runSession(t, fs, strings.Join([]string{
		"insert",
		"quit",
	}, "\n")+"\n")

	require.Contains(t, out, "No index file is currently open.")
}

func TestCreateDeclinedOverwriteCancelsOperation(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/idx.db", []byte("existing"), 0o644))

	out := runSession(t, fs, strings.Join([]string{
		"create",
		"/idx.db",
		"n",
		"quit",
	}, "\n")+"\n")

	require.Contains(t, out, "File exists. Overwrite?")
	require.Contains(t, out, "Operation cancelled.")
}

func TestLoadThenExtractRoundTrips(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/pairs.txt", []byte("1,10\n2,20\n"), 0o644))

	out := runSession(t, fs, strings.Join([]string{
		"create",
		"/idx.db",
		"load",
		"/pairs.txt",
		"extract",
		"/out.txt",
		"quit",
	}, "\n")+"\n")

	require.Contains(t, out, "Data loaded successfully (2 pairs).")
	require.Contains(t, out, "Data extracted successfully (2 pairs).")

	data, err := afero.ReadFile(fs, "/out.txt")
	require.NoError(t, err)
	require.Contains(t, string(data), "1,10\n")
	require.Contains(t, string(data), "2,20\n")
}

func TestUnknownCommandPrintsAdvisoryAndContinues(t *testing.T) {
	fs := afero.NewMemMapFs()

	out := runSession(t, fs, strings.Join([]string{
		"bogus",
		"quit",
	}, "\n")+"\n")

	require.Contains(t, out, "Unknown command.")
}
