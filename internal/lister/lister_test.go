package lister

import (
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func newFS(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/data/nested", 0o750))
	require.NoError(t, afero.WriteFile(fs, "/data/2017.json", []byte("bbbb\n"), 0o600))
	require.NoError(t, afero.WriteFile(fs, "/data/2016.json", []byte("aa\n"), 0o600))
	require.NoError(t, afero.WriteFile(fs, "/data/.DS_Store", []byte("x"), 0o600))
	return fs
}

func TestListSortsAndSums(t *testing.T) {
	t.Parallel()

	l := New(newFS(t))
	listing, err := l.List("/data")
	require.NoError(t, err)
	require.Equal(t, []string{"2016.json", "2017.json"}, listing.Names())
	require.Equal(t, int64(8), listing.TotalBytes())
}

func TestListMissingDir(t *testing.T) {
	t.Parallel()

	_, err := New(afero.NewMemMapFs()).List("/nope")
	require.Error(t, err)
	_, err = New(afero.NewMemMapFs()).List(" ")
	require.Error(t, err)
}

func TestOpener(t *testing.T) {
	t.Parallel()

	l := New(newFS(t))
	open := l.Opener("/data")
	rc, err := open("2017.json")
	require.NoError(t, err)
	defer func() { require.NoError(t, rc.Close()) }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "bbbb\n", string(data))

	_, err = open("missing.json")
	require.Error(t, err)
}
