package reliability

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFile_PreservesContent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("ledger snapshot"), 0o644))

	require.NoError(t, copyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "ledger snapshot", string(got))
}

func TestGzipFile_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "src.txt.gz")
	require.NoError(t, os.WriteFile(src, []byte("some ledger bytes"), 0o644))

	require.NoError(t, gzipFile(src, dst))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()

	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gr.Close()

	decompressed, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Equal(t, "some ledger bytes", string(decompressed))
}

func TestChecksumFile_StableAndPrefixed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("deterministic content"), 0o644))

	sum1, err := checksumFile(path)
	require.NoError(t, err)
	sum2, err := checksumFile(path)
	require.NoError(t, err)

	assert.Equal(t, sum1, sum2)
	assert.Contains(t, sum1, "sha256:")
}

func TestChecksumFile_DiffersOnContentChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")

	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
	sum1, err := checksumFile(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	sum2, err := checksumFile(path)
	require.NoError(t, err)

	assert.NotEqual(t, sum1, sum2)
}
