package pak

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestPak(t *testing.T, aData, bData []byte) string {
	t.Helper()
	w := NewWriter()
	w.AddFile("a.txt", aData)
	w.AddFile("b.bin", bData)

	dir := t.TempDir()
	path := filepath.Join(dir, "assets.pak")
	require.NoError(t, w.Save(path))
	return path
}

func TestPackRoundTripLoadsExactBytes(t *testing.T) {
	aData := bytes.Repeat([]byte("a"), 1024)
	bData := make([]byte, 1<<20)
	rand.New(rand.NewSource(1)).Read(bData)

	path := buildTestPak(t, aData, bData)

	r, err := Open(path)
	require.NoError(t, err)

	got, err := r.LoadFile("a.txt")
	require.NoError(t, err)
	assert.Len(t, got, 1024)
	assert.Equal(t, aData, got)

	got, err = r.LoadFile("b.bin")
	require.NoError(t, err)
	assert.Equal(t, bData, got)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.pak")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pak"), 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestEmptyPackMountsSuccessfully(t *testing.T) {
	w := NewWriter()
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.pak")
	require.NoError(t, w.Save(path))

	r, err := Open(path)
	require.NoError(t, err)
	assert.Empty(t, r.Entries())
}

func TestVFSFallsBackToOSFilesystemForMissingEntry(t *testing.T) {
	aData := []byte("hello")
	path := buildTestPak(t, aData, []byte("world"))

	dir := t.TempDir()
	osFile := filepath.Join(dir, "loose.txt")
	require.NoError(t, os.WriteFile(osFile, []byte("from disk"), 0o644))

	var vfs VFS
	require.NoError(t, vfs.Mount(path))

	got, err := vfs.LoadFile(osFile)
	require.NoError(t, err)
	assert.Equal(t, "from disk", string(got))

	_, err = vfs.LoadFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestVFSPrefersMountedPakOverOSFilesystem(t *testing.T) {
	aData := []byte("packed-a")
	path := buildTestPak(t, aData, []byte("packed-b"))

	var vfs VFS
	require.NoError(t, vfs.Mount(path))

	got, err := vfs.LoadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, aData, got)
}
