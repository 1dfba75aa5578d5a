package storage

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackageZip_FlatBaseNames(t *testing.T) {
	store, err := NewFileArtifactStore(t.TempDir())
	require.NoError(t, err)
	dir, err := store.NewRunDir()
	require.NoError(t, err)

	first := filepath.Join(dir, "frame_0002.jpg")
	second := filepath.Join(dir, "frame_0007.jpg")
	require.NoError(t, os.WriteFile(first, []byte("two"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("seven"), 0644))

	archivePath, err := store.PackageZip([]string{first, second})
	require.NoError(t, err)
	defer os.Remove(archivePath)

	zr, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 2)
	require.Equal(t, "frame_0002.jpg", zr.File[0].Name)
	require.Equal(t, "frame_0007.jpg", zr.File[1].Name)
	require.Equal(t, zip.Deflate, zr.File[0].Method)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "seven", string(data))
}

func TestPackageZip_EmptyListGivesEmptyArchive(t *testing.T) {
	store, err := NewFileArtifactStore(t.TempDir())
	require.NoError(t, err)

	archivePath, err := store.PackageZip(nil)
	require.NoError(t, err)
	defer os.Remove(archivePath)

	zr, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer zr.Close()
	require.Empty(t, zr.File)
}

func TestPackageZip_MissingFileLeavesNoArchive(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileArtifactStore(root)
	require.NoError(t, err)

	_, err = store.PackageZip([]string{filepath.Join(root, "gone.jpg")})
	require.Error(t, err)

	matches, err := filepath.Glob(filepath.Join(store.Root(), "damage_frames-*.zip"))
	require.NoError(t, err)
	require.Empty(t, matches)
}
