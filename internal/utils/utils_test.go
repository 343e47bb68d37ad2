package utils

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVersion(t *testing.T) {
	t.Parallel()

	v, err := ExtractVersion("Mod Organizer 2 v2.5.2 release", `v(\d+\.\d+\.\d+)`)
	require.NoError(t, err)
	assert.Equal(t, "2.5.2", v)

	_, err = ExtractVersion("no version here", `v(\d+\.\d+\.\d+)`)
	assert.Error(t, err)
}

func TestCopyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0644))

	require.NoError(t, CopyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestFileAndDirectoryExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir), "a directory is not a file")
	assert.True(t, DirectoryExists(dir))
	assert.False(t, DirectoryExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func TestExtractArchiveZip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := filepath.Join(dir, "mo2.zip")
	writeZip(t, archive, map[string]string{
		"ModOrganizer.exe":    "MZ",
		"plugins/example.dll": "MZ",
	})

	target, err := ExtractArchive(archive, filepath.Join(dir, "out"))
	require.NoError(t, err)

	assert.True(t, FileExists(filepath.Join(target, "ModOrganizer.exe")))
	assert.True(t, FileExists(filepath.Join(target, "plugins", "example.dll")))
}

func TestExtractArchiveZipRejectsTraversal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")
	writeZip(t, archive, map[string]string{"../escape.txt": "nope"})

	_, err := ExtractArchive(archive, filepath.Join(dir, "out"))
	assert.Error(t, err)
	assert.False(t, FileExists(filepath.Join(dir, "escape.txt")))
}

func TestExtractArchiveTarGz(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := filepath.Join(dir, "tool.tar.gz")

	f, err := os.Create(archive)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	content := []byte("#!/bin/sh\n")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "bin/tool", Mode: 0755, Size: int64(len(content)), Typeflag: tar.TypeReg,
	}))
	_, err = tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	target, err := ExtractArchive(archive, filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.True(t, FileExists(filepath.Join(target, "bin", "tool")))
}

func TestExtractArchiveUnsupported(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := filepath.Join(dir, "something.rar")
	require.NoError(t, os.WriteFile(archive, []byte("Rar!"), 0644))

	_, err := ExtractArchive(archive, filepath.Join(dir, "out"))
	assert.Error(t, err)
}

func TestExtractArchivePicksUniqueTarget(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := filepath.Join(dir, "mo2.zip")
	writeZip(t, archive, map[string]string{"ModOrganizer.exe": "MZ"})

	out := filepath.Join(dir, "out")
	first, err := ExtractArchive(archive, out)
	require.NoError(t, err)
	assert.Equal(t, out, first)

	// A second extraction must not clobber the first.
	second, err := ExtractArchive(archive, out)
	require.NoError(t, err)
	assert.Equal(t, out+"_1", second)
	assert.True(t, FileExists(filepath.Join(first, "ModOrganizer.exe")))
	assert.True(t, FileExists(filepath.Join(second, "ModOrganizer.exe")))
}

func TestGetHomeDirSafe(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, home, GetHomeDirSafe())
}
