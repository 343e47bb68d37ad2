package steamlib

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSteamRoot lays out a minimal Steam install with a userdata directory so
// FindSteamRoot accepts it.
func fakeSteamRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "userdata"), 0755))
	return root
}

func TestFindSteamRootOverride(t *testing.T) {
	root := fakeSteamRoot(t)
	t.Setenv("STEAM_ROOT", root)

	got, err := FindSteamRoot()
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFindSteamRootOverrideNeedsUserdata(t *testing.T) {
	// A STEAM_ROOT without userdata/ is not a Steam install.
	t.Setenv("STEAM_ROOT", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	_, err := FindSteamRoot()
	assert.ErrorIs(t, err, ErrSteamNotFound)
}

func TestFindLatestUser(t *testing.T) {
	t.Parallel()

	root := fakeSteamRoot(t)
	older := filepath.Join(root, "userdata", "11111111")
	newer := filepath.Join(root, "userdata", "22222222")
	ignored := filepath.Join(root, "userdata", "ac_stale") // non-numeric
	for _, dir := range []string{older, newer, ignored} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}

	now := time.Now()
	require.NoError(t, os.Chtimes(older, now.Add(-2*time.Hour), now.Add(-2*time.Hour)))
	require.NoError(t, os.Chtimes(newer, now, now))
	require.NoError(t, os.Chtimes(ignored, now.Add(time.Hour), now.Add(time.Hour)))

	got, err := FindLatestUser(root)
	require.NoError(t, err)
	assert.Equal(t, "22222222", got)
}

func TestFindLatestUserEmpty(t *testing.T) {
	t.Parallel()

	_, err := FindLatestUser(fakeSteamRoot(t))
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/steam/userdata/123/config/shortcuts.vdf", ShortcutsPath("/steam", "123"))
	assert.Equal(t, "/steam/config/config.vdf", ConfigPath("/steam"))
	assert.Equal(t, "/steam/steamapps/compatdata/2934049201", CompatDataPath("/steam", 2934049201))
}

func TestFindLibraries(t *testing.T) {
	t.Parallel()

	root := fakeSteamRoot(t)
	extra := t.TempDir()

	vdfContent := `"libraryfolders"
{
	"0"
	{
		"path"		"` + root + `"
		"label"		""
	}
	"1"
	{
		"path"		"` + extra + `"
		"label"		"games"
	}
}
`
	steamapps := filepath.Join(root, "steamapps")
	require.NoError(t, os.MkdirAll(steamapps, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(steamapps, "libraryfolders.vdf"), []byte(vdfContent), 0644))

	libraries := FindLibraries(root)
	assert.Contains(t, libraries, root)
	assert.Contains(t, libraries, extra)
	// The root is not duplicated even though the vdf lists it.
	assert.Len(t, libraries, 2)
}

func TestFindLibrariesWithoutVDF(t *testing.T) {
	t.Parallel()

	root := fakeSteamRoot(t)
	assert.Equal(t, []string{root}, FindLibraries(root))
}

func TestFindGameByAppIDFromManifest(t *testing.T) {
	t.Parallel()

	root := fakeSteamRoot(t)
	steamapps := filepath.Join(root, "steamapps")
	install := filepath.Join(steamapps, "common", "Fallout New Vegas")
	require.NoError(t, os.MkdirAll(install, 0755))

	manifest := `"AppState"
{
	"appid"		"22380"
	"installdir"		"Fallout New Vegas"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(steamapps, "appmanifest_22380.acf"), []byte(manifest), 0644))

	got, ok := FindGameByAppID("22380", []string{root})
	require.True(t, ok)
	assert.Equal(t, install, got)
}

func TestFindGameByAppIDWellKnownFallback(t *testing.T) {
	t.Parallel()

	// Game folder on disk but no manifest.
	root := fakeSteamRoot(t)
	install := filepath.Join(root, "steamapps", "common", "Skyrim Special Edition")
	require.NoError(t, os.MkdirAll(install, 0755))

	got, ok := FindGameByAppID("489830", []string{root})
	require.True(t, ok)
	assert.Equal(t, install, got)
}

func TestFindGameByAppIDNotInstalled(t *testing.T) {
	t.Parallel()

	_, ok := FindGameByAppID("22380", []string{fakeSteamRoot(t)})
	assert.False(t, ok)
}

func TestFindCompatData(t *testing.T) {
	t.Parallel()

	root := fakeSteamRoot(t)
	compat := filepath.Join(root, "steamapps", "compatdata", "22380")
	require.NoError(t, os.MkdirAll(compat, 0755))

	got, err := FindCompatData("22380", root)
	require.NoError(t, err)
	assert.Equal(t, compat, got)

	_, err = FindCompatData("976620", root)
	assert.Error(t, err)
}

func TestDetectProtonVersion(t *testing.T) {
	t.Parallel()

	compat := t.TempDir()
	assert.Empty(t, DetectProtonVersion(compat))

	require.NoError(t, os.WriteFile(filepath.Join(compat, "version"), []byte("9.0-4 GE-Proton9-27\n"), 0644))
	assert.Equal(t, "9.0-4 GE-Proton9-27", DetectProtonVersion(compat))
}

func TestFindProton(t *testing.T) {
	root := fakeSteamRoot(t)
	// Keep the home-directory fallbacks out of the picture.
	t.Setenv("HOME", t.TempDir())

	tool := filepath.Join(root, "compatibilitytools.d", "GE-Proton9-27")
	require.NoError(t, os.MkdirAll(tool, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tool, "proton"), []byte("#!/bin/sh\n"), 0755))

	valve := filepath.Join(root, "steamapps", "common", "Proton - Experimental")
	require.NoError(t, os.MkdirAll(valve, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(valve, "proton"), []byte("#!/bin/sh\n"), 0755))

	got, err := FindProton(root, "GE-Proton9-27")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tool, "proton"), got)

	got, err = FindProton(root, "Proton - Experimental")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(valve, "proton"), got)

	_, err = FindProton(root, "Proton 3.7")
	assert.ErrorIs(t, err, ErrProtonNotFound)
}

func TestListProtonVersions(t *testing.T) {
	root := fakeSteamRoot(t)
	t.Setenv("HOME", t.TempDir())

	tool := filepath.Join(root, "compatibilitytools.d", "GE-Proton9-27")
	require.NoError(t, os.MkdirAll(tool, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tool, "proton"), []byte("#!/bin/sh\n"), 0755))

	valve := filepath.Join(root, "steamapps", "common", "Proton - Experimental")
	require.NoError(t, os.MkdirAll(valve, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(valve, "proton"), []byte("#!/bin/sh\n"), 0755))

	// Not a Proton build, must be skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "steamapps", "common", "Fallout 4"), 0755))

	versions, err := ListProtonVersions(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"GE-Proton9-27", "Proton - Experimental"}, versions)
}

func TestListProtonVersionsNoneFound(t *testing.T) {
	root := fakeSteamRoot(t)
	t.Setenv("HOME", t.TempDir())

	_, err := ListProtonVersions(root)
	assert.ErrorIs(t, err, ErrProtonNotFound)
}

func TestCompatToolIDValveBuilds(t *testing.T) {
	root := fakeSteamRoot(t)
	t.Setenv("HOME", t.TempDir())

	assert.Equal(t, "proton_experimental", CompatToolID(root, "Proton - Experimental"))
	assert.Equal(t, "proton_hotfix", CompatToolID(root, "Proton Hotfix"))
	assert.Equal(t, "proton_9", CompatToolID(root, "Proton 9.0"))
	assert.Equal(t, "proton_9", CompatToolID(root, "Proton 9.0 (Beta)"))
	assert.Equal(t, "proton_63", CompatToolID(root, "Proton 6.3-8"))
}

func TestCompatToolIDReadsManifest(t *testing.T) {
	root := fakeSteamRoot(t)
	t.Setenv("HOME", t.TempDir())

	tool := filepath.Join(root, "compatibilitytools.d", "GE-Proton9-27")
	require.NoError(t, os.MkdirAll(tool, 0755))
	manifest := `"compatibilitytools"
{
	"compat_tools"
	{
		"GE-Proton9-27"
		{
			"install_path"		"."
			"display_name"		"GE-Proton9-27"
			"from_oslist"		"windows"
			"to_oslist"		"linux"
		}
	}
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tool, "compatibilitytool.vdf"), []byte(manifest), 0644))

	assert.Equal(t, "GE-Proton9-27", CompatToolID(root, "GE-Proton9-27"))
}

func TestCompatToolIDWithoutManifestKeepsName(t *testing.T) {
	root := fakeSteamRoot(t)
	t.Setenv("HOME", t.TempDir())

	tool := filepath.Join(root, "compatibilitytools.d", "GE-Proton8-32")
	require.NoError(t, os.MkdirAll(tool, 0755))

	assert.Equal(t, "GE-Proton8-32", CompatToolID(root, "GE-Proton8-32"))
}
