package nxm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) (home string) {
	t.Helper()

	steamRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(steamRoot, "userdata"), 0755))
	t.Setenv("STEAM_ROOT", steamRoot)

	home = t.TempDir()
	t.Setenv("HOME", home)
	// Keep xdg-mime and update-desktop-database out of the test.
	t.Setenv("PATH", "")
	return home
}

func readDesktop(t *testing.T, home, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(home, ".local", "share", "applications", name))
	require.NoError(t, err)
	return string(data)
}

func TestInstallForMO2(t *testing.T) {
	home := setupEnv(t)

	h := NewHandler()
	err := h.InstallForMO2("/home/user/MO2/nxmhandler.exe", "/steam/proton", "/steam/steamapps/compatdata/123")
	require.NoError(t, err)

	got := readDesktop(t, home, "mo2-nxm-handler.desktop")
	assert.Contains(t, got, "[Desktop Entry]")
	assert.Contains(t, got, "Name=MO2 NXM Handler")
	assert.Contains(t, got, `"STEAM_COMPAT_DATA_PATH=/steam/steamapps/compatdata/123"`)
	assert.Contains(t, got, `"/steam/proton" run "/home/user/MO2/nxmhandler.exe" "%u"`)
	assert.Contains(t, got, "MimeType=x-scheme-handler/nxm;")
	assert.NotContains(t, got, "nxm-protocol")
}

func TestInstallForVortex(t *testing.T) {
	home := setupEnv(t)

	h := NewHandler()
	err := h.InstallForVortex("/home/user/Vortex/Vortex.exe", "/steam/proton", "/steam/steamapps/compatdata/456")
	require.NoError(t, err)

	got := readDesktop(t, home, "vortex-nxm-handler.desktop")
	assert.Contains(t, got, "Name=Vortex NXM Handler")
	// Vortex wants the download flag ahead of the link.
	assert.Contains(t, got, `run "/home/user/Vortex/Vortex.exe" "-d" "%u"`)
	assert.Contains(t, got, "MimeType=x-scheme-handler/nxm;x-scheme-handler/nxm-protocol;")
}

func TestInstallFallsBackToMimeappsList(t *testing.T) {
	home := setupEnv(t)

	h := NewHandler()
	require.NoError(t, h.InstallForMO2("/x/nxmhandler.exe", "/p/proton", "/c/123"))

	// With xdg-mime unavailable the handler lands in mimeapps.list.
	data, err := os.ReadFile(filepath.Join(home, ".config", "mimeapps.list"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Default Applications]")
	assert.Contains(t, string(data), "x-scheme-handler/nxm=mo2-nxm-handler.desktop")
}

func TestInstallReplacesStaleMimeEntry(t *testing.T) {
	home := setupEnv(t)

	configDir := filepath.Join(home, ".config")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	stale := "[Default Applications]\nx-scheme-handler/nxm=vortex-nxm-handler.desktop\n"
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "mimeapps.list"), []byte(stale), 0644))

	h := NewHandler()
	require.NoError(t, h.InstallForMO2("/x/nxmhandler.exe", "/p/proton", "/c/123"))

	data, err := os.ReadFile(filepath.Join(configDir, "mimeapps.list"))
	require.NoError(t, err)
	got := string(data)
	assert.Contains(t, got, "x-scheme-handler/nxm=mo2-nxm-handler.desktop")
	assert.NotContains(t, got, "x-scheme-handler/nxm=vortex-nxm-handler.desktop")
}

func TestRemove(t *testing.T) {
	home := setupEnv(t)

	h := NewHandler()
	require.NoError(t, h.InstallForMO2("/x/nxmhandler.exe", "/p/proton", "/c/123"))

	desktopFile := filepath.Join(home, ".local", "share", "applications", "mo2-nxm-handler.desktop")
	require.FileExists(t, desktopFile)

	require.NoError(t, h.Remove("mo2-nxm-handler.desktop"))
	assert.NoFileExists(t, desktopFile)

	// Removing an absent handler is a no-op.
	require.NoError(t, h.Remove("mo2-nxm-handler.desktop"))
}
