package winereg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegFileRemapsRoots(t *testing.T) {
	t.Parallel()

	content := `Windows Registry Editor Version 5.00

[HKEY_CURRENT_USER\Software\Wine\X11 Driver]
"Decorated"="Y"

[HKEY_LOCAL_MACHINE\Software\Microsoft\Windows NT\CurrentVersion]
"CurrentVersion"="10.0"
`
	keys, err := ParseRegFile(content)
	require.NoError(t, err)
	require.Len(t, keys, 2)

	assert.Equal(t, `S-1-5-21-0-0-0-1000\Software\Wine\X11 Driver`, keys[0].Path)
	require.Len(t, keys[0].Values, 1)
	assert.Equal(t, "Decorated", keys[0].Values[0].Name)
	assert.Equal(t, "Y", keys[0].Values[0].Data)

	assert.Equal(t, `Software\Microsoft\Windows NT\CurrentVersion`, keys[1].Path)
}

func TestParseRegFileDword(t *testing.T) {
	t.Parallel()

	content := `[HKEY_CURRENT_USER\Software\Wine\Direct3D]
"csmt"=dword:00000003
"MaxVersionGL"=dword:00040006
`
	keys, err := ParseRegFile(content)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Len(t, keys[0].Values, 2)

	assert.True(t, keys[0].Values[0].IsDword)
	assert.Equal(t, uint32(3), keys[0].Values[0].Dword)
	assert.Equal(t, uint32(0x40006), keys[0].Values[1].Dword)
}

func TestParseRegFileUnescapesStrings(t *testing.T) {
	t.Parallel()

	content := `[HKEY_CURRENT_USER\Environment]
"TEMP"="C:\\users\\steamuser\\Temp"
`
	keys, err := ParseRegFile(content)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, `C:\users\steamuser\Temp`, keys[0].Values[0].Data)
}

func TestParseRegFileSkipsCommentsAndHeaders(t *testing.T) {
	t.Parallel()

	content := `REGEDIT4
; display tuning

[HKEY_CURRENT_USER\Software\Wine]
"Version"="win10"
`
	keys, err := ParseRegFile(content)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Len(t, keys[0].Values, 1)
}

func TestParseRegFileValueOutsideSection(t *testing.T) {
	t.Parallel()

	_, err := ParseRegFile(`"orphan"="x"` + "\n")
	assert.Error(t, err)
}

func TestParseRegFileUnterminatedHeader(t *testing.T) {
	t.Parallel()

	_, err := ParseRegFile("[HKEY_CURRENT_USER\\Software\\Wine\n")
	assert.Error(t, err)
}

func TestEmbeddedBundleParses(t *testing.T) {
	t.Parallel()

	keys, err := ParseRegFile(wineSettingsReg)
	require.NoError(t, err)
	assert.NotEmpty(t, keys)
	for _, key := range keys {
		assert.False(t, strings.HasPrefix(key.Path, "HKEY_"), "root not remapped: %s", key.Path)
	}
}

func TestApplySettingsBundle(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "system.reg")
	require.NoError(t, os.WriteFile(path, []byte("WINE REGISTRY Version 2\n"), 0644))

	require.NoError(t, ApplySettingsBundle(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "#time=")
}

func TestApplySettingsBundleNeedsRegistry(t *testing.T) {
	t.Parallel()

	err := ApplySettingsBundle(filepath.Join(t.TempDir(), "system.reg"))
	assert.ErrorIs(t, err, ErrRegistryMissing)
}
