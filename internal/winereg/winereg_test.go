package winereg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSystemReg(t *testing.T, initial string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "system.reg")
	require.NoError(t, os.WriteFile(path, []byte(initial), 0644))
	return path
}

func TestAppendKeysMissingRegistry(t *testing.T) {
	t.Parallel()

	err := AppendKeys(filepath.Join(t.TempDir(), "system.reg"), []Key{
		{Path: `Software\Test`},
	})
	assert.ErrorIs(t, err, ErrRegistryMissing)
}

func TestAppendKeysBlockShape(t *testing.T) {
	t.Parallel()

	header := "WINE REGISTRY Version 2\n;; All keys relative to \\\\Machine\n"
	path := testSystemReg(t, header)

	err := AppendKeys(path, []Key{
		{
			Path: `Software\Wow6432Node\Bethesda Softworks\FalloutNV`,
			Values: []Value{
				{Name: "Installed Path", Data: `Z:\games\FalloutNV`},
				{Name: "UseVideoMemorySizeMb", Dword: 4096, IsDword: true},
			},
		},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := string(data)

	// The original content is untouched; blocks are appended.
	assert.True(t, strings.HasPrefix(got, header))

	assert.Contains(t, got, `[Software\\Wow6432Node\\Bethesda Softworks\\FalloutNV]`)
	assert.Contains(t, got, "#time=")
	assert.Contains(t, got, `"Installed Path"="Z:\\games\\FalloutNV"`)
	assert.Contains(t, got, `"UseVideoMemorySizeMb"=dword:00001000`)
}

func TestAppendKeysWinsByLastOccurrence(t *testing.T) {
	t.Parallel()

	path := testSystemReg(t, "WINE REGISTRY Version 2\n")

	key := Key{Path: `Software\Test`, Values: []Value{{Name: "v", Data: "first"}}}
	require.NoError(t, AppendKeys(path, []Key{key}))

	key.Values[0].Data = "second"
	require.NoError(t, AppendKeys(path, []Key{key}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := string(data)

	// Both blocks are present; Wine resolves to the later one.
	assert.Equal(t, 2, strings.Count(got, `[Software\\Test]`))
	assert.Greater(t, strings.LastIndex(got, `"v"="second"`), strings.LastIndex(got, `"v"="first"`))
}

func TestWindowsFileTime(t *testing.T) {
	t.Parallel()

	// The Unix epoch in Windows filetime units.
	assert.Equal(t, uint64(116444736000000000), windowsFileTime(time.Unix(0, 0)))
	// One second later is ten million 100ns ticks later.
	assert.Equal(t, uint64(116444736010000000), windowsFileTime(time.Unix(1, 0)))
}

func TestWindowsPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `Z:\home\user\Games\FalloutNV`, WindowsPath("/home/user/Games/FalloutNV"))
	assert.Equal(t, `Z:\`, WindowsPath("/"))
}

func TestGamePathKey(t *testing.T) {
	t.Parallel()

	key := GamePathKey(`Software\Wow6432Node\Bethesda Softworks\FalloutNV`, "Installed Path", "/games/FalloutNV")
	require.Len(t, key.Values, 1)
	assert.Equal(t, "Installed Path", key.Values[0].Name)
	assert.Equal(t, `Z:\games\FalloutNV`, key.Values[0].Data)
	assert.False(t, key.Values[0].IsDword)
}

func TestEscapeData(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `C:\\Program Files\\\"MO2\"`, escapeData(`C:\Program Files\"MO2"`))
}
