package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	s, err := Load(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
	assert.True(t, s.CheckUpdates)
	assert.Equal(t, "Proton - Experimental", s.PreferredProton)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	s := Defaults()
	s.CheckUpdates = false
	s.PreferredGame = "22380"
	s.SteamRootOverride = "/opt/steam"

	require.NoError(t, Save(path, s))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"preferred_game_appid": "976620"}`), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "976620", s.PreferredGame)
	// Unlisted fields keep their defaults.
	assert.True(t, s.CheckUpdates)
	assert.Equal(t, "Proton - Experimental", s.PreferredProton)
}

func TestLoadMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s, err := Load(path)
	assert.Error(t, err)
	// Defaults still come back so the caller can limp along.
	assert.Equal(t, Defaults(), s)
}
