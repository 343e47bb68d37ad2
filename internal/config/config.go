// Package config holds the tool's persisted settings. There is deliberately
// no package-level singleton: callers load a Settings value and pass it to
// whatever needs it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Settings is the on-disk configuration, stored as JSON.
type Settings struct {
	LoggingLevel     int    `json:"logging_level"`
	CheckUpdates     bool   `json:"check_updates"`
	AutoDetectGames  bool   `json:"auto_detect_games"`
	PreferredGame    string `json:"preferred_game_appid"`
	PreferredProton  string `json:"preferred_proton"`
	UseWineRuntime   bool   `json:"use_wine_runtime"`
	SteamRootOverride string `json:"steam_root_override"`
}

// Defaults returns the settings a fresh install starts with.
func Defaults() Settings {
	return Settings{
		CheckUpdates:    true,
		AutoDetectGames: true,
		PreferredProton: "Proton - Experimental",
	}
}

// DefaultPath returns the standard settings location under the XDG config home.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "lodestone", "settings.json")
}

// Load reads settings from path. A missing file is not an error: defaults are
// returned so first runs work without setup.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), fmt.Errorf("read settings %s: %w", path, err)
	}

	s := Defaults()
	if err := json.Unmarshal(data, &s); err != nil {
		return Defaults(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// Save writes settings to path, creating parent directories as needed.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}
