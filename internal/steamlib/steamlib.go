// Package steamlib locates the Steam installation and everything inside it:
// the active user, library folders, installed games, compatdata prefixes, and
// Proton builds.
package steamlib

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/andygrunwald/vdf"
	"github.com/lodestone-mods/lodestone/internal/logging"
)

var (
	// ErrSteamNotFound means no candidate directory contained a userdata
	// folder. Unsupported host environment, not retryable.
	ErrSteamNotFound = errors.New("Steam installation not found")
	// ErrProtonNotFound means no Proton build exists in compatibilitytools.d
	// or any Steam library. There is no fallback to raw system Wine.
	ErrProtonNotFound = errors.New("no Proton installation found")
)

var numericDir = regexp.MustCompile(`^\d+$`)

// FindSteamRoot checks the usual install locations, the Flatpak sandbox, and
// the STEAM_ROOT override, returning the first directory that contains
// userdata/.
func FindSteamRoot() (string, error) {
	logger := logging.GetLogger()
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	candidates := []string{
		os.Getenv("STEAM_ROOT"),
		filepath.Join(home, ".local", "share", "Steam"),
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".steam", "debian-installation"),
		filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", ".local", "share", "Steam"),
		"/usr/local/steam",
		"/usr/share/steam",
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if info, err := os.Stat(filepath.Join(candidate, "userdata")); err == nil && info.IsDir() {
			logger.Info("Found Steam root: " + candidate)
			return candidate, nil
		}
	}
	return "", ErrSteamNotFound
}

// FindLatestUser returns the numeric userdata subdirectory with the most
// recent modification time. Steam does not record which account logged in
// last, so mtime is the proxy.
func FindLatestUser(steamRoot string) (string, error) {
	userdata := filepath.Join(steamRoot, "userdata")
	entries, err := os.ReadDir(userdata)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", userdata, err)
	}

	var latest string
	var latestMod int64
	for _, entry := range entries {
		if !entry.IsDir() || !numericDir.MatchString(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().Unix() > latestMod {
			latest = entry.Name()
			latestMod = info.ModTime().Unix()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no Steam users found under %s", userdata)
	}
	return latest, nil
}

// ShortcutsPath returns the shortcuts.vdf path for one Steam user.
func ShortcutsPath(steamRoot, userID string) string {
	return filepath.Join(steamRoot, "userdata", userID, "config", "shortcuts.vdf")
}

// ConfigPath returns the global config.vdf path holding CompatToolMapping.
func ConfigPath(steamRoot string) string {
	return filepath.Join(steamRoot, "config", "config.vdf")
}

// CompatDataPath returns the compatdata directory for an AppID.
func CompatDataPath(steamRoot string, appID uint32) string {
	return filepath.Join(steamRoot, "steamapps", "compatdata", fmt.Sprintf("%d", appID))
}

// FindLibraries returns every Steam library root: the install root itself
// plus each "path" entry in steamapps/libraryfolders.vdf.
func FindLibraries(steamRoot string) []string {
	logger := logging.GetLogger()
	libraries := []string{steamRoot}

	path := filepath.Join(steamRoot, "steamapps", "libraryfolders.vdf")
	f, err := os.Open(path)
	if err != nil {
		return libraries
	}
	defer f.Close()

	m, err := vdf.NewParser(f).Parse()
	if err != nil {
		logger.Warning(fmt.Sprintf("Failed to parse %s: %v", path, err))
		return libraries
	}

	folders, ok := lookupKey(m, "libraryfolders").(map[string]any)
	if !ok {
		return libraries
	}
	for _, v := range folders {
		folder, ok := v.(map[string]any)
		if !ok {
			continue
		}
		libraryPath, ok := lookupKey(folder, "path").(string)
		if !ok || libraryPath == "" || libraryPath == steamRoot {
			continue
		}
		libraries = append(libraries, libraryPath)
	}
	return libraries
}

// lookupKey finds a key case-insensitively; Valve's text VDF keys vary in
// casing between Steam versions.
func lookupKey(m map[string]any, key string) any {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

// wellKnownFolders maps AppIDs of commonly modded titles to their
// steamapps/common folder names, used when no app manifest exists.
var wellKnownFolders = map[string]string{
	"22380":   "Fallout New Vegas",
	"377160":  "Fallout 4",
	"489830":  "Skyrim Special Edition",
	"72850":   "Skyrim",
	"976620":  "Enderal Special Edition",
	"1716740": "Starfield",
	"22370":   "Fallout 3 goty",
	"1091500": "Cyberpunk 2077",
}

// FindGameByAppID locates a game's install directory across all libraries.
// The app manifest's installdir is authoritative; the well-known folder list
// is a fallback for manifests that were removed but left the game on disk.
func FindGameByAppID(appID string, libraries []string) (string, bool) {
	for _, library := range libraries {
		steamApps := filepath.Join(library, "steamapps")
		if installDir, ok := manifestInstallDir(steamApps, appID); ok {
			full := filepath.Join(steamApps, "common", installDir)
			if dirExists(full) {
				return full, true
			}
		}
		if folder, ok := wellKnownFolders[appID]; ok {
			full := filepath.Join(steamApps, "common", folder)
			if dirExists(full) {
				return full, true
			}
		}
	}
	return "", false
}

func manifestInstallDir(steamAppsDir, appID string) (string, bool) {
	path := filepath.Join(steamAppsDir, "appmanifest_"+appID+".acf")
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	m, err := vdf.NewParser(f).Parse()
	if err != nil {
		logging.GetLogger().Warning(fmt.Sprintf("Failed to parse %s: %v", path, err))
		return "", false
	}
	appState, ok := lookupKey(m, "AppState").(map[string]any)
	if !ok {
		return "", false
	}
	installDir, ok := lookupKey(appState, "installdir").(string)
	return installDir, ok && installDir != ""
}

// FindCompatData locates an existing compatdata directory for an AppID in any
// library.
func FindCompatData(appID, steamRoot string) (string, error) {
	for _, library := range FindLibraries(steamRoot) {
		path := filepath.Join(library, "steamapps", "compatdata", appID)
		if dirExists(path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("compatibility data not found for AppID %s", appID)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
