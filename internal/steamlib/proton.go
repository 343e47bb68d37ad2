package steamlib

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andygrunwald/vdf"
	"github.com/lodestone-mods/lodestone/internal/logging"
)

// FindProton resolves the proton launcher script for a named build. Custom
// and community builds under compatibilitytools.d win over Valve-distributed
// ones in steamapps/common; the first existing binary is returned.
func FindProton(steamRoot, versionName string) (string, error) {
	logger := logging.GetLogger()
	home, _ := os.UserHomeDir()

	compatToolDirs := []string{
		filepath.Join(steamRoot, "compatibilitytools.d"),
		filepath.Join(home, ".steam", "root", "compatibilitytools.d"),
		filepath.Join(home, ".local", "share", "Steam", "compatibilitytools.d"),
	}
	for _, dir := range compatToolDirs {
		candidate := filepath.Join(dir, versionName, "proton")
		if fileExists(candidate) {
			logger.Info("Found Proton in compatibility tools: " + candidate)
			return candidate, nil
		}
	}

	for _, library := range FindLibraries(steamRoot) {
		candidate := filepath.Join(library, "steamapps", "common", versionName, "proton")
		if fileExists(candidate) {
			logger.Info("Found Proton in Steam library: " + candidate)
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: version %q", ErrProtonNotFound, versionName)
}

// ListProtonVersions enumerates every Proton build available on the system,
// community builds first.
func ListProtonVersions(steamRoot string) ([]string, error) {
	home, _ := os.UserHomeDir()
	seen := make(map[string]bool)
	var versions []string

	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			versions = append(versions, name)
		}
	}

	compatToolDirs := []string{
		filepath.Join(steamRoot, "compatibilitytools.d"),
		filepath.Join(home, ".steam", "root", "compatibilitytools.d"),
		filepath.Join(home, ".local", "share", "Steam", "compatibilitytools.d"),
	}
	for _, dir := range compatToolDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() && fileExists(filepath.Join(dir, entry.Name(), "proton")) {
				add(entry.Name())
			}
		}
	}

	for _, library := range FindLibraries(steamRoot) {
		commonDir := filepath.Join(library, "steamapps", "common")
		entries, err := os.ReadDir(commonDir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() && strings.HasPrefix(entry.Name(), "Proton") &&
				fileExists(filepath.Join(commonDir, entry.Name(), "proton")) {
				add(entry.Name())
			}
		}
	}

	if len(versions) == 0 {
		return nil, ErrProtonNotFound
	}
	return versions, nil
}

// CompatToolID translates a Proton build's folder name into the tool
// identifier Steam records in CompatToolMapping. Community builds declare
// theirs in compatibilitytool.vdf; Valve builds use fixed identifiers that
// differ from the folder name ("Proton - Experimental" is pinned as
// "proton_experimental").
func CompatToolID(steamRoot, versionName string) string {
	home, _ := os.UserHomeDir()
	compatToolDirs := []string{
		filepath.Join(steamRoot, "compatibilitytools.d"),
		filepath.Join(home, ".steam", "root", "compatibilitytools.d"),
		filepath.Join(home, ".local", "share", "Steam", "compatibilitytools.d"),
	}
	for _, dir := range compatToolDirs {
		if id, ok := compatToolManifestID(filepath.Join(dir, versionName, "compatibilitytool.vdf")); ok {
			return id
		}
	}

	switch versionName {
	case "Proton - Experimental":
		return "proton_experimental"
	case "Proton Hotfix":
		return "proton_hotfix"
	}
	if rest, ok := strings.CutPrefix(versionName, "Proton "); ok {
		// "Proton 9.0 (Beta)" pins as proton_9, "Proton 6.3-8" as proton_63.
		ver, _, _ := strings.Cut(rest, " ")
		ver, _, _ = strings.Cut(ver, "-")
		if major, minor, found := strings.Cut(ver, "."); found {
			if minor == "0" {
				return "proton_" + major
			}
			return "proton_" + major + minor
		}
	}
	return versionName
}

// compatToolManifestID reads the internal name a community build registers
// itself under, the key below compat_tools in its compatibilitytool.vdf.
func compatToolManifestID(path string) (string, bool) {
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
	tools, ok := lookupKey(m, "compatibilitytools").(map[string]any)
	if !ok {
		return "", false
	}
	compat, ok := lookupKey(tools, "compat_tools").(map[string]any)
	if !ok {
		return "", false
	}
	for name := range compat {
		return name, true
	}
	return "", false
}

// DetectProtonVersion reads the version marker files Proton leaves in a
// game's compatdata, if any.
func DetectProtonVersion(compatDataPath string) string {
	logger := logging.GetLogger()
	for _, name := range []string{"version", "proton_version", "compatibility_tool"} {
		content, err := os.ReadFile(filepath.Join(compatDataPath, name))
		if err != nil {
			continue
		}
		version := strings.TrimSpace(string(content))
		if version != "" {
			logger.Info("Detected Proton version from prefix: " + version)
			return version
		}
	}
	return ""
}
