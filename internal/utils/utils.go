package utils

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bodgit/sevenzip"
	"github.com/lodestone-mods/lodestone/internal/logging"
	"github.com/lodestone-mods/lodestone/internal/ui"
)

var logger = logging.GetLogger()

// CommandExists checks if a command exists in PATH
func CommandExists(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}

// RunCommand executes a command and returns the output
func RunCommand(command string, args ...string) (string, error) {
	cmd := exec.Command(command, args...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// RunCommandWithProgress executes a command and shows progress
func RunCommandWithProgress(command string, args ...string) error {
	cmd := exec.Command(command, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// GetHomeDir returns the user's home directory
func GetHomeDir() (string, error) {
	return os.UserHomeDir()
}

// GetHomeDirSafe returns the user's home directory or a fallback
func GetHomeDirSafe() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "/tmp"
	}
	return homeDir
}

// CreateDirectory creates a directory and its parents if needed
func CreateDirectory(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// DirectoryExists checks if a directory exists
func DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// CopyFile copies a file from src to dst
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = destFile.ReadFrom(sourceFile)
	return err
}

// GetProtontricksCommand returns the appropriate protontricks command
func GetProtontricksCommand() (string, error) {
	if CommandExists("protontricks") {
		logger.Info("Using native protontricks")
		return "protontricks", nil
	}

	// Check for flatpak protontricks
	cmd := exec.Command("flatpak", "list", "--app", "--columns=application")
	output, err := cmd.Output()
	if err == nil && strings.Contains(string(output), "com.github.Matoking.protontricks") {
		logger.Info("Using flatpak protontricks")
		return "flatpak run com.github.Matoking.protontricks", nil
	}

	return "", fmt.Errorf("protontricks not found")
}

// CheckDependencies verifies required dependencies are installed
func CheckDependencies() error {
	_, err := GetProtontricksCommand()
	if err != nil {
		return fmt.Errorf("protontricks is not installed. Install it with:\n- Native: sudo apt install protontricks\n- Flatpak: flatpak install com.github.Matoking.protontricks")
	}

	logger.Info("Dependencies check passed")
	return nil
}

// Game represents a Steam game
type Game struct {
	Name  string
	AppID string
}

// GetSteamGames returns a list of installed Steam games
func GetSteamGames() ([]Game, error) {
	protontricks, err := GetProtontricksCommand()
	if err != nil {
		return nil, err
	}

	var protontricksOutput string
	if strings.HasPrefix(protontricks, "flatpak run") {
		parts := strings.Fields(protontricks)
		output, err := RunCommand(parts[0], append(parts[1:], "-l")...)
		if err != nil {
			return nil, fmt.Errorf("failed to run protontricks: %w", err)
		}
		protontricksOutput = output
	} else {
		output, err := RunCommand(protontricks, "-l")
		if err != nil {
			return nil, fmt.Errorf("failed to run protontricks: %w", err)
		}
		protontricksOutput = output
	}

	var games []Game
	re := regexp.MustCompile(`^(.+?)\s+\((\d+)\)$`)

	for _, line := range strings.Split(protontricksOutput, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Skip warning messages and notes
		if strings.Contains(line, "UserWarning:") ||
			strings.Contains(line, "pkg_resources") ||
			strings.Contains(line, "NOTE:") ||
			strings.Contains(line, "Found the following games:") ||
			strings.Contains(line, "To run Protontricks") {
			continue
		}

		if strings.HasPrefix(line, "Non-Steam shortcut:") {
			continue
		}

		// Game entries look like "Game Name (12345)"
		matches := re.FindStringSubmatch(line)
		if len(matches) == 3 {
			name := strings.TrimSpace(matches[1])
			appID := matches[2]

			if _, err := strconv.Atoi(appID); err == nil {
				games = append(games, Game{Name: name, AppID: appID})
			}
		}
	}

	return games, nil
}

// GetNonSteamGames returns a list of non-Steam games known to protontricks
func GetNonSteamGames() ([]Game, error) {
	protontricks, err := GetProtontricksCommand()
	if err != nil {
		return nil, err
	}

	output, err := RunCommand(protontricks, "-l")
	if err != nil {
		return nil, fmt.Errorf("failed to run protontricks: %w", err)
	}

	var games []Game
	re := regexp.MustCompile(`Non-Steam shortcut: (.+?) \((\d+)\)$`)
	scanner := bufio.NewScanner(strings.NewReader(output))

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.Contains(line, "Non-Steam shortcut:") {
			continue
		}

		matches := re.FindStringSubmatch(line)
		if len(matches) == 3 {
			games = append(games, Game{
				Name:  strings.TrimSpace(matches[1]),
				AppID: matches[2],
			})
		}
	}

	if len(games) == 0 {
		return nil, fmt.Errorf("no non-Steam games found! Make sure you've added non-Steam games to Steam and launched them at least once")
	}

	return games, scanner.Err()
}

// FindModManagerInProtontricks searches for a specific mod manager in protontricks output
func FindModManagerInProtontricks(modManagerName string) (*Game, error) {
	games, err := GetNonSteamGames()
	if err != nil {
		return nil, err
	}

	for _, game := range games {
		if strings.EqualFold(game.Name, modManagerName) {
			return &game, nil
		}
	}

	for _, game := range games {
		if strings.Contains(strings.ToLower(game.Name), strings.ToLower(modManagerName)) {
			return &game, nil
		}
	}

	return nil, fmt.Errorf("mod manager '%s' not found in protontricks", modManagerName)
}

// ExtractVersion extracts version from a string using regex
func ExtractVersion(text, pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", err
	}

	matches := re.FindStringSubmatch(text)
	if len(matches) < 2 {
		return "", fmt.Errorf("version pattern not found")
	}

	return matches[1], nil
}

// DownloadFile downloads a file from URL to local path
func DownloadFile(url, filepath string) error {
	out, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filepath, err)
	}
	defer out.Close()

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	_, err = io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// ExtractArchive extracts an archive file and returns the actual extraction path
func ExtractArchive(archivePath, extractPath string) (string, error) {
	if strings.HasSuffix(archivePath, ".zip") {
		return extractZip(archivePath, extractPath)
	} else if strings.HasSuffix(archivePath, ".tar.gz") || strings.HasSuffix(archivePath, ".tgz") {
		return extractTarGz(archivePath, extractPath)
	} else if strings.HasSuffix(archivePath, ".7z") {
		return extract7z(archivePath, extractPath)
	}

	return "", fmt.Errorf("unsupported archive format")
}

// uniqueTarget avoids extracting over an existing non-empty directory by
// picking a numbered sibling instead.
func uniqueTarget(extractPath string) (string, error) {
	uniqueExtractPath := extractPath
	if DirectoryExists(extractPath) {
		entries, err := os.ReadDir(extractPath)
		if err == nil && len(entries) > 0 {
			counter := 1
			for DirectoryExists(uniqueExtractPath) {
				uniqueExtractPath = fmt.Sprintf("%s_%d", extractPath, counter)
				counter++
			}
		}
	}

	if err := os.MkdirAll(uniqueExtractPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create extraction directory: %w", err)
	}
	return uniqueExtractPath, nil
}

func extractZip(archivePath, extractPath string) (string, error) {
	target, err := uniqueTarget(extractPath)
	if err != nil {
		return "", err
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open zip archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		filePath := filepath.Join(target, f.Name)
		if !strings.HasPrefix(filePath, filepath.Clean(target)+string(os.PathSeparator)) {
			return "", fmt.Errorf("invalid path in archive: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(filePath, 0755); err != nil {
				return "", fmt.Errorf("failed to create directory %s: %w", filePath, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			return "", fmt.Errorf("failed to create parent directory for %s: %w", filePath, err)
		}

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open file %s in archive: %w", f.Name, err)
		}

		outFile, err := os.Create(filePath)
		if err != nil {
			rc.Close()
			return "", fmt.Errorf("failed to create file %s: %w", filePath, err)
		}

		_, err = io.Copy(outFile, rc)
		outFile.Close()
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to extract file %s: %w", f.Name, err)
		}

		os.Chmod(filePath, f.Mode())
	}

	logger.Info(fmt.Sprintf("Extracted zip archive to: %s", target))
	return target, nil
}

func extractTarGz(archivePath, extractPath string) (string, error) {
	target, err := uniqueTarget(extractPath)
	if err != nil {
		return "", err
	}

	file, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to read gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read tar entry: %w", err)
		}

		filePath := filepath.Join(target, header.Name)
		if !strings.HasPrefix(filePath, filepath.Clean(target)+string(os.PathSeparator)) {
			return "", fmt.Errorf("invalid path in archive: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(filePath, 0755); err != nil {
				return "", fmt.Errorf("failed to create directory %s: %w", filePath, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
				return "", fmt.Errorf("failed to create parent directory for %s: %w", filePath, err)
			}
			outFile, err := os.Create(filePath)
			if err != nil {
				return "", fmt.Errorf("failed to create file %s: %w", filePath, err)
			}
			_, err = io.Copy(outFile, tr)
			outFile.Close()
			if err != nil {
				return "", fmt.Errorf("failed to extract file %s: %w", header.Name, err)
			}
			os.Chmod(filePath, os.FileMode(header.Mode))
		}
	}

	logger.Info(fmt.Sprintf("Extracted tar.gz archive to: %s", target))
	return target, nil
}

// extract7z extracts 7z archives using bodgit/sevenzip
func extract7z(archivePath, extractPath string) (string, error) {
	target, err := uniqueTarget(extractPath)
	if err != nil {
		return "", err
	}

	r, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open 7z archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		filePath := filepath.Join(target, f.Name)
		if !strings.HasPrefix(filePath, filepath.Clean(target)+string(os.PathSeparator)) {
			return "", fmt.Errorf("invalid path in archive: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(filePath, 0755); err != nil {
				return "", fmt.Errorf("failed to create directory %s: %w", filePath, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			return "", fmt.Errorf("failed to create parent directory for %s: %w", filePath, err)
		}

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open file %s in archive: %w", f.Name, err)
		}

		outFile, err := os.Create(filePath)
		if err != nil {
			rc.Close()
			return "", fmt.Errorf("failed to create file %s: %w", filePath, err)
		}

		_, err = io.Copy(outFile, rc)
		outFile.Close()
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to extract file %s: %w", f.Name, err)
		}

		if err := os.Chmod(filePath, 0644); err != nil {
			logger.Warning(fmt.Sprintf("Failed to set permissions for %s: %v", filePath, err))
		}
	}

	logger.Info(fmt.Sprintf("Extracted 7z archive to: %s", target))
	return target, nil
}

// RestartSteam restarts Steam so it picks up new non-Steam shortcuts
func RestartSteam() error {
	logger.Info("Restarting Steam to ensure proper integration...")
	ui.PrintInfo("Restarting Steam to ensure proper integration...")

	// Give Steam a moment to flush any pending writes of its own
	time.Sleep(5 * time.Second)

	logger.Info("Stopping Steam...")
	ui.PrintInfo("Stopping Steam...")

	cmd := exec.Command("pkill", "-9", "steam")
	if err := cmd.Run(); err != nil {
		logger.Warning("Failed to stop Steam: " + err.Error())
		ui.PrintWarning("Failed to stop Steam: " + err.Error())
		return nil
	}

	logger.Info("Steam stopped successfully.")
	ui.PrintSuccess("Steam stopped successfully.")
	time.Sleep(2 * time.Second)

	cmd = exec.Command("steam")
	if err := cmd.Start(); err != nil {
		logger.Error("Failed to restart Steam: " + err.Error())
		ui.PrintWarning("Failed to restart Steam: " + err.Error())
		ui.PrintInfo("Please start Steam manually.")
		return err
	}

	logger.Info("Steam restarted successfully!")
	ui.PrintSuccess("Steam restarted successfully!")
	return nil
}
