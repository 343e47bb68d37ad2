package mo2

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/lodestone-mods/lodestone/internal/dependencies"
	"github.com/lodestone-mods/lodestone/internal/logging"
	"github.com/lodestone-mods/lodestone/internal/nxm"
	"github.com/lodestone-mods/lodestone/internal/register"
	"github.com/lodestone-mods/lodestone/internal/ui"
	"github.com/lodestone-mods/lodestone/internal/utils"
)

type GitHubRelease struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

type MO2Installer struct {
	logger *logging.Logger
}

func NewMO2Installer() *MO2Installer {
	return &MO2Installer{
		logger: logging.GetLogger(),
	}
}

// DownloadMO2 downloads and installs the latest version of Mod Organizer 2
func (m *MO2Installer) DownloadMO2() error {
	ui.PrintSection("Download Mod Organizer 2")

	if err := m.checkDependencies(); err != nil {
		return err
	}

	release, err := m.getLatestRelease()
	if err != nil {
		return err
	}

	ui.PrintInfo(fmt.Sprintf("Latest version: %s", release.TagName))

	downloadURL, filename, err := m.findMO2Asset(release)
	if err != nil {
		return err
	}

	ui.PrintInfo(fmt.Sprintf("Found asset: %s", filename))

	installDir, err := m.getInstallDirectory()
	if err != nil {
		return err
	}

	tempFile, err := m.downloadFile(downloadURL, filename)
	if err != nil {
		return err
	}
	defer os.Remove(tempFile)

	actualInstallDir, err := m.extractArchive(tempFile, installDir)
	if err != nil {
		return err
	}

	mo2Exe, err := m.findMO2Executable(actualInstallDir)
	if err != nil {
		return fmt.Errorf("could not find ModOrganizer.exe in the extracted files")
	}

	ui.PrintSuccess("Mod Organizer 2 installed successfully!")
	ui.PrintInfo(fmt.Sprintf("Installation directory: %s", actualInstallDir))

	ui.PrintInfo("Would you like to add MO2 to Steam as a non-Steam game?")
	confirmed, err := ui.ConfirmAction("Add to Steam?")
	if err != nil {
		return err
	}

	if confirmed {
		if err := m.AddMO2ToSteam(mo2Exe); err != nil {
			ui.PrintWarning(fmt.Sprintf("Failed to add MO2 to Steam: %v", err))
		}
	}

	return nil
}

// SetupExistingMO2 registers an already-installed MO2 with Steam
func (m *MO2Installer) SetupExistingMO2() error {
	ui.PrintSection("Setup Existing Mod Organizer 2")

	input, err := ui.GetInputWithTabCompletion("Path to your MO2 directory or ModOrganizer.exe", "")
	if err != nil {
		return err
	}
	input = expandHome(strings.TrimSpace(input))
	if input == "" {
		ui.PrintWarning("No path given.")
		return nil
	}

	mo2Exe := input
	if utils.DirectoryExists(input) {
		mo2Exe, err = m.findMO2Executable(input)
		if err != nil {
			ui.PrintError("Could not find ModOrganizer.exe under " + input)
			return nil
		}
	}

	if !utils.FileExists(mo2Exe) {
		ui.PrintError("File does not exist: " + mo2Exe)
		return nil
	}

	return m.AddMO2ToSteam(mo2Exe)
}

// checkDependencies verifies that required tools are available
func (m *MO2Installer) checkDependencies() error {
	m.logger.Info("Checking MO2 dependencies")

	if !m.check7zTools() {
		ui.PrintInfo("No system 7z tools found. Will use native Go extraction.")
	}

	return nil
}

// check7zTools checks for system 7z tools
func (m *MO2Installer) check7zTools() bool {
	tools := []string{"7z", "7za", "7zr", "7zip", "p7zip"}

	for _, tool := range tools {
		if utils.CommandExists(tool) {
			m.logger.Info(fmt.Sprintf("Found system %s command", tool))
			return true
		}
	}

	return false
}

// getLatestRelease fetches the latest release info from GitHub
func (m *MO2Installer) getLatestRelease() (*GitHubRelease, error) {
	ui.PrintInfo("Fetching latest release information from GitHub...")

	resp, err := http.Get("https://api.github.com/repos/ModOrganizer2/modorganizer/releases/latest")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release information: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var release GitHubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, fmt.Errorf("failed to parse release information: %w", err)
	}

	return &release, nil
}

// findMO2Asset finds the correct MO2 asset in the release
func (m *MO2Installer) findMO2Asset(release *GitHubRelease) (string, string, error) {
	// The main release archive is Mod.Organizer-X.Y.Z.7z; skip the pdbs/src
	// and plugin-dev side archives.
	for _, asset := range release.Assets {
		if strings.HasPrefix(asset.Name, "Mod.Organizer-") &&
			strings.HasSuffix(asset.Name, ".7z") &&
			!strings.Contains(asset.Name, "pdbs") &&
			!strings.Contains(asset.Name, "src") &&
			!strings.Contains(asset.Name, "uibase") &&
			!strings.Contains(asset.Name, "uicpp") &&
			!strings.Contains(asset.Name, "bsa") {
			return asset.BrowserDownloadURL, asset.Name, nil
		}
	}

	for _, asset := range release.Assets {
		if strings.HasPrefix(asset.Name, "Mod.Organizer-") &&
			strings.HasSuffix(asset.Name, ".7z") &&
			!strings.Contains(asset.Name, "src") {
			return asset.BrowserDownloadURL, asset.Name, nil
		}
	}

	return "", "", fmt.Errorf("could not find appropriate Mod.Organizer-*.7z asset in the latest release")
}

// getInstallDirectory prompts the user for installation directory
func (m *MO2Installer) getInstallDirectory() (string, error) {
	defaultDir := filepath.Join(utils.GetHomeDirSafe(), "ModOrganizer2")

	ui.PrintInfo(fmt.Sprintf("Default directory: %s", defaultDir))
	ui.PrintInfo("You can use ~ for home directory (e.g., ~/Games/MO2)")

	installDir, err := ui.GetInputWithTabCompletion("Extract to directory", defaultDir)
	if err != nil {
		return "", err
	}

	installDir = expandHome(installDir)

	if err := utils.CreateDirectory(installDir); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	return installDir, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		return filepath.Join(utils.GetHomeDirSafe(), path[1:])
	}
	return path
}

// downloadFile downloads the MO2 archive
func (m *MO2Installer) downloadFile(url, filename string) (string, error) {
	ui.PrintInfo("Downloading Mod Organizer 2...")
	ui.PrintInfo(fmt.Sprintf("From: %s", url))

	tempFile := filepath.Join(os.TempDir(), filename)
	if err := utils.DownloadFile(url, tempFile); err != nil {
		return "", err
	}

	ui.PrintSuccess("Download completed!")
	return tempFile, nil
}

// extractArchive extracts the 7z archive and returns the actual extraction path
func (m *MO2Installer) extractArchive(archivePath, extractPath string) (string, error) {
	ui.PrintInfo(fmt.Sprintf("Extracting to %s...", extractPath))

	if m.check7zTools() {
		if path, err := m.extractWithSystem7z(archivePath, extractPath); err == nil {
			return path, nil
		}
		ui.PrintWarning("System 7z extraction failed, falling back to native extraction")
	}

	return utils.ExtractArchive(archivePath, extractPath)
}

// extractWithSystem7z extracts using system 7z tools
func (m *MO2Installer) extractWithSystem7z(archivePath, extractPath string) (string, error) {
	tools := []string{"7z", "7za", "7zr", "7zip", "p7zip"}

	for _, tool := range tools {
		if utils.CommandExists(tool) {
			args := []string{"x", archivePath, "-o" + extractPath, "-y"}
			if err := utils.RunCommandWithProgress(tool, args...); err == nil {
				ui.PrintSuccess(fmt.Sprintf("Extracted using %s", tool))
				return extractPath, nil
			}
		}
	}

	return "", fmt.Errorf("failed to extract with system 7z tools")
}

// findMO2Executable searches for ModOrganizer.exe in subdirectories
func (m *MO2Installer) findMO2Executable(rootDir string) (string, error) {
	direct := filepath.Join(rootDir, "ModOrganizer.exe")
	if utils.FileExists(direct) {
		return direct, nil
	}

	var foundPath string
	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && info.Name() == "ModOrganizer.exe" {
			foundPath = path
			return filepath.SkipAll
		}

		return nil
	})

	if err != nil && err != filepath.SkipAll {
		return "", err
	}

	if foundPath == "" {
		return "", fmt.Errorf("ModOrganizer.exe not found")
	}

	return foundPath, nil
}

// AddMO2ToSteam registers MO2 as a non-Steam game, pins Proton, and
// provisions the prefix.
func (m *MO2Installer) AddMO2ToSteam(mo2Exe string) error {
	m.logger.Info("Adding MO2 to Steam...")

	mo2Name, err := ui.GetInput("What name would you like to use for Mod Organizer 2 in Steam?", "Mod Organizer 2")
	if err != nil {
		return err
	}
	if mo2Name == "" {
		mo2Name = "Mod Organizer 2"
	}

	ui.PrintWarning("Make sure Steam is closed before continuing; Steam overwrites shortcuts.vdf on exit.")
	ui.Pause("Press Enter to continue...")

	outcome, err := register.AddToSteam(register.Request{
		AppName:       mo2Name,
		ExePath:       mo2Exe,
		StartDir:      filepath.Dir(mo2Exe),
		ProtonVersion: "Proton - Experimental",
		Progress:      ui.PrintInfo,
	})
	if err != nil {
		m.logger.Error("Failed to add MO2 to Steam: " + err.Error())
		ui.PrintWarning("Failed to add MO2 to Steam: " + err.Error())
		return err
	}

	ui.PrintSuccess("MO2 has been added to Steam successfully!")
	ui.PrintInfo(fmt.Sprintf("AppID: %d", outcome.AppID))
	ui.PrintInfo("You can now launch MO2 from your Steam library.")

	restartConfirmed, err := ui.ConfirmAction("Do you want to restart Steam to ensure proper integration?")
	if err != nil {
		return err
	}
	if restartConfirmed {
		if err := utils.RestartSteam(); err != nil {
			m.logger.Warning("Failed to restart Steam: " + err.Error())
			ui.PrintInfo("Please restart Steam manually.")
		}
	}

	nxmConfirmed, err := ui.ConfirmAction("Set up NXM link handling for MO2? (Nexus \"Download with manager\" links)")
	if err == nil && nxmConfirmed {
		handler := nxm.NewHandler()
		if err := handler.InstallForMO2(mo2Exe, outcome.ProtonPath, outcome.CompatDataPath); err != nil {
			ui.PrintWarning("Failed to set up NXM handling: " + err.Error())
		} else {
			ui.PrintSuccess("NXM link handling configured!")
		}
	}

	confirmed, err := ui.ConfirmAction("Do you want to setup dependencies for " + mo2Name + "?")
	if err != nil {
		return err
	}

	if confirmed {
		ui.ClearScreen()
		ui.PrintInfo("To setup dependencies, you need to:")
		ui.PrintInfo("1. Launch " + mo2Name + " from Steam")
		ui.PrintInfo("2. Let it run for a moment (it may show errors, that's normal)")
		ui.PrintInfo("3. Close " + mo2Name + " completely")
		ui.PrintInfo("4. Come back here and press Enter when done")

		_, err = ui.GetInput("Press Enter when you've launched and closed "+mo2Name+"...", "")
		if err != nil {
			return err
		}

		dependencyInstaller := dependencies.NewDependencyInstaller()
		if err := dependencyInstaller.InstallBasicDependencies(); err != nil {
			m.logger.Warning("Failed to setup dependencies: " + err.Error())
			ui.PrintWarning("Failed to setup dependencies: " + err.Error())
			ui.PrintInfo("You can setup dependencies manually later using protontricks.")
		}
	}

	return nil
}
