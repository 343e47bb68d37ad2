package vortex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lodestone-mods/lodestone/internal/dependencies"
	"github.com/lodestone-mods/lodestone/internal/logging"
	"github.com/lodestone-mods/lodestone/internal/nxm"
	"github.com/lodestone-mods/lodestone/internal/register"
	"github.com/lodestone-mods/lodestone/internal/steamlib"
	"github.com/lodestone-mods/lodestone/internal/ui"
	"github.com/lodestone-mods/lodestone/internal/utils"
	"github.com/lodestone-mods/lodestone/internal/winereg"
)

type VortexInstaller struct {
	logger *logging.Logger
}

type GitHubRelease struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

func NewVortexInstaller() *VortexInstaller {
	return &VortexInstaller{
		logger: logging.GetLogger(),
	}
}

func (v *VortexInstaller) DownloadVortex() error {
	v.logger.Info("Starting Vortex download and installation process")
	ui.PrintSection("Download and Install Vortex")

	// Vortex ships as a Windows NSIS installer, so a Proton prefix runs it.
	ui.PrintInfo("Using Proton for Vortex installation (more reliable than system Wine).")

	ui.PrintInfo("Fetching latest release information from GitHub...")
	releaseInfo, err := v.fetchLatestRelease()
	if err != nil {
		return fmt.Errorf("failed to fetch release information: %w", err)
	}

	version := strings.TrimPrefix(releaseInfo.TagName, "v")
	ui.PrintSuccess(fmt.Sprintf("Latest version: %s", version))

	downloadURL := ""
	for _, asset := range releaseInfo.Assets {
		if strings.HasPrefix(asset.Name, "vortex-setup-") && strings.HasSuffix(asset.Name, ".exe") {
			downloadURL = asset.BrowserDownloadURL
			break
		}
	}

	if downloadURL == "" {
		return fmt.Errorf("could not find appropriate vortex-setup-*.exe asset in the latest release")
	}

	filename := filepath.Base(downloadURL)
	ui.PrintInfo(fmt.Sprintf("Found asset: %s", filename))

	tempDir, err := os.MkdirTemp("", "vortex-download-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	tempFile := filepath.Join(tempDir, filename)

	ui.PrintInfo(fmt.Sprintf("Downloading Vortex v%s...", version))
	ui.PrintInfo(fmt.Sprintf("From: %s", downloadURL))

	if err := utils.DownloadFile(downloadURL, tempFile); err != nil {
		return fmt.Errorf("failed to download Vortex: %w", err)
	}

	ui.PrintInfo("Download completed successfully")

	installDir, err := ui.GetInputWithTabCompletion("Install to directory", filepath.Join(utils.GetHomeDirSafe(), "Vortex"))
	if err != nil {
		return err
	}

	if err := utils.CreateDirectory(installDir); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", installDir, err)
	}

	// The NSIS /D flag wants a Windows-style path inside the prefix.
	wineInstallDir := winereg.WindowsPath(installDir)

	ui.PrintInfo("We need to select a game to use its Proton prefix for Vortex installation.")
	ui.PrintInfo("Note: This is only for the installation process. Vortex will be installed to your chosen directory.")

	if err := utils.CheckDependencies(); err != nil {
		return err
	}

	games, err := utils.GetSteamGames()
	if err != nil {
		return fmt.Errorf("failed to get Steam games: %w", err)
	}

	if len(games) == 0 {
		return fmt.Errorf("no Steam games found. A game is needed to use its Proton prefix")
	}

	var selectedGame utils.Game
	if len(games) == 1 {
		selectedGame = games[0]
		v.logger.Info(fmt.Sprintf("Auto-selected only game: %s (AppID: %s)", selectedGame.Name, selectedGame.AppID))
	} else {
		menuItems := make([]ui.MenuItem, len(games))
		for i, game := range games {
			menuItems[i] = ui.MenuItem{
				ID:          i + 1,
				Title:       fmt.Sprintf("%s (AppID: %s)", game.Name, game.AppID),
				Description: "Steam game",
			}
		}

		menu := ui.Menu{
			Title:    "Select Game for Proton Prefix (Installation Only)",
			Items:    menuItems,
			ExitText: "Cancel",
		}

		choice, err := ui.DisplayMenu(menu)
		if err != nil {
			return fmt.Errorf("menu error: %w", err)
		}

		if choice == len(games)+1 {
			return fmt.Errorf("no game selected")
		}

		if choice > 0 && choice <= len(games) {
			selectedGame = games[choice-1]
		} else {
			return fmt.Errorf("invalid selection")
		}
	}

	steamRoot, err := steamlib.FindSteamRoot()
	if err != nil {
		return fmt.Errorf("could not find Steam root: %w", err)
	}

	compatDataPath, err := steamlib.FindCompatData(selectedGame.AppID, steamRoot)
	if err != nil {
		return fmt.Errorf("could not find game compatdata: %w", err)
	}

	prefixPath := filepath.Join(compatDataPath, "pfx")
	if !utils.DirectoryExists(prefixPath) {
		return fmt.Errorf("could not find Proton prefix at: %s", prefixPath)
	}

	ui.PrintInfo(fmt.Sprintf("Installing Vortex to %s using %s's Proton prefix...", installDir, selectedGame.Name))
	ui.PrintInfo("This may take a few minutes. Please be patient.")

	err = v.runWithProtonWine(steamRoot, compatDataPath, tempFile, "/S", fmt.Sprintf("/D=%s", wineInstallDir))

	// Installer stderr noise is common; the installed exe is the real signal.
	vortexExe := filepath.Join(installDir, "Vortex.exe")
	if utils.FileExists(vortexExe) {
		v.logger.Info("Vortex installation completed successfully (Vortex.exe found)")
		ui.PrintSuccess(fmt.Sprintf("Vortex v%s has been successfully installed to:", version))
		ui.PrintInfo(installDir)
	} else if err != nil {
		v.logger.Error("Proton installation failed")
		return fmt.Errorf("failed to install Vortex with Proton: %w", err)
	} else {
		v.logger.Warning("Installation command succeeded but Vortex.exe not found at expected location")
		ui.PrintWarning("Warning: Vortex.exe was not found at the expected location.")
		ui.PrintInfo(fmt.Sprintf("Please check %s to verify the installation.", installDir))
	}

	ui.PrintInfo("Would you like to add Vortex to Steam as a non-Steam game?")
	confirmed, err := ui.ConfirmAction("Add to Steam?")
	if err != nil {
		return err
	}

	if confirmed {
		return v.addVortexToSteam(installDir)
	}

	return nil
}

func (v *VortexInstaller) fetchLatestRelease() (*GitHubRelease, error) {
	resp, err := http.Get("https://api.github.com/repos/Nexus-Mods/Vortex/releases/latest")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, err
	}

	return &release, nil
}

func (v *VortexInstaller) runWithProtonWine(steamRoot, compatDataPath, command string, args ...string) error {
	protonPath, err := steamlib.FindProton(steamRoot, "Proton - Experimental")
	if err != nil {
		return fmt.Errorf("could not find Proton installation: %w", err)
	}

	cmd := exec.Command(protonPath, append([]string{"run", command}, args...)...)
	cmd.Env = append(os.Environ(),
		"STEAM_COMPAT_CLIENT_INSTALL_PATH="+steamRoot,
		"STEAM_COMPAT_DATA_PATH="+compatDataPath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	ui.PrintInfo(fmt.Sprintf("Running command: %s", strings.Join(cmd.Args, " ")))

	err = cmd.Run()
	if err != nil {
		v.logger.Error("Command failed with error: " + err.Error())
		if stdout.Len() > 0 {
			v.logger.Info("stdout: " + stdout.String())
		}
		if stderr.Len() > 0 {
			v.logger.Error("stderr: " + stderr.String())
		}
		return err
	}

	ui.PrintInfo("Command completed successfully")
	return nil
}

func (v *VortexInstaller) addVortexToSteam(vortexDir string) error {
	if vortexDir == "" || !utils.DirectoryExists(vortexDir) {
		return fmt.Errorf("invalid Vortex directory")
	}

	vortexExe := filepath.Join(vortexDir, "Vortex.exe")
	if !utils.FileExists(vortexExe) {
		return fmt.Errorf("Vortex.exe not found in %s", vortexDir)
	}

	ui.PrintSection("Add Vortex to Steam")

	vortexName, err := ui.GetInput("What name would you like to use for Vortex in Steam?", "Vortex")
	if err != nil {
		return err
	}
	if vortexName == "" {
		vortexName = "Vortex"
	}

	ui.PrintWarning("Make sure Steam is closed before continuing; Steam overwrites shortcuts.vdf on exit.")
	ui.Pause("Press Enter to continue...")

	outcome, err := register.AddToSteam(register.Request{
		AppName:       vortexName,
		ExePath:       vortexExe,
		StartDir:      filepath.Dir(vortexExe),
		ProtonVersion: "Proton - Experimental",
		Progress:      ui.PrintInfo,
	})
	if err != nil {
		v.logger.Error("Failed to add Vortex to Steam: " + err.Error())
		ui.PrintWarning("Failed to add Vortex to Steam: " + err.Error())
		return err
	}

	ui.PrintSuccess("Vortex has been added to Steam successfully!")
	ui.PrintInfo(fmt.Sprintf("AppID: %d", outcome.AppID))
	ui.PrintInfo("You can now launch Vortex from your Steam library.")

	restartConfirmed, err := ui.ConfirmAction("Do you want to restart Steam to ensure proper integration?")
	if err != nil {
		return err
	}
	if restartConfirmed {
		if err := utils.RestartSteam(); err != nil {
			v.logger.Warning("Failed to restart Steam: " + err.Error())
			ui.PrintInfo("Please restart Steam manually.")
		}
	}

	nxmConfirmed, err := ui.ConfirmAction("Set up NXM link handling for Vortex?")
	if err == nil && nxmConfirmed {
		handler := nxm.NewHandler()
		if err := handler.InstallForVortex(vortexExe, outcome.ProtonPath, outcome.CompatDataPath); err != nil {
			ui.PrintWarning("Failed to set up NXM handling: " + err.Error())
		} else {
			ui.PrintSuccess("NXM link handling configured!")
		}
	}

	confirmed, err := ui.ConfirmAction("Do you want to setup dependencies for " + vortexName + "?")
	if err != nil {
		return err
	}

	if confirmed {
		ui.ClearScreen()
		ui.PrintInfo("To setup dependencies, you need to:")
		ui.PrintInfo("1. Launch " + vortexName + " from Steam")
		ui.PrintInfo("2. Let it run for a moment (it may show errors, that's normal)")
		ui.PrintInfo("3. Close " + vortexName + " completely")
		ui.PrintInfo("4. Come back here and press Enter when done")

		_, err = ui.GetInput("Press Enter when you've launched and closed "+vortexName+"...", "")
		if err != nil {
			return err
		}

		dependencyInstaller := dependencies.NewDependencyInstaller()
		if err := dependencyInstaller.InstallBasicDependencies(); err != nil {
			v.logger.Warning("Failed to setup dependencies: " + err.Error())
			ui.PrintWarning("Failed to setup dependencies: " + err.Error())
			ui.PrintInfo("You can setup dependencies manually later using protontricks.")
		}
	}

	return nil
}

func (v *VortexInstaller) SetupExistingVortex() error {
	ui.PrintSection("Set Up Existing Vortex")

	ui.PrintInfo("Please specify the location of your existing Vortex installation.")
	vortexDir, err := ui.GetInputWithTabCompletion("Vortex directory", "")
	if err != nil {
		return err
	}

	if vortexDir == "" {
		return fmt.Errorf("no directory specified")
	}

	if !utils.DirectoryExists(vortexDir) {
		return fmt.Errorf("directory does not exist: %s", vortexDir)
	}

	vortexExe := filepath.Join(vortexDir, "Vortex.exe")
	if !utils.FileExists(vortexExe) {
		return fmt.Errorf("Vortex.exe not found in %s", vortexDir)
	}

	ui.PrintSuccess(fmt.Sprintf("Found Vortex.exe in: %s", vortexDir))

	ui.PrintInfo("Would you like to add this Vortex installation to Steam as a non-Steam game?")
	confirmed, err := ui.ConfirmAction("Add to Steam?")
	if err != nil {
		return err
	}

	if confirmed {
		return v.addVortexToSteam(vortexDir)
	}

	return nil
}

// SetupVortexNxmHandler wires nxm:// links to an already-registered Vortex
// shortcut, using the shortcut's own compatdata prefix.
func (v *VortexInstaller) SetupVortexNxmHandler() error {
	ui.PrintSection("Vortex NXM Link Handler Setup")

	steamRoot, err := steamlib.FindSteamRoot()
	if err != nil {
		ui.PrintWarning("Could not find Steam installation: " + err.Error())
		return nil
	}

	games, err := utils.GetNonSteamGames()
	if err != nil {
		return fmt.Errorf("could not get non-Steam games: %w", err)
	}

	var selectedGame utils.Game
	if len(games) == 1 {
		selectedGame = games[0]
		v.logger.Info(fmt.Sprintf("Auto-selected only game: %s (AppID: %s)", selectedGame.Name, selectedGame.AppID))
	} else {
		menuItems := make([]ui.MenuItem, len(games))
		for i, game := range games {
			menuItems[i] = ui.MenuItem{
				ID:          i + 1,
				Title:       fmt.Sprintf("%s (AppID: %s)", game.Name, game.AppID),
				Description: "Non-Steam game",
			}
		}

		menu := ui.Menu{
			Title:    "Select Game for NXM Handler",
			Items:    menuItems,
			ExitText: "Cancel",
		}

		choice, err := ui.DisplayMenu(menu)
		if err != nil {
			return fmt.Errorf("menu error: %w", err)
		}

		if choice == len(games)+1 {
			return fmt.Errorf("user cancelled")
		}

		if choice > 0 && choice <= len(games) {
			selectedGame = games[choice-1]
		} else {
			return fmt.Errorf("invalid selection")
		}
	}

	protonPath, err := steamlib.FindProton(steamRoot, "Proton - Experimental")
	if err != nil {
		return fmt.Errorf("could not find Proton - Experimental: %w", err)
	}

	var vortexPath string
	for {
		path, err := ui.GetInputWithTabCompletion("Enter FULL path to Vortex.exe (or 'b' to go back)", "")
		if err != nil {
			return err
		}

		if strings.ToLower(path) == "b" {
			v.logger.Info("User cancelled Vortex NXM handler setup")
			return nil
		}

		if utils.FileExists(path) {
			vortexPath = path
			v.logger.Info("Selected Vortex.exe: " + vortexPath)
			break
		}

		ui.PrintError("File not found! Try again or enter 'b' to go back.")
		v.logger.Warning("Invalid path: " + path)
	}

	compatDataPath := filepath.Join(steamRoot, "steamapps", "compatdata", selectedGame.AppID)

	handler := nxm.NewHandler()
	if err := handler.InstallForVortex(vortexPath, protonPath, compatDataPath); err != nil {
		return fmt.Errorf("could not set up NXM handler: %w", err)
	}

	ui.PrintSuccess("Vortex NXM Handler setup complete!")
	v.logger.Info("Vortex NXM Handler setup complete")

	return nil
}
