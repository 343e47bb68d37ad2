package dependencies

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lodestone-mods/lodestone/internal/logging"
	"github.com/lodestone-mods/lodestone/internal/steamlib"
	"github.com/lodestone-mods/lodestone/internal/ui"
	"github.com/lodestone-mods/lodestone/internal/utils"
	"github.com/lodestone-mods/lodestone/internal/winereg"
)

type DependencyInstaller struct {
	logger *logging.Logger
}

func NewDependencyInstaller() *DependencyInstaller {
	return &DependencyInstaller{
		logger: logging.GetLogger(),
	}
}

// InstallBasicDependencies installs common Proton components for any mod manager
func (d *DependencyInstaller) InstallBasicDependencies() error {
	ui.ClearScreen()
	ui.PrintSection("Install Basic Dependencies")

	ui.PrintInfo("Checking for required dependencies...")

	protontricksCmd := ""
	if utils.CommandExists("protontricks") {
		protontricksCmd = "protontricks"
		d.logger.Info("Using native protontricks")
	} else if utils.CommandExists("flatpak") {
		cmd := exec.Command("sh", "-c", "flatpak list --app --columns=application | grep -q com.github.Matoking.protontricks && echo 'found'")
		output, err := cmd.Output()
		if err == nil && strings.Contains(string(output), "found") {
			protontricksCmd = "flatpak run com.github.Matoking.protontricks"
			d.logger.Info("Using flatpak protontricks")
		}
	}

	if protontricksCmd == "" {
		ui.PrintWarning("Protontricks is not installed.")
		ui.PrintInfo("Install it with:")
		ui.PrintInfo("- Native: sudo apt install protontricks")
		ui.PrintInfo("- Flatpak: flatpak install com.github.Matoking.protontricks")
		return nil
	}

	// Proton's own Wine does the installs, no system Wine needed.
	ui.PrintInfo("Using Proton's Wine for installations (no system Wine required)")

	if utils.CommandExists("flatpak") {
		cmd := exec.Command("flatpak", "list", "--app", "--columns=application")
		output, err := cmd.Output()
		if err == nil && strings.Contains(string(output), "com.valvesoftware.Steam") {
			ui.PrintWarning("Detected Steam installed via Flatpak.")
			ui.PrintInfo("This tool doesn't support Flatpak Steam installations.")
			ui.PrintInfo("Please install Steam natively.")
			return nil
		}
	}

	ui.PrintSuccess("All required dependencies are available!")
	ui.PrintInfo("Protontricks: " + protontricksCmd)

	ui.PrintSection("Fetching Non-Steam Games")
	ui.PrintInfo("Scanning for non-Steam games...")

	games, err := utils.GetNonSteamGames()
	if err != nil {
		ui.PrintError("Could not get non-Steam games: " + err.Error())
		return nil
	}

	if len(games) == 1 {
		selectedGame := games[0]
		d.logger.Info(fmt.Sprintf("Auto-selected only game: %s (AppID: %s)", selectedGame.Name, selectedGame.AppID))
		return d.installProtonDependencies(selectedGame, protontricksCmd)
	}

	menuItems := make([]ui.MenuItem, len(games))
	for i, game := range games {
		menuItems[i] = ui.MenuItem{
			ID:          i + 1,
			Title:       fmt.Sprintf("%s (AppID: %s)", game.Name, game.AppID),
			Description: "Non-Steam game",
		}
	}

	menu := ui.Menu{
		Title:    "Available Non-Steam Games",
		Items:    menuItems,
		ExitText: "Cancel",
	}

	choice, err := ui.DisplayMenu(menu)
	if err != nil {
		return fmt.Errorf("menu error: %w", err)
	}

	if choice == len(games)+1 {
		return nil
	}

	if choice > 0 && choice <= len(games) {
		selectedGame := games[choice-1]
		d.logger.Info(fmt.Sprintf("Selected game: %s (AppID: %s)", selectedGame.Name, selectedGame.AppID))
		return d.installProtonDependencies(selectedGame, protontricksCmd)
	}

	return nil
}

// GetGameComponents returns the winetricks components to install for a game
func (d *DependencyInstaller) GetGameComponents(appID string) []string {
	switch appID {
	case "22380": // Fallout New Vegas
		return []string{
			"fontsmooth=rgb",
			"xact",
			"xact_x64",
			"d3dx9_43",
			"d3dx9",
			"vcrun2022",
		}
	case "976620": // Enderal Special Edition
		return []string{
			"fontsmooth=rgb",
			"xact",
			"xact_x64",
			"d3dx11_43",
			"d3dcompiler_43",
			"d3dcompiler_47",
			"vcrun2022",
			"dotnet6",
			"dotnet7",
			"dotnet8",
		}
	default:
		return []string{
			"fontsmooth=rgb",
			"xact",
			"xact_x64",
			"vcrun2022",
			"dotnet6",
			"dotnet7",
			"dotnet8",
			"dotnetdesktop6",
			"d3dcompiler_47",
			"d3dx11_43",
			"d3dcompiler_43",
			"d3dx9_43",
			"d3dx9",
			"vkd3d",
		}
	}
}

func (d *DependencyInstaller) installProtonDependencies(game utils.Game, protontricksCmd string) error {
	ui.PrintSection("Install Proton Dependencies")
	ui.PrintInfo(fmt.Sprintf("Installing dependencies for %s (AppID: %s)", game.Name, game.AppID))

	components := d.GetGameComponents(game.AppID)

	ui.PrintInfo("Components to install:")
	for _, comp := range components {
		ui.PrintInfo("- " + comp)
	}

	confirmed, err := ui.ConfirmAction("Continue with installation? This may take several minutes.")
	if err != nil || !confirmed {
		return nil
	}

	ui.PrintInfo("Installing components... This may take several minutes.")

	args := []string{"--no-bwrap", game.AppID, "-q"}
	args = append(args, components...)

	var cmd *exec.Cmd
	if strings.HasPrefix(protontricksCmd, "flatpak run") {
		parts := strings.Fields(protontricksCmd)
		cmd = exec.Command(parts[0], append(parts[1:], args...)...)
	} else {
		cmd = exec.Command(protontricksCmd, args...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	ui.PrintInfo("Running installation...")
	err = cmd.Run()

	if err != nil {
		ui.PrintError("Installation failed: " + err.Error())
		if stderr.Len() > 0 {
			ui.PrintError("Error output: " + stderr.String())
		}
		return fmt.Errorf("protontricks installation failed: %w", err)
	}

	ui.PrintSuccess("Dependencies installed successfully!")
	ui.PrintInfo("The following components were installed:")
	for _, comp := range components {
		ui.PrintInfo("- " + comp)
	}

	// Apply the Wine settings bundle directly to the prefix registry.
	ui.PrintInfo("Applying Wine registry settings...")
	steamRoot, rootErr := steamlib.FindSteamRoot()
	if rootErr == nil {
		compatDataPath, compatErr := steamlib.FindCompatData(game.AppID, steamRoot)
		if compatErr == nil {
			systemReg := filepath.Join(compatDataPath, "pfx", "system.reg")
			if err := winereg.ApplySettingsBundle(systemReg); err != nil {
				ui.PrintWarning("Failed to apply Wine registry settings: " + err.Error())
			} else {
				ui.PrintSuccess("Wine registry settings applied successfully!")
			}
		}
	}

	return nil
}
