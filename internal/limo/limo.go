package limo

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lodestone-mods/lodestone/internal/dependencies"
	"github.com/lodestone-mods/lodestone/internal/logging"
	"github.com/lodestone-mods/lodestone/internal/steamlib"
	"github.com/lodestone-mods/lodestone/internal/ui"
	"github.com/lodestone-mods/lodestone/internal/utils"
	"github.com/lodestone-mods/lodestone/internal/winereg"
)

type LimoConfigurator struct {
	logger *logging.Logger
}

func NewLimoConfigurator() *LimoConfigurator {
	return &LimoConfigurator{
		logger: logging.GetLogger(),
	}
}

// Registry locations engine tooling reads to find a game's install path.
var gameRegistryPaths = map[string]struct {
	KeyPath   string
	ValueName string
}{
	"22380":   {`Software\Wow6432Node\Bethesda Softworks\FalloutNV`, "Installed Path"},
	"22370":   {`Software\Wow6432Node\Bethesda Softworks\Fallout3`, "Installed Path"},
	"72850":   {`Software\Wow6432Node\Bethesda Softworks\Skyrim`, "Installed Path"},
	"377160":  {`Software\Wow6432Node\Bethesda Softworks\Fallout4`, "Installed Path"},
	"489830":  {`Software\Wow6432Node\Bethesda Softworks\Skyrim Special Edition`, "Installed Path"},
	"976620":  {`Software\Wow6432Node\Bethesda Softworks\Skyrim Special Edition`, "Installed Path"},
	"1716740": {`Software\Wow6432Node\Bethesda Softworks\Starfield`, "Installed Path"},
}

func (l *LimoConfigurator) ConfigureGamesForLimo() error {
	l.logger.Info("Starting Limo game configuration")
	ui.PrintSection("Configure Games for Limo")

	ui.PrintInfo("Limo is a Linux-native mod manager that uses game prefixes directly.")
	ui.PrintInfo("This tool will help you prepare your game prefixes with the necessary dependencies.")

	if err := utils.CheckDependencies(); err != nil {
		return err
	}

	protontricksCmd, err := utils.GetProtontricksCommand()
	if err != nil {
		return err
	}

	ui.PrintInfo("Scanning for Steam games...")
	games, err := utils.GetSteamGames()
	if err != nil {
		return fmt.Errorf("could not get Steam games: %w", err)
	}

	if len(games) == 0 {
		ui.PrintWarning("No Steam games found.")
		return nil
	}

	ui.PrintSuccess(fmt.Sprintf("Found %d Steam games that can be configured for Limo", len(games)))

	if len(games) == 1 {
		selectedGame := games[0]
		l.logger.Info(fmt.Sprintf("Auto-selected only game: %s (AppID: %s)", selectedGame.Name, selectedGame.AppID))
		return l.configureGameForLimo(selectedGame, protontricksCmd)
	}

	menuItems := make([]ui.MenuItem, len(games))
	for i, game := range games {
		menuItems[i] = ui.MenuItem{
			ID:          i + 1,
			Title:       fmt.Sprintf("%s (AppID: %s)", game.Name, game.AppID),
			Description: "Steam game with Proton support",
		}
	}

	menu := ui.Menu{
		Title:    "Select Game for Limo Configuration",
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
		l.logger.Info(fmt.Sprintf("Selected game: %s (AppID: %s)", selectedGame.Name, selectedGame.AppID))
		return l.configureGameForLimo(selectedGame, protontricksCmd)
	}

	return nil
}

func (l *LimoConfigurator) configureGameForLimo(game utils.Game, protontricksCmd string) error {
	l.logger.Info(fmt.Sprintf("Configuring %s (AppID: %s) for Limo", game.Name, game.AppID))

	ui.PrintSection("Configure Game for Limo")
	ui.PrintInfo(fmt.Sprintf("Configuring %s for Limo compatibility", game.Name))
	ui.PrintInfo("This will install necessary dependencies in the game's Proton prefix.")

	installer := dependencies.NewDependencyInstaller()
	components := installer.GetGameComponents(game.AppID)

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

	var stdout, stderr strings.Builder
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

	l.patchGamePrefix(game)

	l.printLimoInstructions(game)

	return nil
}

// patchGamePrefix applies the Wine settings bundle and, for known games,
// writes the install path into the prefix registry so in-prefix tools like
// xEdit and script extenders can find the game.
func (l *LimoConfigurator) patchGamePrefix(game utils.Game) {
	steamRoot, err := steamlib.FindSteamRoot()
	if err != nil {
		ui.PrintWarning("Could not find Steam root: " + err.Error())
		return
	}

	compatDataPath, err := steamlib.FindCompatData(game.AppID, steamRoot)
	if err != nil {
		ui.PrintWarning("Could not find game compatdata: " + err.Error())
		return
	}

	systemReg := filepath.Join(compatDataPath, "pfx", "system.reg")

	ui.PrintInfo("Applying Wine registry settings...")
	if err := winereg.ApplySettingsBundle(systemReg); err != nil {
		ui.PrintWarning("Failed to apply Wine registry settings: " + err.Error())
	} else {
		ui.PrintSuccess("Wine registry settings applied!")
	}

	entry, known := gameRegistryPaths[game.AppID]
	if !known {
		return
	}

	libraries := steamlib.FindLibraries(steamRoot)
	installPath, found := steamlib.FindGameByAppID(game.AppID, libraries)
	if !found {
		l.logger.Warning("Game install directory not found for AppID " + game.AppID)
		return
	}

	key := winereg.GamePathKey(entry.KeyPath, entry.ValueName, installPath)
	if err := winereg.AppendKeys(systemReg, []winereg.Key{key}); err != nil {
		ui.PrintWarning("Failed to register game path in prefix: " + err.Error())
	} else {
		ui.PrintSuccess(fmt.Sprintf("Registered game path %s in the prefix registry", installPath))
	}
}

func (l *LimoConfigurator) printLimoInstructions(game utils.Game) {
	ui.PrintSection("Limo Configuration Complete")
	ui.PrintSuccess(fmt.Sprintf("%s has been configured for Limo!", game.Name))

	ui.PrintInfo("Next steps to use Limo:")
	ui.PrintInfo("1. Install Limo from: https://github.com/limo-app/limo")
	ui.PrintInfo("2. Launch Limo and select your game")
	ui.PrintInfo("3. Limo will automatically detect the configured prefix")
	ui.PrintInfo("4. You can now install and manage mods directly in Linux")

	ui.PrintInfo("")
	ui.PrintInfo("Note: Some mods may still require Windows-specific tools.")
	ui.PrintInfo("For those cases, you can still use MO2 or Vortex alongside Limo.")
}
