package app

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/lodestone-mods/lodestone/internal/config"
	"github.com/lodestone-mods/lodestone/internal/dependencies"
	"github.com/lodestone-mods/lodestone/internal/limo"
	"github.com/lodestone-mods/lodestone/internal/logging"
	"github.com/lodestone-mods/lodestone/internal/mo2"
	"github.com/lodestone-mods/lodestone/internal/nxm"
	"github.com/lodestone-mods/lodestone/internal/steamlib"
	"github.com/lodestone-mods/lodestone/internal/ui"
	"github.com/lodestone-mods/lodestone/internal/utils"
	"github.com/lodestone-mods/lodestone/internal/vortex"
)

type App struct {
	version  string
	date     string
	logger   *logging.Logger
	settings config.Settings
}

func NewApp(version, date string) *App {
	settings, err := config.Load(config.DefaultPath())
	if err != nil {
		settings = config.Defaults()
	}
	return &App{
		version:  version,
		date:     date,
		logger:   logging.GetLogger(),
		settings: settings,
	}
}

func (a *App) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		a.logger.Info("Received shutdown signal")
		logging.Close()
		os.Exit(0)
	}()

	ui.PrintHeader(a.version, a.date)
	ui.PrintInfo("Welcome to Lodestone - The Linux Modding Helper!")
	ui.PrintInfo("This tool helps you set up and configure mod managers for Linux gaming.")

	a.checkDependencies()

	ui.Pause("Press Enter to start...")

	if a.settings.CheckUpdates {
		a.checkForUpdates()
	}

	return a.mainMenu()
}

func (a *App) mainMenu() error {
	for {
		ui.ClearScreenAndShowHeader(a.version, a.date)

		menu := ui.Menu{
			Title: "Main Menu",
			Items: []ui.MenuItem{
				{
					ID:          1,
					Title:       "Mod Managers",
					Description: "Set up MO2, Vortex, Limo, and manage NXM handlers",
					Action:      a.modManagersMenu,
				},
				{
					ID:          2,
					Title:       "Game-Specific Info",
					Description: "Information about supported games and launch options",
					Action:      a.gameSpecificMenu,
				},
			},
			ExitText: "Exit",
		}

		choice, err := ui.DisplayMenu(menu)
		if err != nil {
			return fmt.Errorf("menu error: %w", err)
		}

		if choice == len(menu.Items)+1 {
			a.logger.Info("User exited application")
			ui.PrintSuccess("Thank you for using Lodestone!")
			return nil
		}

		if choice > 0 && choice <= len(menu.Items) {
			if err := menu.Items[choice-1].Action(); err != nil {
				ui.PrintError("Error: " + err.Error())
				ui.Pause("Press Enter to continue...")
			}
		}
	}
}

// Mod Managers Menu
func (a *App) modManagersMenu() error {
	ui.ClearScreenAndShowHeader(a.version, a.date)

	menu := ui.Menu{
		Title: "Mod Managers",
		Items: []ui.MenuItem{
			{
				ID:          1,
				Title:       "Mod Organizer 2 Setup",
				Description: "Set up MO2 with Proton, NXM handler, and dependencies",
				Action:      a.mo2SetupMenu,
			},
			{
				ID:          2,
				Title:       "Vortex Setup",
				Description: "Set up Vortex with Proton, NXM handler, and dependencies",
				Action:      a.vortexSetupMenu,
			},
			{
				ID:          3,
				Title:       "Limo Setup",
				Description: "Set up game prefixes for Limo (Linux native mod manager)",
				Action:      a.limoSetupMenu,
			},
			{
				ID:          4,
				Title:       "Remove NXM Handlers",
				Description: "Remove previously configured NXM handlers",
				Action:      a.removeNxmHandlers,
			},
		},
		ExitText: "Back to Main Menu",
	}

	choice, err := ui.DisplayMenu(menu)
	if err != nil {
		return fmt.Errorf("menu error: %w", err)
	}

	if choice >= 1 && choice <= len(menu.Items) {
		return menu.Items[choice-1].Action()
	}

	return nil
}

func (a *App) mo2SetupMenu() error {
	ui.ClearScreenAndShowHeader(a.version, a.date)

	menu := ui.Menu{
		Title: "Mod Organizer 2 Setup",
		Items: []ui.MenuItem{
			{
				ID:          1,
				Title:       "Download Mod Organizer 2",
				Description: "Download and install the latest version",
				Action:      a.downloadMO2,
			},
			{
				ID:          2,
				Title:       "Set Up Existing Installation",
				Description: "Configure an existing MO2 installation",
				Action:      a.setupExistingMO2,
			},
			{
				ID:          3,
				Title:       "Install Basic Dependencies",
				Description: "Install common Proton components for MO2",
				Action:      a.installBasicDependencies,
			},
			{
				ID:          4,
				Title:       "Configure NXM Handler",
				Description: "Set up Nexus Mod Manager link handling",
				Action:      a.configureNxmHandler,
			},
		},
		ExitText: "Back to Main Menu",
	}

	for {
		choice, err := ui.DisplayMenu(menu)
		if err != nil {
			return fmt.Errorf("menu error: %w", err)
		}

		if choice == len(menu.Items)+1 {
			return nil
		}

		if choice > 0 && choice <= len(menu.Items) {
			if err := menu.Items[choice-1].Action(); err != nil {
				ui.PrintError("Error: " + err.Error())
			}
			ui.Pause("Press Enter to continue...")
		}
	}
}

func (a *App) vortexSetupMenu() error {
	ui.ClearScreenAndShowHeader(a.version, a.date)

	menu := ui.Menu{
		Title: "Vortex Setup",
		Items: []ui.MenuItem{
			{
				ID:          1,
				Title:       "Download Vortex",
				Description: "Download and install the latest version",
				Action:      a.downloadVortex,
			},
			{
				ID:          2,
				Title:       "Set Up Existing Installation",
				Description: "Configure an existing Vortex installation",
				Action:      a.setupExistingVortex,
			},
			{
				ID:          3,
				Title:       "Install Basic Dependencies",
				Description: "Install common Proton components for Vortex",
				Action:      a.installBasicDependencies,
			},
			{
				ID:          4,
				Title:       "Configure NXM Handler",
				Description: "Set up Nexus Mod Manager link handling",
				Action:      a.configureVortexNxmHandler,
			},
		},
		ExitText: "Back to Main Menu",
	}

	for {
		choice, err := ui.DisplayMenu(menu)
		if err != nil {
			return fmt.Errorf("menu error: %w", err)
		}

		if choice == len(menu.Items)+1 {
			return nil
		}

		if choice > 0 && choice <= len(menu.Items) {
			if err := menu.Items[choice-1].Action(); err != nil {
				ui.PrintError("Error: " + err.Error())
			}
			ui.Pause("Press Enter to continue...")
		}
	}
}

func (a *App) limoSetupMenu() error {
	ui.ClearScreenAndShowHeader(a.version, a.date)

	ui.PrintSection("Limo Setup (Linux Native Mod Manager)")
	ui.PrintInfo("Limo is a Linux-native mod manager that uses game prefixes directly.")
	ui.PrintInfo("This tool will help you prepare your game prefixes with the necessary dependencies.")

	menu := ui.Menu{
		Title: "Limo Setup",
		Items: []ui.MenuItem{
			{
				ID:          1,
				Title:       "Configure Games for Limo",
				Description: "Install dependencies for game prefixes",
				Action:      a.configureGamesForLimo,
			},
		},
		ExitText: "Back to Main Menu",
	}

	for {
		choice, err := ui.DisplayMenu(menu)
		if err != nil {
			return fmt.Errorf("menu error: %w", err)
		}

		if choice == len(menu.Items)+1 {
			return nil
		}

		if choice > 0 && choice <= len(menu.Items) {
			if err := menu.Items[choice-1].Action(); err != nil {
				ui.PrintError("Error: " + err.Error())
			}
			ui.Pause("Press Enter to continue...")
		}
	}
}

func (a *App) gameSpecificMenu() error {
	ui.PrintSection("Game-Specific Launch Options And Game Dependencies")

	steamRoot, err := steamlib.FindSteamRoot()
	if err != nil {
		ui.PrintWarning("Could not find Steam installation: " + err.Error())
		return nil
	}

	fnvCompatdata, _ := steamlib.FindCompatData("22380", steamRoot)
	enderalCompatdata, _ := steamlib.FindCompatData("976620", steamRoot)

	var menuItems []ui.MenuItem
	itemID := 1

	if fnvCompatdata != "" {
		menuItems = append(menuItems, ui.MenuItem{
			ID:          itemID,
			Title:       "Fallout New Vegas",
			Description: "Launch options and dependency setup for FNV modding",
			Action:      a.showFNVInfo,
		})
		itemID++
	}

	if enderalCompatdata != "" {
		menuItems = append(menuItems, ui.MenuItem{
			ID:          itemID,
			Title:       "Enderal",
			Description: "Launch options and dependency setup for Enderal modding",
			Action:      a.showEnderalInfo,
		})
		itemID++
	}

	if len(menuItems) == 0 {
		ui.PrintWarning("No supported games found. Make sure you have installed and run at least one of:")
		ui.PrintInfo("- Fallout New Vegas (AppID: 22380)")
		ui.PrintInfo("- Enderal (AppID: 976620)")
		ui.Pause("Press Enter to continue...")
		return nil
	}

	menu := ui.Menu{
		Title:    "Game-Specific Information",
		Items:    menuItems,
		ExitText: "Back to Main Menu",
	}

	choice, err := ui.DisplayMenu(menu)
	if err != nil {
		return fmt.Errorf("menu error: %w", err)
	}

	if choice == len(menuItems)+1 {
		return nil
	}

	if choice > 0 && choice <= len(menuItems) {
		return menuItems[choice-1].Action()
	}

	return nil
}

// showFNVInfo shows Fallout New Vegas specific information
func (a *App) showFNVInfo() error {
	ui.PrintSection("Fallout New Vegas - Launch Options & Dependencies")

	steamRoot, err := steamlib.FindSteamRoot()
	if err != nil {
		ui.PrintError("Could not find Steam installation: " + err.Error())
		return nil
	}

	fnvCompatdata, err := steamlib.FindCompatData("22380", steamRoot)
	if err != nil {
		ui.PrintError("Could not find FNV compatdata: " + err.Error())
		return nil
	}

	ui.PrintInfo("For Fallout New Vegas modlists, use this launch option:")
	ui.PrintCommand(fmt.Sprintf("STEAM_COMPAT_DATA_PATH=\"%s\" %%command%%", fnvCompatdata))

	ui.PrintInfo("")
	ui.PrintInfo("Would you like to set up Fallout New Vegas dependencies? (Choose yes if modding)")
	confirmed, err := ui.ConfirmAction("Set up FNV dependencies?")
	if err != nil {
		return err
	}
	if confirmed {
		return a.setupGameDependencies("22380", "Fallout New Vegas")
	}

	return nil
}

// showEnderalInfo shows Enderal specific information
func (a *App) showEnderalInfo() error {
	ui.PrintSection("Enderal - Launch Options & Dependencies")

	steamRoot, err := steamlib.FindSteamRoot()
	if err != nil {
		ui.PrintError("Could not find Steam installation: " + err.Error())
		return nil
	}

	enderalCompatdata, err := steamlib.FindCompatData("976620", steamRoot)
	if err != nil {
		ui.PrintError("Could not find Enderal compatdata: " + err.Error())
		return nil
	}

	ui.PrintInfo("For Enderal modlists, use this launch option:")
	ui.PrintCommand(fmt.Sprintf("STEAM_COMPAT_DATA_PATH=\"%s\" %%command%%", enderalCompatdata))

	ui.PrintInfo("")
	ui.PrintInfo("Would you like to set up Enderal dependencies? (Choose yes if modding)")
	confirmed, err := ui.ConfirmAction("Set up Enderal dependencies?")
	if err != nil {
		return err
	}
	if confirmed {
		return a.setupGameDependencies("976620", "Enderal")
	}

	return nil
}

// setupGameDependencies installs a game's component list via protontricks
// and applies the Wine settings bundle to its prefix.
func (a *App) setupGameDependencies(appID, gameName string) error {
	ui.PrintSection("Setting up " + gameName + " Dependencies")
	ui.PrintInfo("Installing dependencies via protontricks...")

	protontricksCmd, err := utils.GetProtontricksCommand()
	if err != nil {
		ui.PrintError("Could not find protontricks: " + err.Error())
		return err
	}

	installer := dependencies.NewDependencyInstaller()
	components := installer.GetGameComponents(appID)

	ui.PrintInfo("Installing components:")
	for _, comp := range components {
		ui.PrintInfo(fmt.Sprintf("- %s", comp))
	}

	args := []string{"--no-bwrap", appID, "-q"}
	args = append(args, components...)

	var cmd *exec.Cmd
	if strings.HasPrefix(protontricksCmd, "flatpak run") {
		parts := strings.Fields(protontricksCmd)
		cmd = exec.Command(parts[0], append(parts[1:], args...)...)
	} else {
		cmd = exec.Command(protontricksCmd, args...)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		ui.PrintWarning(fmt.Sprintf("protontricks exited with error: %v", err))
	}

	ui.PrintSuccess(gameName + " dependencies setup complete!")
	return nil
}

func (a *App) removeNxmHandlers() error {
	ui.PrintSection("Remove NXM Handlers")
	ui.PrintInfo("This will remove previously configured NXM handlers.")

	confirmed, err := ui.ConfirmAction("Are you sure you want to remove NXM handlers?")
	if err != nil {
		return err
	}

	if !confirmed {
		ui.PrintInfo("Operation cancelled.")
		return nil
	}

	ui.PrintInfo("Removing NXM handlers...")

	handler := nxm.NewHandler()
	for _, desktopName := range []string{"mo2-nxm-handler.desktop", "vortex-nxm-handler.desktop"} {
		if err := handler.Remove(desktopName); err != nil {
			ui.PrintWarning(fmt.Sprintf("Failed to remove %s: %v", desktopName, err))
		}
	}

	ui.PrintSuccess("NXM handlers removed successfully!")
	return nil
}

// MO2 Setup Actions
func (a *App) downloadMO2() error {
	installer := mo2.NewMO2Installer()
	return installer.DownloadMO2()
}

func (a *App) setupExistingMO2() error {
	installer := mo2.NewMO2Installer()
	return installer.SetupExistingMO2()
}

func (a *App) installBasicDependencies() error {
	installer := dependencies.NewDependencyInstaller()
	return installer.InstallBasicDependencies()
}

// configureNxmHandler wires nxm:// links to an MO2 shortcut's nxmhandler.exe
// inside its Proton prefix.
func (a *App) configureNxmHandler() error {
	ui.PrintSection("Configure NXM Handler")

	ui.PrintInfo("This will set up NXM link handling for Mod Organizer 2.")
	ui.PrintInfo("NXM links will open directly in MO2 when clicked in your browser.")

	confirmed, err := ui.ConfirmAction("Continue with NXM handler configuration?")
	if err != nil || !confirmed {
		return nil
	}

	ui.PrintSection("Fetching Non-Steam Games")
	ui.PrintInfo("Scanning for non-Steam games...")

	games, err := utils.GetNonSteamGames()
	if err != nil {
		ui.PrintError("Could not get non-Steam games: " + err.Error())
		return nil
	}

	if len(games) == 1 {
		selectedGame := games[0]
		a.logger.Info(fmt.Sprintf("Auto-selected only game: %s (AppID: %s)", selectedGame.Name, selectedGame.AppID))
		return a.setupNxmHandler(selectedGame)
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
		a.logger.Info(fmt.Sprintf("Selected game: %s (AppID: %s)", selectedGame.Name, selectedGame.AppID))
		return a.setupNxmHandler(selectedGame)
	}

	return nil
}

func (a *App) setupNxmHandler(game utils.Game) error {
	a.logger.Info(fmt.Sprintf("Setting up NXM handler for %s (AppID: %s)", game.Name, game.AppID))

	ui.PrintSection("NXM Link Handler Setup")

	steamRoot, err := steamlib.FindSteamRoot()
	if err != nil {
		ui.PrintWarning("Could not find Steam installation: " + err.Error())
		return nil
	}

	protonPath, err := a.findProtonPath(steamRoot, game.AppID)
	if err != nil {
		ui.PrintWarning("Could not automatically detect Proton version.")
		ui.PrintInfo("Please select a Proton version manually:")

		protonPath, err = a.selectProtonVersion(steamRoot)
		if err != nil {
			ui.PrintError("Could not find any Proton installation. Make sure Proton is installed in Steam.")
			return nil
		}
	} else {
		ui.PrintInfo("Detected Proton version from game compatibility data.")
		confirmed, err := ui.ConfirmAction("Use detected Proton version? (N to choose different)")
		if err != nil || !confirmed {
			protonPath, err = a.selectProtonVersion(steamRoot)
			if err != nil {
				ui.PrintError("Could not find any Proton installation. Make sure Proton is installed in Steam.")
				return nil
			}
		}
	}

	ui.PrintInfo("Enter FULL path to nxmhandler.exe (or 'b' to go back)")
	nxmHandlerPath, err := ui.GetInputWithTabCompletion("Path to nxmhandler.exe: ", "")
	if err != nil {
		return err
	}

	if strings.ToLower(nxmHandlerPath) == "b" {
		a.logger.Info("User cancelled NXM handler setup")
		return nil
	}

	if !utils.FileExists(nxmHandlerPath) {
		ui.PrintError("File not found! Try again or enter 'b' to go back.")
		return fmt.Errorf("invalid path: %s", nxmHandlerPath)
	}

	a.logger.Info("Selected nxmhandler.exe: " + nxmHandlerPath)

	compatDataPath := filepath.Join(steamRoot, "steamapps", "compatdata", game.AppID)

	handler := nxm.NewHandler()
	if err := handler.InstallForMO2(nxmHandlerPath, protonPath, compatDataPath); err != nil {
		return fmt.Errorf("could not set up NXM handler: %w", err)
	}

	ui.PrintSuccess("NXM Handler setup complete!")
	a.logger.Info("NXM Handler setup complete")

	return nil
}

func (a *App) findProtonPath(steamRoot string, gameAppID string) (string, error) {
	if gameAppID != "" {
		compatDataPath, err := steamlib.FindCompatData(gameAppID, steamRoot)
		if err == nil {
			if version := steamlib.DetectProtonVersion(compatDataPath); version != "" {
				if protonPath, err := steamlib.FindProton(steamRoot, version); err == nil {
					a.logger.Info(fmt.Sprintf("Using detected Proton version: %s", version))
					return protonPath, nil
				}
			}
		}
	}

	versions, err := steamlib.ListProtonVersions(steamRoot)
	if err == nil && len(versions) > 0 {
		if protonPath, err := steamlib.FindProton(steamRoot, versions[0]); err == nil {
			a.logger.Info(fmt.Sprintf("Using fallback Proton version: %s", versions[0]))
			return protonPath, nil
		}
	}

	return "", fmt.Errorf("Proton not found in any location")
}

func (a *App) selectProtonVersion(steamRoot string) (string, error) {
	versions, err := steamlib.ListProtonVersions(steamRoot)
	if err != nil {
		return "", fmt.Errorf("failed to get Proton versions: %w", err)
	}

	if len(versions) == 0 {
		return "", fmt.Errorf("no Proton versions found")
	}

	if len(versions) == 1 {
		protonPath, err := steamlib.FindProton(steamRoot, versions[0])
		if err != nil {
			return "", fmt.Errorf("failed to find Proton installation: %w", err)
		}
		a.logger.Info(fmt.Sprintf("Auto-selected only available Proton version: %s", versions[0]))
		return protonPath, nil
	}

	menuItems := make([]ui.MenuItem, len(versions))
	for i, version := range versions {
		menuItems[i] = ui.MenuItem{
			ID:          i + 1,
			Title:       version,
			Description: "Proton version",
		}
	}

	menu := ui.Menu{
		Title:    "Select Proton Version",
		Items:    menuItems,
		ExitText: "Cancel",
	}

	choice, err := ui.DisplayMenu(menu)
	if err != nil {
		return "", fmt.Errorf("menu error: %w", err)
	}

	if choice == len(versions)+1 {
		return "", fmt.Errorf("user cancelled")
	}

	if choice > 0 && choice <= len(versions) {
		selectedVersion := versions[choice-1]
		protonPath, err := steamlib.FindProton(steamRoot, selectedVersion)
		if err != nil {
			return "", fmt.Errorf("failed to find Proton installation: %w", err)
		}
		a.logger.Info(fmt.Sprintf("User selected Proton version: %s", selectedVersion))
		return protonPath, nil
	}

	return "", fmt.Errorf("invalid selection")
}

func (a *App) configureGamesForLimo() error {
	configurator := limo.NewLimoConfigurator()
	return configurator.ConfigureGamesForLimo()
}

func (a *App) checkForUpdates() {
	a.logger.Info("Checking for updates")

	// Update checking against GitHub releases is not implemented yet.
	a.logger.Info("Update checking enabled (no updates available)")
}

func (a *App) checkDependencies() {
	ui.PrintInfo("Checking system dependencies...")

	if !utils.CommandExists("protontricks") {
		ui.PrintWarning("Protontricks is not installed.")
		ui.PrintInfo("Install it with: sudo apt install protontricks")
	} else {
		ui.PrintSuccess("Protontricks: Available")
	}

	_, err := steamlib.FindSteamRoot()
	if err != nil {
		ui.PrintWarning("Steam installation not found.")
		ui.PrintInfo("Please install Steam natively (not via Flatpak)")
	} else {
		ui.PrintSuccess("Steam: Native installation detected")
	}

	if utils.CommandExists("flatpak") {
		cmd := exec.Command("flatpak", "list", "--app", "--columns=application")
		output, err := cmd.Output()
		if err == nil && strings.Contains(string(output), "com.valvesoftware.Steam") {
			ui.PrintWarning("Flatpak Steam detected - not supported")
			ui.PrintInfo("Please install Steam natively for best compatibility")
		}
	}

	ui.PrintInfo("Dependency check complete.")
}

// Vortex Setup Actions
func (a *App) downloadVortex() error {
	installer := vortex.NewVortexInstaller()
	return installer.DownloadVortex()
}

func (a *App) setupExistingVortex() error {
	installer := vortex.NewVortexInstaller()
	return installer.SetupExistingVortex()
}

func (a *App) configureVortexNxmHandler() error {
	installer := vortex.NewVortexInstaller()
	return installer.SetupVortexNxmHandler()
}
