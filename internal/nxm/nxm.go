// Package nxm wires Nexus Mods "Download with manager" links (nxm://) to a
// mod manager running inside a Proton prefix, via a generated .desktop entry
// and MIME scheme-handler registration.
package nxm

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lodestone-mods/lodestone/internal/logging"
	"github.com/lodestone-mods/lodestone/internal/steamlib"
	"github.com/lodestone-mods/lodestone/internal/utils"
)

type Handler struct {
	logger *logging.Logger
}

func NewHandler() *Handler {
	return &Handler{logger: logging.GetLogger()}
}

// InstallForMO2 sets up nxm:// handling for Mod Organizer 2. MO2 takes the
// link as a plain argument.
func (h *Handler) InstallForMO2(mo2Exe, protonPath, compatDataPath string) error {
	return h.install("mo2-nxm-handler.desktop", "MO2 NXM Handler",
		mo2Exe, protonPath, compatDataPath,
		[]string{`"%u"`}, []string{"nxm"})
}

// InstallForVortex sets up nxm:// and nxm-protocol:// handling for Vortex,
// which expects a -d flag before the link.
func (h *Handler) InstallForVortex(vortexExe, protonPath, compatDataPath string) error {
	return h.install("vortex-nxm-handler.desktop", "Vortex NXM Handler",
		vortexExe, protonPath, compatDataPath,
		[]string{`"-d"`, `"%u"`}, []string{"nxm", "nxm-protocol"})
}

func (h *Handler) install(desktopName, displayName, exePath, protonPath, compatDataPath string, exeArgs, protocols []string) error {
	steamRoot, err := steamlib.FindSteamRoot()
	if err != nil {
		return fmt.Errorf("could not find Steam installation: %w", err)
	}

	homeDir, err := utils.GetHomeDir()
	if err != nil {
		return fmt.Errorf("could not get home directory: %w", err)
	}

	applicationsDir := filepath.Join(homeDir, ".local", "share", "applications")
	if err := utils.CreateDirectory(applicationsDir); err != nil {
		return fmt.Errorf("could not create applications directory: %w", err)
	}

	execCommand := fmt.Sprintf(`bash -c 'env "STEAM_COMPAT_CLIENT_INSTALL_PATH=%s" "STEAM_COMPAT_DATA_PATH=%s" "%s" run "%s" %s'`,
		steamRoot, compatDataPath, protonPath, exePath, strings.Join(exeArgs, " "))

	var mimeTypes strings.Builder
	for _, protocol := range protocols {
		mimeTypes.WriteString("x-scheme-handler/" + protocol + ";")
	}

	desktopContent := fmt.Sprintf(`[Desktop Entry]
Type=Application
Categories=Game;
Exec=%s
Name=%s
MimeType=%s
NoDisplay=true
`, execCommand, displayName, mimeTypes.String())

	desktopFile := filepath.Join(applicationsDir, desktopName)
	if err := os.WriteFile(desktopFile, []byte(desktopContent), 0755); err != nil {
		return fmt.Errorf("could not create desktop file: %w", err)
	}
	h.logger.Info("Wrote NXM handler desktop file: " + desktopFile)

	for _, protocol := range protocols {
		if err := h.registerMimeHandler(desktopName, protocol); err != nil {
			h.logger.Warning(fmt.Sprintf("Failed to register %s handler: %v", protocol, err))
		}
	}

	return nil
}

// Remove deletes a previously installed handler desktop file.
func (h *Handler) Remove(desktopName string) error {
	homeDir, err := utils.GetHomeDir()
	if err != nil {
		return err
	}

	desktopFile := filepath.Join(homeDir, ".local", "share", "applications", desktopName)
	if !utils.FileExists(desktopFile) {
		return nil
	}

	if err := os.Remove(desktopFile); err != nil {
		return fmt.Errorf("could not remove desktop file: %w", err)
	}

	h.logger.Info("Removed NXM handler desktop file: " + desktopFile)
	h.updateDesktopDatabase(homeDir)
	return nil
}

func (h *Handler) registerMimeHandler(desktopName, protocol string) error {
	// xdg-mime is the well-behaved path; fall back to editing mimeapps.list
	// directly when it is missing or fails.
	cmd := exec.Command("xdg-mime", "default", desktopName, "x-scheme-handler/"+protocol)
	if err := cmd.Run(); err == nil {
		h.logger.Info(fmt.Sprintf("Registered %s handler via xdg-mime", protocol))
		return nil
	}

	homeDir, err := utils.GetHomeDir()
	if err != nil {
		return fmt.Errorf("could not get home directory: %w", err)
	}

	mimeappsPath := filepath.Join(homeDir, ".config", "mimeapps.list")

	if !utils.FileExists(mimeappsPath) {
		if err := os.MkdirAll(filepath.Dir(mimeappsPath), 0755); err != nil {
			return fmt.Errorf("could not create mimeapps directory: %w", err)
		}
		if err := os.WriteFile(mimeappsPath, []byte("[Default Applications]\n"), 0644); err != nil {
			return fmt.Errorf("could not create mimeapps.list: %w", err)
		}
	}

	content, err := os.ReadFile(mimeappsPath)
	if err != nil {
		return fmt.Errorf("could not read mimeapps.list: %w", err)
	}

	lines := strings.Split(string(content), "\n")
	var newLines []string
	for _, line := range lines {
		if !strings.Contains(line, "x-scheme-handler/"+protocol) {
			newLines = append(newLines, line)
		}
	}
	newLines = append(newLines, fmt.Sprintf("x-scheme-handler/%s=%s", protocol, desktopName))

	if err := os.WriteFile(mimeappsPath, []byte(strings.Join(newLines, "\n")), 0644); err != nil {
		return fmt.Errorf("could not write mimeapps.list: %w", err)
	}

	h.updateDesktopDatabase(homeDir)
	h.logger.Info(fmt.Sprintf("Registered %s handler via mimeapps.list", protocol))
	return nil
}

func (h *Handler) updateDesktopDatabase(homeDir string) {
	cmd := exec.Command("update-desktop-database", filepath.Join(homeDir, ".local", "share", "applications"))
	if err := cmd.Run(); err != nil {
		h.logger.Warning("Failed to update desktop database: " + err.Error())
	}
}
