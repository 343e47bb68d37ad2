// Package register wires a freshly installed tool into Steam: a shortcuts.vdf
// entry, a CompatToolMapping pin, and a provisioned Proton prefix.
package register

import (
	"fmt"

	"github.com/lodestone-mods/lodestone/internal/logging"
	"github.com/lodestone-mods/lodestone/internal/prefix"
	"github.com/lodestone-mods/lodestone/internal/shortcuts"
	"github.com/lodestone-mods/lodestone/internal/steamlib"
	"github.com/lodestone-mods/lodestone/internal/vdftext"
)

// Request describes one tool to register as a non-Steam game.
type Request struct {
	AppName       string
	ExePath       string
	StartDir      string
	LaunchOptions string
	// ProtonVersion selects the compat tool pinned for the shortcut,
	// e.g. "Proton - Experimental".
	ProtonVersion string
	// Progress receives human-readable status lines; nil is fine.
	Progress func(string)
}

// Outcome reports what registration produced.
type Outcome struct {
	AppID          uint32
	CompatDataPath string
	ProtonPath     string
}

// AddToSteam runs the full pipeline: upsert the shortcut, pin the Proton
// version, provision the prefix. Steam must not be running while the
// shortcut store is written.
func AddToSteam(req Request) (*Outcome, error) {
	logger := logging.GetLogger()
	report := func(message string) {
		logger.Info(message)
		if req.Progress != nil {
			req.Progress(message)
		}
	}

	steamRoot, err := steamlib.FindSteamRoot()
	if err != nil {
		return nil, fmt.Errorf("locate Steam: %w", err)
	}

	userID, err := steamlib.FindLatestUser(steamRoot)
	if err != nil {
		return nil, fmt.Errorf("locate Steam user: %w", err)
	}

	protonPath, err := steamlib.FindProton(steamRoot, req.ProtonVersion)
	if err != nil {
		return nil, fmt.Errorf("locate Proton %q: %w", req.ProtonVersion, err)
	}

	report(fmt.Sprintf("Adding %s to Steam...", req.AppName))

	store := shortcuts.NewStore(steamlib.ShortcutsPath(steamRoot, userID))
	rec := shortcuts.NewRecord(req.AppName, req.ExePath, req.StartDir)
	rec.LaunchOptions = req.LaunchOptions

	appID, err := store.Upsert(rec)
	if err != nil {
		return nil, fmt.Errorf("write shortcut: %w", err)
	}
	report(fmt.Sprintf("Shortcut written (AppID %d)", appID))

	// CompatToolMapping holds Steam's tool identifier, not the folder name.
	toolID := steamlib.CompatToolID(steamRoot, req.ProtonVersion)
	if err := vdftext.SetCompatTool(steamlib.ConfigPath(steamRoot), fmt.Sprintf("%d", appID), toolID); err != nil {
		return nil, fmt.Errorf("pin Proton version: %w", err)
	}
	report(fmt.Sprintf("Pinned %s for the shortcut", req.ProtonVersion))

	prov := prefix.NewProvisioner(steamRoot, prefix.ProtonRuntime{ProtonPath: protonPath})
	prov.Progress = req.Progress
	result := prov.Provision(appID)
	if !result.Success {
		return nil, fmt.Errorf("provision prefix: %w", result.Err)
	}

	return &Outcome{
		AppID:          appID,
		CompatDataPath: result.CompatDataPath,
		ProtonPath:     protonPath,
	}, nil
}
