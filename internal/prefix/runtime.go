package prefix

import (
	"path/filepath"
)

// Runtime abstracts how a Windows executable is launched for a prefix. The
// choice between Proton and plain Wine is made once at the start of a
// provisioning run, never re-checked per step.
type Runtime interface {
	Name() string
	// Binary is the host executable to invoke.
	Binary() string
	// Env returns the extra environment the launch needs.
	Env(steamRoot, compatDataPath string) []string
	// RunArgs builds the argument list for launching target.
	RunArgs(target string, args ...string) []string
}

// ProtonRuntime launches targets through Valve's proton script, which drives
// its bundled Wine against the Steam compatdata layout.
type ProtonRuntime struct {
	ProtonPath string
}

func (p ProtonRuntime) Name() string { return "Proton" }

func (p ProtonRuntime) Binary() string { return p.ProtonPath }

func (p ProtonRuntime) Env(steamRoot, compatDataPath string) []string {
	return []string{
		"STEAM_COMPAT_CLIENT_INSTALL_PATH=" + steamRoot,
		"STEAM_COMPAT_DATA_PATH=" + compatDataPath,
	}
}

func (p ProtonRuntime) RunArgs(target string, args ...string) []string {
	return append([]string{"run", target}, args...)
}

// WineRuntime launches targets with a plain wine binary against the same
// prefix directory Proton would use.
type WineRuntime struct {
	WinePath string
}

func (w WineRuntime) Name() string { return "Wine" }

func (w WineRuntime) Binary() string { return w.WinePath }

func (w WineRuntime) Env(_, compatDataPath string) []string {
	return []string{"WINEPREFIX=" + filepath.Join(compatDataPath, "pfx")}
}

func (w WineRuntime) RunArgs(target string, args ...string) []string {
	return append([]string{target}, args...)
}
