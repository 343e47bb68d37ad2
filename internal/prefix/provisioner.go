// Package prefix creates and prepares Proton compatibility prefixes for
// non-Steam games. Provisioning walks a small state machine: create the
// compatdata directories, boot the prefix once so Wine materializes its
// registry hives, then patch system.reg.
package prefix

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/lodestone-mods/lodestone/internal/logging"
	"github.com/lodestone-mods/lodestone/internal/steamlib"
	"github.com/lodestone-mods/lodestone/internal/winereg"
)

// State is how far a prefix has been provisioned.
type State int

const (
	StateAbsent State = iota
	StateDirectoryCreated
	StateWineInitialized
	StateRegistryPatched
)

func (s State) String() string {
	switch s {
	case StateDirectoryCreated:
		return "directory_created"
	case StateWineInitialized:
		return "wine_initialized"
	case StateRegistryPatched:
		return "registry_patched"
	default:
		return "absent"
	}
}

const (
	defaultBootTimeout = 2 * time.Minute
	// Wine flushes its registry asynchronously after the boot process exits,
	// so the prefix is not treated as ready until a settle delay has passed.
	defaultSettleDelay = 5 * time.Second

	bootScriptName = "prefix_boot.bat"
)

// Result is what provisioning hands back to callers, GUI or CLI alike.
type Result struct {
	Err            error
	CompatDataPath string
	AppID          uint32
	Success        bool
}

// Provisioner drives prefix creation for one Steam root and runtime. Calls
// block for the duration of the Proton subprocess plus the settle delay;
// callers needing a responsive surface run Provision on a worker and report
// through the Progress callback.
type Provisioner struct {
	Runtime     Runtime
	Progress    func(string)
	logger      *logging.Logger
	SteamRoot   string
	BootTimeout time.Duration
	SettleDelay time.Duration
}

func NewProvisioner(steamRoot string, runtime Runtime) *Provisioner {
	return &Provisioner{
		SteamRoot:   steamRoot,
		Runtime:     runtime,
		BootTimeout: defaultBootTimeout,
		SettleDelay: defaultSettleDelay,
		logger:      logging.GetLogger(),
	}
}

func (p *Provisioner) report(message string) {
	p.logger.Info(message)
	if p.Progress != nil {
		p.Progress(message)
	}
}

// CurrentState inspects the filesystem to see how far a prefix has gotten.
// Registry patching leaves no marker of its own, so StateWineInitialized is
// the highest state observable here.
func (p *Provisioner) CurrentState(appID uint32) State {
	compatData := steamlib.CompatDataPath(p.SteamRoot, appID)
	if _, err := os.Stat(compatData); err != nil {
		return StateAbsent
	}
	if info, err := os.Stat(p.systemRegPath(compatData)); err == nil && info.Size() > 0 {
		return StateWineInitialized
	}
	return StateDirectoryCreated
}

// Provision walks the full state machine for appID. Directory failures are
// fatal. A nonzero or timed-out boot is logged and provisioning continues,
// since the registry patch step is the authoritative readiness signal.
func (p *Provisioner) Provision(appID uint32) Result {
	result := Result{AppID: appID, CompatDataPath: steamlib.CompatDataPath(p.SteamRoot, appID)}

	if err := p.createDirectories(result.CompatDataPath); err != nil {
		result.Err = err
		return result
	}

	if p.CurrentState(appID) < StateWineInitialized {
		p.bootPrefix(result.CompatDataPath)
		p.awaitPrefixReady()
	}

	if err := p.patchRegistry(result.CompatDataPath); err != nil {
		result.Err = err
		return result
	}

	result.Success = true
	p.report(fmt.Sprintf("Prefix for AppID %d ready at %s", appID, result.CompatDataPath))
	return result
}

// createDirectories moves absent -> directory_created. Idempotent.
func (p *Provisioner) createDirectories(compatDataPath string) error {
	p.report("Creating prefix directories at " + compatDataPath)
	pfx := filepath.Join(compatDataPath, "pfx")
	if err := os.MkdirAll(pfx, 0755); err != nil {
		return fmt.Errorf("create prefix directory %s: %w", pfx, err)
	}
	return nil
}

// bootPrefix moves directory_created -> wine_initialized by running a no-op
// batch script once through the runtime. Launching anything forces Proton to
// build the prefix's drive_c and registry hives without running the real
// target.
func (p *Provisioner) bootPrefix(compatDataPath string) {
	scriptPath := filepath.Join(compatDataPath, bootScriptName)
	// Batch has no sleep; pinging localhost a few times is the conventional
	// stand-in and gives wineserver time to start writing hives.
	script := "@echo off\r\nping 127.0.0.1 -n 3 > nul\r\nexit 0\r\n"
	if err := os.WriteFile(scriptPath, []byte(script), 0755); err != nil {
		p.logger.Warning(fmt.Sprintf("Failed to write boot script: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.BootTimeout)
	defer cancel()

	p.report(fmt.Sprintf("Booting prefix once via %s to initialize Wine...", p.Runtime.Name()))
	cmd := exec.CommandContext(ctx, p.Runtime.Binary(), p.Runtime.RunArgs(scriptPath)...)
	cmd.Env = append(os.Environ(), p.Runtime.Env(p.SteamRoot, compatDataPath)...)

	output, err := cmd.CombinedOutput()
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		// The prefix may still be initializing in the background; state is
		// re-checked before the registry patch decides success.
		p.logger.Warning(fmt.Sprintf("Prefix boot timed out after %s", p.BootTimeout))
	case err != nil:
		// No-op scripts routinely exit nonzero under Proton without the
		// prefix being broken.
		p.logger.Warning(fmt.Sprintf("Prefix boot exited with error (continuing): %v", err))
		if len(output) > 0 {
			p.logger.Info("Boot output: " + string(output))
		}
	default:
		p.report("Prefix boot complete")
	}
}

// awaitPrefixReady waits out Wine's asynchronous registry flush. A fixed
// delay for now; call sites go through here so a real readiness poll (e.g.
// watching system.reg stabilize) can replace it later.
func (p *Provisioner) awaitPrefixReady() {
	p.report(fmt.Sprintf("Waiting %s for the prefix to settle...", p.SettleDelay))
	time.Sleep(p.SettleDelay)
}

// patchRegistry moves wine_initialized -> registry_patched by applying the
// embedded settings bundle.
func (p *Provisioner) patchRegistry(compatDataPath string) error {
	p.report("Applying Wine registry settings...")
	if err := winereg.ApplySettingsBundle(p.systemRegPath(compatDataPath)); err != nil {
		return fmt.Errorf("patch prefix registry: %w", err)
	}
	return nil
}

// RegisterGamePath injects a game's install location into the prefix
// registry so engine tooling inside it can find the game.
func (p *Provisioner) RegisterGamePath(appID uint32, registryPath, valueName, installPath string) error {
	compatData := steamlib.CompatDataPath(p.SteamRoot, appID)
	key := winereg.GamePathKey(registryPath, valueName, installPath)
	if err := winereg.AppendKeys(p.systemRegPath(compatData), []winereg.Key{key}); err != nil {
		return fmt.Errorf("register game path for AppID %d: %w", appID, err)
	}
	p.report(fmt.Sprintf("Registered game path %s in prefix %d", installPath, appID))
	return nil
}

func (p *Provisioner) systemRegPath(compatDataPath string) string {
	return filepath.Join(compatDataPath, "pfx", "system.reg")
}
