// Package winereg appends keys to a Wine prefix's system.reg, the flat text
// dump Wine keeps its registry in. Wine's reader takes the last occurrence of
// a key, so appending is sufficient; no attempt is made to deduplicate
// earlier blocks.
package winereg

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lodestone-mods/lodestone/internal/logging"
)

// ErrRegistryMissing means system.reg does not exist yet, i.e. the prefix has
// not been initialized by Wine. Patching must be deferred until after a
// Proton boot, not treated as fatal.
var ErrRegistryMissing = errors.New("system.reg not found, prefix not initialized")

// defaultUserSID is the SID Wine assigns to the single default user in a
// fresh prefix. HKEY_CURRENT_USER paths from .reg bundles are remapped under
// it.
const defaultUserSID = "S-1-5-21-0-0-0-1000"

// Value is one named registry value, either a string or a dword.
type Value struct {
	Name    string
	Data    string
	Dword   uint32
	IsDword bool
}

// Key is one registry key with its values, using single-backslash paths;
// escaping for the system.reg shape happens at write time.
type Key struct {
	Path   string
	Values []Value
}

// AppendKeys appends key blocks to system.reg. The file must already exist:
// Wine creates it during prefix initialization and writing a bare file
// ourselves would not make a working registry.
func AppendKeys(systemRegPath string, keys []Key) error {
	logger := logging.GetLogger()

	info, err := os.Stat(systemRegPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrRegistryMissing, systemRegPath)
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", systemRegPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", systemRegPath)
	}

	f, err := os.OpenFile(systemRegPath, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", systemRegPath, err)
	}
	defer f.Close()

	now := time.Now()
	var b strings.Builder
	for _, key := range keys {
		writeKeyBlock(&b, key, now)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("append to %s: %w", systemRegPath, err)
	}

	logger.Info(fmt.Sprintf("Appended %d registry key(s) to %s", len(keys), systemRegPath))
	return nil
}

func writeKeyBlock(b *strings.Builder, key Key, now time.Time) {
	fmt.Fprintf(b, "\n[%s] %d\n", escapePath(key.Path), now.Unix())
	fmt.Fprintf(b, "#time=%x\n", windowsFileTime(now))
	for _, v := range key.Values {
		if v.IsDword {
			fmt.Fprintf(b, "\"%s\"=dword:%08x\n", v.Name, v.Dword)
		} else {
			fmt.Fprintf(b, "\"%s\"=\"%s\"\n", v.Name, escapeData(v.Data))
		}
	}
}

// escapePath doubles backslashes the way Wine stores key paths.
func escapePath(path string) string {
	return strings.ReplaceAll(path, `\`, `\\`)
}

func escapeData(data string) string {
	data = strings.ReplaceAll(data, `\`, `\\`)
	return strings.ReplaceAll(data, `"`, `\"`)
}

// windowsFileTime converts a time to 100ns intervals since 1601-01-01, the
// unit Wine's #time lines use.
func windowsFileTime(t time.Time) uint64 {
	const epochDelta = 116444736000000000
	return uint64(t.UnixNano()/100) + epochDelta
}

// GamePathKey builds the registry key that lets a Bethesda engine locate its
// install directory from inside the prefix. installPath is a Linux path; it
// is exposed to Windows software through the Z: drive.
func GamePathKey(registryPath, valueName, installPath string) Key {
	return Key{
		Path: registryPath,
		Values: []Value{
			{Name: valueName, Data: WindowsPath(installPath)},
		},
	}
}

// WindowsPath converts a Linux path to the Z:-drive form Wine exposes the
// host filesystem under.
func WindowsPath(linuxPath string) string {
	return "Z:" + strings.ReplaceAll(linuxPath, "/", `\`)
}
