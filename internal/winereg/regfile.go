package winereg

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
)

//go:embed wine_settings.reg
var wineSettingsReg string

// ParseRegFile translates a Windows registry export (.reg text) into the key
// blocks AppendKeys writes. HKEY_CURRENT_USER roots are remapped to the fixed
// SID Wine uses for the default user of a fresh prefix; other roots map to
// the machine hive unchanged.
func ParseRegFile(content string) ([]Key, error) {
	var keys []Key
	var current *Key

	for lineNo, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
		if line == "" || strings.HasPrefix(line, ";") ||
			strings.HasPrefix(line, "Windows Registry Editor") || line == "REGEDIT4" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, fmt.Errorf("line %d: unterminated section header", lineNo+1)
			}
			path := remapRoot(line[1 : len(line)-1])
			keys = append(keys, Key{Path: path})
			current = &keys[len(keys)-1]
			continue
		}

		if current == nil {
			return nil, fmt.Errorf("line %d: value outside any section", lineNo+1)
		}
		value, err := parseRegValue(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		current.Values = append(current.Values, value)
	}

	return keys, nil
}

func remapRoot(path string) string {
	for prefix, replacement := range map[string]string{
		`HKEY_CURRENT_USER\`:  defaultUserSID + `\`,
		`HKEY_LOCAL_MACHINE\`: ``,
	} {
		if strings.HasPrefix(path, prefix) {
			return replacement + path[len(prefix):]
		}
	}
	return path
}

// parseRegValue handles the two value shapes the settings bundle uses:
// "name"="string data" and "name"=dword:hex.
func parseRegValue(line string) (Value, error) {
	if !strings.HasPrefix(line, `"`) {
		return Value{}, fmt.Errorf("unsupported value line %q", line)
	}
	nameEnd := strings.Index(line[1:], `"`)
	if nameEnd < 0 {
		return Value{}, fmt.Errorf("unterminated value name in %q", line)
	}
	name := line[1 : 1+nameEnd]
	rest := strings.TrimSpace(line[nameEnd+2:])
	if !strings.HasPrefix(rest, "=") {
		return Value{}, fmt.Errorf("missing '=' in %q", line)
	}
	rest = strings.TrimSpace(rest[1:])

	switch {
	case strings.HasPrefix(rest, "dword:"):
		n, err := strconv.ParseUint(strings.TrimPrefix(rest, "dword:"), 16, 32)
		if err != nil {
			return Value{}, fmt.Errorf("bad dword in %q: %w", line, err)
		}
		return Value{Name: name, Dword: uint32(n), IsDword: true}, nil
	case strings.HasPrefix(rest, `"`) && strings.HasSuffix(rest, `"`) && len(rest) >= 2:
		data := rest[1 : len(rest)-1]
		data = strings.ReplaceAll(data, `\\`, `\`)
		data = strings.ReplaceAll(data, `\"`, `"`)
		return Value{Name: name, Data: data}, nil
	default:
		return Value{}, fmt.Errorf("unsupported value data in %q", line)
	}
}

// ApplySettingsBundle appends the embedded display and DLL-override settings
// to a prefix's system.reg.
func ApplySettingsBundle(systemRegPath string) error {
	keys, err := ParseRegFile(wineSettingsReg)
	if err != nil {
		return fmt.Errorf("parse embedded wine settings: %w", err)
	}
	return AppendKeys(systemRegPath, keys)
}
