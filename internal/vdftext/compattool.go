// Package vdftext edits Steam's text-format VDF files in place. Only the
// pieces this tool needs are implemented: locating a block by key with a
// brace-balanced scan and rewriting the CompatToolMapping entry for one
// AppID. The rest of the file is preserved byte for byte.
package vdftext

import (
	"fmt"
	"os"
	"strings"

	"github.com/lodestone-mods/lodestone/internal/logging"
)

// compatToolPriority is the fixed priority Steam writes for user-pinned
// compatibility tools.
const compatToolPriority = "250"

// SetCompatTool pins appID to the named Proton tool in config.vdf. If a
// mapping for the AppID already exists its whole sub-block is replaced,
// otherwise a new one is inserted, so applying the same mapping twice leaves
// the file identical to a single application.
func SetCompatTool(configPath, appID, toolName string) error {
	logger := logging.GetLogger()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", configPath, err)
	}
	content := string(data)

	blk, ok := findKeyBlock(content, 0, len(content), "CompatToolMapping")
	if !ok {
		logger.Info("No CompatToolMapping block in " + configPath + ", creating one")
		content, err = insertEmptyMappingBlock(content)
		if err != nil {
			return err
		}
		blk, ok = findKeyBlock(content, 0, len(content), "CompatToolMapping")
		if !ok {
			return fmt.Errorf("failed to create CompatToolMapping block in %s", configPath)
		}
	}

	indent := strings.Repeat("\t", braceDepth(content, blk.open)+1)
	entry := buildMappingEntry(indent, appID, toolName)

	if sub, ok := findKeyBlock(content, blk.open+1, blk.close, appID); ok {
		start := lineStart(content, sub.keyStart)
		end := lineEnd(content, sub.close)
		content = content[:start] + entry + content[end:]
		logger.Info(fmt.Sprintf("Replaced CompatToolMapping entry for AppID %s with %s", appID, toolName))
	} else {
		at := lineStart(content, blk.close)
		content = content[:at] + entry + content[at:]
		logger.Info(fmt.Sprintf("Added CompatToolMapping entry for AppID %s -> %s", appID, toolName))
	}

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", configPath, err)
	}
	return nil
}

func buildMappingEntry(indent, appID, toolName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\"%s\"\n", indent, appID)
	fmt.Fprintf(&b, "%s{\n", indent)
	fmt.Fprintf(&b, "%s\t\"name\"\t\t\"%s\"\n", indent, toolName)
	fmt.Fprintf(&b, "%s\t\"config\"\t\t\"\"\n", indent)
	fmt.Fprintf(&b, "%s\t\"priority\"\t\t\"%s\"\n", indent, compatToolPriority)
	fmt.Fprintf(&b, "%s}\n", indent)
	return b.String()
}

// insertEmptyMappingBlock places an empty CompatToolMapping block just before
// the file's final closing brace.
func insertEmptyMappingBlock(content string) (string, error) {
	last := strings.LastIndexByte(content, '}')
	if last < 0 {
		return "", fmt.Errorf("config.vdf has no closing brace")
	}
	indent := strings.Repeat("\t", braceDepth(content, last))
	block := fmt.Sprintf("%s\"CompatToolMapping\"\n%s{\n%s}\n", indent, indent, indent)
	at := lineStart(content, last)
	return content[:at] + block + content[at:], nil
}

type textBlock struct {
	keyStart int // index of the opening quote of the key
	open     int // index of '{'
	close    int // index of matching '}'
}

// findKeyBlock scans content[from:to) for a quoted key followed by a braced
// block and returns the block bounds. The scan is brace-depth aware and skips
// quoted strings, so nested blocks elsewhere in the file cannot mislead it
// the way a non-recursive regex would.
func findKeyBlock(content string, from, to int, key string) (textBlock, bool) {
	i := from
	for i < to {
		c := content[i]
		switch c {
		case '"':
			tokenStart := i
			token, next, ok := readQuoted(content, i, to)
			if !ok {
				return textBlock{}, false
			}
			i = next
			if !strings.EqualFold(token, key) {
				continue
			}
			open := nextNonSpace(content, i, to)
			if open < 0 || content[open] != '{' {
				continue
			}
			closeIdx, ok := matchBrace(content, open, to)
			if !ok {
				return textBlock{}, false
			}
			return textBlock{keyStart: tokenStart, open: open, close: closeIdx}, true
		default:
			i++
		}
	}
	return textBlock{}, false
}

// matchBrace returns the index of the '}' matching the '{' at open.
func matchBrace(content string, open, to int) (int, bool) {
	depth := 0
	i := open
	for i < to {
		switch content[i] {
		case '"':
			_, next, ok := readQuoted(content, i, to)
			if !ok {
				return 0, false
			}
			i = next
			continue
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
		i++
	}
	return 0, false
}

// readQuoted consumes a double-quoted token starting at i, honoring
// backslash escapes, and returns the token and the index after the closing
// quote.
func readQuoted(content string, i, to int) (string, int, bool) {
	var b strings.Builder
	j := i + 1
	for j < to {
		c := content[j]
		if c == '\\' && j+1 < to {
			b.WriteByte(content[j+1])
			j += 2
			continue
		}
		if c == '"' {
			return b.String(), j + 1, true
		}
		b.WriteByte(c)
		j++
	}
	return "", 0, false
}

func nextNonSpace(content string, i, to int) int {
	for ; i < to; i++ {
		switch content[i] {
		case ' ', '\t', '\r', '\n':
		default:
			return i
		}
	}
	return -1
}

// braceDepth counts unmatched opening braces before pos, skipping quoted
// strings.
func braceDepth(content string, pos int) int {
	depth := 0
	i := 0
	for i < pos {
		switch content[i] {
		case '"':
			_, next, ok := readQuoted(content, i, pos+1)
			if !ok {
				return depth
			}
			i = next
			continue
		case '{':
			depth++
		case '}':
			depth--
		}
		i++
	}
	return depth
}

func lineStart(content string, pos int) int {
	if nl := strings.LastIndexByte(content[:pos], '\n'); nl >= 0 {
		return nl + 1
	}
	return 0
}

// lineEnd returns the index just past the newline ending the line containing
// pos.
func lineEnd(content string, pos int) int {
	if nl := strings.IndexByte(content[pos:], '\n'); nl >= 0 {
		return pos + nl + 1
	}
	return len(content)
}
