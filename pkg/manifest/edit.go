// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrAlreadyAdded is returned by AddDependency when the name is already declared.
var ErrAlreadyAdded = errors.New("dependency already added")

// AlreadyAddedError names the dependency that is already declared.
type AlreadyAddedError struct {
	Name string
}

// Error implements the error interface.
func (e *AlreadyAddedError) Error() string {
	return fmt.Sprintf("%s is already a dependency", e.Name)
}

// Unwrap returns ErrAlreadyAdded so callers can use errors.Is for programmatic detection.
func (e *AlreadyAddedError) Unwrap() error { return ErrAlreadyAdded }

// AddDependency declares name = "version" in the [dependencies] table of the
// manifest at path. The rest of the file is kept as written. If the file has
// no [dependencies] table, one is appended.
func AddDependency(path, name, version string) error {
	m, err := Load(path)
	if err != nil {
		return err
	}
	if _, ok := m.Dependency(name); ok {
		return &AlreadyAddedError{Name: name}
	}

	data, err := os.ReadFile(m.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", m.Path, err)
	}

	lines := strings.Split(string(data), "\n")
	entry := formatKey(name) + " = " + strconv.Quote(version)

	if end, ok := findDependenciesTable(lines); ok {
		newLines := make([]string, 0, len(lines)+1)
		newLines = append(newLines, lines[:end]...)
		newLines = append(newLines, entry)
		newLines = append(newLines, lines[end:]...)
		lines = newLines
	} else {
		for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
			lines = lines[:len(lines)-1]
		}
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "[dependencies]", entry, "")
	}

	out := []byte(strings.Join(lines, "\n"))
	if _, err := Parse(out, m.Path); err != nil {
		return err
	}
	return atomicWriteFile(m.Path, out)
}

// findDependenciesTable returns the line index just past the last key/value
// line of the [dependencies] table.
func findDependenciesTable(lines []string) (end int, found bool) {
	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "[dependencies]" {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}

	end = start + 1
	for i := start + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "[") {
			break
		}
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			end = i + 1
		}
	}
	return end, true
}

// formatKey quotes keys that are not valid bare TOML keys.
func formatKey(key string) string {
	for _, r := range key {
		bare := r == '-' || r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !bare {
			return strconv.Quote(key)
		}
	}
	return key
}

func atomicWriteFile(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // Best-effort cleanup
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
