// SPDX-License-Identifier: MPL-2.0

// Package lockfile records which files an install placed in a project.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ereborstudios/smaug/internal/installer"
)

const (
	// FileName is the lock file name inside a project directory.
	FileName = "Smaug.lock"

	// CurrentVersion is the format version written by Save.
	CurrentVersion = "1"
)

// ErrUnsupportedVersion is the sentinel error wrapped by UnsupportedVersionError.
var ErrUnsupportedVersion = errors.New("unsupported lock file version")

type (
	// LockFile is the content of Smaug.lock.
	LockFile struct {
		Version   string    `toml:"version"`
		Generated time.Time `toml:"generated"`
		Files     []File    `toml:"file"`
	}

	// File is one installed file. Paths are slash-separated and relative to
	// the project directory.
	File struct {
		Package     string `toml:"package"`
		Source      string `toml:"source"`
		Destination string `toml:"destination"`
		Digest      string `toml:"digest"`
	}

	// UnsupportedVersionError is returned when a lock file was written by an
	// incompatible release.
	UnsupportedVersionError struct {
		Path    string
		Version string
	}
)

// New returns an empty lock file.
func New() *LockFile {
	return &LockFile{
		Version:   CurrentVersion,
		Generated: time.Now().UTC().Truncate(time.Second),
	}
}

// FromReport builds a lock file from an install report. destination is the
// directory holding installed dependencies; the first path element of a
// source below it names the package.
func FromReport(projectDir, destination string, report installer.Report) (*LockFile, error) {
	l := New()
	for _, res := range report.Results {
		pkg, err := filepath.Rel(destination, res.Install.From)
		if err != nil || pkg == ".." || strings.HasPrefix(pkg, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%s is not inside %s", res.Install.From, destination)
		}
		pkg, _, _ = strings.Cut(filepath.ToSlash(pkg), "/")

		src, err := relSlash(projectDir, res.Install.From)
		if err != nil {
			return nil, err
		}
		dst, err := relSlash(projectDir, res.Install.To)
		if err != nil {
			return nil, err
		}

		l.Files = append(l.Files, File{
			Package:     pkg,
			Source:      src,
			Destination: dst,
			Digest:      res.Digest,
		})
	}
	return l, nil
}

// Load reads the lock file at path. A missing file yields an empty lock file.
func Load(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}

	var l LockFile
	if err := toml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse lock file %s: %w", path, err)
	}
	if l.Version != CurrentVersion {
		return nil, &UnsupportedVersionError{Path: path, Version: l.Version}
	}
	return &l, nil
}

// Save writes the lock file to path atomically.
func (l *LockFile) Save(path string) error {
	data, err := toml.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to encode lock file: %w", err)
	}
	content := "# Generated by smaug. Do not edit.\n\n" + string(data)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) // best-effort
		return fmt.Errorf("failed to rename lock file: %w", err)
	}
	return nil
}

// Packages returns the distinct package names in file order.
func (l *LockFile) Packages() []string {
	var names []string
	seen := make(map[string]bool)
	for _, f := range l.Files {
		if !seen[f.Package] {
			seen[f.Package] = true
			names = append(names, f.Package)
		}
	}
	return names
}

// FilesOf returns the entries installed by pkg, in file order.
func (l *LockFile) FilesOf(pkg string) []File {
	var files []File
	for _, f := range l.Files {
		if f.Package == pkg {
			files = append(files, f)
		}
	}
	return files
}

func relSlash(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", target, err)
	}
	return filepath.ToSlash(rel), nil
}

// Error implements the error interface.
func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s: unsupported lock file version %q (want %q)", e.Path, e.Version, CurrentVersion)
}

// Unwrap returns ErrUnsupportedVersion for errors.Is() compatibility.
func (e *UnsupportedVersionError) Unwrap() error { return ErrUnsupportedVersion }
