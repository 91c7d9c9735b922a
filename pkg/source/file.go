// SPDX-License-Identifier: MPL-2.0

package source

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ereborstudios/smaug/pkg/dependency"
	"github.com/ereborstudios/smaug/pkg/manifest"
)

// FileSource extracts a local ZIP archive.
type FileSource struct {
	presence

	Path string
	env  Env
}

// Install extracts the archive into the cache slot for dep, finds the
// package root inside it and copies that into destination/<dep.Name>.
func (s FileSource) Install(ctx context.Context, dep dependency.Dependency, destination string) error {
	return fetchError(dependency.KindFile, dep, s.install(ctx, dep, destination))
}

// Kind returns dependency.KindFile.
func (FileSource) Kind() dependency.Kind { return dependency.KindFile }

// Clone returns a copy of s.
func (s FileSource) Clone() Source { return s }

func (s FileSource) install(ctx context.Context, dep dependency.Dependency, destination string) error {
	slot := s.env.slot(dep.Name)
	if err := resetSlot(s.env.Logger, slot); err != nil {
		return err
	}

	s.env.Logger.Debug("extracting archive", "archive", s.Path, "to", slot)
	if err := extractArchive(s.Path, slot); err != nil {
		return fmt.Errorf("%w %s: %w", ErrArchive, s.Path, err)
	}

	root, err := findPackageDir(slot)
	if err != nil {
		return err
	}

	return DirSource{Path: root, env: s.env}.install(ctx, dep, destination)
}

// extractArchive unpacks every entry of the ZIP at archivePath below destDir.
func extractArchive(archivePath, destDir string) (err error) {
	zipReader, err := zip.OpenReader(archivePath)
	if err != nil {
		if zipReader != nil {
			_ = zipReader.Close()
		}
		return err
	}
	defer func() {
		if closeErr := zipReader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	for _, file := range zipReader.File {
		destPath := filepath.Join(destDir, filepath.FromSlash(file.Name))

		// Entries must not escape destDir.
		relPath, relErr := filepath.Rel(destDir, destPath)
		if relErr != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
			return fmt.Errorf("invalid path in ZIP: %s", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}
		if !file.Mode().IsRegular() {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return fmt.Errorf("failed to create parent directory: %w", err)
		}
		if err := extractFile(file, destPath); err != nil {
			return fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
	}

	return nil
}

func extractFile(file *zip.File, destPath string) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := destFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	//nolint:gosec // G110: archives come from sources the project owner declared
	_, err = io.Copy(destFile, rc)
	return err
}

// findPackageDir returns the shallowest directory under root that holds a
// manifest. Archives commonly wrap the package in one top-level directory.
func findPackageDir(root string) (string, error) {
	found := ""
	foundDepth := -1

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || d.Name() != manifest.FileName {
			return nil
		}
		dir := filepath.Dir(path)
		depth := strings.Count(dir, string(filepath.Separator))
		if foundDepth < 0 || depth < foundDepth {
			found, foundDepth = dir, depth
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("%w: no %s found in %s", ErrArchive, manifest.FileName, root)
	}
	return found, nil
}
