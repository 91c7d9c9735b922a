// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ereborstudios/smaug/pkg/dependency"
	"github.com/ereborstudios/smaug/pkg/manifest"
)

var (
	// ErrPropagation is the sentinel error wrapped by PropagationError.
	ErrPropagation = errors.New("could not read dependency manifest")
	// ErrNoPackage is returned when a dependency manifest has no [package] table.
	ErrNoPackage = errors.New("manifest has no [package] table")
	// ErrEscapesRoot is returned when an install path leaves its root directory.
	ErrEscapesRoot = errors.New("path escapes its root directory")
)

// PropagationError reports a dependency whose own manifest could not be used.
type PropagationError struct {
	Dependency string
	Err        error
}

// Propagate reads destination/<dep.Name>/Smaug.toml and appends its install
// directives and require paths to r.
//
// Install sources resolve against the dependency root and destinations
// against the project root, the parent of destination. A require path that
// names a file bundled in the dependency becomes
// "<base of destination>/<dep.Name>/<path>"; any other is kept as declared.
func Propagate(r *Resolver, dep dependency.Dependency, destination string) error {
	root := filepath.Join(destination, dep.Name)
	projectDir := filepath.Dir(destination)

	m, err := manifest.LoadDir(root)
	if err != nil {
		return &PropagationError{Dependency: dep.Name, Err: err}
	}
	if m.Package == nil {
		return &PropagationError{Dependency: dep.Name, Err: ErrNoPackage}
	}

	installs := make([]Install, 0, len(m.Package.Installs))
	for _, inst := range m.Package.Installs {
		from, err := within(root, inst.From)
		if err != nil {
			return &PropagationError{Dependency: dep.Name, Err: err}
		}
		to, err := within(projectDir, inst.To)
		if err != nil {
			return &PropagationError{Dependency: dep.Name, Err: err}
		}
		installs = append(installs, Install{From: from, To: to})
	}

	segment := filepath.Base(destination)
	requires := make([]string, 0, len(m.Package.Requires))
	for _, req := range m.Package.Requires {
		if info, err := os.Stat(filepath.Join(root, filepath.FromSlash(req))); err == nil && !info.IsDir() {
			req = path.Join(segment, dep.Name, filepath.ToSlash(req))
		}
		requires = append(requires, req)
	}

	r.installs = append(r.installs, installs...)
	r.requires = append(r.requires, requires...)
	return nil
}

// within joins rel onto root and rejects results outside root.
func within(root, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s is absolute", ErrEscapesRoot, rel)
	}
	joined := filepath.Join(root, filepath.FromSlash(rel))
	back, err := filepath.Rel(root, joined)
	if err != nil || back == "." || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrEscapesRoot, rel)
	}
	return joined, nil
}

// Error implements the error interface.
func (e *PropagationError) Error() string {
	return fmt.Sprintf("could not read manifest of %s: %v", e.Dependency, e.Err)
}

// Unwrap returns ErrPropagation and the underlying cause.
func (e *PropagationError) Unwrap() []error { return []error{ErrPropagation, e.Err} }
