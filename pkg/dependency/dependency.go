// SPDX-License-Identifier: MPL-2.0

package dependency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// AnyVersion is the unconstrained version requirement given to every
// dependency that is not fetched from the registry.
const AnyVersion VersionReq = "*"

var (
	// ErrInvalidName is the sentinel error wrapped by InvalidNameError.
	ErrInvalidName = errors.New("invalid dependency name")
	// ErrInvalidVersionReq is the sentinel error wrapped by InvalidVersionReqError.
	ErrInvalidVersionReq = errors.New("invalid version requirement")
)

type (
	// VersionReq is a semantic version range expression such as "^1.2.0",
	// "~1.4", ">=1.0.0 <2.0.0" or "*".
	VersionReq string

	// InvalidVersionReqError is returned when a VersionReq cannot be parsed.
	InvalidVersionReqError struct {
		Value VersionReq
		Err   error
	}

	// InvalidNameError is returned when a dependency name cannot be used as a
	// cache key or a directory name inside the project.
	InvalidNameError struct {
		Value string
	}

	// Dependency identifies one requested unit of external content.
	// It is immutable once constructed.
	Dependency struct {
		Name    string
		Version VersionReq
	}
)

// New builds a Dependency for the given manifest entry. The version is the
// registry constraint for Registry options and AnyVersion otherwise.
func New(name string, opts Options) (Dependency, error) {
	if err := ValidateName(name); err != nil {
		return Dependency{}, err
	}

	version := AnyVersion
	if reg, ok := opts.(Registry); ok {
		version = reg.Version
	}
	if err := version.Validate(); err != nil {
		return Dependency{}, err
	}

	return Dependency{Name: name, Version: version}, nil
}

// String returns "name@version".
func (d Dependency) String() string {
	return d.Name + "@" + string(d.Version)
}

// ValidateName rejects names that are empty or that would escape the
// directory they are joined onto.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed != name || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return &InvalidNameError{Value: name}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid dependency name %q (must be a single non-empty path segment)", e.Value)
}

// Unwrap returns ErrInvalidName so callers can use errors.Is for programmatic detection.
func (e *InvalidNameError) Unwrap() error { return ErrInvalidName }

// Validate returns nil if the VersionReq parses as a semantic version range.
func (v VersionReq) Validate() error {
	if _, err := v.Constraints(); err != nil {
		return err
	}
	return nil
}

// Constraints parses the requirement.
func (v VersionReq) Constraints() (*semver.Constraints, error) {
	c, err := semver.NewConstraint(string(v))
	if err != nil {
		return nil, &InvalidVersionReqError{Value: v, Err: err}
	}
	return c, nil
}

// Matches reports whether version satisfies the requirement. Unparseable
// versions or requirements never match.
func (v VersionReq) Matches(version string) bool {
	c, err := v.Constraints()
	if err != nil {
		return false
	}
	sv, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return c.Check(sv)
}

// String returns the raw requirement.
func (v VersionReq) String() string { return string(v) }

// Error implements the error interface.
func (e *InvalidVersionReqError) Error() string {
	return fmt.Sprintf("invalid version requirement %q: %v", e.Value, e.Err)
}

// Unwrap returns ErrInvalidVersionReq so callers can use errors.Is for programmatic detection.
func (e *InvalidVersionReqError) Unwrap() error { return ErrInvalidVersionReq }

// isVersionReq reports whether s parses as a version range expression.
func isVersionReq(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	_, err := semver.NewConstraint(s)
	return err == nil
}
