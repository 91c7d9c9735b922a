// SPDX-License-Identifier: MPL-2.0

package dependency

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// KindDir is a local directory source.
	KindDir Kind = "dir"
	// KindFile is a local archive source.
	KindFile Kind = "file"
	// KindGit is a git repository source.
	KindGit Kind = "git"
	// KindURL is a remote archive source.
	KindURL Kind = "url"
	// KindRegistry is a package registry source.
	KindRegistry Kind = "registry"
)

// ErrConflictingRefs is returned when a Git source pins more than one of
// branch, rev and tag.
var ErrConflictingRefs = errors.New("conflicting git references")

type (
	// Kind names the variant of an Options value.
	Kind string

	// Options describes where a dependency comes from. Exactly one variant is
	// active per manifest entry; values are never mutated after construction.
	Options interface {
		// Kind returns the variant tag.
		Kind() Kind
		// String returns a human-readable description.
		String() string

		options()
	}

	// Dir is a dependency copied from a local directory.
	Dir struct {
		Path string
	}

	// File is a dependency extracted from a local ZIP archive.
	File struct {
		Path string
	}

	// Git is a dependency cloned from a git repository. At most one of
	// Branch, Rev and Tag may be set; see Validate.
	Git struct {
		Repo   string
		Branch string
		Rev    string
		Tag    string
	}

	// URL is a dependency downloaded as a ZIP archive.
	URL struct {
		URL string
	}

	// Registry is a dependency looked up in the package registry.
	Registry struct {
		Version VersionReq
	}

	// ConflictingRefsError lists the git references that were set together.
	ConflictingRefsError struct {
		Repo string
		Refs []string
	}
)

func (Dir) options()      {}
func (File) options()     {}
func (Git) options()      {}
func (URL) options()      {}
func (Registry) options() {}

// Kind returns KindDir.
func (Dir) Kind() Kind { return KindDir }

// Kind returns KindFile.
func (File) Kind() Kind { return KindFile }

// Kind returns KindGit.
func (Git) Kind() Kind { return KindGit }

// Kind returns KindURL.
func (URL) Kind() Kind { return KindURL }

// Kind returns KindRegistry.
func (Registry) Kind() Kind { return KindRegistry }

func (o Dir) String() string  { return "dir " + o.Path }
func (o File) String() string { return "file " + o.Path }
func (o URL) String() string  { return "url " + o.URL }

func (o Registry) String() string { return "registry " + string(o.Version) }

func (o Git) String() string {
	s := "git " + o.Repo
	switch {
	case o.Rev != "":
		s += " rev " + o.Rev
	case o.Tag != "":
		s += " tag " + o.Tag
	case o.Branch != "":
		s += " branch " + o.Branch
	}
	return s
}

// Validate rejects Git options that pin more than one reference. The
// manifest format allows writing all three, but only one can be honored.
func (o Git) Validate() error {
	var refs []string
	if o.Branch != "" {
		refs = append(refs, "branch")
	}
	if o.Rev != "" {
		refs = append(refs, "rev")
	}
	if o.Tag != "" {
		refs = append(refs, "tag")
	}
	if len(refs) > 1 {
		return &ConflictingRefsError{Repo: o.Repo, Refs: refs}
	}
	return nil
}

// Error implements the error interface.
func (e *ConflictingRefsError) Error() string {
	return fmt.Sprintf("git dependency %s sets %s; use exactly one of branch, rev or tag", e.Repo, strings.Join(e.Refs, " and "))
}

// Unwrap returns ErrConflictingRefs so callers can use errors.Is for programmatic detection.
func (e *ConflictingRefsError) Unwrap() error { return ErrConflictingRefs }
