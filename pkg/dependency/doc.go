// SPDX-License-Identifier: MPL-2.0

// Package dependency defines the data model for project dependencies.
//
// A [Dependency] names a requested unit (the key under which it is cached and
// placed in the project's dependency directory) together with a version
// requirement. [Options] is a closed set of source descriptions, one per
// manifest entry:
//   - [Dir]: a local directory
//   - [File]: a local ZIP archive
//   - [Git]: a git repository, optionally pinned to a branch, revision, or tag
//   - [URL]: a remote ZIP archive
//   - [Registry]: a version range looked up in the package registry
//
// Manifest entries are either bare strings or tables; [Classify] turns either
// form into exactly one [Options] value or fails with [ErrUnrecognized].
package dependency
