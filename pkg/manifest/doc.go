// SPDX-License-Identifier: MPL-2.0

// Package manifest loads Smaug.toml files.
//
// A manifest describes either a game project (the [project] and [dragonruby]
// tables) or a package (the [package] table), and lists its dependencies in
// the [dependencies] table. Declaration order is preserved for dependencies,
// package installs and package requires, since installation follows it.
//
// Dependency values are kept raw (a string or a table) and are classified by
// the resolver with dependency.Classify, relative to the manifest directory.
package manifest
