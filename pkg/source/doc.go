// SPDX-License-Identifier: MPL-2.0

// Package source fetches dependencies into a project's dependency directory.
//
// There is one Source per dependency.Options variant. Every variant ends by
// copying a package tree into <destination>/<name>, delegating along fixed
// chains:
//
//	Registry -> Git -> Dir
//	URL -> File -> Dir
//
// Git, File and URL sources stage their content under Env.CacheDir and clear
// the dependency's cache slot before fetching. What a dependency installs into
// the project, and which files it requires, is decided after the fetch by
// reading the copied Smaug.toml; see the resolver package.
package source
