// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for smaug.
//
// This package implements the Cobra command hierarchy: install, add, deps,
// readme and config. Each command delegates to the engine packages through
// an App, which carries configuration, logging and output streams.
package cmd
