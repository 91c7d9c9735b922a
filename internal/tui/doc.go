// SPDX-License-Identifier: MPL-2.0

// Package tui provides the terminal prompts smaug shows while installing.
//
// Prompts are built on charmbracelet/huh. When stdin is not a terminal, or
// the user asked to accept defaults, a Prompter answers with the default
// instead of blocking.
package tui
