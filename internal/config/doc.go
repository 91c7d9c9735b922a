// SPDX-License-Identifier: MPL-2.0

// Package config handles smaug's global configuration using Viper with CUE as
// the file format.
//
// Configuration is loaded from config.cue in the platform configuration
// directory ($XDG_CONFIG_HOME/smaug on Linux, ~/Library/Application
// Support/smaug on macOS, %APPDATA%\smaug on Windows), validated against the
// embedded #Config schema and overlaid with SMAUG_* environment variables.
package config
