// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride allows tests to override the config directory.
var configDirOverride string

// Reset clears test overrides.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path. It exists for
// tests, since os.UserHomeDir() does not follow HOME on every platform.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
