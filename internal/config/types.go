// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"

	"github.com/ereborstudios/smaug/pkg/source"
)

// DefaultDependenciesDir is the project subdirectory that receives installed
// dependencies.
const DefaultDependenciesDir = "smaug"

type (
	// Config is smaug's global configuration.
	Config struct {
		// CacheDir stages fetched dependencies, one subdirectory per name.
		CacheDir string `json:"cache_dir" mapstructure:"cache_dir"`
		// DataDir holds smaug's own state.
		DataDir string `json:"data_dir" mapstructure:"data_dir"`
		// DependenciesDir is the project subdirectory for installed dependencies.
		DependenciesDir string `json:"dependencies_dir" mapstructure:"dependencies_dir"`
		// Registry configures the package registry.
		Registry RegistryConfig `json:"registry" mapstructure:"registry"`
		// UI configures terminal output and prompts.
		UI UIConfig `json:"ui" mapstructure:"ui"`

		// Source is the config file that was loaded, or empty when only
		// defaults and the environment apply.
		Source string `json:"-" mapstructure:"-"`
	}

	// RegistryConfig configures the package registry.
	RegistryConfig struct {
		URL string `json:"url" mapstructure:"url"`
	}

	// UIConfig configures terminal output and prompts.
	UIConfig struct {
		// Verbose enables debug logging.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// AssumeYes answers every prompt with its default.
		AssumeYes bool `json:"assume_yes" mapstructure:"assume_yes"`
		// Theme selects the prompt theme.
		Theme string `json:"theme" mapstructure:"theme"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CacheDir:        defaultCacheDir(),
		DataDir:         defaultDataDir(),
		DependenciesDir: DefaultDependenciesDir,
		Registry: RegistryConfig{
			URL: source.DefaultRegistryURL,
		},
		UI: UIConfig{
			Theme: "default",
		},
	}
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, AppName)
}
