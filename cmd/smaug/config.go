// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ereborstudios/smaug/internal/config"
)

// newConfigCommand creates the `smaug config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage smaug configuration",
		Long: `Manage smaug configuration.

Configuration is stored in:
  - Linux: ~/.config/smaug/config.cue
  - macOS: ~/Library/Application Support/smaug/config.cue
  - Windows: %APPDATA%\smaug\config.cue

Every setting can be overridden with an environment variable, for example
SMAUG_CACHE_DIR or SMAUG_REGISTRY_URL.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.showConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := config.CreateDefaultConfig(config.LoadOptions{})
			if err != nil {
				return classifyError(err)
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(_ *cobra.Command, _ []string) error {
			if app.flags.configFile != "" {
				fmt.Fprintln(app.stdout, app.flags.configFile)
				return nil
			}
			dir, err := config.ConfigDir()
			if err != nil {
				return classifyError(err)
			}
			fmt.Fprintln(app.stdout, filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	return cfgCmd
}

func (a *App) showConfig() error {
	cfg := a.cfg

	fmt.Fprintln(a.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(a.stdout)
	if cfg.Source != "" {
		fmt.Fprintf(a.stdout, "%s: %s\n", CmdStyle.Render("Config file"), cfg.Source)
	} else {
		fmt.Fprintf(a.stdout, "%s: %s\n", CmdStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(a.stdout)

	rows := []struct{ key, value string }{
		{"cache_dir", cfg.CacheDir},
		{"data_dir", cfg.DataDir},
		{"dependencies_dir", cfg.DependenciesDir},
		{"registry.url", cfg.Registry.URL},
		{"ui.verbose", fmt.Sprint(cfg.UI.Verbose)},
		{"ui.assume_yes", fmt.Sprint(cfg.UI.AssumeYes)},
		{"ui.theme", cfg.UI.Theme},
	}
	for _, row := range rows {
		fmt.Fprintf(a.stdout, "%s: %s\n", CmdStyle.Render(row.key), SuccessStyle.Render(row.value))
	}

	return nil
}
