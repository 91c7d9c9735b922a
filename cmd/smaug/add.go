// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ereborstudios/smaug/pkg/manifest"
	"github.com/ereborstudios/smaug/pkg/source"
)

func newAddCommand(app *App) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "add <package>",
		Short: "Add the latest release of a registry package and install it",
		Long: `Look up the latest release of a package in the registry, declare it in
the [dependencies] table of Smaug.toml and run install.

The rest of Smaug.toml, including comments, is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir([]string{path})
			if err != nil {
				return classifyError(err)
			}
			return classifyError(app.add(cmd.Context(), dir, args[0]))
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", ".", "project directory")

	return cmd
}

func (a *App) add(ctx context.Context, dir, name string) error {
	manifestPath := filepath.Join(dir, manifest.FileName)
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	if _, ok := m.Dependency(name); ok {
		return &manifest.AlreadyAddedError{Name: name}
	}

	client := source.NewRegistryClient(
		source.WithBaseURL(a.cfg.Registry.URL),
		source.WithUserAgent("smaug/"+Version),
	)
	version, err := client.Latest(ctx, name)
	if err != nil {
		return err
	}

	if err := manifest.AddDependency(manifestPath, name, version); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s Added %s %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(name), version)

	return a.install(ctx, dir)
}
