// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/ereborstudios/smaug/internal/issue"
	"github.com/ereborstudios/smaug/pkg/manifest"
)

// defaultReadme is read when a package manifest does not name its README.
const defaultReadme = "README.md"

func newReadmeCommand(app *App) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "readme <dependency>",
		Short: "Show the README of an installed dependency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir([]string{path})
			if err != nil {
				return classifyError(err)
			}
			return classifyError(app.readme(dir, args[0]))
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", ".", "project directory")

	return cmd
}

func (a *App) readme(dir, name string) error {
	depDir := filepath.Join(dir, a.cfg.DependenciesDir, name)
	m, err := manifest.LoadDir(depDir)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("read dependency manifest").
			WithDependency(name).
			WithResource(depDir).
			WithSuggestion("Run 'smaug install' to install your dependencies").
			Wrap(err).
			BuildError()
	}

	readme := defaultReadme
	if m.Package != nil && m.Package.Readme != "" {
		readme = m.Package.Readme
	}

	content, err := os.ReadFile(filepath.Join(depDir, filepath.FromSlash(readme)))
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("read README").
			WithDependency(name).
			WithResource(readme).
			Wrap(err).
			BuildError()
	}

	rendered, err := glamour.Render(string(content), glamourStyle(a.stdout))
	if err != nil {
		return fmt.Errorf("render README: %w", err)
	}
	fmt.Fprint(a.stdout, rendered)
	return nil
}
