// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ereborstudios/smaug/internal/index"
	"github.com/ereborstudios/smaug/internal/installer"
	"github.com/ereborstudios/smaug/internal/issue"
	"github.com/ereborstudios/smaug/internal/lockfile"
	"github.com/ereborstudios/smaug/internal/resolver"
	"github.com/ereborstudios/smaug/internal/tui"
	"github.com/ereborstudios/smaug/pkg/manifest"
	"github.com/ereborstudios/smaug/pkg/source"
)

func newInstallCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "install [path]",
		Short: "Install the dependencies of a project",
		Long: `Install every dependency declared in Smaug.toml.

Dependencies are copied into the project's dependencies directory
(smaug/ by default). Files they declare under [package.installs] are
copied into the project; a file you changed since the last install is
only overwritten after confirmation. Finally smaug.rb is written with a
require line for every file the dependencies ask to load.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir(args)
			if err != nil {
				return classifyError(err)
			}
			return classifyError(app.install(cmd.Context(), dir))
		},
	}
}

// projectDir returns the absolute project directory from args, defaulting
// to the working directory.
func projectDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve project directory %s: %w", dir, err)
	}
	return abs, nil
}

// sourceEnv returns the environment shared by every source of a run.
func (a *App) sourceEnv() source.Env {
	registry := source.NewRegistryClient(
		source.WithBaseURL(a.cfg.Registry.URL),
		source.WithUserAgent("smaug/"+Version),
	)
	return source.Env{
		CacheDir: a.cfg.CacheDir,
		Checkout: source.NewGoGit(),
		Registry: registry,
		Logger:   a.logger,
	}
}

// install runs the whole pipeline for the project in dir: resolve and fetch
// dependencies, copy their install files, then write the lock file and the
// require index.
func (a *App) install(ctx context.Context, dir string) error {
	m, err := manifest.LoadDir(dir)
	if err != nil {
		return err
	}

	r, err := resolver.FromManifest(m, a.sourceEnv(),
		resolver.WithLogger(a.logger),
		resolver.WithMetrics(a.metrics),
	)
	if err != nil {
		return err
	}

	destination := filepath.Join(dir, a.cfg.DependenciesDir)
	if err := os.MkdirAll(destination, 0o755); err != nil {
		return issue.NewErrorContext().
			WithOperation("create dependencies directory").
			WithResource(destination).
			Wrap(err).
			BuildError()
	}

	deps, err := r.Install(ctx, destination)
	if err != nil {
		return err
	}

	promptCfg := tui.DefaultConfig()
	promptCfg.Theme = tui.Theme(a.cfg.UI.Theme)
	promptCfg.Output = a.stderr
	prompter := tui.NewPrompter(
		tui.WithConfig(promptCfg),
		tui.WithAssumeYes(a.flags.assumeYes || a.cfg.UI.AssumeYes),
		tui.WithLogger(a.logger),
	)

	report, err := installer.New(prompter,
		installer.WithLogger(a.logger),
		installer.WithMetrics(a.metrics),
	).Install(ctx, r.Installs())
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("install dependency files").
			WithResource(dir).
			Wrap(err).
			BuildError()
	}

	lock, err := lockfile.FromReport(dir, destination, report)
	if err != nil {
		return err
	}
	if err := lock.Save(filepath.Join(dir, lockfile.FileName)); err != nil {
		return err
	}

	requires := r.Requires()
	indexPath, err := index.Write(dir, requires)
	if err != nil {
		return err
	}
	a.metrics.Requires(len(requires))

	fmt.Fprintln(a.stdout, SuccessStyle.Render("✓")+" Successfully installed your dependencies.")
	for _, dep := range deps {
		fmt.Fprintf(a.stdout, "  • %s %s\n", CmdStyle.Render(dep.Name), SubtitleStyle.Render(dep.Version.String()))
	}
	if len(report.Results) > 0 {
		fmt.Fprintf(a.stdout, "%d copied, %d overwritten, %d unchanged, %s\n",
			report.Count(installer.Copied),
			report.Count(installer.Overwritten),
			report.Count(installer.Unchanged),
			WarningStyle.Render(fmt.Sprintf("%d kept", report.Count(installer.Declined))),
		)
	}
	a.logger.Info(`Add require "smaug.rb" to the top of your main.rb`, "index", indexPath)

	return nil
}
