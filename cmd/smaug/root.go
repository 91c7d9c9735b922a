// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ereborstudios/smaug/internal/config"
	"github.com/ereborstudios/smaug/internal/issue"
	"github.com/ereborstudios/smaug/internal/metrics"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and reads configuration, logger and streams from it.
	App struct {
		Config config.Provider

		stdout io.Writer
		stderr io.Writer
		flags  rootFlags

		cfg     *config.Config
		logger  *log.Logger
		metrics *metrics.Metrics
	}

	rootFlags struct {
		verbose     bool
		quiet       bool
		assumeYes   bool
		configFile  string
		metricsFile string
	}
)

// NewApp creates an App. A nil provider falls back to config.NewProvider.
func NewApp(provider config.Provider, stdout, stderr io.Writer) *App {
	if provider == nil {
		provider = config.NewProvider()
	}
	return &App{
		Config: provider,
		stdout: stdout,
		stderr: stderr,
		logger: log.New(io.Discard),
	}
}

// NewRootCommand builds the command tree for app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "smaug",
		Short: "A package manager for DragonRuby games",
		Long: TitleStyle.Render("smaug") + SubtitleStyle.Render(" - A package manager for DragonRuby games") + `

smaug reads the dependencies declared in your project's Smaug.toml,
fetches them from the registry, git, zip archives or local directories,
and installs them into your game.

` + SubtitleStyle.Render("Examples:") + `
  smaug install             Install the dependencies of the current project
  smaug add draco           Add the latest release of draco and install it
  smaug deps                List declared dependencies and their sources
  smaug readme draco        Read the README of an installed dependency
  smaug config show         Show the effective configuration`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable debug output")
	flags.BoolVarP(&app.flags.quiet, "quiet", "q", false, "only print errors")
	flags.BoolVarP(&app.flags.assumeYes, "yes", "y", false, "answer every prompt with its default")
	flags.StringVar(&app.flags.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/smaug/config.cue)")
	flags.StringVar(&app.flags.metricsFile, "metrics-file", "", "write install metrics to this file in Prometheus text format")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(
		newInstallCommand(app),
		newAddCommand(app),
		newDepsCommand(app),
		newReadmeCommand(app),
		newConfigCommand(app),
		newVersionCommand(app),
	)

	return rootCmd
}

// init loads configuration and builds the logger and metrics for a run.
func (a *App) init(ctx context.Context) error {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configFile})
	if err != nil {
		return &ExitError{Code: ExitInvalidInput, Err: newServiceError(err, issue.ConfigLoadFailedId)}
	}
	a.cfg = cfg

	level := log.InfoLevel
	switch {
	case a.flags.quiet:
		level = log.ErrorLevel
	case a.flags.verbose || cfg.UI.Verbose:
		level = log.DebugLevel
	}
	a.logger = log.NewWithOptions(a.stderr, log.Options{
		Prefix: "smaug",
		Level:  level,
	})

	if a.flags.metricsFile != "" {
		a.metrics = metrics.New()
	}

	a.logger.Debug("configuration loaded", "source", cfg.Source, "cache_dir", cfg.CacheDir)
	return nil
}

// verbose reports whether debug output was requested.
func (a *App) verbose() bool {
	return a.flags.verbose || (a.cfg != nil && a.cfg.UI.Verbose)
}

// writeMetrics writes collected metrics when --metrics-file was given.
func (a *App) writeMetrics() {
	if a.metrics == nil {
		return
	}
	if err := a.metrics.WriteTextfile(a.flags.metricsFile); err != nil {
		a.logger.Warn("could not write metrics", "path", a.flags.metricsFile, "error", err)
	}
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Run executes the CLI with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := NewApp(nil, stdout, stderr)
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	app.writeMetrics()
	if err == nil {
		return 0
	}

	renderServiceError(stderr, err, app.verbose(), glamourStyle(stderr))

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Execute runs the CLI with the process arguments and exits.
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// glamourStyle picks the glamour style for Markdown written to w.
func glamourStyle(w io.Writer) string {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "dark"
	}
	return "notty"
}
