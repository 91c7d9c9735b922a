// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ereborstudios/smaug/internal/lockfile"
	"github.com/ereborstudios/smaug/internal/resolver"
	"github.com/ereborstudios/smaug/pkg/dependency"
	"github.com/ereborstudios/smaug/pkg/manifest"
)

func newDepsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deps [path]",
		Short: "List the dependencies declared in Smaug.toml",
		Long: `List every dependency declared in Smaug.toml, in declaration order,
with the source it resolves to, its version requirement, whether it is
present in the dependencies directory and how many files Smaug.lock
records for it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := projectDir(args)
			if err != nil {
				return classifyError(err)
			}
			return classifyError(app.deps(dir))
		},
	}
}

func (a *App) deps(dir string) error {
	m, err := manifest.LoadDir(dir)
	if err != nil {
		return err
	}
	if len(m.Dependencies) == 0 {
		fmt.Fprintln(a.stdout, SubtitleStyle.Render("No dependencies declared."))
		return nil
	}

	lock, err := lockfile.Load(filepath.Join(dir, lockfile.FileName))
	if err != nil {
		return err
	}

	destination := filepath.Join(dir, a.cfg.DependenciesDir)
	declared := make(map[string]bool, len(m.Dependencies))
	rows := make([][]string, 0, len(m.Dependencies))
	for _, entry := range m.Dependencies {
		opts, err := entry.Options(m.Dir())
		if err != nil {
			return &resolver.StageError{Dependency: entry.Name, Stage: resolver.StageClassify, Err: err}
		}
		dep, err := dependency.New(entry.Name, opts)
		if err != nil {
			return &resolver.StageError{Dependency: entry.Name, Stage: resolver.StageClassify, Err: err}
		}

		installed := "no"
		if info, err := os.Stat(filepath.Join(destination, dep.Name)); err == nil && info.IsDir() {
			installed = "yes"
		}
		declared[dep.Name] = true
		files := strconv.Itoa(len(lock.FilesOf(dep.Name)))
		rows = append(rows, []string{dep.Name, opts.String(), dep.Version.String(), installed, files})
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		Headers("NAME", "SOURCE", "VERSION", "INSTALLED", "FILES").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}
			return cellStyle
		})

	fmt.Fprintln(a.stdout, t.String())

	for _, pkg := range lock.Packages() {
		if !declared[pkg] {
			fmt.Fprintf(a.stdout, "%s %s is no longer declared but its files are listed in %s\n",
				WarningStyle.Render("!"), CmdStyle.Render(pkg), lockfile.FileName)
		}
	}
	return nil
}
