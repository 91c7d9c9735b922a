// SPDX-License-Identifier: MPL-2.0

// Package copydir copies package trees while honoring a .smaugignore file.
package copydir

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const (
	// IgnoreFileName is read from the root of the source tree. It uses
	// gitignore syntax.
	IgnoreFileName = ".smaugignore"

	gitDirName = ".git"
)

type (
	// Option configures Copy.
	Option func(*copier)

	copier struct {
		logger   *log.Logger
		patterns []gitignore.Pattern
	}
)

// WithLogger sets the logger used for per-file debug traces.
func WithLogger(l *log.Logger) Option {
	return func(c *copier) {
		c.logger = l
	}
}

// Copy mirrors every regular file under src into dst, creating directories
// as needed. Paths with a .git component are never copied. If src holds an
// ignore file, paths it excludes (directly or through an ancestor
// directory) are skipped. Symlinks are skipped.
func Copy(src, dst string, opts ...Option) error {
	c := &copier{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(c)
	}

	patterns, err := readIgnoreFile(filepath.Join(src, IgnoreFileName))
	if err != nil {
		return err
	}
	c.patterns = patterns

	return filepath.WalkDir(src, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			if d.Name() == gitDirName && path != src {
				c.logger.Debug("skipping version control directory", "path", path)
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || d.Name() == gitDirName {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if c.ignored(parts) {
			c.logger.Debug("ignoring file", "path", path)
			return nil
		}

		target := filepath.Join(dst, rel)
		c.logger.Debug("copying file", "from", path, "to", target)
		return File(path, target)
	})
}

// File copies a single file, creating the parent directory of dst and
// keeping the permission bits of src.
func File(src, dst string) (err error) {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }() // read-only

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// ignored reports whether the file at parts, or the nearest ancestor with a
// matching pattern, is excluded. A negated match on the file itself wins
// over an excluded ancestor.
func (c *copier) ignored(parts []string) bool {
	if len(c.patterns) == 0 {
		return false
	}
	for i := len(parts); i > 0; i-- {
		switch c.match(parts[:i], i < len(parts)) {
		case gitignore.Exclude:
			return true
		case gitignore.Include:
			return false
		}
	}
	return false
}

// match applies the patterns in reverse order, so later patterns take
// precedence over earlier ones.
func (c *copier) match(path []string, isDir bool) gitignore.MatchResult {
	for i := len(c.patterns) - 1; i >= 0; i-- {
		if r := c.patterns[i].Match(path, isDir); r != gitignore.NoMatch {
			return r
		}
	}
	return gitignore.NoMatch
}

func readIgnoreFile(path string) (_ []gitignore.Pattern, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}
	defer func() { _ = f.Close() }() // read-only

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}
	return patterns, nil
}
