// SPDX-License-Identifier: MPL-2.0

package dependency

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// ErrUnrecognized is the sentinel error wrapped by UnrecognizedError.
var ErrUnrecognized = errors.New("unrecognized dependency specification")

// UnrecognizedError is returned when a manifest entry matches no known
// source shape.
type UnrecognizedError struct {
	Value  string
	Reason string
}

// Error implements the error interface.
func (e *UnrecognizedError) Error() string {
	msg := fmt.Sprintf("unrecognized dependency specification %q", e.Value)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Unwrap returns ErrUnrecognized so callers can use errors.Is for programmatic detection.
func (e *UnrecognizedError) Unwrap() error { return ErrUnrecognized }

// Classify turns a raw manifest entry into Options. raw is either a string, a
// table (map[string]any) or an already typed Options value. Relative paths
// are resolved against baseDir, normally the directory holding the manifest.
func Classify(raw any, baseDir string) (Options, error) {
	switch v := raw.(type) {
	case Options:
		return v, nil
	case string:
		return ClassifyString(v, baseDir)
	case map[string]any:
		return ClassifyTable(v, baseDir)
	default:
		return nil, &UnrecognizedError{Value: fmt.Sprint(raw), Reason: fmt.Sprintf("unsupported value type %T", raw)}
	}
}

// ClassifyString classifies a bare string entry. The checks run in order and
// the first match wins:
//  1. a semantic version range selects Registry
//  2. a ".git" extension selects Git
//  3. an existing directory (after shell and home expansion) selects Dir
//  4. an existing regular file selects File
//  5. an absolute URL selects URL
func ClassifyString(v, baseDir string) (Options, error) {
	if strings.TrimSpace(v) == "" {
		return nil, &UnrecognizedError{Value: v, Reason: "empty value"}
	}
	if isVersionReq(v) {
		return Registry{Version: VersionReq(v)}, nil
	}

	if filepath.Ext(v) == ".git" {
		return Git{Repo: v}, nil
	}

	path := resolvePath(expandPath(v), baseDir)
	if info, err := os.Stat(path); err == nil {
		switch {
		case info.IsDir():
			return Dir{Path: path}, nil
		case info.Mode().IsRegular():
			return File{Path: path}, nil
		}
	}

	if isURL(v) {
		return URL{URL: v}, nil
	}

	return nil, &UnrecognizedError{Value: v}
}

// ClassifyTable classifies a table entry. A "repo" key selects Git with its
// optional "branch", "rev" and "tag"; otherwise "dir", "file", "version" and
// "url" are tried in that order. Unknown keys are ignored.
func ClassifyTable(table map[string]any, baseDir string) (Options, error) {
	fields := make(map[string]string, len(table))
	for key, value := range table {
		switch key {
		case "repo", "branch", "rev", "tag", "dir", "file", "version", "url":
		default:
			continue
		}
		s, ok := value.(string)
		if !ok {
			return nil, &UnrecognizedError{Value: fmt.Sprint(table), Reason: fmt.Sprintf("%q must be a string", key)}
		}
		fields[key] = s
	}

	if repo, ok := fields["repo"]; ok {
		return Git{
			Repo:   repo,
			Branch: fields["branch"],
			Rev:    fields["rev"],
			Tag:    fields["tag"],
		}, nil
	}
	if dir, ok := fields["dir"]; ok {
		return Dir{Path: resolvePath(expandPath(dir), baseDir)}, nil
	}
	if file, ok := fields["file"]; ok {
		return File{Path: resolvePath(expandPath(file), baseDir)}, nil
	}
	if version, ok := fields["version"]; ok {
		return Registry{Version: VersionReq(version)}, nil
	}
	if u, ok := fields["url"]; ok {
		return URL{URL: u}, nil
	}

	return nil, &UnrecognizedError{Value: fmt.Sprint(table), Reason: "expected one of repo, dir, file, version or url"}
}

// expandPath performs shell parameter and home-directory expansion. Strings
// that fail to expand, or that expand to more than one field, are returned
// unchanged.
func expandPath(v string) string {
	fields, err := shell.Fields(v, nil)
	if err != nil || len(fields) != 1 {
		return v
	}
	return fields[0]
}

func resolvePath(path, baseDir string) string {
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// isURL accepts absolute URLs with a host, the only kind URLSource can download.
func isURL(v string) bool {
	u, err := url.Parse(v)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
