// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/ereborstudios/smaug/pkg/dependency"
)

var (
	// ErrFetch is the sentinel error wrapped by FetchError.
	ErrFetch = errors.New("could not fetch dependency")
	// ErrDownload marks a failed HTTP download.
	ErrDownload = errors.New("could not download archive")
	// ErrArchive marks an archive that could not be extracted or holds no package.
	ErrArchive = errors.New("could not extract archive")
	// ErrCheckout marks a failed clone or reset.
	ErrCheckout = errors.New("could not check out repository")
	// ErrRegistry marks a failed registry lookup.
	ErrRegistry = errors.New("could not fetch dependency from registry")
	// ErrNoCacheDir is returned by New when a fetching source has no cache directory.
	ErrNoCacheDir = errors.New("cache directory is not configured")
)

type (
	// Source materializes one dependency.
	Source interface {
		// Install fetches dep into destination/<dep.Name>.
		Install(ctx context.Context, dep dependency.Dependency, destination string) error
		// Installed reports whether destination/<dep.Name> exists. It does
		// not check whether the content is current.
		Installed(dep dependency.Dependency, destination string) bool
		// Kind returns the options variant this source was built from.
		Kind() dependency.Kind
		// Clone returns an independent copy of the source.
		Clone() Source
	}

	// Env holds what sources need beyond their options. The zero value of
	// each field except CacheDir is replaced by a default in New.
	Env struct {
		// CacheDir is the staging root for Git, File and URL sources. Each
		// dependency gets the slot CacheDir/<name>.
		CacheDir   string
		HTTPClient *http.Client
		Checkout   Checkout
		Registry   Registry
		Logger     *log.Logger
	}

	// FetchError reports which dependency failed to fetch from which kind of source.
	FetchError struct {
		Kind dependency.Kind
		Name string
		Err  error
	}

	// presence provides the shared Installed implementation.
	presence struct{}
)

// New builds the Source for opts.
func New(opts dependency.Options, env Env) (Source, error) {
	env = env.withDefaults()

	switch o := opts.(type) {
	case dependency.Dir:
		return DirSource{Path: o.Path, env: env}, nil
	case dependency.File:
		if env.CacheDir == "" {
			return nil, ErrNoCacheDir
		}
		return FileSource{Path: o.Path, env: env}, nil
	case dependency.URL:
		if env.CacheDir == "" {
			return nil, ErrNoCacheDir
		}
		return URLSource{URL: o.URL, env: env}, nil
	case dependency.Git:
		if err := o.Validate(); err != nil {
			return nil, err
		}
		if env.CacheDir == "" {
			return nil, ErrNoCacheDir
		}
		return GitSource{Repo: o.Repo, Branch: o.Branch, Rev: o.Rev, Tag: o.Tag, env: env}, nil
	case dependency.Registry:
		if env.CacheDir == "" {
			return nil, ErrNoCacheDir
		}
		return RegistrySource{Version: o.Version, env: env}, nil
	default:
		return nil, fmt.Errorf("unsupported dependency options %T", opts)
	}
}

func (e Env) withDefaults() Env {
	if e.HTTPClient == nil {
		e.HTTPClient = http.DefaultClient
	}
	if e.Logger == nil {
		e.Logger = log.New(io.Discard)
	}
	if e.Checkout == nil {
		e.Checkout = NewGoGit()
	}
	if e.Registry == nil {
		e.Registry = NewRegistryClient(WithHTTPClient(e.HTTPClient))
	}
	return e
}

func (e Env) slot(name string) string {
	return filepath.Join(e.CacheDir, name)
}

// Installed reports whether destination/<dep.Name> exists.
func (presence) Installed(dep dependency.Dependency, destination string) bool {
	_, err := os.Stat(filepath.Join(destination, dep.Name))
	return err == nil
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("could not fetch %s from %s source: %v", e.Name, e.Kind, e.Err)
}

// Unwrap returns ErrFetch and the underlying cause.
func (e *FetchError) Unwrap() []error { return []error{ErrFetch, e.Err} }

func fetchError(kind dependency.Kind, dep dependency.Dependency, err error) error {
	if err == nil {
		return nil
	}
	return &FetchError{Kind: kind, Name: dep.Name, Err: err}
}

// resetSlot removes path and everything below it.
func resetSlot(logger *log.Logger, path string) error {
	if _, err := os.Lstat(path); err == nil {
		logger.Debug("removing directory", "path", path)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to clear cache slot %s: %w", path, err)
	}
	return nil
}
