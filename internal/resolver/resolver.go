// SPDX-License-Identifier: MPL-2.0

// Package resolver walks a project's declared dependencies, fetches each one
// and collects the files they install and the Ruby files they require.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ereborstudios/smaug/internal/metrics"
	"github.com/ereborstudios/smaug/pkg/dependency"
	"github.com/ereborstudios/smaug/pkg/manifest"
	"github.com/ereborstudios/smaug/pkg/source"
)

// Stages at which a dependency can fail.
const (
	StageClassify  Stage = "classify"
	StageFetch     Stage = "fetch"
	StagePropagate Stage = "propagate"
)

type (
	// Stage names a step of the per-dependency pipeline.
	Stage string

	// Install copies From, inside the dependency directory, to To, inside
	// the project.
	Install struct {
		From string
		To   string
	}

	// Resolver holds the state of one resolution run. It is not safe for
	// concurrent use.
	Resolver struct {
		requirements []dependency.Dependency
		sources      map[string]source.Source
		installs     []Install
		requires     []string

		logger  *log.Logger
		metrics *metrics.Metrics
	}

	// Option configures a Resolver.
	Option func(*Resolver)

	// StageError identifies the dependency and stage that failed.
	StageError struct {
		Dependency string
		Stage      Stage
		Err        error
	}
)

// WithLogger sets the logger for progress notices.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithMetrics records dependency outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// New returns an empty Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		sources: make(map[string]source.Source),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FromManifest registers every dependency declared in m, in declaration
// order. Relative paths are resolved against the manifest directory. The
// first entry that cannot be classified aborts with a StageError.
func FromManifest(m *manifest.Manifest, env source.Env, opts ...Option) (*Resolver, error) {
	r := New(opts...)
	if env.Logger == nil {
		env.Logger = r.logger
	}

	for _, entry := range m.Dependencies {
		depOpts, err := entry.Options(m.Dir())
		if err != nil {
			return nil, &StageError{Dependency: entry.Name, Stage: StageClassify, Err: err}
		}
		dep, err := dependency.New(entry.Name, depOpts)
		if err != nil {
			return nil, &StageError{Dependency: entry.Name, Stage: StageClassify, Err: err}
		}
		src, err := source.New(depOpts, env)
		if err != nil {
			return nil, &StageError{Dependency: entry.Name, Stage: StageClassify, Err: err}
		}

		r.logger.Debug("registered dependency", "dependency", dep, "source", depOpts)
		r.AddRequirement(dep)
		r.AddSource(dep.Name, src)
	}

	return r, nil
}

// AddRequirement queues dep. A dependency with the same name replaces the
// earlier one in place.
func (r *Resolver) AddRequirement(dep dependency.Dependency) {
	if i := slices.IndexFunc(r.requirements, func(d dependency.Dependency) bool { return d.Name == dep.Name }); i >= 0 {
		r.requirements[i] = dep
		return
	}
	r.requirements = append(r.requirements, dep)
}

// AddSource registers src for the dependency called name. The last
// registration for a name wins.
func (r *Resolver) AddSource(name string, src source.Source) {
	r.sources[name] = src
}

// Install fetches every queued dependency into destination, in queue order,
// and propagates each one's manifest. Dependencies already present in
// destination are not fetched again but are still propagated. The first
// failure aborts the run; dependencies handled before it stay installed.
func (r *Resolver) Install(ctx context.Context, destination string) ([]dependency.Dependency, error) {
	reqs := slices.Clone(r.requirements)

	for _, dep := range reqs {
		src, ok := r.sources[dep.Name]
		if !ok {
			return nil, &StageError{Dependency: dep.Name, Stage: StageFetch, Err: errors.New("no source registered")}
		}
		kind := string(src.Kind())

		if src.Installed(dep, destination) {
			r.logger.Info("already installed, skipping", "dependency", dep.Name)
			r.metrics.Dependency(kind, metrics.DependencySkipped)
		} else {
			r.logger.Info("installing", "dependency", dep.Name, "version", dep.Version)
			start := time.Now()
			if err := src.Install(ctx, dep, destination); err != nil {
				r.metrics.Dependency(kind, metrics.DependencyFailed)
				return nil, &StageError{Dependency: dep.Name, Stage: StageFetch, Err: err}
			}
			r.metrics.Fetch(kind, time.Since(start))
			r.metrics.Dependency(kind, metrics.DependencyInstalled)
		}

		if err := Propagate(r, dep, destination); err != nil {
			return nil, &StageError{Dependency: dep.Name, Stage: StagePropagate, Err: err}
		}
	}

	return reqs, nil
}

// Requirements returns the queued dependencies in order.
func (r *Resolver) Requirements() []dependency.Dependency {
	return slices.Clone(r.requirements)
}

// Source returns the source registered for name.
func (r *Resolver) Source(name string) (source.Source, bool) {
	src, ok := r.sources[name]
	return src, ok
}

// Installs returns the collected install directives in order.
func (r *Resolver) Installs() []Install {
	return slices.Clone(r.installs)
}

// Requires returns the collected require paths in order.
func (r *Resolver) Requires() []string {
	return slices.Clone(r.requires)
}

// Clone returns a resolver with the same queue and independent copies of
// every source, and no collected installs or requires.
func (r *Resolver) Clone() *Resolver {
	c := &Resolver{
		requirements: slices.Clone(r.requirements),
		sources:      make(map[string]source.Source, len(r.sources)),
		logger:       r.logger,
		metrics:      r.metrics,
	}
	for name, src := range r.sources {
		c.sources[name] = src.Clone()
	}
	return c
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Dependency, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error { return e.Err }
