// SPDX-License-Identifier: MPL-2.0

// Package installer copies dependency install directives into a project
// without clobbering files the user edited since the last install.
package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ereborstudios/smaug/internal/metrics"
	"github.com/ereborstudios/smaug/internal/resolver"
	"github.com/ereborstudios/smaug/pkg/copydir"
)

// DefaultCacheSize is the number of file digests kept between lookups.
const DefaultCacheSize = 512

// Install outcomes.
const (
	Copied      Outcome = "copied"
	Overwritten Outcome = "overwritten"
	Unchanged   Outcome = "unchanged"
	Declined    Outcome = "declined"
)

type (
	// Outcome describes what happened to one install directive.
	Outcome string

	// Confirmer asks the user a yes/no question. defaultYes is the answer
	// given when the user just presses enter.
	Confirmer interface {
		Confirm(question string, defaultYes bool) (bool, error)
	}

	// ConfirmFunc adapts a function to the Confirmer interface.
	ConfirmFunc func(question string, defaultYes bool) (bool, error)

	// Result is the outcome of one install directive.
	Result struct {
		Install resolver.Install
		Outcome Outcome
		// Digest is the SHA-256 of the destination after the directive ran.
		Digest string
	}

	// Report lists the results of an install run in directive order.
	Report struct {
		Results []Result
	}

	// Installer applies install directives. It is not safe for concurrent use.
	Installer struct {
		confirm   Confirmer
		logger    *log.Logger
		metrics   *metrics.Metrics
		cacheSize int
		digests   *lru.Cache[string, digestEntry]
	}

	// Option configures an Installer.
	Option func(*Installer)

	digestEntry struct {
		size    int64
		modTime time.Time
		digest  string
	}
)

// Confirm calls f.
func (f ConfirmFunc) Confirm(question string, defaultYes bool) (bool, error) {
	return f(question, defaultYes)
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(i *Installer) {
		i.logger = l
	}
}

// WithMetrics records file outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Installer) {
		i.metrics = m
	}
}

// WithCacheSize bounds the digest cache. Values below one disable caching.
func WithCacheSize(n int) Option {
	return func(i *Installer) {
		i.cacheSize = n
	}
}

// New returns an Installer that asks confirm before overwriting changed files.
func New(confirm Confirmer, opts ...Option) *Installer {
	i := &Installer{
		confirm:   confirm,
		logger:    log.New(io.Discard),
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.cacheSize > 0 {
		// lru.New only fails for non-positive sizes.
		i.digests, _ = lru.New[string, digestEntry](i.cacheSize)
	}
	return i
}

// Install applies installs in order. A missing destination is copied. An
// existing one is left alone when its content matches the source and
// otherwise overwritten only if the Confirmer agrees. The returned report
// covers every directive handled before an error.
func (i *Installer) Install(ctx context.Context, installs []resolver.Install) (Report, error) {
	var report Report

	for _, inst := range installs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := i.apply(inst)
		if err != nil {
			return report, err
		}
		i.metrics.File(string(res.Outcome))
		report.Results = append(report.Results, res)
	}

	return report, nil
}

func (i *Installer) apply(inst resolver.Install) (Result, error) {
	res := Result{Install: inst}

	if _, err := os.Stat(inst.To); errors.Is(err, os.ErrNotExist) {
		i.logger.Debug("copying file", "from", inst.From, "to", inst.To)
		if err := i.write(inst); err != nil {
			return res, err
		}
		res.Outcome = Copied
		res.Digest, err = i.digest(inst.To)
		return res, err
	} else if err != nil {
		return res, fmt.Errorf("stat %s: %w", inst.To, err)
	}

	from, err := i.digest(inst.From)
	if err != nil {
		return res, err
	}
	to, err := i.digest(inst.To)
	if err != nil {
		return res, err
	}
	i.logger.Debug("comparing digests", "source", from, "destination", to)

	if from == to {
		res.Outcome = Unchanged
		res.Digest = to
		return res, nil
	}

	question := fmt.Sprintf("%s has changed since the last install. Do you want to overwrite it?", inst.To)
	ok, err := i.confirm.Confirm(question, true)
	if err != nil {
		return res, fmt.Errorf("confirm overwrite of %s: %w", inst.To, err)
	}
	if !ok {
		i.logger.Info("keeping modified file", "path", inst.To)
		res.Outcome = Declined
		res.Digest = to
		return res, nil
	}

	i.logger.Debug("overwriting file", "from", inst.From, "to", inst.To)
	if err := i.write(inst); err != nil {
		return res, err
	}
	res.Outcome = Overwritten
	res.Digest = from
	return res, nil
}

func (i *Installer) write(inst resolver.Install) error {
	if i.digests != nil {
		i.digests.Remove(inst.To)
	}
	if err := copydir.File(inst.From, inst.To); err != nil {
		return fmt.Errorf("install %s: %w", inst.To, err)
	}
	return nil
}

// digest returns the SHA-256 of path, reusing a cached value while the
// file's size and modification time are unchanged.
func (i *Installer) digest(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	if i.digests != nil {
		if e, ok := i.digests.Get(path); ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
			return e.digest, nil
		}
	}

	sum, err := Digest(path)
	if err != nil {
		return "", err
	}
	if i.digests != nil {
		i.digests.Add(path, digestEntry{size: info.Size(), modTime: info.ModTime(), digest: sum})
	}
	return sum, nil
}

// Digest returns the hex-encoded SHA-256 of the file at path.
func Digest(path string) (_ string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Count returns how many results have outcome o.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}
