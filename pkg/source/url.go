// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ereborstudios/smaug/pkg/dependency"
)

// URLSource downloads a ZIP archive.
type URLSource struct {
	presence

	URL string
	env Env
}

// Install downloads the archive to <cache>/<dep.Name>.zip and installs it
// like a FileSource.
func (s URLSource) Install(ctx context.Context, dep dependency.Dependency, destination string) error {
	return fetchError(dependency.KindURL, dep, s.install(ctx, dep, destination))
}

// Kind returns dependency.KindURL.
func (URLSource) Kind() dependency.Kind { return dependency.KindURL }

// Clone returns a copy of s.
func (s URLSource) Clone() Source { return s }

func (s URLSource) install(ctx context.Context, dep dependency.Dependency, destination string) error {
	archive := filepath.Join(s.env.CacheDir, dep.Name+".zip")
	if err := os.Remove(archive); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale download: %w", err)
	}

	s.env.Logger.Debug("downloading archive", "url", s.URL, "to", archive)
	if err := s.download(ctx, archive); err != nil {
		_ = os.Remove(archive) // Best-effort cleanup
		return err
	}

	return FileSource{Path: archive, env: s.env}.install(ctx, dep, destination)
}

func (s URLSource) download(ctx context.Context, path string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}
	resp, err := s.env.HTTPClient.Do(req) //nolint:gosec // URL comes from the project manifest
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %s", ErrDownload, s.URL, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}
	return nil
}
