// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ereborstudios/smaug/pkg/dependency"
)

const (
	// DefaultRegistryURL is the public package registry.
	DefaultRegistryURL = "https://api.smaug.dev"

	// maxJSONResponseBytes caps registry response bodies (1 MB).
	maxJSONResponseBytes = 1 << 20
)

type (
	// Registry resolves package versions to git repositories.
	Registry interface {
		Lookup(ctx context.Context, name string, version dependency.VersionReq) (Release, error)
	}

	// Release is a published package version.
	Release struct {
		Version    string
		Repository string
		Tag        string
	}

	// RegistryClient talks to the registry HTTP API.
	RegistryClient struct {
		httpClient *http.Client
		baseURL    string
		userAgent  string
	}

	// ClientOption configures a RegistryClient.
	ClientOption func(*RegistryClient)

	// RegistrySource looks a package up in the registry and installs the
	// repository and tag it names.
	RegistrySource struct {
		presence

		Version dependency.VersionReq
		env     Env
	}

	versionResponse struct {
		Version struct {
			Version    string `json:"version"`
			Repository struct {
				URL string `json:"url"`
				Tag string `json:"tag"`
			} `json:"repository"`
		} `json:"version"`
	}
)

// Install resolves dep through the registry and delegates to a GitSource.
func (s RegistrySource) Install(ctx context.Context, dep dependency.Dependency, destination string) error {
	return fetchError(dependency.KindRegistry, dep, s.install(ctx, dep, destination))
}

// Kind returns dependency.KindRegistry.
func (RegistrySource) Kind() dependency.Kind { return dependency.KindRegistry }

// Clone returns a copy of s.
func (s RegistrySource) Clone() Source { return s }

func (s RegistrySource) install(ctx context.Context, dep dependency.Dependency, destination string) error {
	s.env.Logger.Debug("looking up package", "name", dep.Name, "version", s.Version)
	release, err := s.env.Registry.Lookup(ctx, dep.Name, s.Version)
	if err != nil {
		return err
	}
	if release.Version != "" && !s.Version.Matches(release.Version) {
		return fmt.Errorf("%w: %s: registry returned %s, which does not satisfy %s",
			ErrRegistry, dep.Name, release.Version, s.Version)
	}

	git := GitSource{Repo: release.Repository, Tag: release.Tag, env: s.env}
	return git.install(ctx, dep, destination)
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(r *RegistryClient) {
		r.httpClient = c
	}
}

// WithBaseURL overrides DefaultRegistryURL.
func WithBaseURL(base string) ClientOption {
	return func(r *RegistryClient) {
		r.baseURL = strings.TrimRight(base, "/")
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(r *RegistryClient) {
		r.userAgent = ua
	}
}

// NewRegistryClient creates a client for DefaultRegistryURL.
func NewRegistryClient(opts ...ClientOption) *RegistryClient {
	c := &RegistryClient{
		httpClient: http.DefaultClient,
		baseURL:    DefaultRegistryURL,
		userAgent:  "smaug/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup fetches the release of name matching version. Every failure wraps
// ErrRegistry.
func (c *RegistryClient) Lookup(ctx context.Context, name string, version dependency.VersionReq) (Release, error) {
	reqURL := fmt.Sprintf("%s/packages/%s/versions/%s", c.baseURL, url.PathEscape(name), url.PathEscape(string(version)))

	var body versionResponse
	if err := c.getJSON(ctx, reqURL, &body); err != nil {
		return Release{}, fmt.Errorf("%w: %s %s: %w", ErrRegistry, name, version, err)
	}
	if body.Version.Repository.URL == "" || body.Version.Repository.Tag == "" {
		return Release{}, fmt.Errorf("%w: %s %s: response has no repository", ErrRegistry, name, version)
	}

	return Release{
		Version:    body.Version.Version,
		Repository: body.Version.Repository.URL,
		Tag:        body.Version.Repository.Tag,
	}, nil
}

// Latest returns the newest published version of name.
func (c *RegistryClient) Latest(ctx context.Context, name string) (string, error) {
	reqURL := fmt.Sprintf("%s/packages/%s", c.baseURL, url.PathEscape(name))

	var body versionResponse
	if err := c.getJSON(ctx, reqURL, &body); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRegistry, name, err)
	}
	if body.Version.Version == "" {
		return "", fmt.Errorf("%w: %s: response has no version", ErrRegistry, name)
	}
	return body.Version.Version, nil
}

func (c *RegistryClient) getJSON(ctx context.Context, reqURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
