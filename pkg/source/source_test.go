// SPDX-License-Identifier: MPL-2.0

package source

import (
	"archive/zip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ereborstudios/smaug/pkg/dependency"
)

const uiManifest = "[package]\nname = \"ui\"\nversion = \"1.0.0\"\nrequires = [\"lib/ui.rb\"]\n"

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func mustDependency(t *testing.T, name string, opts dependency.Options) dependency.Dependency {
	t.Helper()

	dep, err := dependency.New(name, opts)
	if err != nil {
		t.Fatal(err)
	}
	return dep
}

func TestNew(t *testing.T) {
	t.Parallel()

	env := Env{CacheDir: t.TempDir()}

	tests := []struct {
		opts dependency.Options
		want dependency.Kind
	}{
		{opts: dependency.Dir{Path: "/tmp/ui"}, want: dependency.KindDir},
		{opts: dependency.File{Path: "/tmp/ui.zip"}, want: dependency.KindFile},
		{opts: dependency.URL{URL: "https://example.com/ui.zip"}, want: dependency.KindURL},
		{opts: dependency.Git{Repo: "r.git", Tag: "v1"}, want: dependency.KindGit},
		{opts: dependency.Registry{Version: "^1.0"}, want: dependency.KindRegistry},
	}

	for _, tt := range tests {
		src, err := New(tt.opts, env)
		if err != nil {
			t.Errorf("New(%v) error = %v", tt.opts, err)
			continue
		}
		if src.Kind() != tt.want {
			t.Errorf("New(%v).Kind() = %q, want %q", tt.opts, src.Kind(), tt.want)
		}
		if src.Clone().Kind() != tt.want {
			t.Errorf("Clone().Kind() = %q, want %q", src.Clone().Kind(), tt.want)
		}
	}
}

func TestNewErrors(t *testing.T) {
	t.Parallel()

	_, err := New(dependency.Git{Repo: "r.git", Rev: "abc", Tag: "v1"}, Env{CacheDir: t.TempDir()})
	if !errors.Is(err, dependency.ErrConflictingRefs) {
		t.Errorf("New(git rev+tag) error = %v, want ErrConflictingRefs", err)
	}

	for _, opts := range []dependency.Options{
		dependency.File{Path: "/tmp/ui.zip"},
		dependency.URL{URL: "https://example.com/ui.zip"},
		dependency.Git{Repo: "r.git"},
		dependency.Registry{Version: "*"},
	} {
		if _, err := New(opts, Env{}); !errors.Is(err, ErrNoCacheDir) {
			t.Errorf("New(%v) without cache error = %v, want ErrNoCacheDir", opts, err)
		}
	}

	if _, err := New(dependency.Dir{Path: "/tmp/ui"}, Env{}); err != nil {
		t.Errorf("New(dir) without cache error = %v", err)
	}
}

func TestDirSource(t *testing.T) {
	t.Parallel()

	lib := t.TempDir()
	writeTree(t, lib, map[string]string{
		"Smaug.toml":   uiManifest,
		"lib/ui.rb":    "module UI; end",
		".smaugignore": "tmp/\n",
		"tmp/scratch":  "scratch",
	})
	destination := filepath.Join(t.TempDir(), "smaug")

	opts := dependency.Dir{Path: lib}
	src, err := New(opts, Env{})
	if err != nil {
		t.Fatal(err)
	}
	dep := mustDependency(t, "ui", opts)

	if src.Installed(dep, destination) {
		t.Fatal("Installed() = true before Install")
	}
	if err := src.Install(context.Background(), dep, destination); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if got := readFile(t, filepath.Join(destination, "ui", "lib", "ui.rb")); got != "module UI; end" {
		t.Errorf("lib/ui.rb = %q", got)
	}
	if fileExists(filepath.Join(destination, "ui", "tmp")) {
		t.Error("ignored tmp/ was copied")
	}
	if !src.Installed(dep, destination) {
		t.Error("Installed() = false after Install")
	}

	// Presence is checked on the destination, not the origin.
	if err := os.RemoveAll(lib); err != nil {
		t.Fatal(err)
	}
	if !src.Installed(dep, destination) {
		t.Error("Installed() = false after the origin was removed")
	}
}

func TestDirSourceMissingPath(t *testing.T) {
	t.Parallel()

	opts := dependency.Dir{Path: filepath.Join(t.TempDir(), "missing")}
	src, err := New(opts, Env{})
	if err != nil {
		t.Fatal(err)
	}

	err = src.Install(context.Background(), mustDependency(t, "ui", opts), t.TempDir())
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Install() error = %v, want ErrFetch", err)
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Name != "ui" || fe.Kind != dependency.KindDir {
		t.Errorf("FetchError = %+v", fe)
	}
}

func TestFileSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := filepath.Join(dir, "ui.zip")
	writeZip(t, archive, map[string]string{
		"ui-1.0.0/Smaug.toml":          uiManifest,
		"ui-1.0.0/lib/ui.rb":           "module UI; end",
		"ui-1.0.0/samples/Smaug.toml":  "[project]\n",
		"ui-1.0.0/samples/app/main.rb": "def tick(args); end",
	})

	cache := t.TempDir()
	writeTree(t, cache, map[string]string{"ui/stale.txt": "stale"})
	destination := filepath.Join(t.TempDir(), "smaug")

	opts := dependency.File{Path: archive}
	src, err := New(opts, Env{CacheDir: cache})
	if err != nil {
		t.Fatal(err)
	}
	dep := mustDependency(t, "ui", opts)

	if err := src.Install(context.Background(), dep, destination); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	if got := readFile(t, filepath.Join(destination, "ui", "Smaug.toml")); got != uiManifest {
		t.Errorf("Smaug.toml = %q", got)
	}
	if !fileExists(filepath.Join(destination, "ui", "samples", "app", "main.rb")) {
		t.Error("nested files under the package root were not copied")
	}
	if fileExists(filepath.Join(cache, "ui", "stale.txt")) {
		t.Error("stale cache slot was not cleared")
	}
	if fileExists(filepath.Join(destination, "ui", "stale.txt")) {
		t.Error("stale cache content reached the destination")
	}
}

func TestFileSourceErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	noManifest := filepath.Join(dir, "nomanifest.zip")
	writeZip(t, noManifest, map[string]string{"lib/ui.rb": "module UI; end"})

	corrupt := filepath.Join(dir, "corrupt.zip")
	if err := os.WriteFile(corrupt, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	escape := filepath.Join(dir, "escape.zip")
	writeZip(t, escape, map[string]string{"../../evil.rb": "evil", "Smaug.toml": uiManifest})

	for _, archive := range []string{noManifest, corrupt, escape} {
		opts := dependency.File{Path: archive}
		src, err := New(opts, Env{CacheDir: t.TempDir()})
		if err != nil {
			t.Fatal(err)
		}

		err = src.Install(context.Background(), mustDependency(t, "ui", opts), t.TempDir())
		if !errors.Is(err, ErrArchive) {
			t.Errorf("Install(%s) error = %v, want ErrArchive", filepath.Base(archive), err)
		}
		if !errors.Is(err, ErrFetch) {
			t.Errorf("Install(%s) error = %v, want ErrFetch", filepath.Base(archive), err)
		}
	}
}

func TestURLSource(t *testing.T) {
	t.Parallel()

	archive := filepath.Join(t.TempDir(), "ui.zip")
	writeZip(t, archive, map[string]string{
		"Smaug.toml": uiManifest,
		"lib/ui.rb":  "module UI; end",
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ui.zip", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, archive)
	})
	mux.HandleFunc("/broken.zip", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("garbage"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	t.Run("downloads and extracts", func(t *testing.T) {
		t.Parallel()

		cache := t.TempDir()
		writeTree(t, cache, map[string]string{"ui.zip": "stale download"})
		destination := t.TempDir()

		opts := dependency.URL{URL: server.URL + "/ui.zip"}
		src, err := New(opts, Env{CacheDir: cache, HTTPClient: server.Client()})
		if err != nil {
			t.Fatal(err)
		}
		if err := src.Install(context.Background(), mustDependency(t, "ui", opts), destination); err != nil {
			t.Fatalf("Install() error = %v", err)
		}
		if got := readFile(t, filepath.Join(destination, "ui", "lib", "ui.rb")); got != "module UI; end" {
			t.Errorf("lib/ui.rb = %q", got)
		}
	})

	t.Run("http failure is a download error", func(t *testing.T) {
		t.Parallel()

		opts := dependency.URL{URL: server.URL + "/missing.zip"}
		src, err := New(opts, Env{CacheDir: t.TempDir(), HTTPClient: server.Client()})
		if err != nil {
			t.Fatal(err)
		}
		err = src.Install(context.Background(), mustDependency(t, "ui", opts), t.TempDir())
		if !errors.Is(err, ErrDownload) {
			t.Errorf("Install() error = %v, want ErrDownload", err)
		}
		if errors.Is(err, ErrArchive) {
			t.Errorf("Install() error = %v, should not be ErrArchive", err)
		}
	})

	t.Run("bad archive is an archive error", func(t *testing.T) {
		t.Parallel()

		opts := dependency.URL{URL: server.URL + "/broken.zip"}
		src, err := New(opts, Env{CacheDir: t.TempDir(), HTTPClient: server.Client()})
		if err != nil {
			t.Fatal(err)
		}
		err = src.Install(context.Background(), mustDependency(t, "ui", opts), t.TempDir())
		if !errors.Is(err, ErrArchive) {
			t.Errorf("Install() error = %v, want ErrArchive", err)
		}
		if errors.Is(err, ErrDownload) {
			t.Errorf("Install() error = %v, should not be ErrDownload", err)
		}
	})
}
