// SPDX-License-Identifier: MPL-2.0

package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ereborstudios/smaug/internal/installer"
	"github.com/ereborstudios/smaug/internal/resolver"
)

func sampleReport(project string) installer.Report {
	deps := filepath.Join(project, "smaug")
	return installer.Report{Results: []installer.Result{
		{
			Install: resolver.Install{
				From: filepath.Join(deps, "ui", "assets", "icon.png"),
				To:   filepath.Join(project, "sprites", "icon.png"),
			},
			Outcome: installer.Copied,
			Digest:  "aaa",
		},
		{
			Install: resolver.Install{
				From: filepath.Join(deps, "draco", "lib", "draco.rb"),
				To:   filepath.Join(project, "lib", "draco.rb"),
			},
			Outcome: installer.Unchanged,
			Digest:  "bbb",
		},
		{
			Install: resolver.Install{
				From: filepath.Join(deps, "ui", "fonts", "main.ttf"),
				To:   filepath.Join(project, "fonts", "main.ttf"),
			},
			Outcome: installer.Declined,
			Digest:  "ccc",
		},
	}}
}

func TestFromReport(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	l, err := FromReport(project, filepath.Join(project, "smaug"), sampleReport(project))
	if err != nil {
		t.Fatalf("FromReport() error = %v", err)
	}

	want := []File{
		{Package: "ui", Source: "smaug/ui/assets/icon.png", Destination: "sprites/icon.png", Digest: "aaa"},
		{Package: "draco", Source: "smaug/draco/lib/draco.rb", Destination: "lib/draco.rb", Digest: "bbb"},
		{Package: "ui", Source: "smaug/ui/fonts/main.ttf", Destination: "fonts/main.ttf", Digest: "ccc"},
	}
	if !slices.Equal(l.Files, want) {
		t.Errorf("Files = %+v, want %+v", l.Files, want)
	}
	if got := l.Packages(); !slices.Equal(got, []string{"ui", "draco"}) {
		t.Errorf("Packages() = %v", got)
	}
	if got := l.FilesOf("ui"); len(got) != 2 || got[1].Destination != "fonts/main.ttf" {
		t.Errorf("FilesOf(ui) = %+v", got)
	}
	if got := l.FilesOf("nope"); len(got) != 0 {
		t.Errorf("FilesOf(nope) = %+v, want none", got)
	}
}

func TestFromReportOutsideDestination(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	report := installer.Report{Results: []installer.Result{{
		Install: resolver.Install{From: filepath.Join(project, "elsewhere", "a.rb"), To: filepath.Join(project, "a.rb")},
	}}}
	if _, err := FromReport(project, filepath.Join(project, "smaug"), report); err == nil {
		t.Error("FromReport() expected an error")
	}
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	l, err := FromReport(project, filepath.Join(project, "smaug"), sampleReport(project))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(project, FileName)
	if err := l.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# Generated by smaug") {
		t.Errorf("missing header:\n%s", data)
	}
	if !strings.Contains(string(data), "[[file]]") {
		t.Errorf("missing file tables:\n%s", data)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !slices.Equal(got.Files, l.Files) {
		t.Errorf("Files = %+v, want %+v", got.Files, l.Files)
	}
	if !got.Generated.Equal(l.Generated) {
		t.Errorf("Generated = %v, want %v", got.Generated, l.Generated)
	}
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	l, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if l.Version != CurrentVersion || len(l.Files) != 0 {
		t.Errorf("Load() = %+v, want empty lock file", l)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		sentinel error
	}{
		{name: "malformed", content: "version = ["},
		{name: "future version", content: "version = \"9\"\n", sentinel: ErrUnsupportedVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), FileName)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() expected an error")
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("Load() error = %v, want %v", err, tt.sentinel)
			}
		})
	}
}
