// SPDX-License-Identifier: MPL-2.0

package dependency

import (
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		depName     string
		opts        Options
		wantVersion VersionReq
		wantErr     error
	}{
		{name: "registry keeps its range", depName: "draco", opts: Registry{Version: "^0.3"}, wantVersion: "^0.3"},
		{name: "dir is unconstrained", depName: "ui", opts: Dir{Path: "/tmp/ui"}, wantVersion: AnyVersion},
		{name: "git is unconstrained", depName: "ui", opts: Git{Repo: "r.git", Tag: "v1"}, wantVersion: AnyVersion},
		{name: "empty name", depName: "", opts: Dir{Path: "/tmp/ui"}, wantErr: ErrInvalidName},
		{name: "nested name", depName: "a/b", opts: Dir{Path: "/tmp/ui"}, wantErr: ErrInvalidName},
		{name: "parent name", depName: "..", opts: Dir{Path: "/tmp/ui"}, wantErr: ErrInvalidName},
		{name: "bad range", depName: "draco", opts: Registry{Version: "one point oh"}, wantErr: ErrInvalidVersionReq},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dep, err := New(tt.depName, tt.opts)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if dep.Name != tt.depName || dep.Version != tt.wantVersion {
				t.Errorf("New() = %+v, want name %q version %q", dep, tt.depName, tt.wantVersion)
			}
		})
	}
}

func TestVersionReqMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		req     VersionReq
		version string
		want    bool
	}{
		{req: "^1.2.0", version: "1.9.0", want: true},
		{req: "^1.2.0", version: "2.0.0", want: false},
		{req: "~1.4", version: "1.4.7", want: true},
		{req: "*", version: "0.0.1", want: true},
		{req: "*", version: "not-a-version", want: false},
		{req: "garbage", version: "1.0.0", want: false},
	}

	for _, tt := range tests {
		if got := tt.req.Matches(tt.version); got != tt.want {
			t.Errorf("VersionReq(%q).Matches(%q) = %v, want %v", tt.req, tt.version, got, tt.want)
		}
	}
}

func TestGitValidate(t *testing.T) {
	t.Parallel()

	valid := []Git{
		{Repo: "r.git"},
		{Repo: "r.git", Branch: "main"},
		{Repo: "r.git", Rev: "0123abc"},
		{Repo: "r.git", Tag: "v1.0.0"},
	}
	for _, g := range valid {
		if err := g.Validate(); err != nil {
			t.Errorf("%v.Validate() error = %v", g, err)
		}
	}

	err := Git{Repo: "r.git", Rev: "0123abc", Tag: "v1.0.0"}.Validate()
	if !errors.Is(err, ErrConflictingRefs) {
		t.Fatalf("Validate() error = %v, want ErrConflictingRefs", err)
	}
	if !strings.Contains(err.Error(), "rev and tag") {
		t.Errorf("Validate() error = %q, should name the conflicting references", err)
	}
}

func TestOptionsString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		opts Options
		want string
	}{
		{opts: Dir{Path: "/ui"}, want: "dir /ui"},
		{opts: File{Path: "/ui.zip"}, want: "file /ui.zip"},
		{opts: URL{URL: "https://x.test/a.zip"}, want: "url https://x.test/a.zip"},
		{opts: Registry{Version: "^1"}, want: "registry ^1"},
		{opts: Git{Repo: "r.git", Tag: "v1"}, want: "git r.git tag v1"},
	}
	for _, tt := range tests {
		if got := tt.opts.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
