// SPDX-License-Identifier: MPL-2.0

package copydir

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

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

func exists(t *testing.T, path string) bool {
	t.Helper()

	_, err := os.Stat(path)
	return err == nil
}

func TestCopy(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	writeTree(t, src, map[string]string{
		"Smaug.toml":          "[package]\n",
		"lib/ui.rb":           "module UI; end",
		"lib/widgets/btn.rb":  "class Button; end",
		"assets/icon.png":     "png",
		"docs/nested/deep.md": "deep",
	})

	if err := Copy(src, dst); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}

	for _, rel := range []string{"Smaug.toml", "lib/ui.rb", "lib/widgets/btn.rb", "assets/icon.png", "docs/nested/deep.md"} {
		data, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(rel)))
		if err != nil {
			t.Errorf("%s not copied: %v", rel, err)
			continue
		}
		want, _ := os.ReadFile(filepath.Join(src, filepath.FromSlash(rel)))
		if string(data) != string(want) {
			t.Errorf("%s = %q, want %q", rel, data, want)
		}
	}
}

func TestCopyNeverCopiesGitMetadata(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{
		".git/HEAD":            "ref: refs/heads/main",
		".git/objects/ab/cdef": "blob",
		"vendor/lib/.git":      "gitdir: ../../.git/modules/lib",
		"vendor/lib/lib.rb":    "lib",
		"main.rb":              "main",
		// A negation cannot bring version control metadata back.
		IgnoreFileName: "!.git/\n!.git/HEAD\n",
	})

	if err := Copy(src, dst); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}

	if exists(t, filepath.Join(dst, ".git")) {
		t.Error(".git directory was copied")
	}
	if exists(t, filepath.Join(dst, "vendor", "lib", ".git")) {
		t.Error("nested .git file was copied")
	}
	if !exists(t, filepath.Join(dst, "vendor", "lib", "lib.rb")) {
		t.Error("vendor/lib/lib.rb was not copied")
	}
	if !exists(t, filepath.Join(dst, "main.rb")) {
		t.Error("main.rb was not copied")
	}
}

func TestCopyHonorsIgnoreFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ignore  string
		files   []string
		copied  []string
		skipped []string
	}{
		{
			name:    "directory rule",
			ignore:  "build/\n",
			files:   []string{"build/output.txt", "build/sub/more.txt", "lib/a.rb"},
			copied:  []string{"lib/a.rb"},
			skipped: []string{"build"},
		},
		{
			name:    "glob with negation",
			ignore:  "# temporary files\n*.tmp\n!keep.tmp\n",
			files:   []string{"a.tmp", "lib/b.tmp", "keep.tmp", "c.rb"},
			copied:  []string{"keep.tmp", "c.rb"},
			skipped: []string{"a.tmp", "lib/b.tmp"},
		},
		{
			name:    "later rule overrides earlier",
			ignore:  "!docs/\ndocs/\n",
			files:   []string{"docs/readme.md", "lib/a.rb"},
			copied:  []string{"lib/a.rb"},
			skipped: []string{"docs"},
		},
		{
			name:    "crlf line endings",
			ignore:  "# windows editor\r\nbuild/\r\n*.tmp\r\n",
			files:   []string{"build/output.txt", "a.tmp", "lib/a.rb"},
			copied:  []string{"lib/a.rb"},
			skipped: []string{"build", "a.tmp"},
		},
		{
			name:    "anchored pattern",
			ignore:  "/samples\n",
			files:   []string{"samples/demo.rb", "lib/samples/keep.rb"},
			copied:  []string{"lib/samples/keep.rb"},
			skipped: []string{"samples"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := t.TempDir()
			dst := t.TempDir()
			files := map[string]string{IgnoreFileName: tt.ignore}
			for _, f := range tt.files {
				files[f] = f
			}
			writeTree(t, src, files)

			if err := Copy(src, dst); err != nil {
				t.Fatalf("Copy() error = %v", err)
			}

			for _, rel := range tt.copied {
				if !exists(t, filepath.Join(dst, filepath.FromSlash(rel))) {
					t.Errorf("%s was not copied", rel)
				}
			}
			for _, rel := range tt.skipped {
				if exists(t, filepath.Join(dst, filepath.FromSlash(rel))) {
					t.Errorf("%s was copied", rel)
				}
			}
		})
	}
}

func TestCopySkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on Windows")
	}
	t.Parallel()

	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"real.rb": "real"})
	if err := os.Symlink(filepath.Join(src, "real.rb"), filepath.Join(src, "link.rb")); err != nil {
		t.Fatal(err)
	}

	if err := Copy(src, dst); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	if exists(t, filepath.Join(dst, "link.rb")) {
		t.Error("symlink was copied")
	}
	if !exists(t, filepath.Join(dst, "real.rb")) {
		t.Error("real.rb was not copied")
	}
}

func TestFileOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "a", "b", "dst.txt")
	writeTree(t, dir, map[string]string{"src.txt": "new", "a/b/dst.txt": "old content that is longer"})

	if err := File(src, dst); err != nil {
		t.Fatalf("File() error = %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" {
		t.Errorf("dst = %q, want %q", data, "new")
	}
}
