// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/ereborstudios/smaug/pkg/dependency"
)

// FileName is the manifest file name looked up in project and package roots.
const FileName = "Smaug.toml"

var (
	// ErrFileNotFound is the sentinel error wrapped by FileNotFoundError.
	ErrFileNotFound = errors.New("manifest not found")
	// ErrParse is the sentinel error wrapped by ParseError.
	ErrParse = errors.New("manifest could not be parsed")
)

type (
	// Manifest is a loaded Smaug.toml.
	Manifest struct {
		// Path is the absolute path of the manifest file.
		Path         string
		Package      *Package
		Project      *Project
		DragonRuby   *DragonRuby
		Itch         *Itch
		Dependencies []Entry
	}

	// Entry is one [dependencies] declaration. Raw holds the undecoded value,
	// either a string or a map[string]any.
	Entry struct {
		Name string
		Raw  any
	}

	// Package is the [package] table of a dependency manifest.
	Package struct {
		Name          string   `toml:"name"`
		Version       string   `toml:"version"`
		Description   string   `toml:"description"`
		Homepage      string   `toml:"homepage"`
		Documentation string   `toml:"documentation"`
		Repository    string   `toml:"repository"`
		Readme        string   `toml:"readme"`
		Keywords      []string `toml:"keywords"`
		Authors       []string `toml:"authors"`
		// Installs maps package-relative source paths to project-relative
		// destinations, in declaration order.
		Installs []InstallFile `toml:"-"`
		// Requires lists package-relative Ruby files to load, in order.
		Requires []string `toml:"requires"`
	}

	// InstallFile is one entry of [package.installs].
	InstallFile struct {
		From string
		To   string
	}

	// Project is the [project] table of a game manifest.
	Project struct {
		Name        string   `toml:"name"`
		Title       string   `toml:"title"`
		Version     string   `toml:"version"`
		Authors     []string `toml:"authors"`
		Icon        string   `toml:"icon"`
		CompileRuby bool     `toml:"compile_ruby"`
	}

	// DragonRuby is the [dragonruby] table.
	DragonRuby struct {
		Version string `toml:"version"`
		Edition string `toml:"edition"`
	}

	// Itch is the [itch] table.
	Itch struct {
		URL      string `toml:"url"`
		Username string `toml:"username"`
	}

	// FileNotFoundError is returned when no manifest exists at Path.
	FileNotFoundError struct {
		Path string
	}

	// ParseError is returned when the manifest at Path is not valid TOML or
	// does not match the expected shape.
	ParseError struct {
		Path string
		Err  error
	}

	document struct {
		Package      *packageDocument `toml:"package"`
		Project      *Project         `toml:"project"`
		DragonRuby   *DragonRuby      `toml:"dragonruby"`
		Itch         *Itch            `toml:"itch"`
		Dependencies map[string]any   `toml:"dependencies"`
	}

	packageDocument struct {
		Package
		Installs map[string]string `toml:"installs"`
	}
)

// Load reads the manifest at path.
func Load(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &FileNotFoundError{Path: path}
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return nil, &FileNotFoundError{Path: abs}
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &ParseError{Path: abs, Err: err}
	}
	return Parse(data, abs)
}

// LoadDir reads the manifest in dir.
func LoadDir(dir string) (*Manifest, error) {
	return Load(filepath.Join(dir, FileName))
}

// Parse decodes manifest data. path is recorded on the result and used to
// resolve relative dependency paths.
func Parse(data []byte, path string) (*Manifest, error) {
	var doc document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	m := &Manifest{
		Path:       path,
		Project:    doc.Project,
		DragonRuby: doc.DragonRuby,
		Itch:       doc.Itch,
	}

	seen := make(map[string]bool)
	for _, key := range md.Keys() {
		switch {
		case len(key) >= 2 && key[0] == "dependencies":
			// Dotted keys such as ui.dir only report their full path.
			name := key[1]
			if seen["dependencies."+name] {
				continue
			}
			seen["dependencies."+name] = true
			m.Dependencies = append(m.Dependencies, Entry{Name: name, Raw: doc.Dependencies[name]})
		case len(key) == 3 && key[0] == "package" && key[1] == "installs" && doc.Package != nil:
			from := key[2]
			if seen["installs."+from] {
				continue
			}
			seen["installs."+from] = true
			doc.Package.Package.Installs = append(doc.Package.Package.Installs, InstallFile{
				From: from,
				To:   doc.Package.Installs[from],
			})
		}
	}

	if doc.Package != nil {
		pkg := doc.Package.Package
		m.Package = &pkg
	}

	return m, nil
}

// Dir returns the directory holding the manifest.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// Dependency returns the entry declared under name.
func (m *Manifest) Dependency(name string) (Entry, bool) {
	for _, e := range m.Dependencies {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Options classifies the entry relative to baseDir.
func (e Entry) Options(baseDir string) (dependency.Options, error) {
	return dependency.Classify(e.Raw, baseDir)
}

// Error implements the error interface.
func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("could not find %s at %s", FileName, e.Path)
}

// Unwrap returns ErrFileNotFound so callers can use errors.Is for programmatic detection.
func (e *FileNotFoundError) Unwrap() error { return ErrFileNotFound }

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse %s at %s: %v", FileName, e.Path, e.Err)
}

// Unwrap returns both ErrParse and the underlying decode error.
func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }
