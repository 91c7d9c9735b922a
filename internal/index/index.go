// SPDX-License-Identifier: MPL-2.0

// Package index renders smaug.rb, the Ruby file that requires every file
// contributed by a project's dependencies.
package index

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// FileName is the index file written at the project root.
const FileName = "smaug.rb"

//go:embed templates/smaug.rb.tmpl
var indexTemplate string

var tmpl = template.Must(template.New(FileName).Parse(indexTemplate))

// Render returns the index content for requires, in order.
func Render(requires []string) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Requires []string }{requires}); err != nil {
		return nil, fmt.Errorf("render %s: %w", FileName, err)
	}
	return buf.Bytes(), nil
}

// Write renders the index into projectDir and returns the written path.
func Write(projectDir string, requires []string) (string, error) {
	content, err := Render(requires)
	if err != nil {
		return "", err
	}
	path := filepath.Join(projectDir, FileName)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", FileName, err)
	}
	return path, nil
}
