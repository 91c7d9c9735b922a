// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "install dependencies"},
			expected: "failed to install dependencies",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "load manifest", Resource: "./Smaug.toml"},
			expected: "failed to load manifest: ./Smaug.toml",
		},
		{
			name:     "dependency and resource",
			err:      &ActionableError{Operation: "read README", Dependency: "ui", Resource: "docs/README.md"},
			expected: "failed to read README [ui]: docs/README.md",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "load manifest",
				Resource:  "./Smaug.toml",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to load manifest: ./Smaug.toml: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := NewErrorContext().
		WithOperation("install dependencies").
		Wrap(sentinel).
		BuildError()

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("connection refused")
	err := NewErrorContext().
		WithOperation("add dependency").
		WithResource("draco").
		WithSuggestion("Check your network connection").
		WithSuggestion("Retry later").
		Wrap(errors.Join(errors.New("registry lookup failed"), inner)).
		Build()

	short := err.Format(false)
	if !strings.Contains(short, "  • Check your network connection\n  • Retry later") {
		t.Errorf("Format(false) missing suggestions:\n%s", short)
	}
	if strings.Contains(short, "Error chain:") {
		t.Errorf("Format(false) should not include the error chain:\n%s", short)
	}

	long := err.Format(true)
	if !strings.Contains(long, "Error chain:\n  1. ") {
		t.Errorf("Format(true) missing error chain:\n%s", long)
	}
}

type multiCause struct{ errs []error }

func (m *multiCause) Error() string   { return "multi" }
func (m *multiCause) Unwrap() []error { return m.errs }

func TestActionableError_FormatWalksMultiErrors(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("install dependencies").
		Wrap(&multiCause{errs: []error{errors.New("sentinel"), errors.New("dial tcp: refused")}}).
		Build()

	long := err.Format(true)
	for _, want := range []string{"\n  1. multi", "\n    2. sentinel", "\n    3. dial tcp: refused"} {
		if !strings.Contains(long, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, long)
		}
	}
}

func TestErrorContext_BuildCopiesSuggestions(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().WithOperation("add dependency").WithSuggestion("first")
	built := ctx.Build()
	ctx.WithSuggestion("second")

	if len(built.Suggestions) != 1 {
		t.Errorf("Suggestions = %v, want one entry", built.Suggestions)
	}
}

func TestErrorContext_RequiresOperation(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without an operation should return nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() = %v, want nil", err)
	}
}
