// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"fmt"
	"strings"
)

type (
	// ActionableError wraps a failure with what smaug was doing, which
	// dependency and path were involved, and what the user can do about it.
	//
	//	err := issue.NewErrorContext().
	//		WithOperation("install dependency files").
	//		WithDependency("ui").
	//		WithResource("sprites/icon.png").
	//		WithSuggestion("Run 'smaug deps' to check your declarations").
	//		Wrap(cause).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase such as "install dependency files".
		Operation string
		// Dependency names the dependency being processed, if any.
		Dependency string
		// Resource is the file or directory involved, if any.
		Resource    string
		Suggestions []string
		Cause       error
	}

	// ErrorContext builds an ActionableError.
	ErrorContext struct {
		err ActionableError
	}
)

// NewErrorContext returns an empty builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// Error returns "failed to <operation> [<dependency>]: <resource>: <cause>",
// leaving out the parts that are not set.
func (e *ActionableError) Error() string {
	var msg strings.Builder

	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)
	if e.Dependency != "" {
		fmt.Fprintf(&msg, " [%s]", e.Dependency)
	}
	for _, part := range []string{e.Resource, causeText(e.Cause)} {
		if part != "" {
			msg.WriteString(": ")
			msg.WriteString(part)
		}
	}

	return msg.String()
}

// Unwrap returns the cause.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the error followed by its suggestions. With verbose set it
// also lists every error in the cause tree, one per line, indented by depth.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder

	msg.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n")
		for _, s := range e.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(s)
		}
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		n := 0
		walkCauses(e.Cause, 0, func(err error, depth int) {
			n++
			fmt.Fprintf(&msg, "\n%s%d. %s", strings.Repeat("  ", depth+1), n, err.Error())
		})
	}

	return msg.String()
}

// walkCauses visits err and everything it wraps, following both single and
// multi-error Unwrap methods.
func walkCauses(err error, depth int, visit func(error, int)) {
	if err == nil {
		return
	}
	visit(err, depth)

	switch u := err.(type) { //nolint:errorlint // inspecting the Unwrap shape, not matching errors
	case interface{ Unwrap() []error }:
		for _, child := range u.Unwrap() {
			walkCauses(child, depth+1, visit)
		}
	case interface{ Unwrap() error }:
		walkCauses(u.Unwrap(), depth, visit)
	}
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// WithOperation sets the operation. It is required.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.err.Operation = op
	return c
}

// WithDependency sets the dependency name.
func (c *ErrorContext) WithDependency(name string) *ErrorContext {
	c.err.Dependency = name
	return c
}

// WithResource sets the file or directory involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.err.Resource = res
	return c
}

// WithSuggestion appends a hint. It may be called more than once.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.err.Suggestions = append(c.err.Suggestions, sug)
	return c
}

// Wrap sets the cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.err.Cause = err
	return c
}

// Build returns the ActionableError, or nil when no operation was set.
func (c *ErrorContext) Build() *ActionableError {
	if c.err.Operation == "" {
		return nil
	}
	ae := c.err
	ae.Suggestions = append([]string(nil), c.err.Suggestions...)
	return &ae
}

// BuildError is Build returning an error, so a missing operation yields a
// nil interface rather than a typed nil.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}
