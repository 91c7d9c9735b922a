// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/ereborstudios/smaug/internal/issue"
	"github.com/ereborstudios/smaug/internal/resolver"
	"github.com/ereborstudios/smaug/pkg/dependency"
	"github.com/ereborstudios/smaug/pkg/manifest"
	"github.com/ereborstudios/smaug/pkg/source"
)

// ServiceError is an error that carries an issue catalog entry for the CLI
// layer to render after the error itself.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{Err: err, IssueID: issueID}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classifyError attaches the matching issue catalog entry and exit code to
// err. Errors that are already classified are returned unchanged.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return err
	}

	code := ExitFailure
	var id issue.Id
	switch {
	case errors.Is(err, manifest.ErrFileNotFound):
		id, code = issue.ManifestNotFoundId, ExitInvalidInput
	case errors.Is(err, manifest.ErrParse):
		id, code = issue.ManifestParseErrorId, ExitInvalidInput
	case errors.Is(err, manifest.ErrAlreadyAdded):
		id, code = issue.AlreadyAddedId, ExitInvalidInput
	case errors.Is(err, dependency.ErrUnrecognized), errors.Is(err, dependency.ErrConflictingRefs):
		id, code = issue.UnrecognizedDependencyId, ExitInvalidInput
	case errors.Is(err, source.ErrRegistry):
		id = issue.RegistryUnavailableId
	case errors.Is(err, source.ErrFetch):
		id = issue.FetchFailedId
	case errors.Is(err, resolver.ErrPropagation):
		id = issue.PropagationFailedId
	}

	var stageErr *resolver.StageError
	if id == 0 && errors.As(err, &stageErr) && stageErr.Stage == resolver.StageClassify {
		id, code = issue.UnrecognizedDependencyId, ExitInvalidInput
	}

	if id == 0 {
		return &ExitError{Code: code, Err: err}
	}
	return &ExitError{Code: code, Err: newServiceError(err, id)}
}

// renderServiceError prints the suggestions of an actionable error and the
// issue catalog entry attached to err, if any.
func renderServiceError(stderr io.Writer, err error, verbose bool, stylePath string) {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && (verbose || len(ae.Suggestions) > 0) {
		fmt.Fprintln(stderr, ae.Format(verbose))
	}

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) || svcErr.IssueID == 0 {
		return
	}

	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render(stylePath)
		if renderErr != nil {
			log.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
			return
		}
		fmt.Fprint(stderr, rendered)
	}
}
