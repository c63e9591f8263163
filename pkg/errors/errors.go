// Package errors provides common domain error types for fpmigrate.
//
// Sentinel errors let migration stages signal specific conditions
// (missing prerequisite artifact, missing record, duplicate key race)
// that callers handle with errors.Is() checks.
package errors

import "errors"

var (
	// ErrNotFound indicates the requested record was not found.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g. a
	// uniqueness-constraint violation during create).
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("validation error")

	// ErrMissingArtifact indicates a required upstream mapping artifact
	// is absent. This is the one fatal precondition: the run exits
	// non-zero instead of continuing with an incomplete mapping.
	ErrMissingArtifact = errors.New("missing prerequisite artifact")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether any error in err's chain is ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsMissingArtifact reports whether any error in err's chain is ErrMissingArtifact.
func IsMissingArtifact(err error) bool {
	return errors.Is(err, ErrMissingArtifact)
}
