package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrReferenceNotFound is matched by every *ReferenceNotFoundError.
	ErrReferenceNotFound = errors.New("reference not found")
	// ErrInvalidRequestState is matched by every *InvalidRequestError.
	ErrInvalidRequestState = errors.New("invalid request state")
)

// ReferenceNotFoundError reports an external id that did not resolve to an
// active item of the given kind.
type ReferenceNotFoundError struct {
	Kind       Kind
	ExternalID string
	// By names the key that was looked up. Empty means UUID.
	By string
}

func (e *ReferenceNotFoundError) Error() string {
	by := e.By
	if by == "" {
		by = "UUID"
	}
	return fmt.Sprintf("no %s found for %s %s", e.Kind, by, e.ExternalID)
}

func (e *ReferenceNotFoundError) Is(target error) bool {
	return target == ErrReferenceNotFound
}

// NotFound builds a ReferenceNotFoundError.
func NotFound(kind Kind, externalID string) error {
	return &ReferenceNotFoundError{Kind: kind, ExternalID: externalID}
}

// InvalidRequestError reports a request that cannot be applied to the current
// state (missing container, duplicate name, ...).
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string { return e.Reason }

func (e *InvalidRequestError) Is(target error) bool {
	return target == ErrInvalidRequestState
}

// Invalid builds an InvalidRequestError with a formatted reason.
func Invalid(format string, args ...interface{}) error {
	return &InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}
