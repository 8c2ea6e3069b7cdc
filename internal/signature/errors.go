package signature

import (
	"errors"
	"fmt"
)

// ErrEmptyComponentList is returned when a signing-string build is attempted
// with no components.
var ErrEmptyComponentList = errors.New("signature: component list is empty")

// ErrMalformedHeader is returned (wrapped) when the Authorization header does
// not parse as a signature.
var ErrMalformedHeader = errors.New("signature: malformed authorization header")

// MissingComponentError indicates the component list names a header the
// request does not carry. A missing header is a build failure, never a
// silent omission.
type MissingComponentError struct {
	Component string
}

func (e *MissingComponentError) Error() string {
	return fmt.Sprintf("signature: request has no %q header required by the component list", e.Component)
}

// UnsupportedAlgorithmError indicates an algorithm identifier outside the
// supported HMAC set.
type UnsupportedAlgorithmError struct {
	Algorithm string
}

func (e *UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("signature: unsupported algorithm %q", e.Algorithm)
}

// InsufficientHeadersError indicates the presented component list omits a
// component the verifier's policy marks mandatory.
type InsufficientHeadersError struct {
	Component string
}

func (e *InsufficientHeadersError) Error() string {
	return fmt.Sprintf("signature: presented component list omits mandatory component %q", e.Component)
}

// DuplicateComponentError indicates the component list names the same
// component twice. Order is significant, so duplicates are rejected rather
// than de-duplicated.
type DuplicateComponentError struct {
	Component string
}

func (e *DuplicateComponentError) Error() string {
	return fmt.Sprintf("signature: duplicate component %q in component list", e.Component)
}
