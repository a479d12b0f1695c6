package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing content object or domain.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID signals a malformed content identifier.
	ErrInvalidID = errors.New("invalid content id")
	// ErrUnexpectedScheme signals an identifier whose scheme is not ekn.
	ErrUnexpectedScheme = errors.New("unexpected uri scheme")
	// ErrUnexpectedStructure signals an identifier path that is not domain/hash.
	ErrUnexpectedStructure = errors.New("unexpected structure")
	// ErrDomainMismatch signals an identifier from a domain other than the request's.
	ErrDomainMismatch = errors.New("domain mismatch")
	// ErrMalformedHash signals an identifier hash that is not 16 alphanumerics.
	ErrMalformedHash = errors.New("malformed hash")
	// ErrInvalidRequest signals an out-of-range query request field.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNoModel signals a content type tag with no registered model.
	ErrNoModel = errors.New("no model found")
	// ErrMissingProperty signals a required content property that is absent.
	ErrMissingProperty = errors.New("missing property")
	// ErrInvalidProperty signals a content property with a malformed value.
	ErrInvalidProperty = errors.New("invalid property")
	// ErrNoContent signals a model without a content byte stream.
	ErrNoContent = errors.New("no content stream")

	// ErrUnsupportedVersion signals an unknown domain storage version.
	ErrUnsupportedVersion = errors.New("unsupported domain version")
	// ErrRedirectLoop signals a redirect chain that never terminates.
	ErrRedirectLoop = errors.New("redirect chain too long")
)

// PropertyError wraps ErrMissingProperty or ErrInvalidProperty with the property name.
type PropertyError struct {
	Property string
	Err      error
	Cause    error
}

func (e *PropertyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %q: %s", e.Err.Error(), e.Property, e.Cause.Error())
	}
	return fmt.Sprintf("%s %q", e.Err.Error(), e.Property)
}

func (e *PropertyError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// MissingProperty creates a missing property error.
func MissingProperty(name string) error {
	return &PropertyError{Property: name, Err: ErrMissingProperty}
}

// InvalidProperty creates an invalid property error carrying the cause.
func InvalidProperty(name string, cause error) error {
	return &PropertyError{Property: name, Err: ErrInvalidProperty, Cause: cause}
}
