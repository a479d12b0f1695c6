package ekn

import "github.com/kailas-cloud/ekn/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound            = domain.ErrNotFound
	ErrInvalidID           = domain.ErrInvalidID
	ErrUnexpectedScheme    = domain.ErrUnexpectedScheme
	ErrUnexpectedStructure = domain.ErrUnexpectedStructure
	ErrMalformedHash       = domain.ErrMalformedHash
	ErrDomainMismatch      = domain.ErrDomainMismatch
	ErrInvalidRequest      = domain.ErrInvalidRequest
	ErrNoModel             = domain.ErrNoModel
	ErrMissingProperty     = domain.ErrMissingProperty
	ErrInvalidProperty     = domain.ErrInvalidProperty
	ErrNoContent           = domain.ErrNoContent
	ErrUnsupportedVersion  = domain.ErrUnsupportedVersion
	ErrRedirectLoop        = domain.ErrRedirectLoop
)
