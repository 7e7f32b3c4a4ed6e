package domain

import "errors"

var (
	// ErrValidation marks input rejected at the boundary. It is never retried.
	ErrValidation = errors.New("validation failed")

	// ErrTenantNotFound is returned when a tenant id does not resolve
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInvalidSyncType is returned for job types other than FULL and INCREMENTAL
	ErrInvalidSyncType = errors.New("type must be FULL or INCREMENTAL")

	// ErrDeprecatedPagination is returned when a caller passes the legacy page parameter
	ErrDeprecatedPagination = errors.New("'page' parameter is deprecated by Shopify, use cursor pagination with page_info")

	// ErrSyncInProgress is returned when another sync already holds the tenant's lease
	ErrSyncInProgress = errors.New("sync already in progress for tenant")

	// ErrBrokerUnavailable is returned when the queue broker cannot be reached
	ErrBrokerUnavailable = errors.New("queue broker unavailable")
)

// ValidationError carries the rejected cause; errors.Is matches both ErrValidation and the cause.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

// NewValidationError wraps cause as a ValidationError
func NewValidationError(cause error) error {
	return &ValidationError{Err: cause}
}
