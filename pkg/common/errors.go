package common

import (
	"errors"
	"fmt"
)

var (
	// Tenant registry errors
	ErrTenantNotFound                  = errors.New("tenant not found")
	ErrTenantUniqueConstraintViolation = errors.New("tenant unique constraint violation")
	ErrSubdomainInUse                  = errors.New("subdomain already in use")
	ErrInvalidSubdomain                = errors.New("invalid subdomain")
	ErrNoFields                        = errors.New("no fields to update")
	ErrPartialCredentials              = errors.New("storage credential fields must be written together")

	// Provisioning errors
	ErrDatabaseCreationFailed = errors.New("tenant database creation failed")
	ErrBucketCreationFailed   = errors.New("tenant bucket creation failed")
)

// Stable failure codes surfaced to callers of the provisioning saga.
const (
	CodeDBCreationFailed     = "db_creation_failed"
	CodeBucketCreationFailed = "b2_bucket_creation_failed"
	CodeSubdomainInUse       = "subdomain_in_use"
	CodeNoFields             = "no_fields"
	CodeGymNotFound          = "gym_not_found"
	CodeInvalidSubdomain     = "invalid_subdomain"
	CodeInternalError        = "internal_error"
)

// ProvisionError attaches a stable failure code to an underlying error so the
// saga's caller can branch on the class without parsing messages.
type ProvisionError struct {
	Code string
	Err  error
}

func (e *ProvisionError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

func NewProvisionError(code string, err error) *ProvisionError {
	return &ProvisionError{Code: code, Err: err}
}

// CodeOf maps an error to its failure code. Sentinel errors from the registry
// get their canonical codes; anything unrecognized is internal_error.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProvisionError
	if errors.As(err, &pe) {
		return pe.Code
	}
	switch {
	case errors.Is(err, ErrTenantNotFound):
		return CodeGymNotFound
	case errors.Is(err, ErrSubdomainInUse), errors.Is(err, ErrTenantUniqueConstraintViolation):
		return CodeSubdomainInUse
	case errors.Is(err, ErrInvalidSubdomain):
		return CodeInvalidSubdomain
	case errors.Is(err, ErrNoFields):
		return CodeNoFields
	case errors.Is(err, ErrDatabaseCreationFailed):
		return CodeDBCreationFailed
	case errors.Is(err, ErrBucketCreationFailed):
		return CodeBucketCreationFailed
	default:
		return CodeInternalError
	}
}
