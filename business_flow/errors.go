package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Webhook intake errors
	ErrTenantUnconfigured = errors.New("tenant is not configured")
	ErrTenantInactive     = errors.New("tenant is inactive")

	// Tenant administration errors
	ErrShopDomainRequired = errors.New("shop domain is required")
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrInvalidActiveFlag  = errors.New("active flag must be 0 or 1")
	ErrInstanceIDRequired = errors.New("instance id is required")
	ErrAuthTokenRequired  = errors.New("auth token is required")
	ErrInvalidCountryCode = errors.New("country prefix must contain digits only")
	ErrCredentialsSealing = errors.New("failed to protect tenant credentials")
	ErrInvalidSeedFile    = errors.New("tenant seed file is invalid")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 500")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsTenantUnconfigured(err error) bool {
	return errors.Is(err, ErrTenantUnconfigured)
}

func IsTenantInactive(err error) bool {
	return errors.Is(err, ErrTenantInactive)
}

func IsShopDomainRequired(err error) bool {
	return errors.Is(err, ErrShopDomainRequired)
}

func IsTenantNotFound(err error) bool {
	return errors.Is(err, ErrTenantNotFound)
}

func IsInvalidActiveFlag(err error) bool {
	return errors.Is(err, ErrInvalidActiveFlag)
}

func IsInstanceIDRequired(err error) bool {
	return errors.Is(err, ErrInstanceIDRequired)
}

func IsAuthTokenRequired(err error) bool {
	return errors.Is(err, ErrAuthTokenRequired)
}

func IsInvalidCountryCode(err error) bool {
	return errors.Is(err, ErrInvalidCountryCode)
}

func IsInvalidSeedFile(err error) bool {
	return errors.Is(err, ErrInvalidSeedFile)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
