package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeInvalidState ErrorType = "invalid_state"
	ErrorTypeExpired      ErrorType = "expired"
	ErrorTypeInvariant    ErrorType = "invariant_violation"
	ErrorTypeLimit        ErrorType = "limit_exceeded"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeDependency   ErrorType = "dependency"
	ErrorTypeInternal     ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is: two domain errors match when their types match
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithMessage returns a copy of the error carrying a caller-facing message.
// Denied operations must carry a human-readable reason, so services use this
// to attach the reason produced by the permission evaluator.
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{
		Type:    e.Type,
		Message: message,
		Err:     e.Err,
		Details: e.Details,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Not Found Errors
	ErrOrganizationNotFound = NewDomainError(ErrorTypeNotFound, "organization not found", nil)
	ErrMemberNotFound       = NewDomainError(ErrorTypeNotFound, "member not found", nil)
	ErrInvitationNotFound   = NewDomainError(ErrorTypeNotFound, "invitation not found", nil)
	ErrUserNotFound         = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrTokenNotFound        = NewDomainError(ErrorTypeNotFound, "token not found", nil)

	// Validation Errors
	ErrInvalidInput = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrInvalidRole  = NewDomainError(ErrorTypeValidation, "invalid role", nil)
	ErrInvalidEmail = NewDomainError(ErrorTypeValidation, "invalid email format", nil)

	// Authentication Errors
	ErrUnauthorized       = NewDomainError(ErrorTypeUnauthorized, "authentication required", nil)
	ErrInvalidCredentials = NewDomainError(ErrorTypeUnauthorized, "invalid email or password", nil)
	ErrInvalidToken       = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)

	// Authorization Errors
	ErrForbidden               = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)
	ErrInsufficientPermissions = NewDomainError(ErrorTypeForbidden, "insufficient permissions", nil)
	ErrNotAMember              = NewDomainError(ErrorTypeForbidden, "you are not a member of this organization", nil)

	// Invitation State Errors
	ErrInvitationNotPending = NewDomainError(ErrorTypeInvalidState, "invitation is no longer pending", nil)
	ErrInvitationExpired    = NewDomainError(ErrorTypeExpired, "invitation has expired", nil)
	ErrEmailMismatch        = NewDomainError(ErrorTypeForbidden, "invitation was sent to a different email address", nil)

	// Invariant Errors
	ErrLastOwner      = NewDomainError(ErrorTypeInvariant, "cannot remove the last owner. Promote another member to owner first", nil)
	ErrSelfRoleChange = NewDomainError(ErrorTypeInvariant, "you cannot change your own role", nil)
	ErrSelfRemoval    = NewDomainError(ErrorTypeInvariant, `you cannot remove yourself from the organization. Use "leave organization" instead`, nil)
	ErrSoleOwnerLeave = NewDomainError(ErrorTypeInvariant, "the last owner cannot leave. Transfer ownership or delete the organization instead", nil)

	// Limit Errors
	ErrMemberLimitReached = NewDomainError(ErrorTypeLimit, "this organization has reached its member limit. Upgrade to add more members", nil)

	// Conflict Errors
	ErrDuplicateMember   = NewDomainError(ErrorTypeConflict, "user is already a member of this organization", nil)
	ErrInvitationPending = NewDomainError(ErrorTypeConflict, "an invitation for this email is already pending", nil)
	ErrDuplicateEmail    = NewDomainError(ErrorTypeConflict, "an account with this email already exists", nil)
	ErrDuplicateSlug     = NewDomainError(ErrorTypeConflict, "an organization with this slug already exists", nil)

	// Dependency Errors
	ErrEmailDelivery = NewDomainError(ErrorTypeDependency, "failed to send email", nil)
	ErrBillingError  = NewDomainError(ErrorTypeDependency, "billing provider error", nil)

	// Internal Errors
	ErrInternal      = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError = NewDomainError(ErrorTypeInternal, "database error", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnauthorizedError checks if an error is an authentication error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsForbiddenError checks if an error is an authorization error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsInvalidStateError checks if an error is an invalid state error
func IsInvalidStateError(err error) bool {
	return GetErrorType(err) == ErrorTypeInvalidState
}

// IsExpiredError checks if an error is an expiration error
func IsExpiredError(err error) bool {
	return GetErrorType(err) == ErrorTypeExpired
}

// IsInvariantError checks if an error is an invariant violation
func IsInvariantError(err error) bool {
	return GetErrorType(err) == ErrorTypeInvariant
}

// IsLimitError checks if an error is a limit error
func IsLimitError(err error) bool {
	return GetErrorType(err) == ErrorTypeLimit
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return GetErrorType(err) == ErrorTypeConflict
}

// IsDependencyError checks if an error is an external dependency error
func IsDependencyError(err error) bool {
	return GetErrorType(err) == ErrorTypeDependency
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapDependency wraps an error as an external dependency error
func WrapDependency(message string, err error) error {
	return NewDomainError(ErrorTypeDependency, message, err)
}
