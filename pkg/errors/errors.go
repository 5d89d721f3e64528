package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrMissingArgument = errors.New("missing argument")
	ErrOverpayment     = errors.New("payment exceeds installment amount")
	ErrValidation      = errors.New("validation failed")
	ErrDatabase        = errors.New("database operation failed")
	ErrCache           = errors.New("cache operation failed")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInvalidState    = "INVALID_STATE"
	ErrCodeMissingArgument = "MISSING_ARGUMENT"
	ErrCodeOverpayment     = "OVERPAYMENT"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeDatabaseError   = "DATABASE_ERROR"
	ErrCodeCacheError      = "CACHE_ERROR"
)

// CodeOf returns the stable code carried by err, or "" when err is not a BusinessError.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// IsBusinessError reports whether err already carries a business code.
func IsBusinessError(err error) bool {
	return CodeOf(err) != ""
}

func WrapUserNotFound(userID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("User with ID %s not found", userID),
		ErrNotFound,
	)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrNotFound,
	)
}

func WrapInstallmentNotFound(installmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("Installment with ID %s not found", installmentID),
		ErrNotFound,
	)
}

func WrapInvalidLoanState(loanID, status, operation string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidState,
		fmt.Sprintf("Cannot %s loan %s in status %s", operation, loanID, status),
		ErrInvalidState,
	)
}

func WrapLoanNotSettled(loanID, remaining string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidState,
		fmt.Sprintf("Loan %s still has remaining balance %s", loanID, remaining),
		ErrInvalidState,
	)
}

func WrapMissingInterestRate() *BusinessError {
	return NewBusinessError(
		ErrCodeMissingArgument,
		"interest_rate is required when approving a loan",
		ErrMissingArgument,
	)
}

func WrapOverpayment(installmentID, attempted, remaining string) *BusinessError {
	return NewBusinessError(
		ErrCodeOverpayment,
		fmt.Sprintf("Payment %s exceeds remaining amount %s on installment %s", attempted, remaining, installmentID),
		ErrOverpayment,
	)
}

func WrapValidation(message string) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		message,
		ErrValidation,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		errors.Join(ErrDatabase, err),
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		errors.Join(ErrCache, err),
	)
}
