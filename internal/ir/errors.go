package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes translation and include-resolution errors.
type ErrorCode string

const (
	// ErrCodeUnsupportedExpression indicates an expression node kind or
	// method the translator does not recognize.
	ErrCodeUnsupportedExpression ErrorCode = "UNSUPPORTED_EXPRESSION"

	// ErrCodeInvalidArgument indicates a take/skip count that is not a
	// compile-time constant.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeArity indicates an aggregate over the wrong number of projected
	// fields.
	ErrCodeArity ErrorCode = "ARITY"

	// ErrCodeAmbiguousOrdering indicates Last() without a preceding ordering.
	ErrCodeAmbiguousOrdering ErrorCode = "AMBIGUOUS_ORDERING"

	// ErrCodeMappingResolution indicates an unresolvable table, column or
	// include path segment.
	ErrCodeMappingResolution ErrorCode = "MAPPING_RESOLUTION"
)

// Error is returned by translation and include resolution. Every Error aborts
// the call that produced it; no partial result accompanies it.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Subject names the offending expression, operator, entity or path.
	Subject string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Subject)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf creates an Error with a formatted message.
func Errorf(code ErrorCode, subject, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Subject: subject,
	}
}

// NewUnsupportedExpressionError creates an ErrCodeUnsupportedExpression error.
func NewUnsupportedExpressionError(subject, format string, args ...any) *Error {
	return Errorf(ErrCodeUnsupportedExpression, subject, format, args...)
}

// NewInvalidArgumentError creates an ErrCodeInvalidArgument error.
func NewInvalidArgumentError(subject, format string, args ...any) *Error {
	return Errorf(ErrCodeInvalidArgument, subject, format, args...)
}

// NewArityError creates an ErrCodeArity error.
func NewArityError(operator string, want string, got int) *Error {
	return Errorf(ErrCodeArity, operator, "requires %s projected field(s), found %d", want, got)
}

// NewAmbiguousOrderingError creates an ErrCodeAmbiguousOrdering error.
func NewAmbiguousOrderingError(operator string) *Error {
	return Errorf(ErrCodeAmbiguousOrdering, operator, "requires an explicit ordering")
}

// NewMappingResolutionError creates an ErrCodeMappingResolution error.
func NewMappingResolutionError(subject, format string, args ...any) *Error {
	return Errorf(ErrCodeMappingResolution, subject, format, args...)
}

// CodeOf returns the ErrorCode of err, or "" when err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsUnsupportedExpression reports whether err is an unsupported-expression error.
func IsUnsupportedExpression(err error) bool { return CodeOf(err) == ErrCodeUnsupportedExpression }

// IsInvalidArgument reports whether err is an invalid-argument error.
func IsInvalidArgument(err error) bool { return CodeOf(err) == ErrCodeInvalidArgument }

// IsArity reports whether err is an arity error.
func IsArity(err error) bool { return CodeOf(err) == ErrCodeArity }

// IsAmbiguousOrdering reports whether err is an ambiguous-ordering error.
func IsAmbiguousOrdering(err error) bool { return CodeOf(err) == ErrCodeAmbiguousOrdering }

// IsMappingResolution reports whether err is a mapping-resolution error.
func IsMappingResolution(err error) bool { return CodeOf(err) == ErrCodeMappingResolution }
