package types

import "fmt"

// ErrorCode identifies a diagnostic or error class. Codes are stable and
// consumer-visible.
type ErrorCode string

// Structural build codes.
const (
	ErrElementIgnored   ErrorCode = "R0101"
	ErrAttributeIgnored ErrorCode = "R0102"
	ErrMissingRequired  ErrorCode = "R0201"
	ErrEmptyList        ErrorCode = "R0202"
	ErrUnknownEnum      ErrorCode = "R0203"
	ErrDuplicateName    ErrorCode = "R0204"
	ErrUnknownDataSet   ErrorCode = "R0205"
	ErrUnknownImage     ErrorCode = "R0206"
	ErrUnknownItem      ErrorCode = "R0207"
	ErrUnknownSource    ErrorCode = "R0208"
	ErrInvalidValue     ErrorCode = "R0209"
	ErrUnexpectedRoot   ErrorCode = "R0210"
)

// Expression compile codes.
const (
	ErrSyntaxError       ErrorCode = "E0101"
	ErrStringNotClosed   ErrorCode = "E0102"
	ErrUnexpectedEnd     ErrorCode = "E0103"
	ErrUnresolvedSymbol  ErrorCode = "E0201"
	ErrUndefinedFunction ErrorCode = "E0202"
	ErrArgumentCount     ErrorCode = "E0203"
	ErrUnknownProperty   ErrorCode = "E0204"
	ErrScopeViolation    ErrorCode = "E0301"
	ErrUnknownScope      ErrorCode = "E0302"
	ErrNestedAggregate   ErrorCode = "E0303"
)

// Code module codes.
const (
	ErrInvalidModule   ErrorCode = "C0101"
	ErrUnsupportedSig  ErrorCode = "C0102"
	ErrDuplicateExport ErrorCode = "C0103"
)

// Evaluation codes. These are returned as errors, never recorded as
// diagnostics.
const (
	ErrTypeMismatch   ErrorCode = "D1001"
	ErrDivideByZero   ErrorCode = "D1002"
	ErrScopeNotActive ErrorCode = "D1003"
	ErrErrorProgram   ErrorCode = "D1004"
	ErrCodeCall       ErrorCode = "D1005"
)

// Fatal source code: the document could not be read at all.
const ErrMalformedSource ErrorCode = "X0001"

// Error represents a structured, positioned error.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Err      error
}

// NewError creates a new error.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}
