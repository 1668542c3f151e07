package model

import "fmt"

// ErrorKind identifies the category of a DomainError so callers can branch
// without string matching
type ErrorKind string

const (
	ErrShiftNotFound      ErrorKind = "shiftNotFound"
	ErrUserNotFound       ErrorKind = "userNotFound"
	ErrAssignmentNotFound ErrorKind = "assignmentNotFound"
	ErrAttendanceNotFound ErrorKind = "attendanceRecordNotFound"
	ErrTemplateNotFound   ErrorKind = "templateNotFound"
	ErrSeasonNotFound     ErrorKind = "seasonNotFound"
	ErrHouseholdNotFound  ErrorKind = "householdNotFound"
	ErrInviteCodeNotFound ErrorKind = "inviteCodeNotFound"
	ErrMessageNotFound    ErrorKind = "messageNotFound"
	ErrUnauthorized       ErrorKind = "unauthorized"
	ErrNetwork            ErrorKind = "networkError"
	ErrOperationFailed    ErrorKind = "operationFailed"
)

// DomainError is a business-rule failure raised by the use cases.
// Not-found and unauthorized conditions propagate unchanged and are never
// retried at this layer.
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any DomainError of the same kind, so tests and callers can use
// errors.Is(err, &DomainError{Kind: ErrShiftNotFound})
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Kind == e.Kind
}

// NewDomainError creates a DomainError with a formatted message
func NewDomainError(kind ErrorKind, format string, args ...any) *DomainError {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates the not-found error for an entity id
func NotFound(kind ErrorKind, id string) *DomainError {
	return &DomainError{Kind: kind, Message: id}
}

// Unauthorized creates an unauthorized error
func Unauthorized(format string, args ...any) *DomainError {
	return NewDomainError(ErrUnauthorized, format, args...)
}

// OperationFailed creates a generic business-rule failure
func OperationFailed(format string, args ...any) *DomainError {
	return NewDomainError(ErrOperationFailed, format, args...)
}

// IsKind reports whether err is a DomainError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		if de, ok := err.(*DomainError); ok {
			return de.Kind == kind
		}
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
