package errors

import "fmt"

// ErrorCode represents a Vellum error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrUnauthenticated    ErrorCode = "UNAUTHENTICATED"     // 401
	ErrInvalidCredentials ErrorCode = "INVALID_CREDENTIALS" // 401
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrAlreadyExists      ErrorCode = "ALREADY_EXISTS"      // 409
	ErrInvalidName        ErrorCode = "INVALID_NAME"        // 422
	ErrConfig             ErrorCode = "CONFIG"              // 500 (fatal at startup)
	ErrIO                 ErrorCode = "IO"                  // 500
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// VellumError represents a structured error with code, status, and details.
type VellumError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *VellumError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *VellumError {
	return &VellumError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnauthenticated creates a 401 error for guarded operations attempted
// by an anonymous session. The message doubles as the flash text.
func NewUnauthenticated() *VellumError {
	return &VellumError{
		Code:    ErrUnauthenticated,
		Status:  401,
		Message: "You must be signed in to do that.",
	}
}

// NewInvalidCredentials creates a 401 error for failed sign-in attempts.
// Unknown usernames and wrong passwords produce the same error.
func NewInvalidCredentials() *VellumError {
	return &VellumError{
		Code:    ErrInvalidCredentials,
		Status:  401,
		Message: "Invalid Credentials",
	}
}

// NewNotFound creates a 404 error for a missing document.
func NewNotFound(name string) *VellumError {
	return &VellumError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s does not exist.", name),
		Details: map[string]any{"name": name},
	}
}

// NewAlreadyExists creates a 409 error for username collisions on signup.
func NewAlreadyExists(username string) *VellumError {
	return &VellumError{
		Code:    ErrAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("Username %q is already taken.", username),
		Details: map[string]any{"username": username},
	}
}

// NewInvalidName creates a 422 error for a filename that fails validation.
// The message carries the exact user-facing wording for the violated rule.
func NewInvalidName(msg string) *VellumError {
	return &VellumError{
		Code:    ErrInvalidName,
		Status:  422,
		Message: msg,
	}
}

// NewConfig creates a 500 error for an unreadable or malformed credential
// or configuration file. Fatal at startup, never produced per-request.
func NewConfig(msg string) *VellumError {
	return &VellumError{
		Code:    ErrConfig,
		Status:  500,
		Message: msg,
	}
}

// NewIO creates a 500 error wrapping an underlying read/write/delete failure.
func NewIO(err error) *VellumError {
	msg := "i/o error"
	if err != nil {
		msg = err.Error()
	}
	return &VellumError{
		Code:    ErrIO,
		Status:  500,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *VellumError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &VellumError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a VellumError with the given code.
func Is(err error, code ErrorCode) bool {
	if vErr, ok := err.(*VellumError); ok {
		return vErr.Code == code
	}
	return false
}
