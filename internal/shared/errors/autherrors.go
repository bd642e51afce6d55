package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Authentication-specific error types
const (
	ErrorTypeInvalidCredentials ErrorType = "invalid_credentials"
	ErrorTypeTokenExpired       ErrorType = "token_expired"
	ErrorTypeTokenInvalid       ErrorType = "token_invalid"
	ErrorTypeSessionExpired     ErrorType = "session_expired"
	ErrorTypeDeviceInactive     ErrorType = "device_inactive"
)

// Authentication wire codes.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeMissingToken       = "MISSING_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenInvalid       = "INVALID_TOKEN"
	CodeSessionExpired     = "SESSION_EXPIRED"
	CodeUserExists         = "USER_EXISTS"
	CodeDeviceInactive     = "DEVICE_INACTIVE"
)

// AuthError represents authentication-specific errors with enhanced security context
type AuthError struct {
	*AppError
	// ShouldLog determines if this error should be logged.
	// Expected failures (wrong password, routine expiry) stay out of the logs.
	ShouldLog bool
	// SecurityEvent indicates if this should be tracked as a security event
	SecurityEvent bool
}

// Error implements the error interface
func (e *AuthError) Error() string {
	return e.AppError.Error()
}

// Unwrap allows errors.Is and errors.As to work correctly
func (e *AuthError) Unwrap() error {
	return e.AppError
}

// NewInvalidCredentialsError creates an error for invalid login credentials.
// The message never reveals whether the email or the password was wrong.
func NewInvalidCredentialsError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:     ErrorTypeInvalidCredentials,
			Message:  "Invalid email or password",
			Code:     http.StatusUnauthorized,
			WireCode: CodeInvalidCredentials,
		},
		ShouldLog:     false,
		SecurityEvent: true, // track for brute force detection
	}
}

// NewMissingTokenError creates an error for requests with no bearer token.
func NewMissingTokenError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:     ErrorTypeUnauthorized,
			Message:  "Authentication required",
			Code:     http.StatusUnauthorized,
			WireCode: CodeMissingToken,
		},
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// NewTokenExpiredError creates an error for expired tokens (access or refresh).
func NewTokenExpiredError(tokenType string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:     ErrorTypeTokenExpired,
			Message:  fmt.Sprintf("%s has expired", tokenType),
			Code:     http.StatusUnauthorized,
			WireCode: CodeTokenExpired,
			Details:  "Please login again",
		},
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// NewTokenInvalidError creates an error for invalid or revoked tokens.
func NewTokenInvalidError(tokenType string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:     ErrorTypeTokenInvalid,
			Message:  fmt.Sprintf("Invalid %s", tokenType),
			Code:     http.StatusUnauthorized,
			WireCode: CodeTokenInvalid,
			Details:  "Token is invalid or has been revoked",
		},
		ShouldLog:     true, // may indicate tampering
		SecurityEvent: true,
	}
}

// NewSessionExpiredError creates an error for expired or rotated-away sessions.
func NewSessionExpiredError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:     ErrorTypeSessionExpired,
			Message:  "Session has expired",
			Code:     http.StatusUnauthorized,
			WireCode: CodeSessionExpired,
			Details:  "Please login again",
		},
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// NewUserExistsError creates an error for registration with a taken email.
func NewUserExistsError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:     ErrorTypeConflict,
			Message:  "An account with this email already exists",
			Code:     http.StatusConflict,
			WireCode: CodeUserExists,
		},
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// NewDeviceInactiveError creates an error for tokens bound to a deactivated device.
func NewDeviceInactiveError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:     ErrorTypeDeviceInactive,
			Message:  "Device has been deactivated",
			Code:     http.StatusUnauthorized,
			WireCode: CodeDeviceInactive,
			Details:  "Please login again from this device",
		},
		ShouldLog:     true,
		SecurityEvent: true,
	}
}

// IsAuthError checks if the error is an AuthError (supports wrapped errors via errors.As)
func IsAuthError(err error) bool {
	var authErr *AuthError
	return stderrors.As(err, &authErr)
}

// GetAuthError extracts AuthError from error chain (supports wrapped errors via errors.As)
func GetAuthError(err error) *AuthError {
	var authErr *AuthError
	if stderrors.As(err, &authErr) {
		return authErr
	}
	return nil
}

// ShouldLogAuthError returns true if the authentication error should be logged.
func ShouldLogAuthError(err error) bool {
	if authErr := GetAuthError(err); authErr != nil {
		return authErr.ShouldLog
	}
	return true
}

// IsSecurityEvent returns true if the error should be tracked as a security event
func IsSecurityEvent(err error) bool {
	if authErr := GetAuthError(err); authErr != nil {
		return authErr.SecurityEvent
	}
	return false
}
