package errors

import stdErrors "errors"

// AuthenticationError is returned when the remote service rejects the API token.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return "invalid API token"
	}
	return e.Message
}

// NewAuthenticationError creates an AuthenticationError with the given message.
func NewAuthenticationError(message string) *AuthenticationError {
	return &AuthenticationError{Message: message}
}

// IsAuthenticationError reports whether err is an AuthenticationError (even when wrapped).
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return stdErrors.As(err, &authErr)
}
