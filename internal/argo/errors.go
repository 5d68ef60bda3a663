package argo

import "fmt"

// AuthError is the single user-visible failure of the PKCE chain. Any
// network or parse error at any step collapses into one AuthError
// carrying the first diagnostic message; there is no partial success.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

func authErrf(code, format string, args ...interface{}) *AuthError {
	return &AuthError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapAuth(code string, err error) *AuthError {
	if auth, ok := err.(*AuthError); ok {
		return auth
	}
	return &AuthError{Code: code, Message: err.Error()}
}
