package auth

import "net/http"

// Error is a coded auth failure with a fixed user-facing message.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string { return e.Message }

var (
	ErrEmailInUse      = &Error{"email-already-in-use", "An account with this email already exists.", http.StatusConflict}
	ErrInvalidEmail    = &Error{"invalid-email", "Please enter a valid email address.", http.StatusBadRequest}
	ErrWeakPassword    = &Error{"weak-password", "Password must be at least 6 characters.", http.StatusBadRequest}
	ErrUserNotFound    = &Error{"user-not-found", "No account found with this email.", http.StatusNotFound}
	ErrWrongPassword   = &Error{"wrong-password", "Incorrect password. Please try again.", http.StatusUnauthorized}
	ErrTooManyRequests = &Error{"too-many-requests", "Too many failed attempts. Please try again later.", http.StatusTooManyRequests}
	ErrInvalidCode     = &Error{"invalid-code", "That code is not correct.", http.StatusBadRequest}
	ErrExpiredCode     = &Error{"expired-code", "That code has expired. Please request a new one.", http.StatusBadRequest}
)
