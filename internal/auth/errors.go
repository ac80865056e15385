package auth

import "github.com/MrJamesThe3rd/tally/internal/apperr"

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials  = apperr.New(apperr.KindUnauthorized, "Invalid username or password")
	ErrCredentialsRequired = apperr.Validation("Username and password are required")
	ErrPasswordTooLong     = apperr.Validation("Password must be at most 72 bytes long")

	ErrTokenMissing = apperr.New(apperr.KindUnauthorized, "Not authorized, no token")
	ErrTokenInvalid = apperr.New(apperr.KindUnauthorized, "Invalid token. Please login again.")
	ErrTokenExpired = apperr.New(apperr.KindUnauthorized, "Token expired. Please login again.")
	ErrUserNotFound = apperr.New(apperr.KindUnauthorized, "User not found")

	ErrPasswordsRequired = apperr.Validation("Current password and new password are required")
	ErrPasswordTooShort  = apperr.Validation("New password must be at least 6 characters long")
	ErrIncorrectPassword = apperr.New(apperr.KindUnauthorized, "Current password is incorrect")
	ErrPasswordUnchanged = apperr.Validation("New password must be different from current password")
)
