package auth

import "errors"

// Sentinel errors returned by Service. The HTTP layer maps them to status
// codes; anything wrapped in ErrInternal is logged and rendered opaquely.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrUserNotFound       = errors.New("phone number not found")
	ErrOTPExpired         = errors.New("verification code expired")
	ErrAttemptsExceeded   = errors.New("too many failed verification attempts")
	ErrInvalidCode        = errors.New("verification code is incorrect")
	ErrInternal           = errors.New("internal error")
)
