package account

import "errors"

var (
	ErrNotFound        = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("account with this email already exists")
	ErrAlreadyVerified = errors.New("account already verified")
	ErrNoPendingCode   = errors.New("no verification code found")
	ErrCodeExpired     = errors.New("verification code has expired")
	ErrCodeMismatch    = errors.New("invalid verification code")

	// ErrInvalidCredentials covers unknown email, missing password hash and
	// hash mismatch alike so that login responses cannot reveal which
	// addresses are registered.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountSuspended is surfaced to the caller even though it reveals
	// the account exists.
	ErrAccountSuspended = errors.New("account suspended")

	// ErrInvalidOrExpiredCode collapses wrong code, expired code and unknown
	// email into one message for the password-reset flow.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired reset code")

	ErrNoPasswordSet    = errors.New("password not set for this account")
	ErrWrongPassword    = errors.New("current password is incorrect")
	ErrSelfStatusChange = errors.New("cannot modify your own account status")
	ErrNotVerified      = errors.New("account is not verified")

	ErrEmptyPassword   = errors.New("password must not be empty")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrPasswordTooWeak = errors.New("password must be at least 8 characters")
)
