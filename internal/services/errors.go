package services

import "errors"

var (
	// ErrWrongCredentials is returned when login fails, without
	// revealing whether the email exists.
	ErrWrongCredentials = errors.New("invalid email or password")

	// ErrWrongPassword is returned when a password change supplies the
	// wrong current password.
	ErrWrongPassword = errors.New("current password is incorrect")

	// ErrVerificationRequired is returned on login when the account's
	// email has not been verified yet. A fresh OTP has been issued by
	// the time this is returned.
	ErrVerificationRequired = errors.New("email verification required")

	// ErrAlreadyVerified is returned when an OTP registration step is
	// attempted on an already-verified account.
	ErrAlreadyVerified = errors.New("email is already verified")

	// ErrInvalidTagReference is returned when a note write references a
	// tag that does not exist or belongs to another user.
	ErrInvalidTagReference = errors.New("one or more tags not found or do not belong to this user")
)
