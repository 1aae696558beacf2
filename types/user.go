package types

import "time"

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account in the system.
// It contains identity, verification state, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Email is the user's unique email address, stored lower-cased and trimmed.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Role indicates the user's authorization level or role
	// within the system (e.g., "admin", "user").
	Role string `json:"role" db:"role"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// EmailVerified is true once a registration OTP has been consumed
	// for this account.
	EmailVerified bool `json:"is_email_verified" db:"email_verified"`

	// OTP is the pending one-time code for registration, login gating,
	// and password reset. The three purposes share this single slot;
	// issuing a new code overwrites whatever was pending.
	OTP *OTPChallenge `json:"-" db:"otp"`

	// EmailChangeOTP is the pending one-time code for an email change,
	// carrying the address being switched to.
	EmailChangeOTP *OTPChallenge `json:"-" db:"email_change_otp"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// OTPChallenge is an issued one-time code with its expiry and
// verification status.
type OTPChallenge struct {
	Code      string    `json:"code"`
	NewEmail  string    `json:"new_email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Verified  bool      `json:"verified"`
}
