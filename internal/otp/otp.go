// Package otp issues and validates the short-lived numeric codes used
// to prove control of an email address. A user carries at most one
// pending code per slot: registration, login gating, and password
// reset share one slot, email changes use a second one. Issuing a new
// code overwrites whatever was pending in that slot.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/notable-app/apiserver/types"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 5 * time.Minute

var (
	// ErrNoChallenge is returned when validating against an empty slot.
	ErrNoChallenge = errors.New("no pending verification code")

	// ErrExpired is returned when the code's expiry has passed.
	ErrExpired = errors.New("verification code has expired")

	// ErrMismatch is returned when the supplied code is wrong.
	ErrMismatch = errors.New("invalid verification code")
)

const (
	codeMin  = 100000
	codeSpan = 900000
)

// GenerateCode returns a 6-digit decimal code, uniform over
// [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", codeMin+n.Int64()), nil
}

// NewChallenge issues a fresh challenge expiring ttl from now.
// newEmail is only set for email-change challenges, where it carries
// the address being switched to.
func NewChallenge(newEmail string, now time.Time, ttl time.Duration) (*types.OTPChallenge, error) {
	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}
	return &types.OTPChallenge{
		Code:      code,
		NewEmail:  newEmail,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Verified:  false,
	}, nil
}

// Validate checks code against the pending challenge. On success the
// challenge is marked verified; the slot is not cleared here, that is
// the caller's decision. A failed validation never mutates the
// challenge. Expiry is checked before the code, so an expired slot
// reports ErrExpired even for a correct code.
func Validate(ch *types.OTPChallenge, code string, now time.Time) error {
	if ch == nil || ch.Code == "" {
		return ErrNoChallenge
	}
	if now.After(ch.ExpiresAt) {
		return ErrExpired
	}
	if ch.Code != code {
		return ErrMismatch
	}
	ch.Verified = true
	return nil
}
