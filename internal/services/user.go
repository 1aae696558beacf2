package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/notable-app/apiserver/internal/notify"
	"github.com/notable-app/apiserver/internal/otp"
	"github.com/notable-app/apiserver/internal/store"
	"github.com/notable-app/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context) ([]types.User, error)
	Search(ctx context.Context, keyword string) ([]types.User, error)
}

// UserService encapsulates user accounts and the OTP verification
// flows: registration, login gating, password reset, and email change.
type UserService struct {
	repo     UserRepository
	notifier *notify.Notifier
	otpTTL   time.Duration
	now      func() time.Time
}

func NewUserService(repo UserRepository, notifier *notify.Notifier) *UserService {
	return &UserService{
		repo:     repo,
		notifier: notifier,
		otpTTL:   otp.DefaultTTL,
		now:      time.Now,
	}
}

// NormalizeEmail lower-cases and trims an email address; all lookups
// and writes go through this so the unique index works
// case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// InitiateRegister starts registration for an email address: it
// creates an unverified account (or reuses an existing unverified
// one), issues an OTP, and emails the code. A verified account with
// the same email is a conflict.
func (s *UserService) InitiateRegister(ctx context.Context, email, name string) (types.User, error) {
	email = NormalizeEmail(email)

	user, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.EmailVerified {
			return types.User{}, store.ErrConflict
		}
		// Unverified leftover from an earlier attempt: reuse the row
		// and overwrite its pending code.
		if name != "" {
			user.Name = name
		}
	case errors.Is(err, store.ErrNotFound):
		user = types.User{
			Email: email,
			Name:  name,
			Role:  types.RoleUser,
		}
		user, err = s.repo.Create(ctx, user)
		if err != nil {
			return types.User{}, err
		}
	default:
		return types.User{}, err
	}

	return s.issueOTP(ctx, user)
}

// VerifyRegister consumes the registration OTP, sets the account
// password, and marks the email verified. The consumed slot is
// cleared.
func (s *UserService) VerifyRegister(ctx context.Context, email, code, password, name string) (types.User, error) {
	email = NormalizeEmail(email)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return types.User{}, err
	}
	if user.EmailVerified {
		return types.User{}, ErrAlreadyVerified
	}

	if err := otp.Validate(user.OTP, code, s.now()); err != nil {
		return types.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	user.PasswordHash = string(hashed)
	user.EmailVerified = true
	user.OTP = nil
	if name != "" {
		user.Name = name
	}

	user, err = s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, err
	}

	s.notifier.Welcome(ctx, user.Email, user.Name)
	return user, nil
}

// ResendOTP reissues the registration OTP, overwriting the pending one.
func (s *UserService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	_, err = s.issueOTP(ctx, user)
	return err
}

// Login authenticates by email and password. An unverified account
// gets a fresh OTP and ErrVerificationRequired instead of a session.
func (s *UserService) Login(ctx context.Context, email, password string) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrWrongCredentials
		}
		return types.User{}, err
	}

	if !user.EmailVerified {
		if _, err := s.issueOTP(ctx, user); err != nil {
			return types.User{}, err
		}
		return types.User{}, ErrVerificationRequired
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrWrongCredentials
	}

	s.notifier.LoginAlert(ctx, user.Email, user.Name)
	return user, nil
}

// ForgotPassword issues a password-reset OTP. It shares the slot used
// by registration and login gating, so issuing it clobbers any code
// pending there; last issued wins.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}

	_, err = s.issueOTP(ctx, user)
	return err
}

// ResetPassword consumes the reset OTP and sets a new password. The
// consumed challenge stays on the record with verified set, unlike the
// registration flow which clears it.
func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}

	if err := otp.Validate(user.OTP, code, s.now()); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashed)

	if _, err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	s.notifier.PasswordResetSuccess(ctx, user.Email, user.Name)
	return nil
}

// InitiateEmailChange issues an OTP to the address the user wants to
// switch to. The pending address travels with the challenge.
func (s *UserService) InitiateEmailChange(ctx context.Context, userID int, newEmail string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	newEmail = NormalizeEmail(newEmail)
	if _, err := s.repo.GetByEmail(ctx, newEmail); err == nil {
		return store.ErrConflict
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	challenge, err := otp.NewChallenge(newEmail, s.now(), s.otpTTL)
	if err != nil {
		return err
	}
	user.EmailChangeOTP = challenge

	if _, err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	s.notifier.OTPCode(ctx, newEmail, challenge.Code)
	return nil
}

// VerifyEmailChange consumes the email-change OTP and swaps the
// account email. Both the old and the new address are notified.
func (s *UserService) VerifyEmailChange(ctx context.Context, userID int, code string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return types.User{}, err
	}

	if err := otp.Validate(user.EmailChangeOTP, code, s.now()); err != nil {
		return types.User{}, err
	}

	oldEmail := user.Email
	user.Email = user.EmailChangeOTP.NewEmail
	user.EmailChangeOTP = nil

	user, err = s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, err
	}

	s.notifier.EmailChanged(ctx, oldEmail, user.Email, user.Name)
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Search(ctx context.Context, keyword string) ([]types.User, error) {
	return s.repo.Search(ctx, keyword)
}

// UserUpdate carries the optional fields of a profile update. A nil
// field is left unchanged. An invalid role is skipped rather than
// rejected.
type UserUpdate struct {
	Email *string
	Name  *string
	Role  *string
}

// Update applies a partial profile update and sends a profile-update
// notification.
func (s *UserService) Update(ctx context.Context, id int, update UserUpdate) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	if update.Email != nil && *update.Email != "" {
		user.Email = NormalizeEmail(*update.Email)
	}
	if update.Name != nil && *update.Name != "" {
		user.Name = *update.Name
	}
	if update.Role != nil && validRole(*update.Role) {
		user.Role = *update.Role
	}

	user, err = s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, err
	}

	s.notifier.ProfileUpdated(ctx, user.Email, user.Name)
	return user, nil
}

// UpdateRole sets the user's role.
func (s *UserService) UpdateRole(ctx context.Context, id int, role string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	user.Role = role
	return s.repo.Update(ctx, user)
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, id int, currentPassword, newPassword string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashed)

	_, err = s.repo.Update(ctx, user)
	return err
}

// Delete removes the account and notifies the deleted user, naming the
// acting administrator.
func (s *UserService) Delete(ctx context.Context, id int, adminName string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.notifier.AccountDeleted(ctx, user.Email, user.Name, adminName)
	return nil
}

// issueOTP attaches a fresh registration/login/reset challenge to the
// user, persists it, and emails the code. Overwrites any pending
// challenge in the shared slot.
func (s *UserService) issueOTP(ctx context.Context, user types.User) (types.User, error) {
	challenge, err := otp.NewChallenge("", s.now(), s.otpTTL)
	if err != nil {
		return types.User{}, err
	}
	user.OTP = challenge

	user, err = s.repo.Update(ctx, user)
	if err != nil {
		return types.User{}, err
	}

	s.notifier.OTPCode(ctx, user.Email, challenge.Code)
	return user, nil
}

func validRole(role string) bool {
	return role == types.RoleUser || role == types.RoleAdmin
}
