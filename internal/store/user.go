package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/notable-app/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, name, role, password_hash, email_verified, otp, email_change_otp, created_at, updated_at`

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	otpJSON, changeJSON, err := marshalSlots(user)
	if err != nil {
		return types.User{}, err
	}

	const query = `
		INSERT INTO users (email, name, role, password_hash, email_verified, otp, email_change_otp, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Email,
		user.Name,
		user.Role,
		user.PasswordHash,
		user.EmailVerified,
		otpJSON,
		changeJSON,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, mapWriteError(err)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	otpJSON, changeJSON, err := marshalSlots(user)
	if err != nil {
		return types.User{}, err
	}

	const query = `
		UPDATE users
		SET email = $1,
			name = $2,
			role = $3,
			password_hash = $4,
			email_verified = $5,
			otp = $6,
			email_change_otp = $7,
			updated_at = $8
		WHERE id = $9`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Email,
		user.Name,
		user.Role,
		user.PasswordHash,
		user.EmailVerified,
		otpJSON,
		changeJSON,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, mapWriteError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY id`
	return r.queryMany(ctx, query)
}

// Search matches the keyword case-insensitively against email or name.
func (r *UserRepository) Search(ctx context.Context, keyword string) ([]types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email ILIKE $1 OR name ILIKE $1
		ORDER BY id`
	return r.queryMany(ctx, query, "%"+keyword+"%")
}

func (r *UserRepository) queryMany(ctx context.Context, query string, args ...any) ([]types.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanOne(row rowScanner) (types.User, error) {
	var user types.User
	var otpJSON, changeJSON []byte
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.PasswordHash,
		&user.EmailVerified,
		&otpJSON,
		&changeJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}

	if len(otpJSON) > 0 {
		user.OTP = &types.OTPChallenge{}
		if err := json.Unmarshal(otpJSON, user.OTP); err != nil {
			return types.User{}, err
		}
	}
	if len(changeJSON) > 0 {
		user.EmailChangeOTP = &types.OTPChallenge{}
		if err := json.Unmarshal(changeJSON, user.EmailChangeOTP); err != nil {
			return types.User{}, err
		}
	}
	return user, nil
}

// marshalSlots encodes the OTP slots for storage; a nil slot becomes a
// SQL NULL.
func marshalSlots(user types.User) ([]byte, []byte, error) {
	var otpJSON, changeJSON []byte
	var err error
	if user.OTP != nil {
		otpJSON, err = json.Marshal(user.OTP)
		if err != nil {
			return nil, nil, err
		}
	}
	if user.EmailChangeOTP != nil {
		changeJSON, err = json.Marshal(user.EmailChangeOTP)
		if err != nil {
			return nil, nil, err
		}
	}
	return otpJSON, changeJSON, nil
}
