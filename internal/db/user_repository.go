package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrUserNotFound = errors.New("user not found")
var ErrEmailExists = errors.New("email already exists")

// User is the credential store record. PasswordHash and the reset fields never
// leave the server; ResetToken and ResetTokenExpiry are either both nil or both
// set.
type User struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     string
	Name             *string
	Image            *string
	ResetToken       *string
	ResetTokenExpiry *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, name, image, reset_token, reset_token_expiry, created_at, updated_at`

// Create inserts a new user. Duplicate emails are rejected by the schema-level
// unique constraint, so two concurrent signups cannot both succeed.
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Image, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailExists
		}
		return err
	}

	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// SetResetToken stores a reset token and its expiry on the user matching email,
// overwriting any previous token. Reports whether a user matched; a miss is not
// an error so callers can stay silent about account existence.
func (r *UserRepository) SetResetToken(ctx context.Context, email, token string, expiry time.Time) (bool, error) {
	query := `
		UPDATE users
		SET reset_token = $1, reset_token_expiry = $2, updated_at = NOW()
		WHERE LOWER(email) = LOWER($3)
	`

	result, err := r.db.ExecContext(ctx, query, token, expiry, email)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// GetByValidResetToken returns the user holding token, provided the token has
// not expired at now. Expired or unknown tokens are indistinguishable.
func (r *UserRepository) GetByValidResetToken(ctx context.Context, token string, now time.Time) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE reset_token = $1 AND reset_token_expiry > $2
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, token, now))
}

// UpdatePassword replaces the password hash and consumes any outstanding reset
// token in the same statement.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, reset_token = NULL, reset_token_expiry = NULL, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateProfile sets the owner-mutable profile attributes.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name, image *string) error {
	query := `
		UPDATE users
		SET name = COALESCE($1, name), image = COALESCE($2, image), updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, name, image, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Image,
		&user.ResetToken, &user.ResetTokenExpiry, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}
