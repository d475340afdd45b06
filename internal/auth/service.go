package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cinescope/backend/internal/db"
	"github.com/cinescope/backend/internal/mail"
)

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailTaken            = errors.New("email already registered")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrUserNotFound          = errors.New("user not found")
)

// UserStore is the credential-store surface the service depends on. The
// concrete implementation is db.UserRepository; tests inject doubles.
type UserStore interface {
	Create(ctx context.Context, user *db.User) error
	GetByEmail(ctx context.Context, email string) (*db.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*db.User, error)
	SetResetToken(ctx context.Context, email, token string, expiry time.Time) (bool, error)
	GetByValidResetToken(ctx context.Context, token string, now time.Time) (*db.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, name, image *string) error
}

// UserInfo is the public projection of a user. Password material never
// appears here.
type UserInfo struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

func publicUser(user *db.User) *UserInfo {
	return &UserInfo{
		ID:    user.ID.String(),
		Email: user.Email,
		Name:  user.Name,
		Image: user.Image,
	}
}

type Service struct {
	store      UserStore
	mailer     mail.Sender
	tokens     *Tokens
	bcryptCost int
	baseURL    string
}

func NewService(store UserStore, mailer mail.Sender, tokens *Tokens, bcryptCost int, baseURL string) *Service {
	return &Service{
		store:      store,
		mailer:     mailer,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		baseURL:    baseURL,
	}
}

// Signup creates an account. The duplicate-email check rides on the store's
// unique constraint, so concurrent signups for the same address cannot race
// past each other.
func (s *Service) Signup(ctx context.Context, email, password string, name, image *string) (*UserInfo, error) {
	passwordHash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &db.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Image:        image,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return publicUser(user), nil
}

// Login verifies credentials and issues a session token. An unknown email and
// a wrong password fail identically so the response never reveals which
// addresses are registered.
func (s *Service) Login(ctx context.Context, email, password string) (*UserInfo, string, error) {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.IssueSessionToken(user.ID.String())
	if err != nil {
		return nil, "", err
	}

	return publicUser(user), token, nil
}

// ForgotPassword issues a reset token for email, overwriting any prior token
// for that account, and mails the reset link. When no account matches nothing
// is stored or sent; callers respond identically either way.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	token, err := GenerateResetToken()
	if err != nil {
		return err
	}

	expiry := time.Now().Add(ResetTokenExpiry)
	matched, err := s.store.SetResetToken(ctx, email, token, expiry)
	if err != nil {
		return err
	}
	if !matched {
		return nil
	}

	subject, body := mail.ResetEmail(s.baseURL, token)
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	return nil
}

// ResetPassword consumes a reset token: the new hash is written and both reset
// fields cleared in one update, so the token cannot be replayed.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.store.GetByValidResetToken(ctx, token, time.Now())
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}

	passwordHash, err := HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.store.UpdatePassword(ctx, user.ID, passwordHash)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*UserInfo, error) {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return publicUser(user), nil
}

// UpdateProfile mutates the owner-editable attributes and returns the updated
// public projection.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, name, image *string) (*UserInfo, error) {
	if err := s.store.UpdateProfile(ctx, id, name, image); err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// Tokens exposes the token verifier for middleware that needs to validate
// sessions without going through a flow.
func (s *Service) Tokens() *Tokens {
	return s.tokens
}
