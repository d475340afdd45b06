package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cinescope/backend/internal/db"
)

// fakeStore is an in-memory UserStore double.
type fakeStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*db.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[uuid.UUID]*db.User{}}
}

func (s *fakeStore) Create(_ context.Context, user *db.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return db.ErrEmailExists
		}
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *fakeStore) GetByEmail(_ context.Context, email string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, db.ErrUserNotFound
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, db.ErrUserNotFound
}

func (s *fakeStore) SetResetToken(_ context.Context, email, token string, expiry time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			u.ResetToken = &token
			u.ResetTokenExpiry = &expiry
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) GetByValidResetToken(_ context.Context, token string, now time.Time) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ResetToken != nil && *u.ResetToken == token && u.ResetTokenExpiry.After(now) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, db.ErrUserNotFound
}

func (s *fakeStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return db.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
	return nil
}

func (s *fakeStore) UpdateProfile(_ context.Context, id uuid.UUID, name, image *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return db.ErrUserNotFound
	}
	if name != nil {
		u.Name = name
	}
	if image != nil {
		u.Image = image
	}
	return nil
}

// fakeMailer records sent messages.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) sentTo(to string) []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMail
	for _, s := range m.sent {
		if s.to == to {
			out = append(out, s)
		}
	}
	return out
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeMailer) {
	t.Helper()
	store := newFakeStore()
	mailer := &fakeMailer{}
	svc := NewService(store, mailer, NewTokens("test-secret"), bcrypt.MinCost, "http://localhost:3000")
	return svc, store, mailer
}

func TestSignupStoresHashNotPlaintext(t *testing.T) {
	svc, store, _ := newTestService(t)

	user, err := svc.Signup(context.Background(), "a@b.com", "secret1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)

	stored, err := store.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.True(t, CheckPassword("secret1", stored.PasswordHash))
}

func TestSignupSamePasswordDifferentHashes(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.Signup(context.Background(), "a@b.com", "secret1", nil, nil)
	require.NoError(t, err)
	_, err = svc.Signup(context.Background(), "c@d.com", "secret1", nil, nil)
	require.NoError(t, err)

	first, err := store.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	second, err := store.GetByEmail(context.Background(), "c@d.com")
	require.NoError(t, err)
	assert.NotEqual(t, first.PasswordHash, second.PasswordHash)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Signup(context.Background(), "a@b.com", "secret1", nil, nil)
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), "a@b.com", "other-password", nil, nil)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginUnknownEmailAndWrongPasswordIndistinguishable(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Signup(context.Background(), "a@b.com", "secret1", nil, nil)
	require.NoError(t, err)

	_, _, errUnknown := svc.Login(context.Background(), "nobody@b.com", "secret1")
	_, _, errWrong := svc.Login(context.Background(), "a@b.com", "wrong")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.Signup(context.Background(), "a@b.com", "secret1", nil, nil)
	require.NoError(t, err)

	user, token, err := svc.Login(context.Background(), "a@b.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)

	subject, err := svc.Tokens().VerifySessionToken(token)
	require.NoError(t, err)

	stored, err := store.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, stored.ID.String(), subject)
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	svc, _, mailer := newTestService(t)

	err := svc.ForgotPassword(context.Background(), "nobody@b.com")
	require.NoError(t, err)
	assert.Empty(t, mailer.sent)
}

func TestForgotPasswordStoresTokenAndSendsLink(t *testing.T) {
	svc, store, mailer := newTestService(t)

	_, err := svc.Signup(context.Background(), "a@b.com", "secret1", nil, nil)
	require.NoError(t, err)

	before := time.Now()
	require.NoError(t, svc.ForgotPassword(context.Background(), "a@b.com"))

	stored, err := store.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, stored.ResetToken)
	require.NotNil(t, stored.ResetTokenExpiry)
	assert.WithinDuration(t, before.Add(ResetTokenExpiry), *stored.ResetTokenExpiry, 5*time.Second)

	sent := mailer.sentTo("a@b.com")
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].body, "http://localhost:3000/reset-password?token="+*stored.ResetToken)
}

func TestForgotPasswordOverwritesPriorToken(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.Signup(context.Background(), "a@b.com", "secret1", nil, nil)
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(context.Background(), "a@b.com"))
	first, err := store.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(context.Background(), "a@b.com"))
	second, err := store.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)

	assert.NotEqual(t, *first.ResetToken, *second.ResetToken)

	// only the latest token is valid
	err = svc.ResetPassword(context.Background(), *first.ResetToken, "newsecret")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	assert.NoError(t, svc.ResetPassword(context.Background(), *second.ResetToken, "newsecret"))
}

func TestResetPasswordConsumesToken(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.Signup(context.Background(), "a@b.com", "secret1", nil, nil)
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(context.Background(), "a@b.com"))

	stored, err := store.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	token := *stored.ResetToken

	require.NoError(t, svc.ResetPassword(context.Background(), token, "newsecret"))

	// new password works, reset fields cleared
	_, _, err = svc.Login(context.Background(), "a@b.com", "newsecret")
	assert.NoError(t, err)
	_, _, err = svc.Login(context.Background(), "a@b.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	after, err := store.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Nil(t, after.ResetToken)
	assert.Nil(t, after.ResetTokenExpiry)

	// second use of the same token fails
	err = svc.ResetPassword(context.Background(), token, "another1")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.Signup(context.Background(), "a@b.com", "secret1", nil, nil)
	require.NoError(t, err)

	// token expired one second ago
	_, err = store.SetResetToken(context.Background(), "a@b.com", "expired-token", time.Now().Add(-time.Second))
	require.NoError(t, err)

	err = svc.ResetPassword(context.Background(), "expired-token", "newsecret")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestUpdateProfile(t *testing.T) {
	svc, store, _ := newTestService(t)

	created, err := svc.Signup(context.Background(), "a@b.com", "secret1", nil, nil)
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	name := "Ada"
	updated, err := svc.UpdateProfile(context.Background(), id, &name, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.Name)
	assert.Equal(t, "Ada", *updated.Name)
	assert.Nil(t, updated.Image)

	stored, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, stored.Name)
	assert.Equal(t, "Ada", *stored.Name)
}
