package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserStore struct {
	users  map[string]*models.User
	nextID int64
	err    error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *models.User) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[user.Username]; ok {
		return fmt.Errorf("username %q: %w", user.Username, store.ErrDuplicate)
	}
	f.nextID++
	user.UserID = f.nextID
	stored := *user
	f.users[user.Username] = &stored
	return nil
}

func (f *fakeUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

type fakeUserEvents struct {
	events []*models.UserRegisteredEvent
}

func (f *fakeUserEvents) PublishUserRegistered(_ context.Context, e *models.UserRegisteredEvent) error {
	f.events = append(f.events, e)
	return nil
}

func newAuthService() (*AuthService, *fakeUserStore, *fakeUserEvents) {
	users := newFakeUserStore()
	events := &fakeUserEvents{}
	svc := NewAuthService(users, events, AuthConfig{
		Secret:     []byte("test-secret"),
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	return svc, users, events
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, users, events := newAuthService()

	user, err := svc.Register(context.Background(), "  alice ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	stored := users.users["alice"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "correct horse", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct horse")))

	require.Len(t, events.events, 1)
	assert.Equal(t, user.UserID, events.events[0].UserID)
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _, _ := newAuthService()

	_, err := svc.Register(context.Background(), "alice", "correct horse")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alice", "another password")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newAuthService()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "correct horse"},
		{"short username", "ab", "correct horse"},
		{"short password", "alice", "short"},
		{"long password", "alice", strings.Repeat("x", 73)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.password)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegisterStoreFailure(t *testing.T) {
	svc, users, _ := newAuthService()
	users.err = errors.New("connection reset")

	_, err := svc.Register(context.Background(), "alice", "correct horse")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrUserExists)
}

func TestAuthenticateIssuesToken(t *testing.T) {
	svc, _, _ := newAuthService()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	user, err := svc.Register(context.Background(), "alice", "correct horse")
	require.NoError(t, err)

	token, err := svc.Authenticate(context.Background(), "alice", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), token.ExpiresAt)

	claims, err := svc.ParseToken(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, fmt.Sprint(user.UserID), claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestAuthenticateFailures(t *testing.T) {
	svc, _, _ := newAuthService()
	_, err := svc.Register(context.Background(), "alice", "correct horse")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "alice", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "bob", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownUserComparesHash(t *testing.T) {
	svc, _, _ := newAuthService()
	var hashes [][]byte
	svc.compare = func(hash, password []byte) error {
		hashes = append(hashes, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	_, err := svc.Authenticate(context.Background(), "nobody", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	require.Len(t, hashes, 1)

	cost, err := bcrypt.Cost(hashes[0])
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	svc, _, _ := newAuthService()
	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }

	_, err := svc.Register(context.Background(), "alice", "correct horse")
	require.NoError(t, err)
	token, err := svc.Authenticate(context.Background(), "alice", "correct horse")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ParseToken(token.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	svc, _, _ := newAuthService()

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: "mallory",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = svc.ParseToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
