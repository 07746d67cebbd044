package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 8
	// bcrypt ignores input past 72 bytes
	maxPasswordBytes = 72
)

// UserStore persists user accounts
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// UserEvents publishes account lifecycle events
type UserEvents interface {
	PublishUserRegistered(ctx context.Context, event *models.UserRegisteredEvent) error
}

// AuthConfig holds token and hashing settings
type AuthConfig struct {
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int
}

// Claims are the JWT claims issued at login
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Token is an issued access token
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthService handles signup, login and token verification
type AuthService struct {
	users   UserStore
	events  UserEvents
	cfg     AuthConfig
	now     func() time.Time
	compare func(hash, password []byte) error
	logger  *zap.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, events UserEvents, cfg AuthConfig) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:   users,
		events:  events,
		cfg:     cfg,
		now:     time.Now,
		compare: bcrypt.CompareHashAndPassword,
		logger:  util.GetLogger(),
	}
}

// Register creates a user with a bcrypt-hashed password
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Register")
	defer span.End()

	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		util.SignupsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		util.SignupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Username: username, PasswordHash: string(hash)}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			util.SignupsTotal.WithLabelValues("duplicate").Inc()
			return nil, ErrUserExists
		}
		util.SignupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	util.SignupsTotal.WithLabelValues("created").Inc()
	s.logger.Info("User registered",
		zap.Int64("user_id", user.UserID),
		zap.String("username", user.Username))

	event := &models.UserRegisteredEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeUserRegistered,
			Timestamp: s.now(),
		},
		UserID:   user.UserID,
		Username: user.Username,
	}
	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		s.logger.Error("Failed to publish UserRegistered event", zap.Error(err))
	}

	return user, nil
}

// Authenticate verifies credentials and issues a signed token valid for
// the configured TTL.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*Token, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Authenticate")
	defer span.End()

	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		// unknown users pay for a hash comparison too
		_ = s.compare(s.unknownUserHash(), []byte(password))
		util.LoginsTotal.WithLabelValues("unknown_user").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		util.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.compare([]byte(user.PasswordHash), []byte(password)); err != nil {
		util.LoginsTotal.WithLabelValues("bad_password").Inc()
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		util.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	util.LoginsTotal.WithLabelValues("success").Inc()
	return token, nil
}

// unknownUserHash returns a hash at the configured cost that no password matches
func (s *AuthService) unknownUserHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), s.cfg.BcryptCost)
		if err != nil {
			s.logger.Error("Failed to generate placeholder hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) issueToken(user *models.User) (*Token, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.TokenTTL)

	claims := Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.FormatInt(user.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Token{Value: signed, ExpiresAt: expiresAt}, nil
}

// ParseToken validates a token's signature, algorithm and expiry
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return s.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

func validateCredentials(username, password string) error {
	n := utf8.RuneCountInString(username)
	switch {
	case n < minUsernameLen || n > maxUsernameLen:
		return fmt.Errorf("%w: username must be %d-%d characters", ErrInvalidInput, minUsernameLen, maxUsernameLen)
	case utf8.RuneCountInString(password) < minPasswordLen:
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	case len(password) > maxPasswordBytes:
		return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordBytes)
	}
	return nil
}
