package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/observability/metrics"
	"github.com/yourorg/greenthumb/internal/security/auth"
)

const minPasswordLength = 8

// checkPassword bounds a new password; bcrypt refuses input over 72 bytes.
func checkPassword(field, password string) error {
	if len(password) < minPasswordLength {
		return domain.Validationf("%s must be at least %d characters", field, minPasswordLength)
	}
	if len(password) > domain.MaxPasswordBytes {
		return domain.Validationf("%s exceeds %d bytes", field, domain.MaxPasswordBytes)
	}
	return nil
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo domain.UserRepository
	tokens   *auth.TokenManager
	denylist domain.TokenDenylist
	logger   *slog.Logger
	hashCost int
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo domain.UserRepository,
	tokens *auth.TokenManager,
	denylist domain.TokenDenylist,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		denylist: denylist,
		logger:   logger,
		hashCost: bcrypt.DefaultCost,
	}
}

// TokenPair is the result of a successful login
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Register creates a new user account. The plaintext password is never
// stored or returned.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if username == "" || email == "" || password == "" {
		return nil, domain.Validationf("username, email, and password are required")
	}
	if err := domain.CheckLength("username", username, domain.MaxUsernameLength); err != nil {
		return nil, err
	}
	if err := domain.CheckLength("email", email, domain.MaxEmailLength); err != nil {
		return nil, err
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Validationf("email is not a valid address")
	}
	if err := checkPassword("password", password); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: username already exists", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already exists", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: failed to register user", domain.ErrInternal)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}

	// the lookups above race with concurrent registrations; the unique
	// constraints still report ErrConflict here
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login authenticates a user and issues an access and refresh token
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, domain.Validationf("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, nil, err
		}
		metrics.ObserveAuthFailure("login")
		s.logger.Info("login attempt with non-existent email", slog.String("email", email))
		return nil, nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.ObserveAuthFailure("login")
		s.logger.Info("login failed with wrong password", slog.Int64("user_id", user.ID))
		return nil, nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
	}

	access, accessClaims, err := s.tokens.GenerateToken(user.ID, auth.AccessToken)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
	refresh, refreshClaims, err := s.tokens.GenerateToken(user.ID, auth.RefreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}

	s.logger.Info("user logged in", slog.Int64("user_id", user.ID))

	return user, &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshClaims.ExpiresAt.Time,
	}, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new access token
// bound to the same user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.verifyRefresh(ctx, refreshToken)
	if err != nil {
		metrics.ObserveAuthFailure("refresh")
		return "", time.Time{}, err
	}

	if _, err := s.userRepo.GetByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", time.Time{}, fmt.Errorf("%w: account no longer exists", domain.ErrUnauthenticated)
		}
		return "", time.Time{}, err
	}

	access, accessClaims, err := s.tokens.GenerateToken(claims.UserID, auth.AccessToken)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
	return access, accessClaims.ExpiresAt.Time, nil
}

// Logout revokes the refresh token until it would have expired. Missing or
// already invalid tokens need no revocation.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.ValidateToken(refreshToken, auth.RefreshToken)
	if err != nil {
		return nil
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
	s.logger.Info("user logged out", slog.Int64("user_id", claims.UserID))
	return nil
}

func (s *AuthService) verifyRefresh(ctx context.Context, token string) (*auth.Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: refresh token required", domain.ErrUnauthenticated)
	}
	claims, err := s.tokens.ValidateToken(token, auth.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInternal, err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: refresh token revoked", domain.ErrUnauthenticated)
	}
	return claims, nil
}

// ChangePassword changes a user's password
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if err := checkPassword("new password", newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", domain.ErrUnauthenticated)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.String("error", err.Error()))
		return fmt.Errorf("%w: failed to change password", domain.ErrInternal)
	}

	user.PasswordHash = string(hash)
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("failed to update user password", slog.String("error", err.Error()))
		return err
	}

	s.logger.Info("user changed password", slog.Int64("user_id", userID))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
