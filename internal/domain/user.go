package domain

import (
	"context"
	"time"
)

// User represents a registered gardener
type User struct {
	ID           int64
	Username     string // Unique username
	Email        string // Unique email address
	PasswordHash string // Bcrypt hashed password (never returned in API)
	CreatedAt    time.Time
}

// UserRepository defines data access for users.
// Create returns ErrConflict when the username or email is taken.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, user *User) error
}

// TokenDenylist remembers revoked refresh tokens by their jti until they expire
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
