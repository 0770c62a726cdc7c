package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Logger is the minimal structured logging contract: a message followed by
// alternating key/value pairs, slog style.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetEnvironment() string
}

// IdentityStore is the credential store contract the core consumes. The
// concrete implementation lives in repo_users.go; tests substitute fakes.
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// UpsertOrRestore creates the identity, or restores a soft-deleted row
	// holding the same email: restore, deactivate unless the incoming record
	// is an admin, then apply attribute updates. One transaction, never a
	// duplicate email row.
	UpsertOrRestore(ctx context.Context, record *User) (*User, error)
	SetActivated(ctx context.Context, id uuid.UUID, activated bool) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ChallengeService generates and validates one-time codes delivered out of
// band. The core treats codes as an opaque pass/fail check.
type ChallengeService interface {
	RequestCode(ctx context.Context, email string) error
	CheckCode(ctx context.Context, email, code string) (bool, error)
}

// TokenService mints and validates signed access/refresh tokens.
type TokenService interface {
	Issue(identityID string, scope ScopeSet) (*TokenPair, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
	Validate(tokenString string) (*TokenClaims, error)
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) { logLine("ERR", msg, args) }

func (d defLogger) Warn(msg string, args ...any) { logLine("WRN", msg, args) }

func (d defLogger) Info(msg string, args ...any) { logLine("INF", msg, args) }

func (d defLogger) Debug(msg string, args ...any) { logLine("DBG", msg, args) }

func logLine(level, msg string, args []any) {
	fmt.Println(append([]any{"[" + level + "] AUTH " + msg}, args...)...)
}
