// Package verify implements the verification challenge service: short-lived
// numeric codes keyed by email, stored hashed, delivered out of band.
package verify

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	auth "github.com/fractallabs/authkit"
)

const (
	// CodeLength is the number of digits in a verification code.
	CodeLength = 6
	// DefaultCodeTTL is how long a code stays valid unless configured.
	DefaultCodeTTL = 10 * time.Minute
)

// Code is a pending verification challenge for an email address. Codes are
// single use: a consumed or expired code cannot validate twice.
type Code struct {
	bun.BaseModel `bun:"table:verification_codes,alias:vc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	CodeHash      string     `bun:"code_hash,notnull" json:"-"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	ConsumedAt    *time.Time `bun:"consumed_at,nullzero" json:"consumed_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Sender delivers a generated code to its email address.
type Sender interface {
	Send(ctx context.Context, email, code string) error
}

// Service generates and checks verification codes. It satisfies the core's
// ChallengeService contract.
type Service struct {
	db     *bun.DB
	sender Sender
	ttl    time.Duration
	logger auth.Logger
}

var _ auth.ChallengeService = (*Service)(nil)

type Option func(*Service)

// WithCodeTTL overrides the default code lifetime.
func WithCodeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithLogger(logger auth.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns a Service storing codes in db and delivering them via sender.
func New(db *bun.DB, sender Sender, opts ...Option) *Service {
	s := &Service{
		db:     db,
		sender: sender,
		ttl:    DefaultCodeTTL,
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSchema creates the verification_codes table. Intended for sqlite
// deployments and tests.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*Code)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// RequestCode generates a fresh code for the email, invalidating any prior
// pending code, and hands it to the sender. Requesting again is always safe.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	email = auth.NormalizeEmail(email)

	code, err := generateCode()
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to generate verification code")
	}

	record := &Code{
		ID:        uuid.New(),
		Email:     email,
		CodeHash:  hashCode(code),
		ExpiresAt: time.Now().Add(s.ttl),
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Code)(nil)).
			Where("?TableAlias.email = ?", email).
			Exec(ctx); err != nil {
			return err
		}

		_, err := tx.NewInsert().Model(record).Exec(ctx)
		return err
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to store verification code")
	}

	if err := s.sender.Send(ctx, email, code); err != nil {
		return errors.Wrap(err, errors.CategoryExternal, "failed to deliver verification code")
	}

	s.logger.Debug("verification code requested", "email", email)
	return nil
}

// CheckCode validates a code for the email. A match consumes the code; a
// wrong, expired, or already consumed code reports false without error.
func (s *Service) CheckCode(ctx context.Context, email, code string) (bool, error) {
	email = auth.NormalizeEmail(email)

	record := &Code{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Where("?TableAlias.consumed_at IS NULL").
		Where("?TableAlias.expires_at > ?", time.Now()).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to look up verification code")
	}

	if subtle.ConstantTimeCompare([]byte(record.CodeHash), []byte(hashCode(code))) != 1 {
		return false, nil
	}

	now := time.Now()
	res, err := s.db.NewUpdate().
		Model((*Code)(nil)).
		Set("consumed_at = ?", now).
		Where("?TableAlias.id = ?", record.ID).
		Where("?TableAlias.consumed_at IS NULL").
		Exec(ctx)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to consume verification code")
	}

	// A concurrent check may have consumed the code first; only one wins.
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to read affected rows")
	}

	return affected == 1, nil
}

// PurgeExpired removes expired and consumed codes. Suitable for a periodic
// maintenance call.
func (s *Service) PurgeExpired(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*Code)(nil)).
		WhereOr("?TableAlias.expires_at < ?", time.Now()).
		WhereOr("?TableAlias.consumed_at IS NOT NULL").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to purge verification codes")
	}
	return nil
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < CodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", CodeLength, n), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
