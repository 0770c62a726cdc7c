package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	auth "github.com/fractallabs/authkit"
)

// testConfig implements auth.Config with per-test values.
type testConfig struct {
	signingKey  string
	issuer      string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	environment string
}

func newTestConfig() testConfig {
	return testConfig{
		signingKey:  "test-signing-key",
		issuer:      "test-issuer",
		accessTTL:   time.Hour,
		refreshTTL:  24 * time.Hour,
		environment: "production",
	}
}

func (c testConfig) GetSigningKey() string             { return c.signingKey }
func (c testConfig) GetIssuer() string                 { return c.issuer }
func (c testConfig) GetAccessTokenTTL() time.Duration  { return c.accessTTL }
func (c testConfig) GetRefreshTokenTTL() time.Duration { return c.refreshTTL }
func (c testConfig) GetEnvironment() string            { return c.environment }

// memStore is an in-memory auth.IdentityStore with the same soft-delete
// and restore semantics as the bun-backed repository.
type memStore struct {
	mu    sync.Mutex
	users map[string]*auth.User // keyed by normalized email, soft-deleted included
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*auth.User{}}
}

var _ auth.IdentityStore = (*memStore)(nil)

func (s *memStore) seed(user *auth.User) *auth.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = auth.NormalizeEmail(user.Email)
	s.users[user.Email] = user
	return user
}

func (s *memStore) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[auth.NormalizeEmail(email)]
	if !ok || user.DeletedAt != nil {
		return nil, auth.ErrIdentityNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *memStore) FindByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == id && user.DeletedAt == nil {
			clone := *user
			return &clone, nil
		}
	}
	return nil, auth.ErrIdentityNotFound
}

func (s *memStore) UpsertOrRestore(_ context.Context, record *auth.User) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.Email = auth.NormalizeEmail(record.Email)
	existing, ok := s.users[record.Email]

	if !ok {
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		clone := *record
		s.users[record.Email] = &clone
		return record, nil
	}

	if existing.DeletedAt == nil {
		return nil, auth.ErrIdentityExists
	}

	existing.DeletedAt = nil
	existing.Activated = existing.Activated && record.IsAdmin
	existing.PasswordHash = record.PasswordHash
	existing.FirstName = record.FirstName
	existing.LastName = record.LastName
	existing.IsAdmin = record.IsAdmin

	record.ID = existing.ID
	record.Activated = existing.Activated
	return record, nil
}

func (s *memStore) SetActivated(_ context.Context, id uuid.UUID, activated bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == id && user.DeletedAt == nil {
			user.Activated = activated
			return nil
		}
	}
	return auth.ErrIdentityNotFound
}

func (s *memStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == id && user.DeletedAt == nil {
			user.PasswordHash = passwordHash
			return nil
		}
	}
	return auth.ErrIdentityNotFound
}

func (s *memStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == id && user.DeletedAt == nil {
			now := time.Now()
			user.DeletedAt = &now
			return nil
		}
	}
	return auth.ErrIdentityNotFound
}

// raw returns the stored record, soft-deleted or not, for assertions.
func (s *memStore) raw(email string) *auth.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[auth.NormalizeEmail(email)]
}

// MockChallenge implements auth.ChallengeService for testing
type MockChallenge struct {
	mock.Mock
}

var _ auth.ChallengeService = (*MockChallenge)(nil)

func (m *MockChallenge) RequestCode(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockChallenge) CheckCode(ctx context.Context, email, code string) (bool, error) {
	args := m.Called(ctx, email, code)
	return args.Bool(0), args.Error(1)
}
