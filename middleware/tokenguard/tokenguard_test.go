package tokenguard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/fractallabs/authkit"
	"github.com/fractallabs/authkit/middleware/tokenguard"
)

type staticConfig struct {
	accessTTL time.Duration
}

func (c staticConfig) GetSigningKey() string { return "guard-test-key" }
func (c staticConfig) GetIssuer() string     { return "guard-test" }
func (c staticConfig) GetAccessTokenTTL() time.Duration {
	if c.accessTTL != 0 {
		return c.accessTTL
	}
	return time.Hour
}
func (c staticConfig) GetRefreshTokenTTL() time.Duration { return 24 * time.Hour }
func (c staticConfig) GetEnvironment() string            { return "production" }

// memStore holds a fixed set of users keyed by id.
type memStore struct {
	users map[uuid.UUID]*auth.User
}

func (s *memStore) FindByEmail(context.Context, string) (*auth.User, error) {
	return nil, auth.ErrIdentityNotFound
}

func (s *memStore) FindByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, auth.ErrIdentityNotFound
	}
	return user, nil
}

func (s *memStore) UpsertOrRestore(_ context.Context, record *auth.User) (*auth.User, error) {
	return record, nil
}

func (s *memStore) SetActivated(context.Context, uuid.UUID, bool) error { return nil }

func (s *memStore) UpdatePassword(context.Context, uuid.UUID, string) error { return nil }

func (s *memStore) Delete(context.Context, uuid.UUID) error { return nil }

type fixture struct {
	app    *fiber.App
	store  *memStore
	tokens *auth.TokenServiceImpl
	user   *auth.User
}

func newFixture(t *testing.T, policy auth.ActivationPolicy, required ...auth.Scope) *fixture {
	t.Helper()

	user := &auth.User{ID: uuid.New(), Email: "peter@test.com", Activated: true}
	store := &memStore{users: map[uuid.UUID]*auth.User{user.ID: user}}
	tokens := auth.NewTokenService(store, staticConfig{}, nil)

	guard := tokenguard.New(tokenguard.Config{
		Tokens: tokens,
		Store:  store,
		Policy: policy,
	})

	app := fiber.New()
	app.Get("/protected", guard.Protect(required...), func(c *fiber.Ctx) error {
		claims, ok := auth.ClaimsFromFiber(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		if _, ok := auth.GetClaims(c.UserContext()); !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"uid": claims.UserID()})
	})

	return &fixture{app: app, store: store, tokens: tokens, user: user}
}

func (f *fixture) request(t *testing.T, token string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func (f *fixture) issue(t *testing.T, scope auth.ScopeSet) string {
	t.Helper()
	pair, err := f.tokens.Issue(f.user.ID.String(), scope)
	require.NoError(t, err)
	return pair.AccessToken
}

func TestGuardRejectsMissingToken(t *testing.T) {
	f := newFixture(t, auth.PolicyEnforce, auth.ScopeUser)

	status, body := f.request(t, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Missing or malformed JWT", body["message"])
}

func TestGuardRejectsGarbageToken(t *testing.T) {
	f := newFixture(t, auth.PolicyEnforce, auth.ScopeUser)

	status, body := f.request(t, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", body["message"])
}

func TestGuardRejectsExpiredToken(t *testing.T) {
	f := newFixture(t, auth.PolicyEnforce, auth.ScopeUser)

	expired := auth.NewTokenService(f.store, staticConfig{accessTTL: -time.Minute}, nil)
	pair, err := expired.Issue(f.user.ID.String(), f.user.Scopes())
	require.NoError(t, err)

	status, body := f.request(t, pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token expired", body["message"])
}

func TestGuardRejectsUnknownSubject(t *testing.T) {
	f := newFixture(t, auth.PolicyEnforce, auth.ScopeUser)

	pair, err := f.tokens.Issue(uuid.NewString(), auth.NewScopeSet(auth.ScopeUser))
	require.NoError(t, err)

	status, body := f.request(t, pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", body["message"])
}

func TestGuardActivationGate(t *testing.T) {
	t.Run("enforced", func(t *testing.T) {
		f := newFixture(t, auth.PolicyEnforce, auth.ScopeUser)
		f.user.Activated = false

		status, body := f.request(t, f.issue(t, f.user.Scopes()))
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "User not activated", body["message"])
	})

	t.Run("bypassed", func(t *testing.T) {
		f := newFixture(t, auth.PolicyBypass, auth.ScopeUser)
		f.user.Activated = false

		status, _ := f.request(t, f.issue(t, f.user.Scopes()))
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestGuardScopeChecks(t *testing.T) {
	t.Run("insufficient scope", func(t *testing.T) {
		f := newFixture(t, auth.PolicyEnforce, auth.ScopeAdmin)

		status, body := f.request(t, f.issue(t, auth.NewScopeSet(auth.ScopeUser)))
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "Insufficient scope", body["message"])
	})

	t.Run("any required scope admits", func(t *testing.T) {
		f := newFixture(t, auth.PolicyEnforce, auth.ScopeUser, auth.ScopeOneTime)

		status, _ := f.request(t, f.issue(t, auth.NewScopeSet(auth.ScopeOneTime)))
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("no required scopes admits any valid token", func(t *testing.T) {
		f := newFixture(t, auth.PolicyEnforce)

		status, _ := f.request(t, f.issue(t, auth.NewScopeSet(auth.ScopeUser)))
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestGuardAttachesClaims(t *testing.T) {
	f := newFixture(t, auth.PolicyEnforce, auth.ScopeUser)

	status, body := f.request(t, f.issue(t, f.user.Scopes()))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, f.user.ID.String(), body["uid"])
}
