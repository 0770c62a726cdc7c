// Package tokenguard protects fiber routes with bearer access tokens.
//
// The guard layers three checks: token signature/expiry, a live activation
// lookup against the credential store, and scope intersection with the
// route's required scope set. Validated claims are attached to the request
// for downstream handlers.
package tokenguard

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	auth "github.com/fractallabs/authkit"
)

// Config configures the guard.
type Config struct {
	// Tokens validates access token signatures and expiry.
	Tokens auth.TokenService
	// Store resolves the token subject for the activation check.
	Store auth.IdentityStore
	// Policy decides whether unactivated identities are rejected.
	Policy auth.ActivationPolicy
	// ContextKey is the request-local key claims are stored under.
	// Defaults to auth.ClaimsContextKey.
	ContextKey string
	// AuthScheme is the Authorization header scheme. Defaults to "Bearer".
	AuthScheme string
	Logger     auth.Logger
}

// Guard builds per-route middleware from one validated configuration.
type Guard struct {
	cfg Config
}

// New returns a Guard for the given configuration.
func New(cfg Config) *Guard {
	if cfg.ContextKey == "" {
		cfg.ContextKey = auth.ClaimsContextKey
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}
	if cfg.Tokens == nil {
		panic("tokenguard: missing TokenService")
	}
	if cfg.Store == nil {
		panic("tokenguard: missing IdentityStore")
	}
	return &Guard{cfg: cfg}
}

// Protect returns middleware that admits only requests bearing a valid
// access token whose scope set intersects the required scopes. An empty
// required set admits any valid, activated identity.
func (g *Guard) Protect(required ...auth.Scope) fiber.Handler {
	requiredSet := auth.NewScopeSet(required...)

	return func(c *fiber.Ctx) error {
		raw := extractToken(c, g.cfg.AuthScheme)
		if raw == "" {
			return unauthorized(c, "Missing or malformed JWT")
		}

		claims, err := g.cfg.Tokens.Validate(raw)
		if err != nil {
			if auth.IsTokenExpiredError(err) {
				return unauthorized(c, "Token expired")
			}
			g.cfg.Logger.Debug("tokenguard rejected token", "error", err)
			return unauthorized(c, "Invalid token")
		}

		id, err := auth.ParseIdentityID(claims.UserID())
		if err != nil {
			return unauthorized(c, "Invalid token")
		}

		// Activation is a second, dynamic gate on top of the static token
		// claim: deactivation takes effect without token revocation.
		user, err := g.cfg.Store.FindByID(c.UserContext(), id)
		if err != nil {
			return unauthorized(c, "Invalid token")
		}

		if !g.cfg.Policy.Allows(user.Activated) {
			return unauthorized(c, "User not activated")
		}

		if len(requiredSet) > 0 && !claims.ScopeSet().Intersects(requiredSet) {
			return c.Status(fiber.StatusForbidden).JSON(auth.WrapError("Insufficient scope"))
		}

		c.Locals(g.cfg.ContextKey, claims)
		c.SetUserContext(auth.WithClaimsContext(c.UserContext(), claims))

		return c.Next()
	}
}

func extractToken(c *fiber.Ctx, scheme string) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], scheme) {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(auth.WrapError(message))
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
