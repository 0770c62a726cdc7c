package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// ClaimsContextKey is the request-local key the token guard stores validated
// claims under.
const ClaimsContextKey = "auth_claims"

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the TokenClaims in the given context
func WithClaimsContext(ctx context.Context, claims *TokenClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// GetClaims extracts the TokenClaims from the standard context
func GetClaims(ctx context.Context) (*TokenClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*TokenClaims)
	return raw, ok
}

// ClaimsFromFiber extracts the TokenClaims a guard stored on the request.
func ClaimsFromFiber(c *fiber.Ctx) (*TokenClaims, bool) {
	raw := c.Locals(ClaimsContextKey)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(*TokenClaims)
	return claims, ok
}
