package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// OneTimeTokenTTL is the fixed lifetime of a one-time token. Consumption is
// enforced by this expiry alone, there is no revocation list.
const OneTimeTokenTTL = 5 * time.Minute

// TokenPair is an issued access token plus, except for one-time tokens, the
// refresh token minted alongside it.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	store      IdentityStore
	logger     Logger
}

// NewTokenService creates a new TokenService instance. The store is consulted
// on refresh to re-derive the subject's current scope.
func NewTokenService(store IdentityStore, opts Config, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey: []byte(opts.GetSigningKey()),
		accessTTL:  opts.GetAccessTokenTTL(),
		refreshTTL: opts.GetRefreshTokenTTL(),
		issuer:     opts.GetIssuer(),
		store:      store,
		logger:     logger,
	}
}

var _ TokenService = (*TokenServiceImpl)(nil)

// Issue mints tokens for the given identity and scope set. A one-time scope
// yields a single access token with a five minute expiry and no refresh
// token; anything else yields a full access/refresh pair.
func (ts *TokenServiceImpl) Issue(identityID string, scope ScopeSet) (*TokenPair, error) {
	if identityID == "" {
		return nil, errors.New("identity id is required", errors.CategoryBadInput)
	}

	now := time.Now()

	if scope.IsOneTime() {
		access, err := ts.sign(identityID, scope, now, OneTimeTokenTTL)
		if err != nil {
			return nil, err
		}
		return &TokenPair{AccessToken: access}, nil
	}

	access, err := ts.sign(identityID, scope, now, ts.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := ts.sign(identityID, scope, now, ts.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh validates a refresh token against the access token it was issued
// with and mints a fresh pair. The access token is decoded without signature
// or expiry verification since being expired is its normal state here. The
// new pair carries the scope the identity holds NOW, looked up live, so a
// demoted admin cannot refresh into a stale elevated scope.
func (ts *TokenServiceImpl) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	accessClaims, err := ts.decodeUnverified(accessToken)
	if err != nil {
		ts.logger.Debug("Refresh could not decode access token", "error", err)
		return nil, ErrInvalidToken
	}

	refreshClaims, err := ts.Validate(refreshToken)
	if err != nil {
		ts.logger.Debug("Refresh rejected refresh token", "error", err)
		return nil, ErrInvalidToken
	}

	if accessClaims.UserID() == "" || accessClaims.UserID() != refreshClaims.UserID() {
		return nil, ErrInvalidToken
	}

	if !accessClaims.ScopeSet().Equal(refreshClaims.ScopeSet()) {
		return nil, ErrInvalidToken
	}

	id, err := ParseIdentityID(refreshClaims.UserID())
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := ts.store.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryAuth, "refresh subject no longer resolves").
			WithTextCode(TextCodeInvalidToken).
			WithCode(errors.CodeBadRequest)
	}

	return ts.Issue(user.ID.String(), user.Scopes())
}

// Validate parses and validates a token string, returning structured claims
func (ts *TokenServiceImpl) Validate(tokenString string) (*TokenClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

func (ts *TokenServiceImpl) decodeUnverified(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}
	return claims, nil
}

func (ts *TokenServiceImpl) sign(identityID string, scope ScopeSet, now time.Time, ttl time.Duration) (string, error) {
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identityID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:   identityID,
		Scope: scope.Strings(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}
