package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
)

// VerifyWhen selects what a successful email verification unlocks.
type VerifyWhen string

const (
	// VerifyForAuth finishes registration or sign-in: it activates the
	// identity and issues a full token pair. This is the only path that
	// flips the activation flag.
	VerifyForAuth VerifyWhen = "auth"
	// VerifyForForgot proves mailbox control during a password reset: it
	// issues a one-time token and leaves activation untouched.
	VerifyForForgot VerifyWhen = "forgot"
)

// Flows orchestrates sign-in, registration, verification, password reset,
// and token refresh as sequences of guarded steps over the credential store
// and the verification challenge service.
type Flows struct {
	store     IdentityStore
	challenge ChallengeService
	tokens    TokenService
	policy    ActivationPolicy
	logger    Logger
}

// NewFlows returns a new flow controller. The activation policy is derived
// from the configured deployment environment.
func NewFlows(store IdentityStore, challenge ChallengeService, tokens TokenService, opts Config) *Flows {
	return &Flows{
		store:     store,
		challenge: challenge,
		tokens:    tokens,
		policy:    PolicyForEnvironment(opts.GetEnvironment()),
		logger:    defLogger{},
	}
}

func (f *Flows) WithLogger(logger Logger) *Flows {
	f.logger = logger
	return f
}

// WithActivationPolicy overrides the policy derived from configuration.
func (f *Flows) WithActivationPolicy(policy ActivationPolicy) *Flows {
	f.policy = policy
	return f
}

// EnterEmailResult reports whether a known identity completed verification.
type EnterEmailResult struct {
	Activated bool `json:"activated"`
}

// SignInResult carries the outcome of the flows that may mint tokens.
// When an unactivated identity attempts to sign in, VerificationPending is
// set instead of tokens and a code has been requested.
type SignInResult struct {
	User                *User
	Tokens              *TokenPair
	VerificationPending bool
}

// RegisterMessage is the input to Register.
type RegisterMessage struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdmin   bool   `json:"is_admin"`
}

// EnterEmail looks up an identity by email. Unknown emails surface
// ErrIdentityNotFound, uniformly with the other unauthenticated flows.
func (f *Flows) EnterEmail(ctx context.Context, email string) (*EnterEmailResult, error) {
	user, err := f.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &EnterEmailResult{Activated: user.Activated}, nil
}

// SignIn verifies credentials and issues a token pair. An identity that has
// not completed verification never reaches the password comparison: a fresh
// verification code is requested and the caller is told to verify first.
func (f *Flows) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	user, err := f.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !f.policy.Allows(user.Activated) {
		if err := f.challenge.RequestCode(ctx, user.Email); err != nil {
			return nil, errors.Wrap(err, errors.CategoryExternal, "failed to request verification code")
		}
		return &SignInResult{VerificationPending: true}, nil
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		f.logger.Debug("SignIn password mismatch", "email", user.Email)
		return nil, ErrInvalidCredentials
	}

	pair, err := f.tokens.Issue(user.ID.String(), user.Scopes())
	if err != nil {
		return nil, err
	}

	return &SignInResult{User: user, Tokens: pair}, nil
}

// Register creates an unactivated identity and requests a verification code.
// Re-registering a soft-deleted email restores the existing row instead of
// creating a duplicate. No tokens are issued; the caller must verify first.
// A failed code request does not roll the identity back, the client can
// retry through SendVerificationEmail.
func (f *Flows) Register(ctx context.Context, msg RegisterMessage) error {
	email := NormalizeEmail(msg.Email)

	if _, err := f.store.FindByEmail(ctx, email); err == nil {
		return ErrIdentityExists
	} else if !errors.Is(err, ErrIdentityNotFound) {
		return err
	}

	hash, err := HashPassword(msg.Password)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return errors.Wrap(richErr, errors.CategoryValidation, "invalid password provided")
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    msg.FirstName,
		LastName:     msg.LastName,
		IsAdmin:      msg.IsAdmin,
		Activated:    false,
	}
	if id, err := hashid.NewUUID(email); err == nil {
		user.ID = id
	}

	if _, err := f.store.UpsertOrRestore(ctx, user); err != nil {
		return err
	}

	if err := f.challenge.RequestCode(ctx, email); err != nil {
		return errors.Wrap(err, errors.CategoryExternal, "failed to request verification code")
	}

	return nil
}

// SendVerificationEmail requests a new code for a known identity. It is
// idempotent at this layer; replay safety is the challenge service's job.
func (f *Flows) SendVerificationEmail(ctx context.Context, email string) error {
	user, err := f.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	if err := f.challenge.RequestCode(ctx, user.Email); err != nil {
		return errors.Wrap(err, errors.CategoryExternal, "failed to request verification code")
	}

	return nil
}

// VerifyEmail checks a code against the challenge service. On success,
// when == VerifyForAuth activates the identity and issues a full pair; any
// other value is treated as VerifyForForgot and issues a one-time token
// without touching the activation flag, so an activated account can run a
// forgot-password flow and a stray value can never mint a full session.
func (f *Flows) VerifyEmail(ctx context.Context, email string, when VerifyWhen, code string) (*SignInResult, error) {
	user, err := f.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	ok, err := f.challenge.CheckCode(ctx, user.Email, code)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryExternal, "verification code check failed")
	}
	if !ok {
		return nil, ErrInvalidCode
	}

	// Activation is gated on an explicit auth verification; any other value
	// falls through to the forgot branch and leaves the flag alone.
	if when == VerifyForAuth {
		if err := f.store.SetActivated(ctx, user.ID, true); err != nil {
			return nil, err
		}
		user.Activated = true

		pair, err := f.tokens.Issue(user.ID.String(), user.Scopes())
		if err != nil {
			return nil, err
		}
		return &SignInResult{User: user, Tokens: pair}, nil
	}

	pair, err := f.tokens.Issue(user.ID.String(), NewScopeSet(ScopeOneTime))
	if err != nil {
		return nil, err
	}
	return &SignInResult{Tokens: pair}, nil
}

// UpdatePassword rehashes and stores a new password, then issues a fresh
// pair so the caller keeps a usable session. Scope enforcement (user or
// one-time) happens at the route guard, not here.
func (f *Flows) UpdatePassword(ctx context.Context, email, newPassword string) (*SignInResult, error) {
	user, err := f.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, errors.Wrap(richErr, errors.CategoryValidation, "invalid password provided")
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	if err := f.store.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	pair, err := f.tokens.Issue(user.ID.String(), user.Scopes())
	if err != nil {
		return nil, err
	}

	return &SignInResult{User: user, Tokens: pair}, nil
}

// DeleteAccount soft-deletes the identity named by a token subject.
func (f *Flows) DeleteAccount(ctx context.Context, identityID string) error {
	id, err := ParseIdentityID(identityID)
	if err != nil {
		return err
	}
	return f.store.Delete(ctx, id)
}

// Refresh delegates to the token service.
func (f *Flows) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	return f.tokens.Refresh(ctx, accessToken, refreshToken)
}
