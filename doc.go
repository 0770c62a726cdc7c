// Package auth implements an email/password authentication backend: sign-up
// with email-code verification, sign-in issuing access/refresh JWT pairs,
// password reset through one-time tokens, and role-scope route protection.
//
// The core is three pieces. TokenService mints and validates HS256 tokens
// carrying an identity id and an ordered scope set. Flows orchestrates the
// registration, sign-in, verification, password-reset, and refresh sequences
// over a credential store and a verification challenge service, both consumed
// through small interfaces. The middleware/tokenguard package gates fiber
// routes on token validity, live activation state, and scope intersection.
//
// Tokens are never persisted; validity is proven by signature plus expiry
// alone. One-time tokens issued after a forgot-password verification carry a
// fixed five minute lifetime and no refresh token.
package auth
