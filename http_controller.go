package auth

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// APIResponse is the uniform envelope every endpoint returns.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// WrapData wraps a payload in a success envelope.
func WrapData(data any, message string) APIResponse {
	return APIResponse{Success: true, Data: data, Message: message}
}

// WrapMessage wraps a data-less success in the envelope.
func WrapMessage(message string) APIResponse {
	return APIResponse{Success: true, Data: nil, Message: message}
}

// WrapError wraps a failure message in the envelope.
func WrapError(message string) APIResponse {
	return APIResponse{Success: false, Data: nil, Message: message}
}

// AuthController exposes the authentication flows over a fiber JSON API.
type AuthController struct {
	Debug  bool
	Logger Logger
	Flows  *Flows
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		a.Logger = logger
		return a
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(a *AuthController) *AuthController {
		a.Debug = debug
		return a
	}
}

func NewAuthController(flows *Flows, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Flows:  flows,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Flows == nil {
		panic("Missing Flows in auth controller...")
	}

	return c
}

// RegisterRoutes mounts the auth endpoints on the given router. protect
// builds the bearer-token guard for a required scope set; it is injected so
// the controller stays decoupled from the middleware package.
func (a *AuthController) RegisterRoutes(r fiber.Router, protect func(required ...Scope) fiber.Handler) {
	r.Post("/enterEmail", a.EnterEmail)
	r.Post("/signIn", a.SignIn)
	r.Post("/registerAccount", a.RegisterAccount)
	r.Post("/sendVerificationEmail", a.SendVerificationEmail)
	r.Post("/verifyEmail", a.VerifyEmail)
	r.Post("/updatePassword", protect(ScopeUser, ScopeOneTime), a.UpdatePassword)
	r.Get("/deleteAccount", protect(ScopeUser), a.DeleteAccount)
	r.Post("/refreshToken", a.RefreshToken)
}

// EnterEmailRequest payload
type EnterEmailRequest struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r EnterEmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// SignInRequest payload
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r SignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterAccountRequest payload
type RegisterAccountRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	IsAdmin   bool   `json:"isAdmin"`
}

// Validate will run validation rules
func (r RegisterAccountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
	)
}

// VerifyEmailRequest payload
type VerifyEmailRequest struct {
	Email string `json:"email"`
	When  string `json:"when"`
	Code  string `json:"code"`
}

// Validate will run validation rules
func (r VerifyEmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.When, validation.In(string(VerifyForAuth), string(VerifyForForgot))),
		validation.Field(&r.Code, validation.Required),
	)
}

// UpdatePasswordRequest payload
type UpdatePasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r UpdatePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// RefreshTokenRequest payload
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// EnterEmail handles POST /enterEmail. Read-only and unauthenticated; it
// reports whether the identity exists and finished verification.
func (a *AuthController) EnterEmail(c *fiber.Ctx) error {
	payload := new(EnterEmailRequest)
	if err := a.bind(c, payload); err != nil {
		return a.validationError(c, err)
	}

	res, err := a.Flows.EnterEmail(c.UserContext(), payload.Email)
	if err != nil {
		return a.respondError(c, err)
	}

	return c.JSON(WrapData(res, "Email found"))
}

// SignIn handles POST /signIn.
func (a *AuthController) SignIn(c *fiber.Ctx) error {
	payload := new(SignInRequest)
	if err := a.bind(c, payload); err != nil {
		return a.validationError(c, err)
	}

	res, err := a.Flows.SignIn(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return a.respondError(c, err)
	}

	if res.VerificationPending {
		return c.JSON(WrapMessage("Verification code requested successfully"))
	}

	return c.JSON(WrapData(fiber.Map{
		"user":         res.User,
		"token":        res.Tokens.AccessToken,
		"refreshToken": res.Tokens.RefreshToken,
	}, "Sign in successful"))
}

// RegisterAccount handles POST /registerAccount. The account starts
// deactivated and a verification code is requested; no tokens yet.
func (a *AuthController) RegisterAccount(c *fiber.Ctx) error {
	payload := new(RegisterAccountRequest)
	if err := a.bind(c, payload); err != nil {
		return a.validationError(c, err)
	}

	err := a.Flows.Register(c.UserContext(), RegisterMessage{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		IsAdmin:   payload.IsAdmin,
	})
	if err != nil {
		return a.respondError(c, err)
	}

	return c.JSON(WrapMessage("Verification code requested successfully"))
}

// SendVerificationEmail handles POST /sendVerificationEmail.
func (a *AuthController) SendVerificationEmail(c *fiber.Ctx) error {
	payload := new(EnterEmailRequest)
	if err := a.bind(c, payload); err != nil {
		return a.validationError(c, err)
	}

	if err := a.Flows.SendVerificationEmail(c.UserContext(), payload.Email); err != nil {
		return a.respondError(c, err)
	}

	return c.JSON(WrapMessage("Verification code requested successfully"))
}

// VerifyEmail handles POST /verifyEmail.
func (a *AuthController) VerifyEmail(c *fiber.Ctx) error {
	payload := new(VerifyEmailRequest)
	if err := a.bind(c, payload); err != nil {
		return a.validationError(c, err)
	}

	// Only an explicit "auth" activates; anything else, an absent value
	// included, is the forgot branch that never grants a full session.
	when := VerifyWhen(payload.When)
	if when != VerifyForAuth {
		when = VerifyForForgot
	}

	res, err := a.Flows.VerifyEmail(c.UserContext(), payload.Email, when, payload.Code)
	if err != nil {
		return a.respondError(c, err)
	}

	if when == VerifyForForgot {
		return c.JSON(WrapData(fiber.Map{
			"token": res.Tokens.AccessToken,
		}, "Email has been verified"))
	}

	return c.JSON(WrapData(fiber.Map{
		"user":         res.User,
		"token":        res.Tokens.AccessToken,
		"refreshToken": res.Tokens.RefreshToken,
	}, "Create account successful"))
}

// UpdatePassword handles POST /updatePassword. The route guard has already
// required a bearer token scoped user or one-time.
func (a *AuthController) UpdatePassword(c *fiber.Ctx) error {
	payload := new(UpdatePasswordRequest)
	if err := a.bind(c, payload); err != nil {
		return a.validationError(c, err)
	}

	res, err := a.Flows.UpdatePassword(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return a.respondError(c, err)
	}

	return c.JSON(WrapData(fiber.Map{
		"user":         res.User,
		"token":        res.Tokens.AccessToken,
		"refreshToken": res.Tokens.RefreshToken,
	}, "Password updated successfully"))
}

// DeleteAccount handles GET /deleteAccount, soft-deleting the identity named
// by the bearer token.
func (a *AuthController) DeleteAccount(c *fiber.Ctx) error {
	claims, ok := ClaimsFromFiber(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(WrapError("Invalid token"))
	}

	if err := a.Flows.DeleteAccount(c.UserContext(), claims.UserID()); err != nil {
		return a.respondError(c, err)
	}

	return c.JSON(WrapMessage("Deleted account successfully"))
}

// RefreshToken handles POST /refreshToken: access token in the bearer
// header, refresh token in the body.
func (a *AuthController) RefreshToken(c *fiber.Ctx) error {
	payload := new(RefreshTokenRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(WrapError("Error parsing body"))
	}

	accessToken := BearerToken(c)
	if accessToken == "" || payload.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(WrapError("No token attached"))
	}

	pair, err := a.Flows.Refresh(c.UserContext(), accessToken, payload.RefreshToken)
	if err != nil {
		return a.respondError(c, err)
	}

	return c.JSON(WrapData(fiber.Map{
		"token":        pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "Token refreshed successfully"))
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func (a *AuthController) bind(c *fiber.Ctx, payload interface{ Validate() error }) error {
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("auth controller parse payload", "error", err)
		return errors.Wrap(err, errors.CategoryBadInput, "Error parsing body").
			WithCode(errors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Debug("auth controller validate payload", "error", err)
		return err
	}

	if a.Debug {
		fmt.Println("======= AUTH REQUEST ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("===========================")
	}

	return nil
}

func (a *AuthController) validationError(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return c.Status(fiber.StatusBadRequest).JSON(WrapError(richErr.Message))
	}
	return c.Status(fiber.StatusBadRequest).JSON(WrapError(err.Error()))
}

func (a *AuthController) respondError(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		status := richErr.Code
		if status == 0 {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(WrapError(richErr.Message))
	}

	a.Logger.Error("auth controller unexpected error", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(WrapError("Internal server error"))
}
