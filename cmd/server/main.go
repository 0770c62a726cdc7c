package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/lmittmann/tint"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/fractallabs/authkit"
	"github.com/fractallabs/authkit/middleware/tokenguard"
	"github.com/fractallabs/authkit/verify"
)

// Config is the environment-driven server configuration. It satisfies the
// auth.Config contract so the signing secret and TTLs are threaded into the
// token service and guard at construction time.
type Config struct {
	Addr        string `env:"HTTP_ADDR" envDefault:":3000"`
	Environment string `env:"APP_ENV" envDefault:"local"`
	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"file:authkit.db?cache=shared&mode=rwc"`
	Debug       bool   `env:"DEBUG" envDefault:"false"`

	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"100"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`

	SigningKey      string        `env:"JWT_SECRET,required"`
	Issuer          string        `env:"JWT_ISSUER" envDefault:"authkit"`
	AccessTokenTTL  time.Duration `env:"JWT_EXPIRATION" envDefault:"1h"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_EXPIRATION" envDefault:"720h"`

	CodeTTL      time.Duration `env:"VERIFICATION_CODE_TTL" envDefault:"10m"`
	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string        `env:"SMTP_USERNAME"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	SMTPFrom     string        `env:"SMTP_FROM"`
	SMTPFromName string        `env:"SMTP_FROM_NAME"`
	SMTPTLS      bool          `env:"SMTP_TLS" envDefault:"true"`
}

func (c Config) GetSigningKey() string             { return c.SigningKey }
func (c Config) GetIssuer() string                 { return c.Issuer }
func (c Config) GetAccessTokenTTL() time.Duration  { return c.AccessTokenTTL }
func (c Config) GetRefreshTokenTTL() time.Duration { return c.RefreshTokenTTL }
func (c Config) GetEnvironment() string            { return c.Environment }

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	if err := auth.CreateUsersSchema(ctx, db); err != nil {
		return err
	}
	if err := verify.CreateSchema(ctx, db); err != nil {
		return err
	}

	authLogger := slogAdapter{logger: logger}

	sender, err := buildSender(cfg, authLogger)
	if err != nil {
		return err
	}

	store := auth.NewUsersRepository(db)
	challenge := verify.New(db, sender,
		verify.WithCodeTTL(cfg.CodeTTL),
		verify.WithLogger(authLogger),
	)
	tokens := auth.NewTokenService(store, cfg, authLogger)
	flows := auth.NewFlows(store, challenge, tokens, cfg).
		WithLogger(authLogger)

	policy := auth.PolicyForEnvironment(cfg.Environment)
	guard := tokenguard.New(tokenguard.Config{
		Tokens: tokens,
		Store:  store,
		Policy: policy,
		Logger: authLogger,
	})

	controller := auth.NewAuthController(flows,
		auth.WithControllerLogger(authLogger),
		auth.WithControllerDebug(cfg.Debug),
	)

	app := fiber.New(fiber.Config{
		AppName:               "authkit",
		DisableStartupMessage: !cfg.Debug,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWindow,
	}))

	api := app.Group("/api/v1/auth")
	controller.RegisterRoutes(api, guard.Protect)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			"addr", cfg.Addr,
			"env", cfg.Environment,
			"activation_policy", policy.String(),
		)
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}

func buildSender(cfg Config, logger auth.Logger) (verify.Sender, error) {
	if cfg.SMTPHost == "" {
		// No relay configured: log codes instead. Only sensible outside prod.
		logger.Warn("SMTP not configured, verification codes are logged")
		return verify.LogSender{Logger: logger}, nil
	}

	return verify.NewMailer(verify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
		TLS:      cfg.SMTPTLS,
	})
}

// slogAdapter bridges the auth.Logger contract onto slog.
type slogAdapter struct {
	logger *slog.Logger
}

func (s slogAdapter) Debug(msg string, args ...any) { s.logger.Debug(msg, args...) }
func (s slogAdapter) Info(msg string, args ...any)  { s.logger.Info(msg, args...) }
func (s slogAdapter) Warn(msg string, args ...any)  { s.logger.Warn(msg, args...) }
func (s slogAdapter) Error(msg string, args ...any) { s.logger.Error(msg, args...) }
