package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/martinmarchese/login-example/auth"
	"github.com/martinmarchese/login-example/config"
	"github.com/martinmarchese/login-example/mailer"
	"github.com/martinmarchese/login-example/server"
	"github.com/martinmarchese/login-example/social"
	"github.com/martinmarchese/login-example/social/google"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := auth.DefaultLogger()

	db, err := openDatabase(cfg.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := bootstrapSchema(context.Background(), db); err != nil {
		return err
	}

	repo := auth.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	mail, err := mailer.New(cfg.SMTPHost, cfg.SMTPUser, cfg.SMTPPass, cfg.MailAddress, cfg.SMTPSkipVerify)
	if err != nil {
		return err
	}
	if !mail.IsEnabled() {
		logger.Warn("mail delivery disabled, SMTP credentials missing")
	}

	signer := auth.NewKeySigner([]byte(cfg.KeySecret))
	notifier := auth.NewNotifier(mail, cfg.BaseURL, logger)
	tokens := auth.NewTokenService(
		[]byte(cfg.SigningKey),
		cfg.TokenExpiration,
		cfg.ExtendedDuration,
		cfg.Issuer,
		cfg.Audience,
		logger,
	)
	auther := auth.NewAuthenticator(repo, tokens).WithLogger(logger)

	deps := server.ControllerDeps{
		Config:    cfg,
		Repo:      repo,
		Auther:    auther,
		Tokens:    tokens,
		Signer:    signer,
		Notifier:  notifier,
		Logger:    logger,
		UseHashid: cfg.DeterministicAccountIDs,
	}

	if cfg.GoogleEnabled() {
		stateTTL, err := time.ParseDuration(cfg.OAuthStateTTL)
		if err != nil {
			stateTTL = 10 * time.Minute
		}

		deps.Provider = google.New(google.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			CallbackURL:  cfg.GoogleCallbackURL(),
		})
		deps.States = social.NewSignedStateManager([]byte(cfg.KeySecret), stateTTL)
		deps.Provisioner = social.NewProvisioner(repo).WithLogger(logger)
	} else {
		logger.Warn("Google login disabled, client credentials missing")
	}

	app := server.NewApp(server.Options{ViewsDir: "./views", Logger: logger})
	server.NewController(deps).RegisterRoutes(app)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errCh <- app.Listen(cfg.Addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

func openDatabase(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// bootstrapSchema creates the two tables on first run. The model tags carry
// the column definitions.
func bootstrapSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*auth.Account)(nil),
		(*auth.AccountKey)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}
