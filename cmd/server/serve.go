package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/farmfeed/backend/internal/moderation"
	"github.com/anonto42/farmfeed/backend/internal/router"
	"github.com/anonto42/farmfeed/backend/internal/services"
	"github.com/anonto42/farmfeed/backend/internal/storage"
	"github.com/anonto42/farmfeed/backend/pkg/config"
	"github.com/anonto42/farmfeed/backend/pkg/firebase"
	"github.com/anonto42/farmfeed/backend/validators"
	"github.com/go-extras/cobraflags"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const portFlag = "port"

const shutdownTimeout = 10 * time.Second

// newServeFlags builds a fresh flag map. A flag value can be registered on one command only.
func newServeFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		portFlag: &cobraflags.StringFlag{
			Name:  portFlag,
			Value: "",
			Usage: "Port to listen on (overrides PORT)",
		},
		envFileFlag: &cobraflags.StringFlag{
			Name:  envFileFlag,
			Value: "",
			Usage: "Env file to load before reading the environment (defaults to .env)",
		},
	}
}

func registerFlags(cmd *cobra.Command, flags map[string]cobraflags.Flag) {
	cobraflags.RegisterMap(cmd, flags)
}

func serveOptions(flags map[string]cobraflags.Flag) options {
	return options{
		EnvFile: flags[envFileFlag].GetString(),
		Port:    flags[portFlag].GetString(),
	}
}

func newServeCommand(serve runFunc) *cobra.Command {
	flags := newServeFlags()
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Migrate the schema and serve the API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, serveOptions(flags))
		},
	}
	registerFlags(serveCmd, flags)
	return serveCmd
}

func runServe(cmd *cobra.Command, opts options) error {
	cfg, err := config.Load(envFiles(opts.EnvFile)...)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if opts.Port != "" {
		cfg.Port = opts.Port
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}
	defer db.CloseDB()

	if err := router.Migrate(db.Postgres); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Firebase login is optional
	var firebaseAuth firebase.TokenVerifier
	if cfg.FirebaseCredentialsPath != "" {
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, logger)
		if err != nil {
			return err
		}
		firebaseAuth = app.AuthClient
	} else {
		logger.Warn("FIREBASE_CREDENTIALS_PATH not set; firebase login disabled")
	}

	images, err := storage.NewSupabaseStore(storage.Config{
		URL:       cfg.Storage.SupabaseURL,
		Key:       cfg.Storage.SupabaseKey,
		Bucket:    cfg.Storage.Bucket,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		return fmt.Errorf("failed to configure image storage: %w", err)
	}

	if cfg.Moderation.APIKey == "" {
		logger.Warn("MODERATION_API_KEY not set; verification requests will fail")
	}
	moderator := moderation.NewClient(moderation.Config{
		URL:             cfg.Moderation.URL,
		APIKey:          cfg.Moderation.APIKey,
		Model:           cfg.Moderation.Model,
		Timeout:         cfg.Moderation.Timeout,
		MaxRetries:      cfg.Moderation.MaxRetries,
		BreakerFailures: cfg.Moderation.BreakerFailures,
		BreakerOpen:     cfg.Moderation.BreakerOpen,
	}, logger)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, logger)

	router.SetupRoutes(e, router.Dependencies{
		Postgres:     db.Postgres,
		MongoDB:      db.MongoDB,
		FirebaseAuth: firebaseAuth,
		Images:       images,
		Moderator:    moderator,
		Verification: services.VerificationConfig{
			Threshold:     cfg.Moderation.Threshold,
			AllowReverify: cfg.Moderation.AllowReverify,
		},
		JWTSecret: cfg.JWTSecret,
		JWTTTL:    cfg.JWTTTL,
		Logger:    logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
