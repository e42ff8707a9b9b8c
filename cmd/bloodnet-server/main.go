package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bloodnet/inventory/internal/config"
	"github.com/bloodnet/inventory/internal/domain/application"
	"github.com/bloodnet/inventory/internal/domain/bloodunit"
	"github.com/bloodnet/inventory/internal/domain/directory"
	"github.com/bloodnet/inventory/internal/domain/request"
	"github.com/bloodnet/inventory/internal/platform/auth"
	"github.com/bloodnet/inventory/internal/platform/db"
	"github.com/bloodnet/inventory/internal/platform/middleware"
	"github.com/bloodnet/inventory/internal/platform/notification"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "bloodnet-server",
		Short: "Blood donation network API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(expireUnitsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// expireUnitsCmd runs one expiry sweep and exits. Meant for cron.
func expireUnitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire-units",
		Short: "Discard all expired in-inventory and reserved units",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			unitSvc := bloodunit.NewService(bloodunit.NewRepoPG(pool), bloodunit.NewEventRepoPG(pool), logger)
			count, err := unitSvc.ProcessExpired(ctx)
			if err != nil {
				return fmt.Errorf("expiry sweep failed: %w", err)
			}
			fmt.Printf("Processed %d expired unit(s).\n", count)

			if cfg.AlertEmail != "" {
				_, soonTotal, err := unitSvc.ExpiringSoon(ctx, cfg.ExpirySoonDays, 1, 0)
				if err != nil {
					return fmt.Errorf("expiring-soon check failed: %w", err)
				}
				if soonTotal > 0 {
					notifier := notification.NewManager(
						&notification.LogEmailSender{Logger: logger},
						&notification.LogSMSSender{Logger: logger},
						notification.NewTemplateEngine(), logger)
					_, err := notifier.SendFromTemplate(ctx, notification.TemplateExpiryAlert, map[string]string{
						"blood_bank": "BloodNet",
						"count":      strconv.Itoa(soonTotal),
						"days":       strconv.Itoa(cfg.ExpirySoonDays),
					}, cfg.AlertEmail)
					if err != nil {
						logger.Warn().Err(err).Msg("expiry alert notification failed")
					}
				}
			}
			return nil
		},
	}
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.JWTSigningKey),
		}))
	}

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	apiV1.Use(middleware.RequestTimeout(30 * time.Second))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Notifications
	templates := notification.NewTemplateEngine()
	notifier := notification.NewManager(
		&notification.LogEmailSender{Logger: logger},
		&notification.LogSMSSender{Logger: logger},
		templates, logger)
	notifHandler := notification.NewHandler(notifier)
	notifHandler.RegisterRoutes(apiV1.Group("", auth.RequireOperation(auth.OpDirectoryWrite)))

	// Blood unit domain
	unitSvc := bloodunit.NewService(bloodunit.NewRepoPG(pool), bloodunit.NewEventRepoPG(pool), logger)
	unitHandler := bloodunit.NewHandler(unitSvc, cfg.ExpirySoonDays)
	unitHandler.RegisterRoutes(apiV1)

	// Directory domain
	dirSvc := directory.NewService(
		directory.NewDonorRepoPG(pool),
		directory.NewBloodBankRepoPG(pool),
		directory.NewInstitutionRepoPG(pool),
		logger)
	dirHandler := directory.NewHandler(dirSvc)
	dirHandler.RegisterRoutes(apiV1)

	// Blood request domain
	requestSvc := request.NewService(request.NewRepoPG(pool), unitSvc, logger)
	requestSvc.SetNotifier(notifier, func(ctx context.Context, requesterID uuid.UUID) (string, error) {
		org, err := dirSvc.GetInstitution(ctx, requesterID)
		if err != nil {
			return "", err
		}
		return org.Email, nil
	})
	requestHandler := request.NewHandler(requestSvc)
	requestHandler.RegisterRoutes(apiV1)

	// Application approval domain
	appSvc := application.NewService(application.NewRepoPG(pool), notifier, logger)
	appHandler := application.NewHandler(appSvc)
	appHandler.RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
