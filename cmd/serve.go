package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/sakay/genchat/api"
	"github.com/sakay/genchat/internal/auth"
	"github.com/sakay/genchat/internal/config"
	"github.com/sakay/genchat/internal/gemini"
	"github.com/sakay/genchat/internal/history"
	"github.com/sakay/genchat/internal/log"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (host:port), overrides PORT")
	rootCmd.AddCommand(serveCmd)
}

// runServe wires the application and starts the HTTP server. The chat
// service and the auth verifier are constructed exactly once here and
// passed to handlers explicitly; a failure in either is fatal.
func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{})
	slog.SetDefault(logger)
	logger.Info("starting genchat", "version", Version)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := gemini.New(ctx, gemini.Config{
		APIKey:  cfg.GeminiAPIKey,
		Timeout: cfg.ChatTimeout(),
		Limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst),
		Logger:  logger.With("component", "gemini"),
	})
	if err != nil {
		return fmt.Errorf("initializing chat service: %w", err)
	}

	verifier, err := auth.NewFirebaseVerifier(ctx, auth.Config{
		CredPath:  cfg.FirebaseCredPath,
		ProjectID: cfg.FirebaseProjectID,
		Logger:    logger.With("component", "auth"),
	})
	if err != nil {
		return fmt.Errorf("initializing auth: %w", err)
	}

	srv := api.NewServer(api.Config{
		Chat:     svc,
		History:  history.NewStore(cfg.MaxHistoryMessages),
		AuthGate: auth.Middleware(verifier, logger.With("component", "auth")),
		Logger:   logger,
	})

	addr := serveAddr
	if addr == "" {
		addr = cfg.Addr()
	}
	if err := validateAddr(addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}

	return srv.Run(ctx, addr)
}
