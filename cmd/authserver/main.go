package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/layer-3/authflow/internal/config"
	"github.com/layer-3/authflow/internal/logger"
	"github.com/layer-3/authflow/internal/server"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		logLevel  string
		logFormat string
		logFile   string
	)

	root := &cobra.Command{
		Use:           "authserver",
		Short:         "Reference token-based authentication API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logger.SetupLogger(logger.Config{
				Level:   logger.ParseLevel(logLevel),
				LogFile: logFile,
				Format:  logFormat,
			})
			if err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}
			slog.SetDefault(l)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log format (text, json)")
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (default stderr)")

	root.AddCommand(serveCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the auth API",
		Long: `Serve the auth API. Settings come from the environment:
  PORT              listen port (default 8080)
  REDIS_URL         revocation store and event stream (default in process)
  DB_PATH           SQLite user database (default in memory)
  SIGNING_KEY_PATH  PEM EC key, generated when missing (default ephemeral)
  ACCESS_TTL        access token lifetime (default 1m)
  REFRESH_TTL       refresh token lifetime (default 1h)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return err
			}

			if slog.Default().Enabled(cmd.Context(), slog.LevelDebug) {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			srv, err := server.New(cfg, slog.Default())
			if err != nil {
				return err
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
}
