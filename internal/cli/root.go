package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/layer-3/authflow/adapters/display"
	"github.com/layer-3/authflow/adapters/httpapi"
	"github.com/layer-3/authflow/internal/config"
	"github.com/layer-3/authflow/internal/logger"
	"github.com/layer-3/authflow/service"
)

type contextKey string

const cliContextKey contextKey = "cliContext"

// CliContext holds shared CLI context
type CliContext struct {
	ConfigPath string
	Controller *service.SessionController
	Logger     *slog.Logger
}

// ErrReported marks a command whose failure already reached the display
var ErrReported = errors.New("operation failed")

// Global flags
var (
	apiURL        string
	configPath    string
	timeout       time.Duration
	logLevel      string
	logFile       string
	alsoLogStderr bool
	logFormat     string
)

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	var ctx CliContext

	rootCmd := &cobra.Command{
		Use:           "authclient",
		Short:         "Client for a token-based authentication API",
		Long:          `Register, log in, refresh tokens, fetch protected data and log out against an auth API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(); err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}

			ctx.Logger = slog.Default().With("component", "cli")
			ctx.Logger.Debug("CLI started", "command", cmd.Name())

			path, err := resolveConfigPath()
			if err != nil {
				return err
			}
			ctx.ConfigPath = path

			baseURL, err := ResolveBaseURL(apiURL, path)
			if err != nil {
				return err
			}

			api := httpapi.NewAdapter(&http.Client{Timeout: timeout}, slog.Default())
			out := display.NewWriterDisplay(cmd.OutOrStdout())
			ctx.Controller = service.NewSessionController(api, out, baseURL, slog.Default())

			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey, &ctx))
			return nil
		},
	}

	rootCmd.AddCommand(newShellCommand())
	rootCmd.AddCommand(newRegisterCommand())

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "",
		"Auth API base URL (overrides $"+config.EnvAPI+" and the config file)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Client config file (default ~/.config/authflow/client.yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second,
		"HTTP request timeout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file path (if specified, logs to file instead of stderr)")
	rootCmd.PersistentFlags().BoolVar(&alsoLogStderr, "alsologtostderr", false,
		"Log to both file and stderr")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"Log format (text, json)")

	return rootCmd
}

// ResolveBaseURL picks the API root: flag, then env and config file, then the default
func ResolveBaseURL(flagValue, path string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	cfg, err := config.LoadClientConfig(path)
	if err != nil {
		return "", err
	}

	url, err := cfg.APIURL()
	if err != nil {
		return service.DefaultBaseURL, nil
	}
	return url, nil
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultClientConfigPath()
}

func setupLogging() error {
	cfg := logger.Config{
		Level:         logger.ParseLevel(logLevel),
		LogFile:       logFile,
		AlsoLogStderr: alsoLogStderr,
		Format:        logFormat,
	}

	globalLogger, err := logger.SetupLogger(cfg)
	if err != nil {
		return err
	}

	slog.SetDefault(globalLogger)
	return nil
}

func getCliContext(cmd *cobra.Command) *CliContext {
	return cmd.Context().Value(cliContextKey).(*CliContext)
}
