package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/mark3labs/signup/internal/config"
	"github.com/mark3labs/signup/internal/logger"
	"github.com/mark3labs/signup/internal/tui/theme"
	"github.com/spf13/cobra"
)

const (
	logoText1 = "█▀▀ █ █▀▀ █▄ █ █ █ █▀█"
	logoText2 = "▄▄█ █ █▄█ █ ▀█ █▄█ █▀▀"
)

// Version set via ldflags during build
var version = "dev"

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

func main() {
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "signup",
	Short:             "Create an account through a multi-step registration wizard",
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
}

// renderLogo creates the logo with gradient colors
func renderLogo() string {
	t := theme.Current()
	line1 := theme.ApplyGradient(logoText1, t.Primary, t.Secondary)
	line2 := theme.ApplyGradient(logoText2, t.Primary, t.Secondary)
	return strings.Join([]string{line1, line2}, "\n")
}

func init() {
	rootCmd.Long = renderLogo() + `

signup walks you through creating an account: credentials, personal
details, then a profile photo and signature. Nothing is sent until the last
step, when everything goes to the registration endpoint in one request.

Configuration is read from ./signup.yml and ~/.config/signup/signup.yml,
and can be overridden with SIGNUP_* environment variables.`

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = loaded

	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	logger.Debug("Loaded config: endpoint=%s timeout=%s", cfg.Endpoint, cfg.Timeout)
	return nil
}
