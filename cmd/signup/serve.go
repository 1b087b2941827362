package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/signup/internal/logger"
	"github.com/mark3labs/signup/internal/stub"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	listen string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local registration endpoint for development",
	Long: `Run an in-memory registration endpoint on the configured listen address.

It accepts the same multipart POST /api/register request as the real
endpoint and answers with the same success and field-error responses, so
the wizard can be tried end to end. Accounts are lost on exit.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.listen, "listen", "l", "", "Address to listen on (default: config listen)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveFlags.listen
	if addr == "" {
		addr = cfg.Listen
	}

	srv := stub.New()
	bound, err := srv.Start(addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Registration endpoint: http://%s/api/register\n", bound)
	fmt.Fprintln(out, "Press Ctrl+C to stop.")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	fmt.Fprintln(out, "\nShutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Stub server stopped with %d accounts", srv.Accounts())
	return nil
}
