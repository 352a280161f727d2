package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chatbet/chatbet/internal/app"
	"github.com/chatbet/chatbet/internal/config"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // agent turns can run up to the turn deadline
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ChatBet HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (host:port), overrides config")
	rootCmd.AddCommand(serveCmd)
}

// runServe initializes the application and runs the HTTP server until
// SIGINT or SIGTERM.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	addr := cfg.ListenAddr
	if flagAddr != "" {
		addr = flagAddr
	}
	if err = validateAddr(addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting chatbet server", "version", Version)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", addr,
		"api", "/api/v1/chat",
		"health", "/health, /ready",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}

// validateAddr checks that addr is a usable host:port listen address.
func validateAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("port %q is not a number", port)
	}
	if p < 1 || p > 65535 {
		return fmt.Errorf("port %d out of range", p)
	}
	// An empty host means all interfaces, which is fine. Anything else
	// must be an IP literal or a resolvable name; reject obvious junk.
	if host != "" && host != "localhost" {
		if ip := net.ParseIP(host); ip == nil {
			for _, r := range host {
				if r == '/' || r == ' ' {
					return fmt.Errorf("host %q contains invalid characters", host)
				}
			}
		}
	}
	return nil
}
