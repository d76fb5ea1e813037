package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/docscan/internal/config"
	"github.com/MeKo-Tech/docscan/internal/server"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP scanning API",
		Long: `Start an HTTP server exposing the scanner.

Endpoints:
  GET  /health   - health check
  GET  /presets  - presets, parameter ranges and filter order
  POST /detect   - corners of the document in an uploaded image
  POST /rectify  - perspective correction with given corners
  POST /enhance  - filters only
  POST /scan     - detection, correction and filters in one call
  POST /analyze  - image statistics and auto-enhance suggestion
  GET  /ws       - live preview session over WebSocket
  GET  /metrics  - Prometheus metrics

Examples:
  docscan serve
  docscan serve --port 8080
  docscan serve --host 0.0.0.0 --port 3000 --rate-limit-enabled`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config(cmd)
			if err != nil {
				return err
			}
			sc := applyServeFlags(cmd, cfg.Server)

			if sc.Port < 1 || sc.Port > 65535 {
				return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", sc.Port)
			}
			format, err := cfg.ExportFormat()
			if err != nil {
				return err
			}

			docServer, err := server.NewServer(server.Config{
				Host:          sc.Host,
				Port:          sc.Port,
				CORSOrigin:    sc.CORSOrigin,
				MaxUploadMB:   int64(sc.MaxUploadMB),
				TimeoutSec:    sc.TimeoutSec,
				Debounce:      time.Duration(sc.DebounceMS) * time.Millisecond,
				PreviewMaxDim: sc.PreviewMaxDim,
				Scan:          cfg.ToScanConfig(),
				Format:        format,
				Export:        cfg.ToExportOptions(),
				RateLimiter:   server.NewRateLimiterFromConfig(sc.RateLimit),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize server: %w", err)
			}
			defer func() { _ = docServer.Close() }()

			mux := http.NewServeMux()
			docServer.SetupRoutes(mux)

			httpServer := &http.Server{
				Addr:              fmt.Sprintf("%s:%d", sc.Host, sc.Port),
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       time.Duration(sc.TimeoutSec) * time.Second,
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			go func() {
				slog.Info("Starting document scanner server", "host", sc.Host, "port", sc.Port)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("Server error", "error", err)
					cancel()
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
			defer signal.Stop(sigChan)

			select {
			case sig := <-sigChan:
				slog.Info("Received shutdown signal", "signal", sig.String())
			case <-ctx.Done():
				slog.Info("Context cancelled, initiating shutdown")
			}

			slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", sc.ShutdownTimeout))
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(sc.ShutdownTimeout)*time.Second)
			defer shutdownCancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server shutdown error", "error", err)
			} else {
				slog.Info("HTTP server shutdown completed")
			}
			slog.Info("Graceful shutdown completed")
			return nil
		},
	}

	cmd.Flags().StringP("host", "H", "localhost", "server host")
	cmd.Flags().IntP("port", "p", 8080, "server port")
	cmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	cmd.Flags().Int("max-upload-size", 10, "maximum upload size in MB")
	cmd.Flags().Int("timeout", 30, "request timeout in seconds")
	cmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	cmd.Flags().Int("debounce-ms", 150, "quiet period before live preview renders, in milliseconds")
	cmd.Flags().Int("preview-max-dim", 1024, "longest side of live preview images in pixels")
	cmd.Flags().Bool("rate-limit-enabled", false, "enable rate limiting")
	cmd.Flags().Int("requests-per-minute", 60, "maximum requests per minute per client")
	cmd.Flags().Int("requests-per-hour", 1000, "maximum requests per hour per client")
	cmd.Flags().Int("max-requests-per-day", 5000, "maximum requests per day per client")
	cmd.Flags().Int("max-data-per-day", 1024, "maximum upload volume per day per client in MB")
	return cmd
}

// applyServeFlags overrides configuration values with flags the user set.
func applyServeFlags(cmd *cobra.Command, sc config.ServerConfig) config.ServerConfig {
	flags := cmd.Flags()
	if flags.Changed("host") {
		sc.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		sc.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("cors-origin") {
		sc.CORSOrigin, _ = flags.GetString("cors-origin")
	}
	if flags.Changed("max-upload-size") {
		sc.MaxUploadMB, _ = flags.GetInt("max-upload-size")
	}
	if flags.Changed("timeout") {
		sc.TimeoutSec, _ = flags.GetInt("timeout")
	}
	if flags.Changed("shutdown-timeout") {
		sc.ShutdownTimeout, _ = flags.GetInt("shutdown-timeout")
	}
	if flags.Changed("debounce-ms") {
		sc.DebounceMS, _ = flags.GetInt("debounce-ms")
	}
	if flags.Changed("preview-max-dim") {
		sc.PreviewMaxDim, _ = flags.GetInt("preview-max-dim")
	}
	if flags.Changed("rate-limit-enabled") {
		sc.RateLimit.Enabled, _ = flags.GetBool("rate-limit-enabled")
	}
	if flags.Changed("requests-per-minute") {
		sc.RateLimit.RequestsPerMinute, _ = flags.GetInt("requests-per-minute")
	}
	if flags.Changed("requests-per-hour") {
		sc.RateLimit.RequestsPerHour, _ = flags.GetInt("requests-per-hour")
	}
	if flags.Changed("max-requests-per-day") {
		sc.RateLimit.MaxRequestsPerDay, _ = flags.GetInt("max-requests-per-day")
	}
	if flags.Changed("max-data-per-day") {
		sc.RateLimit.MaxDataPerDayMB, _ = flags.GetInt("max-data-per-day")
	}
	return sc
}
