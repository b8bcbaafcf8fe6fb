package main

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

	"github.com/UnknownOlympus/aether/internal/airquality"
	"github.com/UnknownOlympus/aether/internal/config"
	"github.com/UnknownOlympus/aether/internal/export"
	"github.com/UnknownOlympus/aether/internal/geocoding"
	"github.com/UnknownOlympus/aether/internal/metrics"
	"github.com/UnknownOlympus/aether/internal/service"
	"github.com/UnknownOlympus/aether/internal/web"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	if cfg.Env == envLocal {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create a separate registry for metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	geocoder := geocoding.NewGoogleProvider(geocoding.NewClientFactory(geocoding.GoogleConfig{
		BaseURL:   cfg.GeocodingBaseURL,
		RateLimit: cfg.RateLimit,
		Timeout:   cfg.RequestTimeout,
	}), logger)

	airQuality := airquality.NewOpenWeatherProvider(airquality.OpenWeatherConfig{
		BaseURL:   cfg.AirQualityURL,
		RateLimit: cfg.RateLimit,
		Timeout:   cfg.RequestTimeout,
	}, logger)

	lookup := service.NewLookupService(
		logger,
		geocoder,
		airQuality,
		export.NewCSVExporter(),
		appMetrics,
		cfg.OutputFile,
	)

	srv := web.NewServer(logger, lookup, reg, cfg.OutputFile)

	readTimeout := 5
	// A lookup makes two upstream calls, each bounded by the request timeout.
	writeTimeout := 2*cfg.RequestTimeout + 5*time.Second
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: writeTimeout,
	}

	go func() {
		logger.InfoContext(ctx, "Starting web server", "port", cfg.Port, "output_file", cfg.OutputFile)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "Web server failed", "error", err)
			stop()
		}
	}()

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	logger.Info("Shutdown signal received. Stopping application...")

	shutdownTimeout := 10 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to stop web server gracefully", "error", err)
		return
	}

	logger.Info("Application stopped gracefully.")
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	dropTime := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelError,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
