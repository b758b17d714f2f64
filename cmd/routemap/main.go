package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/raedapplebanon-spec/route-map/internal/app"
	"github.com/raedapplebanon-spec/route-map/internal/config"
	"github.com/raedapplebanon-spec/route-map/internal/middleware"
	"github.com/raedapplebanon-spec/route-map/internal/report"
	"github.com/raedapplebanon-spec/route-map/internal/utils"
)

const version = "1.0.0"

// configRefreshInterval is how often a remote configuration is re-fetched.
const configRefreshInterval = time.Minute

func main() {
	var (
		port       = flag.Int("port", 4000, "API server port")
		env        = flag.String("env", "development", "Environment (development|staging|production)")
		configFile = flag.String("config-file", "", "Path to a local JSON configuration file")
		configURL  = flag.String("config-url", "", "URL to a remote JSON configuration file")
		logFile    = flag.String("log-file", "", "Also write logs to this file, rotated by size")
	)

	flag.Parse()

	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	if err := config.ValidateConfigFlags(configFile, configURL); err != nil {
		fmt.Println("Error:", err)
		flag.Usage()
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(*env, *logFile)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := report.SetupSentry(*env, version); err != nil {
		logger.Warn("sentry disabled", "error", err)
	}
	defer report.FlushSentry()

	configAuthUser := os.Getenv("CONFIG_AUTH_USER")
	configAuthPass := os.Getenv("CONFIG_AUTH_PASS")

	client := app.NewPooledClient()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var settings config.Settings
	if *configFile != "" {
		settings, err = config.LoadConfigFromFile(*configFile)
	} else {
		settings, err = config.LoadConfigFromURL(ctx, client, *configURL, configAuthUser, configAuthPass)
	}
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		report.FlushSentry()
		os.Exit(1)
	}

	report.ConfigureScope(*env, version, settings.Directions.Provider)

	cfg := config.NewConfig(*port, *env, settings)
	application := app.New(cfg, logger, client, version)
	application.AllowedOrigins = middleware.ParseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	if *configURL != "" {
		go application.ConfigService.RefreshConfig(ctx, *configURL, configAuthUser, configAuthPass, configRefreshInterval)
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     application.Routes(ctx),
		IdleTimeout: time.Minute,
		ReadTimeout: 5 * time.Second,
		// GET /route may wait for a plan to finish
		WriteTimeout: 90 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env, "provider", settings.Directions.Provider)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			report.ReportError(err, sentry.LevelFatal)
			report.FlushSentry()
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}
}

// newLogger writes text logs to stdout and, with a log file, to a rotating
// file as well. Development logs include debug records.
func newLogger(env, logFile string) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if env == "development" {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stdout
	closeLog := func() {}

	if logFile != "" {
		if err := utils.EnsureDirectory(filepath.Dir(logFile)); err != nil {
			return nil, nil, fmt.Errorf("failed to prepare log directory: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 7,
			MaxAge:     7, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closeLog = func() { _ = rotator.Close() }
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), closeLog, nil
}
