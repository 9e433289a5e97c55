package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devilmonastery/clubhouse/internal/client"
	"github.com/devilmonastery/clubhouse/internal/pkg/logger"
	"github.com/devilmonastery/clubhouse/internal/storage"
	"github.com/devilmonastery/clubhouse/web/internal/config"
	"github.com/devilmonastery/clubhouse/web/internal/handlers"
	"github.com/devilmonastery/clubhouse/web/internal/middleware"
	"github.com/devilmonastery/clubhouse/web/internal/render"
	"github.com/devilmonastery/clubhouse/web/internal/session"
)

// setupWebLogging configures the global logger for the web service
func setupWebLogging(logLevel, logFormat string) error {
	cfg := logger.Config{
		Level:       logger.ParseLevel(logLevel),
		LogToStderr: true, // Web service always logs to stderr
		Format:      logFormat,
	}

	globalLogger, err := logger.SetupLogger(cfg)
	if err != nil {
		return err
	}

	// Set as default logger so all slog.Info/Warn/Error calls use our configured logger
	slog.SetDefault(globalLogger)

	return nil
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging (must be done before any logging calls)
	if err = setupWebLogging(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to setup logging: %v\n", err)
		os.Exit(1)
	}

	log := logger.WithComponent(slog.Default(), "web")
	log.Info("starting clubhouse web service",
		slog.String("version", render.Version),
		slog.String("backend", cfg.Backend.URL))

	templates, err := render.LoadTemplates(cfg.Templates.Path, cfg.Server.Timezone)
	if err != nil {
		log.Error("failed to load templates", slog.Any("error", err))
		os.Exit(1)
	}
	render.LogTemplateNames(templates, log)

	sessionSecret, err := loadSessionSecret(cfg, log)
	if err != nil {
		log.Error("failed to set up session secret", slog.Any("error", err))
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Storage.Dir, 0o700); err != nil {
		log.Error("failed to create session storage", slog.String("dir", cfg.Storage.Dir), slog.Any("error", err))
		os.Exit(1)
	}
	credentials := storage.NewDisk(cfg.Storage.Dir)

	sessionMgr := session.NewManager(session.Options{
		Secret:      sessionSecret,
		MaxAge:      cfg.Session.MaxAge,
		IdleTimeout: cfg.Session.IdleTimeout,
		Secure:      cfg.Session.Secure,
		Storage:     credentials,
		Client: client.Config{
			BaseURL:        cfg.Backend.URL,
			Timeout:        cfg.Backend.Timeout,
			RefreshTimeout: cfg.Backend.RefreshTimeout,
			UserAgent:      "clubhouse-web/" + render.Version,
		},
		Logger: log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sessionMgr.Run(ctx, time.Minute)

	authMw := middleware.NewAuthMiddleware(sessionMgr, log)
	h := handlers.New(sessionMgr, templates, log)
	router := createRouter(h, authMw, log)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", slog.Any("error", err))
		}
	}
}

// loadSessionSecret picks the cookie signing key: env var > config file > random
func loadSessionSecret(cfg *config.WebServerConfig, log *slog.Logger) ([]byte, error) {
	// config.Load already applied SESSION_SECRET over the file value
	if cfg.Session.Secret != "" {
		secret, err := base64.StdEncoding.DecodeString(cfg.Session.Secret)
		if err == nil {
			log.Info("using configured session secret (sessions will persist across restarts)")
			return secret, nil
		}
		log.Warn("failed to decode session secret, generating a random one", slog.Any("error", err))
	} else {
		log.Warn("no session secret configured, generating random one (sessions won't persist)")
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate session secret: %w", err)
	}
	return secret, nil
}

// createRouter sets up the HTTP router with all routes and middleware
func createRouter(h *handlers.Handler, authMw *middleware.AuthMiddleware, log *slog.Logger) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.LogRequest(log))

	// Static files with version path: /static/{version}/...
	static := http.FileServer(http.FS(render.Static()))
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Remove version from path (format: {version}/file.ext)
		parts := strings.SplitN(r.URL.Path, "/", 2)
		if len(parts) == 2 {
			r.URL.Path = "/" + parts[1]
		}
		// Set aggressive cache headers for versioned assets
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		static.ServeHTTP(w, r)
	})))

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")

	// Version info endpoint
	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s"}`, render.Version)
	}).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	h.Register(router, authMw)
	return router
}
