package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/cranach-archive/lighttable/internal/config"
	"github.com/cranach-archive/lighttable/internal/db"
	"github.com/cranach-archive/lighttable/internal/db/memory"
	dbRedis "github.com/cranach-archive/lighttable/internal/db/redis"
	"github.com/cranach-archive/lighttable/internal/domain/artifact"
	"github.com/cranach-archive/lighttable/internal/domain/search/result"
	logpkg "github.com/cranach-archive/lighttable/internal/logger"
	"github.com/cranach-archive/lighttable/internal/metrics"
	"github.com/cranach-archive/lighttable/internal/repository/localstore"
	"github.com/cranach-archive/lighttable/internal/rootstore"
	"github.com/cranach-archive/lighttable/internal/session"
	"github.com/cranach-archive/lighttable/internal/transport/archiveapi"
	chiTransport "github.com/cranach-archive/lighttable/internal/transport/chi"
	"github.com/cranach-archive/lighttable/internal/transport/meili"
	"github.com/cranach-archive/lighttable/internal/usecase/facetsearch"
	healthuc "github.com/cranach-archive/lighttable/internal/usecase/health"
	"github.com/cranach-archive/lighttable/internal/version"
)

// backend is a search backend serving every artifact kind.
type backend interface {
	QueryByIDs(ctx context.Context, ids []string, lang string) (*result.Result, error)
	HealthCheck(ctx context.Context) error
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting lighttable session server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("archive_driver", cfg.ArchiveAPI.Driver),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("search_mode", cfg.Search.Mode),
	)

	store, err := newStore(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to create session storage", zap.Error(err))
	}
	defer store.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Storage.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Session storage not ready", zap.Error(err))
	}
	logger.Info("Connected to session storage")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	search := newBackend(cfg.ArchiveAPI, logger)
	providers := providersFor(search)

	sessionTTL := time.Duration(cfg.Storage.SessionTTLSec) * time.Second
	opts := rootstore.Options{
		Mode:                  rootstore.Mode(cfg.Search.Mode),
		Debounce:              cfg.Search.Debounce(),
		PageSize:              cfg.Search.DefaultPageSize,
		ExtendedPageFactor:    cfg.Search.ExtendedPageFactor,
		DiscardStaleResponses: cfg.Search.DiscardStaleResponses,
		Lang:                  cfg.Search.DefaultLang,
		ComparisonURL:         cfg.Collection.ComparisonURL,
	}
	factory := func(ctx context.Context, id string) (*rootstore.RootStore, error) {
		sessionLogger := logger.With(zap.String("session", id))
		return rootstore.New(ctx, rootstore.Deps{
			Providers: providers,
			Lookup:    search,
			Storage:   localstore.New(store, cfg.Storage.KeyPrefix, id, sessionTTL, sessionLogger),
			Logger:    sessionLogger,
		}, opts)
	}

	maxIdle := time.Duration(cfg.Sessions.MaxIdleSec) * time.Second
	registry := session.NewRegistry(factory, maxIdle, logger)
	defer registry.Close()
	go registry.Run(ctx, maxIdle/2)

	healthSvc := healthuc.New(store, search)
	server := chiTransport.NewServer(registry, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func newStore(cfg config.StorageConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.StorageRedis, config.StorageValkey:
		// rueidis speaks RESP to both servers.
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Addrs,
			Password:   cfg.Password,
			ClientName: "lighttable",
		})
		if err != nil {
			return nil, fmt.Errorf("%s store: %w", cfg.Driver, err)
		}
		return s, nil
	default:
		return memory.NewStore(), nil
	}
}

func newBackend(cfg config.ArchiveAPIConfig, logger *zap.Logger) *searchBackend {
	if cfg.Driver == config.DriverMeilisearch {
		indexes := make(map[artifact.Kind]string, len(cfg.Meili.Indexes))
		for k, v := range cfg.Meili.Indexes {
			indexes[artifact.Kind(k)] = v
		}
		c := meili.NewClient(&meili.Config{
			URL:     cfg.Meili.URL,
			APIKey:  cfg.Meili.APIKey,
			Indexes: indexes,
			Logger:  logger,
		})
		return &searchBackend{
			backend:  c,
			provider: func(k artifact.Kind) facetsearch.SearchProvider { return c.Provider(k) },
		}
	}
	c := archiveapi.NewClient(&archiveapi.Config{
		BaseURL:  cfg.BaseURL,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  time.Duration(cfg.TimeoutSec) * time.Second,
		Logger:   logger,
	})
	return &searchBackend{
		backend:  c,
		provider: func(k artifact.Kind) facetsearch.SearchProvider { return c.Provider(k) },
	}
}

// searchBackend pairs a backend with its per-kind providers.
type searchBackend struct {
	backend
	provider func(artifact.Kind) facetsearch.SearchProvider
}

func providersFor(b *searchBackend) map[artifact.Kind]facetsearch.SearchProvider {
	kinds := []artifact.Kind{artifact.KindWorks, artifact.KindArchivals, artifact.KindLiteratureReferences}
	out := make(map[artifact.Kind]facetsearch.SearchProvider, len(kinds))
	for _, k := range kinds {
		out[k] = b.provider(k)
	}
	return out
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			route := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				route = rc.RoutePattern()
			}
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
