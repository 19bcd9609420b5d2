package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/textdup/sitescore/internal/cache"
	cacheMemory "github.com/textdup/sitescore/internal/cache/memory"
	cacheRedis "github.com/textdup/sitescore/internal/cache/redis"
	"github.com/textdup/sitescore/internal/config"
	"github.com/textdup/sitescore/internal/domain"
	"github.com/textdup/sitescore/internal/emit"
	"github.com/textdup/sitescore/internal/fetch"
	logpkg "github.com/textdup/sitescore/internal/logger"
	"github.com/textdup/sitescore/internal/metrics"
	"github.com/textdup/sitescore/internal/normalize"
	chiTransport "github.com/textdup/sitescore/internal/transport/chi"
	healthuc "github.com/textdup/sitescore/internal/usecase/health"
	"github.com/textdup/sitescore/internal/usecase/score"
	"github.com/textdup/sitescore/internal/version"
)

func main() {
	var (
		sourcesFile = flag.String("sources", "", "file with one source per line (URLs or local paths)")
		policyFlag  = flag.String("policy", "", "scoring policy: max-pairwise, mean-pairwise, overlap-ratio")
		formatFlag  = flag.String("format", "", "report format: csv, json")
		outputFlag  = flag.String("o", "", "report file (default: stdout)")
		serveFlag   = flag.Bool("serve", false, "expose the report over HTTP after scoring")
	)
	flag.Parse()

	// .env is optional; it only seeds variables for config expansion.
	_ = godotenv.Load()

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

	// Flags override the config file.
	if *policyFlag != "" {
		cfg.Score.Policy = *policyFlag
	}
	if *formatFlag != "" {
		cfg.Output.Format = *formatFlag
	}
	if *outputFlag != "" {
		cfg.Output.Path = *outputFlag
	}

	policy, err := score.ParsePolicy(cfg.Score.Policy)
	if err != nil {
		logger.Fatal("Invalid scoring policy", zap.Error(err))
	}
	format, err := emit.ParseFormat(cfg.Output.Format)
	if err != nil {
		logger.Fatal("Invalid report format", zap.Error(err))
	}

	sources := flag.Args()
	if *sourcesFile != "" {
		sources, err = readSources(*sourcesFile)
		if err != nil {
			logger.Fatal("Failed to read sources file", zap.Error(err))
		}
	}
	if len(sources) == 0 {
		logger.Fatal("No sources given; pass URLs as arguments or use -sources")
	}

	logger.Info("Starting sitescore",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("sources", len(sources)),
		zap.String("policy", string(policy)),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Bool("serve", *serveFlag),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create fetch cache based on driver
	var store cache.Cache
	switch cfg.Cache.Driver {
	case "memory":
		store = cacheMemory.NewStore()
	case "redis":
		redisStore, err := cacheRedis.NewStore(cacheRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create redis cache", zap.Error(err))
		}
		if err := redisStore.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache")
		store = redisStore
	case "none":
		// fetch every source fresh
	default:
		logger.Fatal("Unknown cache driver", zap.String("driver", cfg.Cache.Driver))
	}
	if store != nil {
		defer store.Close()
	}

	// Register run metrics explicitly (no init())
	metrics.RegisterRunMetrics()

	// Build the pipeline — composition root
	client := fetch.NewClient(logger).
		WithTimeout(time.Duration(cfg.Fetch.TimeoutSec) * time.Second).
		WithUserAgent(cfg.Fetch.UserAgent).
		WithMaxBody(cfg.Fetch.MaxBodyBytes)
	if store != nil {
		client = client.WithCache(store, time.Duration(cfg.Cache.TTLSec)*time.Second)
	}

	norm := normalize.New()
	if cfg.Normalize.CutAfter != "" || cfg.Normalize.CutBefore != "" {
		norm = norm.WithLandmarks(cfg.Normalize.CutAfter, cfg.Normalize.CutBefore)
	}

	pipe := fetch.NewPipeline(client, norm, logger).WithWorkers(cfg.Fetch.Workers)
	svc := score.New(pipe, logger).WithPolicy(policy).WithMinMatch(cfg.Score.MinMatch)

	if *serveFlag {
		serve(ctx, cfg, svc, store, sources, format, logger)
		return
	}

	report, err := svc.Run(ctx, sources)
	if err != nil {
		logger.Fatal("Scoring run failed", zap.Error(err))
	}
	if err := writeReport(cfg.Output.Path, format, report); err != nil {
		logger.Fatal("Failed to write report", zap.Error(err))
	}
}

// serve scores the corpus in the background and exposes the report,
// probes and metrics over HTTP until the process is signalled. /readyz
// stays 503 until the first run lands.
func serve(
	ctx context.Context,
	cfg config.Config,
	svc *score.Service,
	store cache.Cache,
	sources []string,
	format emit.Format,
	logger *zap.Logger,
) {
	// Pass nil interface (not typed nil pointer!) if the cache is disabled.
	// Go gotcha: (cache.Cache)((*redis.Store)(nil)) != nil.
	var pinger healthuc.CachePinger
	if store != nil {
		pinger = store
	}

	server := chiTransport.NewServer(healthuc.New(pinger), logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
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

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	go func() {
		report, err := svc.Run(ctx, sources)
		if err != nil {
			logger.Error("Scoring run failed", zap.Error(err))
			return
		}
		server.SetReport(report)
		if cfg.Output.Path != "" {
			if err := writeReport(cfg.Output.Path, format, report); err != nil {
				logger.Error("Failed to write report", zap.Error(err))
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// writeReport emits to the given path, or stdout when path is empty.
func writeReport(path string, format emit.Format, report *domain.Report) error {
	if path == "" {
		return emit.Write(os.Stdout, format, report)
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := emit.Write(f, format, report); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// readSources loads one source per line, skipping blank lines and
// #-comments.
func readSources(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
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
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
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

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
