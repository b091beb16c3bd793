package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/dingerzone/internal/adapters/http/api"
	"github.com/okian/dingerzone/internal/adapters/http/middleware"
	"github.com/okian/dingerzone/internal/adapters/http/site"
	"github.com/okian/dingerzone/internal/adapters/http/swagger"
	"github.com/okian/dingerzone/internal/adapters/upstream"
	app "github.com/okian/dingerzone/internal/app"
	"github.com/okian/dingerzone/internal/config"
	"github.com/okian/dingerzone/pkg/logger"
	"github.com/okian/dingerzone/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := newService(cfg, log)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	handler, err := newHandler(ctx, cfg, svc, log)
	if err != nil {
		log.Error(ctx, "failed to build HTTP handler", logger.Error(err))
		return
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.Bool("api_configured", cfg.APIBaseURL != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
}

// newService wires the upstream client behind the cached share service.
func newService(cfg *config.Config, log logger.Logger) *app.Service {
	client := upstream.New(cfg.APIBaseURL,
		upstream.WithTimeout(time.Duration(cfg.APITimeoutMS)*time.Millisecond),
		upstream.WithLogger(log.Named("upstream")),
	)
	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithFetcher(client),
		app.WithCacheTTL(time.Duration(cfg.ShareCacheTTLMS)*time.Millisecond),
		app.WithCacheSize(cfg.ShareCacheSize),
		app.WithCacheCleanup(time.Duration(cfg.ShareCacheCleanupMS)*time.Millisecond),
	)
}

// newHandler registers every route and wraps the mux with the shared
// middleware chain.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) (http.Handler, error) {
	mux := http.NewServeMux()

	siteServer, err := site.NewServer(svc, site.Config{
		SiteURL:       cfg.SiteURL,
		AppStoreURL:   cfg.AppStoreURL,
		AppDeepLink:   cfg.AppDeepLink,
		SupportEmail:  cfg.SupportEmail,
		FeedbackEmail: cfg.FeedbackEmail,
	}, site.WithLogger(log.Named("site")))
	if err != nil {
		return nil, err
	}

	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	siteServer.Register(ctx, mux)

	httpLog := log.Named("http")
	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(httpLog),
		middleware.Recover(httpLog, siteServer.HandleInternalError),
	), nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystem(m.Alloc, runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordGCPause(avgPauseMs)
	}
}

// updateServiceMetrics refreshes the cache gauge.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	if entries, ok := stats["cacheEntries"].(int); ok {
		metrics.UpdateCacheSize(entries)
	}
}
