package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photo-ingest/internal/blob"
	"photo-ingest/internal/catalog"
	"photo-ingest/internal/enumerate"
	"photo-ingest/internal/filesystem"
	"photo-ingest/internal/ingest"
	"photo-ingest/internal/logging"
	"photo-ingest/internal/mediatypes"
	"photo-ingest/internal/metrics"
	"photo-ingest/internal/progress"
	"photo-ingest/internal/render"
	"photo-ingest/internal/startup"
)

func main() {
	os.Exit(run())
}

func run() int {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		logging.Error("Configuration error: %v", err)
		return 1
	}

	build := startup.GetBuildInfo()
	metrics.SetAppInfo(build.Version, build.Commit, build.GoVersion)
	metrics.InitializeMetrics()

	// Route filesystem retry metrics through the observer and label paths
	// by the volume they live on.
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"source":   config.SourceDir,
		"blob":     config.BlobDir,
		"database": config.DatabaseDir,
	}))

	// libvips is optional; when unavailable the renderer falls back to the
	// pure-Go path.
	if err := render.InitVips(); err != nil {
		logging.Warn("libvips unavailable, using pure-Go rendering: %v", err)
	} else {
		defer render.ShutdownVips()
		mediatypes.EnableVipsFormats()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize catalog
	cat, err := catalog.Open(ctx, config.DatabasePath)
	if err != nil {
		logging.Error("Failed to initialize catalog: %v", err)
		return 1
	}
	defer cat.Close()

	if err := cat.EnsureAccount(ctx, config.Owner, config.QuotaLimitBytes); err != nil {
		logging.Error("Failed to ensure quota account: %v", err)
		return 1
	}

	col, err := cat.GetCollectionByTitle(ctx, config.Collection, config.Owner)
	if errors.Is(err, catalog.ErrNotFound) {
		col, err = cat.CreateCollection(ctx, config.Collection, config.Owner)
	}
	if err != nil {
		logging.Error("Failed to resolve collection %q: %v", config.Collection, err)
		return 1
	}

	blobs, err := blob.NewStore(config.BlobDir)
	if err != nil {
		logging.Error("Failed to open blob store: %v", err)
		return 1
	}

	// Enumerate candidates up front so progress totals are known before
	// the first item starts.
	candidates, err := enumerate.Enumerate(ctx, config.SourceDir)
	if err != nil {
		logging.Error("Enumeration failed: %v", err)
		return 1
	}
	startup.LogRunStarted(len(candidates), enumerate.TotalBytes(candidates))

	tracker := progress.NewTracker()
	tracker.Register(metrics.NewProgressObserver())

	// Serve /healthz, /progress, and /metrics while the run is active.
	var srv *http.Server
	if config.MetricsEnabled {
		srv = startMetricsServer(config.MetricsPort, tracker)
	}

	pipeline := &ingest.Pipeline{
		Catalog:      cat,
		Blobs:        blobs,
		Renderer:     render.NewRenderer(config.MaxSide, config.JPEGQuality),
		Tracker:      tracker,
		CollectionID: col.ID,
		Owner:        config.Owner,
		Workers:      config.Workers,
	}

	summary, runErr := pipeline.Run(ctx, candidates)
	startup.LogRunComplete(summary.Cataloged, summary.Skipped, summary.Failed, time.Since(startTime))
	if summary.Failed > 0 {
		logging.Warn("First failure: %s", summary.FirstFailure)
		for kind, count := range summary.ByKind {
			logging.Warn("  %s failures: %d", kind, count)
		}
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Metrics server shutdown: %v", err)
		}
	}

	if runErr != nil {
		startup.LogShutdownInitiated(runErr.Error())
		return 130
	}
	if summary.Failed > 0 {
		return 1
	}
	return 0
}

func startMetricsServer(port string, tracker *progress.Tracker) *http.Server {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")
	router.HandleFunc("/progress", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(tracker.Snapshot()); err != nil {
			logging.Error("Failed to encode progress snapshot: %v", err)
		}
	}).Methods("GET")
	router.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(startup.GetBuildInfo()); err != nil {
			logging.Error("Failed to encode build info: %v", err)
		}
	}).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.Use(metricsMiddleware)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Info("Metrics server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Metrics server error: %v", err)
		}
	}()
	return srv
}

// metricsMiddleware records request counts and latency for the small HTTP
// surface.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := r.URL.Path
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
