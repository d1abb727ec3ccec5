package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photo-triage/internal/analysis"
	"photo-triage/internal/database"
	"photo-triage/internal/filesystem"
	"photo-triage/internal/handlers"
	"photo-triage/internal/logging"
	"photo-triage/internal/media"
	"photo-triage/internal/memory"
	"photo-triage/internal/metrics"
	"photo-triage/internal/middleware"
	"photo-triage/internal/realtime"
	"photo-triage/internal/startup"
	"photo-triage/internal/thumbcache"
	"photo-triage/internal/triage"
	"photo-triage/internal/workers"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

const (
	metricsInterval = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

// services groups the components stopped on shutdown.
type services struct {
	srv       *http.Server
	ctrl      *triage.Controller
	collector *metrics.Collector
	monitor   *memory.Monitor
	stopHub   context.CancelFunc
}

func main() {
	startTime := time.Now()

	if err := godotenv.Load(); err != nil {
		logging.Debug("No .env file loaded: %v", err)
	}

	memResult := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	startup.LogMemoryConfig(memResult)
	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	cache, err := thumbcache.New(config.Options.CacheCapacity)
	if err != nil {
		startup.LogFatal("Failed to create preview cache: %v", err)
	}

	budget := workers.Budget(config.Options.WorkerBudget)
	if config.UseVips {
		media.InitVips(budget)
		defer media.ShutdownVips()
	}
	startup.LogAnalyzerInit(config.UseVips, media.IsVipsAvailable(), budget)

	loader := media.NewLoader(cache, config.PreviewSize)
	analyzer := analysis.NewImageAnalyzer(loader, analysis.ImageAnalyzerConfig{
		ReadCaptureTime: true,
		ReadRating:      true,
	})

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	hub := realtime.NewHub(config.AllowedOrigins...)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	ctrl, err := triage.New(triage.Config{
		Options:      config.Options,
		Scanner:      config.Scanner,
		Analyzer:     analyzer,
		Cache:        cache,
		Persistence:  db,
		Surface:      hub,
		Backpressure: monitor,
	})
	if err != nil {
		startup.LogFatal("Failed to create triage controller: %v", err)
	}

	collector := metrics.NewCollector(ctrl, metricsInterval)
	collector.Start()

	resumeFolder(ctrl, db, os.Args[1:])

	router := mux.NewRouter()
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	handlers.New(handlers.Config{
		Controller: ctrl,
		Previews:   loader,
		Store:      db,
		Events:     http.HandlerFunc(hub.ServeWS),
		Metrics:    config.MetricsEnabled,
	}).RegisterRoutes(router)

	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(loggedHandler)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan struct{})
	go handleShutdown(services{
		srv:       srv,
		ctrl:      ctrl,
		collector: collector,
		monitor:   monitor,
		stopHub:   stopHub,
	}, done)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

// resumeFolder loads the folder named in args, or the folder loaded before
// the last restart. It returns the folder loaded, "" if none.
func resumeFolder(ctrl *triage.Controller, db *database.Database, args []string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	folder := ""
	if len(args) > 0 {
		folder = args[0]
	} else if last, err := db.LastFolder(ctx); err == nil {
		folder = last
	}
	if folder == "" {
		return ""
	}
	if info, err := os.Stat(folder); err != nil || !info.IsDir() {
		logging.Warn("Not loading %s: not a readable directory", folder)
		return ""
	}
	if err := ctrl.LoadFolder(folder); err != nil {
		logging.Warn("Failed to load %s: %v", folder, err)
		return ""
	}
	loaded := ctrl.Snapshot().Folder
	if err := db.SetLastFolder(ctx, loaded); err != nil {
		logging.Warn("Failed to remember folder %s: %v", loaded, err)
	}
	return loaded
}

func handleShutdown(s services, done chan<- struct{}) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := s.srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping metrics collector")
	s.collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Closing triage session")
	if err := s.ctrl.Close(); err != nil {
		logging.Warn("Session close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Pending decisions saved")
	}

	startup.LogShutdownStep("Stopping event hub")
	s.stopHub()
	startup.LogShutdownStepComplete("Event hub stopped")

	startup.LogShutdownStep("Stopping memory monitor")
	s.monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	startup.LogShutdownComplete()
}
