package startup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"

	"photo-triage/internal/logging"
	"photo-triage/internal/media"
	"photo-triage/internal/memory"
	"photo-triage/internal/scanner"
	"photo-triage/internal/triage"
	"photo-triage/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	Port            string
	DatabaseDir     string
	ConfigFile      string
	PreviewSize     int
	UseVips         bool
	MetricsEnabled  bool
	LogHealthChecks bool

	// AllowedOrigins are extra browser origins allowed on /ws
	AllowedOrigins []string

	// Options are the validated triage settings
	Options triage.Options
	// Scanner configures folder enumeration
	Scanner scanner.Config

	// Derived paths
	DatabasePath string
}

// LoadConfig loads and validates configuration from environment variables
// and the optional TRIAGE_CONFIG file. Environment values override the file.
// Invalid triage options return a *triage.RefusalError before any component
// starts.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config := &Config{
		Port:            getEnv("PORT", "8080"),
		DatabaseDir:     getEnv("DATABASE_DIR", "./data"),
		ConfigFile:      getEnv("TRIAGE_CONFIG", ""),
		PreviewSize:     media.DefaultPreviewSize,
		UseVips:         getEnvBool("USE_VIPS", false),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", false),
		AllowedOrigins:  getEnvList("WS_ALLOWED_ORIGINS"),
		Options:         triage.DefaultOptions(),
		Scanner:         scanner.DefaultConfig(),
	}

	if config.ConfigFile != "" {
		if err := loadOptionsFile(config.ConfigFile, &config.Options); err != nil {
			return nil, err
		}
		logging.Info("  Options file:        %s", config.ConfigFile)
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Options.Validate(); err != nil {
		return nil, err
	}

	opts := config.Options
	logging.Info("  PORT:                       %s", config.Port)
	logging.Info("  DATABASE_DIR:               %s", config.DatabaseDir)
	logging.Info("  KEEP_THRESHOLD:             %d", opts.KeepThreshold)
	logging.Info("  BURST_GAP_SECONDS:          %g", opts.BurstGapSeconds)
	logging.Info("  BURST_TIME_SOURCE:          %s", opts.BurstTimeSource)
	logging.Info("  DUPLICATE_SENSITIVITY:      %d", opts.DuplicateSensitivity)
	logging.Info("  ENABLE_BURST_GROUPING:      %v", opts.EnableBurstGrouping)
	logging.Info("  ENABLE_DUPLICATE_DETECTION: %v", opts.EnableDuplicateDetection)
	logging.Info("  REQUIRE_FACES:              %v", opts.RequireFaces)
	logging.Info("  CACHE_CAPACITY:             %d", opts.CacheCapacity)
	logging.Info("  WORKER_BUDGET:              %d (effective %d)", opts.WorkerBudget, workers.Budget(opts.WorkerBudget))
	logging.Info("  SCAN_BATCH_SIZE:            %d", config.Scanner.BatchSize)
	logging.Info("  SCAN_RECURSIVE:             %v", config.Scanner.Recursive)
	logging.Info("  PREVIEW_SIZE:               %d", config.PreviewSize)
	logging.Info("  USE_VIPS:                   %v", config.UseVips)
	logging.Info("  METRICS_ENABLED:            %v", config.MetricsEnabled)
	logging.Info("  WS_ALLOWED_ORIGINS:         %s", strings.Join(config.AllowedOrigins, ","))
	logging.Info("  LOG_LEVEL:                  %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	databaseDir, err := filepath.Abs(config.DatabaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	config.DatabaseDir = databaseDir
	config.DatabasePath = filepath.Join(databaseDir, "triage.db")
	logging.Info("  Database directory (absolute): %s", databaseDir)

	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	return config, nil
}

// loadOptionsFile overlays the YAML options file at path onto opts. Keys
// missing from the file keep their current value; unknown keys are errors.
func loadOptionsFile(path string, opts *triage.Options) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open options file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(opts); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse options file %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables onto config.
func applyEnv(config *Config) error {
	opts := &config.Options

	ints := []struct {
		key string
		dst *int
	}{
		{"KEEP_THRESHOLD", &opts.KeepThreshold},
		{"DUPLICATE_SENSITIVITY", &opts.DuplicateSensitivity},
		{"CACHE_CAPACITY", &opts.CacheCapacity},
		{"WORKER_BUDGET", &opts.WorkerBudget},
		{"SCAN_BATCH_SIZE", &config.Scanner.BatchSize},
		{"PREVIEW_SIZE", &config.PreviewSize},
	}
	for _, v := range ints {
		if err := envInt(v.key, v.dst); err != nil {
			return err
		}
	}

	if raw := os.Getenv("BURST_GAP_SECONDS"); raw != "" {
		gap, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid BURST_GAP_SECONDS %q: %w", raw, err)
		}
		opts.BurstGapSeconds = gap
	}
	if raw := os.Getenv("BURST_TIME_SOURCE"); raw != "" {
		opts.BurstTimeSource = raw
	}
	opts.BurstTimeSource = strings.ToLower(opts.BurstTimeSource)

	opts.EnableBurstGrouping = getEnvBool("ENABLE_BURST_GROUPING", opts.EnableBurstGrouping)
	opts.EnableDuplicateDetection = getEnvBool("ENABLE_DUPLICATE_DETECTION", opts.EnableDuplicateDetection)
	opts.DuplicatesWithinBursts = getEnvBool("DUPLICATES_WITHIN_BURSTS", opts.DuplicatesWithinBursts)
	opts.RequireFaces = getEnvBool("REQUIRE_FACES", opts.RequireFaces)
	config.Scanner.Recursive = getEnvBool("SCAN_RECURSIVE", config.Scanner.Recursive)

	if config.Scanner.BatchSize < 1 {
		return fmt.Errorf("SCAN_BATCH_SIZE must be at least 1, got %d", config.Scanner.BatchSize)
	}
	if config.PreviewSize < 0 {
		return fmt.Errorf("PREVIEW_SIZE must not be negative, got %d", config.PreviewSize)
	}
	return nil
}

func envInt(key string, dst *int) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	*dst = v
	return nil
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogAnalyzerInit logs the analysis pipeline setup
func LogAnalyzerInit(useVips, vipsAvailable bool, budget int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("ANALYZER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Worker budget:   %d", budget)
	switch {
	case !useVips:
		logging.Info("  Decoder:         imaging")
	case vipsAvailable:
		logging.Info("  Decoder:         libvips (imaging fallback)")
	default:
		logging.Warn("  libvips requested but unavailable, using imaging")
	}
}

// LogMemoryConfig logs how GOMEMLIMIT was configured
func LogMemoryConfig(result memory.ConfigResult) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if !result.Configured {
		logging.Info("  No memory limit configured (set MEMORY_LIMIT or GOMEMLIMIT)")
		return
	}
	switch result.Source {
	case "GOMEMLIMIT":
		logging.Info("  GOMEMLIMIT:      %s (from environment)", formatBytes(result.GoMemLimit))
	default:
		logging.Info("  Container limit: %s", formatBytes(result.ContainerLimit))
		logging.Info("  GOMEMLIMIT:      %s (%.0f%%)", formatBytes(result.GoMemLimit), result.Ratio*100)
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes at debug level
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")
	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://localhost:%s/api", config.Port)
	logging.Info("    Events:        ws://localhost:%s/ws", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.Port)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____  __          __           __       _
   / __ \/ /_  ____  / /_____     / /______(_)___ _____ ____
  / /_/ / __ \/ __ \/ __/ __ \   / __/ ___/ / __ '/ __ '/ _ \
 / ____/ / / / /_/ / /_/ /_/ /  / /_/ /  / / /_/ / /_/ /  __/
/_/   /_/ /_/\____/\__/\____/   \__/_/  /_/\__,_/\__, /\___/
                                                /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
