// Package startup loads configuration from the environment, validates
// the data directories, and handles startup/shutdown logging.
package startup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"clipforge/internal/logging"
)

// Build-time variables (injected via -ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information.
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

// Config holds all application configuration.
type Config struct {
	Port        string
	MetricsPort string

	DataDir   string
	AssetsDir string
	RenderDir string

	RendererCmd   string
	PresetsFile   string
	FallbackAudio string
	RenderWorkers int

	LogStaticFiles  bool
	LogHealthChecks bool
	MetricsEnabled  bool
	PushOnDrag      bool

	// Derived paths
	DatabasePath string
	ThumbnailDir string
	AudioDir     string

	// Feature flags based on tool/directory availability
	ThumbnailsEnabled bool
	FFmpegAvailable   bool
}

// LoadConfig loads and validates configuration from environment variables.
func LoadConfig() (*Config, error) {
	printBanner()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		DataDir:         getEnv("DATA_DIR", "/data"),
		AssetsDir:       getEnv("ASSETS_DIR", "/assets"),
		RenderDir:       getEnv("RENDER_DIR", "/renders"),
		RendererCmd:     getEnv("RENDERER_CMD", "clipforge-render"),
		PresetsFile:     getEnv("PRESETS_FILE", ""),
		FallbackAudio:   getEnv("FALLBACK_AUDIO", ""),
		RenderWorkers:   getEnvInt("RENDER_WORKERS", 0),
		LogStaticFiles:  getEnvBool("LOG_STATIC_FILES", false),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", true),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		PushOnDrag:      getEnvBool("ENABLE_PUSH_ON_DRAG", false),
	}

	logging.Info("  PORT:               %s", cfg.Port)
	logging.Info("  METRICS_PORT:       %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:    %v", cfg.MetricsEnabled)
	logging.Info("  DATA_DIR:           %s", cfg.DataDir)
	logging.Info("  ASSETS_DIR:         %s", cfg.AssetsDir)
	logging.Info("  RENDER_DIR:         %s", cfg.RenderDir)
	logging.Info("  RENDERER_CMD:       %s", cfg.RendererCmd)
	logging.Info("  PRESETS_FILE:       %s", orNone(cfg.PresetsFile))
	logging.Info("  FALLBACK_AUDIO:     %s", orNone(cfg.FallbackAudio))
	logging.Info("  ENABLE_PUSH_ON_DRAG:%v", cfg.PushOnDrag)
	logging.Info("  LOG_LEVEL:          %s", logging.GetLevel())

	if err := ensureDirectory(cfg.DataDir, "data"); err != nil {
		return nil, err
	}
	if err := ensureDirectory(cfg.RenderDir, "render"); err != nil {
		return nil, err
	}
	if err := ensureDirectory(cfg.AssetsDir, "assets"); err != nil {
		return nil, err
	}

	cfg.DatabasePath = filepath.Join(cfg.DataDir, "clipforge.db")
	cfg.ThumbnailDir = filepath.Join(cfg.DataDir, "thumbnails")
	cfg.AudioDir = filepath.Join(cfg.DataDir, "audio")
	for _, dir := range []string{cfg.ThumbnailDir, cfg.AudioDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	cfg.ThumbnailsEnabled = true

	cfg.FFmpegAvailable = checkFFmpeg()
	if !cfg.FFmpegAvailable {
		logging.Warn("  ffmpeg not found; audio extraction and video posters disabled")
	}

	return cfg, nil
}

// LogHTTPRoutes walks the router and logs every registered route.
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP ROUTES")
	logging.Info("------------------------------------------------------------")
	_ = router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tmpl, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			logging.Info("  ALL %s", tmpl)
			return nil
		}
		logging.Info("  %s %s", strings.Join(methods, ","), tmpl)
		return nil
	})
}

// LogServerStarted reports readiness after startup completes.
func LogServerStarted(port string, elapsed time.Duration) {
	logging.Info("------------------------------------------------------------")
	logging.Info("Server listening on :%s (started in %s)", port, elapsed.Round(time.Millisecond))
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs one step of graceful shutdown.
func LogShutdownStep(step string) {
	logging.Info("Shutdown: %s", step)
}

// LogFatal logs and exits.
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	logging.Printf("clipforge %s (%s) built %s with %s", Version, Commit, BuildTime, GoVersion)
}

func ensureDirectory(path, name string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("%s directory %s does not exist and could not be created: %w", name, path, err)
		}
		logging.Info("  Created %s directory: %s", name, path)
		return testWriteAccess(path)
	}
	if err != nil {
		return fmt.Errorf("cannot access %s directory %s: %w", name, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s path %s is not a directory", name, path)
	}
	return testWriteAccess(path)
}

func testWriteAccess(dir string) error {
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("directory %s is not writable: %w", dir, err)
	}
	return os.Remove(probe)
}

func checkFFmpeg() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
