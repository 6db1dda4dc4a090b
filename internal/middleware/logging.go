package middleware

import (
	"net/http"
	"strings"
	"time"

	"clipforge/internal/logging"
)

// LoggingConfig controls which requests get logged.
type LoggingConfig struct {
	LogStaticFiles  bool
	LogHealthChecks bool
}

// DefaultLoggingConfig returns the defaults used by main.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{LogStaticFiles: false, LogHealthChecks: true}
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

var staticExtensions = []string{
	".css", ".js", ".ico", ".png", ".jpg", ".jpeg", ".gif", ".svg",
	".woff", ".woff2", ".ttf",
}

// Logger logs each request with method, path, status, size, and latency.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := newResponseWriter(w)
			start := time.Now()
			next.ServeHTTP(rw, r)

			if !config.LogHealthChecks && healthCheckPaths[r.URL.Path] {
				return
			}
			if !config.LogStaticFiles && isStaticPath(r.URL.Path) {
				return
			}
			logging.Info("%s %s %d %dB %s",
				r.Method, sanitizePath(r.URL.Path), rw.statusCode,
				rw.bytesWritten, time.Since(start).Round(time.Microsecond))
		})
	}
}

func isStaticPath(path string) bool {
	for _, ext := range staticExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// sanitizePath strips control characters so request paths cannot inject
// log lines.
func sanitizePath(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return '_'
		}
		return r
	}, s)
}
