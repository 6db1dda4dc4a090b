package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseWriterCapturesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusTeapot)
	rw.WriteHeader(http.StatusOK) // second call ignored
	if rw.statusCode != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", rw.statusCode)
	}

	n, err := rw.Write([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if rw.bytesWritten != 5 {
		t.Errorf("Expected 5 bytes recorded, got %d", rw.bytesWritten)
	}
}

func TestResponseWriterDefaultsTo200(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	_, _ = rw.Write([]byte("implicit"))
	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected implicit 200, got %d", rw.statusCode)
	}
}

func TestCompressionGzipsJSON(t *testing.T) {
	handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))

	req := httptest.NewRequest("GET", "/api/projects", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Expected gzip encoding, got %q", got)
	}
	gr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("Failed to open gzip reader: %v", err)
	}
	body, err := io.ReadAll(gr)
	if err != nil {
		t.Fatalf("Failed to decompress: %v", err)
	}
	if string(body) != `{"status":"ok"}` {
		t.Errorf("Unexpected body %q", body)
	}
}

func TestCompressionSkipsMediaTypes(t *testing.T) {
	handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte("binary-ish"))
	}))

	req := httptest.NewRequest("GET", "/api/assets/file/a.mp4", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") == "gzip" {
		t.Error("Media bytes should pass through uncompressed")
	}
	if rec.Body.String() != "binary-ish" {
		t.Errorf("Unexpected body %q", rec.Body.String())
	}
}

func TestCompressionSkipsWithoutAcceptHeader(t *testing.T) {
	handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))

	req := httptest.NewRequest("GET", "/api/projects", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") == "gzip" {
		t.Error("Should not compress without Accept-Encoding: gzip")
	}
	if rec.Body.String() != `{}` {
		t.Errorf("Unexpected body %q", rec.Body.String())
	}
}

func TestIsStaticPath(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/static/app.js", true},
		{"/static/style.css", true},
		{"/favicon.ico", true},
		{"/api/projects", false},
		{"/api/assets/file/clip.mp4", false},
	}

	for _, tt := range tests {
		if got := isStaticPath(tt.path); got != tt.expected {
			t.Errorf("isStaticPath(%q) = %v, want %v", tt.path, got, tt.expected)
		}
	}
}

func TestSanitizePath(t *testing.T) {
	got := sanitizePath("/api/projects\n[INFO] forged")
	if got != "/api/projects_[INFO] forged" {
		t.Errorf("sanitizePath did not strip control characters: %q", got)
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/api/projects", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Logger altered the response: %d", rec.Code)
	}
}
