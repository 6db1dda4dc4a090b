// Package audio extracts the audio track from video files for the
// detach-audio flow. Extraction shells out to ffmpeg; a bundled fallback
// clip backs the never-fail policy so a failed extraction still leaves
// the user with a playable sound overlay.
package audio

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"clipforge/internal/logging"
	"clipforge/internal/metrics"
)

// Extractor turns video files into standalone audio files.
type Extractor struct {
	outDir   string
	fallback string
	timeout  time.Duration
}

// NewExtractor creates an extractor writing audio files under outDir.
// fallback is the path of the bundled clip substituted when extraction
// fails; it may be empty, in which case failures surface as errors.
func NewExtractor(outDir, fallback string) *Extractor {
	return &Extractor{
		outDir:   outDir,
		fallback: fallback,
		timeout:  2 * time.Minute,
	}
}

// Fallback returns the bundled substitute clip path, empty when none is
// configured.
func (e *Extractor) Fallback() string {
	return e.fallback
}

// Extract strips the video stream from the file at videoPath and writes
// an AAC audio file, returning its path. The input file is untouched.
func (e *Extractor) Extract(ctx context.Context, videoPath string) (string, error) {
	start := time.Now()

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("extract audio: %w", err)
	}
	outPath := filepath.Join(e.outDir, "audio-"+hex.EncodeToString(buf)+".m4a")

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", videoPath,
		"-vn",
		"-acodec", "aac",
		"-b:a", "192k",
		"-y",
		outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(outPath)
		metrics.AudioExtractionsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("ffmpeg audio extraction failed: %w - %s", err, tail(stderr.String(), 300))
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(outPath)
		metrics.AudioExtractionsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("ffmpeg produced no audio output for %s", videoPath)
	}

	metrics.AudioExtractionsTotal.WithLabelValues("ok").Inc()
	metrics.AudioExtractionDuration.Observe(time.Since(start).Seconds())
	logging.Debug("Extracted audio from %s to %s in %s", videoPath, outPath, time.Since(start).Round(time.Millisecond))
	return outPath, nil
}

// ExtractOrFallback applies the never-fail policy: on extraction failure
// it logs the error and returns the bundled fallback clip instead. The
// second return reports whether the fallback was used.
func (e *Extractor) ExtractOrFallback(ctx context.Context, videoPath string) (string, bool) {
	out, err := e.Extract(ctx, videoPath)
	if err == nil {
		return out, false
	}
	logging.Warn("Audio extraction failed, substituting fallback clip: %v", err)
	metrics.AudioExtractionsTotal.WithLabelValues("fallback").Inc()
	return e.fallback, true
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
