// Package media generates thumbnails for uploaded assets so the editor's
// media panel can show previews. Images go through libvips when available
// and fall back to pure-Go decoding; video posters come from ffmpeg.
package media

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"clipforge/internal/logging"
	"clipforge/internal/metrics"
)

const (
	thumbWidth  = 320
	thumbHeight = 180
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".webm": true, ".mov": true, ".mkv": true, ".avi": true,
}

// ThumbnailGenerator produces and caches asset thumbnails on disk.
type ThumbnailGenerator struct {
	cacheDir string
	enabled  bool
}

// NewThumbnailGenerator creates a generator caching under cacheDir.
func NewThumbnailGenerator(cacheDir string, enabled bool) *ThumbnailGenerator {
	return &ThumbnailGenerator{cacheDir: cacheDir, enabled: enabled}
}

// IsEnabled reports whether thumbnail generation is active.
func (t *ThumbnailGenerator) IsEnabled() bool {
	return t.enabled
}

// Supported reports whether a thumbnail can be generated for the file.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return imageExtensions[ext] || videoExtensions[ext]
}

// Thumbnail returns JPEG thumbnail bytes for the asset, generating and
// caching on first use.
func (t *ThumbnailGenerator) Thumbnail(ctx context.Context, assetPath string) ([]byte, error) {
	if !t.enabled {
		return nil, fmt.Errorf("thumbnails disabled")
	}
	cachePath := t.cachePath(assetPath)
	if data, err := os.ReadFile(cachePath); err == nil {
		return data, nil
	}

	ext := strings.ToLower(filepath.Ext(assetPath))
	kind := "image"
	var img image.Image
	var err error
	switch {
	case imageExtensions[ext]:
		img, err = t.loadImage(assetPath)
	case videoExtensions[ext]:
		kind = "video"
		img, err = t.videoPoster(ctx, assetPath)
	default:
		return nil, fmt.Errorf("unsupported asset type %q", ext)
	}
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues(kind, "error").Inc()
		return nil, err
	}

	thumb := imaging.Fit(img, thumbWidth, thumbHeight, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	if err := os.WriteFile(cachePath, buf.Bytes(), 0o644); err != nil {
		logging.Warn("Failed to cache thumbnail for %s: %v", assetPath, err)
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues(kind, "success").Inc()
	return buf.Bytes(), nil
}

func (t *ThumbnailGenerator) loadImage(path string) (image.Image, error) {
	if img, err := loadWithVips(path, thumbWidth, thumbHeight); err == nil {
		return img, nil
	}
	// Pure-Go fallback. imaging handles orientation; the blank imports
	// above register webp and bmp decoders for formats it defers to
	// image.Decode for.
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// videoPoster grabs a frame one second in as the video's preview image.
func (t *ThumbnailGenerator) videoPoster(ctx context.Context, path string) (image.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-ss", "1",
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg poster frame failed for %s: %w", path, err)
	}
	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode poster frame: %w", err)
	}
	return img, nil
}

func (t *ThumbnailGenerator) cachePath(assetPath string) string {
	sum := sha1.Sum([]byte(assetPath))
	return filepath.Join(t.cacheDir, hex.EncodeToString(sum[:])+".jpg")
}
