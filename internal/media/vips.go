package media

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"

	"clipforge/internal/logging"
)

var (
	vipsMu        sync.Mutex
	vipsStarted   bool
	vipsAvailable bool
)

// InitVips starts libvips once at server startup. Thumbnailing works
// without it via the pure-Go path; vips is the memory-efficient fast
// path because it shrinks during decode.
func InitVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	if vipsStarted {
		return
	}

	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		if level <= vips.LogLevelError {
			logging.Error("[%s] %s", domain, msg)
		} else if level == vips.LogLevelWarning {
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vips.LogLevelWarning)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})
	vipsStarted = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	if vipsStarted {
		vips.Shutdown()
		vipsStarted = false
		vipsAvailable = false
	}
}

func vipsReady() bool {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	return vipsAvailable
}

// loadWithVips decodes and shrinks an image in one pass through libvips.
func loadWithVips(path string, width, height int) (image.Image, error) {
	if !vipsReady() {
		return nil, fmt.Errorf("libvips not available")
	}
	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	if err := ref.Thumbnail(width, height, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}
	data, _, err := ref.ExportJpeg(&vips.JpegExportParams{Quality: 90, OptimizeCoding: true})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}
