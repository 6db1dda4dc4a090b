package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"clipforge/internal/logging"
	"clipforge/internal/media"
)

// maxUploadBytes caps asset uploads at 1 GiB.
const maxUploadBytes = 1 << 30

// AssetInfo describes one uploaded media asset.
type AssetInfo struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// UploadAsset accepts a multipart file upload into the assets directory.
func (h *Handlers) UploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := sanitizeAssetName(header.Filename)
	if name == "" {
		http.Error(w, "Invalid file name", http.StatusBadRequest)
		return
	}
	dst, err := os.Create(filepath.Join(h.assetsDir, name))
	if err != nil {
		http.Error(w, "Failed to store asset", http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	size, err := io.Copy(dst, file)
	if err != nil {
		http.Error(w, "Failed to store asset", http.StatusInternalServerError)
		return
	}
	logging.Info("Asset uploaded: %s (%d bytes)", name, size)
	writeJSON(w, http.StatusCreated, h.assetInfo(name, size))
}

// ListAssets returns the uploaded assets.
func (h *Handlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.assetsDir)
	if err != nil {
		http.Error(w, "Failed to list assets", http.StatusInternalServerError)
		return
	}
	assets := []AssetInfo{}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		assets = append(assets, h.assetInfo(e.Name(), info.Size()))
	}
	writeJSON(w, http.StatusOK, assets)
}

// ServeAsset streams an asset file.
func (h *Handlers) ServeAsset(w http.ResponseWriter, r *http.Request) {
	path, err := h.safeAssetPath(mux.Vars(r)["name"])
	if err != nil {
		http.Error(w, "Asset not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}

// DeleteAsset removes an asset file.
func (h *Handlers) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	path, err := h.safeAssetPath(mux.Vars(r)["name"])
	if err != nil {
		http.Error(w, "Asset not found", http.StatusNotFound)
		return
	}
	if err := os.Remove(path); err != nil {
		http.Error(w, "Failed to delete asset", http.StatusInternalServerError)
		return
	}
	writeOK(w)
}

// GetThumbnail serves an asset's generated thumbnail.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	path, err := h.safeAssetPath(mux.Vars(r)["name"])
	if err != nil {
		http.Error(w, "Asset not found", http.StatusNotFound)
		return
	}
	data, err := h.thumbGen.Thumbnail(r.Context(), path)
	if err != nil {
		http.Error(w, "Failed to generate thumbnail", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}

// ExtractAudioRequest asks for a standalone audio file from a video asset.
type ExtractAudioRequest struct {
	Src string `json:"src"`
}

// ExtractAudio runs audio extraction for a video asset and returns the
// resulting audio source. The fallback clip is substituted on failure,
// matching the detach-audio never-fail policy.
func (h *Handlers) ExtractAudio(w http.ResponseWriter, r *http.Request) {
	var req ExtractAudioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Src == "" {
		http.Error(w, "src is required", http.StatusBadRequest)
		return
	}
	if !h.ffmpeg {
		http.Error(w, "Audio extraction unavailable", http.StatusServiceUnavailable)
		return
	}
	path, err := h.safeAssetPath(req.Src)
	if err != nil {
		http.Error(w, "Asset not found", http.StatusNotFound)
		return
	}
	src, usedFallback := h.extractor.ExtractOrFallback(r.Context(), path)
	if src == "" {
		http.Error(w, "Audio extraction failed and no fallback is configured", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"src":      src,
		"fallback": usedFallback,
	})
}

func (h *Handlers) assetInfo(name string, size int64) AssetInfo {
	info := AssetInfo{Name: name, Size: size}
	if h.thumbGen.IsEnabled() && media.Supported(name) {
		info.ThumbnailURL = "/api/thumbnail/" + name
	}
	return info
}

// assetPath resolves an overlay src (an asset name or asset URL) to its
// path under the assets directory.
func (h *Handlers) assetPath(src string) string {
	src = strings.TrimPrefix(src, "/api/assets/file/")
	return filepath.Join(h.assetsDir, filepath.Base(src))
}

func (h *Handlers) safeAssetPath(name string) (string, error) {
	name = sanitizeAssetName(name)
	if name == "" {
		return "", fmt.Errorf("invalid asset name")
	}
	path := filepath.Join(h.assetsDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// sanitizeAssetName strips any directory components so uploads and
// lookups cannot escape the assets directory.
func sanitizeAssetName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}
