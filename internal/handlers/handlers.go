// Package handlers implements the HTTP API: project and template
// persistence, autosave, server-side timeline operations, render job
// submission and polling, asset upload with thumbnails, audio
// extraction, and the editor's session auth.
package handlers

import (
	"clipforge/internal/audio"
	"clipforge/internal/database"
	"clipforge/internal/media"
	"clipforge/internal/render"
	"clipforge/internal/startup"
)

// Handlers bundles the collaborators every route needs.
type Handlers struct {
	db        *database.Database
	render    *render.Manager
	extractor *audio.Extractor
	thumbGen  *media.ThumbnailGenerator

	assetsDir  string
	pushOnDrag bool
	ffmpeg     bool
}

// New wires up the handler set.
func New(db *database.Database, rm *render.Manager, ex *audio.Extractor, config *startup.Config) *Handlers {
	return &Handlers{
		db:         db,
		render:     rm,
		extractor:  ex,
		thumbGen:   media.NewThumbnailGenerator(config.ThumbnailDir, config.ThumbnailsEnabled),
		assetsDir:  config.AssetsDir,
		pushOnDrag: config.PushOnDrag,
		ffmpeg:     config.FFmpegAvailable,
	}
}
