package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clipforge/internal/audio"
	"clipforge/internal/database"
	"clipforge/internal/handlers"
	"clipforge/internal/logging"
	"clipforge/internal/media"
	"clipforge/internal/metrics"
	"clipforge/internal/middleware"
	"clipforge/internal/render"
	"clipforge/internal/startup"
	"clipforge/internal/workers"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Clean up expired sessions periodically
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			db.CleanExpiredSessions()
		}
	}()

	media.InitVips()
	defer media.ShutdownVips()

	presets := render.DefaultPresets()
	if config.PresetsFile != "" {
		presets, err = render.LoadPresets(config.PresetsFile)
		if err != nil {
			startup.LogFatal("Failed to load render presets: %v", err)
		}
		logging.Info("Loaded %d render preset(s) from %s", len(presets), config.PresetsFile)
	}

	workerCount := config.RenderWorkers
	if workerCount <= 0 {
		workerCount = workers.ForCPU(4)
	}
	renderMgr := render.NewManager(config.RenderDir, config.RendererCmd, presets, db, workerCount)

	extractor := audio.NewExtractor(config.AudioDir, config.FallbackAudio)

	h := handlers.New(db, renderMgr, extractor, config)

	router := setupRouter(h)
	startup.LogHTTPRoutes(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	var handler http.Handler = router
	handler = h.AuthMiddleware(handler)
	handler = middleware.Metrics(handler)
	handler = middleware.Logger(loggingConfig)(handler)
	handler = middleware.Compression(handler)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		go serveMetrics(config.MetricsPort)
	}

	go handleShutdown(srv, renderMgr)

	startup.LogServerStarted(config.Port, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health and version (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Auth
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/setup-required", h.CheckSetupRequired).Methods("GET")
	auth.HandleFunc("/setup", h.Setup).Methods("POST")
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/logout", h.Logout).Methods("POST")
	auth.HandleFunc("/check", h.CheckAuth).Methods("GET")

	// Projects and autosave
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/projects", h.ListProjects).Methods("GET")
	api.HandleFunc("/projects", h.CreateProject).Methods("POST")
	api.HandleFunc("/projects/{id}", h.GetProject).Methods("GET")
	api.HandleFunc("/projects/{id}", h.UpdateProject).Methods("PUT")
	api.HandleFunc("/projects/{id}", h.DeleteProject).Methods("DELETE")
	api.HandleFunc("/projects/{id}/autosave", h.GetAutosave).Methods("GET")
	api.HandleFunc("/projects/{id}/autosave", h.SaveAutosave).Methods("PUT")
	api.HandleFunc("/projects/{id}/ops", h.ApplyTimelineOp).Methods("POST")

	// Templates
	api.HandleFunc("/templates", h.ListTemplates).Methods("GET")
	api.HandleFunc("/templates", h.CreateTemplate).Methods("POST")
	api.HandleFunc("/templates/{id}", h.GetTemplate).Methods("GET")
	api.HandleFunc("/templates/{id}", h.DeleteTemplate).Methods("DELETE")

	// Renders
	api.HandleFunc("/render", h.SubmitRender).Methods("POST")
	api.HandleFunc("/render/{id}", h.PollRender).Methods("GET")
	api.HandleFunc("/renders", h.ListRenders).Methods("GET")
	api.HandleFunc("/renders/{id}", h.DeleteRender).Methods("DELETE")
	api.HandleFunc("/renders/{id}/file", h.ServeRenderFile).Methods("GET")
	api.HandleFunc("/presets", h.ListPresets).Methods("GET")

	// Assets and audio
	api.HandleFunc("/assets", h.ListAssets).Methods("GET")
	api.HandleFunc("/assets", h.UploadAsset).Methods("POST")
	api.HandleFunc("/assets/file/{name}", h.ServeAsset).Methods("GET")
	api.HandleFunc("/assets/file/{name}", h.DeleteAsset).Methods("DELETE")
	api.HandleFunc("/thumbnail/{name}", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/extract-audio", h.ExtractAudio).Methods("POST")

	// Editor static files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./static")))

	return r
}

func serveMetrics(port string) {
	m := http.NewServeMux()
	m.Handle("/metrics", promhttp.Handler())
	logging.Info("Metrics listening on :%s", port)
	if err := http.ListenAndServe(":"+port, m); err != nil {
		logging.Error("Metrics server error: %v", err)
	}
}

func handleShutdown(srv *http.Server, renderMgr *render.Manager) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logging.Info("Received %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping render manager")
	renderMgr.Stop(ctx)

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}
	logging.Info("Shutdown complete")
}
