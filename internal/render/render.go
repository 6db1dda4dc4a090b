// Package render tracks server-side render jobs: it serializes the
// timeline into a composition payload, hands it to the external renderer
// process, and exposes submit/poll semantics over the result. The
// renderer itself is an opaque collaborator; this package only owns job
// bookkeeping, progress, and output files.
package render

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"clipforge/internal/database"
	"clipforge/internal/logging"
	"clipforge/internal/metrics"
	"clipforge/internal/timeline"
)

// Job statuses. A job is pending from submission until the renderer
// exits, then done or error.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusError   = "error"
)

// ErrUnknownFormat indicates a submit with no matching preset.
var ErrUnknownFormat = errors.New("unknown render format")

// ErrUnknownJob indicates a poll for a job id that was never submitted.
var ErrUnknownJob = errors.New("unknown render job")

// Request is the input payload for one render: the composition identity
// plus the serialized timeline state.
type Request struct {
	CompositionID string            `json:"compositionId"`
	ProjectID     int64             `json:"projectId,omitempty"`
	Snapshot      timeline.Snapshot `json:"snapshot"`
	Format        string            `json:"format"`
	Codec         string            `json:"codec,omitempty"`
}

// Job is the pollable state of a render.
type Job struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress,omitempty"`
	URL      string  `json:"url,omitempty"`
	Size     int64   `json:"size,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// Manager owns the render queue and worker pool.
type Manager struct {
	outDir      string
	rendererCmd string
	presets     map[string]Preset
	db          *database.Database

	jobs      map[string]*Job
	processes map[string]*exec.Cmd
	mu        sync.Mutex

	queue chan queued
	wg    sync.WaitGroup
	done  chan struct{}
}

type queued struct {
	id      string
	req     Request
	preset  Preset
	payload string // path to the serialized composition JSON
}

// NewManager creates a render manager writing outputs under outDir.
// rendererCmd is the external renderer binary; it receives the payload
// path and output path and reports progress as "progress=<0..1>" lines
// on stdout.
func NewManager(outDir, rendererCmd string, presets map[string]Preset, db *database.Database, workerCount int) *Manager {
	if presets == nil {
		presets = DefaultPresets()
	}
	if workerCount < 1 {
		workerCount = 1
	}
	m := &Manager{
		outDir:      outDir,
		rendererCmd: rendererCmd,
		presets:     presets,
		db:          db,
		jobs:        make(map[string]*Job),
		processes:   make(map[string]*exec.Cmd),
		queue:       make(chan queued, 64),
		done:        make(chan struct{}),
	}
	for i := 0; i < workerCount; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	logging.Info("Render manager started with %d worker(s), output dir %s", workerCount, outDir)
	return m
}

// Presets returns the configured export presets keyed by format.
func (m *Manager) Presets() map[string]Preset {
	return m.presets
}

// Submit validates and enqueues a render, returning the job handle id.
// The request's overlay state is serialized to disk immediately, so
// later edits to the project cannot leak into an in-flight render.
func (m *Manager) Submit(req Request) (string, error) {
	preset, ok := m.presets[req.Format]
	if !ok {
		return "", fmt.Errorf("submit render: %w: %q", ErrUnknownFormat, req.Format)
	}
	if req.Codec == "" {
		req.Codec = preset.Codec
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("submit render: %w", err)
	}
	id := hex.EncodeToString(buf)

	payload, err := m.writePayload(id, req)
	if err != nil {
		return "", err
	}
	if m.db != nil {
		if err := m.db.CreateRender(id, req.ProjectID, req.Format, req.Codec); err != nil {
			return "", err
		}
	}

	job := &Job{ID: id, Status: StatusPending}
	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	select {
	case m.queue <- queued{id: id, req: req, preset: preset, payload: payload}:
		metrics.RenderQueueDepth.Set(float64(len(m.queue)))
	case <-m.done:
		return "", errors.New("submit render: manager stopped")
	}
	logging.Info("Render %s submitted: composition=%s format=%s codec=%s overlays=%d",
		id, req.CompositionID, req.Format, req.Codec, len(req.Snapshot.Overlays))
	return id, nil
}

// Poll returns the current job state. Jobs from previous server runs are
// answered from the database.
func (m *Manager) Poll(id string) (*Job, error) {
	m.mu.Lock()
	if job, ok := m.jobs[id]; ok {
		out := *job
		m.mu.Unlock()
		return &out, nil
	}
	m.mu.Unlock()

	if m.db != nil {
		rec, err := m.db.GetRender(id)
		if errors.Is(err, database.ErrNoRows) {
			return nil, ErrUnknownJob
		}
		if err != nil {
			return nil, err
		}
		job := &Job{ID: rec.ID, Status: rec.Status, Progress: rec.Progress, Size: rec.Size, Message: rec.Message}
		if rec.Status == StatusDone {
			job.URL = outputURL(rec.ID)
		}
		return job, nil
	}
	return nil, ErrUnknownJob
}

// OutputPath returns the on-disk path for a finished render's file.
func (m *Manager) OutputPath(id string) (string, error) {
	rec, err := m.db.GetRender(id)
	if err != nil {
		return "", err
	}
	if rec.Status != StatusDone || rec.OutputPath == "" {
		return "", ErrUnknownJob
	}
	return rec.OutputPath, nil
}

// Stop drains the queue, kills running renderer processes, and waits for
// workers to exit or the context to expire.
func (m *Manager) Stop(ctx context.Context) {
	close(m.done)

	m.mu.Lock()
	for id, cmd := range m.processes {
		if cmd.Process != nil {
			logging.Warn("Killing render %s on shutdown", id)
			_ = cmd.Process.Kill()
		}
	}
	m.mu.Unlock()

	stopped := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		logging.Warn("Render manager shutdown timed out")
	}
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case q := <-m.queue:
			metrics.RenderQueueDepth.Set(float64(len(m.queue)))
			m.run(q)
		}
	}
}

func (m *Manager) run(q queued) {
	start := time.Now()
	metrics.RenderJobsInFlight.Inc()
	defer metrics.RenderJobsInFlight.Dec()

	outPath := filepath.Join(m.outDir, q.id+q.preset.Extension)
	args := []string{"--input", q.payload, "--output", outPath, "--codec", q.req.Codec}
	if q.preset.AudioOnly {
		args = append(args, "--audio-only")
	}
	args = append(args, q.preset.Args...)

	cmd := exec.Command(m.rendererCmd, args...)
	stdout, err := cmd.StdoutPipe()
	if err == nil {
		err = cmd.Start()
	}
	if err != nil {
		m.finish(q, start, StatusError, "", fmt.Sprintf("renderer failed to start: %v", err), 0)
		return
	}

	m.mu.Lock()
	m.processes[q.id] = cmd
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.processes, q.id)
		m.mu.Unlock()
	}()

	m.trackProgress(q.id, stdout)

	if err := cmd.Wait(); err != nil {
		m.finish(q, start, StatusError, "", fmt.Sprintf("renderer exited: %v", err), 0)
		return
	}
	info, err := os.Stat(outPath)
	if err != nil {
		m.finish(q, start, StatusError, "", "renderer produced no output", 0)
		return
	}
	m.finish(q, start, StatusDone, outPath, "", info.Size())
}

// trackProgress reads "progress=<fraction>" lines from the renderer.
func (m *Manager) trackProgress(id string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "progress=") {
			continue
		}
		p, err := strconv.ParseFloat(strings.TrimPrefix(line, "progress="), 64)
		if err != nil || p < 0 || p > 1 {
			continue
		}
		m.mu.Lock()
		if job, ok := m.jobs[id]; ok {
			job.Progress = p
		}
		m.mu.Unlock()
		if m.db != nil {
			_ = m.db.UpdateRenderProgress(id, p)
		}
	}
}

func (m *Manager) finish(q queued, start time.Time, status, outPath, message string, size int64) {
	m.mu.Lock()
	if job, ok := m.jobs[q.id]; ok {
		job.Status = status
		job.Message = message
		job.Size = size
		if status == StatusDone {
			job.Progress = 1
			job.URL = outputURL(q.id)
		}
	}
	m.mu.Unlock()

	if m.db != nil {
		if err := m.db.FinishRender(q.id, status, outPath, message, size); err != nil {
			logging.Error("Failed to record render %s result: %v", q.id, err)
		}
	}
	_ = os.Remove(q.payload)

	metrics.RenderJobsTotal.WithLabelValues(q.req.Format, status).Inc()
	metrics.RenderJobDuration.WithLabelValues(q.req.Format).Observe(time.Since(start).Seconds())
	if status == StatusError {
		logging.Error("Render %s failed: %s", q.id, message)
	} else {
		logging.Info("Render %s done in %s (%d bytes)", q.id, time.Since(start).Round(time.Millisecond), size)
	}
}

func (m *Manager) writePayload(id string, req Request) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to serialize composition: %w", err)
	}
	path := filepath.Join(m.outDir, id+".composition.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write composition payload: %w", err)
	}
	return path, nil
}

func outputURL(id string) string {
	return "/api/renders/" + id + "/file"
}
