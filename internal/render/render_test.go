package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipforge/internal/timeline"
)

func TestDefaultPresets(t *testing.T) {
	presets := DefaultPresets()

	for _, format := range []string{"mp4", "webm", "gif", "wav", "mp3"} {
		p, ok := presets[format]
		if !ok {
			t.Errorf("Missing default preset %q", format)
			continue
		}
		if p.Extension == "" || p.Codec == "" {
			t.Errorf("Preset %q incomplete: %+v", format, p)
		}
	}
	if !presets["wav"].AudioOnly || !presets["mp3"].AudioOnly {
		t.Error("Audio formats should be marked audioOnly")
	}
	if presets["mp4"].AudioOnly {
		t.Error("mp4 should not be audioOnly")
	}
}

func TestLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	content := `presets:
  - format: mp4
    extension: .mp4
    codec: h265
    args: ["--crf", "20"]
  - format: prores
    extension: .mov
    codec: prores_ks
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write presets file: %v", err)
	}

	presets, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets failed: %v", err)
	}
	if len(presets) != 2 {
		t.Fatalf("Expected 2 presets, got %d", len(presets))
	}
	mp4 := presets["mp4"]
	if mp4.Codec != "h265" || len(mp4.Args) != 2 || mp4.Args[0] != "--crf" {
		t.Errorf("Unexpected mp4 preset: %+v", mp4)
	}
	if presets["prores"].Extension != ".mov" {
		t.Errorf("Unexpected prores preset: %+v", presets["prores"])
	}
}

func TestLoadPresetsRejectsIncomplete(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Missing extension", "presets:\n  - format: mp4\n    codec: h264\n"},
		{"Missing format", "presets:\n  - extension: .mp4\n    codec: h264\n"},
		{"Empty file", "presets: []\n"},
		{"Not yaml", "{{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "presets.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("Failed to write presets file: %v", err)
			}
			if _, err := LoadPresets(path); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadPresetsMissingFile(t *testing.T) {
	if _, err := LoadPresets(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func testSnapshot() timeline.Snapshot {
	e := timeline.NewEditor(900)
	e.SetProject("test", "16:9")
	return e.Snapshot()
}

func TestSubmitUnknownFormat(t *testing.T) {
	m := NewManager(t.TempDir(), "true", nil, nil, 1)
	defer m.Stop(context.Background())

	_, err := m.Submit(Request{CompositionID: "c1", Snapshot: testSnapshot(), Format: "avi"})
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
}

func TestPollUnknownJob(t *testing.T) {
	m := NewManager(t.TempDir(), "true", nil, nil, 1)
	defer m.Stop(context.Background())

	if _, err := m.Poll("deadbeef"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("Expected ErrUnknownJob, got %v", err)
	}
}

func TestSubmitRendererMissing(t *testing.T) {
	m := NewManager(t.TempDir(), "/nonexistent/renderer-binary", nil, nil, 1)
	defer m.Stop(context.Background())

	id, err := m.Submit(Request{CompositionID: "c1", Snapshot: testSnapshot(), Format: "mp4"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	job := waitForTerminal(t, m, id)
	if job.Status != StatusError {
		t.Errorf("Expected error status, got %q", job.Status)
	}
	if job.Message == "" {
		t.Error("Expected a failure message")
	}
}

func TestSubmitRendererSucceeds(t *testing.T) {
	outDir := t.TempDir()

	// A stand-in renderer that emits progress and writes its output file.
	script := filepath.Join(outDir, "fake-renderer.sh")
	content := `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--output" ]; then out="$2"; shift; fi
  shift
done
echo "progress=0.5"
echo "progress=1.0"
echo "rendered" > "$out"
`
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatalf("Failed to write fake renderer: %v", err)
	}

	m := NewManager(outDir, script, nil, nil, 1)
	defer m.Stop(context.Background())

	id, err := m.Submit(Request{CompositionID: "c1", Snapshot: testSnapshot(), Format: "mp4"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	job := waitForTerminal(t, m, id)
	if job.Status != StatusDone {
		t.Fatalf("Expected done, got %q (%s)", job.Status, job.Message)
	}
	if job.Progress != 1 {
		t.Errorf("Expected progress 1, got %v", job.Progress)
	}
	if job.URL != "/api/renders/"+id+"/file" {
		t.Errorf("Unexpected output URL %q", job.URL)
	}
	if job.Size == 0 {
		t.Error("Expected non-zero output size")
	}

	// The composition payload is cleaned up after the run.
	if _, err := os.Stat(filepath.Join(outDir, id+".composition.json")); !os.IsNotExist(err) {
		t.Error("Expected composition payload to be removed")
	}
	if _, err := os.Stat(filepath.Join(outDir, id+".mp4")); err != nil {
		t.Errorf("Expected output file: %v", err)
	}
}

func TestSubmitUsesPresetCodecByDefault(t *testing.T) {
	m := NewManager(t.TempDir(), "/nonexistent/renderer-binary", nil, nil, 1)
	defer m.Stop(context.Background())

	req := Request{CompositionID: "c1", Snapshot: testSnapshot(), Format: "webm"}
	id, err := m.Submit(req)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if id == "" {
		t.Error("Expected a job id")
	}
}

func waitForTerminal(t *testing.T, m *Manager, id string) *Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := m.Poll(id)
		if err != nil {
			t.Fatalf("Poll failed: %v", err)
		}
		if job.Status != StatusPending {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for render to finish")
	return nil
}
