package render

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset describes one export target: the container format, the codec
// handed to the renderer, and any extra renderer arguments.
type Preset struct {
	Format    string   `yaml:"format"`
	Extension string   `yaml:"extension"`
	Codec     string   `yaml:"codec"`
	AudioOnly bool     `yaml:"audioOnly"`
	Args      []string `yaml:"args"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// DefaultPresets returns the built-in export targets used when no preset
// file is configured.
func DefaultPresets() map[string]Preset {
	return map[string]Preset{
		"mp4":  {Format: "mp4", Extension: ".mp4", Codec: "h264"},
		"webm": {Format: "webm", Extension: ".webm", Codec: "vp8"},
		"gif":  {Format: "gif", Extension: ".gif", Codec: "gif"},
		"wav":  {Format: "wav", Extension: ".wav", Codec: "pcm_s16le", AudioOnly: true},
		"mp3":  {Format: "mp3", Extension: ".mp3", Codec: "libmp3lame", AudioOnly: true},
	}
}

// LoadPresets reads export presets from a YAML file, keyed by format.
// Entries missing a format or extension are rejected so a half-written
// preset file fails loudly at startup instead of at render time.
func LoadPresets(path string) (map[string]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}
	var f presetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse presets file %s: %w", path, err)
	}
	if len(f.Presets) == 0 {
		return nil, fmt.Errorf("presets file %s contains no presets", path)
	}
	out := make(map[string]Preset, len(f.Presets))
	for i, p := range f.Presets {
		if p.Format == "" || p.Extension == "" {
			return nil, fmt.Errorf("preset %d in %s: format and extension are required", i, path)
		}
		out[p.Format] = p
	}
	return out, nil
}
