// Package config loads editor configuration from an optional YAML file
// with environment overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// ServerURL points at the dialogue-layer service (cmd/layerd). Empty
	// means layers are read and written as files next to the scene
	// artifacts.
	ServerURL string `yaml:"server_url"`
	// SuggestURL points at the planning pipeline's suggestion endpoint.
	// Empty means only artifact-embedded suggestions are offered.
	SuggestURL string `yaml:"suggest_url"`
	// ScenesDir holds scene artifacts (and saved layers in file mode).
	ScenesDir string `yaml:"scenes_dir"`
	// ExportDir receives PNG previews.
	ExportDir string `yaml:"export_dir"`
}

func defaults() *Config {
	return &Config{
		ScenesDir: "scenes",
		ExportDir: "exports",
	}
}

// Load reads the YAML config at path if it exists, then applies env
// overrides. A missing file is not an error; a broken one is.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg.ServerURL = getEnv("BUBBLEEDIT_SERVER_URL", cfg.ServerURL)
	cfg.SuggestURL = getEnv("BUBBLEEDIT_SUGGEST_URL", cfg.SuggestURL)
	cfg.ScenesDir = getEnv("BUBBLEEDIT_SCENES_DIR", cfg.ScenesDir)
	cfg.ExportDir = getEnv("BUBBLEEDIT_EXPORT_DIR", cfg.ExportDir)
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}
