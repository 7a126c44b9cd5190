package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var knownKinds = map[string]bool{
	"curseforge": true,
	"modrinth":   true,
	"showcase":   true,
}

// Loader handles loading and validation of source configurations
type Loader struct {
	sourcesDir string
}

// NewLoader creates a new configuration loader
func NewLoader(sourcesDir string) *Loader {
	return &Loader{sourcesDir: sourcesDir}
}

// LoadAll loads all YAML configuration files from the sources directory,
// keyed by source name.
func (l *Loader) LoadAll() (map[string]*SourceConfig, error) {
	configs := make(map[string]*SourceConfig)

	if _, err := os.Stat(l.sourcesDir); os.IsNotExist(err) {
		return configs, nil
	}

	files, err := filepath.Glob(filepath.Join(l.sourcesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.sourcesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		config, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(config); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", file, err)
		}

		if _, exists := configs[config.Source.Name]; exists {
			return nil, fmt.Errorf("duplicate source name %q in %s", config.Source.Name, file)
		}

		configs[config.Source.Name] = config
		slog.Debug("Loaded source configuration", "file", file, "source", config.Source.Name)
	}

	return configs, nil
}

// loadFile loads a single YAML configuration file
func (l *Loader) loadFile(path string) (*SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config SourceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Keys never live in config files, only references to the environment.
	config.Source.APIKey = os.ExpandEnv(config.Source.APIKey)

	l.setDefaults(&config)

	return &config, nil
}

// setDefaults applies default values to configuration
func (l *Loader) setDefaults(config *SourceConfig) {
	if config.Settings.MaxResults == 0 {
		config.Settings.MaxResults = 25
	}
	if config.Settings.FailureThreshold == 0 {
		config.Settings.FailureThreshold = 5
	}
	if config.Settings.HalfOpenMaxCalls == 0 {
		config.Settings.HalfOpenMaxCalls = 3
	}
}

// validate validates the configuration
func (l *Loader) validate(config *SourceConfig) error {
	if config.Source.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if config.Source.Kind == "" {
		return fmt.Errorf("source kind is required")
	}
	if !knownKinds[config.Source.Kind] {
		return fmt.Errorf("unknown source kind %q", config.Source.Kind)
	}
	if config.Source.Kind == "showcase" && config.Source.URL == "" {
		return fmt.Errorf("showcase sources require a feed URL")
	}

	return nil
}
