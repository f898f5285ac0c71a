package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"tomatotimer/internal/platform"
	"tomatotimer/internal/ui/preferences"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	DurationSeconds    float64 `yaml:"duration_seconds"`
	DurationUnit       string  `yaml:"duration_unit"`
	Shape              string  `yaml:"shape"`
	Policy             string  `yaml:"policy"`
	ParticleCount      int     `yaml:"particle_count"`
	StepMillis         int     `yaml:"step_ms"`
	MaxDurationSeconds int     `yaml:"max_duration_seconds"`
	LogLevel           string  `yaml:"log_level"`
}

// SettingsPath returns the settings file location for appName.
func SettingsPath(appName string) (string, error) {
	dir, err := platform.ConfigDir(appName)
	if err != nil {
		return "", fmt.Errorf("resolve settings path: %w", err)
	}
	return filepath.Join(dir, settingsFileName), nil
}

// LoadSettings reads user preferences from YAML.
// If the file does not exist, default settings are returned.
// On a parse error the defaults are returned along with the error.
func LoadSettings(path string) (preferences.Settings, error) {
	settings := preferences.DefaultSettings()

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes user preferences to YAML, replacing the file
// atomically.
func SaveSettings(path string, settings preferences.Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fileData := yamlSettings{
		DurationSeconds:    settings.Duration.Seconds(),
		DurationUnit:       string(settings.DurationUnit),
		Shape:              settings.Shape,
		Policy:             settings.Policy,
		ParticleCount:      settings.ParticleCount,
		StepMillis:         int(settings.Step / time.Millisecond),
		MaxDurationSeconds: int(settings.MaxDuration / time.Second),
		LogLevel:           settings.LogLevel,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := writeFileAtomic(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if fileData.DurationSeconds > 0 {
		settings.Duration = time.Duration(fileData.DurationSeconds * float64(time.Second))
	}
	if fileData.DurationUnit != "" {
		settings.DurationUnit = preferences.ParseUnit(fileData.DurationUnit)
	}
	if fileData.Shape != "" {
		settings.Shape = fileData.Shape
	}
	if fileData.Policy != "" {
		settings.Policy = fileData.Policy
	}
	if fileData.ParticleCount > 0 {
		settings.ParticleCount = fileData.ParticleCount
	}
	if fileData.StepMillis > 0 {
		settings.Step = time.Duration(fileData.StepMillis) * time.Millisecond
	}
	if fileData.MaxDurationSeconds > 0 {
		settings.MaxDuration = time.Duration(fileData.MaxDurationSeconds) * time.Second
	}
	if fileData.LogLevel != "" {
		settings.LogLevel = fileData.LogLevel
	}
}
