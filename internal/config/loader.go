package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"keel/internal/coordinate"
	"keel/internal/module"
	"keel/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/keel"
	configFileName = "config.yaml"
)

func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from a single specified directory.
// The directory should contain config.yaml and the module manifest.
func LoadConfig(configPath string) (KeelConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		logging.Info("ConfigLoader", "Error loading config.yaml from %s: %s", configFilePath, err)
		return KeelConfig{}, ioError(CategoryConfig, configFilePath, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return KeelConfig{}, parseError(CategoryConfig, configFilePath, err)
	}
	if errs := config.Validate(); errs.HasErrors() {
		return KeelConfig{}, validationError(CategoryConfig, configFilePath, errs)
	}
	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}

// ManifestPath returns the manifest location for cfg under configPath.
func ManifestPath(configPath string, cfg KeelConfig) string {
	if filepath.IsAbs(cfg.Kernel.Manifest) {
		return cfg.Kernel.Manifest
	}
	return filepath.Join(configPath, cfg.Kernel.Manifest)
}

// ModuleDir returns the resource root for cfg under configPath, or "" when
// none is configured.
func ModuleDir(configPath string, cfg KeelConfig) string {
	if cfg.Kernel.ModuleDir == "" || filepath.IsAbs(cfg.Kernel.ModuleDir) {
		return cfg.Kernel.ModuleDir
	}
	return filepath.Join(configPath, cfg.Kernel.ModuleDir)
}

// LoadManifest reads and validates the manifest at path. A missing file
// yields an empty manifest.
func LoadManifest(path string) (Manifest, error) {
	var manifest Manifest

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No manifest found at %s, no modules to install", path)
			return manifest, nil
		}
		return Manifest{}, ioError(CategoryManifest, path, err)
	}
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, parseError(CategoryManifest, path, err)
	}
	if errs := manifest.Validate(); errs.HasErrors() {
		return Manifest{}, validationError(CategoryManifest, path, errs)
	}
	logging.Debug("ConfigLoader", "Loaded %d manifest entries from %s", len(manifest.Modules), path)
	return manifest, nil
}

// Parse converts the entry into its coordinate, module type and dependencies.
// An empty type defaults to a library.
func (e ManifestModule) Parse() (coordinate.Coordinate, module.Type, []coordinate.Coordinate, error) {
	c, err := coordinate.Parse(e.Coordinate)
	if err != nil {
		return coordinate.Coordinate{}, "", nil, err
	}
	typ := module.Type(e.Type)
	if typ == "" {
		typ = module.TypeLibrary
	}
	deps := make([]coordinate.Coordinate, 0, len(e.Dependencies))
	for _, d := range e.Dependencies {
		dep, err := coordinate.Parse(d)
		if err != nil {
			return coordinate.Coordinate{}, "", nil, fmt.Errorf("dependency of %s: %w", c, err)
		}
		deps = append(deps, dep)
	}
	return c, typ, deps, nil
}

// StartTargets returns the coordinates of the entries marked start.
func (m Manifest) StartTargets() []coordinate.Coordinate {
	var out []coordinate.Coordinate
	for _, e := range m.Modules {
		if !e.Start {
			continue
		}
		if c, err := coordinate.Parse(e.Coordinate); err == nil {
			out = append(out, c)
		}
	}
	return out
}

func ioError(category, path string, err error) error {
	return ConfigurationError{
		FilePath:  path,
		FileName:  filepath.Base(path),
		Category:  category,
		ErrorType: ErrorTypeIO,
		Message:   "failed to read file",
		Details:   err.Error(),
		Suggestions: []string{
			"Check that the file exists and is readable",
		},
	}
}

func parseError(category, path string, err error) error {
	return ConfigurationError{
		FilePath:   path,
		FileName:   filepath.Base(path),
		Category:   category,
		ErrorType:  ErrorTypeParse,
		Message:    "invalid YAML",
		Details:    err.Error(),
		LineNumber: yamlLineNumber(err),
		Suggestions: []string{
			"Check indentation and that keys are followed by a colon",
		},
	}
}

func validationError(category, path string, errs ValidationErrors) error {
	var collection ConfigurationErrorCollection
	for _, ve := range errs {
		collection.Add(ConfigurationError{
			FilePath:  path,
			FileName:  filepath.Base(path),
			Category:  category,
			ErrorType: ErrorTypeValidation,
			Message:   ve.Error(),
		})
	}
	return collection
}
