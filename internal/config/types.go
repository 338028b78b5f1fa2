package config

// KeelConfig is the top-level configuration structure for keel.
type KeelConfig struct {
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
	Kernel    KernelConfig    `yaml:"kernel"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// SchedulerConfig bounds task execution.
type SchedulerConfig struct {
	MaxWorkers int `yaml:"maxWorkers,omitempty"` // Concurrent tasks across all processes (default: GOMAXPROCS)
}

// LoggingConfig selects verbosity and output encoding.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn or error (default: info)
	Format string `yaml:"format,omitempty"` // text or json (default: text)
}

// KernelConfig locates module resources and the manifest.
type KernelConfig struct {
	ModuleDir string `yaml:"moduleDir,omitempty"` // Root of <group>/<name>/<version> resource directories, relative to the config dir
	Manifest  string `yaml:"manifest,omitempty"`  // Manifest file name, relative to the config dir (default: modules.yaml)
}

// TelemetryConfig controls the metrics endpoint and trace resource.
type TelemetryConfig struct {
	Enabled        bool   `yaml:"enabled"`
	MetricsAddress string `yaml:"metricsAddress,omitempty"` // Listen address for /metrics (default: localhost:9464)
	ServiceName    string `yaml:"serviceName,omitempty"`    // service.name resource attribute (default: keel)
}

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Manifest lists the modules keel installs on startup.
type Manifest struct {
	Modules []ManifestModule `yaml:"modules"`
}

// ManifestModule describes one module entry in the manifest.
type ManifestModule struct {
	Coordinate   string   `yaml:"coordinate"`
	Type         string   `yaml:"type,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
	Start        bool     `yaml:"start,omitempty"`
}
