package config

const (
	defaultLogLevel       = "info"
	defaultManifest       = "modules.yaml"
	defaultModuleDir      = "modules"
	defaultMetricsAddress = "localhost:9464"
	defaultServiceName    = "keel"
)

// GetDefaultConfig returns the configuration used when no config.yaml exists.
// A zero MaxWorkers lets the scheduler pick GOMAXPROCS.
func GetDefaultConfig() KeelConfig {
	return KeelConfig{
		Logging: LoggingConfig{
			Level:  defaultLogLevel,
			Format: LogFormatText,
		},
		Kernel: KernelConfig{
			ModuleDir: defaultModuleDir,
			Manifest:  defaultManifest,
		},
		Telemetry: TelemetryConfig{
			Enabled:        true,
			MetricsAddress: defaultMetricsAddress,
			ServiceName:    defaultServiceName,
		},
	}
}
