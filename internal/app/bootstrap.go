package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"keel/internal/config"
	"keel/pkg/logging"
)

// Application bootstraps the services from configuration and runs one of
// keel's modes against them.
//
//	application, err := app.NewApplication(ctx, app.NewConfig(false, ""), version)
//	if err != nil {
//	    return err
//	}
//	defer application.Close(context.Background())
//	return application.Serve(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication loads the configuration, initializes logging and creates
// the services. The configuration directory defaults to ~/.config/keel.
func NewApplication(ctx context.Context, cfg *Config, version string) (*Application, error) {
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = config.GetDefaultConfigPathOrPanic()
	}

	var logOutput io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}
	if cfg.Silent {
		logOutput = io.Discard
	}

	// Bootstrap logging covers config loading; it is replaced once the
	// configured level and format are known.
	bootLevel := logging.LevelInfo
	if cfg.Debug {
		bootLevel = logging.LevelDebug
	}
	logging.InitForCLI(bootLevel, logOutput)

	if cfg.KeelConfig == nil {
		keelCfg, err := config.LoadConfig(cfg.ConfigPath)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load keel configuration from path: %s", cfg.ConfigPath)
			return nil, fmt.Errorf("failed to load keel configuration from path %s: %w", cfg.ConfigPath, err)
		}
		cfg.KeelConfig = &keelCfg
	}

	level, err := logging.ParseLevel(cfg.KeelConfig.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging level: %w", err)
	}
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.Init(level, logging.Format(cfg.KeelConfig.Logging.Format), logOutput)

	services, err := InitializeServices(ctx, cfg, version)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Services returns the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Close releases the services.
func (a *Application) Close(ctx context.Context) error {
	return a.services.Close(ctx)
}

// LoadManifest reads the manifest named by the configuration.
func (a *Application) LoadManifest() (config.Manifest, error) {
	return config.LoadManifest(a.services.ManifestPath)
}
