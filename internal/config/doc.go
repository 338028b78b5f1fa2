// Package config loads keel's configuration and module manifest.
//
// Configuration is read from a single directory. The default directory is
// ~/.config/keel; commands accept --config-path to point somewhere else.
//
// # Files
//
//   - config.yaml holds runtime settings (scheduler, logging, kernel, telemetry)
//   - modules.yaml is the module manifest (the name is configurable through kernel.manifest)
//
// A missing config.yaml is not an error: defaults are used. A missing
// manifest yields an empty module list.
//
// # Manifest format
//
//	modules:
//	  - coordinate: acme:core-lib:1.0.0
//	    type: library
//	  - coordinate: acme:http:2.1.0
//	    type: plugin
//	    start: true
//	    dependencies:
//	      - acme:core-lib:^1.0.0
//
// Dependency coordinates may carry a semver range in their version segment.
//
// # Watching
//
// ManifestWatcher observes the manifest file with fsnotify and emits a debounced
// notification after it changes, so callers can re-apply the module set.
package config
