package config

import (
	"fmt"
	"strings"

	"keel/internal/coordinate"
	"keel/internal/module"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{LogFormatText, LogFormatJSON}
	validTypes      = []string{string(module.TypeLibrary), string(module.TypePlugin)}
)

// Validate checks a loaded configuration.
func (c KeelConfig) Validate() ValidationErrors {
	var errs ValidationErrors

	if c.Scheduler.MaxWorkers < 0 {
		errs.Add("scheduler.maxWorkers", "must not be negative", c.Scheduler.MaxWorkers)
	}
	if err := ValidateOneOf("logging.level", strings.ToLower(c.Logging.Level), validLogLevels); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if err := ValidateOneOf("logging.format", c.Logging.Format, validLogFormats); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if strings.TrimSpace(c.Kernel.Manifest) == "" {
		errs.Add("kernel.manifest", "is required")
	}
	if c.Telemetry.Enabled && strings.TrimSpace(c.Telemetry.MetricsAddress) == "" {
		errs.Add("telemetry.metricsAddress", "is required when telemetry is enabled")
	}

	return errs
}

// Validate checks every manifest entry: coordinates must parse and be
// concrete, dependencies must parse, and coordinates must be unique.
func (m Manifest) Validate() ValidationErrors {
	var errs ValidationErrors
	seen := make(map[coordinate.Coordinate]int, len(m.Modules))

	for i, entry := range m.Modules {
		field := fmt.Sprintf("modules[%d]", i)

		c, err := coordinate.Parse(entry.Coordinate)
		if err != nil {
			errs.Add(field+".coordinate", err.Error(), entry.Coordinate)
		} else if !c.Resolved() {
			errs.Add(field+".coordinate", "must name a concrete semver version", entry.Coordinate)
		} else if prev, dup := seen[c]; dup {
			errs.Add(field+".coordinate", fmt.Sprintf("duplicates modules[%d]", prev), entry.Coordinate)
		} else {
			seen[c] = i
		}

		if entry.Type != "" {
			if err := ValidateOneOf(field+".type", entry.Type, validTypes); err != nil {
				errs = append(errs, err.(ValidationError))
			}
		}

		for j, dep := range entry.Dependencies {
			if _, err := coordinate.Parse(dep); err != nil {
				errs.Add(fmt.Sprintf("%s.dependencies[%d]", field, j), err.Error(), dep)
			}
		}
	}

	return errs
}
