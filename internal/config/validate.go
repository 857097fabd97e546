package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation errors.
var (
	ErrInvalidSidecarName = errors.New("sidecar name contains invalid characters")
	ErrSidecarNameTooLong = errors.New("sidecar name exceeds maximum length")
	ErrInvalidLogLevel    = errors.New("log level must be 'debug', 'info', 'warn', or 'error'")
	ErrInvalidBacklog     = errors.New("backlog must be between 0 and 1000000")
	ErrEmptySearchDir     = errors.New("search_dirs contains empty element")
	ErrNegativeDrainGrace = errors.New("drain_grace cannot be negative")
)

// MaxSidecarNameLength is the longest accepted worker name.
const MaxSidecarNameLength = 128

// MaxBacklog is the largest accepted window backlog.
const MaxBacklog = 1000000

// validSidecarNameRegex matches logical worker names: alphanumeric, dash,
// underscore, dot, no path separators.
var validSidecarNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// ValidationError wraps a validation error with context.
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidateSidecarName validates a logical worker name. An empty name is
// allowed here; the run command requires one from the flag or the file.
func ValidateSidecarName(name string) error {
	if name == "" {
		return nil
	}

	if len(name) > MaxSidecarNameLength {
		return &ValidationError{
			Field:   "sidecar.name",
			Value:   name,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", MaxSidecarNameLength),
			Err:     ErrSidecarNameTooLong,
		}
	}

	if !validSidecarNameRegex.MatchString(name) {
		return &ValidationError{
			Field:   "sidecar.name",
			Value:   name,
			Message: "must start with alphanumeric and contain only alphanumeric, dash, underscore, or dot",
			Err:     ErrInvalidSidecarName,
		}
	}

	return nil
}

// ValidateLogLevel validates a log level. Empty means the default.
func ValidateLogLevel(level string) error {
	if level == "" || validLogLevels[strings.ToLower(level)] {
		return nil
	}
	return &ValidationError{
		Field:   "log.level",
		Value:   level,
		Message: "must be 'debug', 'info', 'warn', or 'error'",
		Err:     ErrInvalidLogLevel,
	}
}

// ValidateSearchDirs rejects blank entries.
func ValidateSearchDirs(dirs []string) error {
	for i, d := range dirs {
		if strings.TrimSpace(d) == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("sidecar.search_dirs[%d]", i),
				Message: "cannot be empty",
				Err:     ErrEmptySearchDir,
			}
		}
	}
	return nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}

	if err := ValidateSidecarName(c.Sidecar.Name); err != nil {
		return err
	}

	if err := ValidateSearchDirs(c.Sidecar.SearchDirs); err != nil {
		return err
	}

	if err := ValidateLogLevel(c.Log.Level); err != nil {
		return err
	}

	if c.Window.Backlog < 0 || c.Window.Backlog > MaxBacklog {
		return &ValidationError{
			Field:   "window.backlog",
			Value:   fmt.Sprintf("%d", c.Window.Backlog),
			Message: fmt.Sprintf("must be between 0 and %d", MaxBacklog),
			Err:     ErrInvalidBacklog,
		}
	}

	if c.Window.DrainGrace < 0 {
		return &ValidationError{
			Field:   "window.drain_grace",
			Value:   c.Window.DrainGrace.String(),
			Message: "cannot be negative",
			Err:     ErrNegativeDrainGrace,
		}
	}

	return nil
}
