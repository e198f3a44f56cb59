package config

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/godbus/dbus/v5"

	"osk/internal/logging"
)

// ValidationError represents a settings validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the settings for errors.
func (s *Settings) Validate() error {
	return ValidateSettings(s)
}

// ValidateSettings performs validation of every section.
func ValidateSettings(s *Settings) error {
	c := s.Clone()

	var errs ValidationErrors
	errs = append(errs, validateLayouts(&c.Layouts)...)
	errs = append(errs, validateClickArea(&c.ClickArea)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateDBus(&c.DBus)...)
	errs = append(errs, validateWindow(&c.Window)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateLayouts(l *LayoutSettings) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(l.Default) == "" {
		errs = append(errs, ValidationError{
			Field:   "layouts.default",
			Message: "a default layout is required",
		})
	}
	return errs
}

func validateClickArea(c *ClickAreaSettings) ValidationErrors {
	var errs ValidationErrors
	if math.IsNaN(c.IncreaseBy) || math.IsInf(c.IncreaseBy, 0) {
		errs = append(errs, ValidationError{
			Field:   "click_area.increase_by",
			Message: "must be a finite number",
		})
	} else if c.IncreaseBy < 0 {
		errs = append(errs, ValidationError{
			Field:   "click_area.increase_by",
			Message: "cannot be negative",
		})
	}
	return errs
}

func validateLogging(l *LoggingSettings) ValidationErrors {
	var errs ValidationErrors

	if _, err := logging.ParseLevel(l.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}
	if _, err := logging.ParseFormat(l.Format); err != nil {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
	case "file", "both":
		if l.File == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file",
				Message: "log file path required when output includes a file",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid output: %s (valid: stdout, stderr, file, both)", l.Output),
		})
	}
	return errs
}

// busNamePattern matches a well-known D-Bus bus name.
var busNamePattern = regexp.MustCompile(`^[A-Za-z_-][A-Za-z0-9_-]*(\.[A-Za-z_-][A-Za-z0-9_-]*)+$`)

func validateDBus(d *DBusSettings) ValidationErrors {
	var errs ValidationErrors
	if !d.Enabled {
		return errs
	}
	if len(d.BusName) > 255 || !busNamePattern.MatchString(d.BusName) {
		errs = append(errs, ValidationError{
			Field:   "dbus.bus_name",
			Message: fmt.Sprintf("invalid bus name: %q", d.BusName),
		})
	}
	if !dbus.ObjectPath(d.ObjectPath).IsValid() {
		errs = append(errs, ValidationError{
			Field:   "dbus.object_path",
			Message: fmt.Sprintf("invalid object path: %q", d.ObjectPath),
		})
	}
	return errs
}

func validateWindow(w *WindowSettings) ValidationErrors {
	var errs ValidationErrors
	if !(w.Scale > 0) || math.IsInf(w.Scale, 0) {
		errs = append(errs, ValidationError{
			Field:   "window.scale",
			Message: "must be a positive number",
		})
	}
	return errs
}
