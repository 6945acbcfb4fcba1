package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ValidationError represents a configuration validation error.
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
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasField reports whether any error concerns the given field.
func (e ValidationErrors) HasField(field string) bool {
	for _, err := range e {
		if err.Field == field {
			return true
		}
	}
	return false
}

// reservedParams are header names; a form field with one of these names would
// be signed with the header value but sent with its own.
var reservedParams = map[string]bool{
	"timestamp":  true,
	"random-str": true,
	"app-id":     true,
	"sign":       true,
	"secret":     true,
}

var languagePattern = regexp.MustCompile(`^[A-Za-z0-9_]+(\+[A-Za-z0-9_]+)*$`)

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	errs = append(errs, validateApp(&c.App)...)
	errs = append(errs, validateService(&c.Service)...)
	errs = append(errs, validateStorage(&c.Storage)...)
	errs = append(errs, validateOCR(&c.OCR)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateApp(a *AppConfig) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(a.ID) == "" {
		errs = append(errs, *RequiredFieldError("app.id"))
	}
	if a.Secret == "" {
		errs = append(errs, *RequiredFieldError("app.secret"))
	}
	return errs
}

func validateService(s *ServiceConfig) ValidationErrors {
	var errs ValidationErrors

	if s.URL == "" {
		errs = append(errs, *RequiredFieldError("service.url"))
	} else if !isValidURL(s.URL) {
		errs = append(errs, ValidationError{
			Field:   "service.url",
			Message: fmt.Sprintf("invalid URL %q (must be http or https)", s.URL),
		})
	}

	if s.TimeoutSec < 1 || s.TimeoutSec > 300 {
		errs = append(errs, *RangeError("service.timeout_sec", 1, 300))
	}

	for k := range s.Params {
		if k == "" {
			errs = append(errs, ValidationError{Field: "service.params", Message: "empty parameter name"})
			continue
		}
		if reservedParams[strings.ToLower(k)] {
			errs = append(errs, ValidationError{
				Field:   "service.params",
				Message: fmt.Sprintf("parameter %q collides with a signed header name", k),
			})
		}
	}

	return errs
}

func validateStorage(s *StorageConfig) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(s.SaveDir) == "" {
		errs = append(errs, *RequiredFieldError("storage.save_dir"))
	}
	return errs
}

func validateOCR(o *OCRConfig) ValidationErrors {
	var errs ValidationErrors
	if !languagePattern.MatchString(o.Language) {
		errs = append(errs, ValidationError{
			Field:   "ocr.language",
			Message: fmt.Sprintf("invalid language profile %q (e.g. chi_sim or chi_sim+eng)", o.Language),
		})
	}
	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("unknown level %q", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("unknown format %q (text or json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, *RequiredFieldError("logging.file_path"))
		}
		if l.MaxSizeMB < 1 {
			errs = append(errs, *RangeError("logging.max_size_mb", 1, "unbounded"))
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("unknown output %q", l.Output),
		})
	}

	if l.MaxBackups < 0 {
		errs = append(errs, *RangeError("logging.max_backups", 0, "unbounded"))
	}

	return errs
}

func isValidURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// RequiredFieldError creates an error for a missing required field.
func RequiredFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "required field is missing",
	}
}

// RangeError creates an error for a value outside its allowed range.
func RangeError(field string, min, max interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}
