// Package config handles configuration loading, validation, and defaults for texclip.
//
// A Config is loaded once at startup and treated as immutable afterwards: every
// component receives it read-only and nothing in texclip mutates it after Validate.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"texclip/internal/security"
)

// Config holds the complete texclip configuration.
type Config struct {
	// App holds the credentials issued by the recognition service.
	App AppConfig `toml:"app" json:"app" yaml:"app"`

	// Service configures the remote recognition endpoint.
	Service ServiceConfig `toml:"service" json:"service" yaml:"service"`

	// Storage configures where captured images are written.
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`

	// OCR configures the local text recognizer.
	OCR OCRConfig `toml:"ocr" json:"ocr" yaml:"ocr"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Notify configures desktop notifications of invocation status.
	Notify NotifyConfig `toml:"notify" json:"notify" yaml:"notify"`
}

// AppConfig holds the service credentials.
type AppConfig struct {
	// ID is the application identifier sent in the app-id header.
	ID string `toml:"id" json:"id" yaml:"id"`

	// Secret is the shared secret mixed into every request signature.
	// It is never sent over the wire (use env var TEXCLIP_APP_SECRET).
	Secret string `toml:"secret" json:"secret" yaml:"secret"`
}

// ServiceConfig holds remote recognition configuration.
type ServiceConfig struct {
	// URL is the recognition endpoint.
	URL string `toml:"url" json:"url" yaml:"url"`

	// TimeoutSec bounds a single recognition request.
	TimeoutSec int `toml:"timeout_sec" json:"timeout_sec" yaml:"timeout_sec"`

	// Params are extra non-file form fields sent (and signed) with every request.
	Params map[string]string `toml:"params" json:"params" yaml:"params"`
}

// StorageConfig holds capture file configuration.
type StorageConfig struct {
	// SaveDir is the directory captured images are written to.
	SaveDir string `toml:"save_dir" json:"save_dir" yaml:"save_dir"`

	// KeepImages disables deletion of capture files after each invocation.
	KeepImages bool `toml:"keep_images" json:"keep_images" yaml:"keep_images"`
}

// OCRConfig holds local recognition configuration.
type OCRConfig struct {
	// Language is the Tesseract language profile, e.g. "chi_sim" or "chi_sim+eng".
	Language string `toml:"language" json:"language" yaml:"language"`

	// DataPath is the tessdata prefix. Empty uses the Tesseract default.
	DataPath string `toml:"data_path" json:"data_path" yaml:"data_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", "file" or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file (when Output is "file" or "both").
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of old log files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// NotifyConfig holds desktop notification configuration.
type NotifyConfig struct {
	// Enabled shows the status of every invocation as a desktop notification.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`
}

// DefaultEndpoint is the formula recognition endpoint used when none is configured.
const DefaultEndpoint = "https://server.simpletex.cn/api/latex_ocr"

// DefaultConfig returns a configuration with sensible defaults.
// Credentials have no defaults and must be supplied.
func DefaultConfig() *Config {
	dir := TexclipDir()

	return &Config{
		Service: ServiceConfig{
			URL:        DefaultEndpoint,
			TimeoutSec: 20,
			Params:     map[string]string{},
		},
		Storage: StorageConfig{
			SaveDir:    filepath.Join(dir, "captures"),
			KeepImages: false,
		},
		OCR: OCRConfig{
			Language: "chi_sim",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   filepath.Join(dir, "texclip.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(TexclipDir(), "config.toml")
}

// TexclipDir returns the base texclip directory.
// Uses TEXCLIP_DATA_DIR when set, otherwise ~/.texclip.
func TexclipDir() string {
	if envDir := os.Getenv("TEXCLIP_DATA_DIR"); envDir != "" {
		return envDir
	}
	return PlatformDataDir()
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// Timeout returns the recognition request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Service.TimeoutSec) * time.Second
}

// EnsureDirectories creates the capture and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Storage.SaveDir}
	if c.Logging.Output == "file" || c.Logging.Output == "both" {
		dirs = append(dirs, filepath.Dir(c.Logging.FilePath))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := security.EnsureSecureDir(dir); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with TEXCLIP_.
func (c *Config) ApplyEnvOverrides() {
	// Credentials from env (for security)
	if v := os.Getenv("TEXCLIP_APP_ID"); v != "" {
		c.App.ID = v
	}
	if v := os.Getenv("TEXCLIP_APP_SECRET"); v != "" {
		c.App.Secret = v
	}

	if v := os.Getenv("TEXCLIP_SAVE_DIR"); v != "" {
		c.Storage.SaveDir = v
	}
	if v := os.Getenv("TEXCLIP_ENDPOINT"); v != "" {
		c.Service.URL = v
	}
	if v := os.Getenv("TEXCLIP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Service.Params = make(map[string]string, len(c.Service.Params))
	for k, v := range c.Service.Params {
		clone.Service.Params[k] = v
	}
	return &clone
}

// Redacted returns a copy safe for display: the secret is masked.
func (c *Config) Redacted() *Config {
	clone := c.Clone()
	if clone.App.Secret != "" {
		clone.App.Secret = "[REDACTED]"
	}
	return clone
}

// EncodeTOML renders the configuration as TOML.
func (c *Config) EncodeTOML() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("encode TOML: %w", err)
	}
	return buf.Bytes(), nil
}
