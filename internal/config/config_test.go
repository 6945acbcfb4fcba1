package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.App.ID = "app-123"
	cfg.App.Secret = "s3cret"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("TEXCLIP_DATA_DIR", "/tmp/texclip-test")

	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.Service.URL != DefaultEndpoint {
		t.Errorf("expected default endpoint, got %s", cfg.Service.URL)
	}
	if cfg.Service.TimeoutSec != 20 {
		t.Errorf("expected timeout 20, got %d", cfg.Service.TimeoutSec)
	}
	if cfg.OCR.Language != "chi_sim" {
		t.Errorf("expected chi_sim, got %s", cfg.OCR.Language)
	}
	if cfg.Storage.SaveDir != filepath.Join("/tmp/texclip-test", "captures") {
		t.Errorf("unexpected save dir: %s", cfg.Storage.SaveDir)
	}
	if cfg.Storage.KeepImages {
		t.Error("capture files should be cleaned up by default")
	}
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	if !strings.HasSuffix(path, "config.toml") {
		t.Errorf("expected path ending with config.toml, got %s", path)
	}
}

func TestValidateRequiresCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.SaveDir = ""
	cfg.Service.URL = ""

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	for _, field := range []string{"app.id", "app.secret", "storage.save_dir", "service.url"} {
		assert.True(t, verrs.HasField(field), "expected error for %s", field)
	}
}

func TestValidateValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad scheme", func(c *Config) { c.Service.URL = "ftp://example.com" }, "service.url"},
		{"no host", func(c *Config) { c.Service.URL = "https://" }, "service.url"},
		{"zero timeout", func(c *Config) { c.Service.TimeoutSec = 0 }, "service.timeout_sec"},
		{"huge timeout", func(c *Config) { c.Service.TimeoutSec = 3600 }, "service.timeout_sec"},
		{"reserved param", func(c *Config) { c.Service.Params = map[string]string{"sign": "x"} }, "service.params"},
		{"bad language", func(c *Config) { c.OCR.Language = "chi sim" }, "ocr.language"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad output", func(c *Config) { c.Logging.Output = "syslog" }, "logging.output"},
		{"file without path", func(c *Config) {
			c.Logging.Output = "file"
			c.Logging.FilePath = ""
		}, "logging.file_path"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)

			var verrs ValidationErrors
			require.True(t, errors.As(cfg.Validate(), &verrs))
			assert.True(t, verrs.HasField(tc.field), "got %v", verrs)
		})
	}
}

func TestValidateAcceptsCombinedLanguages(t *testing.T) {
	cfg := validConfig()
	cfg.OCR.Language = "chi_sim+eng"
	assert.NoError(t, cfg.Validate())
}

func TestLoadNonexistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, cfg.Service.URL)
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[app]
id = "toml-id"
secret = "toml-secret"

[service]
url = "https://example.com/api/latex_ocr"
timeout_sec = 15

[service.params]
rec_mode = "formula"

[storage]
save_dir = "/tmp/captures"
keep_images = true

[ocr]
language = "chi_sim+eng"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "toml-id", cfg.App.ID)
	assert.Equal(t, "toml-secret", cfg.App.Secret)
	assert.Equal(t, "https://example.com/api/latex_ocr", cfg.Service.URL)
	assert.Equal(t, 15, cfg.Service.TimeoutSec)
	assert.Equal(t, "formula", cfg.Service.Params["rec_mode"])
	assert.Equal(t, "/tmp/captures", cfg.Storage.SaveDir)
	assert.True(t, cfg.Storage.KeepImages)
	assert.Equal(t, "chi_sim+eng", cfg.OCR.Language)
	// untouched sections keep their defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "app:\n  id: yaml-id\n  secret: yaml-secret\nstorage:\n  save_dir: /tmp/yaml\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml-id", cfg.App.ID)
	assert.Equal(t, "/tmp/yaml", cfg.Storage.SaveDir)
}

func TestLoadLegacyJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"id": "legacy-id", "pwd": "legacy-pwd", "path": "D:\\captures", "url": "https://server.simpletex.cn/api/latex_ocr_turbo"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "legacy-id", cfg.App.ID)
	assert.Equal(t, "legacy-pwd", cfg.App.Secret)
	assert.Equal(t, `D:\captures`, cfg.Storage.SaveDir)
	assert.Equal(t, "https://server.simpletex.cn/api/latex_ocr_turbo", cfg.Service.URL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadSectionedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"app": {"id": "json-id", "secret": "json-secret"}, "service": {"timeout_sec": 12}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json-id", cfg.App.ID)
	assert.Equal(t, 12, cfg.Service.TimeoutSec)
	assert.Equal(t, DefaultEndpoint, cfg.Service.URL)
}

func TestLoadInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app\nid ="), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TEXCLIP_APP_ID", "env-id")
	t.Setenv("TEXCLIP_APP_SECRET", "env-secret")
	t.Setenv("TEXCLIP_SAVE_DIR", "/tmp/env-captures")
	t.Setenv("TEXCLIP_ENDPOINT", "https://env.example.com/ocr")
	t.Setenv("TEXCLIP_LOG_LEVEL", "debug")

	cfg, err := Load("/nonexistent/config.toml")
	require.NoError(t, err)

	assert.Equal(t, "env-id", cfg.App.ID)
	assert.Equal(t, "env-secret", cfg.App.Secret)
	assert.Equal(t, "/tmp/env-captures", cfg.Storage.SaveDir)
	assert.Equal(t, "https://env.example.com/ocr", cfg.Service.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadAndValidate(t *testing.T) {
	_, err := LoadAndValidate("/nonexistent/config.toml")
	assert.Error(t, err, "defaults carry no credentials")
}

func TestCloneIsDeep(t *testing.T) {
	cfg := validConfig()
	cfg.Service.Params["a"] = "1"

	clone := cfg.Clone()
	clone.Service.Params["a"] = "2"
	clone.App.ID = "other"

	assert.Equal(t, "1", cfg.Service.Params["a"])
	assert.Equal(t, "app-123", cfg.App.ID)
}

func TestRedacted(t *testing.T) {
	cfg := validConfig()
	red := cfg.Redacted()
	assert.Equal(t, "[REDACTED]", red.App.Secret)
	assert.Equal(t, "s3cret", cfg.App.Secret)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	cfg := validConfig()
	cfg.Service.Params["rec_mode"] = "auto"
	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if info.Mode().Perm()&0077 != 0 {
		t.Errorf("config file should be owner-only, got %v", info.Mode().Perm())
	}

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.App, loaded.App)
	assert.Equal(t, "auto", loaded.Service.Params["rec_mode"])
}

func TestIsLegacyLayout(t *testing.T) {
	assert.True(t, IsLegacyLayout(map[string]any{"id": "x"}))
	assert.False(t, IsLegacyLayout(map[string]any{"app": map[string]any{}, "id": "x"}))
	assert.False(t, IsLegacyLayout(map[string]any{"service": map[string]any{}}))
}

func TestMigrateLegacyConfig(t *testing.T) {
	cfg := MigrateLegacyConfig(map[string]any{
		"id":  "app",
		"pwd": "s3cret",
		"url": 42,
	})

	assert.Equal(t, "app", cfg.App.ID)
	assert.Equal(t, "s3cret", cfg.App.Secret)
	assert.Equal(t, DefaultEndpoint, cfg.Service.URL)
	assert.Equal(t, 20, cfg.Service.TimeoutSec)
}
