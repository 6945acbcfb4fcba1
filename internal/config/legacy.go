package config

// Legacy installs kept a flat config.json next to the executable:
//
//	{"id": "...", "pwd": "...", "path": "...", "url": "..."}
//
// The four keys map onto App.ID, App.Secret, Storage.SaveDir and Service.URL.
var legacyKeys = []string{"id", "pwd", "path", "url"}

// IsLegacyLayout reports whether a decoded JSON object uses the flat layout.
func IsLegacyLayout(data map[string]any) bool {
	if _, ok := data["app"]; ok {
		return false
	}
	for _, k := range legacyKeys {
		if _, ok := data[k]; ok {
			return true
		}
	}
	return false
}

// ApplyLegacy copies the flat legacy fields onto cfg. Missing or non-string
// values leave the corresponding default untouched.
func ApplyLegacy(cfg *Config, data map[string]any) {
	if v, ok := data["id"].(string); ok {
		cfg.App.ID = v
	}
	if v, ok := data["pwd"].(string); ok {
		cfg.App.Secret = v
	}
	if v, ok := data["path"].(string); ok {
		cfg.Storage.SaveDir = v
	}
	if v, ok := data["url"].(string); ok {
		cfg.Service.URL = v
	}
}

// MigrateLegacyConfig converts a legacy flat configuration to a full Config.
func MigrateLegacyConfig(data map[string]any) *Config {
	cfg := DefaultConfig()
	ApplyLegacy(cfg, data)
	return cfg
}
