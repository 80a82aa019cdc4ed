// Package config handles global configuration and environment
// fallbacks for API credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in
// ~/.config/zotatlas/config.yml. Every field has an environment
// fallback so CI and one-off runs work without a config file.
type GlobalConfig struct {
	ZoteroLibraryID   string `yaml:"zotero_library_id,omitempty"`
	ZoteroLibraryType string `yaml:"zotero_library_type,omitempty"`
	ZoteroAPIKey      string `yaml:"zotero_api_key,omitempty"`
	S2APIKey          string `yaml:"s2_api_key,omitempty"`
	OllamaURL         string `yaml:"ollama_url,omitempty"`
	EmbeddingModel    string `yaml:"embedding_model,omitempty"`
	VenueTablePath    string `yaml:"venue_table_path,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "zotatlas"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// Environment variable fallbacks, checked when the yaml field is
// empty.
var envFallbacks = map[string]string{
	"zotero_library_id":   "ZOTERO_LIBRARY_ID",
	"zotero_library_type": "ZOTERO_LIBRARY_TYPE",
	"zotero_api_key":      "ZOTERO_API_KEY",
	"s2_api_key":          "S2_API_KEY",
	"ollama_url":          "OLLAMA_URL",
	"embedding_model":     "EMBEDDING_MODEL",
}

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/zotatlas/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file and applies
// environment fallbacks. Returns an empty config (not an error) if the
// file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	cfg := &GlobalConfig{}
	path := GlobalConfigPath()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		case os.IsNotExist(err):
			// No config file is fine
		default:
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	applyEnvFallbacks(cfg)
	if cfg.ZoteroLibraryType == "" {
		cfg.ZoteroLibraryType = "user"
	}
	if cfg.VenueTablePath != "" {
		cfg.VenueTablePath = ExpandTilde(cfg.VenueTablePath)
	}

	globalConfigCache = cfg
	return cfg, nil
}

func applyEnvFallbacks(cfg *GlobalConfig) {
	fields := map[string]*string{
		"zotero_library_id":   &cfg.ZoteroLibraryID,
		"zotero_library_type": &cfg.ZoteroLibraryType,
		"zotero_api_key":      &cfg.ZoteroAPIKey,
		"s2_api_key":          &cfg.S2APIKey,
		"ollama_url":          &cfg.OllamaURL,
		"embedding_model":     &cfg.EmbeddingModel,
	}
	for key, field := range fields {
		if *field == "" {
			*field = os.Getenv(envFallbacks[key])
		}
	}
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// ExpandTilde expands a leading ~ to the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// HelpfulConfigMessage explains how to configure library access when
// credentials are missing.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`Zotero library access is not configured.

Tip: Create %s:
  mkdir -p %s
  cat > %s <<EOF
zotero_library_id: "1234567"
zotero_library_type: user
zotero_api_key: "your-key"
EOF

Or set ZOTERO_LIBRARY_ID / ZOTERO_API_KEY in the environment or a .env file.`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
