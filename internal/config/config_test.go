package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	ResetGlobalConfigCache()
	t.Cleanup(ResetGlobalConfigCache)

	if content != "" {
		cfgDir := filepath.Join(dir, GlobalConfigDir)
		if err := os.MkdirAll(cfgDir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(cfgDir, GlobalConfigFile), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLoadGlobalConfig(t *testing.T) {
	writeConfig(t, `
zotero_library_id: "9876"
zotero_library_type: group
zotero_api_key: from-file
ollama_url: http://embedder:11434
`)
	t.Setenv("ZOTERO_API_KEY", "from-env")

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig: %v", err)
	}
	if cfg.ZoteroLibraryID != "9876" || cfg.ZoteroLibraryType != "group" {
		t.Errorf("library = %q/%q", cfg.ZoteroLibraryID, cfg.ZoteroLibraryType)
	}
	if cfg.ZoteroAPIKey != "from-file" {
		t.Errorf("yaml value overridden by env: %q", cfg.ZoteroAPIKey)
	}
	if cfg.OllamaURL != "http://embedder:11434" {
		t.Errorf("OllamaURL = %q", cfg.OllamaURL)
	}
}

func TestLoadGlobalConfigMissingFile(t *testing.T) {
	writeConfig(t, "")
	t.Setenv("ZOTERO_LIBRARY_ID", "777")
	t.Setenv("S2_API_KEY", "env-key")

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig: %v", err)
	}
	if cfg.ZoteroLibraryID != "777" || cfg.S2APIKey != "env-key" {
		t.Errorf("env fallbacks not applied: %+v", cfg)
	}
	if cfg.ZoteroLibraryType != "user" {
		t.Errorf("library type default = %q, want user", cfg.ZoteroLibraryType)
	}
}

func TestLoadGlobalConfigBadYAML(t *testing.T) {
	writeConfig(t, "zotero_library_id: [unclosed")
	if _, err := LoadGlobalConfig(); err == nil {
		t.Error("malformed yaml accepted")
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandTilde("~/venues.yml"); got != filepath.Join(home, "venues.yml") {
		t.Errorf("ExpandTilde = %q", got)
	}
	if got := ExpandTilde("/abs/venues.yml"); got != "/abs/venues.yml" {
		t.Errorf("absolute path changed: %q", got)
	}
}
