package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"

	"gfmclip/pkg/clipboard"
	"gfmclip/pkg/errors"
)

// contains checks if a string contains a substring
func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

// clearEnv unsets every override so tests see only the file.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GFMCLIP_PROFILE", "GFMCLIP_SANITIZE_HTML", "GFMCLIP_SERVE_ADDR", "GFMCLIP_GFM_FORMAT", "GFMCLIP_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}
	return path
}

func TestLoad_Success(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `selectors:
  structured_content: ".markdown-body"
  paste_target: "textarea.comment"
formats:
  markup: "text/x-markdown"
sanitize_html: true
serve:
  addr: "127.0.0.1:9999"
log_level: debug
`)

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}

	if cfg.Selectors.StructuredContent != ".markdown-body" {
		t.Errorf("Expected structured content '.markdown-body', got '%s'", cfg.Selectors.StructuredContent)
	}
	if cfg.Selectors.PasteTarget != "textarea.comment" {
		t.Errorf("Expected paste target 'textarea.comment', got '%s'", cfg.Selectors.PasteTarget)
	}
	if cfg.Selectors.LineContent != ".line_content" {
		t.Errorf("Expected default line content selector, got '%s'", cfg.Selectors.LineContent)
	}
	if cfg.Formats.Markup != "text/x-markdown" {
		t.Errorf("Expected markup format 'text/x-markdown', got '%s'", cfg.Formats.Markup)
	}
	if cfg.Formats.Plain != clipboard.FormatPlain {
		t.Errorf("Expected plain format to keep its default, got '%s'", cfg.Formats.Plain)
	}
	if !cfg.SanitizeHTML {
		t.Error("Expected sanitize_html to be true")
	}
	if cfg.Serve.Addr != "127.0.0.1:9999" {
		t.Errorf("Expected serve addr '127.0.0.1:9999', got '%s'", cfg.Serve.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", cfg.LogLevel)
	}
}

func TestLoad_FileNotFound_UsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := loadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}

	want := Default()
	if cfg.Selectors.StructuredContent != want.Selectors.StructuredContent {
		t.Errorf("Expected default structured content, got '%s'", cfg.Selectors.StructuredContent)
	}
	if cfg.Formats != want.Formats {
		t.Errorf("Expected default formats, got %+v", cfg.Formats)
	}
	if cfg.Serve.Addr != DefaultServeAddr {
		t.Errorf("Expected default serve addr, got '%s'", cfg.Serve.Addr)
	}
	if cfg.ActiveProfile != "" {
		t.Errorf("Expected no active profile, got '%s'", cfg.ActiveProfile)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "selectors: [unclosed\n")

	_, err := loadFromPath(path)
	if err == nil {
		t.Fatal("loadFromPath() expected error for invalid YAML")
	}
	if !errors.IsExitCode(err, errors.ExitCodeConfig) {
		t.Errorf("Expected config exit code, got %v", err)
	}
	if !contains(err.Error(), "failed to parse config file") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestLoad_InvalidSelector(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `selectors:
  code_display: "..broken"
`)

	_, err := loadFromPath(path)
	if err == nil {
		t.Fatal("loadFromPath() expected error for invalid selector")
	}
	if !contains(err.Error(), "code_display") {
		t.Errorf("Expected error to name the selector, got %v", err)
	}
}

func TestLoad_SharedFormatKeys(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `formats:
  markup: "text/plain"
`)

	_, err := loadFromPath(path)
	if err == nil {
		t.Fatal("loadFromPath() expected error for shared format keys")
	}
	if !contains(err.Error(), "invalid clipboard formats") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestLoad_WithEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `serve:
  addr: "127.0.0.1:1111"
log_level: info
`)

	t.Setenv("GFMCLIP_SERVE_ADDR", "0.0.0.0:2222")
	t.Setenv("GFMCLIP_SANITIZE_HTML", "true")
	t.Setenv("GFMCLIP_GFM_FORMAT", "text/markdown")
	t.Setenv("GFMCLIP_LOG_LEVEL", "warn")

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}
	if cfg.Serve.Addr != "0.0.0.0:2222" {
		t.Errorf("Expected env serve addr, got '%s'", cfg.Serve.Addr)
	}
	if !cfg.SanitizeHTML {
		t.Error("Expected env to enable sanitize_html")
	}
	if cfg.Formats.Markup != "text/markdown" {
		t.Errorf("Expected env markup format, got '%s'", cfg.Formats.Markup)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected env log level, got '%s'", cfg.LogLevel)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("GFMCLIP_TEST_VALUE", "set")
	if got := getEnv("GFMCLIP_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("getEnv() = %s, want set", got)
	}
	if got := getEnv("GFMCLIP_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnv() = %s, want fallback", got)
	}

	t.Setenv("GFMCLIP_TEST_BOOL", "not-a-bool")
	if got := getEnvBool("GFMCLIP_TEST_BOOL", true); !got {
		t.Error("getEnvBool() should keep the default for unparsable values")
	}
}

func TestGetConfigPath_WithXDG(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() returned error: %v", err)
	}
	want := filepath.Join(tmpDir, AppName, "config.yaml")
	if path != want {
		t.Errorf("GetConfigPath() = %s, want %s", path, want)
	}
}

func TestConfig_ProfileManagement(t *testing.T) {
	cfg := Default()

	if err := cfg.AddProfile(Profile{Name: "gitlab"}); err != nil {
		t.Fatalf("AddProfile() returned error: %v", err)
	}
	if err := cfg.AddProfile(Profile{Name: "wiki"}); err != nil {
		t.Fatalf("AddProfile() returned error: %v", err)
	}
	if err := cfg.AddProfile(Profile{Name: "gitlab"}); err == nil {
		t.Error("AddProfile() should reject duplicates")
	}
	if err := cfg.AddProfile(Profile{}); err == nil {
		t.Error("AddProfile() should reject an empty name")
	}

	names := cfg.ListProfiles()
	if len(names) != 2 || names[0] != "gitlab" || names[1] != "wiki" {
		t.Errorf("ListProfiles() = %v", names)
	}

	if err := cfg.SetProfile("gitlab"); err != nil {
		t.Fatalf("SetProfile() returned error: %v", err)
	}
	if !cfg.IsProfileActive("gitlab") {
		t.Error("Expected gitlab to be active")
	}
	if err := cfg.RemoveProfile("gitlab"); err == nil {
		t.Error("RemoveProfile() should refuse the active profile")
	}

	if err := cfg.SetProfile(""); err != nil {
		t.Fatalf("SetProfile(\"\") returned error: %v", err)
	}
	if err := cfg.RemoveProfile("gitlab"); err != nil {
		t.Fatalf("RemoveProfile() returned error: %v", err)
	}
	if len(cfg.ListProfiles()) != 1 {
		t.Errorf("Expected one profile left, got %v", cfg.ListProfiles())
	}
}

func TestConfig_ProfileNotFoundSuggests(t *testing.T) {
	cfg := Default()
	_ = cfg.AddProfile(Profile{Name: "gitlab"})

	_, err := cfg.GetProfile("gitlba")
	if err == nil {
		t.Fatal("GetProfile() expected error")
	}
	gerr, ok := err.(*errors.Error)
	if !ok {
		t.Fatalf("Expected *errors.Error, got %T", err)
	}
	if gerr.Code != errors.ExitCodeConfig {
		t.Errorf("Expected profile-not-found exit code, got %d", gerr.Code)
	}
	if !contains(gerr.Suggestion, "gitlab") {
		t.Errorf("Expected suggestion to name gitlab, got %q", gerr.Suggestion)
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	sanitize := true
	if err := cfg.AddProfile(Profile{
		Name:         "wiki",
		Selectors:    Selectors{StructuredContent: ".wiki-page"},
		SanitizeHTML: &sanitize,
	}); err != nil {
		t.Fatalf("AddProfile() returned error: %v", err)
	}
	if err := SaveFile(path, cfg); err != nil {
		t.Fatalf("SaveFile() returned error: %v", err)
	}

	loaded, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}
	if len(loaded.Profiles) != 1 || loaded.Profiles[0].Name != "wiki" {
		t.Fatalf("Expected saved profile, got %+v", loaded.Profiles)
	}
	if loaded.Selectors.StructuredContent != DefaultSelectors().StructuredContent {
		t.Errorf("Profile should not apply without being selected, got '%s'", loaded.Selectors.StructuredContent)
	}
}

func TestConfig_LoadWithProfile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `profiles:
  - name: wiki
    selectors:
      structured_content: ".wiki-page"
      task_checkbox_class: "todo-box"
    formats:
      markup: "text/x-wiki-gfm"
    sanitize_html: true
  - name: plain
    default: true
`)

	cfg, err := loadFromPath(path, "wiki")
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}
	if cfg.ActiveProfile != "wiki" {
		t.Errorf("Expected active profile 'wiki', got '%s'", cfg.ActiveProfile)
	}
	if cfg.Selectors.StructuredContent != ".wiki-page" {
		t.Errorf("Expected profile selector, got '%s'", cfg.Selectors.StructuredContent)
	}
	if cfg.Selectors.Classes().TaskCheckbox != "todo-box" {
		t.Errorf("Expected profile checkbox class, got '%s'", cfg.Selectors.TaskCheckbox)
	}
	if cfg.Selectors.Classes().SectionNav != "section-nav" {
		t.Errorf("Expected default section nav class, got '%s'", cfg.Selectors.SectionNav)
	}
	if cfg.Formats.Markup != "text/x-wiki-gfm" {
		t.Errorf("Expected profile markup format, got '%s'", cfg.Formats.Markup)
	}
	if !cfg.SanitizeHTML {
		t.Error("Expected profile to enable sanitize_html")
	}

	def, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}
	if def.ActiveProfile != "plain" {
		t.Errorf("Expected default profile 'plain', got '%s'", def.ActiveProfile)
	}

	t.Setenv("GFMCLIP_PROFILE", "wiki")
	env, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() returned error: %v", err)
	}
	if env.ActiveProfile != "wiki" {
		t.Errorf("Expected env profile 'wiki', got '%s'", env.ActiveProfile)
	}

	if _, err := loadFromPath(path, "missing"); err == nil {
		t.Error("Expected error for unknown profile")
	}
}

func TestLoadForEdit_KeepsProfilesUnapplied(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	cfg := Default()
	cfg.ActiveProfile = "wiki"
	cfg.Profiles = []Profile{{Name: "wiki", Selectors: Selectors{StructuredContent: ".wiki-page"}}}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}

	t.Setenv("GFMCLIP_SERVE_ADDR", "0.0.0.0:1")
	edit, err := LoadForEdit()
	if err != nil {
		t.Fatalf("LoadForEdit() returned error: %v", err)
	}
	if edit.Selectors.StructuredContent != DefaultSelectors().StructuredContent {
		t.Errorf("LoadForEdit() applied the profile: '%s'", edit.Selectors.StructuredContent)
	}
	if edit.Serve.Addr != DefaultServeAddr {
		t.Errorf("LoadForEdit() applied env overrides: '%s'", edit.Serve.Addr)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if loaded.Selectors.StructuredContent != ".wiki-page" {
		t.Errorf("Load() should apply the active profile, got '%s'", loaded.Selectors.StructuredContent)
	}
}
