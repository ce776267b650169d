package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"gfmclip/pkg/clipboard"
	"gfmclip/pkg/errors"
	"gfmclip/pkg/filter"
	"gfmclip/pkg/gfm"
	"gfmclip/pkg/nodes"
	"gfmclip/pkg/selection"
)

const (
	AppName          = "gfmclip"
	DefaultServeAddr = "127.0.0.1:8765"
	DefaultLogLevel  = "info"
)

// Selectors are the markup conventions of the view copy and paste events
// come from.
type Selectors struct {
	StructuredContent string   `yaml:"structured_content,omitempty"`
	CodeDisplay       string   `yaml:"code_display,omitempty"`
	PasteTarget       string   `yaml:"paste_target,omitempty"`
	Line              string   `yaml:"line,omitempty"`
	LineContent       string   `yaml:"line_content,omitempty"`
	DiffSides         []string `yaml:"diff_sides,omitempty"`
	TaskCheckbox      string   `yaml:"task_checkbox_class,omitempty"`
	SectionNav        string   `yaml:"section_nav_class,omitempty"`
}

func DefaultSelectors() Selectors {
	sel := selection.DefaultSelectors()
	classes := gfm.DefaultClasses()
	return Selectors{
		StructuredContent: sel.StructuredContent,
		CodeDisplay:       "pre.code.highlight, .diff-content .line_content",
		PasteTarget:       ".js-gfm-input",
		Line:              sel.Line,
		LineContent:       sel.LineContent,
		DiffSides:         sel.DiffSides,
		TaskCheckbox:      classes.TaskCheckbox,
		SectionNav:        classes.SectionNav,
	}
}

// Selection returns the selectors the normalizer needs.
func (s Selectors) Selection() selection.Selectors {
	return selection.Selectors{
		StructuredContent: s.StructuredContent,
		Line:              s.Line,
		LineContent:       s.LineContent,
		DiffSides:         s.DiffSides,
	}
}

// Classes returns the class names the built-in rules recognize.
func (s Selectors) Classes() gfm.Classes {
	return gfm.Classes{TaskCheckbox: s.TaskCheckbox, SectionNav: s.SectionNav}
}

// merge copies every field set in o over s.
func (s *Selectors) merge(o Selectors) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&s.StructuredContent, o.StructuredContent)
	set(&s.CodeDisplay, o.CodeDisplay)
	set(&s.PasteTarget, o.PasteTarget)
	set(&s.Line, o.Line)
	set(&s.LineContent, o.LineContent)
	set(&s.TaskCheckbox, o.TaskCheckbox)
	set(&s.SectionNav, o.SectionNav)
	if len(o.DiffSides) > 0 {
		s.DiffSides = append([]string(nil), o.DiffSides...)
	}
}

// Profile is a named set of overrides, typically one per site whose markup
// conventions differ from the defaults.
type Profile struct {
	Name         string            `yaml:"name"`
	Selectors    Selectors         `yaml:"selectors,omitempty"`
	Formats      clipboard.Formats `yaml:"formats,omitempty"`
	SanitizeHTML *bool             `yaml:"sanitize_html,omitempty"`
	Default      bool              `yaml:"default,omitempty"`
}

type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// Config holds the complete configuration including profiles
type Config struct {
	Selectors     Selectors         `yaml:"selectors"`
	Formats       clipboard.Formats `yaml:"formats"`
	SanitizeHTML  bool              `yaml:"sanitize_html"`
	Serve         ServeConfig       `yaml:"serve"`
	LogLevel      string            `yaml:"log_level"`
	Profiles      []Profile         `yaml:"profiles,omitempty"`
	ActiveProfile string            `yaml:"active_profile,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Selectors: DefaultSelectors(),
		Formats:   clipboard.DefaultFormats(),
		Serve:     ServeConfig{Addr: DefaultServeAddr},
		LogLevel:  DefaultLogLevel,
	}
}

// Load loads the configuration, optionally with a specific profile
func Load(profileName ...string) (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeConfig, "failed to get config path", err)
	}
	return loadFromPath(configPath, profileName...)
}

// LoadFile loads the configuration from an explicit path.
func LoadFile(path string, profileName ...string) (*Config, error) {
	return loadFromPath(path, profileName...)
}

// LoadForEdit reads the config file without environment overrides or
// profiles applied, so it can be changed and saved back as written.
func LoadForEdit() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, errors.NewWithError(errors.ExitCodeConfig, "failed to get config path", err)
	}
	return LoadFileForEdit(configPath)
}

// LoadFileForEdit is LoadForEdit for an explicit path.
func LoadFileForEdit(path string) (*Config, error) {
	cfg := Default()
	if err := loadConfigFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	if xdg.ConfigHome == "" {
		return "", fmt.Errorf("no config directory")
	}
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml"), nil
}

// Save saves the configuration to file
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(configPath, cfg)
}

// SaveFile writes cfg to path, creating the directory.
func SaveFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to write config file", err)
	}

	return nil
}

// GetProfile returns a profile by name
func (c *Config) GetProfile(name string) (*Profile, error) {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i], nil
		}
	}
	return nil, errors.ProfileNotFoundError(name, filter.Suggest(name, c.ListProfiles(), 3))
}

// SetProfile sets the active profile
func (c *Config) SetProfile(name string) error {
	if name == "" {
		c.ActiveProfile = ""
		return nil
	}

	if _, err := c.GetProfile(name); err != nil {
		return err
	}

	c.ActiveProfile = name
	return nil
}

// AddProfile adds a new profile
func (c *Config) AddProfile(profile Profile) error {
	if profile.Name == "" {
		return errors.ValidationError("profile name is empty")
	}
	for _, p := range c.Profiles {
		if p.Name == profile.Name {
			return errors.ValidationError(fmt.Sprintf("profile '%s' already exists", profile.Name))
		}
	}

	c.Profiles = append(c.Profiles, profile)
	return nil
}

// RemoveProfile removes a profile
func (c *Config) RemoveProfile(name string) error {
	if c.ActiveProfile == name {
		return errors.ValidationError(fmt.Sprintf("cannot remove active profile '%s'", name))
	}

	for i, p := range c.Profiles {
		if p.Name == name {
			c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
			return nil
		}
	}
	return errors.ProfileNotFoundError(name, filter.Suggest(name, c.ListProfiles(), 3))
}

// ListProfiles returns a list of profile names
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// IsProfileActive returns true if the given profile is active
func (c *Config) IsProfileActive(name string) bool {
	return c.ActiveProfile == name
}

// defaultProfile returns the first profile marked default.
func (c *Config) defaultProfile() string {
	for _, p := range c.Profiles {
		if p.Default {
			return p.Name
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func loadFromPath(configPath string, profileName ...string) (*Config, error) {
	cfg := Default()

	if err := loadConfigFile(configPath, cfg); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(cfg)

	targetProfile := cfg.defaultProfile()
	if cfg.ActiveProfile != "" {
		targetProfile = cfg.ActiveProfile
	}
	if len(profileName) > 0 && profileName[0] != "" {
		targetProfile = profileName[0]
	}

	if targetProfile != "" {
		profile, err := cfg.GetProfile(targetProfile)
		if err != nil {
			return nil, err
		}
		applyProfileConfig(cfg, profile)
		cfg.ActiveProfile = targetProfile
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyProfileConfig(cfg *Config, profile *Profile) {
	cfg.Selectors.merge(profile.Selectors)
	if profile.Formats.Plain != "" {
		cfg.Formats.Plain = profile.Formats.Plain
	}
	if profile.Formats.Markup != "" {
		cfg.Formats.Markup = profile.Formats.Markup
	}
	if profile.Formats.HTML != "" {
		cfg.Formats.HTML = profile.Formats.HTML
	}
	if profile.SanitizeHTML != nil {
		cfg.SanitizeHTML = *profile.SanitizeHTML
	}
}

// loadConfigFile reads and parses the config file from the given path
func loadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		// No file means defaults and environment only.
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to parse config file", err)
	}

	return nil
}

// applyEnvironmentOverrides applies environment variable overrides to the config
func applyEnvironmentOverrides(cfg *Config) {
	cfg.SanitizeHTML = getEnvBool("GFMCLIP_SANITIZE_HTML", cfg.SanitizeHTML)
	cfg.Serve.Addr = getEnv("GFMCLIP_SERVE_ADDR", cfg.Serve.Addr)
	cfg.Formats.Markup = getEnv("GFMCLIP_GFM_FORMAT", cfg.Formats.Markup)
	cfg.LogLevel = getEnv("GFMCLIP_LOG_LEVEL", cfg.LogLevel)

	if profileEnv := os.Getenv("GFMCLIP_PROFILE"); profileEnv != "" {
		cfg.ActiveProfile = profileEnv
	}
}

// validateConfig checks that every selector compiles and that format keys
// are usable.
func validateConfig(cfg *Config) error {
	selectors := map[string]string{
		"structured_content": cfg.Selectors.StructuredContent,
		"code_display":       cfg.Selectors.CodeDisplay,
		"paste_target":       cfg.Selectors.PasteTarget,
		"line":               cfg.Selectors.Line,
		"line_content":       cfg.Selectors.LineContent,
	}
	for _, name := range []string{"structured_content", "code_display", "paste_target", "line", "line_content"} {
		if _, err := nodes.Compile(selectors[name]); err != nil {
			return errors.NewWithSuggestion(errors.ExitCodeConfig,
				fmt.Sprintf("selector %s is invalid: %v", name, err),
				"Use a CSS selector such as '.md, .wiki'")
		}
	}
	if cfg.Selectors.TaskCheckbox == "" || cfg.Selectors.SectionNav == "" {
		return errors.ConfigError("task_checkbox_class and section_nav_class must be set")
	}
	if _, err := selection.NewNormalizer(cfg.Selectors.Selection()); err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "invalid diff side selectors", err)
	}
	if err := cfg.Formats.Validate(); err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "invalid clipboard formats", err)
	}
	return nil
}
