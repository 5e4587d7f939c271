// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"crivo/internal/fragment"
	"crivo/internal/paths"
	"crivo/internal/security"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Default settings
	Defaults struct {
		Format    string `yaml:"format"`
		Verbose   bool   `yaml:"verbose"`
		Debug     bool   `yaml:"debug"`
		NoColor   bool   `yaml:"no_color"`
		ShowMatch bool   `yaml:"show_match"`
		Workers   int    `yaml:"workers"`
		MaxRows   int    `yaml:"max_rows"`
	} `yaml:"defaults"`

	// Screening settings shared by every run
	Screening struct {
		WindowSize          int  `yaml:"window_size"`
		WindowOverlap       int  `yaml:"window_overlap"`
		SuppressionsEnabled bool `yaml:"suppressions_enabled"`

		NameScoreMin          float64 `yaml:"name_score_min"`
		NameScoreMinSingle    float64 `yaml:"name_score_min_single"`
		NameMaxTokensSingle   int     `yaml:"name_max_tokens_single"`
		NameMaxTokensFallback int     `yaml:"name_max_tokens_fallback"`
	} `yaml:"screening"`

	// Remote oracle settings. Credentials never appear here; they come
	// from the environment only.
	Oracle struct {
		Enabled         bool   `yaml:"enabled"`
		Model           string `yaml:"model"`
		NameTokenLookup bool   `yaml:"name_token_lookup"`
	} `yaml:"oracle"`

	// File locations
	Paths struct {
		Cache        string `yaml:"cache"`
		Evidence     string `yaml:"evidence"`
		Lexicon      string `yaml:"lexicon"`
		Suppressions string `yaml:"suppressions"`
	} `yaml:"paths"`

	// Profiles for different screening scenarios
	Profiles map[string]Profile `yaml:"profiles"`
}

// Profile represents a screening profile with specific settings
type Profile struct {
	Format        string `yaml:"format"`
	Verbose       bool   `yaml:"verbose"`
	Debug         bool   `yaml:"debug"`
	NoColor       bool   `yaml:"no_color"`
	ShowMatch     bool   `yaml:"show_match"`
	Workers       int    `yaml:"workers"`
	MaxRows       int    `yaml:"max_rows"`
	OracleEnabled bool   `yaml:"oracle_enabled"`
	Description   string `yaml:"description"`
}

// LoadConfig loads configuration from the specified file path
func LoadConfig(configPath string) (*Config, error) {
	// Default configuration
	config := &Config{
		Profiles: make(map[string]Profile),
	}

	// Set default values
	config.Defaults.Format = "text"
	config.Defaults.Verbose = false
	config.Defaults.Debug = false
	config.Defaults.NoColor = false
	config.Defaults.ShowMatch = false
	config.Defaults.Workers = 0 // auto
	config.Defaults.MaxRows = 0 // screen everything

	config.Screening.WindowSize = fragment.DefaultWindow
	config.Screening.WindowOverlap = fragment.DefaultOverlap
	config.Screening.SuppressionsEnabled = true
	config.Screening.NameScoreMin = 0.6
	config.Screening.NameScoreMinSingle = 1.1
	config.Screening.NameMaxTokensSingle = 4
	config.Screening.NameMaxTokensFallback = 4

	config.Oracle.Enabled = false
	config.Oracle.Model = "gpt-4o-mini"
	config.Oracle.NameTokenLookup = false

	config.Paths.Cache = paths.GetCacheFile()
	config.Paths.Suppressions = paths.GetSuppressionsFile()

	// Add default local-only profile: screening that is guaranteed to
	// make no remote calls, for air-gapped or privacy-reviewed batches.
	config.Profiles["local"] = Profile{
		Format:      "text",
		Description: "Local detectors only, remote oracle stays off",
	}

	// If no config file specified, return default config
	if configPath == "" {
		return config, nil
	}

	// Read config file
	cleanPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Store default values before unmarshaling
	defaultSuppressionsEnabled := config.Screening.SuppressionsEnabled

	// Parse YAML
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Restore defaults if not explicitly set in config file
	// This handles the case where YAML unmarshaling sets bool fields to false
	// when they're not present in the config file
	if !containsField(data, "screening", "suppressions_enabled") {
		config.Screening.SuppressionsEnabled = defaultSuppressionsEnabled
	}

	// Normalize configured paths for the current platform
	applyPathDefaults(config)

	// Validate the configuration
	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// FindConfigFile looks for a configuration file in standard locations using platform-aware paths
func FindConfigFile() string {
	// Check current directory first - prioritize config.yaml
	if fileExists("config.yaml") {
		return "config.yaml"
	}
	if fileExists("crivo.yaml") {
		return "crivo.yaml"
	}
	if fileExists("crivo.yml") {
		return "crivo.yml"
	}

	// Check for .crivo.yaml in current directory (project-specific config)
	if fileExists(".crivo.yaml") {
		return ".crivo.yaml"
	}
	if fileExists(".crivo.yml") {
		return ".crivo.yml"
	}

	// Check standard location using platform-aware paths
	standardConfig := paths.GetConfigFile()
	if fileExists(standardConfig) {
		return standardConfig
	}

	// Check platform-specific locations
	if runtime.GOOS == "windows" {
		return findWindowsConfigFile()
	}
	return findUnixConfigFile()
}

// findWindowsConfigFile looks for configuration files in Windows-specific locations
func findWindowsConfigFile() string {
	// Check Windows environment variables for config override
	if configDir := resolveWindowsEnvVar("CRIVO_CONFIG_DIR"); configDir != "" {
		configFile := filepath.Join(configDir, "config.yaml")
		if fileExists(configFile) {
			return configFile
		}
	}

	// Check APPDATA directory (recommended Windows location)
	if appData := resolveWindowsEnvVar("APPDATA"); appData != "" {
		configFile := filepath.Join(appData, "crivo", "config.yaml")
		if fileExists(configFile) {
			return configFile
		}
		configFile = filepath.Join(appData, "crivo", "config.yml")
		if fileExists(configFile) {
			return configFile
		}
	}

	// Check USERPROFILE directory (fallback)
	if userProfile := resolveWindowsEnvVar("USERPROFILE"); userProfile != "" {
		configFile := filepath.Join(userProfile, ".crivo", "config.yaml")
		if fileExists(configFile) {
			return configFile
		}
		configFile = filepath.Join(userProfile, ".crivo", "config.yml")
		if fileExists(configFile) {
			return configFile
		}
	}

	return ""
}

// findUnixConfigFile looks for configuration files in Unix-specific locations
func findUnixConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	// Check legacy location in home directory
	homeConfig := filepath.Join(home, ".crivo.yaml")
	if fileExists(homeConfig) {
		return homeConfig
	}
	homeConfig = filepath.Join(home, ".crivo.yml")
	if fileExists(homeConfig) {
		return homeConfig
	}

	// Check XDG config directory
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	xdgConfigFile := filepath.Join(xdgConfig, "crivo", "config.yaml")
	if fileExists(xdgConfigFile) {
		return xdgConfigFile
	}
	xdgConfigFile = filepath.Join(xdgConfig, "crivo", "config.yml")
	if fileExists(xdgConfigFile) {
		return xdgConfigFile
	}

	return ""
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return info != nil && !info.IsDir()
}

// ListProfiles returns a list of available profile names
func (c *Config) ListProfiles() []string {
	profiles := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		profiles = append(profiles, name)
	}
	return profiles
}

// GetProfile returns a profile by name, or nil if not found
func (c *Config) GetProfile(name string) *Profile {
	if profile, exists := c.Profiles[name]; exists {
		return &profile
	}
	return nil
}

// containsField checks if a nested field exists in the YAML data
func containsField(data []byte, path ...string) bool {
	var yamlData map[string]interface{}
	err := yaml.Unmarshal(data, &yamlData)
	if err != nil {
		return false
	}

	current := yamlData
	for i, key := range path {
		if i == len(path)-1 {
			// Last key - check if it exists
			_, exists := current[key]
			return exists
		}
		// Intermediate key - navigate deeper
		if next, ok := current[key].(map[string]interface{}); ok {
			current = next
		} else {
			return false
		}
	}
	return false
}

// resolveWindowsEnvVar resolves Windows environment variables with proper expansion
func resolveWindowsEnvVar(varName string) string {
	value := os.Getenv(varName)
	if value == "" {
		return ""
	}

	// Expand any embedded environment variables (e.g., %USERPROFILE%\AppData)
	expanded := os.ExpandEnv(value)

	return paths.NormalizePath(expanded)
}

// applyPathDefaults normalizes every configured path for the current platform
func applyPathDefaults(config *Config) {
	if config == nil {
		return
	}
	if config.Paths.Cache != "" {
		config.Paths.Cache = paths.NormalizePath(config.Paths.Cache)
	}
	if config.Paths.Evidence != "" {
		config.Paths.Evidence = paths.NormalizePath(config.Paths.Evidence)
	}
	if config.Paths.Lexicon != "" {
		config.Paths.Lexicon = paths.NormalizePath(config.Paths.Lexicon)
	}
	if config.Paths.Suppressions != "" {
		config.Paths.Suppressions = paths.NormalizePath(config.Paths.Suppressions)
	}
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if _, err := fragment.NewSplitter(config.Screening.WindowSize, config.Screening.WindowOverlap); err != nil {
		return fmt.Errorf("invalid fragment window: %w", err)
	}

	if config.Screening.NameScoreMin <= 0 || config.Screening.NameScoreMinSingle <= 0 {
		return fmt.Errorf("name score thresholds must be positive")
	}
	if config.Screening.NameMaxTokensSingle < 1 || config.Screening.NameMaxTokensFallback < 1 {
		return fmt.Errorf("name token caps must be at least 1")
	}

	if config.Defaults.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}
	if config.Defaults.MaxRows < 0 {
		return fmt.Errorf("max_rows cannot be negative")
	}

	if config.Oracle.Enabled && config.Oracle.Model == "" {
		return fmt.Errorf("oracle is enabled but no model is configured")
	}

	return nil
}

// Credentials carry the remote service secrets. They are read from the
// environment only; a key in a YAML file would end up in version control.
type Credentials struct {
	OpenAIKey *security.SecureString
	LookupKey *security.SecureString
}

// Environment variables consulted for credentials. The crivo-specific
// name wins over the generic one.
const (
	EnvOpenAIKey        = "CRIVO_OPENAI_KEY"
	EnvOpenAIKeyGeneric = "OPENAI_API_KEY"
	EnvLookupKey        = "GENDERIZE_API_KEY"
)

// LoadCredentials reads secrets from the environment. A .env file in the
// working directory is loaded first; variables already set in the real
// environment win over it.
func LoadCredentials() Credentials {
	_ = godotenv.Load()

	creds := Credentials{}

	key := os.Getenv(EnvOpenAIKey)
	if key == "" {
		key = os.Getenv(EnvOpenAIKeyGeneric)
	}
	if key != "" {
		creds.OpenAIKey = security.NewSecureString(key)
	}

	if lookup := os.Getenv(EnvLookupKey); lookup != "" {
		creds.LookupKey = security.NewSecureString(lookup)
	}

	return creds
}

// Clear scrubs every loaded secret.
func (c *Credentials) Clear() {
	if c.OpenAIKey != nil {
		c.OpenAIKey.Clear()
	}
	if c.LookupKey != nil {
		c.LookupKey.Clear()
	}
}

// ValidateCredentials checks that every enabled remote feature has its
// secret. Called at startup so a misconfigured batch fails before the
// first row, not at the first ambiguous one.
func ValidateCredentials(config *Config, creds Credentials) error {
	if config.Oracle.Enabled && creds.OpenAIKey == nil {
		return fmt.Errorf("oracle is enabled but neither %s nor %s is set", EnvOpenAIKey, EnvOpenAIKeyGeneric)
	}
	if config.Oracle.NameTokenLookup && creds.LookupKey == nil {
		return fmt.Errorf("name token lookup is enabled but %s is not set", EnvLookupKey)
	}
	return nil
}

// LoadConfigOrDefault loads configuration from configFile (or searches standard locations
// when configFile is empty). If loading fails, it returns a default configuration.
func LoadConfigOrDefault(configFile string) *Config {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		// Fall back to defaults — callers should not crash on a missing/bad config file.
		cfg, _ = LoadConfig("")
	}
	return cfg
}
