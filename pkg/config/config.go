/*
Package config manages TOML (and YAML) config for inkpilot.
*/
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/bastiangx/inkpilot/internal/utils"
	"github.com/bastiangx/inkpilot/pkg/trigger"
)

const appName = "inkpilot"

// Config holds the entire config structure
type Config struct {
	Completion CompletionConfig  `toml:"completion" yaml:"completion"`
	Limits     LimitsConfig      `toml:"limits" yaml:"limits"`
	Processing ProcessingConfig  `toml:"processing" yaml:"processing"`
	Ignore     IgnoreConfig      `toml:"ignore" yaml:"ignore"`
	Dictionary DictionaryConfig  `toml:"dictionary" yaml:"dictionary"`
	Triggers   []trigger.Trigger `toml:"triggers" yaml:"triggers"`
}

// CompletionConfig controls when suggestions are requested and kept.
type CompletionConfig struct {
	Enabled          bool `toml:"enabled" yaml:"enabled"`
	DelayMs          int  `toml:"delay_ms" yaml:"delay_ms"`
	CacheSuggestions bool `toml:"cache_suggestions" yaml:"cache_suggestions"`
	MaxCacheEntries  int  `toml:"max_cache_entries" yaml:"max_cache_entries"`
}

// LimitsConfig bounds what is sent to the model.
type LimitsConfig struct {
	MaxPrefixChars   int `toml:"max_prefix_chars" yaml:"max_prefix_chars"`
	MaxSuffixChars   int `toml:"max_suffix_chars" yaml:"max_suffix_chars"`
	RequestTimeoutMs int `toml:"request_timeout_ms" yaml:"request_timeout_ms"`
}

// ProcessingConfig toggles the optional pipeline stages.
type ProcessingConfig struct {
	RemoveEmbeddedQueries bool `toml:"remove_embedded_queries" yaml:"remove_embedded_queries"`
	RemoveMathDelimiters  bool `toml:"remove_math_delimiters" yaml:"remove_math_delimiters"`
	RemoveCodeFences      bool `toml:"remove_code_fences" yaml:"remove_code_fences"`
}

// IgnoreConfig lists files where completion is switched off.
type IgnoreConfig struct {
	Paths []string `toml:"paths" yaml:"paths"`
	Tags  []string `toml:"tags" yaml:"tags"`
}

// DictionaryConfig holds options for the offline dictionary backend.
type DictionaryConfig struct {
	Dir          string `toml:"dir" yaml:"dir"`
	MaxWords     int    `toml:"max_words" yaml:"max_words"`
	MinPrefix    int    `toml:"min_prefix" yaml:"min_prefix"`
	MinFrequency int    `toml:"min_frequency" yaml:"min_frequency"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. $XDG_CONFIG_HOME/inkpilot or the platform equivalent
// 2. ~/Library/Application Support/ (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := utils.PlatformConfigDir(homeDir, appName)
	if utils.WritableDir(primaryPath) {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", appName)
	if utils.WritableDir(macOSPath) {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/inkpilot/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Completion: CompletionConfig{
			Enabled:          true,
			DelayMs:          500,
			CacheSuggestions: true,
			MaxCacheEntries:  5000,
		},
		Limits: LimitsConfig{
			MaxPrefixChars:   4000,
			MaxSuffixChars:   4000,
			RequestTimeoutMs: 10000,
		},
		Processing: ProcessingConfig{
			RemoveEmbeddedQueries: true,
			RemoveMathDelimiters:  true,
			RemoveCodeFences:      true,
		},
		Ignore: IgnoreConfig{
			Paths: []string{},
			Tags:  []string{},
		},
		Dictionary: DictionaryConfig{
			Dir:          "data",
			MaxWords:     50000,
			MinPrefix:    2,
			MinFrequency: 20,
		},
		Triggers: trigger.Defaults(),
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file, or a YAML file when the extension says so.
// A broken TOML file is recovered section by section.
func LoadConfig(configPath string) (*Config, error) {
	if isYAML(configPath) {
		return loadYAML(configPath)
	}
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func loadYAML(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}
	return config, nil
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() (string, error) {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return "", err
	}
	return defaultPath, SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.DisplayPath(configPath)
}

// SaveConfig saves into a TOML file, or YAML when the extension says so.
func SaveConfig(config *Config, configPath string) error {
	if isYAML(configPath) {
		return utils.WriteFileAtomic(configPath, func(w io.Writer) error {
			enc := yaml.NewEncoder(w)
			if err := enc.Encode(config); err != nil {
				return err
			}
			return enc.Close()
		})
	}
	return utils.SaveTOMLFile(config, configPath)
}
