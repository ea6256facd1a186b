package config

import (
	"github.com/charmbracelet/log"

	"github.com/bastiangx/inkpilot/internal/utils"
	"github.com/bastiangx/inkpilot/pkg/trigger"
)

// tryPartialParse attempts to parse a TOML file
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}
	applyRaw(tempConfig, config)
	return config, nil
}

// applyRaw copies every well-typed value of a generic document onto config.
// Values of the wrong type are skipped and keep their defaults.
func applyRaw(data map[string]any, config *Config) {
	if section, ok := utils.ExtractSection(data, "completion"); ok {
		extractCompletionConfig(section, &config.Completion)
	}
	if section, ok := utils.ExtractSection(data, "limits"); ok {
		extractLimitsConfig(section, &config.Limits)
	}
	if section, ok := utils.ExtractSection(data, "processing"); ok {
		extractProcessingConfig(section, &config.Processing)
	}
	if section, ok := utils.ExtractSection(data, "ignore"); ok {
		extractIgnoreConfig(section, &config.Ignore)
	}
	if section, ok := utils.ExtractSection(data, "dictionary"); ok {
		extractDictionaryConfig(section, &config.Dictionary)
	}
	if tables, ok := utils.ExtractTables(data, "triggers"); ok {
		config.Triggers = extractTriggers(tables)
	}
}

// extractCompletionConfig extracts completion configuration from a map
func extractCompletionConfig(data map[string]any, c *CompletionConfig) {
	if val, ok := utils.ExtractBool(data, "enabled"); ok {
		c.Enabled = val
	}
	if val, ok := utils.ExtractInt64(data, "delay_ms"); ok {
		c.DelayMs = val
	}
	if val, ok := utils.ExtractBool(data, "cache_suggestions"); ok {
		c.CacheSuggestions = val
	}
	if val, ok := utils.ExtractInt64(data, "max_cache_entries"); ok {
		c.MaxCacheEntries = val
	}
}

// extractLimitsConfig extracts limits configuration from a map
func extractLimitsConfig(data map[string]any, l *LimitsConfig) {
	if val, ok := utils.ExtractInt64(data, "max_prefix_chars"); ok {
		l.MaxPrefixChars = val
	}
	if val, ok := utils.ExtractInt64(data, "max_suffix_chars"); ok {
		l.MaxSuffixChars = val
	}
	if val, ok := utils.ExtractInt64(data, "request_timeout_ms"); ok {
		l.RequestTimeoutMs = val
	}
}

// extractProcessingConfig extracts processing toggles from a map
func extractProcessingConfig(data map[string]any, p *ProcessingConfig) {
	if val, ok := utils.ExtractBool(data, "remove_embedded_queries"); ok {
		p.RemoveEmbeddedQueries = val
	}
	if val, ok := utils.ExtractBool(data, "remove_math_delimiters"); ok {
		p.RemoveMathDelimiters = val
	}
	if val, ok := utils.ExtractBool(data, "remove_code_fences"); ok {
		p.RemoveCodeFences = val
	}
}

// extractIgnoreConfig extracts ignore rules from a map
func extractIgnoreConfig(data map[string]any, i *IgnoreConfig) {
	if val, ok := utils.ExtractStringSlice(data, "paths"); ok {
		i.Paths = val
	}
	if val, ok := utils.ExtractStringSlice(data, "tags"); ok {
		i.Tags = val
	}
}

// extractDictionaryConfig extracts dictionary configuration from a map
func extractDictionaryConfig(data map[string]any, d *DictionaryConfig) {
	if val, ok := utils.ExtractString(data, "dir"); ok {
		d.Dir = val
	}
	if val, ok := utils.ExtractInt64(data, "max_words"); ok {
		d.MaxWords = val
	}
	if val, ok := utils.ExtractInt64(data, "min_prefix"); ok {
		d.MinPrefix = val
	}
	if val, ok := utils.ExtractInt64(data, "min_frequency"); ok {
		d.MinFrequency = val
	}
}

// extractTriggers keeps the [[triggers]] tables that carry a string value.
func extractTriggers(tables []map[string]any) []trigger.Trigger {
	triggers := make([]trigger.Trigger, 0, len(tables))
	for _, t := range tables {
		value, ok := utils.ExtractString(t, "value")
		if !ok {
			continue
		}
		kind, _ := utils.ExtractString(t, "type")
		triggers = append(triggers, trigger.Trigger{Kind: trigger.Kind(kind), Value: value})
	}
	return triggers
}
