package config

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/bastiangx/inkpilot/pkg/pipeline"
	"github.com/bastiangx/inkpilot/pkg/trigger"
)

// Settings is the validated, compiled view of a Config that the engine runs on.
// A Settings with Errors is still usable for status display but must not enable
// completion.
type Settings struct {
	Enabled          bool
	Delay            time.Duration
	CacheSuggestions bool
	MaxCacheEntries  int
	RequestTimeout   time.Duration
	Triggers         *trigger.Set
	Ignore           IgnoreRules
	Pipeline         pipeline.Options
	Errors           FieldErrors
}

// Valid reports whether the configuration had no field errors.
func (s Settings) Valid() bool {
	return len(s.Errors) == 0
}

// NewSettings validates c and compiles it.
func NewSettings(c *Config) Settings {
	s := Settings{
		Enabled:          c.Completion.Enabled,
		Delay:            time.Duration(c.Completion.DelayMs) * time.Millisecond,
		CacheSuggestions: c.Completion.CacheSuggestions,
		MaxCacheEntries:  c.Completion.MaxCacheEntries,
		RequestTimeout:   time.Duration(c.Limits.RequestTimeoutMs) * time.Millisecond,
		Ignore:           NewIgnoreRules(c.Ignore.Paths, c.Ignore.Tags),
		Pipeline: pipeline.Options{
			MaxPrefixChars:        c.Limits.MaxPrefixChars,
			MaxSuffixChars:        c.Limits.MaxSuffixChars,
			RemoveEmbeddedQueries: c.Processing.RemoveEmbeddedQueries,
			RemoveMathDelimiters:  c.Processing.RemoveMathDelimiters,
			RemoveCodeFences:      c.Processing.RemoveCodeFences,
		},
		Errors: c.Validate(),
	}
	if s.Valid() {
		s.Triggers, _ = trigger.Compile(c.Triggers)
	}
	return s
}

// DefaultSettings compiles DefaultConfig.
func DefaultSettings() Settings {
	return NewSettings(DefaultConfig())
}

// IgnoreRules decides whether completion is off for a file.
type IgnoreRules struct {
	patterns []string
	tags     []string
}

// NewIgnoreRules normalizes tags to lower case without a leading '#'.
// Invalid glob patterns never match.
func NewIgnoreRules(patterns, tags []string) IgnoreRules {
	r := IgnoreRules{patterns: slices.Clone(patterns)}
	for _, tag := range tags {
		if t := normalizeTag(tag); t != "" {
			r.tags = append(r.tags, t)
		}
	}
	return r
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}

// Matches reports whether path matches an ignore glob or one of tags is ignored.
// Nested tags match their parents: "draft/wip" is ignored by "draft".
func (r IgnoreRules) Matches(path string, tags []string) bool {
	if path != "" {
		path = filepath.ToSlash(path)
		for _, pattern := range r.patterns {
			if ok, err := doublestar.Match(pattern, path); err == nil && ok {
				return true
			}
		}
	}
	for _, tag := range tags {
		t := normalizeTag(tag)
		for _, ignored := range r.tags {
			if t == ignored || strings.HasPrefix(t, ignored+"/") {
				return true
			}
		}
	}
	return false
}

// Empty reports whether no rule is configured.
func (r IgnoreRules) Empty() bool {
	return len(r.patterns) == 0 && len(r.tags) == 0
}
