package config

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/bastiangx/inkpilot/pkg/trigger"
)

const maxDelayMs = 10000

// FieldError is a problem with one configuration field.
type FieldError struct {
	Field string
	Msg   string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Msg
}

// FieldErrors collects every problem found in a configuration.
type FieldErrors []FieldError

func (errs FieldErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (errs *FieldErrors) add(field, format string, args ...any) {
	*errs = append(*errs, FieldError{Field: field, Msg: fmt.Sprintf(format, args...)})
}

// Validate checks every field and returns all problems at once, or nil.
func (c *Config) Validate() FieldErrors {
	var errs FieldErrors

	if c.Completion.DelayMs < 0 || c.Completion.DelayMs > maxDelayMs {
		errs.add("completion.delay_ms", "must be between 0 and %d, got %d", maxDelayMs, c.Completion.DelayMs)
	}
	if c.Completion.MaxCacheEntries < 0 {
		errs.add("completion.max_cache_entries", "must not be negative, got %d", c.Completion.MaxCacheEntries)
	}
	if c.Limits.MaxPrefixChars <= 0 {
		errs.add("limits.max_prefix_chars", "must be positive, got %d", c.Limits.MaxPrefixChars)
	}
	if c.Limits.MaxSuffixChars < 0 {
		errs.add("limits.max_suffix_chars", "must not be negative, got %d", c.Limits.MaxSuffixChars)
	}
	if c.Limits.RequestTimeoutMs <= 0 {
		errs.add("limits.request_timeout_ms", "must be positive, got %d", c.Limits.RequestTimeoutMs)
	}
	for i, pattern := range c.Ignore.Paths {
		if !doublestar.ValidatePattern(pattern) {
			errs.add(fmt.Sprintf("ignore.paths[%d]", i), "invalid glob %q", pattern)
		}
	}
	for i, tag := range c.Ignore.Tags {
		if strings.TrimPrefix(tag, "#") == "" {
			errs.add(fmt.Sprintf("ignore.tags[%d]", i), "empty tag")
		}
	}
	if c.Dictionary.MinPrefix < 1 {
		errs.add("dictionary.min_prefix", "must be at least 1, got %d", c.Dictionary.MinPrefix)
	}
	if c.Dictionary.MaxWords < 0 {
		errs.add("dictionary.max_words", "must not be negative, got %d", c.Dictionary.MaxWords)
	}
	for i, t := range c.Triggers {
		if _, err := trigger.Compile([]trigger.Trigger{t}); err != nil {
			_, msg, _ := strings.Cut(err.Error(), ": ")
			errs.add(fmt.Sprintf("triggers[%d]", i), "%s", msg)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
