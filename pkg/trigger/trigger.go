// Package trigger decides whether the text before the cursor licenses a completion cycle.
package trigger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Kind distinguishes literal triggers from pattern triggers.
type Kind string

const (
	// Literal fires when the prefix ends with the value.
	Literal Kind = "string"
	// Pattern fires when the value, an ECMAScript regular expression, matches the prefix.
	Pattern Kind = "regex"
)

// matchTimeout bounds a single pattern evaluation; user patterns may backtrack badly.
const matchTimeout = 50 * time.Millisecond

// ErrEmptyTrigger is returned for a trigger without a value.
var ErrEmptyTrigger = errors.New("trigger value is empty")

// Trigger is one configured trigger.
type Trigger struct {
	Kind  Kind   `toml:"type" yaml:"type"`
	Value string `toml:"value" yaml:"value"`
}

func (t Trigger) String() string {
	return fmt.Sprintf("%s(%q)", t.Kind, t.Value)
}

// Set is an immutable, compiled collection of triggers.
type Set struct {
	literals []string
	patterns []*regexp2.Regexp
}

// Compile validates and compiles triggers. The returned error joins one error per bad trigger.
func Compile(triggers []Trigger) (*Set, error) {
	set := &Set{}
	var errs []error
	for i, t := range triggers {
		if t.Value == "" {
			errs = append(errs, fmt.Errorf("trigger %d: %w", i, ErrEmptyTrigger))
			continue
		}
		switch t.Kind {
		case Literal, "":
			set.literals = append(set.literals, t.Value)
		case Pattern:
			re, err := regexp2.Compile(t.Value, regexp2.ECMAScript)
			if err != nil {
				errs = append(errs, fmt.Errorf("trigger %d: invalid pattern %q: %w", i, t.Value, err))
				continue
			}
			re.MatchTimeout = matchTimeout
			set.patterns = append(set.patterns, re)
		default:
			errs = append(errs, fmt.Errorf("trigger %d: unknown type %q", i, t.Kind))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return set, nil
}

// MustCompile is Compile that panics, for built-in defaults and tests.
func MustCompile(triggers ...Trigger) *Set {
	set, err := Compile(triggers)
	if err != nil {
		panic(err)
	}
	return set
}

// Matches reports whether any trigger fires for prefix.
func (s *Set) Matches(prefix string) bool {
	if s == nil {
		return false
	}
	for _, lit := range s.literals {
		if strings.HasSuffix(prefix, lit) {
			return true
		}
	}
	for _, re := range s.patterns {
		// A timed-out match counts as no match.
		if ok, err := re.MatchString(prefix); err == nil && ok {
			return true
		}
	}
	return false
}

// Len returns the number of compiled triggers.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.literals) + len(s.patterns)
}

// Defaults are the triggers used when the configuration lists none.
func Defaults() []Trigger {
	return []Trigger{
		{Literal, " "},
		{Literal, "\n"},
		{Literal, "# "},
		{Literal, "- "},
		{Literal, "- [ ] "},
		{Literal, "> "},
		{Literal, "$"},
		{Literal, "`"},
		{Pattern, `[0-9]+\. $`},
		{Pattern, `[(\[{]$`},
	}
}
