package pipeline

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/bastiangx/inkpilot/internal/utils"
	"github.com/bastiangx/inkpilot/pkg/classify"
)

var embeddedQueryRegex = regexp.MustCompile("```dataview(?:js)?\\b[\\s\\S]*?```")

// EmbeddedQueryRemover strips dataview query blocks. Their rendered output is
// generated, so completing inside them is meaningless.
type EmbeddedQueryRemover struct{}

func (EmbeddedQueryRemover) RemovesCursor(prefix, suffix string, _ classify.Context) bool {
	sentinel := uuid.NewString()
	for _, block := range embeddedQueryRegex.FindAllString(prefix+sentinel+suffix, -1) {
		if strings.Contains(block, sentinel) {
			return true
		}
	}
	return false
}

func (EmbeddedQueryRemover) Process(prefix, suffix string, _ classify.Context) (string, string) {
	sentinel := uuid.NewString()
	text := embeddedQueryRegex.ReplaceAllString(prefix+sentinel+suffix, "")
	before, after, found := strings.Cut(text, sentinel)
	if !found {
		return prefix, suffix
	}
	return before, after
}

// LengthLimiter keeps the last MaxPrefix runes of the prefix and the first
// MaxSuffix runes of the suffix. Non-positive bounds disable the cut.
type LengthLimiter struct {
	MaxPrefix int
	MaxSuffix int
}

func (LengthLimiter) RemovesCursor(string, string, classify.Context) bool {
	return false
}

func (l LengthLimiter) Process(prefix, suffix string, _ classify.Context) (string, string) {
	if l.MaxPrefix > 0 {
		prefix = utils.LastRunes(prefix, l.MaxPrefix)
	}
	if l.MaxSuffix > 0 {
		suffix = utils.FirstRunes(suffix, l.MaxSuffix)
	}
	return prefix, suffix
}
