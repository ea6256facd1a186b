package pipeline

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bastiangx/inkpilot/internal/utils"
	"github.com/bastiangx/inkpilot/pkg/classify"
)

// maxOverlapWords caps how many words of the prefix are compared against a completion.
const maxOverlapWords = 16

// OverlapRemover drops text at the start of a completion that repeats the end of the
// prefix, and text at its end that repeats the start of the suffix, at word granularity.
type OverlapRemover struct{}

func (OverlapRemover) Process(prefix, suffix, completion string, _ classify.Context) string {
	completion = removePrefixOverlap(prefix, completion)
	return removeSuffixOverlap(completion, suffix)
}

// removePrefixOverlap compares the completion with every run of whole words ending
// the prefix, longest first, and strips the first run the completion starts with.
func removePrefixOverlap(prefix, completion string) string {
	trimmed := strings.TrimLeftFunc(completion, unicode.IsSpace)
	k := min(len(strings.Fields(completion)), maxOverlapWords)
	if k == 0 {
		return completion
	}

	starts := wordStarts(prefix)
	if len(starts) > k {
		starts = starts[len(starts)-k:]
	}
	for _, idx := range starts {
		candidate := prefix[idx:]
		if strings.HasPrefix(trimmed, candidate) {
			return trimmed[len(candidate):]
		}
		// "general " typed, "general" emitted: only strip whole words here.
		bare := strings.TrimRightFunc(candidate, unicode.IsSpace)
		if bare != candidate && strings.HasPrefix(trimmed, bare) && startsAtBoundary(trimmed[len(bare):]) {
			return trimmed[len(bare):]
		}
	}
	return completion
}

// removeSuffixOverlap mirrors removePrefixOverlap for the text after the cursor.
func removeSuffixOverlap(completion, suffix string) string {
	trimmed := strings.TrimRightFunc(completion, unicode.IsSpace)
	k := min(len(strings.Fields(completion)), maxOverlapWords)
	if k == 0 {
		return completion
	}

	ends := wordEnds(suffix)
	if len(ends) > k {
		ends = ends[:k]
	}
	for i := len(ends) - 1; i >= 0; i-- {
		candidate := strings.TrimLeftFunc(suffix[:ends[i]], unicode.IsSpace)
		if candidate == "" || !strings.HasSuffix(trimmed, candidate) {
			continue
		}
		rest := trimmed[:len(trimmed)-len(candidate)]
		if endsAtBoundary(rest) {
			return rest
		}
	}
	return completion
}

// wordStarts returns the byte offset of every word start in s.
func wordStarts(s string) []int {
	var starts []int
	prevSpace := true
	for i, r := range s {
		space := unicode.IsSpace(r)
		if !space && prevSpace {
			starts = append(starts, i)
		}
		prevSpace = space
	}
	return starts
}

// wordEnds returns the byte offset just past every word in s.
func wordEnds(s string) []int {
	var ends []int
	inWord := false
	for i, r := range s {
		space := unicode.IsSpace(r)
		if space && inWord {
			ends = append(ends, i)
		}
		inWord = !space
	}
	if inWord {
		ends = append(ends, len(s))
	}
	return ends
}

func startsAtBoundary(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return s == "" || !(unicode.IsLetter(r) || unicode.IsDigit(r))
}

func endsAtBoundary(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return s == "" || !(unicode.IsLetter(r) || unicode.IsDigit(r))
}

// DuplicateListMarkerRemover drops a bullet the model repeats after the bullet the
// user already typed.
type DuplicateListMarkerRemover struct{}

func (DuplicateListMarkerRemover) Process(prefix, _ string, completion string, ctx classify.Context) string {
	if ctx != classify.UnorderedList {
		return completion
	}
	line := prefix[strings.LastIndexByte(prefix, '\n')+1:]
	if !isBullet(strings.TrimSpace(line)) {
		return completion
	}

	trimmed := strings.TrimLeftFunc(completion, unicode.IsSpace)
	if trimmed == "" || !isBullet(trimmed[:1]) {
		return completion
	}
	rest := trimmed[1:]
	if rest != "" && !utils.StartsWithSpace(rest) {
		// "-5 degrees" is not a bullet.
		return completion
	}
	return strings.TrimLeft(rest, " \t")
}

func isBullet(s string) bool {
	return s == "-" || s == "*" || s == "+"
}

// MathDelimiterRemover strips every "$" from completions inside math: the block
// already supplies its delimiters.
type MathDelimiterRemover struct{}

func (MathDelimiterRemover) Process(_, _ string, completion string, ctx classify.Context) string {
	if ctx != classify.MathBlock {
		return completion
	}
	return strings.ReplaceAll(completion, "$", "")
}

var codeFenceRegex = regexp.MustCompile("```[\\w+#.-]*\\n?")

// CodeFenceRemover strips ``` fences, with or without a language tag, and single
// backticks from completions inside code.
type CodeFenceRemover struct{}

func (CodeFenceRemover) Process(_, _ string, completion string, ctx classify.Context) string {
	if ctx != classify.CodeBlock {
		return completion
	}
	completion = codeFenceRegex.ReplaceAllString(completion, "")
	return strings.ReplaceAll(completion, "`", "")
}

// WhitespaceTrimmer trims leading and trailing whitespace from the completion.
// Inside code only the trailing side is trimmed, so indentation survives.
type WhitespaceTrimmer struct{}

func (WhitespaceTrimmer) Process(_, _ string, completion string, ctx classify.Context) string {
	if ctx != classify.CodeBlock {
		completion = strings.TrimLeftFunc(completion, unicode.IsSpace)
	}
	return strings.TrimRightFunc(completion, unicode.IsSpace)
}
