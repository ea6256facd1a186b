// Package classify labels the syntactic environment of the cursor in a markdown document.
//
// The document is rebuilt as prefix + sentinel + suffix, where the sentinel is a fresh
// random token. Every pattern is matched against that text and a label applies when one
// of its matches contains the sentinel. Line patterns only ever match a single line, so
// the test reads "the cursor is on a matching line"; block patterns may span lines, so
// the cursor can be inside a block whose delimiters sit on other lines.
package classify

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Context is the syntactic label of the cursor location.
type Context int

const (
	Text Context = iota
	Heading
	BlockQuotes
	UnorderedList
	NumberedList
	CodeBlock
	MathBlock
	TaskList
)

var contextNames = [...]string{
	Text:          "Text",
	Heading:       "Heading",
	BlockQuotes:   "BlockQuotes",
	UnorderedList: "UnorderedList",
	NumberedList:  "NumberedList",
	CodeBlock:     "CodeBlock",
	MathBlock:     "MathBlock",
	TaskList:      "TaskList",
}

// All lists every Context in declaration order.
func All() []Context {
	return []Context{Text, Heading, BlockQuotes, UnorderedList, NumberedList, CodeBlock, MathBlock, TaskList}
}

func (c Context) String() string {
	if c < 0 || int(c) >= len(contextNames) {
		return "Unknown"
	}
	return contextNames[c]
}

// Parse maps a label produced by String back to its Context.
func Parse(name string) (Context, bool) {
	for i, n := range contextNames {
		if strings.EqualFold(n, name) {
			return Context(i), true
		}
	}
	return Text, false
}

type rule struct {
	context Context
	pattern *regexp.Regexp
	// codeAware rules ignore matches that start inside a fenced code block.
	codeAware bool
}

var fencePattern = regexp.MustCompile("```[\\s\\S]*?(?:```|$)")

// rules are evaluated in order; the first one with a match around the cursor wins.
// Task items come before the generic list patterns so "- [ ] " is never a plain list.
var rules = []rule{
	{Heading, regexp.MustCompile(`(?m)^#{1,6}[ \t].*$`), false},
	{BlockQuotes, regexp.MustCompile(`(?m)^[ \t]*>.*$`), false},
	{TaskList, regexp.MustCompile(`(?m)^[ \t]*(?:[-*+]|\d+[.)])[ \t]+\[.\][ \t].*$`), false},
	{MathBlock, regexp.MustCompile(`\$\$[\s\S]*?(?:\$\$|$)|\$[^$\n]*\$`), true},
	{CodeBlock, regexp.MustCompile("```[\\s\\S]*?(?:```|$)|`[^`\\n]*`"), false},
	{NumberedList, regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t].*$`), false},
	{UnorderedList, regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t].*$`), false},
}

// Classify returns the Context of the cursor sitting between prefix and suffix.
func Classify(prefix, suffix string) Context {
	sentinel := uuid.NewString()
	text := prefix + sentinel + suffix
	fences := fencePattern.FindAllStringIndex(text, -1)

	for _, r := range rules {
		var skip [][]int
		if r.codeAware {
			skip = fences
		}
		if containsSentinel(r.pattern, text, sentinel, skip) {
			return r.context
		}
	}
	return Text
}

// containsSentinel reports whether a match of re holds the sentinel. Matches
// starting strictly inside one of the skip spans do not count.
func containsSentinel(re *regexp.Regexp, text, sentinel string, skip [][]int) bool {
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if !strings.Contains(text[loc[0]:loc[1]], sentinel) || insideAny(loc[0], skip) {
			continue
		}
		return true
	}
	return false
}

func insideAny(pos int, spans [][]int) bool {
	for _, span := range spans {
		if pos > span[0] && pos < span[1] {
			return true
		}
	}
	return false
}
