package suggest

import (
	"unicode"
	"unicode/utf8"
)

// NextWord splits s after its next whitespace-delimited token. The token keeps any
// leading whitespace and the whitespace that follows it, so word+rest == s.
func NextWord(s string) (word, rest string) {
	i := 0
	i += spanFunc(s[i:], unicode.IsSpace)
	i += spanFunc(s[i:], func(r rune) bool { return !unicode.IsSpace(r) })
	i += spanFunc(s[i:], unicode.IsSpace)
	return s[:i], s[i:]
}

func spanFunc(s string, f func(rune) bool) int {
	n := 0
	for n < len(s) {
		r, size := utf8.DecodeRuneInString(s[n:])
		if !f(r) {
			break
		}
		n += size
	}
	return n
}

// PutPartials records, for every rune offset i inside accepted, that after typing
// accepted[:i] at prefix the suggestion accepted[i:]+remaining is still pending.
// The offset len(accepted) itself is not recorded. It returns the entries written.
func (c *Cache) PutPartials(prefix, suffix, accepted, remaining string) int {
	n := 0
	for i := range accepted {
		c.Put(prefix+accepted[:i], suffix, accepted[i:]+remaining)
		n++
	}
	return n
}

// PutTyped records the continuations seen while the user types a suggestion out
// by hand: for every rune offset i inside typed, prefix+typed[:i] maps to the
// suggestion from rune i on. Keys follow what was typed and values keep the
// suggestion's own spelling, so case differences survive.
func (c *Cache) PutTyped(prefix, suffix, typed, suggestion string) int {
	sr := []rune(suggestion)
	n := 0
	for i := range typed {
		if n >= len(sr) {
			break
		}
		c.Put(prefix+typed[:i], suffix, string(sr[n:]))
		n++
	}
	return n
}
