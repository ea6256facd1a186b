package utils

import (
	"unicode"
	"unicode/utf8"
)

// IsWordFragment reports whether s is worth looking up in a dictionary: it holds
// at least one letter, only letters and digits apart from inner hyphens and
// apostrophes, and is not one rune repeated ("www").
func IsWordFragment(s string) bool {
	if s == "" {
		return false
	}
	hasLetter := false
	for i, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
		case isJoiner(r) && i > 0 && i+utf8.RuneLen(r) < len(s):
		default:
			return false
		}
	}
	return hasLetter && !IsRepetitive(s)
}

func isJoiner(r rune) bool {
	return r == '-' || r == '\'' || r == '’'
}

// IsRepetitive checks if a string is one character repeated 3+ times
func IsRepetitive(s string) bool {
	r := []rune(s)
	if len(r) <= 2 {
		return false
	}
	for i := 1; i < len(r); i++ {
		if r[i] != r[0] {
			return false
		}
	}
	return true
}
