package dictionary

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bastiangx/inkpilot/internal/utils"
	"github.com/bastiangx/inkpilot/pkg/classify"
	"github.com/bastiangx/inkpilot/pkg/predict"
)

const lookupLimit = 8

// Client completes the word being typed. It answers with the whole word, typed
// fragment included, and leaves stripping the fragment to overlap removal.
type Client struct {
	dict      *Dictionary
	minPrefix int
	minScore  int
}

// NewClient builds a client that ignores fragments shorter than minPrefix runes
// and words scoring below minScore.
func NewClient(dict *Dictionary, minPrefix, minScore int) *Client {
	return &Client{dict: dict, minPrefix: max(minPrefix, 1), minScore: minScore}
}

func (c *Client) Complete(ctx context.Context, req predict.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.Context == classify.CodeBlock || req.Context == classify.MathBlock {
		return "", nil
	}
	// Mid-word: nothing sensible to add.
	if r, _ := utf8.DecodeRuneInString(req.Suffix); req.Suffix != "" && isWordRune(r) {
		return "", nil
	}

	fragment := trailingWord(req.Prefix)
	if utf8.RuneCountInString(fragment) < c.minPrefix || !utils.IsWordFragment(fragment) {
		return "", nil
	}

	lower := strings.ToLower(fragment)
	for _, s := range c.dict.Lookup(lower, lookupLimit) {
		if s.Word == lower || s.Score < c.minScore {
			continue
		}
		return fragment + s.Word[len(lower):], nil
	}
	return "", nil
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// trailingWord returns the run of word runes that ends s.
func trailingWord(s string) string {
	i := len(s)
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:i])
		if !isWordRune(r) {
			break
		}
		i -= size
	}
	return s[i:]
}
