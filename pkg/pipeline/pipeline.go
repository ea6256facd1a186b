// Package pipeline rewrites prompts before they are sent to a model and completions
// after they come back.
//
// Pre-processors run in order on (prefix, suffix); any of them may veto the request
// when the cursor sits in content it is about to strip. Post-processors run in order
// on the raw completion. Overlap removal must run before marker and fence removal
// because it works on what the model actually emitted.
package pipeline

import (
	"github.com/bastiangx/inkpilot/pkg/classify"
)

// PreProcessor rewrites the text around the cursor before a request.
type PreProcessor interface {
	// RemovesCursor reports whether Process would strip the content holding the cursor.
	RemovesCursor(prefix, suffix string, ctx classify.Context) bool
	Process(prefix, suffix string, ctx classify.Context) (string, string)
}

// PostProcessor rewrites a completion returned by the model.
type PostProcessor interface {
	Process(prefix, suffix, completion string, ctx classify.Context) string
}

// Options selects and tunes the standard processors.
type Options struct {
	MaxPrefixChars        int
	MaxSuffixChars        int
	RemoveEmbeddedQueries bool
	RemoveMathDelimiters  bool
	RemoveCodeFences      bool
}

// Pipeline is an ordered set of processors. The zero value does nothing.
type Pipeline struct {
	pre  []PreProcessor
	post []PostProcessor
}

// New builds the standard processor order from opts.
func New(opts Options) *Pipeline {
	p := &Pipeline{}
	if opts.RemoveEmbeddedQueries {
		p.pre = append(p.pre, EmbeddedQueryRemover{})
	}
	p.pre = append(p.pre, LengthLimiter{MaxPrefix: opts.MaxPrefixChars, MaxSuffix: opts.MaxSuffixChars})

	p.post = append(p.post, OverlapRemover{}, DuplicateListMarkerRemover{})
	if opts.RemoveMathDelimiters {
		p.post = append(p.post, MathDelimiterRemover{})
	}
	if opts.RemoveCodeFences {
		p.post = append(p.post, CodeFenceRemover{})
	}
	p.post = append(p.post, WhitespaceTrimmer{})
	return p
}

// NewCustom builds a pipeline from explicit processors.
func NewCustom(pre []PreProcessor, post []PostProcessor) *Pipeline {
	return &Pipeline{pre: pre, post: post}
}

// PreProcess runs every pre-processor. ok is false when one of them vetoed the request.
func (p *Pipeline) PreProcess(prefix, suffix string, ctx classify.Context) (string, string, bool) {
	for _, pp := range p.pre {
		if pp.RemovesCursor(prefix, suffix, ctx) {
			return "", "", false
		}
		prefix, suffix = pp.Process(prefix, suffix, ctx)
	}
	return prefix, suffix, true
}

// PostProcess runs every post-processor over completion.
func (p *Pipeline) PostProcess(prefix, suffix, completion string, ctx classify.Context) string {
	for _, pp := range p.post {
		completion = pp.Process(prefix, suffix, completion, ctx)
	}
	return completion
}
