package lifecycle

import (
	"github.com/bastiangx/inkpilot/internal/utils"
	"github.com/bastiangx/inkpilot/pkg/editor"
	"github.com/bastiangx/inkpilot/pkg/suggest"
)

func toIdle(c *Controller, _ event) bool {
	c.transition(&idleState{})
	return true
}

func idleOnDocumentChanged(c *Controller, ev event) bool {
	ch := ev.change
	if !ch.IsDocInFocus() || !ch.HasDocChanged() || ch.HasUserDeleted() ||
		ch.HasMultipleCursors() || ch.HasSelection() || ch.HasUserUndone() || ch.HasUserRedone() {
		return false
	}

	if c.settings.CacheSuggestions {
		if cached, ok := c.cache.Get(ch.Prefix(), ch.Suffix()); ok && !utils.IsBlank(cached) {
			c.transition(&suggestingState{suggestion: cached, snapshot: ch.Current})
			return true
		}
	}
	if c.settings.Triggers.Matches(ch.Prefix()) {
		c.transition(&queuedState{snapshot: ch.Current})
		return true
	}
	return false
}

func idleOnPredictCommand(c *Controller, ev event) bool {
	c.transition(&predictingState{snapshot: ev.snapshot})
	return true
}

func queuedOnDocumentChanged(c *Controller, ev event) bool {
	ch := ev.change
	if !ch.IsDocInFocus() {
		return false
	}
	if ch.IsTextAdded() && c.settings.Triggers.Matches(ch.Prefix()) {
		c.transition(&queuedState{snapshot: ch.Current})
		return true
	}
	if ch.HasCursorMoved() || ch.HasUserTyped() || ch.HasUserDeleted() || ch.IsTextAdded() {
		c.transition(&idleState{})
		return true
	}
	return false
}

func queuedOnTimerFired(c *Controller, _ event) bool {
	s := c.state.(*queuedState)
	c.transition(&predictingState{snapshot: s.snapshot})
	return true
}

func predictingOnDocumentChanged(c *Controller, ev event) bool {
	ch := ev.change
	if ch.HasCursorMoved() || ch.HasUserTyped() || ch.HasUserDeleted() || ch.IsTextAdded() {
		c.transition(&idleState{})
		return true
	}
	return false
}

func predictingOnResolved(c *Controller, ev event) bool {
	s := c.state.(*predictingState)
	if ev.err != nil {
		c.logger.Warnf("Prediction failed: %v", ev.err)
		c.view.Notice("Completion failed: " + ev.err.Error())
		c.transition(&idleState{})
		return true
	}
	if utils.IsBlank(ev.result) {
		c.logger.Debugf("No suggestion for this position")
		c.transition(&idleState{})
		return true
	}

	c.cachePut(s.snapshot, ev.result)
	c.transition(&suggestingState{suggestion: ev.result, snapshot: s.snapshot})
	return true
}

func suggestingOnDocumentChanged(c *Controller, ev event) bool {
	s := c.state.(*suggestingState)
	ch := ev.change
	if ch.HasCursorMoved() || ch.HasUserUndone() || ch.HasUserDeleted() || ch.HasUserRedone() ||
		!ch.IsDocInFocus() || ch.HasSelection() || ch.HasMultipleCursors() {
		c.transition(&idleState{})
		return true
	}
	if ch.NoUserEvents() || !ch.HasDocChanged() {
		return false
	}

	// Compare against the snapshot the suggestion answers, not the last change.
	delta := editor.DocumentChange{Current: ch.Current, Previous: s.snapshot}
	added, okPrefix := delta.AddedPrefixText()
	closing, okSuffix := delta.AddedSuffixText()
	if !okPrefix || !okSuffix {
		c.transition(&idleState{})
		return true
	}
	remaining, ok := typedOut(s.suggestion, added, closing)
	if !ok {
		c.transition(&idleState{})
		return true
	}

	c.cacheTyped(s.snapshot, added, s.suggestion)
	if utils.IsBlank(remaining) {
		c.transition(&idleState{})
		return true
	}
	c.transition(&suggestingState{suggestion: remaining, snapshot: ch.Current})
	return true
}

// typedOut reports whether added and closing match the start and end of
// suggestion, ignoring case and without overlapping, and returns what is left
// between them.
func typedOut(suggestion, added, closing string) (string, bool) {
	sr := []rune(suggestion)
	pr, xr := runeLen(added), runeLen(closing)
	if pr+xr > len(sr) {
		return "", false
	}
	if !utils.HasPrefixFold(suggestion, added) || !utils.HasSuffixFold(suggestion, closing) {
		return "", false
	}
	return string(sr[pr : len(sr)-xr]), true
}

func runeLen(s string) int {
	return len([]rune(s))
}

func suggestingOnAccept(c *Controller, _ event) bool {
	s := c.state.(*suggestingState)
	c.cachePartials(s.snapshot, s.suggestion, "")
	c.view.Insert(s.suggestion)
	c.transition(&idleState{})
	return true
}

func suggestingOnPartialAccept(c *Controller, ev event) bool {
	s := c.state.(*suggestingState)
	word, rest := suggest.NextWord(s.suggestion)
	if utils.IsBlank(rest) {
		return suggestingOnAccept(c, ev)
	}

	c.cachePartials(s.snapshot, word, rest)
	c.view.Insert(word)
	c.transition(&suggestingState{
		suggestion: rest,
		snapshot:   editor.Snapshot{Prefix: s.snapshot.Prefix + word, Suffix: s.snapshot.Suffix},
	})
	return true
}

func suggestingOnCancel(c *Controller, _ event) bool {
	c.cache.Clear()
	c.transition(&idleState{})
	return true
}
