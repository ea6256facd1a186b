package lifecycle

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/inkpilot/pkg/classify"
	"github.com/bastiangx/inkpilot/pkg/config"
	"github.com/bastiangx/inkpilot/pkg/editor"
)

func TestInitialState(t *testing.T) {
	testCases := []struct {
		description string
		mutate      func(*config.Config)
		expected    Kind
	}{
		{"valid and enabled", func(*config.Config) {}, Idle},
		{"switched off", func(c *config.Config) { c.Completion.Enabled = false }, DisabledManual},
		{"invalid", func(c *config.Config) { c.Limits.MaxPrefixChars = 0 }, DisabledInvalidSettings},
		{"switched off wins over invalid", func(c *config.Config) {
			c.Completion.Enabled = false
			c.Limits.MaxPrefixChars = 0
		}, DisabledManual},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			h := newHarness(t, settingsWith(tc.mutate))
			assert.Equal(t, tc.expected, h.c.State())
		})
	}
}

func TestIdleTriggerQueues(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())

	h.c.HandleDocumentChange(typed(snap("# Title", ""), snap("# Title ", "")))
	assert.Equal(t, Queued, h.c.State())
	assert.Equal(t, 1, h.sched.pending())
	assert.Equal(t, 500*time.Millisecond, h.sched.timers[0].delay)
	assert.Equal(t, classify.Heading, h.c.Context())
	assert.Equal(t, "Queued [Heading]", h.c.StatusText())

	// A change without user input leaves the timer alone.
	h.c.HandleDocumentChange(change(snap("# Title ", ""), snap("# Title ", "!")))
	assert.Equal(t, Queued, h.c.State())
	assert.Equal(t, 1, h.sched.pending())
	assert.Equal(t, 1, h.sched.created())

	// So does typing while the document is not focused.
	unfocused := typed(snap("# Title ", "!"), snap("# Title x", "!"))
	unfocused.Focused = false
	h.c.HandleDocumentChange(unfocused)
	assert.Equal(t, Queued, h.c.State())
	assert.Equal(t, 1, h.sched.pending())
}

func TestIdleIgnoresUnqualifiedChanges(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	prev, cur := snap("Hello", ""), snap("Hello ", "")

	deleted := change(prev, cur, editor.InputDelete)
	undone := change(prev, cur, editor.InputUndo)
	selected := typed(prev, cur)
	selected.Selection = true
	multi := typed(prev, cur)
	multi.MultipleCursor = true
	unchanged := typed(cur, cur)

	for _, ch := range []editor.DocumentChange{deleted, undone, selected, multi, unchanged} {
		h.c.HandleDocumentChange(ch)
		assert.Equal(t, Idle, h.c.State())
	}
	h.c.HandleDocumentChange(typed(snap("Hell", ""), snap("Hello", "")))
	assert.Equal(t, Idle, h.c.State(), "no trigger")
	assert.Zero(t, h.sched.created())
}

func TestQueuedRestartsOnTrigger(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())

	h.c.HandleDocumentChange(typed(snap("a", ""), snap("a ", "")))
	h.c.HandleDocumentChange(typed(snap("a ", ""), snap("a b ", "")))
	assert.Equal(t, Queued, h.c.State())
	assert.Equal(t, 2, h.sched.created())
	assert.Equal(t, 1, h.sched.pending())

	h.provider.result = "c"
	h.sched.fire()
	h.waitFor(t, Suggesting)
	assert.Equal(t, []string{"a b "}, h.provider.prefixes, "requests the snapshot captured on entry")
}

func TestQueuedCancels(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())

	h.c.HandleDocumentChange(typed(snap("a", ""), snap("a ", "")))
	h.c.HandleDocumentChange(typed(snap("a ", ""), snap("a b", "")))
	assert.Equal(t, Idle, h.c.State())
	assert.Zero(t, h.sched.pending())

	h.c.HandleDocumentChange(typed(snap("a b", ""), snap("a b ", "")))
	require.Equal(t, Queued, h.c.State())
	assert.True(t, h.c.HandleCancelKeyPressed())
	assert.Equal(t, Idle, h.c.State())
	assert.Zero(t, h.sched.pending())

	h.c.HandleDocumentChange(typed(snap("a b", ""), snap("a b ", "")))
	require.Equal(t, Queued, h.c.State())
	h.c.HandleDocumentChange(change(snap("a b ", ""), snap("a b", " "), editor.InputSelect))
	assert.Equal(t, Idle, h.c.State(), "cursor moved")
	assert.Zero(t, h.sched.pending())
	assert.Zero(t, h.provider.callCount())
}

func TestStaleTimerIsIgnored(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())

	h.c.HandleDocumentChange(typed(snap("a", ""), snap("a ", "")))
	h.c.HandleDocumentChange(typed(snap("a ", ""), snap("a b", "")))
	require.Equal(t, Idle, h.c.State())

	h.sched.fireAnyway(0)
	assert.Equal(t, Idle, h.c.State())
	assert.Zero(t, h.provider.callCount())
}

func TestTimerStartsPrediction(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	h.provider.result = "world"

	h.c.HandleDocumentChange(typed(snap("Hello", ""), snap("Hello ", "")))
	h.sched.fire()
	h.waitFor(t, Suggesting)

	suggestion, ok := h.c.Suggestion()
	require.True(t, ok)
	assert.Equal(t, "world", suggestion)
	assert.Equal(t, []string{"world"}, h.view.snapshot().renders)

	cached, ok := h.cache.Get("Hello ", "")
	require.True(t, ok, "fresh suggestion is cached")
	assert.Equal(t, "world", cached)
}

func TestPredictWhilePredicting(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	h.provider.block = make(chan struct{})
	h.provider.result = "x"

	h.c.HandlePredictCommand("a ", "")
	require.Equal(t, Predicting, h.c.State())
	require.Eventually(t, func() bool { return h.provider.callCount() == 1 }, time.Second, time.Millisecond)

	h.c.HandlePredictCommand("a ", "")
	h.c.HandlePredictCommand("b ", "")
	assert.Equal(t, Predicting, h.c.State())

	close(h.provider.block)
	h.waitFor(t, Suggesting)
	assert.Equal(t, 1, h.provider.callCount())
}

func TestStaleResultIsDropped(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	h.provider.block = make(chan struct{})
	h.provider.result = "late"

	h.c.HandlePredictCommand("Hello ", "")
	require.Eventually(t, func() bool { return h.provider.callCount() == 1 }, time.Second, time.Millisecond)

	h.c.HandleDocumentChange(typed(snap("Hello ", ""), snap("Hello w", "")))
	require.Equal(t, Idle, h.c.State())

	close(h.provider.block)
	h.c.Close()
	assert.Empty(t, h.view.snapshot().renders)
	assert.Zero(t, h.cache.Len())
}

func TestPredictionOutcomes(t *testing.T) {
	t.Run("backend error", func(t *testing.T) {
		h := newHarness(t, config.DefaultSettings())
		h.provider.err = errors.New("boom")

		h.c.HandlePredictCommand("a ", "")
		require.Eventually(t, func() bool { return len(h.view.snapshot().notices) == 1 }, time.Second, time.Millisecond)
		assert.Equal(t, Idle, h.c.State())
		assert.Contains(t, h.view.snapshot().notices[0], "boom")
	})

	t.Run("no suggestion", func(t *testing.T) {
		h := newHarness(t, config.DefaultSettings())
		h.provider.result = "  "

		h.c.HandlePredictCommand("a ", "")
		require.Eventually(t, func() bool { return h.provider.callCount() == 1 }, time.Second, time.Millisecond)
		h.c.Close()
		assert.Equal(t, Idle, h.c.State())
		assert.Empty(t, h.view.snapshot().notices)
		assert.Empty(t, h.view.snapshot().renders)
	})
}

func TestAcceptFull(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	h.suggest(t, snap("Hello ", ""), "world peace")

	assert.True(t, h.c.HandleAcceptKeyPressed())
	assert.Equal(t, Idle, h.c.State())

	view := h.view.snapshot()
	assert.Equal(t, []string{"world peace"}, view.inserts)
	assert.Equal(t, 1, view.clears)

	assert.Equal(t, len("world peace"), h.cache.Len())
	_, ok := h.cache.Get("Hello world peace", "")
	assert.False(t, ok, "post-accept fingerprint has no entry")
	rest, ok := h.cache.Get("Hello wor", "")
	require.True(t, ok)
	assert.Equal(t, "ld peace", rest)
}

func TestAcceptCommand(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	h.c.HandleAcceptCommand()
	assert.Empty(t, h.view.snapshot().inserts)

	h.suggest(t, snap("Hello ", ""), "there")
	h.c.HandleAcceptCommand()
	assert.Equal(t, Idle, h.c.State())
	assert.Equal(t, []string{"there"}, h.view.snapshot().inserts)
}

func TestPartialAccept(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	h.suggest(t, snap("Hello ", ""), "world peace now")
	require.Equal(t, 1, h.cache.Len())

	assert.True(t, h.c.HandlePartialAcceptKeyPressed())
	assert.Equal(t, Suggesting, h.c.State())
	rest, _ := h.c.Suggestion()
	assert.Equal(t, "peace now", rest)
	assert.Equal(t, len("world "), h.cache.Len(), "one entry per consumed offset")

	cached, ok := h.cache.Get("Hello wor", "")
	require.True(t, ok)
	assert.Equal(t, "ld peace now", cached)

	assert.True(t, h.c.HandlePartialAcceptKeyPressed())
	rest, _ = h.c.Suggestion()
	assert.Equal(t, "now", rest)

	assert.True(t, h.c.HandlePartialAcceptKeyPressed())
	assert.Equal(t, Idle, h.c.State(), "last word is a full accept")
	assert.Equal(t, []string{"world ", "peace ", "now"}, h.view.snapshot().inserts)
	_, ok = h.cache.Get("Hello world peace now", "")
	assert.False(t, ok)
}

func TestSuggestingTypedOut(t *testing.T) {
	t.Run("matching text narrows the suggestion", func(t *testing.T) {
		h := newHarness(t, config.DefaultSettings())
		h.suggest(t, snap("Hello ", ""), "world peace")

		h.c.HandleDocumentChange(typed(snap("Hello ", ""), snap("Hello WO", "")))
		require.Equal(t, Suggesting, h.c.State())
		rest, _ := h.c.Suggestion()
		assert.Equal(t, "rld peace", rest)

		cached, ok := h.cache.Get("Hello W", "")
		require.True(t, ok)
		assert.Equal(t, "orld peace", cached)
		assert.Equal(t, []string{"world peace", "rld peace"}, h.view.snapshot().renders)
	})

	t.Run("auto-closed bracket", func(t *testing.T) {
		h := newHarness(t, config.DefaultSettings())
		h.suggest(t, snap("x = ", ""), "foo(bar)")

		h.c.HandleDocumentChange(typed(snap("x = ", ""), snap("x = foo(", ")")))
		require.Equal(t, Suggesting, h.c.State())
		rest, _ := h.c.Suggestion()
		assert.Equal(t, "bar", rest)
	})

	t.Run("typing it all ends the suggestion", func(t *testing.T) {
		h := newHarness(t, config.DefaultSettings())
		h.suggest(t, snap("Hello ", ""), "world")

		h.c.HandleDocumentChange(typed(snap("Hello ", ""), snap("Hello world", "")))
		assert.Equal(t, Idle, h.c.State())
	})

	t.Run("diverging text drops it", func(t *testing.T) {
		h := newHarness(t, config.DefaultSettings())
		h.suggest(t, snap("Hello ", ""), "world")

		h.c.HandleDocumentChange(typed(snap("Hello ", ""), snap("Hello x", "")))
		assert.Equal(t, Idle, h.c.State())
		assert.Equal(t, 1, h.view.snapshot().clears)
	})

	t.Run("no user input is ignored", func(t *testing.T) {
		h := newHarness(t, config.DefaultSettings())
		h.suggest(t, snap("Hello ", ""), "world")

		h.c.HandleDocumentChange(change(snap("Hello ", ""), snap("Hello ", "!")))
		assert.Equal(t, Suggesting, h.c.State())
	})
}

func TestSuggestingDroppedByEdits(t *testing.T) {
	kinds := []editor.InputKind{editor.InputSelect, editor.InputDelete, editor.InputUndo, editor.InputRedo}
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			h := newHarness(t, config.DefaultSettings())
			h.suggest(t, snap("Hello ", ""), "world")

			h.c.HandleDocumentChange(change(snap("Hello ", ""), snap("Hello", " "), kind))
			assert.Equal(t, Idle, h.c.State())
			assert.Equal(t, 1, h.view.snapshot().clears)
		})
	}
}

func TestCancelWhileSuggestingClearsCache(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	h.suggest(t, snap("Hello ", ""), "world peace now")
	h.c.HandlePartialAcceptKeyPressed()
	require.NotZero(t, h.cache.Len())

	assert.True(t, h.c.HandleCancelKeyPressed())
	assert.Equal(t, Idle, h.c.State())
	assert.Zero(t, h.cache.Len())
}

func TestKeysNotConsumedWhenIdle(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	assert.False(t, h.c.HandleAcceptKeyPressed())
	assert.False(t, h.c.HandlePartialAcceptKeyPressed())
	assert.False(t, h.c.HandleCancelKeyPressed())
}

func TestIdleCacheHit(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	h.cache.Put("Hello wo", "", "rld")

	h.c.HandleDocumentChange(typed(snap("Hello w", ""), snap("Hello wo", "")))
	assert.Equal(t, Suggesting, h.c.State())
	rest, _ := h.c.Suggestion()
	assert.Equal(t, "rld", rest)
	assert.Zero(t, h.provider.callCount())

	noCache := newHarness(t, settingsWith(func(c *config.Config) { c.Completion.CacheSuggestions = false }))
	noCache.cache.Put("Hello wo", "", "rld")
	noCache.c.HandleDocumentChange(typed(snap("Hello w", ""), snap("Hello wo", "")))
	assert.Equal(t, Idle, noCache.c.State())
}

func TestCacheHitBeatsTrigger(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	h.cache.Put("Hello ", "", "world")

	h.c.HandleDocumentChange(typed(snap("Hello", ""), snap("Hello ", "")))
	assert.Equal(t, Suggesting, h.c.State())
	assert.Zero(t, h.sched.created())
}

func TestDisabledStates(t *testing.T) {
	t.Run("manual", func(t *testing.T) {
		h := newHarness(t, config.DefaultSettings())
		h.suggest(t, snap("Hello ", ""), "world")

		h.c.HandleSettingChanged(settingsWith(func(c *config.Config) { c.Completion.Enabled = false }))
		assert.Equal(t, DisabledManual, h.c.State())
		assert.Equal(t, "Disabled", h.c.StatusText())
		assert.Zero(t, h.cache.Len(), "explicit disable clears the cache")
		assert.Equal(t, 1, h.view.snapshot().clears)

		h.c.HandleDocumentChange(typed(snap("a", ""), snap("a ", "")))
		h.c.HandlePredictCommand("a ", "")
		assert.False(t, h.c.HandleCancelKeyPressed())
		assert.Equal(t, DisabledManual, h.c.State())

		h.c.HandleSettingChanged(config.DefaultSettings())
		assert.Equal(t, Idle, h.c.State())
		assert.Equal(t, 2, h.provider.reconfigured)
	})

	t.Run("invalid settings", func(t *testing.T) {
		h := newHarness(t, config.DefaultSettings())
		h.c.HandleDocumentChange(typed(snap("a", ""), snap("a ", "")))
		require.Equal(t, Queued, h.c.State())

		h.c.HandleSettingChanged(settingsWith(func(c *config.Config) {
			c.Completion.DelayMs = -5
			c.Limits.RequestTimeoutMs = 0
		}))
		assert.Equal(t, DisabledInvalidSettings, h.c.State())
		assert.Equal(t, "Disabled: 2 invalid setting(s)", h.c.StatusText())
		assert.Zero(t, h.sched.pending(), "timer stopped on exit")

		h.c.HandleSettingChanged(settingsWith(func(c *config.Config) { c.Completion.Enabled = false }))
		assert.Equal(t, DisabledManual, h.c.State())
	})

	t.Run("file specific", func(t *testing.T) {
		h := newHarness(t, settingsWith(func(c *config.Config) {
			c.Ignore.Paths = []string{"private/**"}
			c.Ignore.Tags = []string{"draft"}
		}))

		h.c.HandleFileChange(editor.File{Path: "private/diary.md"})
		assert.Equal(t, DisabledFileSpecific, h.c.State())
		assert.Equal(t, "Disabled for this file", h.c.StatusText())

		h.c.HandleFileChange(editor.File{Path: "notes/a.md"})
		assert.Equal(t, Idle, h.c.State())

		h.c.HandleFileChange(editor.File{Path: "notes/b.md", Tags: []string{"#draft"}})
		assert.Equal(t, DisabledFileSpecific, h.c.State())

		h.c.HandleSettingChanged(config.DefaultSettings())
		assert.Equal(t, Idle, h.c.State(), "rules removed")
	})
}

func TestCachingTurnedOffClearsCache(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	h.cache.Put("a", "b", "c")

	h.c.HandleSettingChanged(settingsWith(func(c *config.Config) { c.Completion.CacheSuggestions = false }))
	assert.Equal(t, Idle, h.c.State())
	assert.Zero(t, h.cache.Len())

	h.suggest(t, snap("Hello ", ""), "world")
	h.c.HandleAcceptKeyPressed()
	assert.Zero(t, h.cache.Len())
}

func TestStatusListener(t *testing.T) {
	var mu sync.Mutex
	var seen []Kind
	h := newHarness(t, config.DefaultSettings())
	h.c.onStatus = func(k Kind, _ string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, k)
	}

	h.c.HandleDocumentChange(typed(snap("a", ""), snap("a ", "")))
	h.c.HandleCancelKeyPressed()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Kind{Queued, Idle}, seen)
}

func TestCloseStopsTimer(t *testing.T) {
	h := newHarness(t, config.DefaultSettings())
	h.c.HandleDocumentChange(typed(snap("a", ""), snap("a ", "")))
	require.Equal(t, 1, h.sched.pending())

	h.c.Close()
	assert.Zero(t, h.sched.pending())
	h.c.HandleDocumentChange(typed(snap("a ", ""), snap("a b ", "")))
	assert.Equal(t, Idle, h.c.State())
}

func TestTransitionTable(t *testing.T) {
	for k := Kind(0); k < numKinds; k++ {
		assert.NotEqual(t, "Unknown", k.String())
		for e := eventKind(0); e < numEvents; e++ {
			h := handlers[k][e]
			switch {
			case k.Disabled():
				assert.Nil(t, h, "%s ignores every event", k)
			case e == evDocumentChanged:
				assert.NotNil(t, h, "%s reacts to edits", k)
			case e == evTimerFired:
				assert.Equal(t, k == Queued, h != nil, "%s timer", k)
			case e == evPredictionResolved:
				assert.Equal(t, k == Predicting, h != nil, "%s result", k)
			case e == evCancelKey:
				assert.Equal(t, k != Idle, h != nil, "%s cancel", k)
			case e == evAcceptKey, e == evPartialAcceptKey, e == evAcceptCommand:
				assert.Equal(t, k == Suggesting, h != nil, "%s accept", k)
			case e == evPredictCommand:
				assert.Equal(t, k == Idle, h != nil, "%s predict", k)
			}
		}
	}
	assert.Equal(t, "Unknown", Kind(99).String())
}
