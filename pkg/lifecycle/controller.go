// Package lifecycle is the suggestion state machine.
//
// A Controller receives editor changes and key presses, decides when to wait,
// when to ask the provider for a completion and when to show, accept or drop
// one. Every event, timer callback and provider answer is serialized by one
// mutex. Timers and requests carry the generation they were issued under; an
// answer whose generation is no longer current is dropped.
package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/inkpilot/internal/logger"
	"github.com/bastiangx/inkpilot/pkg/classify"
	"github.com/bastiangx/inkpilot/pkg/config"
	"github.com/bastiangx/inkpilot/pkg/editor"
	"github.com/bastiangx/inkpilot/pkg/predict"
	"github.com/bastiangx/inkpilot/pkg/suggest"
)

// StatusFunc observes every transition. It runs under the controller lock.
type StatusFunc func(kind Kind, status string)

// Controller owns the current state and everything the states act on.
type Controller struct {
	mu       sync.Mutex
	state    state
	gen      uint64
	ctx      classify.Context
	settings config.Settings
	file     editor.File
	closed   bool

	cache     *suggest.Cache
	provider  predict.Provider
	view      editor.View
	scheduler Scheduler
	logger    *log.Logger
	onStatus  StatusFunc

	inflight sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler replaces the time based debounce scheduler.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.scheduler = s
	}
}

// WithLogger replaces the component logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithCache shares an existing cache.
func WithCache(cache *suggest.Cache) Option {
	return func(c *Controller) {
		c.cache = cache
	}
}

// WithStatus registers a transition observer.
func WithStatus(f StatusFunc) Option {
	return func(c *Controller) {
		c.onStatus = f
	}
}

// New builds a controller. It starts in Idle when settings are valid and
// enabled, otherwise in the matching disabled state.
func New(provider predict.Provider, view editor.View, settings config.Settings, opts ...Option) *Controller {
	if view == nil {
		view = editor.NopView{}
	}
	c := &Controller{
		state:     &idleState{},
		settings:  settings,
		provider:  provider,
		view:      view,
		scheduler: timeScheduler{},
		logger:    logger.New("lifecycle"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = suggest.NewCache(settings.MaxCacheEntries)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if k, disabled := c.disabledKind(); disabled {
		c.state = &disabledState{k: k}
	}
	return c
}

// HandleDocumentChange routes an editor change to the current state.
func (c *Controller) HandleDocumentChange(change editor.DocumentChange) {
	c.dispatch(event{kind: evDocumentChanged, change: change})
}

// HandlePredictCommand requests a completion for the given text right away.
func (c *Controller) HandlePredictCommand(prefix, suffix string) {
	c.dispatch(event{kind: evPredictCommand, snapshot: editor.Snapshot{Prefix: prefix, Suffix: suffix}})
}

// HandleAcceptKeyPressed accepts the whole suggestion. It reports whether the
// key was consumed.
func (c *Controller) HandleAcceptKeyPressed() bool {
	return c.dispatch(event{kind: evAcceptKey})
}

// HandlePartialAcceptKeyPressed accepts the next word of the suggestion.
func (c *Controller) HandlePartialAcceptKeyPressed() bool {
	return c.dispatch(event{kind: evPartialAcceptKey})
}

// HandleCancelKeyPressed drops whatever is pending.
func (c *Controller) HandleCancelKeyPressed() bool {
	return c.dispatch(event{kind: evCancelKey})
}

// HandleAcceptCommand accepts the whole suggestion from a command rather than a key.
func (c *Controller) HandleAcceptCommand() {
	c.dispatch(event{kind: evAcceptCommand})
}

// HandleSettingChanged swaps the settings and enters or leaves the disabled states.
func (c *Controller) HandleSettingChanged(settings config.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.settings = settings
	if r, ok := c.provider.(predict.Reconfigurable); ok {
		r.Reconfigure(settings)
	}
	if !settings.CacheSuggestions {
		c.cache.Clear()
	}
	if !settings.Valid() {
		c.logger.Warnf("Invalid settings: %v", settings.Errors)
	}
	c.reevaluate()
}

// HandleFileChange records the active file and applies its ignore rules.
func (c *Controller) HandleFileChange(file editor.File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.file = file
	c.reevaluate()
}

// State returns the current state kind.
func (c *Controller) State() Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.kind()
}

// Context returns the context last computed for a queued or requested snapshot.
func (c *Controller) Context() classify.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// StatusText is a short label for a status bar.
func (c *Controller) StatusText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusText()
}

// Suggestion returns the suggestion on display, if any.
func (c *Controller) Suggestion() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.state.(*suggestingState); ok {
		return s.suggestion, true
	}
	return "", false
}

// CacheStats exposes the suggestion cache counters.
func (c *Controller) CacheStats() map[string]int {
	return c.cache.Stats()
}

// Close stops the pending timer, cancels the pending request and waits for
// request goroutines to return. Later events are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.exit(c.state)
		c.gen++
		c.state = &idleState{}
	}
	c.mu.Unlock()
	c.inflight.Wait()
}

func (c *Controller) statusText() string {
	k := c.state.kind()
	switch k {
	case Idle:
		return "Idle"
	case Queued, Predicting, Suggesting:
		return fmt.Sprintf("%s [%s]", k, c.ctx)
	case DisabledManual:
		return "Disabled"
	case DisabledInvalidSettings:
		return fmt.Sprintf("Disabled: %d invalid setting(s)", len(c.settings.Errors))
	case DisabledFileSpecific:
		return "Disabled for this file"
	}
	return k.String()
}

func (c *Controller) dispatch(ev event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatchLocked(ev)
}

func (c *Controller) dispatchLocked(ev event) bool {
	if c.closed {
		return false
	}
	h := handlers[c.state.kind()][ev.kind]
	if h == nil {
		return false
	}
	return h(c, ev)
}

// disabledKind returns the disabled variant that currently applies, by priority.
func (c *Controller) disabledKind() (Kind, bool) {
	switch {
	case !c.settings.Enabled:
		return DisabledManual, true
	case !c.settings.Valid():
		return DisabledInvalidSettings, true
	case c.settings.Ignore.Matches(c.file.Path, c.file.Tags):
		return DisabledFileSpecific, true
	}
	return Idle, false
}

func (c *Controller) reevaluate() {
	current := c.state.kind()
	want, disabled := c.disabledKind()
	switch {
	case disabled && current != want:
		if want == DisabledManual {
			c.cache.Clear()
		}
		c.transition(&disabledState{k: want})
	case !disabled && current.Disabled():
		c.transition(&idleState{})
	}
}

// transition leaves the current state, bumps the generation and enters next.
func (c *Controller) transition(next state) {
	prev := c.state
	c.exit(prev)
	c.gen++
	c.state = next
	c.enter(next)

	c.logger.Debugf("%s -> %s", prev.kind(), next.kind())
	if c.onStatus != nil {
		c.onStatus(next.kind(), c.statusText())
	}
}

func (c *Controller) enter(s state) {
	switch s := s.(type) {
	case *queuedState:
		c.ctx = classify.Classify(s.snapshot.Prefix, s.snapshot.Suffix)
		gen := c.gen
		s.stop = c.scheduler.AfterFunc(c.settings.Delay, func() {
			c.timerFired(gen)
		})
	case *predictingState:
		c.ctx = classify.Classify(s.snapshot.Prefix, s.snapshot.Suffix)
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		c.request(ctx, c.gen, s.snapshot)
	case *suggestingState:
		c.view.Render(s.suggestion)
	}
}

func (c *Controller) exit(s state) {
	switch s := s.(type) {
	case *queuedState:
		if s.stop != nil {
			s.stop()
		}
	case *predictingState:
		if s.cancel != nil {
			s.cancel()
		}
	case *suggestingState:
		c.view.Clear()
	}
}

func (c *Controller) timerFired(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.dispatchLocked(event{kind: evTimerFired})
}

// request asks the provider on its own goroutine and delivers the answer under
// the generation it was issued with.
func (c *Controller) request(ctx context.Context, gen uint64, snap editor.Snapshot) {
	provider := c.provider
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		result, err := provider.FetchPredictions(ctx, snap.Prefix, snap.Suffix)

		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.gen {
			c.logger.Debugf("Dropping stale prediction for generation %d", gen)
			return
		}
		c.dispatchLocked(event{kind: evPredictionResolved, result: result, err: err})
	}()
}

func (c *Controller) cachePut(snap editor.Snapshot, suggestion string) {
	if c.settings.CacheSuggestions {
		c.cache.Put(snap.Prefix, snap.Suffix, suggestion)
	}
}

func (c *Controller) cachePartials(snap editor.Snapshot, accepted, remaining string) {
	if c.settings.CacheSuggestions {
		c.cache.PutPartials(snap.Prefix, snap.Suffix, accepted, remaining)
	}
}

func (c *Controller) cacheTyped(snap editor.Snapshot, typed, suggestion string) {
	if c.settings.CacheSuggestions {
		c.cache.PutTyped(snap.Prefix, snap.Suffix, typed, suggestion)
	}
}
