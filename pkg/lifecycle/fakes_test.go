package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bastiangx/inkpilot/internal/logger"
	"github.com/bastiangx/inkpilot/pkg/config"
	"github.com/bastiangx/inkpilot/pkg/editor"
	"github.com/bastiangx/inkpilot/pkg/suggest"
)

type fakeTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

// fakeScheduler only runs callbacks when a test fires them.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{delay: d, f: f}
	s.timers = append(s.timers, t)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t.stopped || t.fired {
			return false
		}
		t.stopped = true
		return true
	}
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (s *fakeScheduler) created() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// fire runs every pending timer.
func (s *fakeScheduler) fire() {
	s.mu.Lock()
	var due []func()
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t.f)
		}
	}
	s.mu.Unlock()
	for _, f := range due {
		f()
	}
}

// fireAnyway runs timer i even if it was stopped, as a timer racing its Stop would.
func (s *fakeScheduler) fireAnyway(i int) {
	s.mu.Lock()
	f := s.timers[i].f
	s.mu.Unlock()
	f()
}

type stubProvider struct {
	mu           sync.Mutex
	calls        int
	prefixes     []string
	result       string
	err          error
	block        chan struct{}
	reconfigured int
}

func (p *stubProvider) FetchPredictions(_ context.Context, prefix, _ string) (string, error) {
	p.mu.Lock()
	p.calls++
	p.prefixes = append(p.prefixes, prefix)
	block, result, err := p.block, p.result, p.err
	p.mu.Unlock()

	if block != nil {
		<-block
	}
	return result, err
}

func (p *stubProvider) Reconfigure(config.Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reconfigured++
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type recordingView struct {
	mu      sync.Mutex
	renders []string
	inserts []string
	clears  int
	notices []string
}

func (v *recordingView) Render(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renders = append(v.renders, text)
}

func (v *recordingView) Insert(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inserts = append(v.inserts, text)
}

func (v *recordingView) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clears++
}

func (v *recordingView) Notice(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, msg)
}

func (v *recordingView) snapshot() recordingView {
	v.mu.Lock()
	defer v.mu.Unlock()
	return recordingView{
		renders: append([]string(nil), v.renders...),
		inserts: append([]string(nil), v.inserts...),
		clears:  v.clears,
		notices: append([]string(nil), v.notices...),
	}
}

type harness struct {
	c        *Controller
	sched    *fakeScheduler
	provider *stubProvider
	view     *recordingView
	cache    *suggest.Cache
}

func newHarness(t *testing.T, settings config.Settings) *harness {
	t.Helper()
	h := &harness{
		sched:    &fakeScheduler{},
		provider: &stubProvider{},
		view:     &recordingView{},
		cache:    suggest.NewCache(0),
	}
	h.c = New(h.provider, h.view, settings,
		WithScheduler(h.sched),
		WithCache(h.cache),
		WithLogger(logger.Discard()),
	)
	t.Cleanup(h.c.Close)
	return h
}

func settingsWith(mutate func(*config.Config)) config.Settings {
	c := config.DefaultConfig()
	mutate(c)
	return config.NewSettings(c)
}

func snap(prefix, suffix string) editor.Snapshot {
	return editor.Snapshot{Prefix: prefix, Suffix: suffix}
}

func change(prev, cur editor.Snapshot, inputs ...editor.InputKind) editor.DocumentChange {
	return editor.DocumentChange{
		Current:    cur,
		Previous:   prev,
		Inputs:     inputs,
		Focused:    true,
		DocChanged: prev.Text() != cur.Text(),
	}
}

func typed(prev, cur editor.Snapshot) editor.DocumentChange {
	return change(prev, cur, editor.InputType)
}

func (h *harness) waitFor(t *testing.T, kind Kind) {
	t.Helper()
	require.Eventually(t, func() bool { return h.c.State() == kind }, 2*time.Second, time.Millisecond,
		"state is %s, want %s", h.c.State(), kind)
}

// suggest drives the controller into Suggesting with suggestion at s.
func (h *harness) suggest(t *testing.T, s editor.Snapshot, suggestion string) {
	t.Helper()
	h.provider.mu.Lock()
	h.provider.result = suggestion
	h.provider.mu.Unlock()
	h.c.HandlePredictCommand(s.Prefix, s.Suffix)
	h.waitFor(t, Suggesting)
}
