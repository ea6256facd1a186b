package lifecycle

import (
	"context"

	"github.com/bastiangx/inkpilot/pkg/editor"
)

// Kind names a controller state.
type Kind int

const (
	Idle Kind = iota
	Queued
	Predicting
	Suggesting
	DisabledManual
	DisabledInvalidSettings
	DisabledFileSpecific

	numKinds
)

var kindNames = [numKinds]string{
	Idle:                    "Idle",
	Queued:                  "Queued",
	Predicting:              "Predicting",
	Suggesting:              "Suggesting",
	DisabledManual:          "DisabledManual",
	DisabledInvalidSettings: "DisabledInvalidSettings",
	DisabledFileSpecific:    "DisabledFileSpecific",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "Unknown"
	}
	return kindNames[k]
}

// Disabled reports whether k is one of the disabled variants.
func (k Kind) Disabled() bool {
	return k == DisabledManual || k == DisabledInvalidSettings || k == DisabledFileSpecific
}

// state is one variant. Each variant holds only its own data; behavior lives in
// the handler table.
type state interface {
	kind() Kind
}

type idleState struct{}

func (*idleState) kind() Kind { return Idle }

type queuedState struct {
	snapshot editor.Snapshot
	stop     func() bool
}

func (*queuedState) kind() Kind { return Queued }

type predictingState struct {
	snapshot editor.Snapshot
	cancel   context.CancelFunc
}

func (*predictingState) kind() Kind { return Predicting }

type suggestingState struct {
	suggestion string
	snapshot   editor.Snapshot
}

func (*suggestingState) kind() Kind { return Suggesting }

type disabledState struct {
	k Kind
}

func (s *disabledState) kind() Kind { return s.k }

type eventKind int

const (
	evDocumentChanged eventKind = iota
	evPredictCommand
	evAcceptKey
	evPartialAcceptKey
	evCancelKey
	evAcceptCommand
	evTimerFired
	evPredictionResolved

	numEvents
)

type event struct {
	kind eventKind

	change   editor.DocumentChange
	snapshot editor.Snapshot

	result string
	err    error
}

// handler reacts to an event in the current state and reports whether it acted.
type handler func(c *Controller, ev event) bool

// handlers is the whole transition table. A nil entry ignores the event.
var handlers [numKinds][numEvents]handler

func init() {
	handlers = [numKinds][numEvents]handler{
		Idle: {
			evDocumentChanged: idleOnDocumentChanged,
			evPredictCommand:  idleOnPredictCommand,
		},
		Queued: {
			evDocumentChanged: queuedOnDocumentChanged,
			evCancelKey:       toIdle,
			evTimerFired:      queuedOnTimerFired,
		},
		Predicting: {
			evDocumentChanged:    predictingOnDocumentChanged,
			evCancelKey:          toIdle,
			evPredictionResolved: predictingOnResolved,
		},
		Suggesting: {
			evDocumentChanged:  suggestingOnDocumentChanged,
			evAcceptKey:        suggestingOnAccept,
			evPartialAcceptKey: suggestingOnPartialAccept,
			evCancelKey:        suggestingOnCancel,
			evAcceptCommand:    suggestingOnAccept,
		},
	}
}
