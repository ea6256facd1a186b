// Package editor is the boundary between the suggestion engine and the host document editor.
//
// The host reports document changes as DocumentChange values and receives effects
// through a View. Neither side knows about the other's internals: a change carries
// only the text around the cursor before and after the edit plus the kinds of user
// input that produced it.
package editor

import (
	"slices"
	"strings"
)

// Snapshot is the document split at the cursor. Prefix+Suffix is the whole text.
type Snapshot struct {
	Prefix string
	Suffix string
}

// Text reconstructs the document.
func (s Snapshot) Text() string {
	return s.Prefix + s.Suffix
}

// InputKind classifies the user input behind a change.
type InputKind string

const (
	InputType   InputKind = "type"
	InputDelete InputKind = "delete"
	InputUndo   InputKind = "undo"
	InputRedo   InputKind = "redo"
	InputSelect InputKind = "select"
	InputPaste  InputKind = "paste"
	InputDrop   InputKind = "drop"
)

// ParseInputKind accepts the short names and the dotted names some editors emit
// ("input.type", "delete.backward", "select.pointer").
func ParseInputKind(s string) (InputKind, bool) {
	head, _, _ := strings.Cut(s, ".")
	if head == "input" {
		_, tail, _ := strings.Cut(s, ".")
		head, _, _ = strings.Cut(tail, ".")
	}
	switch InputKind(head) {
	case InputType, InputDelete, InputUndo, InputRedo, InputSelect, InputPaste, InputDrop:
		return InputKind(head), true
	}
	return "", false
}

// DocumentChange describes one editor update.
type DocumentChange struct {
	Current  Snapshot
	Previous Snapshot
	Inputs   []InputKind

	Focused        bool
	DocChanged     bool
	Selection      bool
	MultipleCursor bool
}

// Prefix is the text before the cursor after the change.
func (c DocumentChange) Prefix() string { return c.Current.Prefix }

// Suffix is the text after the cursor after the change.
func (c DocumentChange) Suffix() string { return c.Current.Suffix }

func (c DocumentChange) has(kind InputKind) bool {
	return slices.Contains(c.Inputs, kind)
}

// IsDocInFocus reports whether the document had focus.
func (c DocumentChange) IsDocInFocus() bool { return c.Focused }

// HasDocChanged reports whether the text itself changed.
func (c DocumentChange) HasDocChanged() bool { return c.DocChanged }

// HasUserTyped reports typing input.
func (c DocumentChange) HasUserTyped() bool { return c.has(InputType) }

// HasUserDeleted reports deletion input.
func (c DocumentChange) HasUserDeleted() bool { return c.has(InputDelete) }

// HasUserUndone reports an undo.
func (c DocumentChange) HasUserUndone() bool { return c.has(InputUndo) }

// HasUserRedone reports a redo.
func (c DocumentChange) HasUserRedone() bool { return c.has(InputRedo) }

// HasCursorMoved reports a selection/cursor move.
func (c DocumentChange) HasCursorMoved() bool { return c.has(InputSelect) }

// NoUserEvents reports a change without any classified input.
func (c DocumentChange) NoUserEvents() bool { return len(c.Inputs) == 0 }

// HasSelection reports a non-empty selection.
func (c DocumentChange) HasSelection() bool { return c.Selection }

// HasMultipleCursors reports more than one cursor.
func (c DocumentChange) HasMultipleCursors() bool { return c.MultipleCursor }

// IsTextAdded reports that text was inserted by typing, pasting or dropping.
func (c DocumentChange) IsTextAdded() bool {
	return c.has(InputType) || c.has(InputPaste) || c.has(InputDrop)
}

// AddedPrefixText is the text inserted directly before the cursor. ok is false when
// the new prefix does not extend the previous one.
func (c DocumentChange) AddedPrefixText() (string, bool) {
	if !strings.HasPrefix(c.Current.Prefix, c.Previous.Prefix) {
		return "", false
	}
	return c.Current.Prefix[len(c.Previous.Prefix):], true
}

// AddedSuffixText is the text inserted directly after the cursor (auto-closed brackets
// and the like). ok is false when the new suffix does not end with the previous one.
func (c DocumentChange) AddedSuffixText() (string, bool) {
	if !strings.HasSuffix(c.Current.Suffix, c.Previous.Suffix) {
		return "", false
	}
	return c.Current.Suffix[:len(c.Current.Suffix)-len(c.Previous.Suffix)], true
}

// File identifies the active document for ignore rules.
type File struct {
	Path string
	Tags []string
}

// View receives the effects of the engine. Implementations must not call back into
// the controller synchronously: effects are delivered while it holds its lock.
type View interface {
	// Render shows text as a ghost suggestion at the cursor.
	Render(text string)
	// Insert commits text at the cursor.
	Insert(text string)
	// Clear removes any ghost suggestion.
	Clear()
	// Notice surfaces a short message to the user.
	Notice(msg string)
}

// NopView discards every effect.
type NopView struct{}

func (NopView) Render(string) {}
func (NopView) Insert(string) {}
func (NopView) Clear()        {}
func (NopView) Notice(string) {}
