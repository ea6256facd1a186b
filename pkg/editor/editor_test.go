package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInputKind(t *testing.T) {
	testCases := []struct {
		input    string
		expected InputKind
		ok       bool
	}{
		{"type", InputType, true},
		{"input.type", InputType, true},
		{"input.type.compose", InputType, true},
		{"input.paste", InputPaste, true},
		{"delete.backward", InputDelete, true},
		{"select.pointer", InputSelect, true},
		{"undo", InputUndo, true},
		{"scroll", "", false},
	}
	for _, tc := range testCases {
		kind, ok := ParseInputKind(tc.input)
		assert.Equal(t, tc.ok, ok, tc.input)
		assert.Equal(t, tc.expected, kind, tc.input)
	}
}

func TestAddedText(t *testing.T) {
	change := DocumentChange{
		Previous: Snapshot{Prefix: "Hello ", Suffix: "\nend"},
		Current:  Snapshot{Prefix: "Hello wo", Suffix: ")\nend"},
	}
	prefix, ok := change.AddedPrefixText()
	require.True(t, ok)
	assert.Equal(t, "wo", prefix)

	suffix, ok := change.AddedSuffixText()
	require.True(t, ok)
	assert.Equal(t, ")", suffix)

	deleted := DocumentChange{
		Previous: Snapshot{Prefix: "Hello w", Suffix: ""},
		Current:  Snapshot{Prefix: "Hello ", Suffix: ""},
	}
	_, ok = deleted.AddedPrefixText()
	assert.False(t, ok)
}

func TestInputPredicates(t *testing.T) {
	change := DocumentChange{Inputs: []InputKind{InputPaste}}
	assert.True(t, change.IsTextAdded())
	assert.False(t, change.HasUserTyped())
	assert.False(t, change.NoUserEvents())
	assert.True(t, DocumentChange{}.NoUserEvents())
}

func TestTracker(t *testing.T) {
	tracker := NewTracker()

	first := tracker.Observe(Observation{Text: "héllo", Cursor: 2, Focused: true})
	assert.False(t, first.DocChanged, "first observation has no history")
	assert.Equal(t, Snapshot{Prefix: "hé", Suffix: "llo"}, first.Current)

	second := tracker.Observe(Observation{Text: "héxllo", Cursor: 3, Inputs: []InputKind{InputType}, Focused: true})
	assert.True(t, second.DocChanged)
	assert.Equal(t, first.Current, second.Previous)
	added, ok := second.AddedPrefixText()
	require.True(t, ok)
	assert.Equal(t, "x", added)

	moved := tracker.Observe(Observation{Text: "héxllo", Cursor: 99, Inputs: []InputKind{InputSelect}})
	assert.False(t, moved.DocChanged)
	assert.Equal(t, "héxllo", moved.Current.Prefix)

	tracker.Reset()
	assert.Equal(t, Snapshot{}, tracker.Last())
}
