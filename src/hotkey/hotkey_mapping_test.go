package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyNameToRawcodes(t *testing.T) {
	tests := []struct {
		keyName  string
		expected []uint16
	}{
		// Modifier keys
		{"ctrl", []uint16{162, 163}},
		{"alt", []uint16{164, 165}},
		{"shift", []uint16{160, 161}},
		{"win", []uint16{91, 92}},
		{"cmd", []uint16{91, 92}},
		{"super", []uint16{91, 92}},

		// Letter keys
		{"a", []uint16{65}},
		{"q", []uint16{81}},
		{"Z", []uint16{90}},

		// Number keys
		{"0", []uint16{48}},
		{"9", []uint16{57}},

		// Function keys
		{"f1", []uint16{112}},
		{"f12", []uint16{123}},
		{"f24", []uint16{135}},
		{"f25", nil},

		// Special keys
		{"space", []uint16{32}},
		{"enter", []uint16{13}},
		{"esc", []uint16{27}},
		{"pgdn", []uint16{34}},

		{"unknown", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.keyName, func(t *testing.T) {
			assert.Equal(t, tt.expected, keyNameToRawcodes(tt.keyName))
		})
	}
}

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Ctrl+Alt+Q", []string{"ctrl", "alt", "q"}},
		{"Control+Shift+O", []string{"ctrl", "shift", "o"}},
		{"Alt+F4", []string{"alt", "f4"}},
		{"Ctrl+Win+E", []string{"ctrl", "cmd", "e"}},
		{"Super + Alt + T", []string{"cmd", "alt", "t"}},
		{"Ctrl++Q", []string{"ctrl", "q"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseHotkey(tt.input))
		})
	}
}

func TestMatcher(t *testing.T) {
	m, err := newMatcher("Ctrl+Alt+Q")
	require.NoError(t, err)

	assert.False(t, m.press(162), "ctrl alone")
	assert.False(t, m.press(165), "right alt")
	m.release(162)
	assert.False(t, m.press(81), "ctrl was released")
	assert.True(t, m.press(163), "right ctrl completes the combo")

	// States reset after a match.
	assert.False(t, m.press(81))
}

func TestNewMatcherRejectsUnknownKeys(t *testing.T) {
	_, err := newMatcher("Ctrl+Hyper")
	assert.Error(t, err)

	_, err = newMatcher("")
	assert.Error(t, err)
}
