package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenu(t *testing.T) {
	captured := false
	m := Menu(Actions{Capture: func() { captured = true }})

	require.Len(t, m.Items, 1)
	assert.Equal(t, MenuCapture, m.Items[0].Label)
	m.Items[0].Action()
	assert.True(t, captured)
}

func TestMenuAllActions(t *testing.T) {
	m := Menu(Actions{Capture: func() {}, Show: func() {}})
	require.Len(t, m.Items, 2)
	assert.Equal(t, MenuShow, m.Items[1].Label)
}

func TestIconResource(t *testing.T) {
	assert.Equal(t, "region-chat.svg", Icon.Name())
	assert.Contains(t, string(Icon.Content()), "<svg")
}
