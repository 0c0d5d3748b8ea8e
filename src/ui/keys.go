package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"region-chat/src/messages"
)

// fontShortcuts are the window-wide text size keys.
var fontShortcuts = []struct {
	key  fyne.KeyName
	mod  fyne.KeyModifier
	name string
}{
	{fyne.KeyEqual, fyne.KeyModifierShortcutDefault, "="},
	{fyne.KeyEqual, fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift, "+"},
	{fyne.KeyMinus, fyne.KeyModifierShortcutDefault, "-"},
	{fyne.KeyMinus, fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift, "_"},
}

func fontShortcutName(s fyne.Shortcut) (string, bool) {
	cs, ok := s.(*desktop.CustomShortcut)
	if !ok {
		return "", false
	}
	for _, f := range fontShortcuts {
		if cs.KeyName == f.key && cs.Modifier == f.mod {
			return f.name, true
		}
	}
	return "", false
}

// chatEntry is the chat input. A focused widget receives shortcuts and keys
// before the canvas does, so the window-wide ones are forwarded from here.
type chatEntry struct {
	widget.Entry

	post func(messages.Message)
	// pasteImage loads a clipboard image and reports whether there was one.
	pasteImage func() bool
}

func newChatEntry(post func(messages.Message), pasteImage func() bool) *chatEntry {
	e := &chatEntry{post: post, pasteImage: pasteImage}
	e.ExtendBaseWidget(e)
	return e
}

func (e *chatEntry) TypedShortcut(s fyne.Shortcut) {
	if name, ok := fontShortcutName(s); ok {
		e.post(messages.KeyPressed{Name: name, Shortcut: true})
		return
	}
	if _, ok := s.(*fyne.ShortcutPaste); ok && e.pasteImage != nil && e.pasteImage() {
		return
	}
	e.Entry.TypedShortcut(s)
}

func (e *chatEntry) TypedKey(ev *fyne.KeyEvent) {
	if ev.Name == fyne.KeyEscape {
		e.post(messages.KeyPressed{Name: string(fyne.KeyEscape)})
		return
	}
	e.Entry.TypedKey(ev)
}
