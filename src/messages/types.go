package messages

import (
	"region-chat/src/imagehost"
	"region-chat/src/region"
)

// Message is the base interface for all events posted to the event loop
type Message interface {
	Type() string
}

// MessageType constants for type identification
const (
	TypeKeyPressed    = "KeyPressed"
	TypeImageReceived = "ImageReceived"
	TypePointer       = "Pointer"
	TypeSubmit        = "Submit"
	TypeCaptureScreen = "CaptureScreen"
	TypeViewport      = "ViewportChanged"
	TypeDismissChat   = "DismissChat"
)

// Source identifies where an image came from.
type Source string

const (
	SourcePaste   Source = "paste"
	SourceUpload  Source = "upload"
	SourceDrop    Source = "drop"
	SourceCapture Source = "capture"
)

// KeyPressed - sent by the window for typed keys and shortcuts.
// Shortcut is true when Ctrl or Cmd was held.
type KeyPressed struct {
	Name     string // e.g., "s", "c", "=", "-"
	Shortcut bool
}

func (m KeyPressed) Type() string { return TypeKeyPressed }

// ImageReceived - sent on paste, upload or drop. Only the first image item is used.
type ImageReceived struct {
	Items    []imagehost.Item
	Source   Source
	Viewport region.Size
}

func (m ImageReceived) Type() string { return TypeImageReceived }

// Pointer - press/move/release over the image surface
type Pointer struct {
	Event region.PointerEvent
}

func (m Pointer) Type() string { return TypePointer }

// Submit - chat entry text
type Submit struct {
	Text string
}

func (m Submit) Type() string { return TypeSubmit }

// CaptureScreen - sent by the tray menu or the global hotkey
type CaptureScreen struct{}

func (m CaptureScreen) Type() string { return TypeCaptureScreen }

// ViewportChanged - the image area was resized
type ViewportChanged struct {
	Viewport region.Size
}

func (m ViewportChanged) Type() string { return TypeViewport }

// DismissChat - closes the chat panel and discards its session
type DismissChat struct{}

func (m DismissChat) Type() string { return TypeDismissChat }
