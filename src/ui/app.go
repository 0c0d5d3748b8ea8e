package ui

import (
	"io"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"region-chat/src/clipboard"
	"region-chat/src/eventloop"
	"region-chat/src/imagehost"
	"region-chat/src/messages"
	"region-chat/src/tray"
)

const (
	AppID = "com.regionchat.app"
	Title = "Region Chat"
)

type Options struct {
	Loop   *eventloop.Loop
	Logger *zap.Logger
	// EnableTray installs the "Capture Screen" tray menu when supported.
	EnableTray bool
}

// App is the desktop shell. It forwards input to the event loop and renders
// the snapshots it publishes.
type App struct {
	loop *eventloop.Loop
	log  *zap.Logger

	fyneApp fyne.App
	win     fyne.Window

	empty   fyne.CanvasObject
	surface *surface
	chat    *chatPanel
	status  *widget.Label
	notice  string
}

func New(opts Options) *App {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		loop:    opts.Loop,
		log:     log,
		fyneApp: app.NewWithID(AppID),
	}
	a.fyneApp.SetIcon(tray.Icon)

	a.win = a.fyneApp.NewWindow(Title)
	a.win.SetIcon(tray.Icon)
	a.win.SetMaster()
	a.win.Resize(fyne.NewSize(1024, 720))

	a.surface = newSurface(a.post)
	a.chat = newChatPanel(a.post, a.copyText, a.pasteImage)
	a.chat.frame.Hide()
	a.status = widget.NewLabel("")
	a.status.Hide()
	a.empty = a.emptyState()

	a.win.SetContent(container.NewBorder(nil, a.status, nil, nil,
		container.NewStack(a.surface, a.empty, a.chat.frame)))

	a.bindKeys()
	a.win.SetOnDropped(a.dropped)

	if opts.EnableTray {
		tray.Install(a.fyneApp, tray.Actions{
			Capture: a.Capture,
			Show:    a.Raise,
		})
	}

	a.loop.Subscribe(func(s eventloop.Snapshot) {
		fyne.Do(func() { a.apply(s) })
	})
	return a
}

// ShowAndRun blocks on the UI main loop.
func (a *App) ShowAndRun() {
	a.win.CenterOnScreen()
	a.win.ShowAndRun()
}

// Quit closes the window from any goroutine.
func (a *App) Quit() {
	fyne.Do(a.fyneApp.Quit)
}

func (a *App) post(m messages.Message) {
	if !a.loop.Post(m) {
		a.log.Debug("event loop stopped, dropping message", zap.String("type", m.Type()))
	}
}

func (a *App) emptyState() fyne.CanvasObject {
	title := widget.NewLabelWithStyle("Paste or upload a screenshot to begin", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	upload := widget.NewButtonWithIcon("Upload Image", theme.UploadIcon(), a.openFile)
	upload.Importance = widget.HighImportance

	hint := func(s string) *widget.Label {
		l := widget.NewLabelWithStyle(s, fyne.TextAlignCenter, fyne.TextStyle{})
		l.Importance = widget.LowImportance
		return l
	}
	return container.NewVBox(
		layout.NewSpacer(),
		title,
		hint("Press Ctrl+V to paste an image"),
		hint("or"),
		container.NewCenter(upload),
		hint("Keyboard shortcuts:"),
		hint("S - Select region"),
		hint("C - Show chat"),
		hint("Ctrl +/- - Adjust text size"),
		layout.NewSpacer(),
	)
}

func (a *App) bindKeys() {
	c := a.win.Canvas()

	// Plain letters arrive as runes only when no widget has focus.
	c.SetOnTypedRune(func(r rune) {
		switch r {
		case 's', 'S', 'c', 'C':
			a.post(messages.KeyPressed{Name: string(r)})
		}
	})
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			a.post(messages.KeyPressed{Name: string(fyne.KeyEscape)})
		}
	})

	for _, f := range fontShortcuts {
		name := f.name
		c.AddShortcut(&desktop.CustomShortcut{KeyName: f.key, Modifier: f.mod}, func(fyne.Shortcut) {
			a.post(messages.KeyPressed{Name: name, Shortcut: true})
		})
	}

	c.AddShortcut(&fyne.ShortcutPaste{}, func(fyne.Shortcut) { a.paste() })
}

func (a *App) paste() {
	items, err := clipboard.Items()
	if err != nil {
		a.log.Warn("clipboard read failed", zap.Error(err))
		return
	}
	a.post(messages.ImageReceived{Items: items, Source: messages.SourcePaste, Viewport: a.surface.viewport()})
}

// pasteImage loads the clipboard image, if any. Text is left to the focused
// entry.
func (a *App) pasteImage() bool {
	items, err := clipboard.Items()
	if err != nil {
		a.log.Debug("clipboard read failed", zap.Error(err))
		return false
	}
	if _, ok := imagehost.FirstImage(items); !ok {
		return false
	}
	a.post(messages.ImageReceived{Items: items, Source: messages.SourcePaste, Viewport: a.surface.viewport()})
	return true
}

func (a *App) openFile() {
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			a.log.Warn("file dialog failed", zap.Error(err))
			return
		}
		if r == nil {
			return
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			a.log.Warn("failed to read file", zap.String("uri", r.URI().String()), zap.Error(err))
			return
		}
		item := imagehost.Item{
			Type: r.URI().MimeType(),
			Name: r.URI().Name(),
			Read: func() ([]byte, error) { return data, nil },
		}
		a.post(messages.ImageReceived{Items: []imagehost.Item{item}, Source: messages.SourceUpload, Viewport: a.surface.viewport()})
	}, a.win)
	d.SetFilter(storage.NewMimeTypeFileFilter([]string{"image/*"}))
	d.Show()
}

func (a *App) dropped(_ fyne.Position, uris []fyne.URI) {
	items := make([]imagehost.Item, 0, len(uris))
	for _, u := range uris {
		items = append(items, ItemFromURI(u))
	}
	a.post(messages.ImageReceived{Items: items, Source: messages.SourceDrop, Viewport: a.surface.viewport()})
}

// ItemFromURI describes a file for image intake. The file is read lazily,
// only if it is the item chosen.
func ItemFromURI(u fyne.URI) imagehost.Item {
	return imagehost.Item{
		Type: u.MimeType(),
		Name: u.Name(),
		Read: func() ([]byte, error) {
			r, err := storage.Reader(u)
			if err != nil {
				return nil, err
			}
			defer r.Close()
			return io.ReadAll(r)
		},
	}
}

// Open queues a file from disk as if it had been dropped on the window.
func (a *App) Open(path string) {
	a.post(messages.ImageReceived{
		Items:  []imagehost.Item{ItemFromURI(storage.NewFileURI(path))},
		Source: messages.SourceUpload,
	})
}

// Capture asks the loop for a fresh screenshot and brings the window forward.
func (a *App) Capture() {
	a.post(messages.CaptureScreen{})
	a.Raise()
}

// Raise shows and focuses the window from any goroutine.
func (a *App) Raise() {
	fyne.Do(func() {
		a.win.Show()
		a.win.RequestFocus()
	})
}

func (a *App) copyText(text string) {
	if err := clipboard.Write(text); err != nil {
		a.log.Warn("clipboard write failed", zap.Error(err))
	}
}

// apply renders one snapshot. UI thread only.
func (a *App) apply(s eventloop.Snapshot) {
	if s.Image == nil {
		a.empty.Show()
	} else {
		a.empty.Hide()
	}
	a.surface.setImage(s.Image)

	switch {
	case s.Selecting:
		a.surface.setRect(s.Live, s.HasLive)
	case s.HasSelection && !s.ChatVisible:
		a.surface.setRect(s.Selection, true)
	default:
		a.surface.setRect(s.Selection, false)
	}

	wasVisible := a.chat.frame.Visible()
	a.chat.apply(s, a.surface.Size())
	if s.ChatVisible && !wasVisible {
		a.chat.focus(a.win.Canvas())
	}

	if s.Notice != a.notice {
		a.notice = s.Notice
		a.status.SetText(s.Notice)
		if s.Notice == "" {
			a.status.Hide()
		} else {
			a.status.Show()
		}
	}
}
