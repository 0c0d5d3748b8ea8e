package ui

import (
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"region-chat/src/chat"
	"region-chat/src/eventloop"
	"region-chat/src/messages"
)

const (
	thinkingText     = "Thinking with Groq..."
	entryPlaceholder = "Type a message..."
)

var (
	userBubble      = color.NRGBA{R: 0xdb, G: 0xea, B: 0xfe, A: 0xff}
	assistantBubble = color.NRGBA{R: 0xf3, G: 0xf4, B: 0xf6, A: 0xff}
	panelBorder     = color.NRGBA{A: 0x80}
)

// chatPanel renders one session's transcript and the input row. It keeps
// the rendered turns and only appends what a new snapshot adds.
type chatPanel struct {
	post func(messages.Message)
	copy func(string)

	session  string
	rendered int
	fontSize int

	list     *fyne.Container
	scroll   *container.Scroll
	thinking fyne.CanvasObject
	entry    *chatEntry
	send     *widget.Button
	root     *container.ThemeOverride
	frame    *fyne.Container
}

func newChatPanel(post func(messages.Message), copyText func(string), pasteImage func() bool) *chatPanel {
	p := &chatPanel{post: post, copy: copyText, fontSize: chat.DefaultFontSize}

	p.list = container.NewVBox()
	p.scroll = container.NewVScroll(p.list)
	p.thinking = bubble(widget.NewLabel(thinkingText), assistantBubble, false)

	p.entry = newChatEntry(post, pasteImage)
	p.entry.SetPlaceHolder(entryPlaceholder)
	p.entry.OnSubmitted = func(string) { p.submit() }
	p.send = widget.NewButtonWithIcon("", theme.MailSendIcon(), p.submit)
	p.send.Importance = widget.HighImportance

	input := container.NewBorder(nil, nil, nil, p.send, p.entry)
	body := container.NewBorder(nil, input, nil, nil, p.scroll)

	background := canvas.NewRectangle(color.White)
	background.StrokeColor = panelBorder
	background.StrokeWidth = 0.5

	p.root = container.NewThemeOverride(container.NewStack(background, container.NewPadded(body)), newFontTheme(nil, p.fontSize))
	p.frame = container.NewWithoutLayout(p.root)
	return p
}

func (p *chatPanel) submit() {
	text := p.entry.Text
	if strings.TrimSpace(text) == "" || p.entry.Disabled() {
		return
	}
	p.entry.SetText("")
	p.post(messages.Submit{Text: text})
}

// apply brings the panel in line with snap. Must run on the UI thread.
func (p *chatPanel) apply(snap eventloop.Snapshot, win fyne.Size) {
	if !snap.ChatVisible {
		p.frame.Hide()
		return
	}

	if snap.SessionID != p.session || p.rendered > len(snap.Transcript) {
		p.session = snap.SessionID
		p.rendered = 0
		p.list.RemoveAll()
	}
	for _, turn := range snap.Transcript[p.rendered:] {
		p.list.Remove(p.thinking)
		p.list.Add(p.turnObject(turn))
	}
	p.rendered = len(snap.Transcript)

	p.list.Remove(p.thinking)
	if snap.Awaiting {
		p.list.Add(p.thinking)
		p.entry.Disable()
		p.send.Disable()
	} else {
		p.entry.Enable()
		p.send.Enable()
	}

	if snap.FontSize != p.fontSize {
		p.fontSize = snap.FontSize
		p.root.Theme = newFontTheme(nil, p.fontSize)
		p.root.Refresh()
	}

	p.place(snap, win)
	p.frame.Show()
	p.scroll.ScrollToBottom()
}

// place positions the panel over the selected rectangle, grown to a usable
// minimum and kept inside the window.
func (p *chatPanel) place(snap eventloop.Snapshot, win fyne.Size) {
	r := snap.Selection
	size := fyne.NewSize(float32(r.Width), float32(r.Height))
	minSize := p.root.MinSize()
	size.Width = fyne.Max(size.Width, fyne.Max(minSize.Width, 240))
	size.Height = fyne.Max(size.Height, fyne.Max(minSize.Height, 160))

	pos := fyne.NewPos(float32(r.X), float32(r.Y))
	if pos.X+size.Width > win.Width {
		pos.X = fyne.Max(0, win.Width-size.Width)
	}
	if pos.Y+size.Height > win.Height {
		pos.Y = fyne.Max(0, win.Height-size.Height)
	}
	p.root.Move(pos)
	p.root.Resize(size)
}

func (p *chatPanel) focus(c fyne.Canvas) {
	if c != nil && !p.entry.Disabled() {
		c.Focus(p.entry)
	}
}

func (p *chatPanel) turnObject(turn chat.Turn) fyne.CanvasObject {
	if turn.Role == chat.RoleUser {
		return bubble(userText(turn.Content), userBubble, true)
	}
	content := turn.Content
	copyBtn := widget.NewButtonWithIcon("", theme.ContentCopyIcon(), func() { p.copy(content) })
	copyBtn.Importance = widget.LowImportance
	return bubble(container.NewBorder(nil, nil, nil, container.NewVBox(copyBtn), assistantText(content)), assistantBubble, false)
}

// bubble frames content; user bubbles sit on the right.
func bubble(content fyne.CanvasObject, fill color.Color, right bool) fyne.CanvasObject {
	bg := canvas.NewRectangle(fill)
	bg.StrokeColor = panelBorder
	bg.StrokeWidth = 0.5
	framed := container.NewStack(bg, container.NewPadded(content))
	if right {
		return container.NewBorder(nil, nil, layout.NewSpacer(), nil, framed)
	}
	return framed
}
