package eventloop

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"region-chat/src/chat"
	"region-chat/src/imagehost"
	"region-chat/src/messages"
	"region-chat/src/region"
	"region-chat/src/worker"
)

// User-facing notices.
const (
	NoticePasted         = "Image pasted successfully"
	NoticeUploaded       = "Image uploaded successfully"
	NoticeCaptured       = "Screen captured"
	NoticeSelecting      = "Drag to select a region"
	NoticeRegionSelected = "Region selected - Press C to show chat"
	NoticeChatActivated  = "Chat interface activated"
)

// ErrStopped is returned by Run when Stop was called.
var ErrStopped = errors.New("event loop stopped")

// CaptureFunc grabs the screen and returns encoded image bytes with their MIME type.
type CaptureFunc func(ctx context.Context) (data []byte, mime string, err error)

// Snapshot is an immutable view of the loop state handed to renderers.
type Snapshot struct {
	Image        *imagehost.Image
	Selecting    bool
	Live         region.Rect
	HasLive      bool
	Selection    region.Rect
	HasSelection bool
	ChatVisible  bool
	SessionID    string
	Transcript   []chat.Turn
	Awaiting     bool
	FontSize     int
	Notice       string
}

type Options struct {
	Completer chat.Completer
	// Executor defaults to a single-worker pool owned by the loop.
	Executor chat.Executor
	Capture  CaptureFunc
	FontSize int
	Logger   *zap.Logger
}

// Loop is the single-threaded coordinator. It owns the image, the selection,
// the chat visibility flag and the font size preference. Everything except
// Post, Dispatch, Subscribe and Stop must run on the Run goroutine.
type Loop struct {
	log       *zap.Logger
	host      *imagehost.Host
	hub       *region.Hub
	selector  *region.Selector
	pool      *worker.Pool
	executor  chat.Executor
	completer chat.Completer
	capture   CaptureFunc

	inbox chan messages.Message
	calls chan func()
	done  chan struct{}
	stop  sync.Once

	mu        sync.Mutex
	listeners map[int]func(Snapshot)
	nextID    int

	ctx          context.Context
	viewport     region.Size
	selection    region.Rect
	hasSelection bool
	selecting    bool
	chatVisible  bool
	fontSize     int
	session      *chat.Session
	// sessionCtx scopes the open session's request; closing the chat cancels it.
	sessionCtx    context.Context
	cancelSession context.CancelFunc
	notice        string
}

// New creates a loop. Call Run to start processing.
func New(opts Options) *Loop {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	l := &Loop{
		log:       log,
		hub:       region.NewHub(),
		selector:  region.NewSelector(),
		executor:  opts.Executor,
		completer: opts.Completer,
		capture:   opts.Capture,
		inbox:     make(chan messages.Message, 64),
		calls:     make(chan func(), 8),
		done:      make(chan struct{}),
		listeners: make(map[int]func(Snapshot)),
		fontSize:  chat.ClampFontSize(opts.FontSize),
		ctx:       context.Background(),
	}
	if l.executor == nil {
		l.pool = worker.New(1, log.Named("worker"))
		l.executor = l.pool
	}
	l.host = imagehost.New(log.Named("imagehost"), func(display, intrinsic region.Size) {
		l.log.Info("image loaded",
			zap.Int("display_width", display.Width), zap.Int("display_height", display.Height),
			zap.Int("width", intrinsic.Width), zap.Int("height", intrinsic.Height))
	})
	return l
}

// Post queues a message for the loop. It returns false once the loop has stopped.
func (l *Loop) Post(msg messages.Message) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.inbox <- msg:
		return true
	case <-l.done:
		return false
	}
}

// Dispatch runs fn on the loop goroutine. Completion results arrive this way.
func (l *Loop) Dispatch(fn func()) {
	select {
	case l.calls <- fn:
	case <-l.done:
	}
}

// Subscribe registers a renderer. fn is called on the loop goroutine and
// must not block.
func (l *Loop) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		delete(l.listeners, id)
		l.mu.Unlock()
	}
}

// Stop ends Run. Safe to call more than once.
func (l *Loop) Stop() {
	l.stop.Do(func() { close(l.done) })
}

// Run processes messages until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	l.ctx = ctx
	if l.pool != nil {
		defer l.pool.Close()
	}
	defer l.Stop()
	l.publish()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return ErrStopped
		case msg := <-l.inbox:
			l.handle(msg)
			l.publish()
		case fn := <-l.calls:
			fn()
			l.publish()
		}
	}
}

func (l *Loop) handle(msg messages.Message) {
	switch m := msg.(type) {
	case messages.KeyPressed:
		l.handleKey(m)
	case messages.ImageReceived:
		l.handleImage(m)
	case messages.Pointer:
		l.hub.Publish(m.Event)
	case messages.Submit:
		l.handleSubmit(m.Text)
	case messages.CaptureScreen:
		l.handleCapture()
	case messages.ViewportChanged:
		l.viewport = m.Viewport
	case messages.DismissChat:
		l.handleDismiss()
	default:
		l.log.Debug("unhandled message", zap.String("type", msg.Type()))
	}
}

func (l *Loop) handleKey(k messages.KeyPressed) {
	name := strings.ToLower(k.Name)
	if k.Shortcut {
		switch name {
		case "=", "+":
			l.setFontSize(l.fontSize + chat.FontSizeStep)
		case "-", "_":
			l.setFontSize(l.fontSize - chat.FontSizeStep)
		}
		return
	}

	switch name {
	case "s":
		if l.host.Current() != nil && !l.chatVisible {
			l.beginSelection()
		}
	case "c":
		if l.hasSelection && l.host.Current() != nil && !l.chatVisible {
			l.openChat()
		}
	case "escape":
		if l.selecting {
			l.selector.Cancel()
			l.selecting = false
			l.notice = ""
		} else if l.chatVisible {
			l.handleDismiss()
		}
	}
}

func (l *Loop) setFontSize(px int) {
	l.fontSize = chat.ClampFontSize(px)
	if l.session != nil {
		l.session.SetFontSize(l.fontSize)
	}
	l.log.Debug("font size changed", zap.Int("px", l.fontSize))
}

func (l *Loop) beginSelection() {
	l.selecting = true
	l.notice = NoticeSelecting
	l.selector.Begin(l.hub, l.regionSelected, l.regionDiscarded)
}

func (l *Loop) regionSelected(r region.Rect) {
	l.selection = r
	l.hasSelection = true
	l.selecting = false
	l.notice = NoticeRegionSelected
	l.closeChat()
	l.log.Info("region selected", zap.Stringer("rect", r))
}

func (l *Loop) regionDiscarded() {
	l.selecting = false
	l.notice = ""
	l.log.Debug("selection discarded")
}

func (l *Loop) openChat() {
	l.sessionCtx, l.cancelSession = context.WithCancel(l.ctx)
	l.session = chat.New(chat.Options{
		Rect:      l.selection,
		FontSize:  l.fontSize,
		Completer: l.completer,
		Executor:  l.executor,
		Post:      l.Dispatch,
		Logger:    l.log.Named("chat"),
	})
	l.chatVisible = true
	l.notice = NoticeChatActivated
	l.log.Info("chat opened", zap.String("session", l.session.ID()), zap.Stringer("rect", l.selection))
}

func (l *Loop) closeChat() {
	if l.cancelSession != nil {
		l.cancelSession()
		l.cancelSession = nil
	}
	l.session = nil
	l.chatVisible = false
}

func (l *Loop) handleDismiss() {
	if !l.chatVisible {
		return
	}
	l.closeChat()
	l.notice = ""
}

func (l *Loop) handleSubmit(text string) {
	if l.session == nil || !l.chatVisible {
		return
	}
	if !l.session.Submit(l.sessionCtx, text) {
		l.log.Debug("submit ignored", zap.Bool("awaiting", l.session.Awaiting()))
	}
}

func (l *Loop) handleImage(m messages.ImageReceived) {
	item, ok := imagehost.FirstImage(m.Items)
	if !ok {
		l.log.Debug("no image in input", zap.String("source", string(m.Source)), zap.Int("items", len(m.Items)))
		return
	}
	viewport := m.Viewport
	if viewport.Width <= 0 || viewport.Height <= 0 {
		viewport = l.viewport
	}
	if _, err := l.host.LoadItem(item, viewport); err != nil {
		l.log.Warn("image rejected", zap.String("source", string(m.Source)), zap.String("name", item.Name), zap.Error(err))
		return
	}
	l.imageReplaced(m.Source)
}

func (l *Loop) handleCapture() {
	if l.capture == nil {
		l.log.Warn("screen capture unavailable")
		return
	}
	data, mime, err := l.capture(l.ctx)
	if err != nil {
		l.log.Error("screen capture failed", zap.Error(err))
		return
	}
	if _, err := l.host.Load(data, mime, l.viewport); err != nil {
		l.log.Error("captured image rejected", zap.Error(err))
		return
	}
	l.imageReplaced(messages.SourceCapture)
}

// imageReplaced drops every piece of state scoped to the previous image.
func (l *Loop) imageReplaced(src messages.Source) {
	l.selector.Cancel()
	l.selecting = false
	l.selection = region.Rect{}
	l.hasSelection = false
	l.closeChat()

	switch src {
	case messages.SourcePaste:
		l.notice = NoticePasted
	case messages.SourceCapture:
		l.notice = NoticeCaptured
	default:
		l.notice = NoticeUploaded
	}
}

// Snapshot returns the current state. Loop goroutine only.
func (l *Loop) Snapshot() Snapshot {
	s := Snapshot{
		Image:        l.host.Current(),
		Selecting:    l.selecting,
		Selection:    l.selection,
		HasSelection: l.hasSelection,
		ChatVisible:  l.chatVisible,
		FontSize:     l.fontSize,
		Notice:       l.notice,
	}
	s.Live, s.HasLive = l.selector.Live()
	if l.session != nil {
		s.SessionID = l.session.ID()
		s.Transcript = l.session.Transcript()
		s.Awaiting = l.session.Awaiting()
	}
	return s
}

func (l *Loop) publish() {
	snap := l.Snapshot()
	l.mu.Lock()
	fns := make([]func(Snapshot), 0, len(l.listeners))
	for _, fn := range l.listeners {
		fns = append(fns, fn)
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}
