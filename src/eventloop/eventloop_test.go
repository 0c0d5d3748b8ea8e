package eventloop

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"region-chat/src/chat"
	"region-chat/src/imagehost"
	"region-chat/src/llm"
	"region-chat/src/messages"
	"region-chat/src/region"
	"region-chat/src/worker"
)

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(context.Context, []llm.Message) (string, error) {
	s.calls++
	return s.reply, s.err
}

// heldExecutor keeps jobs until release is called.
type heldExecutor struct {
	pending []func()
}

func (h *heldExecutor) Submit(ctx context.Context, run worker.Job, cb worker.ResultCallback) bool {
	h.pending = append(h.pending, func() { cb(run(ctx)) })
	return true
}

func (h *heldExecutor) release() {
	jobs := h.pending
	h.pending = nil
	for _, j := range jobs {
		j()
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pasted(t *testing.T) messages.ImageReceived {
	data := pngBytes(t, 40, 30)
	return messages.ImageReceived{
		Source:   messages.SourcePaste,
		Viewport: region.Size{Width: 800, Height: 600},
		Items: []imagehost.Item{
			{Type: "text/plain", Read: func() ([]byte, error) { return []byte("nope"), nil }},
			{Type: "image/png", Name: "shot.png", Read: func() ([]byte, error) { return data, nil }},
		},
	}
}

func drag(l *Loop, from, to region.Point) {
	l.handle(messages.Pointer{Event: region.PointerEvent{Kind: region.PointerPress, Pos: from}})
	l.handle(messages.Pointer{Event: region.PointerEvent{Kind: region.PointerMove, Pos: to}})
	l.handle(messages.Pointer{Event: region.PointerEvent{Kind: region.PointerRelease, Pos: to}})
}

// drainCalls runs callbacks the session posted back to the loop.
func drainCalls(l *Loop) {
	for {
		select {
		case fn := <-l.calls:
			fn()
		default:
			return
		}
	}
}

func TestScenarioPasteSelectChat(t *testing.T) {
	comp := &stubCompleter{reply: "hi there"}
	exec := &heldExecutor{}
	l := New(Options{Completer: comp, Executor: exec})

	l.handle(pasted(t))
	snap := l.Snapshot()
	require.NotNil(t, snap.Image)
	assert.False(t, snap.HasSelection)
	assert.False(t, snap.ChatVisible)
	assert.Equal(t, NoticePasted, snap.Notice)

	l.handle(messages.KeyPressed{Name: "s"})
	assert.True(t, l.Snapshot().Selecting)

	drag(l, region.Point{X: 100, Y: 100}, region.Point{X: 300, Y: 250})
	snap = l.Snapshot()
	require.True(t, snap.HasSelection)
	assert.Equal(t, region.Rect{X: 100, Y: 100, Width: 200, Height: 150}, snap.Selection)
	assert.False(t, snap.Selecting)
	assert.Equal(t, NoticeRegionSelected, snap.Notice)

	l.handle(messages.KeyPressed{Name: "c"})
	snap = l.Snapshot()
	require.True(t, snap.ChatVisible)
	require.Len(t, snap.Transcript, 1)
	assert.Equal(t, chat.RoleAssistant, snap.Transcript[0].Role)

	l.handle(messages.Submit{Text: "hello"})
	assert.True(t, l.Snapshot().Awaiting)
	l.handle(messages.Submit{Text: "x"})
	assert.Len(t, l.Snapshot().Transcript, 2)
	assert.Len(t, exec.pending, 1)

	exec.release()
	drainCalls(l)

	snap = l.Snapshot()
	require.Len(t, snap.Transcript, 3)
	assert.Equal(t, "hello", snap.Transcript[1].Content)
	assert.Equal(t, "hi there", snap.Transcript[2].Content)
	assert.False(t, snap.Awaiting)
	assert.Equal(t, 1, comp.calls)
}

func TestKeysIgnoredWithoutPrerequisites(t *testing.T) {
	l := New(Options{Executor: &heldExecutor{}})

	l.handle(messages.KeyPressed{Name: "s"})
	assert.False(t, l.Snapshot().Selecting, "no image loaded")

	l.handle(pasted(t))
	l.handle(messages.KeyPressed{Name: "c"})
	assert.False(t, l.Snapshot().ChatVisible, "no selection yet")

	l.handle(messages.KeyPressed{Name: "s", Shortcut: true})
	assert.False(t, l.Snapshot().Selecting, "ctrl+s is not a selection key")
}

func TestSmallDragLeavesNoSelection(t *testing.T) {
	l := New(Options{Executor: &heldExecutor{}})
	l.handle(pasted(t))
	l.handle(messages.KeyPressed{Name: "S"})

	drag(l, region.Point{X: 10, Y: 10}, region.Point{X: 25, Y: 200})
	snap := l.Snapshot()
	assert.False(t, snap.HasSelection)
	assert.False(t, snap.Selecting)
	assert.Equal(t, 0, l.hub.Subscribers())
}

func TestFontSizeSequence(t *testing.T) {
	l := New(Options{Executor: &heldExecutor{}})
	require.Equal(t, chat.DefaultFontSize, l.Snapshot().FontSize)

	var got []int
	for i := 0; i < 5; i++ {
		l.handle(messages.KeyPressed{Name: "=", Shortcut: true})
		got = append(got, l.Snapshot().FontSize)
	}
	assert.Equal(t, []int{16, 18, 20, 22, 24}, got)

	l.handle(messages.KeyPressed{Name: "+", Shortcut: true})
	assert.Equal(t, 26, l.Snapshot().FontSize)

	for i := 0; i < 10; i++ {
		l.handle(messages.KeyPressed{Name: "=", Shortcut: true})
	}
	assert.Equal(t, chat.MaxFontSize, l.Snapshot().FontSize)

	for i := 0; i < 20; i++ {
		l.handle(messages.KeyPressed{Name: "-", Shortcut: true})
	}
	assert.Equal(t, chat.MinFontSize, l.Snapshot().FontSize)

	l.handle(messages.KeyPressed{Name: "-"})
	assert.Equal(t, chat.MinFontSize, l.Snapshot().FontSize, "minus without modifier is ignored")
}

func TestFontSizeFollowsIntoSession(t *testing.T) {
	l := New(Options{Executor: &heldExecutor{}})
	l.handle(pasted(t))
	l.handle(messages.KeyPressed{Name: "s"})
	drag(l, region.Point{X: 0, Y: 0}, region.Point{X: 50, Y: 50})
	l.handle(messages.KeyPressed{Name: "c"})

	l.handle(messages.KeyPressed{Name: "=", Shortcut: true})
	assert.Equal(t, 16, l.session.FontSize())
}

func TestNewImageInvalidatesScope(t *testing.T) {
	l := New(Options{Executor: &heldExecutor{}})
	l.handle(pasted(t))
	l.handle(messages.KeyPressed{Name: "s"})
	drag(l, region.Point{X: 0, Y: 0}, region.Point{X: 50, Y: 50})
	l.handle(messages.KeyPressed{Name: "c"})
	require.True(t, l.Snapshot().ChatVisible)

	next := pasted(t)
	next.Source = messages.SourceUpload
	l.handle(next)

	snap := l.Snapshot()
	assert.False(t, snap.HasSelection)
	assert.False(t, snap.ChatVisible)
	assert.Empty(t, snap.Transcript)
	assert.Equal(t, NoticeUploaded, snap.Notice)
}

func TestNonImageInputIgnored(t *testing.T) {
	l := New(Options{Executor: &heldExecutor{}})
	l.handle(messages.ImageReceived{
		Source: messages.SourcePaste,
		Items:  []imagehost.Item{{Type: "text/plain", Read: func() ([]byte, error) { return []byte("x"), nil }}},
	})
	l.handle(messages.ImageReceived{
		Source: messages.SourceDrop,
		Items:  []imagehost.Item{{Type: "image/png", Read: func() ([]byte, error) { return []byte("garbage"), nil }}},
	})
	snap := l.Snapshot()
	assert.Nil(t, snap.Image)
	assert.Empty(t, snap.Notice)
}

func TestCapture(t *testing.T) {
	data := pngBytes(t, 64, 48)
	l := New(Options{
		Executor: &heldExecutor{},
		Capture: func(context.Context) ([]byte, string, error) {
			return data, "image/png", nil
		},
	})
	l.handle(messages.CaptureScreen{})
	snap := l.Snapshot()
	require.NotNil(t, snap.Image)
	assert.Equal(t, region.Size{Width: 64, Height: 48}, snap.Image.Intrinsic)
	assert.Equal(t, NoticeCaptured, snap.Notice)

	failing := New(Options{
		Executor: &heldExecutor{},
		Capture: func(context.Context) ([]byte, string, error) {
			return nil, "", errors.New("no display")
		},
	})
	failing.handle(messages.CaptureScreen{})
	assert.Nil(t, failing.Snapshot().Image)
}

func TestEscapeDismissesChat(t *testing.T) {
	l := New(Options{Executor: &heldExecutor{}})
	l.handle(pasted(t))
	l.handle(messages.KeyPressed{Name: "s"})
	drag(l, region.Point{X: 0, Y: 0}, region.Point{X: 50, Y: 50})
	l.handle(messages.KeyPressed{Name: "c"})
	l.handle(messages.KeyPressed{Name: "Escape"})

	snap := l.Snapshot()
	assert.False(t, snap.ChatVisible)
	assert.True(t, snap.HasSelection, "selection survives closing chat")

	l.handle(messages.KeyPressed{Name: "c"})
	snap = l.Snapshot()
	assert.True(t, snap.ChatVisible)
	assert.Len(t, snap.Transcript, 1, "reopening starts a fresh session")
}

func TestRunPublishesSnapshots(t *testing.T) {
	comp := &stubCompleter{reply: "hi there"}
	l := New(Options{Completer: comp})

	snaps := make(chan Snapshot, 64)
	unsubscribe := l.Subscribe(func(s Snapshot) { snaps <- s })
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	require.True(t, l.Post(pasted(t)))
	require.True(t, l.Post(messages.KeyPressed{Name: "s"}))
	for _, ev := range []region.PointerEvent{
		{Kind: region.PointerPress, Pos: region.Point{X: 100, Y: 100}},
		{Kind: region.PointerMove, Pos: region.Point{X: 300, Y: 250}},
		{Kind: region.PointerRelease, Pos: region.Point{X: 300, Y: 250}},
	} {
		require.True(t, l.Post(messages.Pointer{Event: ev}))
	}
	require.True(t, l.Post(messages.KeyPressed{Name: "c"}))
	require.True(t, l.Post(messages.Submit{Text: "hello"}))

	deadline := time.After(3 * time.Second)
	for {
		select {
		case s := <-snaps:
			if len(s.Transcript) == 3 {
				assert.Equal(t, "hi there", s.Transcript[2].Content)
				assert.False(t, s.Awaiting)
				l.Stop()
				assert.ErrorIs(t, <-errCh, ErrStopped)
				assert.False(t, l.Post(messages.CaptureScreen{}))
				return
			}
		case <-deadline:
			t.Fatal("reply never published")
		}
	}
}

// blockingCompleter holds every request until release is closed, ignoring
// its context the way a request without an HTTP timeout would.
type blockingCompleter struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingCompleter) Complete(context.Context, []llm.Message) (string, error) {
	b.started <- struct{}{}
	<-b.release
	return "hi there", nil
}

func TestClosedSessionDoesNotBlockNextSession(t *testing.T) {
	comp := &blockingCompleter{started: make(chan struct{}, 8), release: make(chan struct{})}
	l := New(Options{Completer: comp})

	snaps := make(chan Snapshot, 256)
	unsubscribe := l.Subscribe(func(s Snapshot) { snaps <- s })
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	defer func() {
		l.Stop()
		<-errCh
	}()

	require.True(t, l.Post(pasted(t)))
	require.True(t, l.Post(messages.KeyPressed{Name: "s"}))
	for _, ev := range []region.PointerEvent{
		{Kind: region.PointerPress, Pos: region.Point{X: 100, Y: 100}},
		{Kind: region.PointerMove, Pos: region.Point{X: 300, Y: 250}},
		{Kind: region.PointerRelease, Pos: region.Point{X: 300, Y: 250}},
	} {
		require.True(t, l.Post(messages.Pointer{Event: ev}))
	}

	for round := 1; round <= 3; round++ {
		require.True(t, l.Post(messages.KeyPressed{Name: "c"}))
		require.True(t, l.Post(messages.Submit{Text: "hello"}))
		select {
		case <-comp.started:
		case <-time.After(3 * time.Second):
			t.Fatalf("session %d never reached the completion service", round)
		}
		if round < 3 {
			require.True(t, l.Post(messages.KeyPressed{Name: "Escape"}))
		}
	}

	// Earlier sessions' calls return too; their results must go nowhere.
	close(comp.release)
	deadline := time.After(3 * time.Second)
	for {
		select {
		case s := <-snaps:
			for _, turn := range s.Transcript {
				assert.NotContains(t, turn.Content, chat.ErrBusy.Error())
			}
			if s.ChatVisible && len(s.Transcript) == 3 {
				assert.Equal(t, "hi there", s.Transcript[2].Content)
				assert.False(t, s.Awaiting)
				return
			}
		case <-deadline:
			t.Fatal("third session's reply never published")
		}
	}
}
