package chat

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"region-chat/src/llm"
	"region-chat/src/region"
	"region-chat/src/worker"
)

const (
	MinFontSize     = 10
	MaxFontSize     = 32
	DefaultFontSize = 14
	FontSizeStep    = 2

	Greeting = "Hello! I'm a Groq-powered AI assistant. I'm ready to help you with this window. What would you like to know?"
)

// ErrBusy is reported when the executor refuses a request.
var ErrBusy = errors.New("busy, please retry")

type Role string

const (
	RoleUser      Role = llm.RoleUser
	RoleAssistant Role = llm.RoleAssistant
)

// Turn is immutable once appended.
type Turn struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
}

type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
)

func (s State) String() string {
	if s == StateAwaitingResponse {
		return "awaiting_response"
	}
	return "idle"
}

// Completer is the external completion service.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message) (string, error)
}

// Executor runs a job off the calling goroutine. worker.Pool satisfies it.
type Executor interface {
	Submit(ctx context.Context, run worker.Job, cb worker.ResultCallback) bool
}

type Options struct {
	Rect      region.Rect
	FontSize  int
	Completer Completer
	Executor  Executor
	// Post schedules fn on the goroutine that owns the session. Results from
	// the executor are always delivered through it.
	Post func(fn func())
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// Session is one conversation scoped to a selected rectangle. All methods
// must be called from the owning goroutine.
type Session struct {
	id        string
	rect      region.Rect
	fontSize  int
	state     State
	turns     []Turn
	nextID    uint64
	completer Completer
	executor  Executor
	post      func(func())
	now       func() time.Time
	log       *zap.Logger
}

// New creates a session seeded with the assistant greeting.
func New(opts Options) *Session {
	s := &Session{
		id:        uuid.NewString(),
		rect:      opts.Rect,
		fontSize:  ClampFontSize(opts.FontSize),
		completer: opts.Completer,
		executor:  opts.Executor,
		post:      opts.Post,
		now:       opts.Now,
		log:       opts.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.post == nil {
		s.post = func(fn func()) { fn() }
	}
	s.log = s.log.With(zap.String("session", s.id))
	s.append(RoleAssistant, Greeting)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Rect() region.Rect { return s.rect }

func (s *Session) State() State { return s.state }

func (s *Session) Awaiting() bool { return s.state == StateAwaitingResponse }

func (s *Session) FontSize() int { return s.fontSize }

func (s *Session) SetFontSize(px int) { s.fontSize = ClampFontSize(px) }

// Transcript returns a copy of the turns in append order.
func (s *Session) Transcript() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Submit appends the user turn and issues one completion request. It returns
// false without side effects when text is blank or a request is in flight.
func (s *Session) Submit(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || s.state == StateAwaitingResponse {
		return false
	}

	messages := s.requestMessages(text)
	s.append(RoleUser, text)
	s.state = StateAwaitingResponse
	s.log.Info("submitting message", zap.Int("turns", len(s.turns)))

	if s.completer == nil || s.executor == nil {
		s.resolve("", errors.New("completion service not configured"))
		return true
	}

	completer := s.completer
	run := func(ctx context.Context) (string, error) {
		return completer.Complete(ctx, messages)
	}
	submitted := s.executor.Submit(ctx, run, func(reply string, err error) {
		s.post(func() { s.resolve(reply, err) })
	})
	if !submitted {
		s.resolve("", ErrBusy)
	}
	return true
}

// requestMessages builds role/content pairs for the prior transcript plus the
// new user text. Ids and timestamps stay local.
func (s *Session) requestMessages(text string) []llm.Message {
	out := make([]llm.Message, 0, len(s.turns)+1)
	for _, t := range s.turns {
		out = append(out, llm.Message{Role: string(t.Role), Content: t.Content})
	}
	return append(out, llm.Message{Role: llm.RoleUser, Content: text})
}

func (s *Session) resolve(reply string, err error) {
	if err != nil {
		s.log.Warn("completion failed", zap.Error(err))
		s.append(RoleAssistant, "Sorry, I encountered an error: "+err.Error())
	} else {
		s.append(RoleAssistant, reply)
	}
	s.state = StateIdle
}

func (s *Session) append(role Role, content string) {
	s.nextID++
	s.turns = append(s.turns, Turn{
		ID:        strconv.FormatUint(s.nextID, 10),
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	})
}

// ClampFontSize bounds px to [MinFontSize, MaxFontSize].
func ClampFontSize(px int) int {
	switch {
	case px == 0:
		return DefaultFontSize
	case px < MinFontSize:
		return MinFontSize
	case px > MaxFontSize:
		return MaxFontSize
	default:
		return px
	}
}
