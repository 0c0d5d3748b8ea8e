package region

import "sync"

// PointerKind identifies a pointer sample.
type PointerKind int

const (
	PointerPress PointerKind = iota
	PointerMove
	PointerRelease
)

func (k PointerKind) String() string {
	switch k {
	case PointerPress:
		return "press"
	case PointerMove:
		return "move"
	case PointerRelease:
		return "release"
	default:
		return "unknown"
	}
}

// PointerEvent is a single pointer sample in viewport coordinates.
type PointerEvent struct {
	Kind PointerKind
	Pos  Point
}

// PointerHandler receives pointer samples.
type PointerHandler func(PointerEvent)

// PointerSource delivers pointer samples to subscribers until they unsubscribe.
type PointerSource interface {
	Subscribe(h PointerHandler) (unsubscribe func())
}

// Hub is an in-process PointerSource. The desktop surface publishes into it
// and the selector subscribes only while armed.
type Hub struct {
	mu       sync.Mutex
	next     int
	handlers map[int]PointerHandler
}

func NewHub() *Hub {
	return &Hub{handlers: make(map[int]PointerHandler)}
}

func (h *Hub) Subscribe(fn PointerHandler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.handlers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.handlers, id)
			h.mu.Unlock()
		})
	}
}

// Publish delivers ev to every current subscriber. Handlers may unsubscribe
// from within the callback.
func (h *Hub) Publish(ev PointerEvent) {
	h.mu.Lock()
	ids := make([]int, 0, len(h.handlers))
	for id := range h.handlers {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	for _, id := range ids {
		h.mu.Lock()
		fn, ok := h.handlers[id]
		h.mu.Unlock()
		if ok {
			fn(ev)
		}
	}
}

// Subscribers returns the number of attached handlers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handlers)
}
