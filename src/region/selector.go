package region

// Selector tracks one drag gesture at a time. It is not safe for concurrent
// use; the event loop owns it.
type Selector struct {
	unsubscribe func()
	onComplete  func(Rect)
	onDiscard   func()

	pressed bool
	start   Point
	current Point
}

func NewSelector() *Selector {
	return &Selector{}
}

// Begin arms the selector on src. onComplete receives a valid rectangle on
// release; onDiscard runs when a too-small drag is dropped. Either may be nil.
// Calling Begin while armed restarts tracking with the new callbacks.
func (s *Selector) Begin(src PointerSource, onComplete func(Rect), onDiscard func()) {
	s.disarm()
	s.onComplete = onComplete
	s.onDiscard = onDiscard
	s.unsubscribe = src.Subscribe(s.handle)
}

// Armed reports whether the selector is subscribed to pointer samples.
func (s *Selector) Armed() bool {
	return s.unsubscribe != nil
}

// Live returns the rectangle being dragged, if a press has been seen.
func (s *Selector) Live() (Rect, bool) {
	if !s.Armed() || !s.pressed {
		return Rect{}, false
	}
	return Span(s.start, s.current), true
}

// Cancel disarms without emitting.
func (s *Selector) Cancel() {
	s.disarm()
}

func (s *Selector) handle(ev PointerEvent) {
	switch ev.Kind {
	case PointerPress:
		s.pressed = true
		s.start = ev.Pos
		s.current = ev.Pos
	case PointerMove:
		if s.pressed {
			s.current = ev.Pos
		}
	case PointerRelease:
		if !s.pressed {
			return
		}
		rect := Span(s.start, ev.Pos)
		complete, discard := s.onComplete, s.onDiscard
		s.disarm()
		if rect.Valid() {
			if complete != nil {
				complete(rect)
			}
			return
		}
		if discard != nil {
			discard()
		}
	}
}

func (s *Selector) disarm() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.onComplete = nil
	s.onDiscard = nil
	s.pressed = false
	s.start = Point{}
	s.current = Point{}
}
