package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drag(hub *Hub, from, to Point) {
	hub.Publish(PointerEvent{Kind: PointerPress, Pos: from})
	hub.Publish(PointerEvent{Kind: PointerMove, Pos: Point{X: (from.X + to.X) / 2, Y: (from.Y + to.Y) / 2}})
	hub.Publish(PointerEvent{Kind: PointerMove, Pos: to})
	hub.Publish(PointerEvent{Kind: PointerRelease, Pos: to})
}

func TestSelectorEmitsNormalizedRect(t *testing.T) {
	tests := []struct {
		name     string
		from, to Point
		want     Rect
	}{
		{"down-right", Point{100, 100}, Point{300, 250}, Rect{X: 100, Y: 100, Width: 200, Height: 150}},
		{"up-left", Point{300, 250}, Point{100, 100}, Rect{X: 100, Y: 100, Width: 200, Height: 150}},
		{"up-right", Point{10, 90}, Point{50, 40}, Rect{X: 10, Y: 40, Width: 40, Height: 50}},
		{"just over threshold", Point{0, 0}, Point{21, 21}, Rect{X: 0, Y: 0, Width: 21, Height: 21}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub()
			s := NewSelector()
			var got []Rect
			s.Begin(hub, func(r Rect) { got = append(got, r) }, nil)

			drag(hub, tt.from, tt.to)

			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
			assert.False(t, s.Armed())
			assert.Zero(t, hub.Subscribers())
		})
	}
}

func TestSelectorDiscardsSmallDrags(t *testing.T) {
	tests := []struct {
		name     string
		from, to Point
	}{
		{"click", Point{50, 50}, Point{50, 50}},
		{"narrow", Point{0, 0}, Point{20, 200}},
		{"short", Point{0, 0}, Point{200, 20}},
		{"both at threshold", Point{100, 100}, Point{80, 80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub()
			s := NewSelector()
			emitted := false
			discarded := false
			s.Begin(hub, func(Rect) { emitted = true }, func() { discarded = true })

			drag(hub, tt.from, tt.to)

			assert.False(t, emitted)
			assert.True(t, discarded)
			assert.False(t, s.Armed())
			assert.Zero(t, hub.Subscribers())
		})
	}
}

func TestSelectorLiveRect(t *testing.T) {
	hub := NewHub()
	s := NewSelector()

	_, ok := s.Live()
	assert.False(t, ok, "disarmed selector has no live rect")

	s.Begin(hub, nil, nil)
	hub.Publish(PointerEvent{Kind: PointerMove, Pos: Point{5, 5}})
	_, ok = s.Live()
	assert.False(t, ok, "moves before a press are ignored")

	hub.Publish(PointerEvent{Kind: PointerPress, Pos: Point{40, 40}})
	hub.Publish(PointerEvent{Kind: PointerMove, Pos: Point{10, 70}})
	live, ok := s.Live()
	require.True(t, ok)
	assert.Equal(t, Rect{X: 10, Y: 40, Width: 30, Height: 30}, live)
}

func TestSelectorDetachesAcrossRearming(t *testing.T) {
	hub := NewHub()
	s := NewSelector()

	for i := 0; i < 5; i++ {
		s.Begin(hub, nil, nil)
		assert.Equal(t, 1, hub.Subscribers())
	}
	s.Cancel()
	assert.Zero(t, hub.Subscribers())

	emitted := false
	s.Begin(hub, func(Rect) { emitted = true }, nil)
	s.Cancel()
	drag(hub, Point{0, 0}, Point{200, 200})
	assert.False(t, emitted, "cancelled selector must not emit")
}

func TestReleaseWithoutPressIsIgnored(t *testing.T) {
	hub := NewHub()
	s := NewSelector()
	emitted := false
	s.Begin(hub, func(Rect) { emitted = true }, nil)

	hub.Publish(PointerEvent{Kind: PointerRelease, Pos: Point{300, 300}})

	assert.False(t, emitted)
	assert.True(t, s.Armed())
}

func TestSpan(t *testing.T) {
	r := Span(Point{X: 7, Y: -3}, Point{X: -3, Y: 7})
	assert.Equal(t, Rect{X: -3, Y: -3, Width: 10, Height: 10}, r)
	assert.False(t, r.Valid())
	assert.Equal(t, "10x10+-3+-3", r.String())
}
