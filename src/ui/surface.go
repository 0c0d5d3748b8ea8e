package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"region-chat/src/imagehost"
	"region-chat/src/messages"
	"region-chat/src/region"
)

var (
	selectionStroke = color.NRGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	selectionFill   = color.NRGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0x22}
)

// surface shows the current image stretched to the viewport and turns mouse
// input into pointer messages. It never interprets the drag itself.
type surface struct {
	widget.BaseWidget

	post func(messages.Message)

	image   *canvas.Image
	current *imagehost.Image
	outline *canvas.Rectangle

	pressed bool
	last    region.Point
	size    fyne.Size
}

var (
	_ desktop.Mouseable = (*surface)(nil)
	_ fyne.Draggable    = (*surface)(nil)
)

func newSurface(post func(messages.Message)) *surface {
	s := &surface{
		post:    post,
		image:   canvas.NewImageFromImage(nil),
		outline: canvas.NewRectangle(selectionFill),
	}
	s.image.FillMode = canvas.ImageFillStretch
	s.image.ScaleMode = canvas.ImageScaleSmooth
	s.outline.StrokeColor = selectionStroke
	s.outline.StrokeWidth = 1.5
	s.outline.Hide()
	s.ExtendBaseWidget(s)
	return s
}

func (s *surface) CreateRenderer() fyne.WidgetRenderer {
	return &surfaceRenderer{s: s}
}

// viewport is the current display size in whole units.
func (s *surface) viewport() region.Size {
	sz := s.Size()
	return region.Size{Width: int(sz.Width), Height: int(sz.Height)}
}

func (s *surface) setImage(img *imagehost.Image) {
	if img == s.current {
		return
	}
	s.current = img
	if img == nil {
		s.image.Image = nil
	} else {
		s.image.Image = img.Decoded
	}
	s.image.Refresh()
}

// setRect outlines r, or hides the outline when show is false.
func (s *surface) setRect(r region.Rect, show bool) {
	if !show || r.Empty() {
		s.outline.Hide()
		return
	}
	s.outline.Move(fyne.NewPos(float32(r.X), float32(r.Y)))
	s.outline.Resize(fyne.NewSize(float32(r.Width), float32(r.Height)))
	s.outline.Show()
	s.outline.Refresh()
}

func (s *surface) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	s.pressed = true
	s.emit(region.PointerPress, ev.Position)
}

func (s *surface) MouseUp(ev *desktop.MouseEvent) {
	s.release(ev.Position)
}

func (s *surface) Dragged(ev *fyne.DragEvent) {
	if !s.pressed {
		return
	}
	s.emit(region.PointerMove, ev.Position)
}

func (s *surface) DragEnd() {
	s.release(fyne.NewPos(float32(s.last.X), float32(s.last.Y)))
}

// release is reached from both MouseUp and DragEnd; only the first counts.
func (s *surface) release(pos fyne.Position) {
	if !s.pressed {
		return
	}
	s.pressed = false
	s.emit(region.PointerRelease, pos)
}

func (s *surface) emit(kind region.PointerKind, pos fyne.Position) {
	p := region.Point{X: int(pos.X), Y: int(pos.Y)}
	s.last = p
	s.post(messages.Pointer{Event: region.PointerEvent{Kind: kind, Pos: p}})
}

type surfaceRenderer struct {
	s *surface
}

func (r *surfaceRenderer) Layout(size fyne.Size) {
	r.s.image.Move(fyne.NewPos(0, 0))
	r.s.image.Resize(size)
	if size != r.s.size {
		r.s.size = size
		r.s.post(messages.ViewportChanged{Viewport: region.Size{Width: int(size.Width), Height: int(size.Height)}})
	}
}

func (r *surfaceRenderer) MinSize() fyne.Size { return fyne.NewSize(320, 240) }

func (r *surfaceRenderer) Refresh() {
	canvas.Refresh(r.s.image)
	canvas.Refresh(r.s.outline)
}

func (r *surfaceRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.s.image, r.s.outline}
}

func (r *surfaceRenderer) Destroy() {}
