package imagehost

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	// Decoders beyond the ones imaging registers.
	_ "golang.org/x/image/webp"

	"region-chat/src/region"
)

var ErrNoImage = errors.New("no image data")

// Image is the single decoded image owned by a Host.
type Image struct {
	Data      []byte
	MIME      string
	Decoded   image.Image
	Display   region.Size
	Intrinsic region.Size
}

// Item is one candidate from a clipboard paste, file pick or drop.
type Item struct {
	Type string
	Name string
	Read func() ([]byte, error)
}

// IsImage reports whether the declared type is a raster image.
func (it Item) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(it.Type)), "image/")
}

// FirstImage returns the first item whose declared type indicates an image.
func FirstImage(items []Item) (Item, bool) {
	for _, it := range items {
		if it.IsImage() {
			return it, true
		}
	}
	return Item{}, false
}

// DimensionsFunc is invoked exactly once per image change.
type DimensionsFunc func(display, intrinsic region.Size)

// Host holds the current image. Not safe for concurrent use.
type Host struct {
	log      *zap.Logger
	current  *Image
	onChange DimensionsFunc
}

func New(log *zap.Logger, onChange DimensionsFunc) *Host {
	if log == nil {
		log = zap.NewNop()
	}
	return &Host{log: log, onChange: onChange}
}

// Load decodes data and replaces the current image wholesale. Display
// dimensions are the viewport the image is stretched over.
func (h *Host) Load(data []byte, mime string, viewport region.Size) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	intrinsic := region.Size{Width: b.Dx(), Height: b.Dy()}
	display := viewport
	if display.Width <= 0 || display.Height <= 0 {
		display = intrinsic
	}

	h.current = &Image{
		Data:      data,
		MIME:      mime,
		Decoded:   img,
		Display:   display,
		Intrinsic: intrinsic,
	}
	h.log.Debug("image loaded",
		zap.String("mime", mime),
		zap.Int("bytes", len(data)),
		zap.Int("width", intrinsic.Width),
		zap.Int("height", intrinsic.Height))

	if h.onChange != nil {
		h.onChange(display, intrinsic)
	}
	return h.current, nil
}

// LoadItem reads and loads a single intake item.
func (h *Host) LoadItem(it Item, viewport region.Size) (*Image, error) {
	if it.Read == nil {
		return nil, ErrNoImage
	}
	data, err := it.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", it.Type, err)
	}
	return h.Load(data, it.Type, viewport)
}

func (h *Host) Current() *Image { return h.current }

func (h *Host) Clear() { h.current = nil }
