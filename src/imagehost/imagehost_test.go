package imagehost

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"region-chat/src/region"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoadReportsOncePerImage(t *testing.T) {
	var calls []region.Size
	h := New(nil, func(display, intrinsic region.Size) {
		calls = append(calls, display)
	})

	viewport := region.Size{Width: 1280, Height: 800}
	img, err := h.Load(pngBytes(t, 64, 32), "image/png", viewport)
	require.NoError(t, err)
	assert.Equal(t, viewport, img.Display)
	assert.Equal(t, region.Size{Width: 64, Height: 32}, img.Intrinsic)
	assert.Len(t, calls, 1)

	_, err = h.Load(pngBytes(t, 10, 10), "image/png", viewport)
	require.NoError(t, err)
	assert.Len(t, calls, 2)
	assert.Equal(t, region.Size{Width: 10, Height: 10}, h.Current().Intrinsic)
}

func TestLoadWithoutViewportFallsBackToIntrinsic(t *testing.T) {
	h := New(nil, nil)
	img, err := h.Load(pngBytes(t, 40, 30), "image/png", region.Size{})
	require.NoError(t, err)
	assert.Equal(t, region.Size{Width: 40, Height: 30}, img.Display)
}

func TestLoadRejectsGarbage(t *testing.T) {
	called := false
	h := New(nil, func(region.Size, region.Size) { called = true })

	_, err := h.Load([]byte("definitely not an image"), "image/png", region.Size{})
	require.Error(t, err)

	_, err = h.Load(nil, "image/png", region.Size{})
	assert.ErrorIs(t, err, ErrNoImage)

	assert.False(t, called)
	assert.Nil(t, h.Current())
}

func TestFirstImage(t *testing.T) {
	items := []Item{
		{Type: "text/plain"},
		{Type: "image/png", Name: "first"},
		{Type: "image/jpeg", Name: "second"},
	}
	it, ok := FirstImage(items)
	require.True(t, ok)
	assert.Equal(t, "first", it.Name)

	_, ok = FirstImage([]Item{{Type: "text/html"}, {Type: ""}})
	assert.False(t, ok)
}

func TestLoadItemPropagatesReadErrors(t *testing.T) {
	h := New(nil, nil)
	boom := errors.New("boom")
	_, err := h.LoadItem(Item{Type: "image/png", Read: func() ([]byte, error) { return nil, boom }}, region.Size{})
	assert.ErrorIs(t, err, boom)

	_, err = h.LoadItem(Item{Type: "image/png"}, region.Size{})
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestClear(t *testing.T) {
	h := New(nil, nil)
	_, err := h.Load(pngBytes(t, 4, 4), "image/png", region.Size{})
	require.NoError(t, err)
	h.Clear()
	assert.Nil(t, h.Current())
}
