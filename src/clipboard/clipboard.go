package clipboard

import (
	"errors"
	"os"
	"runtime"
	"sync"

	"golang.design/x/clipboard"

	"region-chat/src/imagehost"
)

var (
	initOnce sync.Once
	initErr  error
	writeMu  sync.Mutex

	errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
)

// Init prepares the system clipboard. Repeated calls return the first result.
func Init() error {
	initOnce.Do(func() {
		if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			initErr = errNoDisplay
			return
		}
		initErr = clipboard.Init()
	})
	return initErr
}

// Items returns the clipboard contents as intake items. An image, when
// present, comes first as PNG; text is listed so callers can see it was
// offered and skip it.
func Items() ([]imagehost.Item, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	var items []imagehost.Item
	if data := clipboard.Read(clipboard.FmtImage); len(data) > 0 {
		items = append(items, imagehost.Item{
			Type: "image/png",
			Name: "clipboard.png",
			Read: func() ([]byte, error) { return data, nil },
		})
	}
	if text := clipboard.Read(clipboard.FmtText); len(text) > 0 {
		items = append(items, imagehost.Item{
			Type: "text/plain",
			Read: func() ([]byte, error) { return text, nil },
		})
	}
	return items, nil
}

// Write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func Write(text string) error {
	if err := Init(); err != nil {
		return err
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
