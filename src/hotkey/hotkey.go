package hotkey

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
	"go.uber.org/zap"
)

// Listen registers a global key combination such as "Ctrl+Alt+Q" and calls
// callback from the hook goroutine whenever every key in it is held. The
// returned stop function ends the hook.
func Listen(combo string, log *zap.Logger, callback func()) (stop func(), err error) {
	if log == nil {
		log = zap.NewNop()
	}
	m, err := newMatcher(combo)
	if err != nil {
		return nil, err
	}
	log.Info("hotkey listener configured", zap.String("combo", combo), zap.Strings("keys", m.names()))

	evChan := gohook.Start()
	if evChan == nil {
		return nil, fmt.Errorf("gohook.Start() returned nil channel")
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in hotkey goroutine", zap.Any("panic", r))
			}
		}()
		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown:
				if m.press(ev.Rawcode) {
					log.Info("hotkey activated", zap.String("combo", combo))
					if callback != nil {
						callback()
					}
				}
			case gohook.KeyUp:
				m.release(ev.Rawcode)
			}
		}
		log.Debug("hotkey event channel closed")
	}()

	var once sync.Once
	return func() { once.Do(gohook.End) }, nil
}

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// matcher tracks which keys of one combination are currently held.
type matcher struct {
	mu   sync.Mutex
	keys []keyState
}

func newMatcher(combo string) (*matcher, error) {
	m := &matcher{}
	for _, name := range parseHotkey(combo) {
		codes := keyNameToRawcodes(name)
		if len(codes) == 0 {
			return nil, fmt.Errorf("cannot map key %q in hotkey %q", name, combo)
		}
		m.keys = append(m.keys, keyState{name: name, rawcodes: codes})
	}
	if len(m.keys) == 0 {
		return nil, fmt.Errorf("no valid keys in hotkey %q", combo)
	}
	return m, nil
}

func (m *matcher) names() []string {
	out := make([]string, len(m.keys))
	for i, k := range m.keys {
		out[i] = k.name
	}
	return out
}

// press marks rawcode as held and reports whether the whole combination is
// now down. States reset after a match so holding the keys fires once.
func (m *matcher) press(rawcode uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(rawcode, true)
	for _, k := range m.keys {
		if !k.pressed {
			return false
		}
	}
	for i := range m.keys {
		m.keys[i].pressed = false
	}
	return true
}

func (m *matcher) release(rawcode uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(rawcode, false)
}

func (m *matcher) set(rawcode uint16, pressed bool) {
	for i := range m.keys {
		for _, rc := range m.keys[i].rawcodes {
			if rc == rawcode {
				m.keys[i].pressed = pressed
				break
			}
		}
	}
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			keys = append(keys, "ctrl")
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

var specialKeys = map[string][]uint16{
	// Modifier keys - both left and right variants
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"ins":       {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pgup":      {33},
	"pagedown":  {34},
	"pgdn":      {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

// keyNameToRawcodes maps a key name to its Windows virtual key codes.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if keyName == "win" || keyName == "super" {
		keyName = "cmd"
	}
	if codes, ok := specialKeys[keyName]; ok {
		return codes
	}

	if len(keyName) == 1 {
		c := keyName[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16('A') + uint16(c-'a')} // 0x41-0x5A
		case c >= '0' && c <= '9':
			return []uint16{uint16(c)} // 0x30-0x39
		}
	}

	// Function keys F1-F24: VK_F1 is 0x70
	if strings.HasPrefix(keyName, "f") {
		if n, err := strconv.Atoi(keyName[1:]); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)}
		}
	}
	return nil
}
