// Package hotkey turns the global keydown stream into named trigger events.
// Several combos (region, window, repeat-last) share one gohook listener.
package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	gohook "github.com/robotn/gohook"
)

// debounceInterval suppresses auto-repeat retriggers while a combo is held.
const debounceInterval = 300 * time.Millisecond

// Event identifies which registered combo fired.
type Event struct {
	ID    string
	Combo string
}

// Listener tracks key state for every registered combo over a single
// gohook event stream.
type Listener struct {
	mu      sync.Mutex
	combos  []*combo
	events  chan Event
	started bool
	now     func() time.Time
}

type combo struct {
	id        string
	label     string
	keys      []comboKey
	lastFired time.Time
}

type comboKey struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

func NewListener() *Listener {
	return &Listener{
		events: make(chan Event, 8),
		now:    time.Now,
	}
}

// Register parses a combo like "Ctrl+Alt+S" and binds it to id. It must be
// called before Start.
func (l *Listener) Register(comboStr, id string) error {
	names := parseHotkey(comboStr)
	if len(names) == 0 {
		return fmt.Errorf("empty hotkey %q", comboStr)
	}

	c := &combo{id: id, label: comboStr}
	for _, name := range names {
		rawcodes := keyNameToRawcodes(name)
		if len(rawcodes) == 0 {
			return fmt.Errorf("unknown key %q in hotkey %q", name, comboStr)
		}
		c.keys = append(c.keys, comboKey{name: name, rawcodes: rawcodes})
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return errors.New("cannot register hotkeys after Start")
	}
	for _, existing := range l.combos {
		if existing.id == id {
			return fmt.Errorf("hotkey id %q already registered", id)
		}
	}
	l.combos = append(l.combos, c)
	log.Printf("Hotkey: registered %s as %q", comboStr, id)
	return nil
}

// Events delivers one Event per combo activation.
func (l *Listener) Events() <-chan Event { return l.events }

// Start begins consuming the global key stream. It returns immediately;
// events flow until ctx is cancelled or Stop is called.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return errors.New("hotkey listener already started")
	}
	if len(l.combos) == 0 {
		l.mu.Unlock()
		return errors.New("no hotkeys registered")
	}
	l.started = true
	l.mu.Unlock()

	evChan := gohook.Start()
	if evChan == nil {
		return errors.New("gohook.Start returned nil channel")
	}
	log.Printf("Hotkey: listening for %d combos", len(l.combos))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Hotkey: PANIC in listener goroutine: %v", r)
			}
		}()
		<-ctx.Done()
		gohook.End()
	}()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Hotkey: PANIC in event goroutine: %v", r)
			}
		}()
		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown:
				l.keyDown(ev.Rawcode)
			case gohook.KeyUp:
				l.keyUp(ev.Rawcode)
			}
		}
		log.Printf("Hotkey: event channel closed")
	}()

	return nil
}

// Stop ends the global hook. Safe to call once after Start.
func (l *Listener) Stop() {
	gohook.End()
}

func (l *Listener) keyDown(rawcode uint16) {
	l.mu.Lock()
	var fired []*combo
	for _, c := range l.combos {
		if !c.mark(rawcode, true) {
			continue
		}
		if !c.allPressed() {
			continue
		}
		now := l.now()
		if now.Sub(c.lastFired) < debounceInterval {
			continue
		}
		c.lastFired = now
		c.resetPressed()
		fired = append(fired, c)
	}
	l.mu.Unlock()

	for _, c := range fired {
		log.Printf("Hotkey: %s fired (%s)", c.label, c.id)
		select {
		case l.events <- Event{ID: c.id, Combo: c.label}:
		default:
			log.Printf("Hotkey: event queue full, dropping %s", c.label)
		}
	}
}

func (l *Listener) keyUp(rawcode uint16) {
	l.mu.Lock()
	for _, c := range l.combos {
		c.mark(rawcode, false)
	}
	l.mu.Unlock()
}

// mark updates the pressed state of any key matching rawcode and reports
// whether the combo tracks that rawcode at all.
func (c *combo) mark(rawcode uint16, pressed bool) bool {
	matched := false
	for i := range c.keys {
		for _, rc := range c.keys[i].rawcodes {
			if rc == rawcode {
				c.keys[i].pressed = pressed
				matched = true
				break
			}
		}
	}
	return matched
}

func (c *combo) allPressed() bool {
	for i := range c.keys {
		if !c.keys[i].pressed {
			return false
		}
	}
	return true
}

func (c *combo) resetPressed() {
	for i := range c.keys {
		c.keys[i].pressed = false
	}
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+s" to normalized key names.
func parseHotkey(hotkeyConfig string) []string {
	parts := strings.Split(strings.ToLower(hotkeyConfig), "+")
	var keys []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch part {
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

// keyNameToRawcodes maps a key name to its Windows virtual key code rawcodes.
// Modifiers return both left and right variants.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))

	switch keyName {
	case "ctrl":
		return []uint16{162, 163} // VK_LCONTROL, VK_RCONTROL
	case "alt":
		return []uint16{164, 165} // VK_LMENU, VK_RMENU
	case "shift":
		return []uint16{160, 161} // VK_LSHIFT, VK_RSHIFT
	case "win", "cmd", "super":
		return []uint16{91, 92} // VK_LWIN, VK_RWIN
	case "space":
		return []uint16{32} // VK_SPACE
	case "enter", "return":
		return []uint16{13} // VK_RETURN
	case "esc", "escape":
		return []uint16{27} // VK_ESCAPE
	case "tab":
		return []uint16{9} // VK_TAB
	case "backspace":
		return []uint16{8} // VK_BACK
	case "delete", "del":
		return []uint16{46} // VK_DELETE
	case "insert", "ins":
		return []uint16{45} // VK_INSERT
	case "home":
		return []uint16{36} // VK_HOME
	case "end":
		return []uint16{35} // VK_END
	case "pageup", "pgup":
		return []uint16{33} // VK_PRIOR
	case "pagedown", "pgdn":
		return []uint16{34} // VK_NEXT
	case "left":
		return []uint16{37} // VK_LEFT
	case "up":
		return []uint16{38} // VK_UP
	case "right":
		return []uint16{39} // VK_RIGHT
	case "down":
		return []uint16{40} // VK_DOWN
	case "printscreen", "prtsc":
		return []uint16{44} // VK_SNAPSHOT
	}

	// Letters A-Z sit at 0x41-0x5A, digits 0-9 at 0x30-0x39.
	if len(keyName) == 1 {
		c := keyName[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c - 'a' + 'A')}
		case c >= '0' && c <= '9':
			return []uint16{uint16(c)}
		}
	}

	// Function keys F1-F24 start at VK_F1 = 112.
	if strings.HasPrefix(keyName, "f") && len(keyName) > 1 {
		n := 0
		for _, r := range keyName[1:] {
			if r < '0' || r > '9' {
				n = 0
				break
			}
			n = n*10 + int(r-'0')
		}
		if n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)}
		}
	}

	log.Printf("Hotkey: unknown key name %q", keyName)
	return nil
}
