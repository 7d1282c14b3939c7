package keyboard

import (
	"errors"
	"fmt"
)

// ErrUnknownScancode is returned for a byte that maps to no key.
var ErrUnknownScancode = errors.New("keyboard: unknown scancode")

const (
	prefixExtended = 0xE0
	releaseBit     = 0x80
	// The controller wraps some extended keys (Print Screen, the navigation
	// cluster with NumLock on) in fake shift presses.
	fakeLeftShift  = 0x2A
	fakeRightShift = 0x36
)

// KeyState says whether a key went down or up.
type KeyState uint8

const (
	KeyDown KeyState = iota
	KeyUp
)

// KeyEvent is one press or release of a physical key.
type KeyEvent struct {
	Code  KeyCode
	State KeyState
}

// Modifiers is the modifier state a layout maps keys under.
type Modifiers struct {
	LeftShift  bool
	RightShift bool
	LeftCtrl   bool
	RightCtrl  bool
	AltGr      bool
	CapsLock   bool
	NumLock    bool
}

// Shifted reports whether either shift key is held.
func (m Modifiers) Shifted() bool {
	return m.LeftShift || m.RightShift
}

// Caps reports whether letters should be upper case.
func (m Modifiers) Caps() bool {
	return m.Shifted() != m.CapsLock
}

// DecodedKey is either a character or a key with no character.
type DecodedKey struct {
	Rune   rune
	Raw    KeyCode
	IsRune bool
}

// String returns the character, or the key name for non-character keys.
func (k DecodedKey) String() string {
	if k.IsRune {
		return string(k.Rune)
	}
	return k.Raw.String()
}

// Decoder turns a Scancode Set 1 byte stream into decoded keys.
// Control combinations are not translated: Ctrl+C decodes as 'c'.
type Decoder struct {
	layout   Layout
	extended bool
	mods     Modifiers
}

// NewDecoder returns a decoder for the given layout with NumLock on.
func NewDecoder(layout Layout) *Decoder {
	if layout == nil {
		layout = US104
	}
	return &Decoder{
		layout: layout,
		mods:   Modifiers{NumLock: true},
	}
}

// Modifiers returns the current modifier state.
func (d *Decoder) Modifiers() Modifiers {
	return d.mods
}

// AddByte feeds one scancode byte. ok is false when the byte only advanced the
// decoder's state (a prefix or a fake shift).
func (d *Decoder) AddByte(b uint8) (ev KeyEvent, ok bool, err error) {
	if b == prefixExtended {
		d.extended = true
		return KeyEvent{}, false, nil
	}
	extended := d.extended
	d.extended = false

	state := KeyDown
	if b&releaseBit != 0 {
		state = KeyUp
	}
	code := b &^ releaseBit

	var key KeyCode
	if extended {
		if code == fakeLeftShift || code == fakeRightShift {
			return KeyEvent{}, false, nil
		}
		key = set1Extended[code]
	} else {
		key = set1[code]
	}
	if key == KeyNone {
		if extended {
			return KeyEvent{}, false, fmt.Errorf("%w: 0xe0 %#02x", ErrUnknownScancode, b)
		}
		return KeyEvent{}, false, fmt.Errorf("%w: %#02x", ErrUnknownScancode, b)
	}
	return KeyEvent{Code: key, State: state}, true, nil
}

// ProcessKeyEvent updates modifier state and maps key presses through the
// layout. ok is false for releases and for modifier keys.
func (d *Decoder) ProcessKeyEvent(ev KeyEvent) (DecodedKey, bool) {
	down := ev.State == KeyDown
	switch ev.Code {
	case KeyLeftShift:
		d.mods.LeftShift = down
		return DecodedKey{}, false
	case KeyRightShift:
		d.mods.RightShift = down
		return DecodedKey{}, false
	case KeyLeftCtrl:
		d.mods.LeftCtrl = down
		return DecodedKey{}, false
	case KeyRightCtrl:
		d.mods.RightCtrl = down
		return DecodedKey{}, false
	case KeyAltGr:
		d.mods.AltGr = down
		return DecodedKey{}, false
	case KeyCapsLock:
		if down {
			d.mods.CapsLock = !d.mods.CapsLock
		}
		return DecodedKey{}, false
	case KeyNumLock:
		if down {
			d.mods.NumLock = !d.mods.NumLock
		}
		return DecodedKey{}, false
	}
	if !down {
		return DecodedKey{}, false
	}
	return d.layout.Map(ev.Code, d.mods), true
}

// Feed is AddByte followed by ProcessKeyEvent.
func (d *Decoder) Feed(b uint8) (DecodedKey, bool, error) {
	ev, ok, err := d.AddByte(b)
	if err != nil || !ok {
		return DecodedKey{}, false, err
	}
	key, ok := d.ProcessKeyEvent(ev)
	return key, ok, nil
}
