package keyboard

import (
	"errors"
	"fmt"
)

// ErrUnmappable is returned by Encode for a rune the layout cannot type.
var ErrUnmappable = errors.New("keyboard: rune not on layout")

type stroke struct {
	key   KeyCode
	shift bool
}

// Encoder turns text into the Set 1 scancodes that type it on a layout.
type Encoder struct {
	layout  Layout
	strokes map[rune]stroke
}

// NewEncoder builds the reverse table of layout. Main-block keys win over
// keypad keys that type the same character.
func NewEncoder(layout Layout) *Encoder {
	if layout == nil {
		layout = US104
	}
	e := &Encoder{layout: layout, strokes: make(map[rune]stroke)}
	for _, pad := range []bool{false, true} {
		for _, shift := range []bool{false, true} {
			e.addStrokes(pad, shift)
		}
	}
	return e
}

func (e *Encoder) addStrokes(pad, shift bool) {
	mods := Modifiers{LeftShift: shift, NumLock: true}
	for k := KeyEscape; k < keyCodeCount; k++ {
		if isKeypad(k) != pad {
			continue
		}
		dk := e.layout.Map(k, mods)
		if !dk.IsRune {
			continue
		}
		if _, ok := e.strokes[dk.Rune]; !ok {
			e.strokes[dk.Rune] = stroke{key: k, shift: shift}
		}
	}
}

func isKeypad(k KeyCode) bool {
	switch k {
	case KeyPadMultiply, KeyPadEnter, KeyPadDivide:
		return true
	}
	return k >= KeyPad7 && k <= KeyPadPeriod
}

// Layout returns the layout the encoder types on.
func (e *Encoder) Layout() Layout {
	return e.layout
}

// Encode returns the make and break codes that type r, wrapped in a left
// shift press when needed.
func (e *Encoder) Encode(r rune) ([]uint8, error) {
	st, ok := e.strokes[r]
	if !ok {
		return nil, fmt.Errorf("%w: %q on %s", ErrUnmappable, r, e.layout.Name())
	}
	return e.AppendKey(nil, st.key, st.shift), nil
}

// AppendKey appends a press and release of k to dst.
func (e *Encoder) AppendKey(dst []uint8, k KeyCode, shift bool) []uint8 {
	code, extended, ok := MakeCode(k)
	if !ok {
		return dst
	}
	if shift {
		dst = append(dst, fakeLeftShift)
	}
	if extended {
		dst = append(dst, prefixExtended)
	}
	dst = append(dst, code)
	if extended {
		dst = append(dst, prefixExtended)
	}
	dst = append(dst, code|releaseBit)
	if shift {
		dst = append(dst, fakeLeftShift|releaseBit)
	}
	return dst
}
