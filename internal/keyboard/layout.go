package keyboard

import (
	"fmt"
	"maps"
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// Layout maps a pressed key to what it types.
type Layout interface {
	Name() string
	Map(k KeyCode, m Modifiers) DecodedKey
}

type tableLayout struct {
	name string
	// keys holds the unshifted and shifted character of each printable key.
	keys map[KeyCode][2]rune
}

func (l *tableLayout) Name() string { return l.name }

func (l *tableLayout) Map(k KeyCode, m Modifiers) DecodedKey {
	switch k {
	case KeyEnter, KeyPadEnter:
		return runeKey('\n')
	case KeyBackspace:
		return runeKey('\b')
	case KeyTab:
		return runeKey('\t')
	case KeyEscape:
		return runeKey(0x1B)
	case KeySpace:
		return runeKey(' ')
	case KeyDelete:
		return runeKey(0x7F)
	case KeyPadMultiply:
		return runeKey('*')
	case KeyPadDivide:
		return runeKey('/')
	case KeyPadMinus:
		return runeKey('-')
	case KeyPadPlus:
		return runeKey('+')
	}
	if digit, nav, ok := keypad(k); ok {
		if m.NumLock {
			return runeKey(digit)
		}
		if nav == KeyDelete {
			return runeKey(0x7F)
		}
		return DecodedKey{Raw: nav}
	}

	pair, ok := l.keys[k]
	if !ok {
		return DecodedKey{Raw: k}
	}
	if unicode.IsLetter(pair[0]) {
		if m.Caps() {
			return runeKey(pair[1])
		}
		return runeKey(pair[0])
	}
	if m.Shifted() {
		return runeKey(pair[1])
	}
	return runeKey(pair[0])
}

func runeKey(r rune) DecodedKey {
	return DecodedKey{Rune: r, IsRune: true}
}

// keypad returns what a numeric keypad key types with NumLock on, and the
// navigation key it acts as with NumLock off.
func keypad(k KeyCode) (digit rune, nav KeyCode, ok bool) {
	switch k {
	case KeyPad7:
		return '7', KeyHome, true
	case KeyPad8:
		return '8', KeyArrowUp, true
	case KeyPad9:
		return '9', KeyPageUp, true
	case KeyPad4:
		return '4', KeyArrowLeft, true
	case KeyPad5:
		return '5', KeyPad5, true
	case KeyPad6:
		return '6', KeyArrowRight, true
	case KeyPad1:
		return '1', KeyEnd, true
	case KeyPad2:
		return '2', KeyArrowDown, true
	case KeyPad3:
		return '3', KeyPageDown, true
	case KeyPad0:
		return '0', KeyInsert, true
	case KeyPadPeriod:
		return '.', KeyDelete, true
	}
	return 0, KeyNone, false
}

var us104Keys = map[KeyCode][2]rune{
	Key1: {'1', '!'}, Key2: {'2', '@'}, Key3: {'3', '#'}, Key4: {'4', '$'},
	Key5: {'5', '%'}, Key6: {'6', '^'}, Key7: {'7', '&'}, Key8: {'8', '*'},
	Key9: {'9', '('}, Key0: {'0', ')'},
	KeyMinus: {'-', '_'}, KeyEquals: {'=', '+'},
	KeyBracketLeft: {'[', '{'}, KeyBracketRight: {']', '}'},
	KeySemicolon: {';', ':'}, KeyQuote: {'\'', '"'}, KeyBacktick: {'`', '~'},
	KeyBackslash: {'\\', '|'}, KeyOem102: {'\\', '|'},
	KeyComma: {',', '<'}, KeyPeriod: {'.', '>'}, KeySlash: {'/', '?'},
	KeyQ: {'q', 'Q'}, KeyW: {'w', 'W'}, KeyE: {'e', 'E'}, KeyR: {'r', 'R'},
	KeyT: {'t', 'T'}, KeyY: {'y', 'Y'}, KeyU: {'u', 'U'}, KeyI: {'i', 'I'},
	KeyO: {'o', 'O'}, KeyP: {'p', 'P'},
	KeyA: {'a', 'A'}, KeyS: {'s', 'S'}, KeyD: {'d', 'D'}, KeyF: {'f', 'F'},
	KeyG: {'g', 'G'}, KeyH: {'h', 'H'}, KeyJ: {'j', 'J'}, KeyK: {'k', 'K'},
	KeyL: {'l', 'L'},
	KeyZ: {'z', 'Z'}, KeyX: {'x', 'X'}, KeyC: {'c', 'C'}, KeyV: {'v', 'V'},
	KeyB: {'b', 'B'}, KeyN: {'n', 'N'}, KeyM: {'m', 'M'},
}

func ukKeys() map[KeyCode][2]rune {
	keys := maps.Clone(us104Keys)
	keys[Key2] = [2]rune{'2', '"'}
	keys[Key3] = [2]rune{'3', '£'}
	keys[KeyQuote] = [2]rune{'\'', '@'}
	keys[KeyBacktick] = [2]rune{'`', '¬'}
	keys[KeyBackslash] = [2]rune{'#', '~'}
	return keys
}

var (
	// US104 is the US ANSI 104-key layout.
	US104 Layout = &tableLayout{name: "us104", keys: us104Keys}
	// UK105 is the UK ISO 105-key layout.
	UK105 Layout = &tableLayout{name: "uk105", keys: ukKeys()}
)

var (
	layoutTags    = []language.Tag{language.AmericanEnglish, language.BritishEnglish}
	layoutsByTag  = []Layout{US104, UK105}
	layoutMatcher = language.NewMatcher(layoutTags)
)

// LayoutFor resolves a layout by name ("us104", "uk105") or by BCP 47
// language tag ("en-US", "en-GB"). Tags with no close match fall back to US104.
func LayoutFor(name string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "us104":
		return US104, nil
	case "uk105":
		return UK105, nil
	}
	tag, err := language.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("keyboard: layout %q: %w", name, err)
	}
	_, idx, _ := layoutMatcher.Match(tag)
	return layoutsByTag[idx], nil
}
