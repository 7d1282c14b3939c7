package keyboard

// KeyCode identifies a physical key independent of layout.
type KeyCode uint8

const (
	KeyNone KeyCode = iota
	KeyEscape
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	Key0
	KeyMinus
	KeyEquals
	KeyBackspace
	KeyTab
	KeyQ
	KeyW
	KeyE
	KeyR
	KeyT
	KeyY
	KeyU
	KeyI
	KeyO
	KeyP
	KeyBracketLeft
	KeyBracketRight
	KeyEnter
	KeyLeftCtrl
	KeyA
	KeyS
	KeyD
	KeyF
	KeyG
	KeyH
	KeyJ
	KeyK
	KeyL
	KeySemicolon
	KeyQuote
	KeyBacktick
	KeyLeftShift
	KeyBackslash
	KeyZ
	KeyX
	KeyC
	KeyV
	KeyB
	KeyN
	KeyM
	KeyComma
	KeyPeriod
	KeySlash
	KeyRightShift
	KeyPadMultiply
	KeyLeftAlt
	KeySpace
	KeyCapsLock
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyNumLock
	KeyScrollLock
	KeyPad7
	KeyPad8
	KeyPad9
	KeyPadMinus
	KeyPad4
	KeyPad5
	KeyPad6
	KeyPadPlus
	KeyPad1
	KeyPad2
	KeyPad3
	KeyPad0
	KeyPadPeriod
	KeyOem102 // extra key left of Z on ISO boards
	KeyF11
	KeyF12
	// extended (0xE0-prefixed) keys
	KeyPadEnter
	KeyRightCtrl
	KeyPadDivide
	KeyAltGr
	KeyHome
	KeyArrowUp
	KeyPageUp
	KeyArrowLeft
	KeyArrowRight
	KeyEnd
	KeyArrowDown
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyLeftWin
	KeyRightWin
	KeyApps
	keyCodeCount
)

var keyNames = [keyCodeCount]string{
	KeyNone: "None", KeyEscape: "Escape",
	Key1: "Key1", Key2: "Key2", Key3: "Key3", Key4: "Key4", Key5: "Key5",
	Key6: "Key6", Key7: "Key7", Key8: "Key8", Key9: "Key9", Key0: "Key0",
	KeyMinus: "Minus", KeyEquals: "Equals", KeyBackspace: "Backspace", KeyTab: "Tab",
	KeyQ: "Q", KeyW: "W", KeyE: "E", KeyR: "R", KeyT: "T", KeyY: "Y", KeyU: "U",
	KeyI: "I", KeyO: "O", KeyP: "P",
	KeyBracketLeft: "BracketSquareLeft", KeyBracketRight: "BracketSquareRight",
	KeyEnter: "Enter", KeyLeftCtrl: "LControl",
	KeyA: "A", KeyS: "S", KeyD: "D", KeyF: "F", KeyG: "G", KeyH: "H", KeyJ: "J",
	KeyK: "K", KeyL: "L",
	KeySemicolon: "SemiColon", KeyQuote: "Quote", KeyBacktick: "BackTick",
	KeyLeftShift: "LShift", KeyBackslash: "BackSlash",
	KeyZ: "Z", KeyX: "X", KeyC: "C", KeyV: "V", KeyB: "B", KeyN: "N", KeyM: "M",
	KeyComma: "Comma", KeyPeriod: "Fullstop", KeySlash: "Slash",
	KeyRightShift: "RShift", KeyPadMultiply: "NumpadMultiply", KeyLeftAlt: "LAlt",
	KeySpace: "Spacebar", KeyCapsLock: "CapsLock",
	KeyF1: "F1", KeyF2: "F2", KeyF3: "F3", KeyF4: "F4", KeyF5: "F5", KeyF6: "F6",
	KeyF7: "F7", KeyF8: "F8", KeyF9: "F9", KeyF10: "F10", KeyF11: "F11", KeyF12: "F12",
	KeyNumLock: "NumpadLock", KeyScrollLock: "ScrollLock",
	KeyPad7: "Numpad7", KeyPad8: "Numpad8", KeyPad9: "Numpad9", KeyPadMinus: "NumpadSubtract",
	KeyPad4: "Numpad4", KeyPad5: "Numpad5", KeyPad6: "Numpad6", KeyPadPlus: "NumpadAdd",
	KeyPad1: "Numpad1", KeyPad2: "Numpad2", KeyPad3: "Numpad3", KeyPad0: "Numpad0",
	KeyPadPeriod: "NumpadPeriod", KeyOem102: "Oem102",
	KeyPadEnter: "NumpadEnter", KeyRightCtrl: "RControl", KeyPadDivide: "NumpadDivide",
	KeyAltGr: "RAltGr", KeyHome: "Home", KeyArrowUp: "ArrowUp", KeyPageUp: "PageUp",
	KeyArrowLeft: "ArrowLeft", KeyArrowRight: "ArrowRight", KeyEnd: "End",
	KeyArrowDown: "ArrowDown", KeyPageDown: "PageDown", KeyInsert: "Insert",
	KeyDelete: "Delete", KeyLeftWin: "LWin", KeyRightWin: "RWin", KeyApps: "Apps",
}

// String returns the key's name, e.g. "ArrowUp".
func (k KeyCode) String() string {
	if k < keyCodeCount {
		return keyNames[k]
	}
	return "Unknown"
}

// set1 maps Scancode Set 1 make codes to keys. The non-extended keys are
// numbered in make-code order, so most entries are the code itself.
var set1 = func() (t [0x80]KeyCode) {
	for code := KeyEscape; code <= KeyF10; code++ {
		t[code] = code
	}
	t[0x45] = KeyNumLock
	t[0x46] = KeyScrollLock
	for i, k := range []KeyCode{
		KeyPad7, KeyPad8, KeyPad9, KeyPadMinus,
		KeyPad4, KeyPad5, KeyPad6, KeyPadPlus,
		KeyPad1, KeyPad2, KeyPad3, KeyPad0, KeyPadPeriod,
	} {
		t[0x47+i] = k
	}
	t[0x56] = KeyOem102
	t[0x57] = KeyF11
	t[0x58] = KeyF12
	return t
}()

// set1Extended maps make codes that follow an 0xE0 prefix.
var set1Extended = [0x80]KeyCode{
	0x1C: KeyPadEnter,
	0x1D: KeyRightCtrl,
	0x35: KeyPadDivide,
	0x38: KeyAltGr,
	0x47: KeyHome,
	0x48: KeyArrowUp,
	0x49: KeyPageUp,
	0x4B: KeyArrowLeft,
	0x4D: KeyArrowRight,
	0x4F: KeyEnd,
	0x50: KeyArrowDown,
	0x51: KeyPageDown,
	0x52: KeyInsert,
	0x53: KeyDelete,
	0x5B: KeyLeftWin,
	0x5C: KeyRightWin,
	0x5D: KeyApps,
}

// MakeCode returns the Set 1 make code for k and whether it needs the 0xE0
// prefix. ok is false for KeyNone.
func MakeCode(k KeyCode) (code uint8, extended bool, ok bool) {
	if k == KeyNone {
		return 0, false, false
	}
	for c, kc := range set1 {
		if kc == k {
			return uint8(c), false, true //nolint:gosec // index < 0x80
		}
	}
	for c, kc := range set1Extended {
		if kc == k {
			return uint8(c), true, true //nolint:gosec // index < 0x80
		}
	}
	return 0, false, false
}
