package keyboard

import (
	"errors"
	"testing"
)

// feedAll feeds bytes and returns the concatenated output.
func feedAll(t *testing.T, d *Decoder, codes ...uint8) string {
	t.Helper()
	var out []DecodedKey
	for _, c := range codes {
		key, ok, err := d.Feed(c)
		if err != nil {
			t.Fatalf("feed %#02x: %v", c, err)
		}
		if ok {
			out = append(out, key)
		}
	}
	s := ""
	for _, k := range out {
		s += k.String()
	}
	return s
}

func TestDecodeLettersAndRelease(t *testing.T) {
	d := NewDecoder(US104)
	if got := feedAll(t, d, 0x23, 0xA3, 0x17, 0x97); got != "hi" {
		t.Fatalf("want %q, got %q", "hi", got)
	}
}

func TestDecodeShiftAndCapsLock(t *testing.T) {
	d := NewDecoder(US104)
	if got := feedAll(t, d, 0x2A, 0x1E, 0x03, 0xAA, 0x1E); got != "A@a" {
		t.Fatalf("shift: got %q", got)
	}
	// CapsLock toggles on press only; shift inverts it for letters but not digits.
	if got := feedAll(t, d, 0x3A, 0xBA, 0x1E, 0x02, 0x36, 0x1E, 0x02, 0xB6); got != "A1a!" {
		t.Fatalf("caps: got %q", got)
	}
	if !d.Modifiers().CapsLock {
		t.Fatalf("caps lock should be on")
	}
}

func TestDecodeExtendedKeys(t *testing.T) {
	d := NewDecoder(nil)
	key, ok, err := d.Feed(0xE0)
	if ok || err != nil {
		t.Fatalf("prefix alone must not produce a key: %v %v %v", key, ok, err)
	}
	key, ok, err = d.Feed(0x48)
	if err != nil || !ok {
		t.Fatalf("arrow up: ok=%v err=%v", ok, err)
	}
	if key.IsRune || key.Raw != KeyArrowUp || key.String() != "ArrowUp" {
		t.Fatalf("want raw ArrowUp, got %+v", key)
	}
	// Fake shift around an extended key is swallowed.
	if got := feedAll(t, d, 0xE0, 0x2A, 0xE0, 0x1C, 0xE0, 0x9C, 0xE0, 0xAA); got != "\n" {
		t.Fatalf("keypad enter: got %q", got)
	}
}

func TestDecodeUnknownScancode(t *testing.T) {
	d := NewDecoder(US104)
	if _, _, err := d.Feed(0x59); !errors.Is(err, ErrUnknownScancode) {
		t.Fatalf("want ErrUnknownScancode, got %v", err)
	}
	d.Feed(0xE0)
	if _, _, err := d.Feed(0x10); !errors.Is(err, ErrUnknownScancode) {
		t.Fatalf("extended: want ErrUnknownScancode, got %v", err)
	}
	// The decoder recovers after an unknown byte.
	if got := feedAll(t, d, 0x1E); got != "a" {
		t.Fatalf("after error: got %q", got)
	}
}

func TestDecodeKeypadFollowsNumLock(t *testing.T) {
	d := NewDecoder(US104)
	if got := feedAll(t, d, 0x47, 0x53); got != "7." {
		t.Fatalf("numlock on: got %q", got)
	}
	if got := feedAll(t, d, 0x45, 0xC5, 0x47, 0x48); got != "HomeArrowUp" {
		t.Fatalf("numlock off: got %q", got)
	}
}

func TestUK105Differences(t *testing.T) {
	d := NewDecoder(UK105)
	if got := feedAll(t, d, 0x2A, 0x03, 0x04, 0x28, 0xAA, 0x2B, 0x56); got != "\"£@#\\" {
		t.Fatalf("uk105: got %q", got)
	}
	us := NewDecoder(US104)
	if got := feedAll(t, us, 0x2A, 0x03, 0x04, 0x28, 0xAA, 0x2B); got != "@#\"\\" {
		t.Fatalf("us104: got %q", got)
	}
}

func TestLayoutFor(t *testing.T) {
	cases := map[string]Layout{
		"":      US104,
		"us104": US104,
		"UK105": UK105,
		"en-US": US104,
		"en-GB": UK105,
		"fr-FR": US104,
	}
	for name, want := range cases {
		got, err := LayoutFor(name)
		if err != nil {
			t.Fatalf("LayoutFor(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("LayoutFor(%q) = %s, want %s", name, got.Name(), want.Name())
		}
	}
	if _, err := LayoutFor("not a tag!"); err == nil {
		t.Fatalf("expected error for malformed tag")
	}
}

func TestMakeCodeRoundTrip(t *testing.T) {
	for k := KeyEscape; k < keyCodeCount; k++ {
		code, ext, ok := MakeCode(k)
		if !ok {
			t.Fatalf("no make code for %s", k)
		}
		d := NewDecoder(US104)
		if ext {
			d.AddByte(prefixExtended)
		}
		ev, ok, err := d.AddByte(code)
		if err != nil || !ok || ev.Code != k || ev.State != KeyDown {
			t.Fatalf("%s: decoded %+v ok=%v err=%v", k, ev, ok, err)
		}
	}
}
