package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"kasync/internal/device"
	"kasync/internal/keyboard"
	"kasync/internal/trace"
)

// keystroke is one key read from the terminal or a text file: either a
// character or a key with no character.
type keystroke struct {
	r   rune
	key keyboard.KeyCode
	at  time.Time
}

func (k keystroke) send(kb *device.Keyboard) error {
	if k.key != keyboard.KeyNone {
		kb.Press(k.key)
		return nil
	}
	return kb.Type(k.r)
}

const (
	ctrlC = 0x03
	ctrlD = 0x04
	esc   = 0x1B
	del   = 0x7F
)

var csiKeys = map[rune]keyboard.KeyCode{
	'A': keyboard.KeyArrowUp,
	'B': keyboard.KeyArrowDown,
	'C': keyboard.KeyArrowRight,
	'D': keyboard.KeyArrowLeft,
	'H': keyboard.KeyHome,
	'F': keyboard.KeyEnd,
}

// readKeystrokes decodes in into keystrokes until EOF, Ctrl-D or Ctrl-C.
// In raw mode the terminal sends CR for Enter, DEL for Backspace and CSI
// sequences for the arrow keys.
func readKeystrokes(in io.Reader, raw bool, out chan<- keystroke) error {
	defer close(out)
	br := bufio.NewReader(in)
	for {
		r, _, err := br.ReadRune()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if raw {
			switch r {
			case ctrlC, ctrlD:
				return nil
			case '\r':
				r = '\n'
			case del:
				r = '\b'
			case esc:
				if k, ok := readCSI(br); ok {
					out <- keystroke{key: k, at: time.Now()}
					continue
				}
			}
		}
		out <- keystroke{r: r, at: time.Now()}
	}
}

// readCSI consumes "[X" after an escape when it names a known key.
func readCSI(br *bufio.Reader) (keyboard.KeyCode, bool) {
	if br.Buffered() < 2 {
		return keyboard.KeyNone, false
	}
	seq, err := br.Peek(2)
	if err != nil || seq[0] != '[' {
		return keyboard.KeyNone, false
	}
	k, ok := csiKeys[rune(seq[1])]
	if !ok {
		return keyboard.KeyNone, false
	}
	_, _ = br.Discard(2)
	return k, true
}

// inputSource is where keystrokes come from.
type inputSource struct {
	reader io.Reader
	raw    bool
	close  func()
}

// openInput resolves --input: a file, "-" for stdin, or the interactive
// terminal when empty. The terminal is switched to raw mode until close.
func openInput(path string) (*inputSource, error) {
	switch path {
	case "-":
		return &inputSource{reader: os.Stdin, close: func() {}}, nil
	case "":
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return &inputSource{reader: os.Stdin, close: func() {}}, nil
		}
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, fmt.Errorf("failed to switch terminal to raw mode: %w", err)
		}
		return &inputSource{
			reader: os.Stdin,
			raw:    true,
			close:  func() { _ = term.Restore(fd, state) },
		}, nil
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		return &inputSource{reader: f, close: func() { _ = f.Close() }}, nil
	}
}

// keystrokes starts reading in the background. The reader goroutine may
// outlive ctx while blocked on the terminal.
func (s *inputSource) keystrokes() (<-chan keystroke, <-chan error) {
	keys := make(chan keystroke, 64)
	errs := make(chan error, 1)
	go func() { errs <- readKeystrokes(s.reader, s.raw, keys) }()
	return keys, errs
}

// typingFeeder types every keystroke of src into the keyboard, waiting delay
// after each. Keys the layout cannot type are traced and skipped.
func typingFeeder(src *inputSource, delay time.Duration, tracer trace.Tracer) func(context.Context, *device.Keyboard) error {
	return func(ctx context.Context, kb *device.Keyboard) error {
		keys, errs := src.keystrokes()
		for {
			select {
			case <-ctx.Done():
				return nil
			case k, ok := <-keys:
				if !ok {
					return <-errs
				}
				if err := k.send(kb); err != nil {
					trace.Warn(tracer, trace.ScopeKernel, "input", err.Error())
					continue
				}
				if delay > 0 {
					select {
					case <-ctx.Done():
						return nil
					case <-time.After(delay):
					}
				}
			}
		}
	}
}

// crlfWriter turns LF into CRLF for a terminal in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	start := 0
	for i, b := range p {
		if b != '\n' {
			continue
		}
		if _, err := c.w.Write(p[start:i]); err != nil {
			return start, err
		}
		if _, err := c.w.Write([]byte("\r\n")); err != nil {
			return i, err
		}
		start = i + 1
	}
	if _, err := c.w.Write(p[start:]); err != nil {
		return start, err
	}
	return len(p), nil
}
