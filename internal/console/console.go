// Package console is an 80x25 text screen that stands in for VGA text mode.
package console

import (
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

const (
	Width  = 80
	Height = 25

	tabStop = 8
)

// Writer is a text grid that wraps at Width columns and scrolls after Height
// rows. Wide runes take two columns. It is safe for concurrent use.
type Writer struct {
	mu       sync.Mutex
	rows     [Height][]rune
	row      int
	col      int
	scrolled uint64
	pending  []byte // incomplete UTF-8 sequence from the previous Write
	mirror   io.Writer
}

// NewWriter returns an empty console. Bytes written are also copied to
// mirror when it is non-nil.
func NewWriter(mirror io.Writer) *Writer {
	return &Writer{mirror: mirror}
}

// Write puts p on the screen. It never fails; mirror errors are returned.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	buf := p
	if len(w.pending) > 0 {
		buf = append(w.pending, p...)
		w.pending = nil
	}
	for len(buf) > 0 {
		r, size := utf8.DecodeRune(buf)
		if r == utf8.RuneError && size <= 1 && !utf8.FullRune(buf) {
			w.pending = append([]byte(nil), buf...)
			break
		}
		w.put(r)
		buf = buf[size:]
	}
	w.mu.Unlock()

	if w.mirror != nil {
		return w.mirror.Write(p)
	}
	return len(p), nil
}

func (w *Writer) put(r rune) {
	switch r {
	case '\n':
		w.newline()
		return
	case '\r':
		w.col = 0
		return
	case '\b':
		w.backspace()
		return
	case '\t':
		n := tabStop - w.col%tabStop
		for i := 0; i < n && w.col < Width; i++ {
			w.put(' ')
		}
		return
	}
	width := runewidth.RuneWidth(r)
	if width == 0 {
		return
	}
	if w.col+width > Width {
		w.newline()
	}
	w.rows[w.row] = append(w.rows[w.row], r)
	w.col += width
}

func (w *Writer) newline() {
	w.col = 0
	if w.row < Height-1 {
		w.row++
		return
	}
	copy(w.rows[:], w.rows[1:])
	w.rows[Height-1] = nil
	w.scrolled++
}

func (w *Writer) backspace() {
	line := w.rows[w.row]
	if len(line) == 0 {
		return
	}
	last := line[len(line)-1]
	w.rows[w.row] = line[:len(line)-1]
	w.col -= runewidth.RuneWidth(last)
}

// Snapshot returns a copy of every row.
func (w *Writer) Snapshot() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lines(Height)
}

// String returns the screen contents up to the cursor row.
func (w *Writer) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return strings.Join(w.lines(w.row+1), "\n")
}

func (w *Writer) lines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = string(w.rows[i])
	}
	return lines
}

// Scrolled returns how many rows have scrolled off the top.
func (w *Writer) Scrolled() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scrolled
}
