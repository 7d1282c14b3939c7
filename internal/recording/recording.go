// Package recording stores timed scancode sequences for record and replay.
package recording

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
)

// SchemaVersion is bumped when the Recording format changes.
const SchemaVersion uint16 = 1

// ErrSchema is returned when a file has a different schema version.
var ErrSchema = errors.New("recording: unsupported schema version")

// Entry is one scancode and the delay before it.
type Entry struct {
	DelayMicros uint32 `msgpack:"d"`
	Code        uint8  `msgpack:"c"`
}

// Delay returns the entry's delay.
func (e Entry) Delay() time.Duration {
	return time.Duration(e.DelayMicros) * time.Microsecond
}

// Recording is a keyboard session captured as Set 1 scancodes.
type Recording struct {
	Schema  uint16  `msgpack:"schema"`
	Layout  string  `msgpack:"layout"`
	Entries []Entry `msgpack:"entries"`
}

// New returns an empty recording for layout.
func New(layout string) *Recording {
	return &Recording{Schema: SchemaVersion, Layout: layout}
}

// Append adds codes; delay applies to the first of them, the rest follow
// immediately.
func (r *Recording) Append(delay time.Duration, codes ...uint8) error {
	if delay < 0 {
		delay = 0
	}
	micros, err := safecast.Conv[uint32](delay.Microseconds())
	if err != nil {
		return fmt.Errorf("recording: delay %s: %w", delay, err)
	}
	for _, c := range codes {
		r.Entries = append(r.Entries, Entry{DelayMicros: micros, Code: c})
		micros = 0
	}
	return nil
}

// Codes returns the scancodes without timing.
func (r *Recording) Codes() []uint8 {
	out := make([]uint8, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Code
	}
	return out
}

// Duration returns the sum of all delays.
func (r *Recording) Duration() time.Duration {
	var d time.Duration
	for _, e := range r.Entries {
		d += e.Delay()
	}
	return d
}

// Encode writes r as msgpack.
func Encode(w io.Writer, r *Recording) error {
	return msgpack.NewEncoder(w).Encode(r)
}

// Decode reads a recording and checks its schema version.
func Decode(rd io.Reader) (*Recording, error) {
	var r Recording
	if err := msgpack.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("recording: decode: %w", err)
	}
	if r.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: %d (want %d)", ErrSchema, r.Schema, SchemaVersion)
	}
	return &r, nil
}

// WriteFile writes r to path through a temporary file and a rename.
func WriteFile(path string, r *Recording) (err error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".kbd-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if err = Encode(f, r); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// ReadFile reads a recording from path.
func ReadFile(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Replay calls inject for every entry after its delay divided by speed.
// It stops early with ctx's error.
func (r *Recording) Replay(ctx context.Context, speed float64, inject func(uint8)) error {
	if speed <= 0 {
		return fmt.Errorf("recording: speed must be positive, got %g", speed)
	}
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C
	for _, e := range r.Entries {
		if d := time.Duration(float64(e.Delay()) / speed); d > 0 {
			timer.Reset(d)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		inject(e.Code)
	}
	return nil
}
