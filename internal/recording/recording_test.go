package recording

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

func TestWriteThenReadFile(t *testing.T) {
	rec := New("uk105")
	if err := rec.Append(5*time.Millisecond, 0x1E, 0x9E); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := rec.Append(time.Millisecond, 0x30); err != nil {
		t.Fatalf("append: %v", err)
	}
	path := filepath.Join(t.TempDir(), "session.kbd")
	if err := WriteFile(path, rec); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Layout != "uk105" || string(got.Codes()) != string([]uint8{0x1E, 0x9E, 0x30}) {
		t.Fatalf("unexpected recording %+v", got)
	}
	if got.Entries[1].DelayMicros != 0 {
		t.Fatalf("only the first code of a batch carries the delay")
	}
	if got.Duration() != 6*time.Millisecond {
		t.Fatalf("duration: got %s", got.Duration())
	}
}

func TestDecodeRejectsOtherSchema(t *testing.T) {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(&Recording{Schema: SchemaVersion + 1}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(&buf); !errors.Is(err, ErrSchema) {
		t.Fatalf("want ErrSchema, got %v", err)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte{0xC1})); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestAppendRejectsHugeDelay(t *testing.T) {
	rec := New("us104")
	if err := rec.Append(100*time.Hour, 0x1E); err == nil {
		t.Fatalf("delay beyond uint32 microseconds should fail")
	}
}

func TestReplayOrderAndSpeed(t *testing.T) {
	rec := New("us104")
	rec.Append(20*time.Millisecond, 1)
	rec.Append(20*time.Millisecond, 2, 3)

	var got []uint8
	start := time.Now()
	if err := rec.Replay(context.Background(), 100, func(b uint8) { got = append(got, b) }); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if string(got) != string([]uint8{1, 2, 3}) {
		t.Fatalf("order: got %v", got)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("speed factor ignored")
	}
	if err := rec.Replay(context.Background(), 0, func(uint8) {}); err == nil {
		t.Fatalf("zero speed should fail")
	}
}

func TestReplayStopsOnCancel(t *testing.T) {
	rec := New("us104")
	rec.Append(time.Hour, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rec.Replay(ctx, 1, func(uint8) { t.Fatalf("nothing should be injected") }); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
