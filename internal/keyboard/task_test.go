package keyboard

import (
	"strings"
	"testing"

	"kasync/internal/asyncrt"
	"kasync/internal/trace"
)

func TestPrintKeypressesWritesTypedText(t *testing.T) {
	src := NewSource(16)
	exec := asyncrt.NewExecutor(asyncrt.Config{}, &idleCPU{})
	var out strings.Builder
	done := false
	exec.Spawn(asyncrt.Any(asyncrt.Then(PrintKeypresses(src.Stream(), nil, &out, trace.Nop),
		func(any) asyncrt.Future[struct{}] {
			done = true
			return asyncrt.Value(struct{}{})
		})))
	exec.RunReady()

	// "Hi" then an arrow key.
	for _, b := range []uint8{0x2A, 0x23, 0xA3, 0xAA, 0x17, 0x97, 0xE0, 0x4B, 0xE0, 0xCB} {
		src.Push(b)
	}
	exec.RunReady()
	if got := out.String(); got != "HiArrowLeft" {
		t.Fatalf("output: got %q", got)
	}

	src.Shutdown()
	exec.RunReady()
	if !done {
		t.Fatalf("printer should finish after shutdown")
	}
	// The stream was closed, so a new one can be opened.
	src.Stream().Close()
}

func TestPrintKeypressesTracesDropsAndDecodeErrors(t *testing.T) {
	src := NewSource(2)
	ring := trace.NewRingTracer(16, trace.LevelError)
	exec := asyncrt.NewExecutor(asyncrt.Config{}, &idleCPU{})
	var out strings.Builder
	exec.Spawn(PrintKeypresses(src.Stream(), NewDecoder(US104), &out, ring))

	src.Push(0x1E)
	src.Push(0x59)
	src.Push(0x30) // dropped
	exec.RunReady()

	if got := out.String(); got != "a" {
		t.Fatalf("output: got %q", got)
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		if ev.Kind == trace.KindWarn {
			names = append(names, ev.Name+"|"+ev.Detail)
		}
	}
	if len(names) != 2 {
		t.Fatalf("want drop and decode warnings, got %v", names)
	}
	if names[0] != "scancode queue full; dropping keyboard input|dropped=1" {
		t.Fatalf("drop warning: got %q", names[0])
	}
	if !strings.HasPrefix(names[1], "decode|keyboard: unknown scancode") {
		t.Fatalf("decode warning: got %q", names[1])
	}
}
