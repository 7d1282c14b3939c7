package observ

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func fakeClock(step time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestTrackRecordsDurationAndError(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock(2 * time.Millisecond)

	if err := tm.Track("boot", func() error { return nil }); err != nil {
		t.Fatalf("track: %v", err)
	}
	boom := errors.New("boom")
	if err := tm.Track("run", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("track must return fn's error, got %v", err)
	}

	r := tm.Report()
	if len(r.Phases) != 2 || r.TotalMS != 4 {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.Phases[1].Note != "error: boom" {
		t.Fatalf("note: got %q", r.Phases[1].Note)
	}
	sum := tm.Summary()
	if !strings.Contains(sum, "boot") || !strings.Contains(sum, "total") {
		t.Fatalf("summary: %s", sum)
	}
}

func TestEndIgnoresBadIndex(t *testing.T) {
	tm := NewTimer()
	tm.End(3, "x")
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("unexpected phases %+v", r)
	}
}
