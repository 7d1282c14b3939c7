package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"kasync/internal/config"
	"kasync/internal/kernel"
	"kasync/internal/keyboard"
)

type recordedInput struct {
	typed   []rune
	pressed []keyboard.KeyCode
}

func (r *recordedInput) Type(c rune) error {
	if c == 'é' {
		return errors.New("not on layout")
	}
	r.typed = append(r.typed, c)
	return nil
}

func (r *recordedInput) Press(k keyboard.KeyCode) {
	r.pressed = append(r.pressed, k)
}

func bootKernel(t *testing.T) *kernel.Kernel {
	t.Helper()
	k, err := kernel.Boot(context.Background(), config.Default(), kernel.Options{
		Scancodes: keyboard.NewSource(16),
	})
	if err != nil {
		t.Fatalf("boot: %v", err)
	}
	return k
}

func TestKeysAreForwarded(t *testing.T) {
	in := &recordedInput{}
	m := NewMonitorModel(MonitorConfig{Title: "kasync", Input: in})

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("é")})

	if string(in.typed) != "hi\n" {
		t.Fatalf("typed: got %q", string(in.typed))
	}
	if len(in.pressed) != 1 || in.pressed[0] != keyboard.KeyArrowUp {
		t.Fatalf("pressed: got %v", in.pressed)
	}
	if !strings.Contains(m.View(), "not on layout") {
		t.Fatalf("typing error should be shown")
	}
}

func TestControlKeys(t *testing.T) {
	eof, abort := 0, 0
	m := NewMonitorModel(MonitorConfig{
		OnEOF:   func() { eof++ },
		OnAbort: func() { abort++ },
	})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if eof != 1 || abort != 1 {
		t.Fatalf("eof=%d abort=%d", eof, abort)
	}
}

func TestViewShowsConsoleAndStats(t *testing.T) {
	k := bootKernel(t)
	k.Exec.RunReady()

	m := NewMonitorModel(MonitorConfig{Title: "kasync", Kernel: k})
	m.Update(refreshMsg{})
	view := m.View()
	for _, want := range []string{"async number: 42", "tasks 1", "queue   0/16"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestDoneQuitsAndKeepsError(t *testing.T) {
	boom := errors.New("boom")
	done := make(chan error, 1)
	done <- boom
	m := NewMonitorModel(MonitorConfig{Title: "kasync", Done: done})

	msg := m.(*monitorModel).waitDone()()
	model, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if !errors.Is(Err(model), boom) {
		t.Fatalf("Err: got %v", Err(model))
	}
	if !strings.HasPrefix(stripANSI(model.View()), "halted: kasync") {
		t.Fatalf("view after done: %q", model.View())
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == 0x1B:
			inEsc = true
		case inEsc:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEsc = false
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
