package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"kasync/internal/kernel"
	"kasync/internal/ui"
)

// runWithUI runs the kernel behind the live monitor. Keys typed into the
// monitor go to the simulated keyboard; Ctrl-D ends the input.
func runWithUI(ctx context.Context, k *kernel.Kernel, feed kernel.Feeder) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- k.Run(runCtx, feed)
	}()

	model := ui.NewMonitorModel(ui.MonitorConfig{
		Title:   "kasync " + k.Layout.Name(),
		Kernel:  k,
		Input:   k.Keyboard,
		Done:    done,
		OnEOF:   k.Scancodes.Shutdown,
		OnAbort: cancel,
	})
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	final, uiErr := program.Run()
	if uiErr != nil {
		return uiErr
	}
	return ui.Err(final)
}
