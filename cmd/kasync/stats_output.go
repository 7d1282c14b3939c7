package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"kasync/internal/irq"
	"kasync/internal/kernel"
)

var (
	statLabel = color.New(color.FgCyan)
	statWarn  = color.New(color.FgRed, color.Bold)
)

func printStats(out io.Writer, st kernel.Stats) {
	ex := st.Executor
	fmt.Fprintf(out, "%s tasks %d  spawned %d  polls %d  completed %d  halts %d  stale %d\n",
		statLabel.Sprint("executor:"), ex.Tasks, ex.Spawned, ex.Polls, ex.Completed, ex.Halts, ex.StaleWakes)
	fmt.Fprintf(out, "%s keyboard %d  timer %d  spurious %d  unhandled %d\n",
		statLabel.Sprint("irq:     "), st.IRQ.Delivered[irq.LineKeyboard], st.IRQ.Delivered[irq.LineTimer],
		st.IRQ.Spurious, st.IRQ.Unhandled)

	dropped := fmt.Sprintf("dropped %d", st.Dropped)
	if st.Dropped > 0 {
		dropped = statWarn.Sprint(dropped)
	}
	fmt.Fprintf(out, "%s queued %d/%d  %s", statLabel.Sprint("scancode:"), st.Queued, st.QueueCap, dropped)
	if st.EarlyDrop > 0 {
		fmt.Fprintf(out, "  %s", statWarn.Sprintf("before init %d", st.EarlyDrop))
	}
	fmt.Fprintln(out)
}
