// Package ui renders the live kernel monitor: the text console, executor
// counters and the scancode queue fill level.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"kasync/internal/console"
	"kasync/internal/kernel"
	"kasync/internal/keyboard"
)

const refreshInterval = 100 * time.Millisecond

// Input is where the monitor sends keys typed into the terminal.
type Input interface {
	Type(r rune) error
	Press(k keyboard.KeyCode)
}

// MonitorConfig wires the monitor to a running kernel.
type MonitorConfig struct {
	Title   string
	Kernel  *kernel.Kernel
	Input   Input
	Done    <-chan error // receives the result of Kernel.Run
	OnEOF   func()       // Ctrl-D: end the input stream
	OnAbort func()       // Ctrl-C: stop the kernel
}

type monitorModel struct {
	cfg     MonitorConfig
	spinner spinner.Model
	fill    progress.Model
	stats   kernel.Stats
	screen  []string
	status  string
	width   int
	done    bool
	err     error
}

type refreshMsg struct{}
type doneMsg struct{ err error }

// NewMonitorModel returns a Bubble Tea model for cfg.
func NewMonitorModel(cfg MonitorConfig) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	fill := progress.New(progress.WithDefaultGradient())
	fill.Width = console.Width - 20

	m := &monitorModel{
		cfg:     cfg,
		spinner: sp,
		fill:    fill,
		width:   console.Width,
	}
	m.refresh()
	return m
}

// Err returns the kernel's run error once the monitor has quit.
func Err(model tea.Model) error {
	if m, ok := model.(*monitorModel); ok {
		return m.err
	}
	return nil
}

func (m *monitorModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, refreshTick(), m.waitDone())
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m *monitorModel) waitDone() tea.Cmd {
	if m.cfg.Done == nil {
		return nil
	}
	return func() tea.Msg {
		return doneMsg{err: <-m.cfg.Done}
	}
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case refreshMsg:
		if m.done {
			return m, nil
		}
		m.refresh()
		return m, refreshTick()
	case doneMsg:
		m.done = true
		m.err = msg.err
		m.refresh()
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.fill.Width = max(msg.Width-20, 10)
		}
		return m, nil
	case progress.FrameMsg:
		fillModel, cmd := m.fill.Update(msg)
		m.fill = fillModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

var rawKeys = map[tea.KeyType]keyboard.KeyCode{
	tea.KeyUp:       keyboard.KeyArrowUp,
	tea.KeyDown:     keyboard.KeyArrowDown,
	tea.KeyLeft:     keyboard.KeyArrowLeft,
	tea.KeyRight:    keyboard.KeyArrowRight,
	tea.KeyHome:     keyboard.KeyHome,
	tea.KeyEnd:      keyboard.KeyEnd,
	tea.KeyPgUp:     keyboard.KeyPageUp,
	tea.KeyPgDown:   keyboard.KeyPageDown,
	tea.KeyInsert:   keyboard.KeyInsert,
	tea.KeyDelete:   keyboard.KeyDelete,
	tea.KeyF1:       keyboard.KeyF1,
	tea.KeyF2:       keyboard.KeyF2,
	tea.KeyF3:       keyboard.KeyF3,
	tea.KeyF4:       keyboard.KeyF4,
	tea.KeyF5:       keyboard.KeyF5,
	tea.KeyF6:       keyboard.KeyF6,
	tea.KeyF7:       keyboard.KeyF7,
	tea.KeyF8:       keyboard.KeyF8,
	tea.KeyF9:       keyboard.KeyF9,
	tea.KeyF10:      keyboard.KeyF10,
	tea.KeyF11:      keyboard.KeyF11,
	tea.KeyF12:      keyboard.KeyF12,
}

var typedKeys = map[tea.KeyType]rune{
	tea.KeyEnter:     '\n',
	tea.KeyBackspace: '\b',
	tea.KeyTab:       '\t',
	tea.KeySpace:     ' ',
	tea.KeyEsc:       0x1B,
}

func (m *monitorModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.cfg.OnAbort != nil {
			m.cfg.OnAbort()
		}
		m.status = "stopping"
		return nil
	case tea.KeyCtrlD:
		if m.cfg.OnEOF != nil {
			m.cfg.OnEOF()
		}
		m.status = "input closed"
		return nil
	}
	if m.done || m.cfg.Input == nil {
		return nil
	}
	if k, ok := rawKeys[msg.Type]; ok {
		m.cfg.Input.Press(k)
		return nil
	}
	var runes []rune
	if r, ok := typedKeys[msg.Type]; ok {
		runes = []rune{r}
	} else if msg.Type == tea.KeyRunes {
		runes = msg.Runes
	}
	for _, r := range runes {
		if err := m.cfg.Input.Type(r); err != nil {
			m.status = err.Error()
		}
	}
	return nil
}

func (m *monitorModel) refresh() {
	if m.cfg.Kernel == nil {
		return
	}
	m.stats = m.cfg.Kernel.Stats()
	m.screen = m.cfg.Kernel.Console.Snapshot()
}

func (m *monitorModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	header := m.cfg.Title
	if m.done {
		header = "halted: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	box := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("6"))
	cols := min(console.Width, max(m.width-2, 10))
	lines := make([]string, len(m.screen))
	for i, line := range m.screen {
		lines[i] = padRight(truncate(line, cols), cols)
	}
	b.WriteString(box.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")

	st := m.stats
	fmt.Fprintf(&b, "tasks %d  ready %d/%d  polls %d  done %d  halts %d  stale %d  ticks %d\n",
		st.Executor.Tasks, st.Executor.Ready, st.Executor.ReadyCap, st.Executor.Polls,
		st.Executor.Completed, st.Executor.Halts, st.Executor.StaleWakes, st.Ticks)

	pct := 0.0
	if st.QueueCap > 0 {
		pct = float64(st.Queued) / float64(st.QueueCap)
	}
	queueLabel := fmt.Sprintf("queue %3d/%-3d ", st.Queued, st.QueueCap)
	b.WriteString(queueLabel)
	b.WriteString(m.fill.ViewAs(pct))
	if st.Dropped > 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(fmt.Sprintf("  dropped %d", st.Dropped)))
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(dim.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(dim.Render("type to send keys, ctrl-d ends input, ctrl-c stops"))
	b.WriteString("\n")
	return b.String()
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}

func padRight(value string, width int) string {
	return runewidth.FillRight(value, width)
}
