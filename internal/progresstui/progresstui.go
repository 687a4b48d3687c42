// Package progresstui renders a live progress view for a running filter
// operation: a percent-complete bar plus a throughput sparkline, fed by
// samples pushed from the pipeline driver's ProgressSink. It is a no-op
// when stdout is not a terminal.
package progresstui

import (
	"fmt"
	"os"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	statStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// Sink is fed byte counts as the rewrite pass advances. It implements
// redact.ProgressSink.
type Sink struct {
	total   int64
	advance chan int64
	done    chan struct{}
}

// NewSink returns a Sink expecting totalBytes of input overall. It does
// not start the terminal view; Run does that.
func NewSink(totalBytes int64) *Sink {
	return &Sink{total: totalBytes, advance: make(chan int64, 256), done: make(chan struct{})}
}

// Advance implements redact.ProgressSink.
func (s *Sink) Advance(n int64) {
	select {
	case s.advance <- n:
	default:
		// A full channel means the UI is falling behind real I/O; drop
		// the sample rather than block the rewrite pass on rendering.
	}
}

// Finish signals the UI loop to exit. It does not wait for the loop to
// tear down; Run returns once it has.
func (s *Sink) Finish() {
	close(s.done)
}

// Run drives the terminal program until Finish is called. If stdout is
// not a terminal it draws nothing and just waits for Finish, so callers
// can always invoke it unconditionally and let redirected/piped output
// skip the UI.
func (s *Sink) Run() error {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		<-s.done
		return nil
	}
	p := tea.NewProgram(newModel(s))
	_, err := p.Run()
	return err
}

type tickMsg time.Time
type advanceMsg int64
type quitMsg struct{}

type model struct {
	sink       *Sink
	bar        progress.Model
	spark      sparkline.Model
	total      int64
	read       int64
	lastRead   int64
	lastSample time.Time
}

func newModel(s *Sink) *model {
	return &model{
		sink:       s,
		bar:        progress.New(progress.WithDefaultGradient()),
		spark:      sparkline.New(40, 6),
		total:      s.total,
		lastSample: time.Now(),
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.waitForAdvance(), m.waitForDone(), tickEvery())
}

func (m *model) waitForAdvance() tea.Cmd {
	return func() tea.Msg {
		n := <-m.sink.advance
		return advanceMsg(n)
	}
}

func (m *model) waitForDone() tea.Cmd {
	return func() tea.Msg {
		<-m.sink.done
		return quitMsg{}
	}
}

func tickEvery() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case advanceMsg:
		m.read += int64(msg)
		return m, m.waitForAdvance()
	case tickMsg:
		elapsed := time.Since(m.lastSample).Seconds()
		if elapsed > 0 {
			rate := float64(m.read-m.lastRead) / elapsed
			m.spark.Push(rate)
			m.spark.Draw()
		}
		m.lastRead = m.read
		m.lastSample = time.Now()
		return m, tickEvery()
	case quitMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) View() string {
	pct := 0.0
	if m.total > 0 {
		pct = float64(m.read) / float64(m.total)
		if pct > 1 {
			pct = 1
		}
	}
	stats := statStyle.Render(fmt.Sprintf("%s / %s", humanize.Bytes(uint64(m.read)), humanize.Bytes(uint64(m.total))))
	return fmt.Sprintf("%s\n%s  %s\n%s\n",
		labelStyle.Render("hprofredact"),
		m.bar.ViewAs(pct),
		stats,
		m.spark.View())
}
