package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RunDoneMsg reports one finished run of a sweep.
type RunDoneMsg struct {
	Compartments int
	Spikes       int
	Err          error
}

// SweepDoneMsg ends the sweep view.
type SweepDoneMsg struct {
	Err error
}

type runState struct {
	done   bool
	spikes int
	err    error
}

// SweepModel shows the progress of a resolution sweep. Pressing q or
// ctrl+c calls cancel and quits.
type SweepModel struct {
	title   string
	trace   string
	counts  []int
	runs    map[int]*runState
	started time.Time
	elapsed time.Duration
	cancel  func()
	err     error
	done    bool
	width   int
}

// NewSweepModel tracks one run per compartment count; finished runs report
// the spike count recorded at the named trace.
func NewSweepModel(title, trace string, counts []int, cancel func()) SweepModel {
	sorted := append([]int(nil), counts...)
	sort.Ints(sorted)
	runs := make(map[int]*runState, len(sorted))
	for _, n := range sorted {
		runs[n] = &runState{}
	}
	return SweepModel{
		title:   title,
		trace:   trace,
		counts:  sorted,
		runs:    runs,
		started: time.Now(),
		cancel:  cancel,
		width:   40,
	}
}

func (m SweepModel) Init() tea.Cmd { return nil }

func (m SweepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = max(10, min(60, msg.Width-30))
	case RunDoneMsg:
		if r, ok := m.runs[msg.Compartments]; ok {
			r.done = true
			r.spikes = msg.Spikes
			r.err = msg.Err
		}
	case SweepDoneMsg:
		m.done = true
		m.err = msg.Err
		m.elapsed = time.Since(m.started)
		return m, tea.Quit
	}
	return m, nil
}

// Finished reports the number of completed runs.
func (m SweepModel) Finished() int {
	n := 0
	for _, r := range m.runs {
		if r.done {
			n++
		}
	}
	return n
}

func (m SweepModel) Err() error { return m.err }

func (m SweepModel) View() string {
	var b strings.Builder
	b.WriteString(Title.Render(m.title))
	b.WriteString("\n\n")

	finished := m.Finished()
	filled := 0
	if len(m.counts) > 0 {
		filled = finished * m.width / len(m.counts)
	}
	b.WriteString(StatusPass.Render(strings.Repeat("█", filled)))
	b.WriteString(Subtle.Render(strings.Repeat("░", m.width-filled)))
	b.WriteString(MetricValue.Render(fmt.Sprintf(" %d/%d", finished, len(m.counts))))
	b.WriteString("\n\n")

	for _, n := range m.counts {
		r := m.runs[n]
		var status string
		switch {
		case !r.done:
			status = Subtle.Render("running")
		case r.err != nil:
			status = StatusFail.Render("failed: " + r.err.Error())
		default:
			status = StatusPass.Render(fmt.Sprintf("%d %s spikes", r.spikes, m.trace))
		}
		b.WriteString(fmt.Sprintf("%s %s\n", MetricLabel.Render(fmt.Sprintf("%6d compartments", n)), status))
	}

	if m.done {
		b.WriteString("\n")
		b.WriteString(Subtle.Render(fmt.Sprintf("finished in %s", m.elapsed.Round(time.Millisecond))))
		b.WriteString("\n")
	} else {
		b.WriteString("\n")
		b.WriteString(KeyHint.Render("q: cancel"))
		b.WriteString("\n")
	}
	return b.String()
}
