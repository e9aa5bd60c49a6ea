// Package watch provides an interactive view of a streaming verification
// session: generated text fills the screen as it arrives, interim verdicts
// are listed as they come back, and a BLOCKED verdict stops the session with
// a visible banner.
package watch

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	verifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	blockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	bannerStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(0, 1)
)

// Event is one streaming verification update pushed into the TUI.
type Event struct {
	// Text is the chunk of generated text. Empty on terminal events.
	Text string
	// Status is the verdict attached to this chunk: VERIFIED, BLOCKED,
	// WARNING, or PENDING between checks.
	Status string
	// Reason explains a BLOCKED or WARNING verdict.
	Reason string
	// Layer names the detection layer behind a BLOCKED verdict.
	Layer string
	// Confidence is the detection confidence, or a negative value when the
	// verdict carried none.
	Confidence float64
	// Err terminates the session with a failure.
	Err error
	// Done terminates the session normally (source exhausted).
	Done bool
}

// check is one completed remote verification shown in the side log.
type check struct {
	status     string
	reason     string
	layer      string
	confidence float64
}

// messages
type eventMsg Event

// Model implements tea.Model for the watch view.
type Model struct {
	events <-chan Event

	spinner spinner.Model
	text    string
	checks  []check

	chunks  int
	width   int
	height  int
	done    bool
	blocked bool
	err     error
}

// New creates a watch model fed by events.
func New(events <-chan Event) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = dimStyle
	return Model{events: events, spinner: sp, width: 80}
}

// Run drives the TUI until the stream terminates or the user quits. It
// reports whether the session ended on a BLOCKED verdict.
func Run(ctx context.Context, events <-chan Event) (bool, error) {
	p := tea.NewProgram(New(events), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	return final.(Model).Blocked(), nil
}

// waitForEvent pulls the next stream event.
func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventMsg(Event{Done: true})
		}
		return eventMsg(ev)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case eventMsg:
		ev := Event(msg)
		switch {
		case ev.Err != nil:
			m.err = ev.Err
			m.done = true
			return m, nil
		case ev.Done:
			m.done = true
			return m, nil
		}

		m.chunks++
		m.text += ev.Text
		if ev.Status != "" && ev.Status != "PENDING" {
			m.checks = append(m.checks, check{
				status:     ev.Status,
				reason:     ev.Reason,
				layer:      ev.Layer,
				confidence: ev.Confidence,
			})
		}
		if ev.Status == "BLOCKED" {
			// The stream ends here; keep the screen up so the verdict is
			// readable until the user quits.
			m.blocked = true
			m.done = true
			return m, nil
		}
		return m, waitForEvent(m.events)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("tensalis stream"))
	b.WriteString("  ")
	if m.done {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%d chunks, %d checks", m.chunks, len(m.checks))))
	} else {
		b.WriteString(m.spinner.View())
		b.WriteString(headerStyle.Render(fmt.Sprintf(" streaming (%d chunks, %d checks)", m.chunks, len(m.checks))))
	}
	b.WriteString("\n\n")

	b.WriteString(textStyle.Width(m.width).Render(m.text))
	b.WriteString("\n\n")

	for i, c := range m.checks {
		line := fmt.Sprintf("check %d: %s", i+1, c.status)
		if c.confidence >= 0 {
			line += fmt.Sprintf(" (confidence %.2f)", c.confidence)
		}
		switch c.status {
		case "VERIFIED":
			b.WriteString(verifiedStyle.Render("✓ " + line))
		case "WARNING":
			b.WriteString(warningStyle.Render("! " + line))
		default:
			b.WriteString(blockedStyle.Render("✗ " + line))
		}
		if c.reason != "" {
			b.WriteString(dimStyle.Render(": " + c.reason))
		}
		b.WriteString("\n")
	}

	if m.blocked {
		last := m.checks[len(m.checks)-1]
		banner := blockedStyle.Render("BLOCKED") + " " + last.reason
		if last.layer != "" {
			banner += dimStyle.Render(" (layer: " + last.layer + ")")
		}
		b.WriteString("\n")
		b.WriteString(bannerStyle.Render(banner))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(blockedStyle.Render("stream failed: " + m.err.Error()))
		b.WriteString("\n")
	}
	if m.done {
		b.WriteString(dimStyle.Render("\npress q to exit\n"))
	}
	return b.String()
}

// Blocked reports whether the session ended on a BLOCKED verdict.
func (m Model) Blocked() bool { return m.blocked }
