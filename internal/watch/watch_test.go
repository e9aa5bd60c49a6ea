package watch

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

// feed applies one event message and returns the updated model.
func feed(t *testing.T, m Model, ev Event) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(eventMsg(ev))
	return next.(Model), cmd
}

func TestUpdate_AccumulatesChunks(t *testing.T) {
	m := New(nil)
	m, cmd := feed(t, m, Event{Text: "The refund ", Status: "PENDING"})
	if cmd == nil {
		t.Error("expected a follow-up command to keep pulling events")
	}
	m, _ = feed(t, m, Event{Text: "window is 30 days.", Status: "VERIFIED", Confidence: 0.97})

	if m.chunks != 2 {
		t.Errorf("expected 2 chunks, got %d", m.chunks)
	}
	if got := m.text; got != "The refund window is 30 days." {
		t.Errorf("unexpected accumulated text: %q", got)
	}
	// PENDING updates are progress, not checks.
	if len(m.checks) != 1 {
		t.Fatalf("expected 1 recorded check, got %d", len(m.checks))
	}
	if m.checks[0].status != "VERIFIED" {
		t.Errorf("expected VERIFIED check, got %s", m.checks[0].status)
	}
}

func TestUpdate_BlockedStopsPullingAndKeepsScreen(t *testing.T) {
	m := New(nil)
	m, _ = feed(t, m, Event{Text: "Refunds take 3 days.", Status: "PENDING"})
	m, cmd := feed(t, m, Event{
		Text:       " Also we pay you interest.",
		Status:     "BLOCKED",
		Reason:     "contradicts reference documents",
		Layer:      "cascading_nli",
		Confidence: 0.99,
	})

	if !m.Blocked() {
		t.Fatal("expected model to report blocked")
	}
	if !m.done {
		t.Error("expected session to be done after BLOCKED")
	}
	if cmd != nil {
		t.Error("expected no further event pulls after BLOCKED")
	}

	view := m.View()
	if !strings.Contains(view, "BLOCKED") {
		t.Error("expected BLOCKED banner in view")
	}
	if !strings.Contains(view, "contradicts reference documents") {
		t.Error("expected reason in view")
	}
	if !strings.Contains(view, "cascading_nli") {
		t.Error("expected layer in view")
	}
}

func TestUpdate_DoneEventFinishes(t *testing.T) {
	m := New(nil)
	m, _ = feed(t, m, Event{Text: "All good.", Status: "VERIFIED", Confidence: 0.9})
	m, cmd := feed(t, m, Event{Done: true})

	if !m.done {
		t.Error("expected done after terminal event")
	}
	if m.Blocked() {
		t.Error("clean finish must not read as blocked")
	}
	if cmd != nil {
		t.Error("expected no further pulls once done")
	}
	if !strings.Contains(m.View(), "press q to exit") {
		t.Error("expected exit hint once done")
	}
}

func TestUpdate_ErrorSurfacesInView(t *testing.T) {
	m := New(nil)
	m, _ = feed(t, m, Event{Err: errStub("connection refused")})

	if !m.done {
		t.Error("expected done after error event")
	}
	if !strings.Contains(m.View(), "stream failed: connection refused") {
		t.Error("expected error message in view")
	}
}

func TestUpdate_QuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c", "esc"} {
		m := New(nil)
		var msg tea.KeyMsg
		switch key {
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Errorf("key %q: expected quit command", key)
		}
	}
}

func TestWaitForEvent_ClosedChannelReportsDone(t *testing.T) {
	events := make(chan Event)
	close(events)
	msg := waitForEvent(events)()
	ev, ok := msg.(eventMsg)
	if !ok {
		t.Fatalf("expected eventMsg, got %T", msg)
	}
	if !ev.Done {
		t.Error("closed channel should read as a terminal event")
	}
}

type errStub string

func (e errStub) Error() string { return string(e) }
