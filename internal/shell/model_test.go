package shell

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fathomhq/fathom-cli/internal/query"
)

// fakeDispatcher returns a canned response or error per call.
type fakeDispatcher struct {
	mu    sync.Mutex
	calls []string
	resp  *query.Response
	err   error
}

func (f *fakeDispatcher) Query(ctx context.Context, q string) (*query.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.resp, f.err
}

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func cannedResponse(t *testing.T) *query.Response {
	t.Helper()
	var resp query.Response
	payload := `{"data":[{"id":1,"name":"x"}],"schema":{"items":{"properties":{"id":{},"name":{}}}}}`
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("bad canned payload: %v", err)
	}
	return &resp
}

func newTestModel(t *testing.T, d Dispatcher) *Model {
	t.Helper()
	m := New(Options{Dispatcher: d})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return &m
}

func typeString(m *Model, s string) {
	for _, r := range s {
		if r == ' ' {
			m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// pressEnter submits the buffer and, when a dispatch was started, runs the
// returned commands synchronously and feeds resulting messages back in,
// mimicking the bubbletea runtime.
func pressEnter(t *testing.T, m *Model) {
	t.Helper()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drainCmd(t, m, cmd)
}

func drainCmd(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, sub := range msg {
			if sub == nil {
				continue
			}
			if subMsg, ok := sub().(queryResultMsg); ok {
				_, next := m.Update(subMsg)
				drainCmd(t, m, next)
			}
		}
	case queryResultMsg:
		_, next := m.Update(msg)
		drainCmd(t, m, next)
	}
}

func TestTypingEditsBuffer(t *testing.T) {
	m := newTestModel(t, &fakeDispatcher{})

	typeString(m, "select 1")
	if m.editor.Buffer() != "select 1" {
		t.Errorf("buffer = %q", m.editor.Buffer())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'X'}})
	if m.editor.Buffer() != "selectX " {
		t.Errorf("buffer = %q", m.editor.Buffer())
	}
}

func TestEnterDispatchesAndRendersTable(t *testing.T) {
	d := &fakeDispatcher{resp: cannedResponse(t)}
	m := newTestModel(t, d)

	typeString(m, "  select 1  ")
	pressEnter(t, m)

	if got := d.callCount(); got != 1 {
		t.Fatalf("dispatch count = %d, want 1", got)
	}
	if d.calls[0] != "select 1" {
		t.Errorf("dispatched query = %q, want trimmed text", d.calls[0])
	}
	if !strings.Contains(m.output, "| id | name |") {
		t.Errorf("output pane missing table:\n%s", m.output)
	}
	if !strings.HasPrefix(m.status, "OK") {
		t.Errorf("status = %q, want OK", m.status)
	}
	if m.editor.Buffer() != "" {
		t.Errorf("input not cleared after submit: %q", m.editor.Buffer())
	}
	if len(m.editor.History()) != 1 || m.editor.History()[0] != "select 1" {
		t.Errorf("history = %v", m.editor.History())
	}
	if m.running {
		t.Error("model still marked running after result applied")
	}
}

func TestEnterOnEmptyBufferIsNoop(t *testing.T) {
	d := &fakeDispatcher{resp: cannedResponse(t)}
	m := newTestModel(t, d)

	typeString(m, "   ")
	pressEnter(t, m)

	if d.callCount() != 0 {
		t.Error("blank submission reached the dispatcher")
	}
	if m.running {
		t.Error("model running after blank submission")
	}
}

func TestDispatchFailureIsRecoveredInPane(t *testing.T) {
	d := &fakeDispatcher{err: errors.New("request failed (502): bad gateway")}
	m := newTestModel(t, d)

	typeString(m, "select 1")
	pressEnter(t, m)

	if !strings.Contains(m.output, "request failed (502)") {
		t.Errorf("output = %q, want transport error text", m.output)
	}
	if m.status != "Error" {
		t.Errorf("status = %q, want Error", m.status)
	}
	// The session keeps going: a second query still dispatches.
	typeString(m, "select 2")
	pressEnter(t, m)
	if d.callCount() != 2 {
		t.Errorf("dispatch count = %d, want 2", d.callCount())
	}
}

func TestEnterWhileRunningIsSerialized(t *testing.T) {
	d := &fakeDispatcher{resp: cannedResponse(t)}
	m := newTestModel(t, d)

	typeString(m, "select 1")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.running {
		t.Fatal("model not running after submit")
	}

	// A second Enter while the first is outstanding must not dispatch.
	_, second := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if second != nil {
		t.Error("second Enter produced a command while running")
	}

	drainCmd(t, m, cmd)
	if d.callCount() != 1 {
		t.Errorf("dispatch count = %d, want 1", d.callCount())
	}
}

func TestCtrlCClearsInputWithoutExiting(t *testing.T) {
	m := newTestModel(t, &fakeDispatcher{})

	typeString(m, "select 1")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	if cmd != nil {
		if _, quit := cmd().(tea.QuitMsg); quit {
			t.Fatal("ctrl+c exited the session")
		}
	}
	if m.editor.Buffer() != "" {
		t.Errorf("buffer = %q, want empty", m.editor.Buffer())
	}
	if m.status != "Cleared input" {
		t.Errorf("status = %q", m.status)
	}
}

func TestCtrlLClearsOutputOnly(t *testing.T) {
	d := &fakeDispatcher{resp: cannedResponse(t)}
	m := newTestModel(t, d)

	typeString(m, "select 1")
	pressEnter(t, m)
	if m.output == "" {
		t.Fatal("expected output before ctrl+l")
	}

	typeString(m, "next")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if m.output != "" {
		t.Error("ctrl+l did not clear the output pane")
	}
	if m.editor.Buffer() != "next" {
		t.Errorf("ctrl+l touched the input buffer: %q", m.editor.Buffer())
	}
}

func TestEscAndCtrlDTerminate(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlD} {
		m := newTestModel(t, &fakeDispatcher{})
		_, cmd := m.Update(tea.KeyMsg{Type: key})
		if cmd == nil {
			t.Fatalf("%v produced no command", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%v did not quit", key)
		}
	}
}

func TestEscWhileRunningCancelsDispatch(t *testing.T) {
	d := &fakeDispatcher{resp: cannedResponse(t)}
	m := newTestModel(t, d)

	typeString(m, "select pg_sleep(60)")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	// Cancel before the dispatch command runs; the fake dispatcher honors
	// context cancellation, so the result carries the cancellation error.
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	drainCmd(t, m, cmd)

	if m.running {
		t.Error("model still running after canceled dispatch")
	}
	if m.status != "Error" {
		t.Errorf("status = %q, want Error after cancellation", m.status)
	}
	if !strings.Contains(m.output, "context canceled") {
		t.Errorf("output = %q, want cancellation error", m.output)
	}
}

func TestHistoryKeysBrowse(t *testing.T) {
	d := &fakeDispatcher{resp: cannedResponse(t)}
	m := newTestModel(t, d)

	typeString(m, "select 1")
	pressEnter(t, m)
	typeString(m, "select 2")
	pressEnter(t, m)

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.editor.Buffer() != "select 2" {
		t.Errorf("after Up: buffer = %q", m.editor.Buffer())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.editor.Buffer() != "select 1" {
		t.Errorf("after Up Up: buffer = %q", m.editor.Buffer())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.editor.Buffer() != "" {
		t.Errorf("past newest: buffer = %q, want empty", m.editor.Buffer())
	}
}

func TestResizeRedrawsWithoutStateChange(t *testing.T) {
	d := &fakeDispatcher{resp: cannedResponse(t)}
	m := newTestModel(t, d)

	typeString(m, "select 1")
	pressEnter(t, m)
	output, history := m.output, len(m.editor.History())

	m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	if m.output != output || len(m.editor.History()) != history {
		t.Error("resize changed session state")
	}
	if view := m.View(); view == "" {
		t.Error("empty view after resize")
	}
}

func TestJSONOutputMode(t *testing.T) {
	d := &fakeDispatcher{resp: cannedResponse(t)}
	m := New(Options{Dispatcher: d, JSONOutput: true})
	mp := &m
	mp.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	typeString(mp, "select 1")
	pressEnter(t, mp)

	if !strings.HasPrefix(mp.output, `{"data":`) {
		t.Errorf("output = %q, want compact JSON", mp.output)
	}
}

func TestSpinnerTickOnlyWhileRunning(t *testing.T) {
	m := newTestModel(t, &fakeDispatcher{})

	_, cmd := m.Update(spinnerTickMsg(time.Now()))
	if cmd != nil {
		t.Error("idle spinner tick rescheduled itself")
	}

	typeString(m, "select 1")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd = m.Update(spinnerTickMsg(time.Now()))
	if cmd == nil {
		t.Error("running spinner tick did not reschedule")
	}
	if !strings.Contains(m.status, "Running query") {
		t.Errorf("status = %q", m.status)
	}
}

func TestViewShowsPromptAndStatus(t *testing.T) {
	m := newTestModel(t, &fakeDispatcher{})
	typeString(m, "sel")

	view := m.View()
	if !strings.Contains(view, "FQL>") {
		t.Errorf("view missing prompt:\n%s", view)
	}
	if !strings.Contains(view, "Results") {
		t.Errorf("view missing results title:\n%s", view)
	}
	if !strings.Contains(view, idleStatus) {
		t.Errorf("view missing status line:\n%s", view)
	}
}
