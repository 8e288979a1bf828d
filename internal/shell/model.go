package shell

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/fathomhq/fathom-cli/internal/query"
)

const idleStatus = "Enter FQL and press Enter. Esc or Ctrl+D to exit."

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var (
	styleTitle  = lipgloss.NewStyle().Bold(true)
	styleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
	styleCursor = lipgloss.NewStyle().Reverse(true)
	styleStatus = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Options configures the interactive shell.
type Options struct {
	// JSONOutput renders results as compact JSON instead of tables.
	JSONOutput bool
	Dispatcher Dispatcher
	// Recorder, when set, receives one entry per dispatched query.
	Recorder Recorder
	Logger   *zap.Logger
}

// Model is the interactive shell's whole state: the line editor, the last
// rendered output, and whether a query is in flight. It is created at
// session entry, mutated only by Update, and discarded at exit.
type Model struct {
	editor     *Editor
	dispatcher Dispatcher
	recorder   Recorder
	logger     *zap.Logger
	jsonOutput bool

	output     string
	status     string
	outputView viewport.Model

	running  bool
	inflight string
	cancel   context.CancelFunc

	width        int
	height       int
	spinnerFrame int
}

// New builds an idle shell model.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return Model{
		editor:     NewEditor(),
		dispatcher: opts.Dispatcher,
		recorder:   opts.Recorder,
		logger:     logger,
		jsonOutput: opts.JSONOutput,
		status:     idleStatus,
		outputView: viewport.New(80, 20),
	}
}

// Run starts the shell on the alternate screen. bubbletea owns raw mode and
// the screen buffer and restores both on every exit path, error paths
// included; nothing reaches stdout until the session ends.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interactive session failed: %w", err)
	}
	return nil
}

func (m *Model) Init() tea.Cmd {
	return nil
}

type spinnerTickMsg time.Time

func spinnerTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeOutputView()

	case spinnerTickMsg:
		if !m.running {
			return m, nil
		}
		m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
		m.status = fmt.Sprintf("%s Running query...", spinnerFrames[m.spinnerFrame])
		return m, spinnerTick()

	case queryResultMsg:
		m.applyResult(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.running {
		return m.handleKeyWhileRunning(msg)
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		// Clears the input instead of exiting; kept deliberately, the
		// service UI treats Esc/Ctrl+D as the exit keys.
		m.editor.Clear()
		m.status = "Cleared input"
	case tea.KeyCtrlD, tea.KeyEsc:
		return tea.Quit
	case tea.KeyCtrlL:
		m.output = ""
		m.outputView.SetContent("")
	case tea.KeyCtrlY:
		if err := clipboard.WriteAll(m.output); err != nil {
			m.status = "Clipboard unavailable"
		} else {
			m.status = "Copied output"
		}
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyBackspace:
		m.editor.Backspace()
	case tea.KeyDelete:
		m.editor.Delete()
	case tea.KeyLeft:
		m.editor.MoveLeft()
	case tea.KeyRight:
		m.editor.MoveRight()
	case tea.KeyHome:
		m.editor.MoveHome()
	case tea.KeyEnd:
		m.editor.MoveEnd()
	case tea.KeyUp:
		m.editor.HistoryPrev()
	case tea.KeyDown:
		m.editor.HistoryNext()
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.outputView, cmd = m.outputView.Update(msg)
		return cmd
	case tea.KeySpace:
		m.editor.Insert(' ')
	case tea.KeyRunes:
		if msg.Alt {
			return nil
		}
		if msg.Paste {
			m.editor.InsertString(string(msg.Runes))
			return nil
		}
		for _, r := range msg.Runes {
			m.editor.Insert(r)
		}
	}
	return nil
}

// handleKeyWhileRunning keeps dispatch serialized: no editing and no new
// submission until the outstanding query resolves. Esc cancels it.
func (m *Model) handleKeyWhileRunning(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		if m.cancel != nil {
			m.cancel()
			m.status = "Canceling..."
		}
	case tea.KeyCtrlD:
		return tea.Quit
	case tea.KeyCtrlL:
		m.output = ""
		m.outputView.SetContent("")
	}
	return nil
}

func (m *Model) submit() tea.Cmd {
	q := strings.TrimSpace(m.editor.Buffer())
	if q == "" {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.inflight = q
	m.spinnerFrame = 0
	m.status = fmt.Sprintf("%s Running query...", spinnerFrames[0])
	m.logger.Debug("dispatching query", zap.Int("bytes", len(q)))

	return tea.Batch(dispatchQuery(ctx, m.dispatcher, m.recorder, q), spinnerTick())
}

func (m *Model) applyResult(msg queryResultMsg) {
	m.running = false
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	if msg.err != nil {
		// Dispatch failure never terminates the session.
		m.output = fmt.Sprintf("Error: %v", msg.err)
		m.status = "Error"
		m.logger.Debug("query failed", zap.Error(msg.err), zap.Duration("elapsed", msg.elapsed))
	} else {
		out, err := query.FormatResponse(msg.resp, m.jsonOutput)
		if err != nil {
			m.output = fmt.Sprintf("Error: %v", err)
			m.status = "Error"
		} else {
			m.output = out
			m.status = fmt.Sprintf("OK (%d rows in %s)", len(msg.resp.Data), msg.elapsed.Round(time.Millisecond))
		}
		m.logger.Debug("query ok", zap.Int("rows", rowCount(msg)), zap.Duration("elapsed", msg.elapsed))
	}

	m.outputView.SetContent(m.output)
	m.outputView.GotoTop()
	m.editor.PushHistory(m.inflight)
	m.inflight = ""
	m.editor.Clear()
}

func rowCount(msg queryResultMsg) int {
	if msg.resp == nil {
		return 0
	}
	return len(msg.resp.Data)
}

func (m *Model) resizeOutputView() {
	w := m.width - 4
	if w < 1 {
		w = 1
	}
	h := m.height - 9 // input box, status line, results border and title
	if h < 1 {
		h = 1
	}
	m.outputView.Width = w
	m.outputView.Height = h
	m.outputView.SetContent(m.output)
}

// View draws the results pane, the input line, and the status line.
func (m *Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	results := styleBorder.Width(m.width - 2).Render(
		styleTitle.Render("Results") + "\n" + m.outputView.View(),
	)

	// Border, prompt, and the trailing cursor cell all eat columns.
	input := styleBorder.Width(m.width - 2).Render(
		m.renderInputLine(m.width - 8),
	)

	status := styleStatus.Render(m.status)

	return lipgloss.JoinVertical(lipgloss.Left, results, input, status)
}

// renderInputLine clips the buffer to the pane and paints the cursor cell
// in reverse video.
func (m *Model) renderInputLine(budget int) string {
	visible, col := m.editor.VisibleWindow(budget)

	before := visible[:col]
	rest := visible[col:]
	cursorCell := " "
	after := ""
	if rest != "" {
		_, size := utf8.DecodeRuneInString(rest)
		cursorCell = rest[:size]
		after = rest[size:]
	}
	return styleTitle.Render("FQL> ") + before + styleCursor.Render(cursorCell) + after
}
