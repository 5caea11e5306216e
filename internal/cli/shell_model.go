package cli

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexanderramin/promptforge/internal/cli/formatter"
	"github.com/alexanderramin/promptforge/internal/conversation"
	"github.com/alexanderramin/promptforge/internal/domain"
)

// stateMsg carries a conversation state into the model. Published updates
// from the controller arrive as stateMsg too.
type stateMsg struct {
	state domain.ConversationState
}

// doneMsg ends a submitted line.
type doneMsg struct {
	state domain.ConversationState
	err   error
}

// shellModel is the bubbletea model for the interactive shell. The
// controller owns all conversation state; the model only mirrors it.
type shellModel struct {
	ctx  context.Context
	ctrl *conversation.Controller

	input    textinput.Model
	spinner  spinner.Model
	renderer *formatter.PromptRenderer
	width    int

	st       domain.ConversationState
	running  bool
	printed  string
	welcome  string
	quitting bool

	history    []string
	historyIdx int
	saveLine   func(string)
}

type shellOptions struct {
	welcome  string
	history  []string
	saveLine func(string)
	renderer *formatter.PromptRenderer
}

func newShellModel(ctx context.Context, ctrl *conversation.Controller, opts shellOptions) shellModel {
	ti := textinput.New()
	ti.Focus()
	ti.Prompt = ""
	ti.ShowSuggestions = true
	ti.CharLimit = 2000
	ti.SetSuggestions(conversation.Commands)
	ti.KeyMap.NextSuggestion = key.NewBinding(key.WithKeys("ctrl+n"))
	ti.KeyMap.PrevSuggestion = key.NewBinding(key.WithKeys("ctrl+p"))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = formatter.StylePurple

	if opts.saveLine == nil {
		opts.saveLine = func(string) {}
	}

	st := ctrl.State()
	m := shellModel{
		ctx:        ctx,
		ctrl:       ctrl,
		input:      ti,
		spinner:    sp,
		renderer:   opts.renderer,
		st:         st,
		welcome:    opts.welcome,
		history:    opts.history,
		historyIdx: len(opts.history),
		saveLine:   opts.saveLine,
	}
	if st.HasPrompt() {
		m.printed = st.EditablePrompt
	}
	if st.InputPrefill != "" {
		m.input.SetValue(st.InputPrefill)
		m.input.CursorEnd()
	}
	return m
}

// ── bubbletea interface ──────────────────────────────────────────────────────

func (m shellModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.welcome != "" {
		cmds = append(cmds, tea.Println(m.welcome))
	}
	if m.printed != "" {
		cmds = append(cmds, tea.Println(m.renderPrompt(m.st)))
	}
	return tea.Batch(cmds...)
}

func (m shellModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 20
		return m, nil

	case stateMsg:
		return m.applyState(msg.state)

	case doneMsg:
		m.running = false
		next, cmd := m.applyState(msg.state)
		if msg.err != nil {
			return next, tea.Batch(cmd, tea.Println(formatter.StyleRed.Render("Error: "+ErrorText(msg.err))))
		}
		return next, cmd

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m shellModel) View() string {
	if m.quitting {
		return formatter.Dim("Goodbye.") + "\n"
	}
	var b strings.Builder
	if p, ok := formatter.ActivePrompt(m.st); ok {
		b.WriteString(formatter.FormatPrompt(p))
	}
	if m.running {
		b.WriteString(m.spinner.View() + " ")
	}
	if m.st.Status != "" {
		style := formatter.StyleDim
		if m.st.ErrorCode != "" {
			style = formatter.StyleRed
		}
		b.WriteString(style.Render(m.st.Status))
	}
	b.WriteString("\n")
	b.WriteString(m.promptPrefix() + m.input.View())
	return b.String()
}

func (m shellModel) promptPrefix() string {
	return formatter.StylePurple.Render("promptforge") + " " +
		formatter.Dim("(") + formatter.StageLabel(m.st) + formatter.Dim(")") +
		" " + formatter.Dim("❯") + " "
}

// ── input ────────────────────────────────────────────────────────────────────

func (m shellModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			return m, m.stop()
		}
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEsc:
		if m.running {
			return m, m.stop()
		}
		return m, nil

	case tea.KeyUp, tea.KeyDown:
		delta := 1
		if msg.Type == tea.KeyUp {
			delta = -1
		}
		if _, ok := formatter.ActivePrompt(m.st); ok && m.input.Value() == "" {
			return m, m.move(delta)
		}
		if delta < 0 {
			m.historyUp()
		} else {
			m.historyDown()
		}
		return m, nil

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		line := strings.TrimSpace(m.input.Value())
		m.input.Reset()
		if line != "" {
			m.addHistory(line)
		}
		switch strings.ToLower(line) {
		case "/exit", "/quit":
			m.quitting = true
			return m, tea.Quit
		case "/help":
			return m, tea.Println(formatter.FormatShellHelp())
		}
		m.running = true
		return m, tea.Batch(m.submit(line), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands a line to the controller. An empty line activates the
// highlighted choice.
func (m shellModel) submit(line string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		err := ctrl.Submit(ctx, line)
		return doneMsg{state: ctrl.State(), err: err}
	}
}

// Controller calls that publish run as Cmds: a subscriber sends into the
// program, which must not happen on the event loop.

func (m shellModel) move(delta int) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.MoveSelection(delta)
		return stateMsg{state: ctrl.State()}
	}
}

func (m shellModel) stop() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		ctrl.Stop(ctx)
		return stateMsg{state: ctrl.State()}
	}
}

// applyState mirrors st and prints a prompt the first time it is shown.
func (m shellModel) applyState(st domain.ConversationState) (tea.Model, tea.Cmd) {
	m.st = st
	if st.InputPrefill != "" && m.input.Value() == "" {
		m.input.SetValue(st.InputPrefill)
		m.input.CursorEnd()
	}
	if !st.HasPrompt() || st.EditablePrompt == m.printed || m.running {
		return m, nil
	}
	m.printed = st.EditablePrompt
	return m, tea.Println(m.renderPrompt(st))
}

func (m shellModel) renderPrompt(st domain.ConversationState) string {
	return formatter.Header("Prompt") + "  " + formatter.SourceBadge(st.PromptSource) + "\n" +
		m.renderer.Render(st.EditablePrompt)
}

// ── history ──────────────────────────────────────────────────────────────────

func (m *shellModel) addHistory(line string) {
	m.history = append(m.history, line)
	m.historyIdx = len(m.history)
	m.saveLine(line)
}

func (m *shellModel) historyUp() {
	if m.historyIdx > 0 {
		m.historyIdx--
		m.input.SetValue(m.history[m.historyIdx])
		m.input.CursorEnd()
	}
}

func (m *shellModel) historyDown() {
	if m.historyIdx < len(m.history)-1 {
		m.historyIdx++
		m.input.SetValue(m.history[m.historyIdx])
		m.input.CursorEnd()
	} else {
		m.historyIdx = len(m.history)
		m.input.SetValue("")
	}
}
