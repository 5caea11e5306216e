package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/promptforge/internal/cli/formatter"
	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/teatest"
)

// shellDriver wraps teatest.Driver with access to the shell model.
type shellDriver struct {
	*teatest.Driver
	saved []string
}

func newShellDriver(t *testing.T, app *testApp, opts shellOptions) *shellDriver {
	t.Helper()
	sd := &shellDriver{}
	if opts.renderer == nil {
		opts.renderer = formatter.NewPromptRenderer(80, false)
	}
	if opts.saveLine == nil {
		opts.saveLine = func(line string) { sd.saved = append(sd.saved, line) }
	}
	m := newShellModel(context.Background(), app.NewController(""), opts)
	m.input.Cursor.SetMode(cursor.CursorStatic)

	sd.Driver = teatest.New(t, m, teatest.WithSize(100, 30), teatest.WithCmdTimeout(5*time.Second))
	sd.DrainInit()
	return sd
}

func (d *shellDriver) model() shellModel {
	return d.Model.(shellModel)
}

func (d *shellDriver) state() domain.ConversationState {
	return d.model().ctrl.State()
}

func TestShell_WelcomeIsPrinted(t *testing.T) {
	app := newTestApp(t, "alice", "")

	d := newShellDriver(t, app, shellOptions{welcome: formatter.FormatShellWelcome("alice", false)})

	require.NotEmpty(t, d.Printed)
	assert.Contains(t, d.Printed[0], "Signed in as")
	assert.Contains(t, d.View(), "promptforge")
}

func TestShell_TaskThenConsentByArrowKeys(t *testing.T) {
	app := newTestApp(t, "alice", "")
	d := newShellDriver(t, app, shellOptions{})

	d.Line(landingTask)

	assert.Equal(t, domain.StageConsent, d.state().Stage)
	assert.Contains(t, d.View(), "Answer a few quick questions first?")
	assert.False(t, d.model().running)

	d.PressDown()
	assert.Equal(t, domain.ConsentNo, d.state().ConsentChoice)
	d.PressUp()
	assert.Equal(t, domain.ConsentYes, d.state().ConsentChoice)

	d.PressEnter()

	st := d.state()
	assert.Equal(t, domain.StageClarifying, st.Stage)
	assert.Contains(t, d.View(), "Who is the audience?")
	assert.Contains(t, d.View(), "[1/2]")
}

func TestShell_QuickModePrintsPrompt(t *testing.T) {
	app := newTestApp(t, "alice", "")
	d := newShellDriver(t, app, shellOptions{})

	d.Line("/quick")
	assert.Equal(t, domain.ModeQuick, d.model().ctrl.Mode())

	d.Line(landingTask)

	require.Equal(t, domain.StageReady, d.state().Stage)
	printed := strings.Join(d.Printed, "\n")
	assert.Contains(t, printed, "expert copywriter")
	assert.Contains(t, d.View(), "Your prompt is ready.")

	before := len(d.Printed)
	d.Send(stateMsg{state: d.state()})
	assert.Len(t, d.Printed, before, "a prompt is printed once")
}

func TestShell_HelpPrintsCommandBox(t *testing.T) {
	app := newTestApp(t, "alice", "")
	d := newShellDriver(t, app, shellOptions{})

	d.Line("/help")

	printed := strings.Join(d.Printed, "\n")
	assert.Contains(t, printed, "COMMANDS")
	assert.Contains(t, printed, "/exit")
	assert.True(t, d.state().IsEmpty(), "/help never reaches the conversation")
}

func TestShell_CtrlCQuitsWhenIdle(t *testing.T) {
	app := newTestApp(t, "alice", "")
	d := newShellDriver(t, app, shellOptions{})

	d.PressCtrlC()

	assert.True(t, d.Quitting)
	assert.Contains(t, d.View(), "Goodbye.")
}

func TestShell_ExitCommandQuits(t *testing.T) {
	app := newTestApp(t, "alice", "")
	d := newShellDriver(t, app, shellOptions{})

	d.Line("/exit")

	assert.True(t, d.Quitting)
}

func TestShell_EnterIgnoredWhileRunning(t *testing.T) {
	app := newTestApp(t, "alice", "")
	d := newShellDriver(t, app, shellOptions{})

	m := d.model()
	m.running = true
	d.Model = m
	d.Line(landingTask)

	assert.True(t, d.state().IsEmpty())
}

func TestShell_LoginRequiredShownInRed(t *testing.T) {
	app := newTestApp(t, "", "")
	d := newShellDriver(t, app, shellOptions{})

	d.Line("/quick")
	d.Line(landingTask)

	st := d.state()
	assert.Equal(t, domain.StageError, st.Stage)
	assert.NotNil(t, st.PendingLogin)
	assert.Contains(t, d.View(), "Sign in with /login <id>")

	d.Line("/login bob")

	assert.Equal(t, domain.StageReady, d.state().Stage)
	assert.Contains(t, strings.Join(d.Printed, "\n"), "expert copywriter")
}

func TestShell_HistoryNavigation(t *testing.T) {
	app := newTestApp(t, "alice", "")
	d := newShellDriver(t, app, shellOptions{history: []string{"/quick", "/guided"}})

	d.PressUp()
	assert.Equal(t, "/guided", d.model().input.Value())
	d.PressUp()
	assert.Equal(t, "/quick", d.model().input.Value())
	d.PressUp()
	assert.Equal(t, "/quick", d.model().input.Value(), "stops at the oldest line")
	d.PressDown()
	assert.Equal(t, "/guided", d.model().input.Value())
	d.PressDown()
	assert.Empty(t, d.model().input.Value())
}

func TestShell_SubmittedLinesAreSaved(t *testing.T) {
	app := newTestApp(t, "alice", "")
	d := newShellDriver(t, app, shellOptions{})

	d.Line("/guided")
	d.PressEnter()
	d.Line("/help")

	assert.Equal(t, []string{"/guided", "/help"}, d.saved)
}

func TestShell_PrefillFromState(t *testing.T) {
	app := newTestApp(t, "alice", "")
	d := newShellDriver(t, app, shellOptions{})

	d.Line("zzzzzzz headline")
	require.NotNil(t, d.state().PendingUnclear)
	assert.Contains(t, d.View(), "edit")

	d.PressEnter()

	assert.Equal(t, "zzzzzzz headline", d.model().input.Value(), "editing puts the task back in the input")
}

func TestShell_WindowSizeSetsInputWidth(t *testing.T) {
	app := newTestApp(t, "alice", "")
	d := newShellDriver(t, app, shellOptions{})

	d.Send(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, 120, d.model().width)
	assert.Equal(t, 100, d.model().input.Width)
}
