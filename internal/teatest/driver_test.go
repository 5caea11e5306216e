package teatest

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoMsg string

// echoModel records typed runes, prints each submitted line and echoes it
// back through a Cmd.
type echoModel struct {
	typed  string
	echoed []string
	width  int
}

func (m echoModel) Init() tea.Cmd { return tea.Println("ready") }

func (m echoModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case echoMsg:
		m.echoed = append(m.echoed, string(msg))
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyRunes:
			m.typed += string(msg.Runes)
		case tea.KeyEnter:
			line := m.typed
			m.typed = ""
			return m, tea.Batch(tea.Println("> "+line), func() tea.Msg { return echoMsg(line) })
		case tea.KeyCtrlC:
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m echoModel) View() string { return "input: " + m.typed }

func TestDriver_DrainsBatchesAndCollectsPrintedLines(t *testing.T) {
	d := New(t, echoModel{}, WithSize(80, 24))
	d.DrainInit()

	d.Line("hi")

	m := d.Model.(echoModel)
	assert.Equal(t, 80, m.width)
	assert.Equal(t, []string{"hi"}, m.echoed)
	assert.Equal(t, []string{"ready", "> hi"}, d.Printed)
	assert.True(t, strings.HasSuffix(d.Output(), "input: "))
}

func TestDriver_QuitStopsFurtherInput(t *testing.T) {
	d := New(t, echoModel{})

	d.PressCtrlC()
	d.Type("ignored")

	assert.True(t, d.Quitting)
	assert.Empty(t, d.Model.(echoModel).typed)
}

func TestExecCmdWithTimeout_DropsSlowCmds(t *testing.T) {
	slow := func() tea.Msg {
		time.Sleep(200 * time.Millisecond)
		return echoMsg("late")
	}

	assert.Nil(t, execCmdWithTimeout(slow, 5*time.Millisecond))
	assert.Equal(t, echoMsg("late"), execCmdWithTimeout(slow, time.Second))
}

func TestPrintedLine(t *testing.T) {
	line, ok := printedLine(tea.Println("hello")())
	require.True(t, ok)
	assert.Equal(t, "hello", line)

	_, ok = printedLine(echoMsg("hello"))
	assert.False(t, ok)
}
