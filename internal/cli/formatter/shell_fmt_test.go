package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatShellWelcome(t *testing.T) {
	out := FormatShellWelcome("alice", false)
	assert.Contains(t, out, "promptforge")
	assert.Contains(t, out, "Signed in as alice")
	assert.NotContains(t, out, "Picked up")

	out = FormatShellWelcome("", true)
	assert.Contains(t, out, "Not signed in")
	assert.Contains(t, out, "Picked up your last conversation")
}

func TestFormatShellHelp(t *testing.T) {
	out := FormatShellHelp()
	assert.Contains(t, out, "COMMANDS")
	for _, cmd := range []string{"/new", "/clear", "/restore", "/stop", "/back", "/skip", "/edit", "/quick", "/prefs", "/login", "/logout", "/revise", "/exit"} {
		assert.Contains(t, out, cmd)
	}
}
