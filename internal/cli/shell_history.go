package cli

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

const maxHistoryLines = 500

// lineHistory persists shell input lines across runs. Failures are
// ignored; history is best-effort.
type lineHistory struct {
	path string
}

// newLineHistory keeps history next to the database file.
func newLineHistory(dbPath string) lineHistory {
	if dbPath == "" || dbPath == ":memory:" {
		return lineHistory{}
	}
	return lineHistory{path: filepath.Join(filepath.Dir(dbPath), "shell_history")}
}

// Load returns the most recent lines, oldest first.
func (h lineHistory) Load() []string {
	if h.path == "" {
		return nil
	}
	f, err := os.Open(h.path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > maxHistoryLines {
		lines = lines[len(lines)-maxHistoryLines:]
	}
	return lines
}

// Append adds one line. Login lines are not kept.
func (h lineHistory) Append(line string) {
	line = strings.TrimSpace(line)
	if h.path == "" || line == "" || strings.HasPrefix(line, "/login") {
		return
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(line + "\n")
}
