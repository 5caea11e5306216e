package formatter

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/alexanderramin/promptforge/internal/domain"
)

// FormatHistoryList renders saved prompts newest first.
func FormatHistoryList(entries []domain.HistoryEntry, now time.Time) string {
	if len(entries) == 0 {
		return Dim("No prompts yet.") + "\n"
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			TruncID(e.ID),
			HumanTimestamp(e.CreatedAt, now),
			SourceBadge(e.Source),
			Truncate(e.Label, 50),
		}
	}
	return RenderTable([]string{"ID", "WHEN", "SOURCE", "TASK"}, rows)
}

// FormatHistoryEntry renders one saved prompt with its metadata. body is the
// already-rendered prompt text.
func FormatHistoryEntry(e domain.HistoryEntry, body string, now time.Time) string {
	var b strings.Builder
	b.WriteString(Header(e.Label) + "\n")
	meta := []string{SourceBadge(e.Source), HumanTimestamp(e.CreatedAt, now)}
	if e.Model != "" {
		meta = append(meta, Dim(e.Model))
	}
	b.WriteString(strings.Join(meta, Dim("  ·  ")) + "\n\n")
	b.WriteString(Dim("Task: ") + e.Task + "\n\n")
	b.WriteString(body + "\n")
	return b.String()
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HistoryHTML renders a saved prompt as a standalone HTML page. The prompt
// body is treated as markdown; raw HTML inside it is not passed through.
func HistoryHTML(e domain.HistoryEntry) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(e.Body), &body); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(e.Label))
	b.WriteString("</head>\n<body>\n<article>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(e.Label))
	fmt.Fprintf(&b, "<p class=\"meta\">%s · %s</p>\n",
		html.EscapeString(string(e.Source)), e.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "<blockquote class=\"task\">%s</blockquote>\n", html.EscapeString(e.Task))
	b.Write(body.Bytes())
	b.WriteString("</article>\n</body>\n</html>\n")
	return b.String(), nil
}
