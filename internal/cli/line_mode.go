package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alexanderramin/promptforge/internal/cli/formatter"
	"github.com/alexanderramin/promptforge/internal/conversation"
	"github.com/alexanderramin/promptforge/internal/domain"
)

// lineSession runs the conversation over plain lines of text, for pipes
// and terminals where the shell cannot draw.
type lineSession struct {
	ctrl     *conversation.Controller
	out      io.Writer
	renderer *formatter.PromptRenderer
	printed  string
}

func newLineSession(ctrl *conversation.Controller, out io.Writer, renderer *formatter.PromptRenderer) *lineSession {
	s := &lineSession{ctrl: ctrl, out: out, renderer: renderer}
	if st := ctrl.State(); st.HasPrompt() {
		s.printed = st.EditablePrompt
	}
	return s
}

// Run reads lines from in until EOF or /exit. It returns the last state.
func (s *lineSession) Run(ctx context.Context, in io.Reader) (domain.ConversationState, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return s.ctrl.State(), err
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "/exit", "/quit":
			return s.ctrl.State(), nil
		case "/help":
			fmt.Fprint(s.out, formatter.FormatShellHelp()+"\n")
			continue
		}
		if err := s.Step(ctx, line); err != nil {
			fmt.Fprintln(s.out, formatter.StyleRed.Render("Error: "+ErrorText(err)))
		}
	}
	if err := scanner.Err(); err != nil {
		return s.ctrl.State(), fmt.Errorf("reading input: %w", err)
	}
	return s.ctrl.State(), nil
}

// Step submits one line and prints what changed. A bare number picks that
// choice of the active prompt.
func (s *lineSession) Step(ctx context.Context, line string) error {
	err := s.ctrl.Submit(ctx, resolveChoice(s.ctrl.State(), line))
	s.Print(s.ctrl.State())
	return err
}

// Print writes the active prompt, any newly finished prompt, and the
// status line.
func (s *lineSession) Print(st domain.ConversationState) {
	if p, ok := formatter.ActivePrompt(st); ok {
		fmt.Fprint(s.out, formatter.FormatPrompt(p))
	}
	if st.HasPrompt() && st.EditablePrompt != s.printed {
		s.printed = st.EditablePrompt
		fmt.Fprintln(s.out, formatter.Header("Prompt")+"  "+formatter.SourceBadge(st.PromptSource))
		fmt.Fprintln(s.out, s.renderer.Render(st.EditablePrompt))
	}
	if st.Status != "" {
		style := formatter.StyleDim
		if st.ErrorCode != "" {
			style = formatter.StyleRed
		}
		fmt.Fprintln(s.out, style.Render(st.Status))
	}
}

// resolveChoice turns "2" into the second choice's value when a prompt with
// choices is active. Anything else passes through.
func resolveChoice(st domain.ConversationState, line string) string {
	p, ok := formatter.ActivePrompt(st)
	if !ok || len(p.Choices) == 0 {
		return line
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(p.Choices) {
		return line
	}
	return p.Choices[n-1].Value
}

func runLineMode(ctx context.Context, app *App, mode domain.Mode, task string) error {
	ctrl := app.NewController(mode)
	restored, stopDrafts := app.AttachDrafts(ctx, ctrl)
	defer stopDrafts()

	s := newLineSession(ctrl, app.Out, formatter.NewPromptRenderer(80, false))
	if restored && task == "" {
		fmt.Fprintln(app.Out, formatter.Dim("Picked up your last conversation."))
		s.Print(ctrl.State())
	}
	if task != "" {
		if err := s.runTask(ctx, app, task); err != nil {
			return err
		}
	}
	_, err := s.Run(ctx, app.In)
	return err
}

// runTask submits the opening task with a spinner on the error stream.
func (s *lineSession) runTask(ctx context.Context, app *App, task string) error {
	sp := formatter.NewSpinner(app.Err, "Working...")
	if app.IsInteractive() {
		sp.Start()
	}
	err := s.ctrl.Submit(ctx, task)
	sp.Stop()
	s.Print(s.ctrl.State())
	return err
}
