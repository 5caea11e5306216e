package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/alexanderramin/promptforge/internal/apperr"
	"github.com/alexanderramin/promptforge/internal/auth"
	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/guard"
	"github.com/alexanderramin/promptforge/internal/pipeline"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Pipeline  Generator
	Identity  auth.Provider
	SessionID string
	Version   string
}

// NewMCPServer creates an MCP server exposing the prompt pipeline as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.Identity == nil {
		deps.Identity = auth.NewStatic(nil)
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	s := server.NewMCPServer(
		"promptforge",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithInstructions("promptforge turns a rough task description into a ready-to-use prompt."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("clarifying_questions",
			mcp.WithDescription("Ask a few short questions that narrow down what the task needs."),
			mcp.WithString("task", mcp.Description("The task to write a prompt for"), mcp.Required()),
		),
		mcpClarifyingQuestions(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_prompt",
			mcp.WithDescription("Generate the finished prompt for a task."),
			mcp.WithString("task", mcp.Description("The task to write a prompt for"), mcp.Required()),
			mcp.WithString("answers", mcp.Description("Optional JSON array of {questionId, question, answer} objects")),
			mcp.WithString("preferences", mcp.Description("Optional JSON object of preferences such as tone or audience")),
		),
		mcpGeneratePrompt(deps),
	)

	s.AddTool(
		mcp.NewTool("edit_prompt",
			mcp.WithDescription("Revise an existing prompt according to an instruction."),
			mcp.WithString("prompt", mcp.Description("The prompt to revise"), mcp.Required()),
			mcp.WithString("instruction", mcp.Description("What to change"), mcp.Required()),
		),
		mcpEditPrompt(deps),
	)

	return s
}

func (d MCPDeps) caller(ctx context.Context) (pipeline.Caller, error) {
	u, err := d.Identity.CurrentUser(ctx)
	if err != nil {
		return pipeline.Caller{}, err
	}
	return pipeline.Caller{User: u, SessionID: d.SessionID, Addr: "mcp"}, nil
}

func mcpClarifyingQuestions(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		task, err := req.RequireString("task")
		if err != nil {
			return mcpError("task is required"), nil
		}
		if reason := guard.Classify(task); reason != "" {
			return mcpAppError(apperr.UnclearTask(reason)), nil
		}
		c, err := deps.caller(ctx)
		if err != nil {
			return mcpAppError(err), nil
		}
		set, err := deps.Pipeline.GenerateClarifyingQuestions(ctx, pipeline.Request{Caller: c, Task: task})
		if err != nil {
			return mcpAppError(err), nil
		}
		return mcpText(formatQuestions(set)), nil
	}
}

func mcpGeneratePrompt(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		task, err := req.RequireString("task")
		if err != nil {
			return mcpError("task is required"), nil
		}
		var answers []domain.ClarifyingAnswer
		if raw := req.GetString("answers", ""); raw != "" {
			if err := json.Unmarshal([]byte(raw), &answers); err != nil {
				return mcpError(fmt.Sprintf("answers must be a JSON array: %v", err)), nil
			}
		}
		var prefs domain.Preferences
		if raw := req.GetString("preferences", ""); raw != "" {
			if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
				return mcpError(fmt.Sprintf("preferences must be a JSON object: %v", err)), nil
			}
		}
		c, err := deps.caller(ctx)
		if err != nil {
			return mcpAppError(err), nil
		}
		res, err := deps.Pipeline.GenerateFinalPrompt(ctx, pipeline.FinalRequest{
			Caller: c, Task: task, Answers: answers, Preferences: prefs,
		})
		if err != nil {
			return mcpAppError(err), nil
		}
		return mcpText(res.Prompt), nil
	}
}

func mcpEditPrompt(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		prompt, err := req.RequireString("prompt")
		if err != nil {
			return mcpError("prompt is required"), nil
		}
		instruction, err := req.RequireString("instruction")
		if err != nil {
			return mcpError("instruction is required"), nil
		}
		c, err := deps.caller(ctx)
		if err != nil {
			return mcpAppError(err), nil
		}
		res, err := deps.Pipeline.EditPrompt(ctx, pipeline.EditRequest{Caller: c, Prompt: prompt, Instruction: instruction})
		if err != nil {
			return mcpAppError(err), nil
		}
		return mcpText(res.Prompt), nil
	}
}

func formatQuestions(set pipeline.QuestionSet) string {
	var b strings.Builder
	for i, q := range set.Questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.Question)
		for _, o := range q.Options {
			fmt.Fprintf(&b, "   - %s\n", o.Label)
		}
	}
	if set.Source == domain.SourceFallback {
		b.WriteString("(generic questions; the question service was unavailable)\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func mcpAppError(err error) *mcp.CallToolResult {
	if e, ok := apperr.As(err); ok {
		return mcpError(fmt.Sprintf("%s: %s", e.Code, apperr.UserMessage(e)))
	}
	return mcpError(apperr.UserMessage(err))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
