package api

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/promptforge/internal/apperr"
	"github.com/alexanderramin/promptforge/internal/auth"
	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/pipeline"
)

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent")
	return tc.Text
}

type failingIdentity struct{}

func (failingIdentity) CurrentUser(context.Context) (*auth.User, error) {
	return nil, errors.New("session store offline")
}

func mcpDeps(gen *stubGenerator) MCPDeps {
	return MCPDeps{
		Pipeline:  gen,
		Identity:  auth.NewStatic(&auth.User{ID: "local"}),
		SessionID: "mcp-sess",
	}
}

func TestNewMCPServer_RegistersTools(t *testing.T) {
	s := NewMCPServer(mcpDeps(&stubGenerator{}))
	require.NotNil(t, s)
	tools := s.ListTools()
	for _, name := range []string{"clarifying_questions", "generate_prompt", "edit_prompt"} {
		assert.Contains(t, tools, name)
	}
}

func TestMCPClarifyingQuestions(t *testing.T) {
	gen := &stubGenerator{question: pipeline.QuestionSet{
		Questions: []domain.ClarifyingQuestion{{
			ID:       "q1",
			Question: "Who is the audience?",
			Options:  []domain.ClarifyingOption{{ID: "a", Label: "Engineers"}, {ID: "b", Label: "Executives"}},
		}},
		Source: domain.SourceFallback,
	}}
	h := mcpClarifyingQuestions(mcpDeps(gen))

	res, err := h(context.Background(), makeCallToolRequest("clarifying_questions", map[string]interface{}{
		"task": "write a quarterly update",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	text := toolText(t, res)
	assert.Contains(t, text, "1. Who is the audience?")
	assert.Contains(t, text, "- Executives")
	assert.Contains(t, text, "generic questions")

	require.Len(t, gen.callers, 1)
	assert.Equal(t, "local", gen.callers[0].User.ID)
	assert.Equal(t, "mcp-sess", gen.callers[0].SessionID)
}

func TestMCPClarifyingQuestions_Rejections(t *testing.T) {
	tests := []struct {
		name string
		deps func(*stubGenerator) MCPDeps
		args map[string]interface{}
		want string
	}{
		{"missing task", mcpDeps, map[string]interface{}{}, "task is required"},
		{"unclear task", mcpDeps, map[string]interface{}{"task": "qwrtzpsdfghjkl"}, "UNCLEAR_TASK"},
		{"identity failure", func(g *stubGenerator) MCPDeps {
			d := mcpDeps(g)
			d.Identity = failingIdentity{}
			return d
		}, map[string]interface{}{"task": "write a quarterly update"}, "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{}
			res, err := mcpClarifyingQuestions(tt.deps(gen))(context.Background(),
				makeCallToolRequest("clarifying_questions", tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, toolText(t, res), tt.want)
			assert.Empty(t, gen.callers)
		})
	}
}

func TestMCPGeneratePrompt(t *testing.T) {
	gen := &stubGenerator{result: pipeline.PromptResult{Prompt: "You are an analyst.", Source: domain.PromptFromLLM}}
	h := mcpGeneratePrompt(mcpDeps(gen))

	res, err := h(context.Background(), makeCallToolRequest("generate_prompt", map[string]interface{}{
		"task":        "summarize the incident report",
		"answers":     `[{"questionId":"q1","question":"Length?","answer":"one paragraph"}]`,
		"preferences": `{"tone":"neutral"}`,
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "You are an analyst.", toolText(t, res))

	require.Len(t, gen.finals, 1)
	assert.Equal(t, "neutral", gen.finals[0].Preferences.Tone)
	require.Len(t, gen.finals[0].Answers, 1)
	assert.Equal(t, "one paragraph", gen.finals[0].Answers[0].Answer)
}

func TestMCPGeneratePrompt_BadArguments(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"bad answers", map[string]interface{}{"task": "summarize it all", "answers": "{"}, "answers must be a JSON array"},
		{"bad preferences", map[string]interface{}{"task": "summarize it all", "preferences": "[1]"}, "preferences must be a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{}
			res, err := mcpGeneratePrompt(mcpDeps(gen))(context.Background(), makeCallToolRequest("generate_prompt", tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, toolText(t, res), tt.want)
			assert.Empty(t, gen.finals)
		})
	}
}

func TestMCPGeneratePrompt_PipelineError(t *testing.T) {
	gen := &stubGenerator{err: apperr.QuotaExceeded("generation")}
	res, err := mcpGeneratePrompt(mcpDeps(gen))(context.Background(), makeCallToolRequest("generate_prompt",
		map[string]interface{}{"task": "summarize the incident report"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, toolText(t, res), "QUOTA_EXCEEDED")
}

func TestMCPEditPrompt(t *testing.T) {
	gen := &stubGenerator{result: pipeline.PromptResult{Prompt: "Shorter prompt."}}
	h := mcpEditPrompt(mcpDeps(gen))

	res, err := h(context.Background(), makeCallToolRequest("edit_prompt", map[string]interface{}{
		"prompt":      "A very long prompt.",
		"instruction": "make it shorter",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Shorter prompt.", toolText(t, res))
	require.Len(t, gen.edits, 1)
	assert.Equal(t, "make it shorter", gen.edits[0].Instruction)

	res, err = h(context.Background(), makeCallToolRequest("edit_prompt", map[string]interface{}{"prompt": "x"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, toolText(t, res), "instruction is required")
}
