package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/promptforge/internal/apperr"
	"github.com/alexanderramin/promptforge/internal/auth"
	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/pipeline"
)

type stubGenerator struct {
	mu       sync.Mutex
	callers  []pipeline.Caller
	finals   []pipeline.FinalRequest
	edits    []pipeline.EditRequest
	err      error
	question pipeline.QuestionSet
	result   pipeline.PromptResult
}

func (s *stubGenerator) GenerateClarifyingQuestions(_ context.Context, req pipeline.Request) (pipeline.QuestionSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callers = append(s.callers, req.Caller)
	return s.question, s.err
}

func (s *stubGenerator) GenerateFinalPrompt(_ context.Context, req pipeline.FinalRequest) (pipeline.PromptResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callers = append(s.callers, req.Caller)
	s.finals = append(s.finals, req)
	return s.result, s.err
}

func (s *stubGenerator) EditPrompt(_ context.Context, req pipeline.EditRequest) (pipeline.PromptResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callers = append(s.callers, req.Caller)
	s.edits = append(s.edits, req)
	return s.result, s.err
}

func newTestHandler(gen *stubGenerator) http.Handler {
	return NewHandler(Deps{
		Pipeline: gen,
		Tokens:   auth.NewTokenTable(map[string]auth.User{"good-token": {ID: "u-1", Email: "u1@example.com"}}),
	})
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:51234"
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestHandler(&stubGenerator{}), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestQuestions_ReturnsQuestionSet(t *testing.T) {
	gen := &stubGenerator{question: pipeline.QuestionSet{
		Questions: []domain.ClarifyingQuestion{{ID: "q1", Question: "Who reads it?"}},
		Source:    domain.SourceLLM,
	}}
	h := newTestHandler(gen)

	rec := do(t, h, http.MethodPost, "/v1/questions",
		`{"task":"write a launch announcement for our new feature"}`,
		map[string]string{"Authorization": "Bearer good-token", SessionHeader: "sess-9"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp questionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Questions, 1)
	assert.Equal(t, "Who reads it?", resp.Questions[0].Question)
	assert.Equal(t, domain.SourceLLM, resp.Source)

	require.Len(t, gen.callers, 1)
	c := gen.callers[0]
	require.NotNil(t, c.User)
	assert.Equal(t, "u-1", c.User.ID)
	assert.Equal(t, "sess-9", c.SessionID)
	assert.Equal(t, "203.0.113.7", c.Addr)
}

func TestQuestions_UnclearTaskRejectedUnlessAllowed(t *testing.T) {
	gen := &stubGenerator{}
	h := newTestHandler(gen)

	rec := do(t, h, http.MethodPost, "/v1/questions", `{"task":"qwrtzpsdfghjkl"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(apperr.CodeUnclearTask), decodeError(t, rec).Code)
	assert.Empty(t, gen.callers)

	rec = do(t, h, http.MethodPost, "/v1/questions", `{"task":"qwrtzpsdfghjkl","allowUnclear":true}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, gen.callers, 1)
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"anonymous", "", http.StatusOK, ""},
		{"valid token", "Bearer good-token", http.StatusOK, "u-1"},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic Zm9vOmJhcg==", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{result: pipeline.PromptResult{Prompt: "p"}}
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			rec := do(t, newTestHandler(gen), http.MethodPost, "/v1/edits",
				`{"prompt":"old","instruction":"shorter"}`, headers)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, string(apperr.CodeUnauthenticated), decodeError(t, rec).Code)
				assert.Empty(t, gen.callers)
				return
			}
			require.Len(t, gen.callers, 1)
			if tt.wantUser == "" {
				assert.Nil(t, gen.callers[0].User)
			} else {
				assert.Equal(t, tt.wantUser, gen.callers[0].User.ID)
			}
		})
	}
}

func TestPrompts_PassesAnswersAndPreferences(t *testing.T) {
	gen := &stubGenerator{result: pipeline.PromptResult{
		Prompt: "You are a copywriter.", Source: domain.PromptFromLLM, Model: "gpt-4o-mini", HistoryID: "h-1",
	}}
	rec := do(t, newTestHandler(gen), http.MethodPost, "/v1/prompts", `{
		"task": "write a product launch email",
		"preferences": {"tone": "friendly"},
		"answers": [{"questionId":"q1","question":"Audience?","answer":"developers"}]
	}`, map[string]string{"Authorization": "Bearer good-token"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"prompt":"You are a copywriter.","source":"llm","model":"gpt-4o-mini","historyId":"h-1"}`, rec.Body.String())
	require.Len(t, gen.finals, 1)
	assert.Equal(t, "friendly", gen.finals[0].Preferences.Tone)
	require.Len(t, gen.finals[0].Answers, 1)
	assert.Equal(t, "developers", gen.finals[0].Answers[0].Answer)
}

func TestEdits_RequiresPrompt(t *testing.T) {
	gen := &stubGenerator{}
	rec := do(t, newTestHandler(gen), http.MethodPost, "/v1/edits", `{"prompt":"  ","instruction":"x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, gen.edits)
}

func TestBadBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"task":`},
		{"unknown field", `{"task":"write an email","bogus":1}`},
		{"too large", `{"task":"` + strings.Repeat("a", maxRequestBodySize) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestHandler(&stubGenerator{}), http.MethodPost, "/v1/prompts", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "BAD_REQUEST", decodeError(t, rec).Code)
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		check      func(t *testing.T, d errorDetail)
	}{
		{"unauthenticated", apperr.Unauthenticated(), http.StatusUnauthorized, "UNAUTHENTICATED", nil},
		{"too short", apperr.InvalidInput(apperr.ReasonTooShort), http.StatusBadRequest, "INVALID_INPUT",
			func(t *testing.T, d errorDetail) { assert.Equal(t, apperr.ReasonTooShort, d.Reason) }},
		{"rate limited", apperr.RateLimited("generate"), http.StatusTooManyRequests, "RATE_LIMITED",
			func(t *testing.T, d errorDetail) { assert.Equal(t, "generate", d.Scope) }},
		{"quota", apperr.QuotaExceeded("edit"), http.StatusPaymentRequired, "QUOTA_EXCEEDED",
			func(t *testing.T, d errorDetail) { assert.Equal(t, "edit", d.Kind) }},
		{"unavailable", apperr.ServiceUnavailable("provider", errors.New("boom")), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE",
			func(t *testing.T, d errorDetail) { assert.NotContains(t, d.Message, "boom") }},
		{"untyped", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL",
			func(t *testing.T, d errorDetail) { assert.NotContains(t, d.Message, "disk") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{err: tt.err}
			rec := do(t, newTestHandler(gen), http.MethodPost, "/v1/prompts", `{"task":"write a product launch email"}`, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			d := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, d.Code)
			assert.NotEmpty(t, d.Message)
			if tt.check != nil {
				tt.check(t, d)
			}
		})
	}
}
