// Package api exposes the prompt pipeline over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alexanderramin/promptforge/internal/apperr"
	"github.com/alexanderramin/promptforge/internal/auth"
	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/guard"
	"github.com/alexanderramin/promptforge/internal/pipeline"
)

const maxRequestBodySize = 64 << 10

// SessionHeader carries an optional client session id used to tag events.
const SessionHeader = "X-Session-ID"

// Generator is the pipeline surface served by the API.
type Generator interface {
	GenerateClarifyingQuestions(ctx context.Context, req pipeline.Request) (pipeline.QuestionSet, error)
	GenerateFinalPrompt(ctx context.Context, req pipeline.FinalRequest) (pipeline.PromptResult, error)
	EditPrompt(ctx context.Context, req pipeline.EditRequest) (pipeline.PromptResult, error)
}

// Deps holds the handler's collaborators.
type Deps struct {
	Pipeline Generator
	Tokens   *auth.TokenTable
	Logger   *slog.Logger
}

// NewHandler builds the HTTP API router.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Tokens == nil {
		deps.Tokens = auth.NewTokenTable(nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(Authenticate(deps.Tokens))
		r.Post("/questions", handleQuestions(deps))
		r.Post("/prompts", handlePrompts(deps))
		r.Post("/edits", handleEdits(deps))
	})
	return r
}

// Authenticate resolves a bearer token to a user and attaches it to the
// request context. Requests without an Authorization header continue
// anonymously; an unknown token is rejected.
func Authenticate(tokens *auth.TokenTable) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				writeError(w, apperr.Unauthenticated())
				return
			}
			u, ok := tokens.Lookup(strings.TrimSpace(header[len(prefix):]))
			if !ok {
				writeError(w, apperr.Unauthenticated())
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
		})
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type questionsRequest struct {
	Task        string             `json:"task"`
	Preferences domain.Preferences `json:"preferences"`
	// AllowUnclear skips the garbled-input check, like "continue anyway".
	AllowUnclear bool `json:"allowUnclear"`
}

type questionsResponse struct {
	Questions []domain.ClarifyingQuestion `json:"questions"`
	Source    domain.QuestionSource       `json:"source"`
}

func handleQuestions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req questionsRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeBadRequest(w, err)
			return
		}
		if !req.AllowUnclear {
			if reason := guard.Classify(req.Task); reason != "" {
				writeError(w, apperr.UnclearTask(reason))
				return
			}
		}
		set, err := deps.Pipeline.GenerateClarifyingQuestions(r.Context(), pipeline.Request{
			Caller:      callerFrom(r),
			Task:        req.Task,
			Preferences: req.Preferences,
		})
		if err != nil {
			deps.logFailure(r, "questions", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, questionsResponse{Questions: set.Questions, Source: set.Source})
	}
}

type promptRequest struct {
	Task        string                    `json:"task"`
	Preferences domain.Preferences        `json:"preferences"`
	Answers     []domain.ClarifyingAnswer `json:"answers"`
}

type promptResponse struct {
	Prompt    string              `json:"prompt"`
	Source    domain.PromptSource `json:"source"`
	Model     string              `json:"model,omitempty"`
	HistoryID string              `json:"historyId,omitempty"`
}

func handlePrompts(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req promptRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeBadRequest(w, err)
			return
		}
		res, err := deps.Pipeline.GenerateFinalPrompt(r.Context(), pipeline.FinalRequest{
			Caller:      callerFrom(r),
			Task:        req.Task,
			Preferences: req.Preferences,
			Answers:     req.Answers,
		})
		if err != nil {
			deps.logFailure(r, "prompts", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPromptResponse(res))
	}
}

type editRequest struct {
	Prompt      string             `json:"prompt"`
	Instruction string             `json:"instruction"`
	Preferences domain.Preferences `json:"preferences"`
}

func handleEdits(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req editRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeBadRequest(w, err)
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			writeBadRequest(w, errors.New("prompt is required"))
			return
		}
		res, err := deps.Pipeline.EditPrompt(r.Context(), pipeline.EditRequest{
			Caller:      callerFrom(r),
			Prompt:      req.Prompt,
			Instruction: req.Instruction,
			Preferences: req.Preferences,
		})
		if err != nil {
			deps.logFailure(r, "edits", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPromptResponse(res))
	}
}

func toPromptResponse(res pipeline.PromptResult) promptResponse {
	return promptResponse{Prompt: res.Prompt, Source: res.Source, Model: res.Model, HistoryID: res.HistoryID}
}

func (d Deps) logFailure(r *http.Request, route string, err error) {
	if _, typed := apperr.As(err); typed {
		return
	}
	d.Logger.Error("api request failed", "route", route,
		"request_id", middleware.GetReqID(r.Context()), "error", err)
}

func callerFrom(r *http.Request) pipeline.Caller {
	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return pipeline.Caller{
		User:      auth.FromContext(r.Context()),
		SessionID: r.Header.Get(SessionHeader),
		Addr:      addr,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
