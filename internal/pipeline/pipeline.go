// Package pipeline performs the three provider-backed operations: clarifying
// questions, final prompt generation and prompt editing. Every operation
// sanitizes its inputs, checks rate limits and quota before the provider is
// called, and treats provider output as untrusted.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/promptforge/internal/apperr"
	"github.com/alexanderramin/promptforge/internal/auth"
	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/guard"
	"github.com/alexanderramin/promptforge/internal/llm"
	"github.com/alexanderramin/promptforge/internal/quota"
	"github.com/alexanderramin/promptforge/internal/ratelimit"
)

// Rate-limit scopes.
const (
	ScopeClarify  = "clarify"
	ScopeGenerate = "generate"
	ScopeEdit     = "edit"
)

// HistoryStore records generated prompts.
type HistoryStore interface {
	AddHistory(ctx context.Context, entry domain.HistoryEntry) error
}

// EventSink receives analytics events. Failures are logged, never surfaced.
type EventSink interface {
	RecordEvent(ctx context.Context, event domain.Event) error
}

// Caller identifies who is asking. User is nil for anonymous callers.
type Caller struct {
	User      *auth.User
	SessionID string
	Addr      string
}

func (c Caller) userID() string {
	if c.User == nil {
		return ""
	}
	return c.User.ID
}

func (c Caller) rateKeys() []ratelimit.Key {
	return []ratelimit.Key{ratelimit.UserKey(c.userID()), ratelimit.IPKey(c.Addr)}
}

// Request asks for clarifying questions.
type Request struct {
	Caller      Caller
	Task        string
	Preferences domain.Preferences
}

// QuestionSet is the outcome of GenerateClarifyingQuestions.
type QuestionSet struct {
	Questions []domain.ClarifyingQuestion
	Source    domain.QuestionSource
}

// FinalRequest asks for the finished prompt.
type FinalRequest struct {
	Caller      Caller
	Task        string
	Preferences domain.Preferences
	Answers     []domain.ClarifyingAnswer
}

// EditRequest asks for a revision of an existing prompt.
type EditRequest struct {
	Caller      Caller
	Prompt      string
	Instruction string
	Preferences domain.Preferences
}

// PromptResult is the outcome of GenerateFinalPrompt and EditPrompt.
type PromptResult struct {
	Prompt    string
	Source    domain.PromptSource
	Model     string
	HistoryID string
}

// Config controls pipeline behavior.
type Config struct {
	// AllowFallback enables the fixed question set when the provider fails.
	// When false, question failures surface as SERVICE_UNAVAILABLE.
	AllowFallback bool
	StandardModel string
	PremiumModel  string
}

// Deps are the pipeline's collaborators. Only Client is required; nil
// Ledger, Limiter, History or Events disable that concern.
type Deps struct {
	Client  llm.Client
	Ledger  *quota.Ledger
	Limiter *ratelimit.Limiter
	History HistoryStore
	Events  EventSink
	Logger  *slog.Logger
	Now     func() time.Time
}

// Pipeline implements the provider-backed operations.
type Pipeline struct {
	cfg  Config
	deps Deps
}

// New creates a Pipeline.
func New(cfg Config, deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Pipeline{cfg: cfg, deps: deps}
}

// AllowFallback reports whether the fixed question set may be used.
func (p *Pipeline) AllowFallback() bool { return p.cfg.AllowFallback }

// GenerateClarifyingQuestions asks the provider for questions about the task.
func (p *Pipeline) GenerateClarifyingQuestions(ctx context.Context, req Request) (QuestionSet, error) {
	task, err := guard.ValidateTask(req.Task)
	if err != nil {
		p.reject(ctx, req.Caller, ScopeClarify, err)
		return QuestionSet{}, err
	}
	prefs := SanitizePreferences(req.Preferences)

	if err := p.admit(ctx, req.Caller, ScopeClarify, domain.QuotaClarifying, false); err != nil {
		return QuestionSet{}, err
	}

	questions, cause := p.fetchQuestions(ctx, task, prefs)
	if cause == nil {
		p.emit(ctx, req.Caller.SessionID, domain.EventQuestionsGenerated, map[string]any{
			"task_label": guard.Label(task),
			"count":      len(questions),
		})
		return QuestionSet{Questions: questions, Source: domain.SourceLLM}, nil
	}

	p.deps.Logger.Warn("clarifying questions failed",
		"task", guard.Label(task), "stage", "clarifying", "error", cause)
	if ctx.Err() != nil {
		return QuestionSet{}, ctx.Err()
	}
	if !p.cfg.AllowFallback {
		return QuestionSet{}, apperr.ServiceUnavailable("questions_unavailable", cause)
	}
	p.emit(ctx, req.Caller.SessionID, domain.EventQuestionsFallback, map[string]any{
		"task_label": guard.Label(task),
	})
	return QuestionSet{Questions: FallbackQuestions(), Source: domain.SourceFallback}, nil
}

func (p *Pipeline) fetchQuestions(ctx context.Context, task string, prefs domain.Preferences) ([]domain.ClarifyingQuestion, error) {
	if p.deps.Client == nil {
		return nil, llm.ErrNotConfigured
	}
	resp, err := p.deps.Client.Complete(ctx, llm.Request{
		Task:         llm.TaskClarify,
		Model:        p.cfg.StandardModel,
		SystemPrompt: clarifySystemPrompt,
		UserPrompt:   buildClarifyPrompt(task, prefs),
		JSON:         true,
	})
	if err != nil {
		return nil, err
	}
	env, err := llm.ExtractJSON[questionEnvelope](resp.Text, validateEnvelope)
	if err != nil {
		return nil, err
	}
	questions := normalizeQuestions(env.Questions)
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no usable questions", llm.ErrInvalidOutput)
	}
	return questions, nil
}

// GenerateFinalPrompt produces the finished prompt. Provider failures
// degrade to the task text; only auth, input, rate and quota errors are
// returned.
func (p *Pipeline) GenerateFinalPrompt(ctx context.Context, req FinalRequest) (PromptResult, error) {
	if req.Caller.User == nil || req.Caller.User.ID == "" {
		return PromptResult{}, apperr.Unauthenticated()
	}
	task, err := guard.ValidateTask(req.Task)
	if err != nil {
		p.reject(ctx, req.Caller, ScopeGenerate, err)
		return PromptResult{}, err
	}
	prefs := SanitizePreferences(req.Preferences)
	answers := SanitizeAnswers(req.Answers)

	if err := p.admit(ctx, req.Caller, ScopeGenerate, domain.QuotaGeneration, true); err != nil {
		return PromptResult{}, err
	}

	premium := p.routePremium(ctx, req.Caller.userID())
	model := p.cfg.StandardModel
	source := domain.PromptFromLLM
	if premium {
		model = p.cfg.PremiumModel
		source = domain.PromptFromPremium
	}

	result := PromptResult{Model: model, Source: source}
	body, cause := p.complete(ctx, llm.TaskFinal, model, finalSystemPrompt,
		buildFinalPrompt(task, answers, prefs), prefs.Temperature)
	if cause != nil {
		if ctx.Err() != nil {
			return PromptResult{}, ctx.Err()
		}
		p.deps.Logger.Warn("final prompt degraded",
			"task", guard.Label(task), "stage", "generating", "model", model, "error", cause)
		result.Prompt = task
		result.Source = domain.PromptDegraded
		result.Model = ""
		p.emit(ctx, req.Caller.SessionID, domain.EventPromptDegraded, map[string]any{
			"task_label": guard.Label(task),
		})
	} else {
		result.Prompt = body
		p.emit(ctx, req.Caller.SessionID, domain.EventPromptGenerated, map[string]any{
			"task_label": guard.Label(task),
			"premium":    premium,
			"answers":    len(answers),
		})
	}

	result.HistoryID = p.record(ctx, req.Caller, task, result)
	return result, nil
}

// routePremium consumes a premium slot when the caller's tier has premium
// allowance left. The slot is only taken when the premium model will be used.
func (p *Pipeline) routePremium(ctx context.Context, userID string) bool {
	if p.deps.Ledger == nil || p.cfg.PremiumModel == "" || p.cfg.PremiumModel == p.cfg.StandardModel {
		return false
	}
	rec, err := p.deps.Ledger.Record(ctx, userID)
	if err != nil || !p.deps.Ledger.Tiers().AllowsPremium(rec.Tier) || rec.PremiumFinalsRemaining <= 0 {
		return false
	}
	if _, err := p.deps.Ledger.ConsumePremiumSlot(ctx, userID); err != nil {
		if apperr.CodeOf(err) != apperr.CodeQuotaExceeded {
			p.deps.Logger.Warn("premium slot unavailable", "user", userID, "error", err)
		}
		return false
	}
	return true
}

// EditPrompt revises a prompt. Any provider or parse failure returns the
// prompt unchanged.
func (p *Pipeline) EditPrompt(ctx context.Context, req EditRequest) (PromptResult, error) {
	if req.Caller.User == nil || req.Caller.User.ID == "" {
		return PromptResult{}, apperr.Unauthenticated()
	}
	current := guard.Sanitize(req.Prompt, guard.MaxOutputLen)
	instruction := guard.Sanitize(req.Instruction, guard.MaxEditLen)
	if current == "" || instruction == "" {
		err := apperr.InvalidInput(apperr.ReasonTooShort)
		p.reject(ctx, req.Caller, ScopeEdit, err)
		return PromptResult{}, err
	}
	prefs := SanitizePreferences(req.Preferences)

	if err := p.admit(ctx, req.Caller, ScopeEdit, domain.QuotaEdit, true); err != nil {
		return PromptResult{}, err
	}

	body, cause := p.complete(ctx, llm.TaskEdit, p.cfg.StandardModel, editSystemPrompt,
		buildEditPrompt(current, instruction, prefs), prefs.Temperature)
	if cause != nil {
		if ctx.Err() != nil {
			return PromptResult{}, ctx.Err()
		}
		p.deps.Logger.Warn("prompt edit left unchanged", "stage", "editing", "error", cause)
		return PromptResult{Prompt: current, Source: domain.PromptUnchanged}, nil
	}
	p.emit(ctx, req.Caller.SessionID, domain.EventPromptEdited, map[string]any{
		"instruction_len": len(instruction),
	})
	return PromptResult{Prompt: body, Source: domain.PromptFromLLM, Model: p.cfg.StandardModel}, nil
}

// complete calls the provider and extracts a non-empty {prompt} body.
func (p *Pipeline) complete(ctx context.Context, task llm.TaskType, model, system, user string, temp *float64) (string, error) {
	if p.deps.Client == nil {
		return "", llm.ErrNotConfigured
	}
	resp, err := p.deps.Client.Complete(ctx, llm.Request{
		Task:         task,
		Model:        model,
		SystemPrompt: system,
		UserPrompt:   user,
		JSON:         true,
		Temperature:  temp,
	})
	if err != nil {
		return "", err
	}
	out, err := llm.ExtractJSON[promptEnvelope](resp.Text, nil)
	if err != nil {
		return "", err
	}
	body := guard.Sanitize(out.Prompt, guard.MaxOutputLen)
	if body == "" {
		return "", fmt.Errorf("%w: empty prompt", llm.ErrInvalidOutput)
	}
	return body, nil
}

type promptEnvelope struct {
	Prompt string `json:"prompt"`
}

// admit applies rate limits and consumes one unit of kind. Anonymous
// callers are only metered by address unless auth is required.
func (p *Pipeline) admit(ctx context.Context, c Caller, scope string, kind domain.QuotaKind, requireUser bool) error {
	if requireUser && c.userID() == "" {
		return apperr.Unauthenticated()
	}
	if p.deps.Limiter != nil {
		if err := p.deps.Limiter.Check(c.rateKeys(), scope); err != nil {
			p.reject(ctx, c, scope, err)
			return err
		}
	}
	if p.deps.Ledger != nil && c.userID() != "" {
		if _, err := p.deps.Ledger.Consume(ctx, c.userID(), kind); err != nil {
			p.reject(ctx, c, scope, err)
			return err
		}
	}
	return nil
}

func (p *Pipeline) record(ctx context.Context, c Caller, task string, res PromptResult) string {
	if p.deps.History == nil {
		return ""
	}
	entry := domain.HistoryEntry{
		ID:        uuid.New().String(),
		UserID:    c.userID(),
		Task:      task,
		Label:     guard.Label(task),
		Body:      res.Prompt,
		Model:     res.Model,
		Source:    res.Source,
		CreatedAt: p.deps.Now(),
	}
	if err := p.deps.History.AddHistory(ctx, entry); err != nil {
		p.deps.Logger.Error("recording history failed", "user", entry.UserID, "error", err)
		return ""
	}
	return entry.ID
}

func (p *Pipeline) reject(ctx context.Context, c Caller, scope string, err error) {
	code := apperr.CodeOf(err)
	p.deps.Logger.Info("request rejected", "scope", scope, "code", code, "user", c.userID())
	p.emit(ctx, c.SessionID, domain.EventRequestRejected, map[string]any{
		"scope": scope,
		"code":  code,
	})
}

func (p *Pipeline) emit(ctx context.Context, sessionID string, typ domain.EventType, payload map[string]any) {
	if p.deps.Events == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		p.deps.Logger.Error("encoding event failed", "type", typ, "error", err)
		return
	}
	ev := domain.Event{SessionID: sessionID, Type: typ, Payload: data, CreatedAt: p.deps.Now()}
	if err := p.deps.Events.RecordEvent(context.WithoutCancel(ctx), ev); err != nil {
		p.deps.Logger.Warn("recording event failed", "type", typ, "error", err)
	}
}

// SanitizePreferences strips control characters from every preference value
// and caps it at the preference length.
func SanitizePreferences(in domain.Preferences) domain.Preferences {
	out := domain.Preferences{DoNotAsk: append([]domain.PreferenceKey(nil), in.DoNotAsk...)}
	for _, k := range domain.AllPreferenceKeys {
		v, ok := in.Value(k)
		if !ok {
			continue
		}
		// Value always yields a parseable temperature, so Set cannot fail here.
		_ = out.Set(k, guard.Sanitize(v, guard.MaxPreferenceLen))
	}
	return out
}

// SanitizeAnswers caps every answer and its denormalized question text.
func SanitizeAnswers(in []domain.ClarifyingAnswer) []domain.ClarifyingAnswer {
	out := make([]domain.ClarifyingAnswer, len(in))
	for i, a := range in {
		out[i] = domain.ClarifyingAnswer{
			QuestionID: guard.Sanitize(a.QuestionID, maxIDLen),
			Question:   guard.Sanitize(a.Question, guard.MaxQuestionLen),
			Answer:     guard.Sanitize(a.Answer, guard.MaxAnswerLen),
		}
	}
	return out
}
