// Package conversation owns the interactive flow of one session. Every
// submitted line is routed to the consent gate, the clarifying engine, the
// preference engine or the pipeline, and every state change is published to
// subscribers such as the draft saver.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/promptforge/internal/apperr"
	"github.com/alexanderramin/promptforge/internal/auth"
	"github.com/alexanderramin/promptforge/internal/clarify"
	"github.com/alexanderramin/promptforge/internal/domain"
	"github.com/alexanderramin/promptforge/internal/guard"
	"github.com/alexanderramin/promptforge/internal/pipeline"
	"github.com/alexanderramin/promptforge/internal/prefs"
)

// Generator is the part of the pipeline the controller drives.
type Generator interface {
	GenerateClarifyingQuestions(ctx context.Context, req pipeline.Request) (pipeline.QuestionSet, error)
	GenerateFinalPrompt(ctx context.Context, req pipeline.FinalRequest) (pipeline.PromptResult, error)
	EditPrompt(ctx context.Context, req pipeline.EditRequest) (pipeline.PromptResult, error)
}

// PreferenceStore loads and saves preferences by scope ("user:<id>" or
// "session:<id>"). A missing row loads as empty preferences.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, scope string) (domain.Preferences, error)
	SavePreferences(ctx context.Context, scope string, p domain.Preferences) error
}

// Identity is the sign-in provider. SetUser backs /login and /logout.
type Identity interface {
	auth.Provider
	SetUser(u *auth.User)
}

// Config controls flow defaults.
type Config struct {
	DefaultMode     domain.Mode
	PreferenceOrder []domain.PreferenceKey
	SessionID       string
	Addr            string
}

// Deps are the controller's collaborators. Pipeline is required.
type Deps struct {
	Pipeline    Generator
	Identity    Identity
	Preferences PreferenceStore
	Events      pipeline.EventSink
	Logger      *slog.Logger
	Now         func() time.Time
}

// Update is published after every state change.
type Update struct {
	State    domain.ConversationState
	Snapshot *domain.Snapshot
}

// Choices offered while an unclear task awaits a decision.
const (
	unclearEdit     = 0
	unclearContinue = 1
)

// job is work to run with the lock released. It returns the next job, if any.
type job func() job

type pendingEvent struct {
	ctx context.Context
	ev  domain.Event
}

// Controller is the single owner of a session's conversation state. Engines
// mutate that state only while the controller's lock is held; the lock is
// released around pipeline calls.
type Controller struct {
	cfg  Config
	deps Deps

	mu       sync.Mutex
	st       domain.ConversationState
	snapshot *domain.Snapshot
	override domain.Mode
	local    domain.Preferences
	running  bool
	subs     []func(Update)
	outbox   []pendingEvent

	clarify *clarify.Engine
	prefs   *prefs.Engine
	wizard  *prefs.Wizard
	runs    pipeline.RunGuard
}

// New creates a Controller with an empty conversation.
func New(cfg Config, deps Deps) *Controller {
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = domain.ModeGuided
	}
	if len(cfg.PreferenceOrder) == 0 {
		cfg.PreferenceOrder = prefs.DefaultOrder
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if deps.Identity == nil {
		deps.Identity = auth.NewStatic(nil)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	c := &Controller{cfg: cfg, deps: deps, st: domain.NewConversationState()}
	c.clarify = clarify.New(&c.st)
	c.prefs = prefs.New(&c.st)
	c.wizard = prefs.NewWizard(&c.st)
	return c
}

// SessionID returns the session this controller serves.
func (c *Controller) SessionID() string { return c.cfg.SessionID }

// Restore replaces the conversation with rehydrated state, typically from a
// saved draft. Any in-flight run is dropped.
func (c *Controller) Restore(st domain.ConversationState, snap *domain.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs.Invalidate()
	c.running = false
	c.st = st.Clone().Interrupted()
	c.snapshot = snap.Clone()
}

// Subscribe registers fn to receive every state change. fn runs without the
// controller's lock held.
func (c *Controller) Subscribe(fn func(Update)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// State returns a deep copy of the current conversation.
func (c *Controller) State() domain.ConversationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.Clone()
}

// Snapshot returns a copy of the retained snapshot, or nil.
func (c *Controller) Snapshot() *domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot.Clone()
}

// Mode returns the mode new tasks will start in.
func (c *Controller) Mode() domain.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode()
}

// Submit handles one line of input. An empty line activates the highlighted
// choice. Flow failures are reported through the state's Status and
// ErrorCode; the returned error is reserved for failures the caller should
// surface on their own, such as a preference save that did not persist.
func (c *Controller) Submit(ctx context.Context, raw string) error {
	c.mu.Lock()
	next, err := c.submit(ctx, raw)
	c.unlockAndPublish()
	c.run(next)
	return err
}

// Activate acts on the highlighted choice, as Enter on an empty input does.
func (c *Controller) Activate(ctx context.Context) error {
	return c.Submit(ctx, "")
}

// MoveSelection moves the highlight of whichever prompt is active.
func (c *Controller) MoveSelection(delta int) {
	c.mu.Lock()
	switch {
	case c.wizard.Active():
		c.wizard.MoveSelection(delta)
	case c.clarify.AwaitingConsent():
		if delta%2 != 0 {
			c.st.ConsentChoice = domain.ConsentYes + domain.ConsentNo - c.st.ConsentChoice
		}
	case c.st.PendingUnclear != nil:
		if delta%2 != 0 {
			if c.st.OptionChoice == unclearEdit {
				c.st.OptionChoice = unclearContinue
			} else {
				c.st.OptionChoice = unclearEdit
			}
		}
	case c.clarify.Active():
		c.clarify.MoveSelection(delta)
	case c.prefs.Active():
		c.prefs.MoveSelection(delta)
	}
	c.unlockAndPublish()
}

// Stop abandons the in-flight generation. Its result, if it still arrives,
// is discarded.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	c.halt(ctx)
	c.unlockAndPublish()
}

// ResumeAfterLogin retries the generation that was blocked by sign-in.
func (c *Controller) ResumeAfterLogin(ctx context.Context) error {
	c.mu.Lock()
	next, err := c.resumeAfterLogin(ctx)
	c.unlockAndPublish()
	c.run(next)
	return err
}

func (c *Controller) submit(ctx context.Context, raw string) (job, error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return c.activate(ctx)
	}
	c.st.InputPrefill = ""
	if strings.HasPrefix(line, "/") {
		return c.command(ctx, line)
	}

	switch {
	case c.wizard.Active():
		values, done := c.wizard.Answer(line)
		return nil, c.afterWizard(ctx, values, done)
	case c.st.Revising:
		c.st.Revising = false
		if line == c.st.Task {
			return c.resume(ctx), nil
		}
		return c.newTask(ctx, line), nil
	case c.clarify.AwaitingConsent():
		yes, ok := clarify.ParseConsent(line, c.st.ConsentChoice)
		if !ok {
			return nil, nil
		}
		return c.consent(ctx, yes), nil
	case c.st.PendingUnclear != nil:
		return c.decideUnclear(ctx, line), nil
	case c.clarify.Active():
		if line == c.st.Task {
			return c.resume(ctx), nil
		}
		return c.afterAnswer(ctx, c.clarify.Answer(line)), nil
	case c.prefs.Active():
		return c.afterPreference(ctx, c.prefs.Answer(line)), nil
	}
	return c.newTask(ctx, line), nil
}

func (c *Controller) activate(ctx context.Context) (job, error) {
	choice := c.st.OptionChoice
	switch {
	case c.wizard.Active():
		if choice >= 0 {
			values, done := c.wizard.SelectOption(choice)
			return nil, c.afterWizard(ctx, values, done)
		}
		values, done := c.wizard.Answer("")
		return nil, c.afterWizard(ctx, values, done)
	case c.st.Revising:
		c.st.Revising = false
		c.st.Status = ""
		return nil, nil
	case c.clarify.AwaitingConsent():
		return c.consent(ctx, c.st.ConsentChoice == domain.ConsentYes), nil
	case c.st.PendingUnclear != nil:
		return c.decideUnclear(ctx, ""), nil
	case c.clarify.Active():
		switch {
		case choice >= 0:
			return c.afterAnswer(ctx, c.clarify.SelectOption(choice)), nil
		case choice == domain.ChoiceBack:
			c.back()
			return nil, nil
		}
		return c.afterAnswer(ctx, c.clarify.Skip()), nil
	case c.prefs.Active():
		switch {
		case choice >= 0:
			return c.afterPreference(ctx, c.prefs.SelectOption(choice)), nil
		case choice == domain.ChoiceBack:
			c.back()
			return nil, nil
		}
		return c.afterPreference(ctx, c.prefs.Skip()), nil
	}
	return nil, nil
}

// newTask validates a fresh task. Garbled input opens the "edit or continue
// anyway" decision instead of starting.
func (c *Controller) newTask(ctx context.Context, line string) job {
	task, err := guard.ValidateTask(line)
	if e, ok := apperr.As(err); ok && e.Reason == apperr.ReasonTooLong {
		c.fail(err, "collecting")
		return nil
	}
	if reason := guard.Classify(line); reason != "" {
		c.reset()
		c.st.PendingUnclear = &domain.UnclearDecision{Task: guard.Sanitize(line, guard.MaxTaskLen), Reason: reason}
		c.st.OptionChoice = unclearEdit
		c.st.ErrorCode = string(apperr.CodeUnclearTask)
		c.st.Status = apperr.UserMessage(apperr.UnclearTask(reason)) + " " + msgUnclearChoice
		return nil
	}
	if err != nil {
		c.fail(err, "collecting")
		return nil
	}
	return c.startTask(ctx, task)
}

func (c *Controller) decideUnclear(ctx context.Context, line string) job {
	pending := *c.st.PendingUnclear
	choice := c.st.OptionChoice
	switch strings.ToLower(line) {
	case "":
	case "e", "edit":
		choice = unclearEdit
	case "c", "continue", "continue anyway", "anyway":
		choice = unclearContinue
	default:
		c.st.PendingUnclear = nil
		return c.newTask(ctx, line)
	}
	c.st.PendingUnclear = nil
	c.st.ErrorCode = ""
	if choice == unclearContinue {
		task, err := guard.ValidateTask(pending.Task)
		if err != nil {
			c.fail(err, "collecting")
			return nil
		}
		return c.startTask(ctx, task)
	}
	c.st.InputPrefill = pending.Task
	c.st.OptionChoice = domain.ChoiceInput
	c.st.Status = msgEditTask
	return nil
}

func (c *Controller) startTask(ctx context.Context, task string) job {
	if c.st.Generated {
		c.takeSnapshot()
	}
	c.runs.Invalidate()
	c.running = false
	c.reset()
	c.st.Task = task
	c.st.Mode = c.mode()
	c.emit(ctx, domain.EventTaskSubmitted, map[string]any{
		"task_label": guard.Label(task),
		"mode":       c.st.Mode,
	})
	if c.st.Mode == domain.ModeQuick {
		return c.generate(ctx, task, nil, c.loadPrefs(ctx))
	}
	c.clarify.RequestConsent()
	c.st.Status = msgConsent
	return nil
}

func (c *Controller) consent(ctx context.Context, yes bool) job {
	if yes {
		c.st.ConsentChoice = domain.ConsentYes
		return c.fetchQuestions(ctx)
	}
	c.st.ConsentChoice = domain.ConsentNo
	c.st.ClarifyPhase = domain.PhaseComplete
	return c.afterClarifying(ctx)
}

// resume continues a task the user resubmitted unchanged.
func (c *Controller) resume(ctx context.Context) job {
	c.st.Status = msgResumed
	switch {
	case c.clarify.AwaitingConsent():
		c.st.Status = msgConsent
		return nil
	case c.st.Stage == domain.StagePreferences:
		return nil
	case len(c.st.Questions) > 0:
		if c.clarify.ResumeAt(c.clarify.NextUnanswered()) {
			return nil
		}
		c.st.ClarifyPhase = domain.PhaseComplete
		return c.afterClarifying(ctx)
	}
	return nil
}

func (c *Controller) afterAnswer(ctx context.Context, out clarify.Outcome) job {
	if out == clarify.Complete {
		return c.afterClarifying(ctx)
	}
	return nil
}

// afterClarifying hands off to the preference engine when keys remain to be
// asked, otherwise straight to final generation.
func (c *Controller) afterClarifying(ctx context.Context) job {
	stored := c.loadPrefs(ctx)
	if keys := prefs.KeysToAsk(stored, c.cfg.PreferenceOrder); len(keys) > 0 {
		c.prefs.Begin(keys)
		c.st.Status = msgPreferences
		return nil
	}
	return c.generate(ctx, c.st.Task, c.answers(), stored)
}

// afterPreference merges the collected answers over the stored preferences
// for this generation only; nothing is persisted.
func (c *Controller) afterPreference(ctx context.Context, out prefs.Outcome) job {
	if out != prefs.Complete {
		return nil
	}
	merged := domain.MergePreferences(c.loadPrefs(ctx), c.prefs.Collected())
	return c.generate(ctx, c.st.Task, c.answers(), merged)
}

func (c *Controller) afterWizard(ctx context.Context, values domain.Preferences, done bool) error {
	if !done {
		if key, ok := c.wizard.Key(); ok {
			c.st.Status = prefs.Question(key)
		}
		return nil
	}
	if err := c.savePrefs(ctx, values); err != nil {
		c.deps.Logger.Error("saving preferences failed", "session", c.cfg.SessionID, "error", err)
		c.st.Status = msgPrefsNotSaved
		return err
	}
	c.st.Status = msgPrefsSaved
	return nil
}

// back rewinds one step. From the first preference key it crosses into the
// clarifying engine; with no questions asked it reopens the consent gate.
func (c *Controller) back() {
	switch {
	case c.prefs.Active():
		if c.prefs.Back() != prefs.BackToClarifying {
			return
		}
		if c.clarify.Undo() {
			return
		}
		if c.st.Mode == domain.ModeGuided {
			c.clarify.RequestConsent()
			c.st.Status = msgConsent
			return
		}
		c.st.Status = msgNothingToUndo
	case c.clarify.Active():
		if !c.clarify.Undo() {
			c.st.Status = msgFirstQuestion
		}
	default:
		c.st.Status = msgNothingToUndo
	}
}

func (c *Controller) fetchQuestions(ctx context.Context) job {
	c.clarify.StartGenerating()
	c.st.Status = msgFetchingQuestions
	c.st.ErrorCode = ""
	req := pipeline.Request{
		Caller:      c.caller(ctx),
		Task:        c.st.Task,
		Preferences: c.loadPrefs(ctx),
	}
	id, rctx := c.beginRun(ctx)
	return func() job {
		set, err := c.deps.Pipeline.GenerateClarifyingQuestions(rctx, req)
		return c.settle(id, func() job {
			if err != nil {
				c.fail(err, "clarifying")
				return nil
			}
			if len(set.Questions) == 0 {
				c.st.ClarifyPhase = domain.PhaseComplete
				return c.afterClarifying(ctx)
			}
			c.clarify.Begin(set.Questions, set.Source)
			c.st.Status = msgQuestions
			if set.Source == domain.SourceFallback {
				c.st.Status = msgFallbackQuestions + " " + msgQuestions
			}
			return nil
		})
	}
}

func (c *Controller) generate(ctx context.Context, task string, answers []domain.ClarifyingAnswer, p domain.Preferences) job {
	c.st.Stage = domain.StageGenerating
	c.st.Status = msgGenerating
	c.st.ErrorCode = ""
	c.st.PendingLogin = nil
	req := pipeline.FinalRequest{
		Caller:      c.caller(ctx),
		Task:        task,
		Preferences: p,
		Answers:     answers,
	}
	id, rctx := c.beginRun(ctx)
	return func() job {
		res, err := c.deps.Pipeline.GenerateFinalPrompt(rctx, req)
		return c.settle(id, func() job {
			if apperr.CodeOf(err) == apperr.CodeUnauthenticated {
				c.st.PendingLogin = &domain.PendingGeneration{
					Task:        task,
					Answers:     answers,
					Preferences: p.Clone(),
				}
				c.st.Stage = domain.StageError
				c.st.ErrorCode = string(apperr.CodeUnauthenticated)
				c.st.Status = msgLoginRequired
				return nil
			}
			if err != nil {
				c.fail(err, "generating")
				return nil
			}
			c.st.EditablePrompt = res.Prompt
			c.st.PromptSource = res.Source
			c.st.Generated = true
			c.st.Stage = domain.StageReady
			c.st.Status = msgReady
			if res.Source == domain.PromptDegraded {
				c.st.Status = msgDegraded
			}
			return nil
		})
	}
}

// edit revises the ready prompt. The stage stays ready while the edit runs
// so the current prompt remains visible.
func (c *Controller) edit(ctx context.Context, instruction string) job {
	if !c.st.HasPrompt() {
		c.st.Status = msgNothingToEdit
		return nil
	}
	instruction = guard.Sanitize(instruction, guard.MaxEditLen)
	if instruction == "" {
		c.st.Status = msgEditUsage
		return nil
	}
	c.st.Status = msgEditing
	c.st.ErrorCode = ""
	req := pipeline.EditRequest{
		Caller:      c.caller(ctx),
		Prompt:      c.st.EditablePrompt,
		Instruction: instruction,
		Preferences: c.loadPrefs(ctx),
	}
	id, rctx := c.beginRun(ctx)
	return func() job {
		res, err := c.deps.Pipeline.EditPrompt(rctx, req)
		return c.settle(id, func() job {
			if err != nil {
				c.fail(err, "editing")
				return nil
			}
			c.st.Stage = domain.StageReady
			if res.Source == domain.PromptUnchanged {
				c.st.Status = msgEditUnchanged
				return nil
			}
			c.st.EditablePrompt = res.Prompt
			c.st.PromptSource = res.Source
			c.st.Status = msgEdited
			return nil
		})
	}
}

func (c *Controller) resumeAfterLogin(ctx context.Context) (job, error) {
	pending := c.st.PendingLogin
	if pending == nil {
		return nil, nil
	}
	if _, err := auth.Require(ctx, c.deps.Identity); err != nil {
		c.st.Status = msgLoginRequired
		return nil, err
	}
	p := *pending
	return c.generate(ctx, p.Task, p.Answers, p.Preferences), nil
}

// halt invalidates the current run. Only an in-flight run changes the stage.
func (c *Controller) halt(ctx context.Context) {
	c.runs.Invalidate()
	if !c.running {
		c.st.Status = msgNothingToStop
		return
	}
	c.running = false
	if c.st.ClarifyPhase == domain.PhaseGeneratingQuestions {
		c.st.ClarifyPhase = domain.PhaseIdle
		c.st.Stage = domain.StageStopped
	}
	if c.st.Stage == domain.StageGenerating {
		c.st.Stage = domain.StageStopped
	}
	c.st.Status = msgStopped
	c.emit(ctx, domain.EventGenerationStopped, map[string]any{
		"task_label": guard.Label(c.st.Task),
	})
}

// fail records a flow error. Input errors keep the user collecting, or
// leave the stage alone while a prompt is showing; a cancelled context
// counts as a stop.
func (c *Controller) fail(err error, stage string) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if c.st.ClarifyPhase == domain.PhaseGeneratingQuestions {
			c.st.ClarifyPhase = domain.PhaseIdle
			c.st.Stage = domain.StageStopped
		}
		if c.st.Stage == domain.StageGenerating {
			c.st.Stage = domain.StageStopped
		}
		c.st.Status = msgStopped
		return
	}
	code := apperr.CodeOf(err)
	c.deps.Logger.Warn("conversation step failed",
		"task", guard.Label(c.st.Task), "stage", stage, "code", code, "error", err)
	c.st.ErrorCode = string(code)
	c.st.Status = apperr.UserMessage(err)
	if code == apperr.CodeInvalidInput {
		if !c.st.HasPrompt() {
			c.st.Stage = domain.StageCollecting
		}
		return
	}
	if c.st.ClarifyPhase == domain.PhaseGeneratingQuestions {
		c.st.ClarifyPhase = domain.PhaseIdle
	}
	c.st.Stage = domain.StageError
}

func (c *Controller) beginRun(ctx context.Context) (uint64, context.Context) {
	c.running = true
	return c.runs.Begin(ctx)
}

// settle reacquires the lock and applies fn if run id is still current.
// Stale results are dropped silently.
func (c *Controller) settle(id uint64, fn func() job) job {
	c.mu.Lock()
	if !c.runs.Current(id) {
		c.mu.Unlock()
		return nil
	}
	c.runs.Finish(id)
	c.running = false
	next := fn()
	c.unlockAndPublish()
	return next
}

func (c *Controller) run(j job) {
	for j != nil {
		j = j()
	}
}

// unlockAndPublish releases the lock, then delivers the new state to every
// subscriber and flushes queued analytics events.
func (c *Controller) unlockAndPublish() {
	c.st.UpdatedAt = c.deps.Now()
	u := Update{State: c.st.Clone(), Snapshot: c.snapshot.Clone()}
	subs := slices.Clone(c.subs)
	events := c.outbox
	c.outbox = nil
	c.mu.Unlock()

	for _, fn := range subs {
		fn(u)
	}
	for _, pe := range events {
		if err := c.deps.Events.RecordEvent(pe.ctx, pe.ev); err != nil {
			c.deps.Logger.Warn("recording event failed", "type", pe.ev.Type, "error", err)
		}
	}
}

func (c *Controller) emit(ctx context.Context, typ domain.EventType, payload map[string]any) {
	if c.deps.Events == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		c.deps.Logger.Error("encoding event failed", "type", typ, "error", err)
		return
	}
	c.outbox = append(c.outbox, pendingEvent{
		ctx: context.WithoutCancel(ctx),
		ev:  domain.Event{SessionID: c.cfg.SessionID, Type: typ, Payload: data, CreatedAt: c.deps.Now()},
	})
}

func (c *Controller) reset() {
	c.st = domain.NewConversationState()
}

func (c *Controller) takeSnapshot() {
	c.snapshot = domain.NewSnapshot(c.st, c.deps.Now())
}

func (c *Controller) mode() domain.Mode {
	if c.override != "" {
		return c.override
	}
	return c.cfg.DefaultMode
}

func (c *Controller) answers() []domain.ClarifyingAnswer {
	if len(c.st.Answers) == 0 {
		return nil
	}
	return append([]domain.ClarifyingAnswer(nil), c.st.Answers...)
}

func (c *Controller) caller(ctx context.Context) pipeline.Caller {
	u, err := c.deps.Identity.CurrentUser(ctx)
	if err != nil {
		c.deps.Logger.Warn("reading current user failed", "error", err)
		u = nil
	}
	return pipeline.Caller{User: u, SessionID: c.cfg.SessionID, Addr: c.cfg.Addr}
}

// PreferenceScope returns the preference row key for a user, or for the
// session when nobody is signed in.
func PreferenceScope(u *auth.User, sessionID string) string {
	if u != nil && u.ID != "" {
		return "user:" + u.ID
	}
	return "session:" + sessionID
}

func (c *Controller) loadPrefs(ctx context.Context) domain.Preferences {
	if c.deps.Preferences == nil {
		return c.local.Clone()
	}
	scope := PreferenceScope(c.caller(ctx).User, c.cfg.SessionID)
	p, err := c.deps.Preferences.GetPreferences(ctx, scope)
	if err != nil {
		c.deps.Logger.Warn("loading preferences failed", "scope", scope, "error", err)
		return c.local.Clone()
	}
	return p
}

func (c *Controller) savePrefs(ctx context.Context, p domain.Preferences) error {
	c.local = p.Clone()
	if c.deps.Preferences == nil {
		return nil
	}
	return c.deps.Preferences.SavePreferences(ctx, PreferenceScope(c.caller(ctx).User, c.cfg.SessionID), p)
}
