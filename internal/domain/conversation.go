package domain

import "time"

// Stage is the conversation's single active stage.
type Stage string

const (
	StageCollecting  Stage = "collecting"
	StageConsent     Stage = "consent"
	StageClarifying  Stage = "clarifying"
	StagePreferences Stage = "preferences"
	StageGenerating  Stage = "generating"
	StageReady       Stage = "ready"
	StageError       Stage = "error"
	StageStopped     Stage = "stopped"
)

// Mode selects whether a new task goes through questions first.
type Mode string

const (
	ModeQuick  Mode = "quick"
	ModeGuided Mode = "guided"
)

// ClarifyPhase is the clarifying engine's own phase.
type ClarifyPhase string

const (
	PhaseIdle                ClarifyPhase = "idle"
	PhaseAwaitingConsent     ClarifyPhase = "awaiting_consent"
	PhaseGeneratingQuestions ClarifyPhase = "generating_questions"
	PhaseAnsweringQuestions  ClarifyPhase = "answering_questions"
	PhaseComplete            ClarifyPhase = "complete"
)

// UI selection sentinels for OptionChoice. Non-negative values index options.
const (
	ChoiceInput = -1
	ChoiceBack  = -2
)

// Consent choices.
const (
	ConsentYes = 0
	ConsentNo  = 1
)

// UnclearDecision is a pending "edit vs. continue anyway" prompt for a task
// the guard rejected.
type UnclearDecision struct {
	Task   string `json:"task"`
	Reason string `json:"reason"`
}

// PendingGeneration remembers a final generation blocked by sign-in so it can
// resume automatically afterwards.
type PendingGeneration struct {
	Task        string             `json:"task"`
	Answers     []ClarifyingAnswer `json:"answers,omitempty"`
	Preferences Preferences        `json:"preferences"`
}

// WizardState tracks the legacy tone/audience/domain form.
type WizardState struct {
	Step   int         `json:"step"`
	Values Preferences `json:"values"`
}

// ConversationState is the complete, resumable session state.
type ConversationState struct {
	Stage Stage  `json:"stage"`
	Mode  Mode   `json:"mode,omitempty"`
	Task  string `json:"task,omitempty"`

	ClarifyPhase   ClarifyPhase         `json:"clarifyPhase"`
	Questions      []ClarifyingQuestion `json:"questions,omitempty"`
	QuestionSource QuestionSource       `json:"questionSource,omitempty"`
	Answers        []ClarifyingAnswer   `json:"answers,omitempty"`
	QuestionIndex  int                  `json:"questionIndex"`

	PreferenceKeys    []PreferenceKey    `json:"preferenceKeys,omitempty"`
	PreferenceIndex   int                `json:"preferenceIndex"`
	PreferenceAnswers []PreferenceAnswer `json:"preferenceAnswers,omitempty"`

	EditablePrompt string       `json:"editablePrompt,omitempty"`
	PromptSource   PromptSource `json:"promptSource,omitempty"`

	// Generated is set once a final prompt has been produced for Task, so an
	// error stage can tell "error after generation" from "error before".
	Generated bool `json:"generated,omitempty"`

	ConsentChoice int    `json:"consentChoice"`
	OptionChoice  int    `json:"optionChoice"`
	InputPrefill  string `json:"inputPrefill,omitempty"`

	PendingUnclear *UnclearDecision   `json:"pendingUnclear,omitempty"`
	PendingLogin   *PendingGeneration `json:"pendingLogin,omitempty"`
	Wizard         *WizardState       `json:"wizard,omitempty"`
	Revising       bool               `json:"revising,omitempty"`

	Status    string    `json:"status,omitempty"`
	ErrorCode string    `json:"errorCode,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewConversationState returns an empty conversation awaiting a task.
func NewConversationState() ConversationState {
	return ConversationState{
		Stage:        StageCollecting,
		ClarifyPhase: PhaseIdle,
		OptionChoice: ChoiceInput,
	}
}

// IsEmpty reports whether there is nothing worth keeping in the state.
func (s ConversationState) IsEmpty() bool {
	return s.Task == "" && s.EditablePrompt == "" && len(s.Answers) == 0 &&
		s.PendingUnclear == nil && s.Wizard == nil
}

// CurrentQuestion returns the question at QuestionIndex.
func (s ConversationState) CurrentQuestion() (ClarifyingQuestion, bool) {
	if s.QuestionIndex < 0 || s.QuestionIndex >= len(s.Questions) {
		return ClarifyingQuestion{}, false
	}
	return s.Questions[s.QuestionIndex], true
}

// CurrentPreferenceKey returns the key at PreferenceIndex.
func (s ConversationState) CurrentPreferenceKey() (PreferenceKey, bool) {
	if s.PreferenceIndex < 0 || s.PreferenceIndex >= len(s.PreferenceKeys) {
		return "", false
	}
	return s.PreferenceKeys[s.PreferenceIndex], true
}

// HasPrompt reports whether EditablePrompt may be shown in the current stage.
func (s ConversationState) HasPrompt() bool {
	return s.Stage == StageReady || (s.Stage == StageError && s.Generated)
}

// Clone returns a deep copy sharing no slices, maps or pointers with s.
func (s ConversationState) Clone() ConversationState {
	out := s
	out.Questions = cloneQuestions(s.Questions)
	out.Answers = cloneAnswers(s.Answers)
	if s.PreferenceKeys != nil {
		out.PreferenceKeys = append([]PreferenceKey(nil), s.PreferenceKeys...)
	}
	if s.PreferenceAnswers != nil {
		out.PreferenceAnswers = append([]PreferenceAnswer(nil), s.PreferenceAnswers...)
	}
	if s.PendingUnclear != nil {
		u := *s.PendingUnclear
		out.PendingUnclear = &u
	}
	if s.PendingLogin != nil {
		p := *s.PendingLogin
		p.Answers = cloneAnswers(s.PendingLogin.Answers)
		p.Preferences = s.PendingLogin.Preferences.Clone()
		out.PendingLogin = &p
	}
	if s.Wizard != nil {
		w := *s.Wizard
		w.Values = s.Wizard.Values.Clone()
		out.Wizard = &w
	}
	return out
}

// Snapshot is an immutable copy of a conversation taken before a destructive
// action, enabling a single-level restore.
type Snapshot struct {
	State   ConversationState `json:"state"`
	TakenAt time.Time         `json:"takenAt"`
}

// NewSnapshot deep-copies state.
func NewSnapshot(state ConversationState, at time.Time) *Snapshot {
	return &Snapshot{State: state.Clone(), TakenAt: at}
}

// Clone deep-copies the snapshot. A nil snapshot clones to nil.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	return &Snapshot{State: s.State.Clone(), TakenAt: s.TakenAt}
}

// Interrupted returns s with any in-flight generation marked stopped. No run
// survives a reload, so rehydrated state must not claim one is pending.
func (s ConversationState) Interrupted() ConversationState {
	if s.ClarifyPhase == PhaseGeneratingQuestions {
		s.ClarifyPhase = PhaseIdle
		if s.Stage == StageClarifying {
			s.Stage = StageStopped
		}
	}
	if s.Stage == StageGenerating {
		s.Stage = StageStopped
	}
	return s
}
