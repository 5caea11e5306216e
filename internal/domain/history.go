package domain

import (
	"encoding/json"
	"time"
)

// HistoryEntry is one generated prompt kept for later reference.
type HistoryEntry struct {
	ID        string
	UserID    string
	Task      string
	Label     string
	Body      string
	Model     string
	Source    PromptSource
	CreatedAt time.Time
}

// EventType names an analytics event.
type EventType string

const (
	EventTaskSubmitted       EventType = "task_submitted"
	EventQuestionsGenerated  EventType = "questions_generated"
	EventQuestionsFallback   EventType = "questions_fallback"
	EventPromptGenerated     EventType = "prompt_generated"
	EventPromptDegraded      EventType = "prompt_degraded"
	EventPromptEdited        EventType = "prompt_edited"
	EventGenerationStopped   EventType = "generation_stopped"
	EventConversationCleared EventType = "conversation_cleared"
	EventRequestRejected     EventType = "request_rejected"
)

// Event is an append-only analytics record.
type Event struct {
	SessionID string
	Type      EventType
	Payload   json.RawMessage
	CreatedAt time.Time
}
