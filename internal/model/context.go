package model

import (
	"time"
)

// MaxHistoryTurns bounds the conversation history. Oldest turns are
// evicted first once the bound is reached.
const MaxHistoryTurns = 10

// ConversationTurn is one user utterance plus its timestamp. Immutable
// once created.
type ConversationTurn struct {
	Input     string    `json:"input"`
	Timestamp time.Time `json:"timestamp"`
}

// CreatedObject records the most recent successful creation. It is only
// written after the executor commits the object.
type CreatedObject struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	Parameters ParameterMap `json:"parameters,omitempty"`
	Position   Point3D      `json:"position"`
}

// ConversationContext is the per-session state the pipeline reads and
// mutates. It is owned by exactly one session; the session serializes all
// access, so the struct itself carries no lock.
type ConversationContext struct {
	History           []ConversationTurn `json:"history"`
	RecentOperations  []string           `json:"recent_operations,omitempty"`
	ActiveLayer       string             `json:"active_layer,omitempty"`
	SelectedObjectIDs []string           `json:"selected_object_ids,omitempty"`
	SceneDescription  string             `json:"scene_description,omitempty"`
	LastCreatedObject *CreatedObject     `json:"last_created_object,omitempty"`
}

// NewConversationContext returns an empty context for a fresh session.
func NewConversationContext() *ConversationContext {
	return &ConversationContext{}
}

// Reset clears all accumulated state. Sessions expose this to callers;
// the pipeline never resets a context on its own.
func (c *ConversationContext) Reset() {
	*c = ConversationContext{}
}
