package model

import (
	"time"
)

// Session is one interpretation session: a tenant-scoped conversation with
// its own context, cache, and submission ordering.
type Session struct {
	ID        string            `json:"id"`
	TenantID  string            `json:"tenant_id"`
	UserID    string            `json:"user_id"`
	Title     string            `json:"title"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	TurnCount int               `json:"turn_count,omitempty"`
	Deleted   bool              `json:"deleted,omitempty"`
}

// CreateSessionRequest is the request to open a new session.
type CreateSessionRequest struct {
	Title    string            `json:"title"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ListSessionsResponse is the response for listing sessions.
type ListSessionsResponse struct {
	Sessions []Session `json:"sessions"`
	Total    int       `json:"total"`
	HasMore  bool      `json:"has_more"`
}

// InterpretRequest is the request to interpret one utterance.
type InterpretRequest struct {
	Input string `json:"input"`
}

// InterpretResponse wraps the processing result for the HTTP surface.
type InterpretResponse struct {
	SessionID string           `json:"session_id"`
	Result    ProcessingResult `json:"result"`
}

// ListTurnsResponse is the response for reading a session's turn history.
type ListTurnsResponse struct {
	Turns            []ConversationTurn `json:"turns"`
	RecentOperations []string           `json:"recent_operations,omitempty"`
}
