package model

import (
	"time"
)

// InterpretationEvent is the audit record published after each completed
// interpretation turn.
type InterpretationEvent struct {
	ID         string     `json:"id"`
	SessionID  string     `json:"session_id"`
	TenantID   string     `json:"tenant_id"`
	Input      string     `json:"input"`
	Command    Command    `json:"command,omitempty"`
	Outcome    ResultKind `json:"outcome"`
	ErrorKind  ErrorKind  `json:"error_kind,omitempty"`
	Message    string     `json:"message"`
	Confidence float64    `json:"confidence,omitempty"`
	Cached     bool       `json:"cached,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
