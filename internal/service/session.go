// Package service provides session management for the interpreter.
package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rhinoai/cad-interpreter/internal/interp"
	"github.com/rhinoai/cad-interpreter/internal/model"
	"github.com/rhinoai/cad-interpreter/pkg/logger"
	"github.com/rhinoai/cad-interpreter/pkg/metrics"
)

// ErrSessionNotFound is returned for unknown, deleted, or cross-tenant
// session lookups. All three cases are indistinguishable to the caller.
var ErrSessionNotFound = errors.New("session not found")

// EventPublisher receives the audit event for each completed turn. A nil
// publisher disables publication.
type EventPublisher interface {
	PublishInterpretation(ctx context.Context, event *model.InterpretationEvent) (uint64, error)
}

// sessionState binds one session's metadata to its conversation context.
// The mutex serializes interpretation turns: within a session submissions
// are strictly ordered, across sessions they run concurrently.
type sessionState struct {
	mu      sync.Mutex
	meta    *model.Session
	context *model.ConversationContext
}

// SessionService owns the session registry and drives the interpretation
// pipeline. The pipeline components are shared across sessions; only the
// conversation context is per-session.
type SessionService struct {
	orchestrator *interp.Orchestrator
	cache        *interp.ResponseCache
	publisher    EventPublisher
	logger       *logger.Logger

	// In-memory registry (would be backed by a database in production)
	sessions map[string]*sessionState
	mu       sync.RWMutex
}

// NewSessionService creates a session service. publisher may be nil.
func NewSessionService(orchestrator *interp.Orchestrator, cache *interp.ResponseCache, publisher EventPublisher, log *logger.Logger) *SessionService {
	if log == nil {
		log = logger.NewNop()
	}
	return &SessionService{
		orchestrator: orchestrator,
		cache:        cache,
		publisher:    publisher,
		logger:       log,
		sessions:     make(map[string]*sessionState),
	}
}

// StartCacheSweeper reaps expired cache entries until ctx is cancelled.
func (s *SessionService) StartCacheSweeper(ctx context.Context, interval time.Duration) {
	if s.cache == nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.cache.Sweep(); removed > 0 {
					s.logger.Debug("cache sweep", zap.Int("removed", removed))
				}
			}
		}
	}()
}

// Create opens a new session.
func (s *SessionService) Create(_ context.Context, tenantID, userID string, req *model.CreateSessionRequest) (*model.Session, error) {
	now := time.Now()

	meta := &model.Session{
		ID:        uuid.Must(uuid.NewV7()).String(),
		TenantID:  tenantID,
		UserID:    userID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  req.Metadata,
	}

	s.mu.Lock()
	s.sessions[meta.ID] = &sessionState{
		meta:    meta,
		context: model.NewConversationContext(),
	}
	s.mu.Unlock()

	metrics.SessionsTotal.WithLabelValues(tenantID).Inc()
	s.logger.Info("session created",
		zap.String("session_id", meta.ID),
		zap.String("tenant_id", tenantID))

	copied := *meta
	return &copied, nil
}

// lookup returns the live state for a tenant's session.
func (s *SessionService) lookup(tenantID, sessionID string) (*sessionState, error) {
	s.mu.RLock()
	state, exists := s.sessions[sessionID]
	s.mu.RUnlock()

	if !exists || state.meta.TenantID != tenantID || state.meta.Deleted {
		return nil, ErrSessionNotFound
	}
	return state, nil
}

// Get retrieves session metadata.
func (s *SessionService) Get(_ context.Context, tenantID, sessionID string) (*model.Session, error) {
	state, err := s.lookup(tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	copied := *state.meta
	state.mu.Unlock()
	return &copied, nil
}

// List retrieves a tenant's sessions, newest first.
func (s *SessionService) List(_ context.Context, tenantID string, limit, offset int) (*model.ListSessionsResponse, error) {
	s.mu.RLock()
	var sessions []model.Session
	for _, state := range s.sessions {
		if state.meta.TenantID == tenantID && !state.meta.Deleted {
			sessions = append(sessions, *state.meta)
		}
	}
	s.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	total := len(sessions)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &model.ListSessionsResponse{
		Sessions: sessions[start:end],
		Total:    total,
		HasMore:  end < total,
	}, nil
}

// Delete soft-deletes a session. Its context is dropped; the ID keeps
// resolving to not-found afterwards.
func (s *SessionService) Delete(_ context.Context, tenantID, sessionID string) error {
	state, err := s.lookup(tenantID, sessionID)
	if err != nil {
		return err
	}

	state.mu.Lock()
	state.meta.Deleted = true
	state.meta.UpdatedAt = time.Now()
	state.context.Reset()
	state.mu.Unlock()

	s.logger.Info("session deleted", zap.String("session_id", sessionID))
	return nil
}

// Reset clears a session's conversation context while keeping the session
// itself open.
func (s *SessionService) Reset(_ context.Context, tenantID, sessionID string) error {
	state, err := s.lookup(tenantID, sessionID)
	if err != nil {
		return err
	}

	state.mu.Lock()
	state.context.Reset()
	state.meta.UpdatedAt = time.Now()
	state.mu.Unlock()
	return nil
}

// Turns returns a session's retained history and recent operations.
func (s *SessionService) Turns(_ context.Context, tenantID, sessionID string) (*model.ListTurnsResponse, error) {
	state, err := s.lookup(tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return &model.ListTurnsResponse{
		Turns:            append([]model.ConversationTurn(nil), state.context.History...),
		RecentOperations: append([]string(nil), state.context.RecentOperations...),
	}, nil
}

// Interpret runs one interpretation turn. The session lock is held for
// the whole pipeline, so turns within a session execute in submission
// order.
func (s *SessionService) Interpret(ctx context.Context, tenantID, sessionID, input string) (*model.ProcessingResult, error) {
	state, err := s.lookup(tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	result := s.orchestrator.Process(ctx, input, state.context)
	state.meta.TurnCount++
	state.meta.UpdatedAt = time.Now()
	state.mu.Unlock()

	s.publish(ctx, tenantID, sessionID, input, result)
	return &result, nil
}

// publish sends the turn's audit event. Publication is best effort: a
// failure is logged, never surfaced to the caller.
func (s *SessionService) publish(ctx context.Context, tenantID, sessionID, input string, result model.ProcessingResult) {
	if s.publisher == nil {
		return
	}

	event := &model.InterpretationEvent{
		ID:         uuid.Must(uuid.NewV7()).String(),
		SessionID:  sessionID,
		TenantID:   tenantID,
		Input:      input,
		Command:    result.Command,
		Outcome:    result.Kind,
		ErrorKind:  result.ErrorKind,
		Message:    result.Message,
		Confidence: result.Confidence,
		Cached:     result.Cached,
		CreatedAt:  time.Now(),
	}

	if _, err := s.publisher.PublishInterpretation(ctx, event); err != nil {
		s.logger.Warn("failed to publish interpretation event",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}
