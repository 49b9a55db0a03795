package interp

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rhinoai/cad-interpreter/internal/model"
	"github.com/rhinoai/cad-interpreter/pkg/logger"
)

// recentOperationWindow bounds how far back turns contribute to
// recentOperations.
const recentOperationWindow = 5 * time.Minute

// operationVerbs is the fixed verb list scanned for in turn history. The
// first match in a turn wins; turns with no match contribute nothing.
var operationVerbs = []string{"create", "move", "scale", "delete", "copy", "rotate"}

// Inspector is the read-only scene query collaborator. All methods are
// best-effort: failures degrade to defaults and never fail the pipeline.
type Inspector interface {
	ActiveLayer(ctx context.Context) (string, error)
	SelectedObjectIDs(ctx context.Context) ([]string, error)
	ObjectCount(ctx context.Context) (int, error)
	SceneDescription(ctx context.Context) (string, error)
}

// ContextManager maintains a session's conversation context: turn history,
// recent operations, and the cached scene snapshot.
type ContextManager struct {
	inspector Inspector
	logger    *logger.Logger
	now       func() time.Time
}

// NewContextManager creates a context manager. inspector may be nil, in
// which case scene fields keep their previous values.
func NewContextManager(inspector Inspector, log *logger.Logger) *ContextManager {
	if log == nil {
		log = logger.NewNop()
	}
	return &ContextManager{
		inspector: inspector,
		logger:    log,
		now:       time.Now,
	}
}

// Refresh appends the new turn, evicts history beyond the bound, recomputes
// recent operations, and refreshes the scene snapshot. The context is
// mutated in place; ownership stays with the caller.
func (m *ContextManager) Refresh(ctx context.Context, input string, cctx *model.ConversationContext) *model.ConversationContext {
	if cctx == nil {
		cctx = model.NewConversationContext()
	}

	now := m.now()
	cctx.History = append(cctx.History, model.ConversationTurn{
		Input:     input,
		Timestamp: now,
	})
	for len(cctx.History) > model.MaxHistoryTurns {
		cctx.History = cctx.History[1:]
	}

	cctx.RecentOperations = m.extractRecentOperations(cctx.History, now)
	m.refreshScene(ctx, cctx)

	return cctx
}

// extractRecentOperations scans turns newer than the window, taking at most
// one operation verb per turn and deduplicating while preserving order.
func (m *ContextManager) extractRecentOperations(history []model.ConversationTurn, now time.Time) []string {
	cutoff := now.Add(-recentOperationWindow)

	var ops []string
	seen := make(map[string]bool)
	for _, turn := range history {
		if !turn.Timestamp.After(cutoff) {
			continue
		}
		op := extractOperation(turn.Input)
		if op == "" || seen[op] {
			continue
		}
		seen[op] = true
		ops = append(ops, op)
	}
	return ops
}

// extractOperation returns the first operation verb present in the input
// as a whole word, or "".
func extractOperation(input string) string {
	words := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(strings.ToLower(input), -1) {
		words[w] = true
	}
	for _, verb := range operationVerbs {
		if words[verb] {
			return verb
		}
	}
	return ""
}

// refreshScene queries the inspector for the current scene snapshot.
// Failures leave the previous snapshot in place.
func (m *ContextManager) refreshScene(ctx context.Context, cctx *model.ConversationContext) {
	if m.inspector == nil {
		return
	}

	if layer, err := m.inspector.ActiveLayer(ctx); err == nil {
		cctx.ActiveLayer = layer
	} else {
		m.logger.Debug("scene inspector: active layer unavailable", zap.Error(err))
	}

	if ids, err := m.inspector.SelectedObjectIDs(ctx); err == nil {
		cctx.SelectedObjectIDs = ids
	} else {
		m.logger.Debug("scene inspector: selection unavailable", zap.Error(err))
	}

	if desc, err := m.inspector.SceneDescription(ctx); err == nil {
		cctx.SceneDescription = desc
	} else {
		m.logger.Debug("scene inspector: description unavailable", zap.Error(err))
	}
}
