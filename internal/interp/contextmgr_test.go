package interp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhinoai/cad-interpreter/internal/model"
)

type stubInspector struct {
	layer    string
	selected []string
	count    int
	desc     string
	err      error
}

func (s *stubInspector) ActiveLayer(context.Context) (string, error) {
	return s.layer, s.err
}

func (s *stubInspector) SelectedObjectIDs(context.Context) ([]string, error) {
	return s.selected, s.err
}

func (s *stubInspector) ObjectCount(context.Context) (int, error) {
	return s.count, s.err
}

func (s *stubInspector) SceneDescription(context.Context) (string, error) {
	return s.desc, s.err
}

func TestRefreshEvictsOldestTurns(t *testing.T) {
	m := NewContextManager(nil, nil)
	cctx := model.NewConversationContext()

	for i := 0; i < 12; i++ {
		m.Refresh(context.Background(), fmt.Sprintf("turn %d", i), cctx)
	}

	require.Len(t, cctx.History, model.MaxHistoryTurns)
	assert.Equal(t, "turn 2", cctx.History[0].Input)
	assert.Equal(t, "turn 11", cctx.History[9].Input)
}

func TestRefreshExtractsRecentOperations(t *testing.T) {
	m := NewContextManager(nil, nil)
	cctx := model.NewConversationContext()

	m.Refresh(context.Background(), "create a sphere", cctx)
	m.Refresh(context.Background(), "move it up", cctx)
	m.Refresh(context.Background(), "now move it left", cctx)
	m.Refresh(context.Background(), "what is in the scene", cctx)

	// One verb per turn, deduplicated, order preserved.
	assert.Equal(t, []string{"create", "move"}, cctx.RecentOperations)
}

func TestRefreshDropsOperationsOutsideWindow(t *testing.T) {
	m := NewContextManager(nil, nil)
	cctx := model.NewConversationContext()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	m.Refresh(context.Background(), "create a sphere", cctx)

	m.now = func() time.Time { return base.Add(6 * time.Minute) }
	m.Refresh(context.Background(), "delete it", cctx)

	assert.Equal(t, []string{"delete"}, cctx.RecentOperations)
}

func TestRefreshTakesFirstVerbPerTurn(t *testing.T) {
	m := NewContextManager(nil, nil)
	cctx := model.NewConversationContext()

	m.Refresh(context.Background(), "create a copy and rotate it", cctx)

	assert.Equal(t, []string{"create"}, cctx.RecentOperations)
}

func TestRefreshIgnoresVerbSubstrings(t *testing.T) {
	m := NewContextManager(nil, nil)
	cctx := model.NewConversationContext()

	// "created" and "removal" contain verbs but are not whole words.
	m.Refresh(context.Background(), "the created object needs removal", cctx)

	assert.Empty(t, cctx.RecentOperations)
}

func TestRefreshPopulatesSceneSnapshot(t *testing.T) {
	inspector := &stubInspector{
		layer:    "Walls",
		selected: []string{"obj-1"},
		desc:     "1 objects: 1 sphere",
	}
	m := NewContextManager(inspector, nil)
	cctx := model.NewConversationContext()

	m.Refresh(context.Background(), "create a sphere", cctx)

	assert.Equal(t, "Walls", cctx.ActiveLayer)
	assert.Equal(t, []string{"obj-1"}, cctx.SelectedObjectIDs)
	assert.Equal(t, "1 objects: 1 sphere", cctx.SceneDescription)
}

func TestRefreshKeepsSnapshotOnInspectorFailure(t *testing.T) {
	inspector := &stubInspector{layer: "Walls"}
	m := NewContextManager(inspector, nil)
	cctx := model.NewConversationContext()
	m.Refresh(context.Background(), "create a sphere", cctx)

	inspector.err = errors.New("document busy")
	m.Refresh(context.Background(), "move it", cctx)

	assert.Equal(t, "Walls", cctx.ActiveLayer)
	assert.Len(t, cctx.History, 2)
}

func TestRefreshNilContext(t *testing.T) {
	m := NewContextManager(nil, nil)

	cctx := m.Refresh(context.Background(), "create a sphere", nil)

	require.NotNil(t, cctx)
	assert.Len(t, cctx.History, 1)
}
