// Package scene provides an in-memory scene graph that stands in for a
// live CAD document. It implements the interpreter's executor, inspector
// and constraint-checker contracts.
package scene

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rhinoai/cad-interpreter/internal/interp"
	"github.com/rhinoai/cad-interpreter/internal/model"
)

// DefaultLayer is the layer every store starts with.
const DefaultLayer = "Default"

// Object is one geometry object in the scene.
type Object struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Name       string             `json:"name,omitempty"`
	Layer      string             `json:"layer"`
	Color      string             `json:"color,omitempty"`
	Material   string             `json:"material,omitempty"`
	Position   model.Point3D      `json:"position"`
	Scale      float64            `json:"scale"`
	Rotation   float64            `json:"rotation"`
	Parameters model.ParameterMap `json:"parameters,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Store is an in-memory scene. All access goes through the lock; the
// store is shared between the interpreter pipeline and read-only HTTP
// handlers.
type Store struct {
	mu          sync.RWMutex
	objects     map[string]*Object
	order       []string
	layers      map[string]bool
	activeLayer string
	selected    []string
}

// NewStore creates an empty scene with the default layer active.
func NewStore() *Store {
	return &Store{
		objects:     make(map[string]*Object),
		layers:      map[string]bool{DefaultLayer: true},
		activeLayer: DefaultLayer,
	}
}

func newObjectID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// add inserts an object, creating its layer if needed. Caller holds the lock.
func (s *Store) add(obj *Object) {
	if obj.Layer == "" {
		obj.Layer = s.activeLayer
	}
	s.layers[obj.Layer] = true
	s.objects[obj.ID] = obj
	s.order = append(s.order, obj.ID)
}

// remove deletes an object and drops it from the selection. Caller holds
// the lock.
func (s *Store) remove(id string) {
	delete(s.objects, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for i, sid := range s.selected {
		if sid == id {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			break
		}
	}
}

// Objects returns the objects in insertion order.
func (s *Store) Objects() []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Object, 0, len(s.order))
	for _, id := range s.order {
		copied := *s.objects[id]
		out = append(out, &copied)
	}
	return out
}

// Select replaces the current selection, ignoring unknown IDs.
func (s *Store) Select(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = s.selected[:0]
	for _, id := range ids {
		if _, ok := s.objects[id]; ok {
			s.selected = append(s.selected, id)
		}
	}
}

// SetActiveLayer switches the active layer, creating it if needed.
func (s *Store) SetActiveLayer(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers[name] = true
	s.activeLayer = name
}

// ActiveLayer implements interp.Inspector.
func (s *Store) ActiveLayer(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeLayer, nil
}

// SelectedObjectIDs implements interp.Inspector.
func (s *Store) SelectedObjectIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.selected...), nil
}

// ObjectCount implements interp.Inspector.
func (s *Store) ObjectCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects), nil
}

// SceneDescription implements interp.Inspector. The description is a
// compact type census, e.g. "3 objects: 2 sphere, 1 box".
func (s *Store) SceneDescription(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.describeLocked(), nil
}

func (s *Store) describeLocked() string {
	if len(s.order) == 0 {
		return "empty scene"
	}

	counts := make(map[string]int)
	var types []string
	for _, id := range s.order {
		t := s.objects[id].Type
		if counts[t] == 0 {
			types = append(types, t)
		}
		counts[t]++
	}

	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%d %s", counts[t], t))
	}
	return fmt.Sprintf("%d objects: %s", len(s.order), strings.Join(parts, ", "))
}

// CheckConstraints implements interp.ConstraintChecker: commands that
// reference an object require the object to still exist.
func (s *Store) CheckConstraints(_ context.Context, cmd model.Command, params model.ParameterMap) model.ValidationResult {
	switch cmd {
	case model.CommandMoveObject, model.CommandScaleObject,
		model.CommandRotateObject, model.CommandDeleteObject:
		id := params.Str("objectId", "")
		s.mu.RLock()
		_, ok := s.objects[id]
		s.mu.RUnlock()
		if !ok {
			return model.Invalid(fmt.Sprintf("object %s no longer exists in the scene", id))
		}
	}
	return model.Valid()
}

var _ interp.Inspector = (*Store)(nil)
var _ interp.ConstraintChecker = (*Store)(nil)
var _ interp.Executor = (*Store)(nil)
