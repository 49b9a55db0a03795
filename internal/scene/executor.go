package scene

import (
	"context"
	"fmt"
	"time"

	"github.com/rhinoai/cad-interpreter/internal/interp"
	"github.com/rhinoai/cad-interpreter/internal/model"
)

// largeRadius marks creations that succeed but are probably a typo.
const largeRadius = 1000.0

// Execute implements interp.Executor. Parameters arrive validated; the
// checks here guard conditions the semantic layer deliberately leaves to
// execution time, like degenerate cylinder geometry.
func (s *Store) Execute(ctx context.Context, cmd model.Command, params model.ParameterMap) (*interp.ExecutionResult, error) {
	switch cmd {
	case model.CommandCreateSphere:
		return s.createSphere(params)
	case model.CommandCreateBox:
		return s.createBox(params)
	case model.CommandCreateCylinder:
		return s.createCylinder(params)
	case model.CommandMoveObject:
		return s.moveObject(params)
	case model.CommandScaleObject:
		return s.scaleObject(params)
	case model.CommandRotateObject:
		return s.rotateObject(params)
	case model.CommandDeleteObject:
		return s.deleteObject(params)
	case model.CommandQueryScene:
		return s.queryScene(ctx)
	default:
		return nil, fmt.Errorf("unsupported command %q", cmd)
	}
}

func (s *Store) createObject(objType string, params model.ParameterMap, posKey string) *Object {
	return &Object{
		ID:         newObjectID(),
		Type:       objType,
		Name:       params.Str("name", ""),
		Layer:      params.Str("layer", ""),
		Color:      params.Str("color", ""),
		Material:   params.Str("material", ""),
		Position:   params.Point(posKey, model.Origin),
		Scale:      1,
		Parameters: params.Clone(),
		CreatedAt:  time.Now(),
	}
}

func (s *Store) createSphere(params model.ParameterMap) (*interp.ExecutionResult, error) {
	radius := params.Float("radius", 0)

	s.mu.Lock()
	obj := s.createObject("sphere", params, "center")
	s.add(obj)
	s.mu.Unlock()

	result := &interp.ExecutionResult{
		Message:  fmt.Sprintf("Created %s with radius %g at %s", describeObject(obj), radius, obj.Position.String()),
		ObjectID: obj.ID,
	}
	if radius > largeRadius {
		result.Warning = true
		result.Message += fmt.Sprintf(" (radius %g is unusually large)", radius)
	}
	return result, nil
}

func (s *Store) createBox(params model.ParameterMap) (*interp.ExecutionResult, error) {
	dims := params.Vector("dimensions", model.Vector3D{})

	s.mu.Lock()
	obj := s.createObject("box", params, "position")
	s.add(obj)
	s.mu.Unlock()

	return &interp.ExecutionResult{
		Message: fmt.Sprintf("Created %s with dimensions %g x %g x %g at %s",
			describeObject(obj), dims.X, dims.Y, dims.Z, obj.Position.String()),
		ObjectID: obj.ID,
	}, nil
}

func (s *Store) createCylinder(params model.ParameterMap) (*interp.ExecutionResult, error) {
	radius := params.Float("radius", 0)
	height := params.Float("height", 0)
	if radius <= 0 {
		return nil, fmt.Errorf("cylinder radius must be positive, got %g", radius)
	}
	if height <= 0 {
		return nil, fmt.Errorf("cylinder height must be positive, got %g", height)
	}

	s.mu.Lock()
	obj := s.createObject("cylinder", params, "center")
	s.add(obj)
	s.mu.Unlock()

	return &interp.ExecutionResult{
		Message: fmt.Sprintf("Created %s with radius %g and height %g at %s",
			describeObject(obj), radius, height, obj.Position.String()),
		ObjectID: obj.ID,
	}, nil
}

func (s *Store) moveObject(params model.ParameterMap) (*interp.ExecutionResult, error) {
	id := params.Str("objectId", "")
	delta := params.Vector("translation", model.Vector3D{})

	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	if !ok {
		return nil, fmt.Errorf("object %s not found", id)
	}
	obj.Position = obj.Position.Add(delta)

	return &interp.ExecutionResult{
		Message: fmt.Sprintf("Moved %s by (%g, %g, %g) to %s",
			describeObject(obj), delta.X, delta.Y, delta.Z, obj.Position.String()),
	}, nil
}

func (s *Store) scaleObject(params model.ParameterMap) (*interp.ExecutionResult, error) {
	id := params.Str("objectId", "")
	factor := params.Float("scale", 1)
	if factor <= 0 {
		return nil, fmt.Errorf("scale factor must be positive, got %g", factor)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	if !ok {
		return nil, fmt.Errorf("object %s not found", id)
	}
	obj.Scale *= factor

	return &interp.ExecutionResult{
		Message: fmt.Sprintf("Scaled %s by %g", describeObject(obj), factor),
	}, nil
}

func (s *Store) rotateObject(params model.ParameterMap) (*interp.ExecutionResult, error) {
	id := params.Str("objectId", "")
	angle := params.Float("angle", 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	if !ok {
		return nil, fmt.Errorf("object %s not found", id)
	}
	obj.Rotation += angle

	return &interp.ExecutionResult{
		Message: fmt.Sprintf("Rotated %s by %g degrees", describeObject(obj), angle),
	}, nil
}

func (s *Store) deleteObject(params model.ParameterMap) (*interp.ExecutionResult, error) {
	id := params.Str("objectId", "")

	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	if !ok {
		return nil, fmt.Errorf("object %s not found", id)
	}
	s.remove(id)

	return &interp.ExecutionResult{
		Message: fmt.Sprintf("Deleted %s", describeObject(obj)),
	}, nil
}

func (s *Store) queryScene(_ context.Context) (*interp.ExecutionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &interp.ExecutionResult{Message: "Scene: " + s.describeLocked()}, nil
}

func describeObject(obj *Object) string {
	desc := obj.Type
	if obj.Color != "" {
		desc = obj.Color + " " + desc
	}
	if obj.Name != "" {
		desc += fmt.Sprintf(" %q", obj.Name)
	}
	return desc
}
