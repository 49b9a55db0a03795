package scene

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhinoai/cad-interpreter/internal/interp"
	"github.com/rhinoai/cad-interpreter/internal/model"
)

func createSphere(t *testing.T, s *Store, radius float64) string {
	t.Helper()
	result, err := s.Execute(context.Background(), model.CommandCreateSphere, model.ParameterMap{
		"center": model.Point3D{X: 1, Y: 2, Z: 3},
		"radius": radius,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.ObjectID)
	return result.ObjectID
}

func TestCreateSphere(t *testing.T) {
	s := NewStore()

	result, err := s.Execute(context.Background(), model.CommandCreateSphere, model.ParameterMap{
		"center": model.Point3D{X: 1, Y: 2, Z: 3},
		"radius": 5.0,
		"color":  "red",
	})

	require.NoError(t, err)
	assert.False(t, result.Warning)
	assert.Contains(t, result.Message, "red sphere")
	assert.Contains(t, result.Message, "(1, 2, 3)")

	objects := s.Objects()
	require.Len(t, objects, 1)
	assert.Equal(t, "sphere", objects[0].Type)
	assert.Equal(t, DefaultLayer, objects[0].Layer)
	assert.Equal(t, model.Point3D{X: 1, Y: 2, Z: 3}, objects[0].Position)
}

func TestCreateSphereHugeRadiusWarns(t *testing.T) {
	s := NewStore()

	result, err := s.Execute(context.Background(), model.CommandCreateSphere, model.ParameterMap{
		"radius": 5000.0,
	})

	require.NoError(t, err)
	assert.True(t, result.Warning)

	objects := s.Objects()
	assert.Len(t, objects, 1)
}

func TestCreateCylinderRejectsDegenerateGeometry(t *testing.T) {
	s := NewStore()

	_, err := s.Execute(context.Background(), model.CommandCreateCylinder, model.ParameterMap{
		"radius": 0.0,
		"height": 5.0,
	})
	assert.Error(t, err)

	_, err = s.Execute(context.Background(), model.CommandCreateCylinder, model.ParameterMap{
		"radius": 1.0,
		"height": -5.0,
	})
	assert.Error(t, err)

	assert.Empty(t, s.Objects())
}

func TestMoveObject(t *testing.T) {
	s := NewStore()
	id := createSphere(t, s, 5)

	result, err := s.Execute(context.Background(), model.CommandMoveObject, model.ParameterMap{
		"objectId":    id,
		"translation": model.Vector3D{X: 3, Y: 0, Z: -1},
	})

	require.NoError(t, err)
	assert.Contains(t, result.Message, "(4, 2, 2)")
	assert.Equal(t, model.Point3D{X: 4, Y: 2, Z: 2}, s.Objects()[0].Position)
}

func TestScaleObject(t *testing.T) {
	s := NewStore()
	id := createSphere(t, s, 5)

	_, err := s.Execute(context.Background(), model.CommandScaleObject, model.ParameterMap{
		"objectId": id,
		"scale":    2.0,
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.Objects()[0].Scale)

	_, err = s.Execute(context.Background(), model.CommandScaleObject, model.ParameterMap{
		"objectId": id,
		"scale":    -1.0,
	})
	assert.Error(t, err)
}

func TestDeleteObjectClearsSelection(t *testing.T) {
	s := NewStore()
	id := createSphere(t, s, 5)
	s.Select([]string{id})

	_, err := s.Execute(context.Background(), model.CommandDeleteObject, model.ParameterMap{
		"objectId": id,
	})

	require.NoError(t, err)
	assert.Empty(t, s.Objects())

	selected, err := s.SelectedObjectIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, selected)
}

func TestMoveUnknownObject(t *testing.T) {
	s := NewStore()

	_, err := s.Execute(context.Background(), model.CommandMoveObject, model.ParameterMap{
		"objectId":    "nope",
		"translation": model.Vector3D{X: 1},
	})

	assert.Error(t, err)
}

func TestQueryScene(t *testing.T) {
	s := NewStore()

	result, err := s.Execute(context.Background(), model.CommandQueryScene, nil)
	require.NoError(t, err)
	assert.Contains(t, result.Message, "empty scene")

	createSphere(t, s, 1)
	createSphere(t, s, 2)
	_, err = s.Execute(context.Background(), model.CommandCreateBox, model.ParameterMap{
		"dimensions": model.Vector3D{X: 1, Y: 1, Z: 1},
	})
	require.NoError(t, err)

	result, err = s.Execute(context.Background(), model.CommandQueryScene, nil)
	require.NoError(t, err)
	assert.Contains(t, result.Message, "3 objects")
	assert.Contains(t, result.Message, "2 sphere")
	assert.Contains(t, result.Message, "1 box")
}

func TestCheckConstraints(t *testing.T) {
	s := NewStore()
	id := createSphere(t, s, 5)

	ok := s.CheckConstraints(context.Background(), model.CommandMoveObject, model.ParameterMap{"objectId": id})
	assert.True(t, ok.Valid)

	gone := s.CheckConstraints(context.Background(), model.CommandMoveObject, model.ParameterMap{"objectId": "nope"})
	assert.False(t, gone.Valid)

	// Creations reference no existing object.
	create := s.CheckConstraints(context.Background(), model.CommandCreateSphere, model.ParameterMap{})
	assert.True(t, create.Valid)
}

func TestSelectIgnoresUnknownIDs(t *testing.T) {
	s := NewStore()
	id := createSphere(t, s, 5)

	s.Select([]string{id, "nope"})

	selected, err := s.SelectedObjectIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{id}, selected)
}

func TestSetActiveLayer(t *testing.T) {
	s := NewStore()
	s.SetActiveLayer("Walls")

	layer, err := s.ActiveLayer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Walls", layer)

	// New objects land on the active layer.
	id := createSphere(t, s, 5)
	_ = id
	assert.Equal(t, "Walls", s.Objects()[0].Layer)
}

func TestStoreSatisfiesPipelineContracts(t *testing.T) {
	var s interface{} = NewStore()

	_, ok := s.(interp.Executor)
	assert.True(t, ok)
	_, ok = s.(interp.Inspector)
	assert.True(t, ok)
	_, ok = s.(interp.ConstraintChecker)
	assert.True(t, ok)
}
