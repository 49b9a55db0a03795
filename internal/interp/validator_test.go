package interp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rhinoai/cad-interpreter/internal/model"
)

func TestValidateSphere(t *testing.T) {
	v := NewSemanticValidator()

	assert.True(t, v.Validate(model.CommandCreateSphere, model.ParameterMap{"radius": 5.0}).Valid)

	result := v.Validate(model.CommandCreateSphere, model.ParameterMap{"radius": -5.0})
	assert.False(t, result.Valid)
	assert.Contains(t, result.Message, "radius")

	result = v.Validate(model.CommandCreateSphere, model.ParameterMap{})
	assert.False(t, result.Valid)
	assert.Contains(t, result.Message, "radius")
}

func TestValidateBox(t *testing.T) {
	v := NewSemanticValidator()

	ok := model.ParameterMap{"dimensions": model.Vector3D{X: 1, Y: 2, Z: 3}}
	assert.True(t, v.Validate(model.CommandCreateBox, ok).Valid)

	flat := model.ParameterMap{"dimensions": model.Vector3D{X: 1, Y: 0, Z: 3}}
	assert.False(t, v.Validate(model.CommandCreateBox, flat).Valid)

	assert.False(t, v.Validate(model.CommandCreateBox, model.ParameterMap{}).Valid)
}

func TestValidateCylinderChecksPresenceOnly(t *testing.T) {
	v := NewSemanticValidator()

	// Zero and negative values pass here; the executor rejects them.
	params := model.ParameterMap{"radius": 0.0, "height": -3.0}
	assert.True(t, v.Validate(model.CommandCreateCylinder, params).Valid)

	assert.False(t, v.Validate(model.CommandCreateCylinder, model.ParameterMap{"radius": 1.0}).Valid)
	assert.False(t, v.Validate(model.CommandCreateCylinder, model.ParameterMap{"height": 1.0}).Valid)
}

func TestValidateModificationRequiresTarget(t *testing.T) {
	v := NewSemanticValidator()

	result := v.Validate(model.CommandMoveObject, model.ParameterMap{"translation": model.Vector3D{X: 1}})
	assert.False(t, result.Valid)
	assert.Contains(t, result.Message, "target")

	result = v.Validate(model.CommandMoveObject, model.ParameterMap{"objectId": "obj-1"})
	assert.False(t, result.Valid)
	assert.Contains(t, result.Message, "translation")

	ok := model.ParameterMap{"objectId": "obj-1", "translation": model.Vector3D{X: 1}}
	assert.True(t, v.Validate(model.CommandMoveObject, ok).Valid)
}

func TestValidateDeleteRequiresOnlyTarget(t *testing.T) {
	v := NewSemanticValidator()

	assert.True(t, v.Validate(model.CommandDeleteObject, model.ParameterMap{"objectId": "obj-1"}).Valid)
	assert.False(t, v.Validate(model.CommandDeleteObject, model.ParameterMap{}).Valid)
}

func TestValidateDoesNotMutateParams(t *testing.T) {
	v := NewSemanticValidator()
	params := model.ParameterMap{"radius": -5.0}

	_ = v.Validate(model.CommandCreateSphere, params)

	assert.Equal(t, -5.0, params["radius"])
	assert.Len(t, params, 1)
}

type stubChecker struct {
	result model.ValidationResult
	called bool
}

func (s *stubChecker) CheckConstraints(context.Context, model.Command, model.ParameterMap) model.ValidationResult {
	s.called = true
	return s.result
}

func TestPreExecuteValidateShortCircuits(t *testing.T) {
	v := NewSemanticValidator()
	checker := &stubChecker{result: model.Valid()}

	// Basic validation fails, so the checker is never consulted.
	result := v.PreExecuteValidate(context.Background(), checker, model.CommandCreateSphere, model.ParameterMap{})
	assert.False(t, result.Valid)
	assert.False(t, checker.called)
}

func TestPreExecuteValidateConsultsChecker(t *testing.T) {
	v := NewSemanticValidator()
	checker := &stubChecker{result: model.Invalid("object gone")}

	result := v.PreExecuteValidate(context.Background(), checker, model.CommandCreateSphere, model.ParameterMap{"radius": 1.0})
	assert.False(t, result.Valid)
	assert.True(t, checker.called)
	assert.Equal(t, "object gone", result.Message)
}

func TestPreExecuteValidateNilChecker(t *testing.T) {
	v := NewSemanticValidator()

	result := v.PreExecuteValidate(context.Background(), nil, model.CommandCreateSphere, model.ParameterMap{"radius": 1.0})
	assert.True(t, result.Valid)
}
