package interp

import (
	"context"
	"fmt"

	"github.com/rhinoai/cad-interpreter/internal/model"
)

// ConstraintChecker validates context-dependent constraints that a pure
// rule table cannot see, such as whether a referenced object still exists
// in the scene. Implementations may consult live state.
type ConstraintChecker interface {
	CheckConstraints(ctx context.Context, cmd model.Command, params model.ParameterMap) model.ValidationResult
}

// SemanticValidator checks a parameter map against per-command rules.
// Validation is pure: it never mutates the map and never touches external
// state. Safe for concurrent use.
type SemanticValidator struct {
	rules map[model.Command]func(model.ParameterMap) model.ValidationResult
}

// NewSemanticValidator builds the rule table for every known command.
func NewSemanticValidator() *SemanticValidator {
	v := &SemanticValidator{}
	v.rules = map[model.Command]func(model.ParameterMap) model.ValidationResult{
		model.CommandCreateSphere:   validateSphere,
		model.CommandCreateBox:      validateBox,
		model.CommandCreateCylinder: validateCylinder,
		model.CommandMoveObject:     requireTarget("translation"),
		model.CommandScaleObject:    requireTarget("scale"),
		model.CommandRotateObject:   requireTarget("angle"),
		model.CommandDeleteObject:   requireTarget(""),
		model.CommandQueryScene: func(model.ParameterMap) model.ValidationResult {
			return model.Valid()
		},
	}
	return v
}

// Validate applies the command's rule. Commands without a registered rule
// pass; unknown commands are the executor's problem, not the validator's.
func (v *SemanticValidator) Validate(cmd model.Command, params model.ParameterMap) model.ValidationResult {
	rule, ok := v.rules[cmd]
	if !ok {
		return model.Valid()
	}
	return rule(params)
}

// PreExecuteValidate runs basic rule validation first and only consults
// the constraint checker when the basics pass. A nil checker skips the
// second stage.
func (v *SemanticValidator) PreExecuteValidate(ctx context.Context, checker ConstraintChecker, cmd model.Command, params model.ParameterMap) model.ValidationResult {
	result := v.Validate(cmd, params)
	if !result.Valid {
		return result
	}
	if checker == nil {
		return result
	}
	return checker.CheckConstraints(ctx, cmd, params)
}

func validateSphere(params model.ParameterMap) model.ValidationResult {
	r, ok := params["radius"]
	if !ok {
		return model.Invalid("sphere requires a radius")
	}
	f, ok := asFloat(r)
	if !ok || f <= 0 {
		return model.Invalid(fmt.Sprintf("sphere radius must be positive, got %v", r))
	}
	return model.Valid()
}

func validateBox(params model.ParameterMap) model.ValidationResult {
	d, ok := params["dimensions"]
	if !ok {
		return model.Invalid("box requires dimensions")
	}
	dims, ok := d.(model.Vector3D)
	if !ok {
		return model.Invalid("box dimensions must be a width x depth x height triple")
	}
	if dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 {
		return model.Invalid(fmt.Sprintf("box dimensions must all be positive, got %g x %g x %g", dims.X, dims.Y, dims.Z))
	}
	return model.Valid()
}

// validateCylinder checks presence only. Value checks for cylinders happen
// at execution time, which keeps the repair loop from masking degenerate
// geometry with silent defaults.
func validateCylinder(params model.ParameterMap) model.ValidationResult {
	if _, ok := params["radius"]; !ok {
		return model.Invalid("cylinder requires a radius")
	}
	if _, ok := params["height"]; !ok {
		return model.Invalid("cylinder requires a height")
	}
	return model.Valid()
}

// requireTarget builds a rule demanding an objectId plus, when named, one
// command-specific parameter.
func requireTarget(extra string) func(model.ParameterMap) model.ValidationResult {
	return func(params model.ParameterMap) model.ValidationResult {
		id := params.Str("objectId", "")
		if id == "" {
			return model.Invalid("no target object: nothing is selected and nothing was recently created")
		}
		if extra != "" {
			if _, ok := params[extra]; !ok {
				return model.Invalid(fmt.Sprintf("missing required parameter %q", extra))
			}
		}
		return model.Valid()
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
