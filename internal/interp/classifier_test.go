package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhinoai/cad-interpreter/internal/model"
)

func TestClassifySphereCommand(t *testing.T) {
	c := NewIntentClassifier(NewRegistry())

	result := c.Classify("create a red sphere with radius 5", nil)

	require.NotNil(t, result.Template)
	assert.Equal(t, model.CommandCreateSphere, result.Template.Command)
	assert.Equal(t, model.CategoryDirectCommand, result.Category)
	// "sphere" and "create" match as substrings and whole words out of
	// five keywords: 2/5 + 2/5*0.3 = 0.52.
	assert.InDelta(t, 0.52, result.Confidence, 1e-9)
	assert.Contains(t, result.Matched, "sphere")
}

func TestClassifyNoMatchIsUnknownWithZeroConfidence(t *testing.T) {
	c := NewIntentClassifier(NewRegistry())

	result := c.Classify("xyzzy plugh", nil)

	assert.Equal(t, model.CategoryUnknown, result.Category)
	assert.Zero(t, result.Confidence)
	assert.Nil(t, result.Template)
}

func TestClassifyConfidenceClamped(t *testing.T) {
	c := NewIntentClassifier(NewRegistry())

	// Every sphere keyword present, raw score would exceed 1.0.
	result := c.Classify("create and make a round ball sphere", nil)

	assert.Equal(t, 1.0, result.Confidence)
}

func TestClassifyRelevanceBoost(t *testing.T) {
	c := NewIntentClassifier(NewRegistry())
	cctx := &model.ConversationContext{RecentOperations: []string{"create"}}

	result := c.Classify("create a red sphere with radius 5", cctx)

	// All recent operations belong to the direct-command set, so the
	// full 0.1 boost applies on top of 0.52.
	assert.InDelta(t, 0.62, result.Confidence, 1e-9)
}

func TestClassifyBoostReclamped(t *testing.T) {
	c := NewIntentClassifier(NewRegistry())
	cctx := &model.ConversationContext{RecentOperations: []string{"create"}}

	result := c.Classify("create and make a round ball sphere", cctx)

	assert.Equal(t, 1.0, result.Confidence)
}

func TestClassifyBoostIgnoredForUnrelatedCategory(t *testing.T) {
	c := NewIntentClassifier(NewRegistry())
	cctx := &model.ConversationContext{RecentOperations: []string{"move"}}

	// "move" is a modification verb; a creation intent gets no boost.
	result := c.Classify("create a red sphere with radius 5", cctx)

	assert.InDelta(t, 0.52, result.Confidence, 1e-9)
}

func TestClassifyMoveCommand(t *testing.T) {
	c := NewIntentClassifier(NewRegistry())

	result := c.Classify("move it by 3,0,0", nil)

	require.NotNil(t, result.Template)
	assert.Equal(t, model.CommandMoveObject, result.Template.Command)
	assert.Equal(t, model.CategoryModification, result.Category)
	assert.InDelta(t, 0.325, result.Confidence, 1e-9)
}

func TestClassifyPartialKeywordIsSubstringOnly(t *testing.T) {
	c := NewIntentClassifier(NewRegistry())

	// "spheres" contains "sphere" as a substring but not as a whole
	// word, so only the substring term contributes: 1/5 = 0.2.
	result := c.Classify("spheres", nil)

	require.NotNil(t, result.Template)
	assert.Equal(t, model.CommandCreateSphere, result.Template.Command)
	assert.InDelta(t, 0.2, result.Confidence, 1e-9)
}
