package model

// Command identifies an executable command. The set is closed: dispatch
// goes through a registration table rather than switching on raw strings.
type Command string

const (
	CommandCreateSphere   Command = "create_sphere"
	CommandCreateBox      Command = "create_box"
	CommandCreateCylinder Command = "create_cylinder"
	CommandMoveObject     Command = "move_object"
	CommandScaleObject    Command = "scale_object"
	CommandRotateObject   Command = "rotate_object"
	CommandDeleteObject   Command = "delete_object"
	CommandQueryScene     Command = "query_scene"
)

// IntentCategory is the high-level purpose of an utterance.
type IntentCategory string

const (
	CategoryDirectCommand    IntentCategory = "direct_command"
	CategoryModification     IntentCategory = "modification"
	CategoryQuery            IntentCategory = "query"
	CategoryComplexOperation IntentCategory = "complex_operation"
	CategoryUnknown          IntentCategory = "unknown"
)

// CommandTemplate is the declared shape of a command: its identifier, the
// parameters it accepts (in order), and the keywords used for cheap matching.
type CommandTemplate struct {
	Command     Command  `json:"command"`
	Parameters  []string `json:"parameters"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// IntentPattern associates a keyword list with a command template.
// Patterns are static: loaded once at startup and never mutated.
type IntentPattern struct {
	Category IntentCategory
	Keywords []string
	Template *CommandTemplate
}

// IntentResult is the outcome of classifying one utterance.
type IntentResult struct {
	Category   IntentCategory   `json:"category"`
	Template   *CommandTemplate `json:"template,omitempty"`
	Confidence float64          `json:"confidence"`
	Matched    []string         `json:"matched_keywords,omitempty"`
}

// ParameterMap holds extracted, typed parameter values keyed by parameter
// name. Values are one of: Point3D, Vector3D, float64, int, or string
// (text, color, material, layer and name parameters are strings). Absent
// parameters are absent keys, never nil sentinels.
type ParameterMap map[string]any

// Point returns the named Point3D parameter, or def when absent or mistyped.
func (p ParameterMap) Point(key string, def Point3D) Point3D {
	if v, ok := p[key].(Point3D); ok {
		return v
	}
	return def
}

// Vector returns the named Vector3D parameter, or def when absent or mistyped.
func (p ParameterMap) Vector(key string, def Vector3D) Vector3D {
	if v, ok := p[key].(Vector3D); ok {
		return v
	}
	return def
}

// Float returns the named scalar parameter, or def when absent or mistyped.
// Integer values are widened.
func (p ParameterMap) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// Str returns the named string parameter, or def when absent or mistyped.
func (p ParameterMap) Str(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Clone returns a shallow copy. Repair passes mutate the copy so the
// original extraction result stays intact.
func (p ParameterMap) Clone() ParameterMap {
	out := make(ParameterMap, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
