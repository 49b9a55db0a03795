package interp

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rhinoai/cad-interpreter/internal/model"
)

// Per-parameter extraction patterns. All matching is case-insensitive
// against the raw input; numeric captures parse with strconv.
var (
	coordTripleRe = regexp.MustCompile(`(?i)\b(?:at|position|center)\s*\(?\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)(?:\s*,\s*(-?\d+(?:\.\d+)?))?\s*\)?`)
	radiusRe      = regexp.MustCompile(`(?i)\b(?:radius|r)\b\s*(?:of|=|:)?\s*(-?\d+(?:\.\d+)?)`)
	diameterRe    = regexp.MustCompile(`(?i)\b(?:size|diameter)\b\s*(?:of|=|:)?\s*(-?\d+(?:\.\d+)?)`)
	dimensionsRe  = regexp.MustCompile(`(?i)\b(?:size|dimensions?)\b\s*(?:of|:)?\s*(-?\d+(?:\.\d+)?)\s*[x×]\s*(-?\d+(?:\.\d+)?)(?:\s*[x×]\s*(-?\d+(?:\.\d+)?))?`)
	heightRe      = regexp.MustCompile(`(?i)\b(?:height|h)\b\s*(?:of|=|:)?\s*(-?\d+(?:\.\d+)?)`)
	nameRe        = regexp.MustCompile(`(?i)\b(?:named|called|with name)\s+['"]?([\w-]+)['"]?`)
	translationRe = regexp.MustCompile(`(?i)\b(?:by|move)\s+(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)(?:\s*,\s*(-?\d+(?:\.\d+)?))?`)
	scaleRe       = regexp.MustCompile(`(?i)\b(?:scale|resize)\b.*?\b(?:by|factor|to)\s+(-?\d+(?:\.\d+)?)`)
	layerRe       = regexp.MustCompile(`(?i)\b(?:on layer|layer)\s+['"]?([\w-]+)['"]?`)
	angleRe       = regexp.MustCompile(`(?i)\b(?:by|angle)\s+(-?\d+(?:\.\d+)?)\s*(?:degrees|deg)?\b`)
)

// colorNames is the fixed color vocabulary, matched as substrings. "grey"
// normalizes to "gray".
var colorNames = []string{
	"red", "green", "blue", "yellow", "orange", "purple", "pink",
	"cyan", "magenta", "white", "black", "gray", "grey", "brown",
}

// materialNames is the fixed material vocabulary.
var materialNames = []string{"wood", "metal", "plastic", "glass", "concrete", "stone"}

// relativeOffset is the displacement applied for relative-position phrases.
const relativeOffset = 5.0

// ParameterExtractor produces a typed parameter map from raw input, a
// command template, and conversation context. Stateless and safe for
// concurrent use.
type ParameterExtractor struct{}

// NewParameterExtractor creates a parameter extractor.
func NewParameterExtractor() *ParameterExtractor {
	return &ParameterExtractor{}
}

// Extract dispatches each declared template parameter to its extraction
// rule. Parameters whose rule yields nothing are omitted from the map, not
// set to a sentinel.
func (e *ParameterExtractor) Extract(input string, template *model.CommandTemplate, cctx *model.ConversationContext) model.ParameterMap {
	params := make(model.ParameterMap)
	if template == nil {
		return params
	}

	for _, name := range template.Parameters {
		if value := e.extractOne(input, name, cctx); value != nil {
			params[name] = value
		}
	}
	return params
}

func (e *ParameterExtractor) extractOne(input, name string, cctx *model.ConversationContext) any {
	switch name {
	case "center", "position":
		return extractPosition(input, cctx)
	case "radius":
		return extractRadius(input)
	case "dimensions":
		return extractDimensions(input)
	case "height":
		return extractScalar(heightRe, input)
	case "color":
		return extractColor(input)
	case "name":
		return extractCapture(nameRe, input)
	case "translation":
		return extractTranslation(input)
	case "scale":
		return extractScalar(scaleRe, input)
	case "material":
		return extractMaterial(input)
	case "layer":
		return extractCapture(layerRe, input)
	case "angle":
		return extractScalar(angleRe, input)
	case "objectId":
		return resolveObjectID(cctx)
	default:
		return nil
	}
}

// extractPosition looks for an explicit coordinate triple first, then a
// relative-position phrase anchored to the last created object, and falls
// back to the origin.
func extractPosition(input string, cctx *model.ConversationContext) any {
	if m := coordTripleRe.FindStringSubmatch(input); m != nil {
		return model.Point3D{
			X: parseFloat(m[1]),
			Y: parseFloat(m[2]),
			Z: parseOptionalFloat(m[3]),
		}
	}

	if cctx != nil && cctx.LastCreatedObject != nil {
		base := cctx.LastCreatedObject.Position
		lower := strings.ToLower(input)
		switch {
		case strings.Contains(lower, "next to"):
			return base.Add(model.Vector3D{X: relativeOffset})
		case strings.Contains(lower, "above"):
			return base.Add(model.Vector3D{Z: relativeOffset})
		case strings.Contains(lower, "below"):
			return base.Add(model.Vector3D{Z: -relativeOffset})
		}
	}

	return model.Origin
}

// extractRadius prefers an explicit radius; a size/diameter value is
// halved.
func extractRadius(input string) any {
	if m := radiusRe.FindStringSubmatch(input); m != nil {
		return parseFloat(m[1])
	}
	if m := diameterRe.FindStringSubmatch(input); m != nil {
		return parseFloat(m[1]) / 2
	}
	return nil
}

// extractDimensions parses "a x b [x c]". When only two numbers are given
// the first is reused as the third (square cross-section default).
func extractDimensions(input string) any {
	m := dimensionsRe.FindStringSubmatch(input)
	if m == nil {
		return nil
	}
	a := parseFloat(m[1])
	b := parseFloat(m[2])
	c := a
	if m[3] != "" {
		c = parseFloat(m[3])
	}
	return model.Vector3D{X: a, Y: b, Z: c}
}

func extractTranslation(input string) any {
	m := translationRe.FindStringSubmatch(input)
	if m == nil {
		return nil
	}
	return model.Vector3D{
		X: parseFloat(m[1]),
		Y: parseFloat(m[2]),
		Z: parseOptionalFloat(m[3]),
	}
}

func extractColor(input string) any {
	lower := strings.ToLower(input)
	for _, name := range colorNames {
		if strings.Contains(lower, name) {
			if name == "grey" {
				return "gray"
			}
			return name
		}
	}
	return nil
}

func extractMaterial(input string) any {
	lower := strings.ToLower(input)
	for _, name := range materialNames {
		if strings.Contains(lower, name) {
			return name
		}
	}
	return nil
}

func extractScalar(re *regexp.Regexp, input string) any {
	if m := re.FindStringSubmatch(input); m != nil {
		return parseFloat(m[1])
	}
	return nil
}

func extractCapture(re *regexp.Regexp, input string) any {
	if m := re.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	return nil
}

// resolveObjectID picks the modification target from context: the active
// selection first, then the last created object.
func resolveObjectID(cctx *model.ConversationContext) any {
	if cctx == nil {
		return nil
	}
	if len(cctx.SelectedObjectIDs) > 0 {
		return cctx.SelectedObjectIDs[0]
	}
	if cctx.LastCreatedObject != nil {
		return cctx.LastCreatedObject.ID
	}
	return nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseOptionalFloat(s string) float64 {
	if s == "" {
		return 0
	}
	return parseFloat(s)
}

// Adjust performs one best-effort repair pass over an invalid parameter
// map, guided by the validation error text. Each rule matches an error
// substring and nudges the offending value to a known-good default; this
// is deliberately not a constraint solver. The input map is not mutated.
func (e *ParameterExtractor) Adjust(params model.ParameterMap, errorMessage string) model.ParameterMap {
	adjusted := params.Clone()
	lower := strings.ToLower(errorMessage)

	if strings.Contains(lower, "radius") {
		r := adjusted.Float("radius", 0)
		switch {
		case r <= 0:
			adjusted["radius"] = 1.0
		case r > 1000:
			adjusted["radius"] = 10.0
		}
	}

	if strings.Contains(lower, "height") {
		if adjusted.Float("height", 0) <= 0 {
			adjusted["height"] = 1.0
		}
	}

	if strings.Contains(lower, "scale") {
		if adjusted.Float("scale", 0) <= 0 {
			adjusted["scale"] = 1.0
		}
	}

	return adjusted
}
