package interp

import (
	"strings"

	"github.com/rhinoai/cad-interpreter/internal/model"
)

// Registry holds the static intent pattern table and the command template
// set. Loaded once at startup, never mutated afterwards; safe for
// concurrent reads.
type Registry struct {
	patterns  []model.IntentPattern
	templates map[model.Command]*model.CommandTemplate
	byAlias   map[string]*model.CommandTemplate
}

// NewRegistry builds the default registry.
func NewRegistry() *Registry {
	templates := []*model.CommandTemplate{
		{
			Command:     model.CommandCreateSphere,
			Parameters:  []string{"center", "radius", "color", "material", "layer", "name"},
			Description: "Creates a sphere with a center point and radius",
			Keywords:    []string{"sphere", "ball", "round"},
		},
		{
			Command:     model.CommandCreateBox,
			Parameters:  []string{"center", "dimensions", "color", "material", "layer", "name"},
			Description: "Creates a box with a center point and width x depth x height dimensions",
			Keywords:    []string{"box", "cube", "rectangular"},
		},
		{
			Command:     model.CommandCreateCylinder,
			Parameters:  []string{"center", "radius", "height", "color", "material", "layer", "name"},
			Description: "Creates a cylinder with a center point, radius and height",
			Keywords:    []string{"cylinder", "tube", "pipe"},
		},
		{
			Command:     model.CommandMoveObject,
			Parameters:  []string{"objectId", "translation"},
			Description: "Moves an object by an x, y, z displacement",
			Keywords:    []string{"move", "translate", "shift"},
		},
		{
			Command:     model.CommandScaleObject,
			Parameters:  []string{"objectId", "scale"},
			Description: "Scales an object by a uniform factor",
			Keywords:    []string{"scale", "resize"},
		},
		{
			Command:     model.CommandRotateObject,
			Parameters:  []string{"objectId", "angle"},
			Description: "Rotates an object by an angle in degrees",
			Keywords:    []string{"rotate", "turn", "spin"},
		},
		{
			Command:     model.CommandDeleteObject,
			Parameters:  []string{"objectId"},
			Description: "Deletes an object from the scene",
			Keywords:    []string{"delete", "remove", "erase"},
		},
		{
			Command:     model.CommandQueryScene,
			Parameters:  []string{},
			Description: "Describes the current scene contents",
			Keywords:    []string{"describe", "show", "list", "count"},
		},
	}

	byCommand := make(map[model.Command]*model.CommandTemplate, len(templates))
	byAlias := make(map[string]*model.CommandTemplate, len(templates))
	for _, t := range templates {
		byCommand[t.Command] = t
		byAlias[normalizeCommandName(string(t.Command))] = t
	}

	r := &Registry{
		templates: byCommand,
		byAlias:   byAlias,
	}

	r.patterns = []model.IntentPattern{
		{
			Category: model.CategoryDirectCommand,
			Keywords: []string{"sphere", "ball", "round", "create", "make"},
			Template: byCommand[model.CommandCreateSphere],
		},
		{
			Category: model.CategoryDirectCommand,
			Keywords: []string{"box", "cube", "rectangular", "create", "make"},
			Template: byCommand[model.CommandCreateBox],
		},
		{
			Category: model.CategoryDirectCommand,
			Keywords: []string{"cylinder", "tube", "pipe", "create", "make"},
			Template: byCommand[model.CommandCreateCylinder],
		},
		{
			Category: model.CategoryModification,
			Keywords: []string{"move", "translate", "shift", "drag"},
			Template: byCommand[model.CommandMoveObject],
		},
		{
			Category: model.CategoryModification,
			Keywords: []string{"scale", "resize", "bigger", "smaller", "shrink"},
			Template: byCommand[model.CommandScaleObject],
		},
		{
			Category: model.CategoryModification,
			Keywords: []string{"rotate", "turn", "spin"},
			Template: byCommand[model.CommandRotateObject],
		},
		{
			Category: model.CategoryModification,
			Keywords: []string{"delete", "remove", "erase"},
			Template: byCommand[model.CommandDeleteObject],
		},
		{
			Category: model.CategoryQuery,
			Keywords: []string{"what", "describe", "show", "list", "count", "scene"},
			Template: byCommand[model.CommandQueryScene],
		},
	}

	return r
}

// Patterns returns the intent pattern table in registration order.
func (r *Registry) Patterns() []model.IntentPattern {
	return r.patterns
}

// Templates returns all command templates.
func (r *Registry) Templates() []*model.CommandTemplate {
	out := make([]*model.CommandTemplate, 0, len(r.templates))
	for _, p := range r.patterns {
		if p.Template != nil {
			out = append(out, p.Template)
		}
	}
	return out
}

// Template looks up a template by command.
func (r *Registry) Template(cmd model.Command) (*model.CommandTemplate, bool) {
	t, ok := r.templates[cmd]
	return t, ok
}

// TemplateByName maps a command name back to a template, tolerating casing
// and separator differences ("CreateSphere" resolves to create_sphere).
// Completion backends echo command names with varying conventions.
func (r *Registry) TemplateByName(name string) (*model.CommandTemplate, bool) {
	t, ok := r.byAlias[normalizeCommandName(name)]
	return t, ok
}

func normalizeCommandName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "")
	name = strings.ReplaceAll(name, "-", "")
	name = strings.ReplaceAll(name, " ", "")
	return name
}

// categoryOperations maps each intent category to the operation verbs that
// make it more likely given recent activity. Used for the context boost.
var categoryOperations = map[model.IntentCategory][]string{
	model.CategoryDirectCommand: {"create", "copy"},
	model.CategoryModification:  {"move", "scale", "rotate", "delete"},
}
