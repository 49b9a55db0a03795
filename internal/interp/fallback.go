package interp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rhinoai/cad-interpreter/internal/model"
)

// backendReply is the JSON shape the completion backend is instructed to
// return. Field names are part of the prompt contract.
type backendReply struct {
	Actions      []backendAction `json:"Actions"`
	ResponseText string          `json:"ResponseText"`
}

type backendAction struct {
	CommandName string `json:"CommandName"`
}

// BuildSystemPrompt assembles the instruction block sent to the
// completion backend: the available command vocabulary followed by a
// snapshot of the conversation state.
func BuildSystemPrompt(registry *Registry, cctx *model.ConversationContext) string {
	var b strings.Builder
	b.WriteString("You are a CAD modeling assistant. Translate the user's request into commands.\n")
	b.WriteString("Available commands:\n")
	for _, tmpl := range registry.Templates() {
		fmt.Fprintf(&b, "- %s: %s (parameters: %s)\n",
			tmpl.Command, tmpl.Description, strings.Join(tmpl.Parameters, ", "))
	}

	b.WriteString("\nRespond with JSON only, in this exact shape:\n")
	b.WriteString(`{"Actions":[{"CommandName":"..."}],"ResponseText":"..."}` + "\n")

	if cctx != nil {
		b.WriteString("\nCurrent state:\n")
		if cctx.SceneDescription != "" {
			fmt.Fprintf(&b, "Scene: %s\n", cctx.SceneDescription)
		}
		if cctx.ActiveLayer != "" {
			fmt.Fprintf(&b, "Active layer: %s\n", cctx.ActiveLayer)
		}
		if len(cctx.SelectedObjectIDs) > 0 {
			fmt.Fprintf(&b, "Selected objects: %s\n", strings.Join(cctx.SelectedObjectIDs, ", "))
		}
		if len(cctx.RecentOperations) > 0 {
			fmt.Fprintf(&b, "Recent operations: %s\n", strings.Join(cctx.RecentOperations, ", "))
		}
		if last := cctx.LastCreatedObject; last != nil {
			fmt.Fprintf(&b, "Last created: %s at %s\n", last.Type, last.Position.String())
		}
	}

	return b.String()
}

// ParseBackendReply decodes the backend's JSON reply, tolerating the
// common habit of wrapping it in a markdown code fence.
func ParseBackendReply(raw string) (*backendReply, error) {
	text := stripCodeFence(strings.TrimSpace(raw))

	var reply backendReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return nil, fmt.Errorf("decoding backend reply: %w", err)
	}
	return &reply, nil
}

// stripCodeFence removes a surrounding triple-backtick fence, with or
// without a language tag.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		first := strings.TrimSpace(text[:i])
		if first == "json" || first == "" {
			text = text[i+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
