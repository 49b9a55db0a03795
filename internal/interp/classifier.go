package interp

import (
	"regexp"
	"strings"

	"github.com/rhinoai/cad-interpreter/internal/model"
)

// exactWeight discounts whole-word matches relative to substring matches.
const exactWeight = 0.3

// boostWeight discounts the recent-operation relevance boost.
const boostWeight = 0.1

var wordPattern = regexp.MustCompile(`[a-z0-9_]+`)

// IntentClassifier scores input text against the registry's intent
// patterns. Stateless and safe for concurrent use.
type IntentClassifier struct {
	registry *Registry
}

// NewIntentClassifier creates a classifier over the given registry.
func NewIntentClassifier(registry *Registry) *IntentClassifier {
	return &IntentClassifier{registry: registry}
}

// Classify scores text against every registered pattern and returns the
// best match. Confidence is keywordScore + 0.3*exactScore, capped at 1.0,
// plus a recent-operation relevance boost of up to 0.1, re-clamped to
// [0, 1] because the boost can overshoot the cap. Ties keep the first
// pattern in registration order. When nothing matches at all the result
// is CategoryUnknown with confidence 0 and no template.
func (c *IntentClassifier) Classify(text string, cctx *model.ConversationContext) model.IntentResult {
	input := strings.ToLower(text)
	words := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(input, -1) {
		words[w] = true
	}

	best := model.IntentResult{Category: model.CategoryUnknown}

	for _, pattern := range c.registry.Patterns() {
		if len(pattern.Keywords) == 0 {
			continue
		}

		var substrings, exact int
		var matched []string
		for _, kw := range pattern.Keywords {
			if strings.Contains(input, kw) {
				substrings++
				matched = append(matched, kw)
			}
			if words[kw] {
				exact++
			}
		}
		if substrings == 0 {
			continue
		}

		total := float64(len(pattern.Keywords))
		confidence := float64(substrings)/total + float64(exact)/total*exactWeight
		if confidence > 1.0 {
			confidence = 1.0
		}

		if confidence > best.Confidence {
			best = model.IntentResult{
				Category:   pattern.Category,
				Template:   pattern.Template,
				Confidence: confidence,
				Matched:    matched,
			}
		}
	}

	if best.Category == model.CategoryUnknown {
		return best
	}

	if cctx != nil && len(cctx.RecentOperations) > 0 {
		best.Confidence += relevance(best.Category, cctx.RecentOperations) * boostWeight
		if best.Confidence > 1.0 {
			best.Confidence = 1.0
		}
	}

	return best
}

// relevance is the fraction of recent operation tokens that belong to the
// category's operation-keyword set.
func relevance(category model.IntentCategory, recentOps []string) float64 {
	ops := categoryOperations[category]
	if len(ops) == 0 || len(recentOps) == 0 {
		return 0
	}

	related := 0
	for _, op := range recentOps {
		for _, want := range ops {
			if op == want {
				related++
				break
			}
		}
	}
	return float64(related) / float64(len(recentOps))
}
