// Package narrative produces the premium deep-dive prose for a scored
// result: a story view and a straight-talk coach view. A deterministic
// template is always available; LLM-backed narrators can be layered in front
// of it.
package narrative

import (
	"context"

	"github.com/nyashahama/realyou-backend/internal/scoring"
)

// Source names the narrator that produced a Narrative.
type Source string

const (
	SourceTemplate  Source = "template"
	SourceAnthropic Source = "anthropic"
	SourceDeepSeek  Source = "deepseek"
)

// Narrative is the deep-dive text. Each entry is one paragraph (Story) or one
// pointer (Coach); renderers decide on bullets and spacing.
type Narrative struct {
	Story  []string `json:"story"`
	Coach  []string `json:"coach"`
	Source Source   `json:"source"`
}

// Empty reports whether n has nothing to show.
func (n Narrative) Empty() bool {
	return len(n.Story) == 0 && len(n.Coach) == 0
}

// Narrator is the interface the delivery worker uses to write deep dives.
// Tests inject a stub that returns canned responses.
type Narrator interface {
	// Narrate must be safe to call concurrently. A non-nil error means the
	// whole call failed and the caller should fall back to the template.
	Narrate(ctx context.Context, res scoring.Result) (Narrative, error)
}
