package narrative

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nyashahama/realyou-backend/internal/scoring"
)

// narrativeJSON is the exact shape the models are prompted to return, so it
// can be parsed without regex heuristics.
type narrativeJSON struct {
	Story []string `json:"story"`
	Coach []string `json:"coach"`
}

const systemPrompt = `You are a warm but direct personality coach writing a premium deep-dive report.
You will receive a four-letter personality type, its label and summary, the respondent's raw axis scores (EI, SN, TF, JP; positive values lean E, N, T, J), and the profile bullets for that type.

Write:
1. story: 4-5 short paragraphs in second person describing how this person moves through work, relationships, stress, and career. Use the profile content; do not invent a different type.
2. coach: 4-5 straight-talk pointers, each starting with a short label and a colon (for example "Alignment check: ..."). Concrete, kind, no therapy jargon.

Plain text only, no markdown, no emoji.
Respond ONLY with valid JSON matching this exact schema, no markdown fences, no preamble:
{
  "story": ["...", "..."],
  "coach": ["...", "..."]
}`

// buildPrompt serialises the result into a compact prompt string.
func buildPrompt(res scoring.Result) string {
	p := res.Profile
	var sb strings.Builder
	fmt.Fprintf(&sb, "type: %s (%s)\n", res.TypeCode, p.Label)
	fmt.Fprintf(&sb, "summary: %s\n", p.Summary)
	fmt.Fprintf(&sb, "scores: EI=%d SN=%d TF=%d JP=%d\n",
		res.TraitVector.EI, res.TraitVector.SN, res.TraitVector.TF, res.TraitVector.JP)
	writeList(&sb, "core_traits", p.CoreTraits)
	writeList(&sb, "strengths", p.Strengths)
	writeList(&sb, "blindspots", p.Blindspots)
	writeList(&sb, "ideal_careers", p.IdealCareers)
	fmt.Fprintf(&sb, "relationship_style: %s\n", p.RelationshipStyle)
	writeList(&sb, "communication_tips", p.CommunicationTips)
	writeList(&sb, "growth_focus", p.GrowthFocus)
	writeList(&sb, "best_types", p.Compatibility.BestTypes)
	writeList(&sb, "challenging_types", p.Compatibility.ChallengingTypes)
	return sb.String()
}

func writeList(sb *strings.Builder, name string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s:\n", name)
	for _, it := range items {
		fmt.Fprintf(sb, "- %s\n", it)
	}
}

// parseNarrative strips any accidental markdown fences and decodes the
// model output.
func parseNarrative(raw string, src Source) (Narrative, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var parsed narrativeJSON
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Narrative{}, fmt.Errorf("%s: parse response JSON: %w (raw: %.200s)", src, err, raw)
	}
	n := Narrative{Story: compact(parsed.Story), Coach: compact(parsed.Coach), Source: src}
	if n.Empty() {
		return Narrative{}, fmt.Errorf("%s: response had no story or coach text", src)
	}
	return n, nil
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}
